// Copyright (c) 2025 Fraunhofer AISEC
// Fraunhofer-Gesellschaft zur Foerderung der angewandten Forschung e.V.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package collateral

import (
	"bytes"
	"encoding/hex"
	"testing"
	"time"

	"github.com/Fraunhofer-AISEC/dcap-qvl/internal/testcerts"
)

func newTestCollateral(t *testing.T) (*testcerts.Pki, []byte, []byte) {
	t.Helper()

	pki, err := testcerts.NewPki(testcerts.DefaultPckValues(), time.Now(), time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("failed to generate test PKI: %v", err)
	}

	values := testcerts.DefaultPckValues()
	tcbInfoRaw, err := pki.SignTcbInfo(values.Fmspc, values.PceId,
		[]testcerts.TcbLevelSpec{{CompSvn: values.CompSvn, PceSvn: values.PceSvn, Status: "UpToDate"}},
		time.Now(), time.Now().Add(24*time.Hour))
	if err != nil {
		t.Fatalf("failed to sign TCB info: %v", err)
	}

	identityRaw, err := pki.SignQeIdentity(testcerts.DefaultQeIdentityValues(),
		time.Now(), time.Now().Add(24*time.Hour))
	if err != nil {
		t.Fatalf("failed to sign QE identity: %v", err)
	}

	return pki, tcbInfoRaw, identityRaw
}

func TestParseTcbInfo(t *testing.T) {
	_, tcbInfoRaw, _ := newTestCollateral(t)
	values := testcerts.DefaultPckValues()

	tcbInfo, err := ParseTcbInfo(tcbInfoRaw)
	if err != nil {
		t.Fatalf("ParseTcbInfo() error = %v", err)
	}

	if tcbInfo.TcbInfo.Fmspc != hex.EncodeToString(values.Fmspc) {
		t.Errorf("FMSPC = %v, want %v", tcbInfo.TcbInfo.Fmspc, hex.EncodeToString(values.Fmspc))
	}
	if tcbInfo.TcbInfo.PceID != hex.EncodeToString(values.PceId) {
		t.Errorf("PCE ID = %v, want %v", tcbInfo.TcbInfo.PceID, hex.EncodeToString(values.PceId))
	}
	if len(tcbInfo.TcbInfo.TcbLevels) != 1 {
		t.Fatalf("TCB levels = %v, want 1", len(tcbInfo.TcbInfo.TcbLevels))
	}
	if len(tcbInfo.Signature) != 64 {
		t.Errorf("signature length = %v, want 64", len(tcbInfo.Signature))
	}
	if tcbInfo.TcbInfo.NextUpdate.Before(time.Now()) {
		t.Errorf("next update %v lies in the past", tcbInfo.TcbInfo.NextUpdate)
	}

	// the body must be the verbatim signed subtree of the document
	if !bytes.Contains(tcbInfoRaw, tcbInfo.Body) {
		t.Errorf("body bytes are not a verbatim slice of the document")
	}
}

func TestParseEnclaveIdentity(t *testing.T) {
	_, _, identityRaw := newTestCollateral(t)
	values := testcerts.DefaultQeIdentityValues()

	identity, err := ParseEnclaveIdentity(identityRaw)
	if err != nil {
		t.Fatalf("ParseEnclaveIdentity() error = %v", err)
	}

	if identity.EnclaveIdentity.ID != "QE" {
		t.Errorf("ID = %v, want QE", identity.EnclaveIdentity.ID)
	}
	if !bytes.Equal(identity.EnclaveIdentity.Mrsigner.Bytes, values.MrSigner) {
		t.Errorf("MRSIGNER = %x, want %x", identity.EnclaveIdentity.Mrsigner.Bytes, values.MrSigner)
	}
	if int(identity.EnclaveIdentity.IsvProdID) != values.IsvProdId {
		t.Errorf("ISVPRODID = %v, want %v", identity.EnclaveIdentity.IsvProdID, values.IsvProdId)
	}
	if len(identity.EnclaveIdentity.TcbLevels) != 1 {
		t.Fatalf("TCB levels = %v, want 1", len(identity.EnclaveIdentity.TcbLevels))
	}
	if !bytes.Contains(identityRaw, identity.Body) {
		t.Errorf("body bytes are not a verbatim slice of the document")
	}
}

func TestParseEnclaveIdentityUnsupportedVersion(t *testing.T) {
	raw := []byte(`{"enclaveIdentity":{"id":"QE","version":1},"signature":"00"}`)
	if _, err := ParseEnclaveIdentity(raw); err == nil {
		t.Errorf("ParseEnclaveIdentity() with version 1: expected error")
	}
}

func TestParseTcbInfoGarbage(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
	}{
		{"not json", []byte("garbage")},
		{"missing body", []byte(`{"signature":"00"}`)},
		{"bad signature hex", []byte(`{"tcbInfo":{},"signature":"zz"}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseTcbInfo(tt.raw); err == nil {
				t.Errorf("ParseTcbInfo() expected error")
			}
		})
	}
}
