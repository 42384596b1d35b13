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

// Package collateral parses the Intel-signed JSON collateral used during DCAP
// quote verification: the TCB info and the QE/enclave identity. Both carry a
// detached hex signature over the verbatim bytes of their signed subtree.
// Signature verification must consume exactly those bytes, so the parser
// keeps them and never re-serializes.
package collateral

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/google/go-tdx-guest/pcs"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("service", "collateral")

const (
	TCB_INFO_JSON_KEY    = "tcbInfo"
	QE_IDENTITY_JSON_KEY = "enclaveIdentity"

	ENCLAVE_IDENTITY_VERSION = 2
)

// TcbInfo is a parsed TCB info structure. TcbInfo holds the decoded view,
// Body the exact signed bytes and Signature the decoded detached signature.
type TcbInfo struct {
	TcbInfo   pcs.TcbInfo
	Body      []byte
	Signature []byte
}

// EnclaveIdentity is a parsed QE/enclave identity structure with the same
// body/signature split as TcbInfo
type EnclaveIdentity struct {
	EnclaveIdentity pcs.EnclaveIdentity
	Body            []byte
	Signature       []byte
}

// ParseTcbInfo decodes a TCB info JSON document
func ParseTcbInfo(raw []byte) (*TcbInfo, error) {

	var tcbInfo pcs.TdxTcbInfo
	if err := json.Unmarshal(raw, &tcbInfo); err != nil {
		return nil, fmt.Errorf("failed to decode TCB info: %v", err)
	}

	body, err := extractTbsArea(raw, TCB_INFO_JSON_KEY)
	if err != nil {
		return nil, err
	}

	sig, err := hex.DecodeString(tcbInfo.Signature)
	if err != nil {
		return nil, fmt.Errorf("failed to decode TCB info signature: %v", err)
	}

	log.Tracef("Parsed TCB info for FMSPC %v with %v TCB levels",
		tcbInfo.TcbInfo.Fmspc, len(tcbInfo.TcbInfo.TcbLevels))

	return &TcbInfo{
		TcbInfo:   tcbInfo.TcbInfo,
		Body:      body,
		Signature: sig,
	}, nil
}

// ParseEnclaveIdentity decodes a QE identity JSON document. Only version 2
// identities are supported.
func ParseEnclaveIdentity(raw []byte) (*EnclaveIdentity, error) {

	var qeIdentity pcs.QeIdentity
	if err := json.Unmarshal(raw, &qeIdentity); err != nil {
		return nil, fmt.Errorf("failed to decode enclave identity: %v", err)
	}

	if qeIdentity.EnclaveIdentity.Version != ENCLAVE_IDENTITY_VERSION {
		return nil, fmt.Errorf("unsupported enclave identity version %v, expected %v",
			qeIdentity.EnclaveIdentity.Version, ENCLAVE_IDENTITY_VERSION)
	}

	body, err := extractTbsArea(raw, QE_IDENTITY_JSON_KEY)
	if err != nil {
		return nil, err
	}

	sig, err := hex.DecodeString(qeIdentity.Signature)
	if err != nil {
		return nil, fmt.Errorf("failed to decode enclave identity signature: %v", err)
	}

	log.Tracef("Parsed enclave identity %v with %v TCB levels",
		qeIdentity.EnclaveIdentity.ID, len(qeIdentity.EnclaveIdentity.TcbLevels))

	return &EnclaveIdentity{
		EnclaveIdentity: qeIdentity.EnclaveIdentity,
		Body:            body,
		Signature:       sig,
	}, nil
}

// extractTbsArea returns the verbatim bytes of the signed subtree below key.
// json.RawMessage preserves the input bytes, so the returned slice is exactly
// what the collateral issuer signed.
func extractTbsArea(elem []byte, key string) ([]byte, error) {

	if len(elem) == 0 {
		return nil, fmt.Errorf("internal error: element %v is nil", key)
	}

	var rawMsg map[string]json.RawMessage
	if err := json.Unmarshal(elem, &rawMsg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %v: %w", key, err)
	}
	tbs, ok := rawMsg[key]
	if !ok {
		return nil, fmt.Errorf("failed to extract TBS property for key %v from raw element", key)
	}

	return tbs, nil
}
