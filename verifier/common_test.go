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

package verifier

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"github.com/Fraunhofer-AISEC/dcap-qvl/internal"
	"github.com/Fraunhofer-AISEC/dcap-qvl/internal/testcerts"
	"github.com/Fraunhofer-AISEC/dcap-qvl/pckparser"
	"github.com/Fraunhofer-AISEC/dcap-qvl/status"
)

func TestVerifyRootCACert(t *testing.T) {
	f := newFixture(t, defaultFixtureOpts())
	v := NewCommonVerifier()

	root := f.pckChain.GetRootCert()
	if got := v.VerifyRootCACert(root); got != status.STATUS_OK {
		t.Errorf("VerifyRootCACert() = %v, want %v", got, status.STATUS_OK)
	}

	// not self-signed
	intermediate := f.pckChain.GetIntermediateCert()
	if got := v.VerifyRootCACert(intermediate); got != status.STATUS_SGX_ROOT_CA_INVALID_ISSUER {
		t.Errorf("VerifyRootCACert() on intermediate = %v, want %v",
			got, status.STATUS_SGX_ROOT_CA_INVALID_ISSUER)
	}

	// self-signed but without the required CA extensions
	bare := newBareSelfSignedCert(t, f.now)
	if got := v.VerifyRootCACert(bare); got != status.STATUS_SGX_ROOT_CA_INVALID_EXTENSIONS {
		t.Errorf("VerifyRootCACert() on bare cert = %v, want %v",
			got, status.STATUS_SGX_ROOT_CA_INVALID_EXTENSIONS)
	}
}

// newBareSelfSignedCert creates a self-signed certificate without key usage
// and basic constraints extensions
func newBareSelfSignedCert(t *testing.T, now time.Time) *pckparser.Certificate {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(99),
		Subject:      pkix.Name{CommonName: "Intel SGX Root CA"},
		NotBefore:    now,
		NotAfter:     now.Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("failed to create certificate: %v", err)
	}
	cert, err := pckparser.ParseCertificate(der)
	if err != nil {
		t.Fatalf("failed to parse certificate: %v", err)
	}
	return cert
}

func TestVerifyIntermediate(t *testing.T) {
	f := newFixture(t, defaultFixtureOpts())
	v := NewCommonVerifier()

	root := f.pckChain.GetRootCert()
	intermediate := f.pckChain.GetIntermediateCert()

	if got := v.VerifyIntermediate(intermediate, root); got != status.STATUS_OK {
		t.Errorf("VerifyIntermediate() = %v, want %v", got, status.STATUS_OK)
	}

	// issuer name mismatch
	if got := v.VerifyIntermediate(intermediate, intermediate); got != status.STATUS_SGX_INTERMEDIATE_CA_INVALID_ISSUER {
		t.Errorf("VerifyIntermediate() with wrong parent = %v, want %v",
			got, status.STATUS_SGX_INTERMEDIATE_CA_INVALID_ISSUER)
	}

	// issuer name matches but the signature was made by a different root key
	otherPki, err := testcerts.NewPki(testcerts.DefaultPckValues(), f.now, f.now.Add(time.Hour))
	if err != nil {
		t.Fatalf("failed to generate second PKI: %v", err)
	}
	otherRoot, err := pckparser.ParseCertificate(internal.WriteCertPem(otherPki.RootCert))
	if err != nil {
		t.Fatalf("failed to parse other root: %v", err)
	}
	if got := v.VerifyIntermediate(intermediate, otherRoot); got != status.STATUS_SGX_INTERMEDIATE_CA_INVALID_ISSUER {
		t.Errorf("VerifyIntermediate() with foreign root = %v, want %v",
			got, status.STATUS_SGX_INTERMEDIATE_CA_INVALID_ISSUER)
	}
}

func TestCheckSignature(t *testing.T) {
	f := newFixture(t, defaultFixtureOpts())
	v := NewCommonVerifier()

	if err := v.CheckSignature(f.pckChain.GetIntermediateCert(), f.pckChain.GetRootCert()); err != nil {
		t.Errorf("CheckSignature() error = %v", err)
	}
	if err := v.CheckSignature(f.pckChain.GetPckCert(), f.pckChain.GetRootCert()); err == nil {
		t.Errorf("CheckSignature() under wrong parent: expected error")
	}
}

func TestCheckSha256EcdsaSignature(t *testing.T) {
	v := NewCommonVerifier()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	body := []byte("signed collateral body")

	rawSig, err := testcerts.SignRaw(key, body)
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}

	tests := []struct {
		name    string
		sig     []byte
		body    []byte
		pub     *ecdsa.PublicKey
		wantErr bool
	}{
		{"valid raw signature", rawSig, body, &key.PublicKey, false},
		{"flipped signature byte", flip(rawSig, 0), body, &key.PublicKey, true},
		{"different body", rawSig, []byte("other body"), &key.PublicKey, true},
		{"nil public key", rawSig, body, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.CheckSha256EcdsaSignature(tt.sig, tt.body, tt.pub)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckSha256EcdsaSignature() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	// DER encoded signatures are accepted as well
	derSig, err := ecdsa.SignASN1(rand.Reader, key, sha256Digest(body))
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}
	if err := v.CheckSha256EcdsaSignature(derSig, body, &key.PublicKey); err != nil {
		t.Errorf("CheckSha256EcdsaSignature() with DER signature: error = %v", err)
	}
}

func sha256Digest(data []byte) []byte {
	digest := sha256.Sum256(data)
	return digest[:]
}

func flip(sig []byte, i int) []byte {
	flipped := append([]byte{}, sig...)
	flipped[i] ^= 0xff
	return flipped
}
