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

	"github.com/Fraunhofer-AISEC/dcap-qvl/pckparser"
	"github.com/Fraunhofer-AISEC/dcap-qvl/status"
)

// mockCommonVerifier satisfies commonVerifier with canned results
type mockCommonVerifier struct {
	rootStatus         status.Status
	intermediateStatus status.Status
	signatureErr       error
	sha256EcdsaErr     error
}

func okCommonVerifier() *mockCommonVerifier {
	return &mockCommonVerifier{
		rootStatus:         status.STATUS_OK,
		intermediateStatus: status.STATUS_OK,
	}
}

func (m *mockCommonVerifier) VerifyRootCACert(root *pckparser.Certificate) status.Status {
	return m.rootStatus
}

func (m *mockCommonVerifier) VerifyIntermediate(child, parent *pckparser.Certificate) status.Status {
	return m.intermediateStatus
}

func (m *mockCommonVerifier) CheckSignature(child, parent *pckparser.Certificate) error {
	return m.signatureErr
}

func (m *mockCommonVerifier) CheckSha256EcdsaSignature(sig, body []byte, pub *ecdsa.PublicKey) error {
	return m.sha256EcdsaErr
}

// mockCrlVerifier satisfies crlVerifier with canned results per issuer CN
type mockCrlVerifier struct {
	statuses map[string]status.Status
}

func okCrlVerifier() *mockCrlVerifier {
	return &mockCrlVerifier{}
}

func (m *mockCrlVerifier) Verify(crl *pckparser.CrlStore, issuer *pckparser.Certificate) status.Status {
	if s, ok := m.statuses[issuer.Subject.CommonName]; ok {
		return s
	}
	return status.STATUS_OK
}
