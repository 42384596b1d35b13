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
	"github.com/Fraunhofer-AISEC/dcap-qvl/pckparser"
	"github.com/Fraunhofer-AISEC/dcap-qvl/status"
)

// Mandatory X.509 v2 CRL extensions
const (
	oidCrlNumber              = "2.5.29.20"
	oidAuthorityKeyIdentifier = "2.5.29.35"
)

// crlVerifier is the capability the chain verifiers consume for CRL
// correctness checks
type crlVerifier interface {
	Verify(crl *pckparser.CrlStore, issuer *pckparser.Certificate) status.Status
}

// PckCrlVerifier verifies a CRL against its issuer certificate
type PckCrlVerifier struct{}

func NewPckCrlVerifier() *PckCrlVerifier {
	return &PckCrlVerifier{}
}

// Verify checks, in order, that the CRL names the issuer certificate's
// subject as its issuer, that the mandatory v2 extensions are present, and
// that the CRL signature verifies under the issuer's public key.
func (v *PckCrlVerifier) Verify(crl *pckparser.CrlStore, issuer *pckparser.Certificate) status.Status {

	if crl == nil || issuer == nil {
		log.Debugf("CRL or issuer certificate is nil")
		return status.STATUS_SGX_CRL_UNSUPPORTED_FORMAT
	}

	if crl.Issuer.String() != issuer.Subject.String() {
		log.Debugf("CRL issuer name %v does not match certificate subject name %v",
			crl.Issuer.String(), issuer.Subject.String())
		return status.STATUS_SGX_CRL_UNKNOWN_ISSUER
	}

	if !hasCrlExtension(crl, oidCrlNumber) || !hasCrlExtension(crl, oidAuthorityKeyIdentifier) {
		log.Debugf("CRL is missing mandatory X.509v2 extensions")
		return status.STATUS_SGX_CRL_INVALID_EXTENSIONS
	}

	if err := crl.X509().CheckSignatureFrom(issuer.X509()); err != nil {
		log.Debugf("CRL signature is invalid: %v", err)
		return status.STATUS_SGX_CRL_INVALID_SIGNATURE
	}

	return status.STATUS_OK
}

func hasCrlExtension(crl *pckparser.CrlStore, oid string) bool {
	for _, ext := range crl.X509().Extensions {
		if ext.Id.String() == oid {
			return true
		}
	}
	return false
}
