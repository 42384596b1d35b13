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
	"time"

	"github.com/Fraunhofer-AISEC/dcap-qvl/collateral"
	"github.com/Fraunhofer-AISEC/dcap-qvl/pckparser"
	"github.com/Fraunhofer-AISEC/dcap-qvl/status"
)

// TcbInfoVerifier verifies a TCB info structure against a trusted TCB signing
// chain and a caller-supplied expiration instant
type TcbInfoVerifier struct {
	common commonVerifier
	chain  tcbSigningChainVerifier
}

func NewTcbInfoVerifier() *TcbInfoVerifier {
	return &TcbInfoVerifier{
		common: NewCommonVerifier(),
		chain:  NewTCBSigningChain(),
	}
}

// NewTcbInfoVerifierWith injects the collaborators, used by tests
func NewTcbInfoVerifierWith(common commonVerifier, chain tcbSigningChainVerifier) *TcbInfoVerifier {
	return &TcbInfoVerifier{
		common: common,
		chain:  chain,
	}
}

// Verify runs the TCB signing chain, verifies the detached signature over the
// verbatim signed bytes and checks all expirations against expirationDate
func (v *TcbInfoVerifier) Verify(tcbInfo *collateral.TcbInfo,
	chain *pckparser.CertificateChain, rootCaCrl *pckparser.CrlStore,
	trustedRoot *pckparser.Certificate, expirationDate time.Time) status.Status {

	if tcbInfo == nil {
		log.Debugf("Missing TCB info verification parameters")
		return status.STATUS_MISSING_PARAMETERS
	}

	if s := v.chain.Verify(chain, rootCaCrl, trustedRoot); s != status.STATUS_OK {
		return s
	}

	tcbSigningCert := chain.GetTopmostCert()
	if err := v.common.CheckSha256EcdsaSignature(
		tcbInfo.Signature, tcbInfo.Body, tcbSigningCert.PublicKey()); err != nil {
		log.Debugf("TCB info signature verification failure: %v", err)
		return status.STATUS_TCB_INFO_INVALID_SIGNATURE
	}

	if expirationDate.After(tcbSigningCert.NotAfter) {
		log.Debugf("TCB signing certificate is expired. Expiration date: %v, validity: %v",
			expirationDate, tcbSigningCert.NotAfter)
		return status.STATUS_SGX_SIGNING_CERT_CHAIN_EXPIRED
	}

	rootCa := chain.GetRootCert()
	if expirationDate.After(rootCa.NotAfter) {
		log.Debugf("TCB signing chain root CA is expired. Expiration date: %v, validity: %v",
			expirationDate, rootCa.NotAfter)
		return status.STATUS_SGX_SIGNING_CERT_CHAIN_EXPIRED
	}

	if rootCaCrl.Expired(expirationDate) {
		log.Debugf("Root CA CRL is expired. Expiration date: %v, validity from %v to %v",
			expirationDate, rootCaCrl.NotBeforeTime, rootCaCrl.NotAfterTime)
		return status.STATUS_SGX_CRL_EXPIRED
	}

	if expirationDate.After(tcbInfo.TcbInfo.NextUpdate) {
		log.Debugf("TCB info is expired. Expiration date: %v, next update: %v",
			expirationDate, tcbInfo.TcbInfo.NextUpdate)
		return status.STATUS_SGX_TCB_INFO_EXPIRED
	}

	return status.STATUS_OK
}
