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
	"bytes"

	"github.com/Fraunhofer-AISEC/dcap-qvl/pckparser"
	"github.com/Fraunhofer-AISEC/dcap-qvl/status"
)

// tcbSigningChainVerifier is the capability the artifact verifiers consume
type tcbSigningChainVerifier interface {
	Verify(chain *pckparser.CertificateChain, rootCaCrl *pckparser.CrlStore,
		trustedRoot *pckparser.Certificate) status.Status
}

// TCBSigningChain verifies the two-certificate chain of the collateral
// signing key: root CA and TCB signing certificate.
type TCBSigningChain struct {
	base   baseVerifier
	common commonVerifier
	crl    crlVerifier
}

func NewTCBSigningChain() *TCBSigningChain {
	return &TCBSigningChain{
		common: NewCommonVerifier(),
		crl:    NewPckCrlVerifier(),
	}
}

// NewTCBSigningChainWith injects the collaborators, used by tests
func NewTCBSigningChainWith(common commonVerifier, crl crlVerifier) *TCBSigningChain {
	return &TCBSigningChain{
		common: common,
		crl:    crl,
	}
}

// Verify checks root integrity, the TCB signing certificate's issuer and
// signature, the trust anchor binding by raw DER signature bytes, root CRL
// correctness and non-revocation of the TCB signing certificate.
func (v *TCBSigningChain) Verify(chain *pckparser.CertificateChain,
	rootCaCrl *pckparser.CrlStore, trustedRoot *pckparser.Certificate) status.Status {

	if chain == nil || rootCaCrl == nil || trustedRoot == nil {
		log.Debugf("Missing TCB signing chain verification parameters")
		return status.STATUS_MISSING_PARAMETERS
	}

	rootCa := chain.GetRootCert()
	if rootCa == nil {
		log.Debugf("TCB signing chain root CA is missing")
		return status.STATUS_SGX_ROOT_CA_MISSING
	}
	if !v.base.commonNameContains(rootCa.Subject, pckparser.ROOT_CA_CN_PHRASE) {
		log.Debugf("TCB signing chain root CA: CN in subject field does not contain %q phrase",
			pckparser.ROOT_CA_CN_PHRASE)
		return status.STATUS_SGX_ROOT_CA_MISSING
	}

	tcbSigningCert := chain.GetTcbSigningCert()
	if tcbSigningCert == nil {
		log.Debugf("TCB signing certificate is missing")
		return status.STATUS_SGX_TCB_SIGNING_CERT_MISSING
	}
	if !v.base.commonNameContains(tcbSigningCert.Subject, pckparser.TCB_SIGNING_CN_PHRASE) {
		log.Debugf("TCB signing certificate: CN in subject field does not contain %q phrase",
			pckparser.TCB_SIGNING_CN_PHRASE)
		return status.STATUS_SGX_TCB_SIGNING_CERT_MISSING
	}

	if s := v.common.VerifyRootCACert(rootCa); s != status.STATUS_OK {
		log.Debugf("TCB signing chain root CA verification failed: %v", s)
		return s
	}

	if s := v.verifyTcbSigningCert(tcbSigningCert, rootCa); s != status.STATUS_OK {
		log.Debugf("TCB signing certificate verification failed: %v", s)
		return s
	}

	if !v.base.selfSigned(trustedRoot) {
		log.Debugf("Trusted root CA is not self-signed")
		return status.STATUS_TRUSTED_ROOT_CA_INVALID
	}

	if !bytes.Equal(rootCa.Signature, trustedRoot.Signature) {
		log.Debugf("Signature of trusted root does not match signature of root certificate " +
			"from TCB signing chain. Chain is not trusted.")
		return status.STATUS_SGX_TCB_SIGNING_CERT_CHAIN_UNTRUSTED
	}

	if s := v.crl.Verify(rootCaCrl, rootCa); s != status.STATUS_OK {
		log.Debugf("TCB signing chain root CA CRL verification failed: %v", s)
		return s
	}

	if rootCaCrl.IsRevoked(tcbSigningCert) {
		log.Debugf("TCB signing certificate is revoked by root CA")
		return status.STATUS_SGX_TCB_SIGNING_CERT_REVOKED
	}

	return status.STATUS_OK
}

func (v *TCBSigningChain) verifyTcbSigningCert(tcbSigningCert, rootCa *pckparser.Certificate) status.Status {

	if !v.base.issuedBy(tcbSigningCert, rootCa) {
		log.Debugf("TCB signing certificate is not signed by root CA")
		return status.STATUS_SGX_TCB_SIGNING_CERT_INVALID_ISSUER
	}

	if err := v.common.CheckSignature(tcbSigningCert, rootCa); err != nil {
		log.Debugf("TCB signing certificate signature is invalid: %v", err)
		return status.STATUS_SGX_TCB_SIGNING_CERT_INVALID_ISSUER
	}

	return status.STATUS_OK
}
