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
	"time"

	"github.com/Fraunhofer-AISEC/dcap-qvl/pckparser"
	"github.com/Fraunhofer-AISEC/dcap-qvl/status"
)

// PckCertVerifier verifies the three-certificate PCK chain (root CA,
// intermediate CA, PCK certificate) against the root and intermediate CRLs
// and an externally trusted root certificate.
type PckCertVerifier struct {
	base   baseVerifier
	common commonVerifier
	crl    crlVerifier
}

func NewPckCertVerifier() *PckCertVerifier {
	return &PckCertVerifier{
		common: NewCommonVerifier(),
		crl:    NewPckCrlVerifier(),
	}
}

// NewPckCertVerifierWith injects the collaborators, used by tests
func NewPckCertVerifierWith(common commonVerifier, crl crlVerifier) *PckCertVerifier {
	return &PckCertVerifier{
		common: common,
		crl:    crl,
	}
}

// Verify runs the PCK chain checks in their contractual order: structural
// defects outrank signature defects outrank revocation outrank expiration.
// The first violated rule decides the returned status.
func (v *PckCertVerifier) Verify(chain *pckparser.CertificateChain,
	rootCaCrl, intermediateCrl *pckparser.CrlStore,
	trustedRoot *pckparser.Certificate, expirationDate time.Time) status.Status {

	if chain == nil || rootCaCrl == nil || intermediateCrl == nil || trustedRoot == nil {
		log.Debugf("Missing PCK chain verification parameters")
		return status.STATUS_MISSING_PARAMETERS
	}

	// 1. All slots present and correctly CN-classified
	rootCa := chain.GetRootCert()
	if rootCa == nil {
		log.Debugf("Root CA is missing")
		return status.STATUS_SGX_ROOT_CA_MISSING
	}
	if !v.base.commonNameContains(rootCa.Subject, pckparser.ROOT_CA_CN_PHRASE) {
		log.Debugf("Root CA from chain: CN in subject field does not contain %q phrase",
			pckparser.ROOT_CA_CN_PHRASE)
		return status.STATUS_SGX_ROOT_CA_MISSING
	}

	intermediateCa := chain.GetIntermediateCert()
	if intermediateCa == nil {
		log.Debugf("Intermediate CA is missing")
		return status.STATUS_SGX_INTERMEDIATE_CA_MISSING
	}
	if !v.base.commonNameContains(intermediateCa.Subject, pckparser.INTERMEDIATE_CN_PHRASE) {
		log.Debugf("Intermediate CA from chain: CN in subject field does not contain %q phrase",
			pckparser.INTERMEDIATE_CN_PHRASE)
		return status.STATUS_SGX_INTERMEDIATE_CA_MISSING
	}

	pckCert := chain.GetPckCert()
	if pckCert == nil {
		log.Debugf("PCK certificate is missing")
		return status.STATUS_SGX_PCK_MISSING
	}
	if !v.base.commonNameContains(pckCert.Subject, pckparser.PCK_CN_PHRASE) {
		log.Debugf("PCK certificate from chain: CN in subject field does not contain %q phrase",
			pckparser.PCK_CN_PHRASE)
		return status.STATUS_SGX_PCK_MISSING
	}

	// 2. Root CA integrity
	if s := v.common.VerifyRootCACert(rootCa); s != status.STATUS_OK {
		log.Debugf("Root CA verification failed: %v", s)
		return s
	}

	// 3. Intermediate CA against root
	if s := v.common.VerifyIntermediate(intermediateCa, rootCa); s != status.STATUS_OK {
		log.Debugf("Intermediate CA verification failed: %v", s)
		return s
	}

	// 4. PCK certificate against intermediate
	if s := v.verifyPckCert(pckCert, intermediateCa); s != status.STATUS_OK {
		log.Debugf("PCK certificate verification failed: %v", s)
		return s
	}

	// 5. Trusted root must be self-signed
	if !v.base.selfSigned(trustedRoot) {
		log.Debugf("Trusted root CA is not self-signed")
		return status.STATUS_TRUSTED_ROOT_CA_INVALID
	}

	// 6. Trust anchor binding: the raw DER signature bytes of the trusted
	// root must equal the chain root's. Comparing the bytes verbatim detects
	// re-encoded lookalikes that DN comparison would miss.
	if !bytes.Equal(rootCa.Signature, trustedRoot.Signature) {
		log.Debugf("Signature of trusted root does not match signature of root certificate " +
			"from PCK chain. Chain is not trusted.")
		return status.STATUS_SGX_PCK_CERT_CHAIN_UNTRUSTED
	}

	// 7. CRL issuer correctness
	if s := v.crl.Verify(rootCaCrl, rootCa); s != status.STATUS_OK {
		log.Debugf("PCK revocation lists: root CA CRL verification failed: %v", s)
		return s
	}
	if s := v.crl.Verify(intermediateCrl, intermediateCa); s != status.STATUS_OK {
		log.Debugf("PCK revocation lists: intermediate CA CRL verification failed: %v", s)
		return s
	}

	// 8. Revocation
	if rootCaCrl.IsRevoked(intermediateCa) {
		log.Debugf("Intermediate CA certificate is revoked by root CA")
		return status.STATUS_SGX_INTERMEDIATE_CA_REVOKED
	}
	if intermediateCrl.IsRevoked(pckCert) {
		log.Debugf("PCK certificate is revoked by intermediate CA")
		return status.STATUS_SGX_PCK_REVOKED
	}

	// 9. Expiration of certificates, then CRLs
	if v.base.expired(rootCa, expirationDate) {
		log.Debugf("PCK chain root CA is expired. Expiration date: %v, validity: %v",
			expirationDate, rootCa.NotAfter)
		return status.STATUS_SGX_PCK_CERT_CHAIN_EXPIRED
	}
	if v.base.expired(intermediateCa, expirationDate) {
		log.Debugf("PCK chain intermediate CA is expired. Expiration date: %v, validity: %v",
			expirationDate, intermediateCa.NotAfter)
		return status.STATUS_SGX_PCK_CERT_CHAIN_EXPIRED
	}
	if v.base.expired(pckCert, expirationDate) {
		log.Debugf("PCK chain PCK certificate is expired. Expiration date: %v, validity: %v",
			expirationDate, pckCert.NotAfter)
		return status.STATUS_SGX_PCK_CERT_CHAIN_EXPIRED
	}

	if rootCaCrl.Expired(expirationDate) {
		log.Debugf("Root CA CRL is expired. Expiration date: %v, validity from %v to %v",
			expirationDate, rootCaCrl.NotBeforeTime, rootCaCrl.NotAfterTime)
		return status.STATUS_SGX_CRL_EXPIRED
	}
	if intermediateCrl.Expired(expirationDate) {
		log.Debugf("Intermediate CA CRL is expired. Expiration date: %v, validity from %v to %v",
			expirationDate, intermediateCrl.NotBeforeTime, intermediateCrl.NotAfterTime)
		return status.STATUS_SGX_CRL_EXPIRED
	}

	return status.STATUS_OK
}

// verifyPckCert checks the PCK certificate's issuer and signature against the
// intermediate CA
func (v *PckCertVerifier) verifyPckCert(pckCert, intermediate *pckparser.Certificate) status.Status {

	if !v.base.issuedBy(pckCert, intermediate) {
		log.Debugf("PCK certificate is not signed by intermediate CA")
		return status.STATUS_SGX_PCK_INVALID_ISSUER
	}

	if err := v.common.CheckSignature(pckCert, intermediate); err != nil {
		log.Debugf("PCK certificate signature is invalid: %v", err)
		return status.STATUS_SGX_PCK_INVALID_ISSUER
	}

	return status.STATUS_OK
}
