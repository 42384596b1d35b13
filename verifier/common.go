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
	"crypto/sha256"
	"errors"
	"fmt"
	"math/big"

	"github.com/Fraunhofer-AISEC/dcap-qvl/internal"
	"github.com/Fraunhofer-AISEC/dcap-qvl/pckparser"
	"github.com/Fraunhofer-AISEC/dcap-qvl/status"
)

// X.509 extensions required on CA certificates of the SGX PKI
const (
	oidKeyUsage         = "2.5.29.15"
	oidBasicConstraints = "2.5.29.19"
)

// commonVerifier is the capability set the chain verifiers consume. The
// concrete CommonVerifier is injected by default; tests substitute mocks.
type commonVerifier interface {
	VerifyRootCACert(root *pckparser.Certificate) status.Status
	VerifyIntermediate(child, parent *pckparser.Certificate) status.Status
	CheckSignature(child, parent *pckparser.Certificate) error
	CheckSha256EcdsaSignature(sig, body []byte, pub *ecdsa.PublicKey) error
}

// CommonVerifier implements the certificate predicates shared by the chain
// verifiers
type CommonVerifier struct {
	base baseVerifier
}

func NewCommonVerifier() *CommonVerifier {
	return &CommonVerifier{}
}

// VerifyRootCACert checks that the root CA carries the required extensions,
// is self-signed and verifies under its own key
func (v *CommonVerifier) VerifyRootCACert(root *pckparser.Certificate) status.Status {

	if !internal.HasExtension(root.X509(), oidKeyUsage) ||
		!internal.HasExtension(root.X509(), oidBasicConstraints) {
		log.Debugf("Root CA is missing required standard extensions")
		return status.STATUS_SGX_ROOT_CA_INVALID_EXTENSIONS
	}

	if !v.base.selfSigned(root) {
		log.Debugf("Root CA subject does not equal issuer")
		return status.STATUS_SGX_ROOT_CA_INVALID_ISSUER
	}

	if err := v.CheckSignature(root, root); err != nil {
		log.Debugf("Root CA self-signature is invalid: %v", err)
		return status.STATUS_SGX_ROOT_CA_INVALID_ISSUER
	}

	return status.STATUS_OK
}

// VerifyIntermediate checks that the intermediate CA carries the required
// extensions, is issued by the parent and verifies under the parent's key
func (v *CommonVerifier) VerifyIntermediate(child, parent *pckparser.Certificate) status.Status {

	if !internal.HasExtension(child.X509(), oidKeyUsage) ||
		!internal.HasExtension(child.X509(), oidBasicConstraints) {
		log.Debugf("Intermediate CA is missing required standard extensions")
		return status.STATUS_SGX_INTERMEDIATE_CA_INVALID_EXTENSIONS
	}

	if !v.base.issuedBy(child, parent) {
		log.Debugf("Intermediate CA issuer does not equal root CA subject")
		return status.STATUS_SGX_INTERMEDIATE_CA_INVALID_ISSUER
	}

	if err := v.CheckSignature(child, parent); err != nil {
		log.Debugf("Intermediate CA signature is invalid: %v", err)
		return status.STATUS_SGX_INTERMEDIATE_CA_INVALID_ISSUER
	}

	return status.STATUS_OK
}

// CheckSignature verifies the child's DER encoded ECDSA signature over its
// TBS bytes under the parent's public key
func (v *CommonVerifier) CheckSignature(child, parent *pckparser.Certificate) error {
	pub := parent.PublicKey()
	if pub == nil {
		return errors.New("parent certificate has no ECDSA public key")
	}

	digest := sha256.Sum256(child.RawTBS)
	if !ecdsa.VerifyASN1(pub, digest[:], child.Signature) {
		return errors.New("ECDSA signature verification failed")
	}

	return nil
}

// CheckSha256EcdsaSignature verifies an ECDSA P-256 signature over the SHA-256
// digest of body. Both the raw 64-byte r||s form used by the JSON collateral
// and DER encoded signatures are accepted.
func (v *CommonVerifier) CheckSha256EcdsaSignature(sig, body []byte, pub *ecdsa.PublicKey) error {
	if pub == nil {
		return errors.New("no ECDSA public key")
	}

	digest := sha256.Sum256(body)

	if len(sig) == 64 {
		r := new(big.Int).SetBytes(sig[:32])
		s := new(big.Int).SetBytes(sig[32:])
		if !ecdsa.Verify(pub, digest[:], r, s) {
			return errors.New("ECDSA signature verification failed")
		}
		return nil
	}

	if !ecdsa.VerifyASN1(pub, digest[:], sig) {
		return fmt.Errorf("ECDSA signature verification failed (signature length %v)", len(sig))
	}

	return nil
}
