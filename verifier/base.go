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
	"crypto/x509/pkix"
	"strings"
	"time"

	"github.com/Fraunhofer-AISEC/dcap-qvl/pckparser"
)

// baseVerifier bundles the predicates shared by all certificate verifiers
type baseVerifier struct{}

// commonNameContains reports whether the CN of the distinguished name
// contains the given phrase
func (baseVerifier) commonNameContains(name pkix.Name, phrase string) bool {
	return strings.Contains(name.CommonName, phrase)
}

// selfSigned reports whether subject and issuer of the certificate are equal
func (baseVerifier) selfSigned(cert *pckparser.Certificate) bool {
	return cert.SelfSigned()
}

// issuedBy reports whether the child's issuer name equals the parent's
// subject name
func (baseVerifier) issuedBy(child, parent *pckparser.Certificate) bool {
	return child.Issuer.String() == parent.Subject.String()
}

// expired reports whether the certificate's validity ends before the given
// instant
func (baseVerifier) expired(cert *pckparser.Certificate, at time.Time) bool {
	return at.After(cert.NotAfter)
}
