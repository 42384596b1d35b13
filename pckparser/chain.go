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

package pckparser

import (
	"fmt"
	"strings"

	"github.com/Fraunhofer-AISEC/dcap-qvl/internal"
)

// CN phrases classifying the certificates of the Intel SGX PKI
const (
	ROOT_CA_CN_PHRASE      = "SGX Root CA"
	INTERMEDIATE_CN_PHRASE = "CA"
	PCK_CN_PHRASE          = "SGX PCK Certificate"
	TCB_SIGNING_CN_PHRASE  = "TCB Signing"
)

// CertificateChain holds the certificates of a concatenated PEM bundle,
// classified by CN phrase. Each slot is filled at most once; the order of
// certificates in the bundle is irrelevant.
type CertificateChain struct {
	rootCert         *Certificate
	intermediateCert *Certificate
	pckCert          *Certificate
	tcbSigningCert   *Certificate
}

// ParseCertificateChain parses a concatenated PEM bundle and classifies each
// certificate by its subject CN phrase. The PCK slot additionally decodes the
// SGX extensions. Duplicate slots and unclassifiable certificates fail chain
// construction.
func ParseCertificateChain(pemBundle []byte) (*CertificateChain, error) {
	x509Certs, err := internal.ParseCertsPem(pemBundle)
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate chain: %w", err)
	}

	log.Tracef("Classifying %v chain certificates", len(x509Certs))

	chain := &CertificateChain{}
	for _, x509Cert := range x509Certs {
		cert, err := newCertificate(x509Cert)
		if err != nil {
			return nil, err
		}

		cn := cert.Subject.CommonName
		switch {
		case containsPhrase(cn, PCK_CN_PHRASE):
			cert, err = PckFromCertificate(cert)
			if err != nil {
				return nil, err
			}
			if chain.pckCert != nil {
				return nil, fmt.Errorf("duplicate PCK certificate in chain (CN=%v)", cn)
			}
			chain.pckCert = cert
		case containsPhrase(cn, TCB_SIGNING_CN_PHRASE):
			if chain.tcbSigningCert != nil {
				return nil, fmt.Errorf("duplicate TCB signing certificate in chain (CN=%v)", cn)
			}
			chain.tcbSigningCert = cert
		case containsPhrase(cn, ROOT_CA_CN_PHRASE):
			if chain.rootCert != nil {
				return nil, fmt.Errorf("duplicate root CA certificate in chain (CN=%v)", cn)
			}
			chain.rootCert = cert
		case containsPhrase(cn, INTERMEDIATE_CN_PHRASE):
			if chain.intermediateCert != nil {
				return nil, fmt.Errorf("duplicate intermediate CA certificate in chain (CN=%v)", cn)
			}
			chain.intermediateCert = cert
		default:
			return nil, fmt.Errorf("unknown certificate type CN=%v", cn)
		}
	}

	return chain, nil
}

// GetRootCert returns the root CA certificate or nil
func (c *CertificateChain) GetRootCert() *Certificate {
	return c.rootCert
}

// GetIntermediateCert returns the intermediate CA certificate or nil
func (c *CertificateChain) GetIntermediateCert() *Certificate {
	return c.intermediateCert
}

// GetPckCert returns the PCK certificate or nil
func (c *CertificateChain) GetPckCert() *Certificate {
	return c.pckCert
}

// GetTcbSigningCert returns the TCB signing certificate or nil
func (c *CertificateChain) GetTcbSigningCert() *Certificate {
	return c.tcbSigningCert
}

// GetTopmostCert returns the leaf certificate of the chain: the PCK or TCB
// signing certificate if present, otherwise the intermediate, otherwise the
// root.
func (c *CertificateChain) GetTopmostCert() *Certificate {
	switch {
	case c.pckCert != nil:
		return c.pckCert
	case c.tcbSigningCert != nil:
		return c.tcbSigningCert
	case c.intermediateCert != nil:
		return c.intermediateCert
	default:
		return c.rootCert
	}
}

func containsPhrase(cn, phrase string) bool {
	return strings.Contains(cn, phrase)
}
