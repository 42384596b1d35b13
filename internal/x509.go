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

// Package internal provides shared PEM/DER parsing helpers for the DCAP
// verification packages.
package internal

import (
	"bytes"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
)

// ParseCert parses a single certificate from PEM or DER encoded data into an
// X.509 certificate
func ParseCert(data []byte) (*x509.Certificate, error) {
	input := data

	block, _ := pem.Decode(data)
	if block != nil {
		input = block.Bytes
	}

	cert, err := x509.ParseCertificate(input)
	if err != nil {
		return nil, fmt.Errorf("failed to parse x509 Certificate: %v", err)
	}

	return cert, nil
}

// ParseCertsPem parses certificates in a single concatenated PEM encoded blob
// into a list of X.509 certificates
func ParseCertsPem(data []byte) ([]*x509.Certificate, error) {
	certs := make([]*x509.Certificate, 0)
	input := data

	for block, rest := pem.Decode(input); block != nil; block, rest = pem.Decode(rest) {

		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse x509 Certificate: %v", err)
		}
		certs = append(certs, cert)
	}
	if len(certs) == 0 {
		return nil, errors.New("did not find certs in provided data")
	}
	return certs, nil
}

// ParseCrl parses a certificate revocation list from PEM or DER encoded data
func ParseCrl(data []byte) (*x509.RevocationList, error) {
	input := data

	block, _ := pem.Decode(data)
	if block != nil {
		input = block.Bytes
	}

	crl, err := x509.ParseRevocationList(input)
	if err != nil {
		return nil, fmt.Errorf("failed to parse x509 CRL: %v", err)
	}

	return crl, nil
}

// WriteCertPem marshals a certificate into a PEM encoded blob
func WriteCertPem(cert *x509.Certificate) []byte {
	p := &bytes.Buffer{}
	pem.Encode(p, &pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})
	return p.Bytes()
}

// WriteCertsPem marshals certificates into a single concatenated PEM blob
func WriteCertsPem(certs []*x509.Certificate) []byte {
	p := &bytes.Buffer{}
	for _, c := range certs {
		pem.Encode(p, &pem.Block{Type: "CERTIFICATE", Bytes: c.Raw})
	}
	return p.Bytes()
}

// WriteCrlPem marshals a certificate revocation list into a PEM encoded blob
func WriteCrlPem(crl *x509.RevocationList) []byte {
	p := &bytes.Buffer{}
	pem.Encode(p, &pem.Block{Type: "X509 CRL", Bytes: crl.Raw})
	return p.Bytes()
}

// HasExtension reports whether the certificate carries an extension with the
// given OID in dotted notation
func HasExtension(cert *x509.Certificate, oid string) bool {
	for _, ext := range cert.Extensions {
		if ext.Id.String() == oid {
			return true
		}
	}
	return false
}
