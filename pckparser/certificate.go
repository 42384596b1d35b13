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

// Package pckparser parses the X.509 material of the Intel SGX PKI into
// immutable value objects: certificates with the proprietary SGX extensions
// of PCK certificates, CN-classified certificate chains, and certificate
// revocation lists. All parsers are free of shared state, a parsed value never
// changes after construction.
package pckparser

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Fraunhofer-AISEC/dcap-qvl/internal"
)

var log = logrus.WithField("service", "pckparser")

// Certificate is the parsed value object of a single X.509 certificate. Pck is
// nil for ordinary CA and signing certificates and carries the decoded SGX
// extension payload for PCK certificates.
type Certificate struct {
	Version      int
	SerialNumber []byte
	Subject      pkix.Name
	Issuer       pkix.Name
	NotBefore    time.Time
	NotAfter     time.Time
	// PubKey holds the public key as uncompressed EC point bytes
	PubKey []byte
	// Signature holds the raw DER signature bytes as they appear in the
	// certificate. Trust anchoring compares these bytes verbatim.
	Signature []byte
	// RawTBS holds the DER bytes of the to-be-signed portion
	RawTBS     []byte
	Extensions []pkix.Extension

	Pck *PckExtensions

	raw *x509.Certificate
}

// ParseCertificate parses a single PEM or DER encoded certificate into a
// Certificate value. SGX extensions of PCK certificates are not decoded here,
// use ParsePckCertificate for that.
func ParseCertificate(data []byte) (*Certificate, error) {
	x509Cert, err := internal.ParseCert(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate: %w", err)
	}
	return newCertificate(x509Cert)
}

func newCertificate(c *x509.Certificate) (*Certificate, error) {

	if !c.NotBefore.Before(c.NotAfter) {
		return nil, fmt.Errorf("certificate validity window is empty: notBefore %v, notAfter %v",
			c.NotBefore, c.NotAfter)
	}

	pub, ok := c.PublicKey.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("unsupported public key type %T", c.PublicKey)
	}
	point := elliptic.Marshal(pub.Curve, pub.X, pub.Y)

	cert := &Certificate{
		Version:      c.Version,
		SerialNumber: c.SerialNumber.Bytes(),
		Subject:      c.Subject,
		Issuer:       c.Issuer,
		NotBefore:    c.NotBefore,
		NotAfter:     c.NotAfter,
		PubKey:       point,
		Signature:    c.Signature,
		RawTBS:       c.RawTBSCertificate,
		Extensions:   c.Extensions,
		raw:          c,
	}

	log.Tracef("Parsed certificate CN=%v", c.Subject.CommonName)

	return cert, nil
}

// X509 returns the underlying parsed X.509 certificate
func (c *Certificate) X509() *x509.Certificate {
	return c.raw
}

// PublicKey returns the ECDSA public key of the certificate
func (c *Certificate) PublicKey() *ecdsa.PublicKey {
	pub, _ := c.raw.PublicKey.(*ecdsa.PublicKey)
	return pub
}

// SelfSigned reports whether subject and issuer name are equal
func (c *Certificate) SelfSigned() bool {
	return c.Subject.String() == c.Issuer.String()
}

// Equal compares two certificates over version, serial number, subject,
// issuer, validity window, public key and signature. Extensions, the TBS
// bytes and the decoded Pck payload are not compared.
func (c *Certificate) Equal(other *Certificate) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.Version == other.Version &&
		bytes.Equal(c.SerialNumber, other.SerialNumber) &&
		c.Subject.String() == other.Subject.String() &&
		c.Issuer.String() == other.Issuer.String() &&
		c.NotBefore.Equal(other.NotBefore) &&
		c.NotAfter.Equal(other.NotAfter) &&
		bytes.Equal(c.PubKey, other.PubKey) &&
		bytes.Equal(c.Signature, other.Signature)
}
