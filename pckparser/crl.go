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
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"time"

	"github.com/Fraunhofer-AISEC/dcap-qvl/internal"
)

// CrlStore is the parsed value object of an X.509 certificate revocation
// list. The validity window maps ThisUpdate to NotBeforeTime and NextUpdate to
// NotAfterTime.
type CrlStore struct {
	Issuer        pkix.Name
	Signature     []byte
	NotBeforeTime time.Time
	NotAfterTime  time.Time

	revoked map[string]struct{}
	raw     *x509.RevocationList
}

// ParseCrl parses a PEM or DER encoded CRL into a CrlStore
func ParseCrl(data []byte) (*CrlStore, error) {
	crl, err := internal.ParseCrl(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse CRL: %w", err)
	}

	revoked := make(map[string]struct{}, len(crl.RevokedCertificateEntries))
	for _, entry := range crl.RevokedCertificateEntries {
		revoked[entry.SerialNumber.String()] = struct{}{}
	}

	log.Tracef("Parsed CRL issued by %v with %v revoked serials",
		crl.Issuer.CommonName, len(revoked))

	return &CrlStore{
		Issuer:        crl.Issuer,
		Signature:     crl.Signature,
		NotBeforeTime: crl.ThisUpdate,
		NotAfterTime:  crl.NextUpdate,
		revoked:       revoked,
		raw:           crl,
	}, nil
}

// X509 returns the underlying parsed revocation list
func (c *CrlStore) X509() *x509.RevocationList {
	return c.raw
}

// Expired reports whether the CRL validity ended before the given instant
func (c *CrlStore) Expired(at time.Time) bool {
	return c.NotAfterTime.Before(at)
}

// IsRevoked reports whether the certificate's serial number is listed
func (c *CrlStore) IsRevoked(cert *Certificate) bool {
	if cert == nil || cert.X509() == nil {
		return false
	}
	_, ok := c.revoked[cert.X509().SerialNumber.String()]
	return ok
}
