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
	"math/big"
	"testing"
	"time"

	"github.com/Fraunhofer-AISEC/dcap-qvl/collateral"
	"github.com/Fraunhofer-AISEC/dcap-qvl/internal"
	"github.com/Fraunhofer-AISEC/dcap-qvl/internal/testcerts"
	"github.com/Fraunhofer-AISEC/dcap-qvl/pckparser"
	"github.com/Fraunhofer-AISEC/dcap-qvl/status"
)

// fixtureOpts parameterizes the generated evidence world. The defaults are
// the healthy reference scenario: a fresh PKI valid for one hour, matching
// CRLs, one up-to-date TCB level matching the PCK TCB and a QE identity
// matching the generated quote.
type fixtureOpts struct {
	certValidity          time.Duration
	crlValidity           time.Duration
	collateralValidity    time.Duration
	pckValues             testcerts.PckValues
	tcbLevels             []testcerts.TcbLevelSpec
	identityValues        testcerts.QeIdentityValues
	quoteValues           testcerts.QuoteValues
	revokedByRoot         []*big.Int
	revokedByIntermediate []*big.Int
}

func defaultFixtureOpts() fixtureOpts {
	values := testcerts.DefaultPckValues()
	return fixtureOpts{
		certValidity:       time.Hour,
		crlValidity:        time.Hour,
		collateralValidity: time.Hour,
		pckValues:          values,
		tcbLevels: []testcerts.TcbLevelSpec{
			{CompSvn: values.CompSvn, PceSvn: values.PceSvn, Status: "UpToDate"},
		},
		identityValues: testcerts.DefaultQeIdentityValues(),
		quoteValues:    testcerts.DefaultQuoteValues(),
	}
}

// fixture is a fully parsed evidence world ready for verification
type fixture struct {
	pki *testcerts.Pki

	pckChain        *pckparser.CertificateChain
	tcbSigningChain *pckparser.CertificateChain
	rootCaCrl       *pckparser.CrlStore
	intermediateCrl *pckparser.CrlStore
	trustedRoot     *pckparser.Certificate
	tcbInfo         *collateral.TcbInfo
	qeIdentity      *collateral.EnclaveIdentity
	quoteRaw        []byte

	now        time.Time
	expiration time.Time
}

func newFixture(t *testing.T, opts fixtureOpts) *fixture {
	t.Helper()

	now := time.Now()

	pki, err := testcerts.NewPki(opts.pckValues, now, now.Add(opts.certValidity))
	if err != nil {
		t.Fatalf("failed to generate test PKI: %v", err)
	}

	pckChain, err := pckparser.ParseCertificateChain(pki.PckChainPem())
	if err != nil {
		t.Fatalf("failed to parse PCK chain: %v", err)
	}
	tcbSigningChain, err := pckparser.ParseCertificateChain(pki.TcbSigningChainPem())
	if err != nil {
		t.Fatalf("failed to parse TCB signing chain: %v", err)
	}

	rootCrlX509, err := pki.NewCrl(pki.RootCert, pki.RootKey, now,
		now.Add(opts.crlValidity), opts.revokedByRoot...)
	if err != nil {
		t.Fatalf("failed to create root CA CRL: %v", err)
	}
	rootCaCrl, err := pckparser.ParseCrl(internal.WriteCrlPem(rootCrlX509))
	if err != nil {
		t.Fatalf("failed to parse root CA CRL: %v", err)
	}

	intermediateCrlX509, err := pki.NewCrl(pki.IntermediateCert, pki.IntermediateKey, now,
		now.Add(opts.crlValidity), opts.revokedByIntermediate...)
	if err != nil {
		t.Fatalf("failed to create intermediate CA CRL: %v", err)
	}
	intermediateCrl, err := pckparser.ParseCrl(internal.WriteCrlPem(intermediateCrlX509))
	if err != nil {
		t.Fatalf("failed to parse intermediate CA CRL: %v", err)
	}

	trustedRoot, err := pckparser.ParseCertificate(internal.WriteCertPem(pki.RootCert))
	if err != nil {
		t.Fatalf("failed to parse trusted root: %v", err)
	}

	tcbInfoRaw, err := pki.SignTcbInfo(opts.pckValues.Fmspc, opts.pckValues.PceId,
		opts.tcbLevels, now, now.Add(opts.collateralValidity))
	if err != nil {
		t.Fatalf("failed to sign TCB info: %v", err)
	}
	tcbInfo, err := collateral.ParseTcbInfo(tcbInfoRaw)
	if err != nil {
		t.Fatalf("failed to parse TCB info: %v", err)
	}

	identityRaw, err := pki.SignQeIdentity(opts.identityValues, now,
		now.Add(opts.collateralValidity))
	if err != nil {
		t.Fatalf("failed to sign QE identity: %v", err)
	}
	qeIdentity, err := collateral.ParseEnclaveIdentity(identityRaw)
	if err != nil {
		t.Fatalf("failed to parse QE identity: %v", err)
	}

	quoteRaw, err := pki.BuildQuote(opts.quoteValues)
	if err != nil {
		t.Fatalf("failed to build quote: %v", err)
	}

	return &fixture{
		pki:             pki,
		pckChain:        pckChain,
		tcbSigningChain: tcbSigningChain,
		rootCaCrl:       rootCaCrl,
		intermediateCrl: intermediateCrl,
		trustedRoot:     trustedRoot,
		tcbInfo:         tcbInfo,
		qeIdentity:      qeIdentity,
		quoteRaw:        quoteRaw,
		now:             now,
		expiration:      now,
	}
}

// regenerateRootCrl replaces the root CA CRL with one revoking the given
// serials
func (f *fixture) regenerateRootCrl(t *testing.T, validity time.Duration,
	revoked ...*big.Int) *pckparser.CrlStore {
	t.Helper()
	crlX509, err := f.pki.NewCrl(f.pki.RootCert, f.pki.RootKey, f.now,
		f.now.Add(validity), revoked...)
	if err != nil {
		t.Fatalf("failed to create root CA CRL: %v", err)
	}
	crl, err := pckparser.ParseCrl(internal.WriteCrlPem(crlX509))
	if err != nil {
		t.Fatalf("failed to parse root CA CRL: %v", err)
	}
	return crl
}

// regenerateIntermediateCrl replaces the intermediate CA CRL with one
// revoking the given serials
func (f *fixture) regenerateIntermediateCrl(t *testing.T, validity time.Duration,
	revoked ...*big.Int) *pckparser.CrlStore {
	t.Helper()
	crlX509, err := f.pki.NewCrl(f.pki.IntermediateCert, f.pki.IntermediateKey, f.now,
		f.now.Add(validity), revoked...)
	if err != nil {
		t.Fatalf("failed to create intermediate CA CRL: %v", err)
	}
	crl, err := pckparser.ParseCrl(internal.WriteCrlPem(crlX509))
	if err != nil {
		t.Fatalf("failed to parse intermediate CA CRL: %v", err)
	}
	return crl
}

// verifyQuote runs the full pipeline of the fixture
func (f *fixture) verifyQuote() status.Status {
	return VerifyQuote(f.quoteRaw, f.pckChain, f.tcbSigningChain, f.rootCaCrl,
		f.intermediateCrl, f.trustedRoot, f.tcbInfo, f.qeIdentity, f.expiration)
}
