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

// Package verifier implements the DCAP ECDSA verification pipeline: layered
// verifiers for the PCK certificate chain, the TCB signing chain, the signed
// TCB info and QE identity collateral, and the quote itself. Every verifier
// is a pure function of its inputs and returns a single status.Status; the
// check order within each verifier is part of the contract and the first
// violated rule decides the result.
package verifier

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Fraunhofer-AISEC/dcap-qvl/collateral"
	"github.com/Fraunhofer-AISEC/dcap-qvl/pckparser"
	"github.com/Fraunhofer-AISEC/dcap-qvl/status"
)

var log = logrus.WithField("service", "verifier")

// VerifyPckCertificateChain verifies a root/intermediate/PCK certificate
// chain against the root and intermediate CRLs, an externally trusted root
// certificate and an expiration instant
func VerifyPckCertificateChain(chain *pckparser.CertificateChain,
	rootCaCrl, intermediateCrl *pckparser.CrlStore,
	trustedRoot *pckparser.Certificate, expirationDate time.Time) status.Status {

	return NewPckCertVerifier().Verify(chain, rootCaCrl, intermediateCrl,
		trustedRoot, expirationDate)
}

// VerifyTcbInfo verifies a TCB info structure against its TCB signing chain,
// the root CA CRL, a trusted root certificate and an expiration instant
func VerifyTcbInfo(tcbInfo *collateral.TcbInfo, chain *pckparser.CertificateChain,
	rootCaCrl *pckparser.CrlStore, trustedRoot *pckparser.Certificate,
	expirationDate time.Time) status.Status {

	return NewTcbInfoVerifier().Verify(tcbInfo, chain, rootCaCrl, trustedRoot,
		expirationDate)
}

// VerifyEnclaveIdentity verifies a QE/enclave identity structure against its
// TCB signing chain, the root CA CRL, a trusted root certificate and an
// expiration instant
func VerifyEnclaveIdentity(identity *collateral.EnclaveIdentity,
	chain *pckparser.CertificateChain, rootCaCrl *pckparser.CrlStore,
	trustedRoot *pckparser.Certificate, expirationDate time.Time) status.Status {

	return NewEnclaveIdentityVerifier().Verify(identity, chain, rootCaCrl,
		trustedRoot, expirationDate)
}

// VerifyQuote runs the complete verification pipeline over raw quote bytes
// and the collateral proving their trustworthiness
func VerifyQuote(quoteRaw []byte,
	pckChain, tcbSigningChain *pckparser.CertificateChain,
	rootCaCrl, intermediateCrl *pckparser.CrlStore,
	trustedRoot *pckparser.Certificate,
	tcbInfo *collateral.TcbInfo, qeIdentity *collateral.EnclaveIdentity,
	expirationDate time.Time) status.Status {

	return NewQuoteVerifier().Verify(quoteRaw, pckChain, tcbSigningChain,
		rootCaCrl, intermediateCrl, trustedRoot, tcbInfo, qeIdentity,
		expirationDate)
}
