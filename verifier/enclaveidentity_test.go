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
	"testing"
	"time"

	"github.com/Fraunhofer-AISEC/dcap-qvl/status"
)

func TestEnclaveIdentityVerifierOk(t *testing.T) {
	f := newFixture(t, defaultFixtureOpts())

	got := NewEnclaveIdentityVerifier().Verify(f.qeIdentity, f.tcbSigningChain,
		f.rootCaCrl, f.trustedRoot, f.expiration)
	if got != status.STATUS_OK {
		t.Errorf("Verify() = %v, want %v", got, status.STATUS_OK)
	}
}

func TestEnclaveIdentityVerifierInvalidSignature(t *testing.T) {
	f := newFixture(t, defaultFixtureOpts())

	f.qeIdentity.Signature[0] ^= 0xff

	got := NewEnclaveIdentityVerifier().Verify(f.qeIdentity, f.tcbSigningChain,
		f.rootCaCrl, f.trustedRoot, f.expiration)
	if got != status.STATUS_SGX_ENCLAVE_IDENTITY_INVALID_SIGNATURE {
		t.Errorf("Verify() = %v, want %v", got, status.STATUS_SGX_ENCLAVE_IDENTITY_INVALID_SIGNATURE)
	}
}

func TestEnclaveIdentityVerifierExpired(t *testing.T) {
	opts := defaultFixtureOpts()
	opts.certValidity = 4 * time.Hour
	opts.crlValidity = 4 * time.Hour
	opts.collateralValidity = 30 * time.Minute
	f := newFixture(t, opts)

	got := NewEnclaveIdentityVerifier().Verify(f.qeIdentity, f.tcbSigningChain,
		f.rootCaCrl, f.trustedRoot, f.now.Add(time.Hour))
	if got != status.STATUS_SGX_ENCLAVE_IDENTITY_EXPIRED {
		t.Errorf("Verify() = %v, want %v", got, status.STATUS_SGX_ENCLAVE_IDENTITY_EXPIRED)
	}
}

func TestEnclaveIdentityVerifierUntrustedRoot(t *testing.T) {
	f := newFixture(t, defaultFixtureOpts())

	other := newFixture(t, defaultFixtureOpts())

	got := NewEnclaveIdentityVerifier().Verify(f.qeIdentity, f.tcbSigningChain,
		f.rootCaCrl, other.trustedRoot, f.expiration)
	if got != status.STATUS_SGX_TCB_SIGNING_CERT_CHAIN_UNTRUSTED {
		t.Errorf("Verify() = %v, want %v", got, status.STATUS_SGX_TCB_SIGNING_CERT_CHAIN_UNTRUSTED)
	}
}

func TestEnclaveIdentityVerifierMissingParameters(t *testing.T) {
	f := newFixture(t, defaultFixtureOpts())

	got := NewEnclaveIdentityVerifier().Verify(nil, f.tcbSigningChain,
		f.rootCaCrl, f.trustedRoot, f.expiration)
	if got != status.STATUS_MISSING_PARAMETERS {
		t.Errorf("Verify() = %v, want %v", got, status.STATUS_MISSING_PARAMETERS)
	}
}
