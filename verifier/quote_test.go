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

	"github.com/Fraunhofer-AISEC/dcap-qvl/collateral"
	"github.com/Fraunhofer-AISEC/dcap-qvl/internal/testcerts"
	"github.com/Fraunhofer-AISEC/dcap-qvl/quote"
	"github.com/Fraunhofer-AISEC/dcap-qvl/status"
)

// The healthy reference scenario: matching chain, CRLs, collateral and quote,
// one up-to-date TCB level equal to the platform TCB.
func TestVerifyQuoteOk(t *testing.T) {
	f := newFixture(t, defaultFixtureOpts())

	if got := f.verifyQuote(); got != status.STATUS_OK {
		t.Errorf("VerifyQuote() = %v, want %v", got, status.STATUS_OK)
	}
}

// Verification is a pure function: same inputs, same status
func TestVerifyQuoteDeterministic(t *testing.T) {
	f := newFixture(t, defaultFixtureOpts())

	first := f.verifyQuote()
	second := f.verifyQuote()
	if first != second {
		t.Errorf("VerifyQuote() not deterministic: %v then %v", first, second)
	}
}

func TestVerifyQuoteUnsupportedFormat(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(values *testcerts.QuoteValues)
	}{
		{"quote version 4", func(v *testcerts.QuoteValues) { v.Version = 4 }},
		{"TDX TEE type", func(v *testcerts.QuoteValues) { v.TeeType = 0x81 }},
		{"unsupported key type", func(v *testcerts.QuoteValues) { v.AttestationKeyType = 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := defaultFixtureOpts()
			tt.mutate(&opts.quoteValues)
			f := newFixture(t, opts)

			if got := f.verifyQuote(); got != status.STATUS_UNSUPPORTED_QUOTE_FORMAT {
				t.Errorf("VerifyQuote() = %v, want %v", got, status.STATUS_UNSUPPORTED_QUOTE_FORMAT)
			}
		})
	}
}

func TestVerifyQuoteTruncated(t *testing.T) {
	f := newFixture(t, defaultFixtureOpts())
	f.quoteRaw = f.quoteRaw[:quote.SGX_QUOTE_MIN_SIZE-1]

	if got := f.verifyQuote(); got != status.STATUS_UNSUPPORTED_QUOTE_FORMAT {
		t.Errorf("VerifyQuote() = %v, want %v", got, status.STATUS_UNSUPPORTED_QUOTE_FORMAT)
	}
}

func TestVerifyQuoteTcbLevelStatuses(t *testing.T) {
	values := testcerts.DefaultPckValues()

	tests := []struct {
		name   string
		levels []testcerts.TcbLevelSpec
		want   status.Status
	}{
		{
			name: "Out of date",
			levels: []testcerts.TcbLevelSpec{
				{CompSvn: values.CompSvn, PceSvn: values.PceSvn, Status: "OutOfDate"},
			},
			want: status.STATUS_TCB_OUT_OF_DATE,
		},
		{
			name: "Revoked",
			levels: []testcerts.TcbLevelSpec{
				{CompSvn: values.CompSvn, PceSvn: values.PceSvn, Status: "Revoked"},
			},
			want: status.STATUS_TCB_REVOKED,
		},
		{
			name: "Configuration needed",
			levels: []testcerts.TcbLevelSpec{
				{CompSvn: values.CompSvn, PceSvn: values.PceSvn, Status: "ConfigurationNeeded"},
			},
			want: status.STATUS_TCB_CONFIGURATION_NEEDED,
		},
		{
			name: "SW hardening needed",
			levels: []testcerts.TcbLevelSpec{
				{CompSvn: values.CompSvn, PceSvn: values.PceSvn, Status: "SWHardeningNeeded"},
			},
			want: status.STATUS_TCB_SW_HARDENING_NEEDED,
		},
		{
			name: "Configuration and SW hardening needed",
			levels: []testcerts.TcbLevelSpec{
				{CompSvn: values.CompSvn, PceSvn: values.PceSvn, Status: "ConfigurationAndSWHardeningNeeded"},
			},
			want: status.STATUS_TCB_CONFIGURATION_AND_SW_HARDENING_NEEDED,
		},
		{
			name: "Unrecognized status string",
			levels: []testcerts.TcbLevelSpec{
				{CompSvn: values.CompSvn, PceSvn: values.PceSvn, Status: "Sideways"},
			},
			want: status.STATUS_TCB_UNRECOGNIZED_STATUS,
		},
		{
			name: "No level matches",
			levels: []testcerts.TcbLevelSpec{
				{CompSvn: raisedSvn(values.CompSvn, 0x10), PceSvn: values.PceSvn, Status: "UpToDate"},
			},
			want: status.STATUS_TCB_NOT_SUPPORTED,
		},
		{
			name: "PCESVN requirement too high",
			levels: []testcerts.TcbLevelSpec{
				{CompSvn: values.CompSvn, PceSvn: values.PceSvn + 1, Status: "UpToDate"},
			},
			want: status.STATUS_TCB_NOT_SUPPORTED,
		},
		{
			name: "First matching level wins",
			levels: []testcerts.TcbLevelSpec{
				{CompSvn: raisedSvn(values.CompSvn, 0x10), PceSvn: values.PceSvn, Status: "UpToDate"},
				{CompSvn: values.CompSvn, PceSvn: values.PceSvn, Status: "OutOfDate"},
			},
			want: status.STATUS_TCB_OUT_OF_DATE,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := defaultFixtureOpts()
			opts.tcbLevels = tt.levels
			f := newFixture(t, opts)

			if got := f.verifyQuote(); got != tt.want {
				t.Errorf("VerifyQuote() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TCB selection is monotonic: a platform with componentwise lower SVNs never
// selects an earlier (better) level than a platform with higher SVNs
func TestVerifyQuoteTcbSelectionMonotonic(t *testing.T) {
	values := testcerts.DefaultPckValues()

	levels := []testcerts.TcbLevelSpec{
		{CompSvn: values.CompSvn, PceSvn: values.PceSvn, Status: "UpToDate"},
		{CompSvn: loweredSvn(values.CompSvn, 0x05), PceSvn: values.PceSvn, Status: "OutOfDate"},
	}

	// the default platform SVN (0x09 everywhere) satisfies the first level
	opts := defaultFixtureOpts()
	opts.tcbLevels = levels
	f := newFixture(t, opts)
	if got := f.verifyQuote(); got != status.STATUS_OK {
		t.Errorf("VerifyQuote() with current SVNs = %v, want %v", got, status.STATUS_OK)
	}

	// a platform with lower SVNs only reaches the later level
	lowOpts := defaultFixtureOpts()
	lowOpts.tcbLevels = levels
	lowOpts.pckValues.CompSvn = loweredSvn(values.CompSvn, 0x05)
	for i := range lowOpts.pckValues.CpuSvn {
		lowOpts.pckValues.CpuSvn[i] = 0x05
	}
	fLow := newFixture(t, lowOpts)
	if got := fLow.verifyQuote(); got != status.STATUS_TCB_OUT_OF_DATE {
		t.Errorf("VerifyQuote() with lowered SVNs = %v, want %v",
			got, status.STATUS_TCB_OUT_OF_DATE)
	}
}

func TestVerifyQuoteTcbInfoMismatch(t *testing.T) {
	opts := defaultFixtureOpts()
	f := newFixture(t, opts)

	// re-sign the TCB info with the same key but a foreign FMSPC: the
	// artifact verifies, the platform binding does not
	mismatchInfoRaw, err := f.pki.SignTcbInfo([]byte{0xde, 0xad, 0xbe, 0xef, 0x00, 0x01},
		opts.pckValues.PceId, opts.tcbLevels, f.now, f.now.Add(time.Hour))
	if err != nil {
		t.Fatalf("failed to sign TCB info: %v", err)
	}
	mismatchInfo, err := collateral.ParseTcbInfo(mismatchInfoRaw)
	if err != nil {
		t.Fatalf("failed to parse TCB info: %v", err)
	}
	f.tcbInfo = mismatchInfo

	if got := f.verifyQuote(); got != status.STATUS_TCB_INFO_MISMATCH {
		t.Errorf("VerifyQuote() = %v, want %v", got, status.STATUS_TCB_INFO_MISMATCH)
	}
}

func TestVerifyQuotePckCertMismatch(t *testing.T) {
	f := newFixture(t, defaultFixtureOpts())

	// a quote from a different platform: its QE certification data embeds
	// another PCK certificate than the verified chain
	other := newFixture(t, defaultFixtureOpts())
	f.quoteRaw = other.quoteRaw

	if got := f.verifyQuote(); got != status.STATUS_PCK_CERT_MISMATCH {
		t.Errorf("VerifyQuote() = %v, want %v", got, status.STATUS_PCK_CERT_MISMATCH)
	}
}

func TestVerifyQuoteInvalidSignatures(t *testing.T) {
	t.Run("Corrupted quote signature", func(t *testing.T) {
		f := newFixture(t, defaultFixtureOpts())
		// ISVEnclaveReportSignature starts right after the signature data length
		f.quoteRaw[quote.SGX_QUOTE_SIGNATURE_OFFSET] ^= 0xff

		if got := f.verifyQuote(); got != status.STATUS_INVALID_QUOTE_SIGNATURE {
			t.Errorf("VerifyQuote() = %v, want %v", got, status.STATUS_INVALID_QUOTE_SIGNATURE)
		}
	})

	t.Run("Corrupted QE report signature", func(t *testing.T) {
		f := newFixture(t, defaultFixtureOpts())
		// QEReportSignature follows the quote signature, attestation key and QE report
		offset := quote.SGX_QUOTE_SIGNATURE_OFFSET + 64 + 64 + quote.SGX_QUOTE_BODY_SIZE
		f.quoteRaw[offset] ^= 0xff

		if got := f.verifyQuote(); got != status.STATUS_INVALID_QE_REPORT_SIGNATURE {
			t.Errorf("VerifyQuote() = %v, want %v", got, status.STATUS_INVALID_QE_REPORT_SIGNATURE)
		}
	})

	t.Run("QE report data does not bind attestation key", func(t *testing.T) {
		opts := defaultFixtureOpts()
		opts.quoteValues.CorruptQeReportData = true
		f := newFixture(t, opts)

		if got := f.verifyQuote(); got != status.STATUS_INVALID_QE_REPORT_DATA {
			t.Errorf("VerifyQuote() = %v, want %v", got, status.STATUS_INVALID_QE_REPORT_DATA)
		}
	})
}

func TestVerifyQuoteEnclaveIdentityMatching(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(opts *fixtureOpts)
		want   status.Status
	}{
		{
			name: "MRSIGNER mismatch",
			mutate: func(opts *fixtureOpts) {
				opts.quoteValues.QeMrSigner[0] ^= 0xff
			},
			want: status.STATUS_SGX_ENCLAVE_REPORT_MRSIGNER_MISMATCH,
		},
		{
			name: "ISVPRODID mismatch",
			mutate: func(opts *fixtureOpts) {
				opts.quoteValues.QeIsvProdId = 7
			},
			want: status.STATUS_SGX_ENCLAVE_REPORT_ISVPRODID_MISMATCH,
		},
		{
			name: "MISCSELECT mismatch",
			mutate: func(opts *fixtureOpts) {
				opts.quoteValues.QeMiscSelect = 0x01
			},
			want: status.STATUS_SGX_ENCLAVE_REPORT_MISCSELECT_MISMATCH,
		},
		{
			name: "ATTRIBUTES mismatch",
			mutate: func(opts *fixtureOpts) {
				opts.quoteValues.QeAttributes[0] = 0x13
			},
			want: status.STATUS_SGX_ENCLAVE_REPORT_ATTRIBUTES_MISMATCH,
		},
		{
			name: "ISVSVN below all levels",
			mutate: func(opts *fixtureOpts) {
				opts.quoteValues.QeIsvSvn = 1
			},
			want: status.STATUS_SGX_ENCLAVE_REPORT_ISVSVN_OUT_OF_DATE,
		},
		{
			name: "ISVSVN level revoked",
			mutate: func(opts *fixtureOpts) {
				opts.identityValues.Status = "Revoked"
			},
			want: status.STATUS_SGX_ENCLAVE_REPORT_ISVSVN_REVOKED,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := defaultFixtureOpts()
			tt.mutate(&opts)
			f := newFixture(t, opts)

			if got := f.verifyQuote(); got != tt.want {
				t.Errorf("VerifyQuote() = %v, want %v", got, tt.want)
			}
		})
	}
}

// A stale-but-listed TCB level is reported after all cryptographic and
// identity checks passed: the verdict comes from step 8, returned at the end
func TestVerifyQuoteTcbStatusAfterIdentity(t *testing.T) {
	values := testcerts.DefaultPckValues()

	opts := defaultFixtureOpts()
	opts.tcbLevels = []testcerts.TcbLevelSpec{
		{CompSvn: values.CompSvn, PceSvn: values.PceSvn, Status: "OutOfDate"},
	}
	// an identity defect must win over the stale TCB level
	opts.quoteValues.QeIsvProdId = 7
	f := newFixture(t, opts)

	if got := f.verifyQuote(); got != status.STATUS_SGX_ENCLAVE_REPORT_ISVPRODID_MISMATCH {
		t.Errorf("VerifyQuote() = %v, want %v",
			got, status.STATUS_SGX_ENCLAVE_REPORT_ISVPRODID_MISMATCH)
	}
}

func TestVerifyQuoteMissingParameters(t *testing.T) {
	f := newFixture(t, defaultFixtureOpts())

	got := VerifyQuote(nil, f.pckChain, f.tcbSigningChain, f.rootCaCrl,
		f.intermediateCrl, f.trustedRoot, f.tcbInfo, f.qeIdentity, f.expiration)
	if got != status.STATUS_MISSING_PARAMETERS {
		t.Errorf("VerifyQuote() = %v, want %v", got, status.STATUS_MISSING_PARAMETERS)
	}
}

func raisedSvn(svn [16]byte, to byte) [16]byte {
	raised := svn
	raised[0] = to
	return raised
}

func loweredSvn(svn [16]byte, to byte) [16]byte {
	lowered := svn
	for i := range lowered {
		lowered[i] = to
	}
	return lowered
}
