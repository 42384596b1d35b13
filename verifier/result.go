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
	"encoding/json"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/Fraunhofer-AISEC/dcap-qvl/collateral"
	"github.com/Fraunhofer-AISEC/dcap-qvl/pckparser"
	"github.com/Fraunhofer-AISEC/dcap-qvl/status"
)

// StageResult reports the outcome of one pipeline stage
type StageResult struct {
	Stage   string `json:"stage" cbor:"0,keyasint"`
	Status  int    `json:"status" cbor:"1,keyasint"`
	Name    string `json:"name" cbor:"2,keyasint"`
	Success bool   `json:"success" cbor:"3,keyasint"`
}

// VerificationResult is the structured report of a full verification run:
// the overall verdict plus the outcome of the independently run stages
type VerificationResult struct {
	Type           string        `json:"type" cbor:"0,keyasint"`
	Verdict        int           `json:"verdict" cbor:"1,keyasint"`
	VerdictName    string        `json:"verdictName" cbor:"2,keyasint"`
	Success        bool          `json:"success" cbor:"3,keyasint"`
	ExpirationDate time.Time     `json:"expirationDate" cbor:"4,keyasint"`
	Stages         []StageResult `json:"stages" cbor:"5,keyasint"`
}

// VerifyEvidence runs the individual pipeline stages followed by the full
// quote verification and collects the outcomes into a report. The verdict
// equals what VerifyQuote returns for the same inputs.
func VerifyEvidence(quoteRaw []byte,
	pckChain, tcbSigningChain *pckparser.CertificateChain,
	rootCaCrl, intermediateCrl *pckparser.CrlStore,
	trustedRoot *pckparser.Certificate,
	tcbInfo *collateral.TcbInfo, qeIdentity *collateral.EnclaveIdentity,
	expirationDate time.Time) *VerificationResult {

	result := &VerificationResult{
		Type:           "DCAP Verification Result",
		ExpirationDate: expirationDate,
	}

	pckStatus := VerifyPckCertificateChain(pckChain, rootCaCrl, intermediateCrl,
		trustedRoot, expirationDate)
	result.addStage("pck_cert_chain", pckStatus)

	tcbInfoStatus := VerifyTcbInfo(tcbInfo, tcbSigningChain, rootCaCrl,
		trustedRoot, expirationDate)
	result.addStage("tcb_info", tcbInfoStatus)

	identityStatus := VerifyEnclaveIdentity(qeIdentity, tcbSigningChain,
		rootCaCrl, trustedRoot, expirationDate)
	result.addStage("qe_identity", identityStatus)

	verdict := VerifyQuote(quoteRaw, pckChain, tcbSigningChain, rootCaCrl,
		intermediateCrl, trustedRoot, tcbInfo, qeIdentity, expirationDate)
	result.addStage("quote", verdict)

	result.Verdict = int(verdict)
	result.VerdictName = verdict.Name()
	result.Success = verdict.Ok()

	return result
}

func (r *VerificationResult) addStage(stage string, s status.Status) {
	r.Stages = append(r.Stages, StageResult{
		Stage:   stage,
		Status:  int(s),
		Name:    s.Name(),
		Success: s.Ok(),
	})
}

// Marshal serializes the result in the given format, "json" or "cbor"
func (r *VerificationResult) Marshal(format string) ([]byte, error) {
	switch format {
	case "json":
		return json.MarshalIndent(r, "", "  ")
	case "cbor":
		return cbor.Marshal(r)
	default:
		return nil, fmt.Errorf("unknown serialization format %q", format)
	}
}
