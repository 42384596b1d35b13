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

// Package status defines the closed outcome taxonomy of DCAP quote
// verification. The integer values cross the ABI and are shared with external
// callers: never reorder or renumber, new values append at the end.
package status

import "fmt"

type Status int

const (
	STATUS_OK Status = iota
	STATUS_UNSUPPORTED_CERT_FORMAT

	STATUS_SGX_ROOT_CA_MISSING
	STATUS_SGX_ROOT_CA_INVALID
	STATUS_SGX_ROOT_CA_INVALID_EXTENSIONS
	STATUS_SGX_ROOT_CA_INVALID_ISSUER
	STATUS_SGX_ROOT_CA_UNTRUSTED

	STATUS_SGX_INTERMEDIATE_CA_MISSING
	STATUS_SGX_INTERMEDIATE_CA_INVALID
	STATUS_SGX_INTERMEDIATE_CA_INVALID_EXTENSIONS
	STATUS_SGX_INTERMEDIATE_CA_INVALID_ISSUER
	STATUS_SGX_INTERMEDIATE_CA_REVOKED

	STATUS_SGX_PCK_MISSING
	STATUS_SGX_PCK_INVALID
	STATUS_SGX_PCK_INVALID_EXTENSIONS
	STATUS_SGX_PCK_INVALID_ISSUER
	STATUS_SGX_PCK_REVOKED

	STATUS_TRUSTED_ROOT_CA_INVALID
	STATUS_SGX_PCK_CERT_CHAIN_UNTRUSTED

	STATUS_SGX_TCB_INFO_UNSUPPORTED_FORMAT
	STATUS_SGX_TCB_INFO_INVALID
	STATUS_TCB_INFO_INVALID_SIGNATURE

	STATUS_SGX_TCB_SIGNING_CERT_MISSING
	STATUS_SGX_TCB_SIGNING_CERT_INVALID
	STATUS_SGX_TCB_SIGNING_CERT_INVALID_EXTENSIONS
	STATUS_SGX_TCB_SIGNING_CERT_INVALID_ISSUER
	STATUS_SGX_TCB_SIGNING_CERT_CHAIN_UNTRUSTED
	STATUS_SGX_TCB_SIGNING_CERT_REVOKED

	STATUS_SGX_CRL_UNSUPPORTED_FORMAT
	STATUS_SGX_CRL_UNKNOWN_ISSUER
	STATUS_SGX_CRL_INVALID
	STATUS_SGX_CRL_INVALID_EXTENSIONS
	STATUS_SGX_CRL_INVALID_SIGNATURE

	STATUS_SGX_CA_CERT_UNSUPPORTED_FORMAT
	STATUS_SGX_CA_CERT_INVALID
	STATUS_TRUSTED_ROOT_CA_UNSUPPORTED_FORMAT

	STATUS_MISSING_PARAMETERS

	STATUS_UNSUPPORTED_QUOTE_FORMAT
	STATUS_UNSUPPORTED_PCK_CERT_FORMAT
	STATUS_INVALID_PCK_CERT
	STATUS_UNSUPPORTED_PCK_RL_FORMAT
	STATUS_INVALID_PCK_CRL
	STATUS_UNSUPPORTED_TCB_INFO_FORMAT
	STATUS_PCK_REVOKED
	STATUS_TCB_INFO_MISMATCH
	STATUS_TCB_OUT_OF_DATE
	STATUS_TCB_REVOKED
	STATUS_TCB_CONFIGURATION_NEEDED
	STATUS_TCB_OUT_OF_DATE_CONFIGURATION_NEEDED
	STATUS_TCB_NOT_SUPPORTED
	STATUS_TCB_UNRECOGNIZED_STATUS
	STATUS_UNSUPPORTED_QE_CERTIFICATION
	STATUS_INVALID_QE_CERTIFICATION_DATA_SIZE
	STATUS_UNSUPPORTED_QE_CERTIFICATION_DATA_TYPE
	STATUS_PCK_CERT_MISMATCH
	STATUS_INVALID_QE_REPORT_SIGNATURE
	STATUS_INVALID_QE_REPORT_DATA
	STATUS_INVALID_QUOTE_SIGNATURE

	STATUS_SGX_QE_IDENTITY_UNSUPPORTED_FORMAT
	STATUS_SGX_QE_IDENTITY_INVALID
	STATUS_SGX_QE_IDENTITY_INVALID_SIGNATURE

	STATUS_SGX_ENCLAVE_REPORT_UNSUPPORTED_FORMAT
	STATUS_SGX_ENCLAVE_IDENTITY_UNSUPPORTED_FORMAT
	STATUS_SGX_ENCLAVE_IDENTITY_INVALID
	STATUS_SGX_ENCLAVE_IDENTITY_UNSUPPORTED_VERSION
	STATUS_SGX_ENCLAVE_IDENTITY_OUT_OF_DATE
	STATUS_SGX_ENCLAVE_REPORT_MISCSELECT_MISMATCH
	STATUS_SGX_ENCLAVE_REPORT_ATTRIBUTES_MISMATCH
	STATUS_SGX_ENCLAVE_REPORT_MRENCLAVE_MISMATCH
	STATUS_SGX_ENCLAVE_REPORT_MRSIGNER_MISMATCH
	STATUS_SGX_ENCLAVE_REPORT_ISVPRODID_MISMATCH
	STATUS_SGX_ENCLAVE_REPORT_ISVSVN_OUT_OF_DATE

	STATUS_UNSUPPORTED_QE_IDENTITY_FORMAT
	STATUS_QE_IDENTITY_OUT_OF_DATE
	STATUS_QE_IDENTITY_MISMATCH
	STATUS_SGX_TCB_INFO_EXPIRED
	STATUS_SGX_ENCLAVE_IDENTITY_INVALID_SIGNATURE
	STATUS_INVALID_PARAMETER
	STATUS_SGX_PCK_CERT_CHAIN_EXPIRED
	STATUS_SGX_CRL_EXPIRED
	STATUS_SGX_SIGNING_CERT_CHAIN_EXPIRED
	STATUS_SGX_ENCLAVE_IDENTITY_EXPIRED
	STATUS_TCB_SW_HARDENING_NEEDED
	STATUS_TCB_CONFIGURATION_AND_SW_HARDENING_NEEDED
	STATUS_SGX_ENCLAVE_REPORT_ISVSVN_REVOKED
)

var statusNames = [...]string{
	"STATUS_OK",
	"STATUS_UNSUPPORTED_CERT_FORMAT",

	"STATUS_SGX_ROOT_CA_MISSING",
	"STATUS_SGX_ROOT_CA_INVALID",
	"STATUS_SGX_ROOT_CA_INVALID_EXTENSIONS",
	"STATUS_SGX_ROOT_CA_INVALID_ISSUER",
	"STATUS_SGX_ROOT_CA_UNTRUSTED",

	"STATUS_SGX_INTERMEDIATE_CA_MISSING",
	"STATUS_SGX_INTERMEDIATE_CA_INVALID",
	"STATUS_SGX_INTERMEDIATE_CA_INVALID_EXTENSIONS",
	"STATUS_SGX_INTERMEDIATE_CA_INVALID_ISSUER",
	"STATUS_SGX_INTERMEDIATE_CA_REVOKED",

	"STATUS_SGX_PCK_MISSING",
	"STATUS_SGX_PCK_INVALID",
	"STATUS_SGX_PCK_INVALID_EXTENSIONS",
	"STATUS_SGX_PCK_INVALID_ISSUER",
	"STATUS_SGX_PCK_REVOKED",

	"STATUS_TRUSTED_ROOT_CA_INVALID",
	"STATUS_SGX_PCK_CERT_CHAIN_UNTRUSTED",

	"STATUS_SGX_TCB_INFO_UNSUPPORTED_FORMAT",
	"STATUS_SGX_TCB_INFO_INVALID",
	"STATUS_TCB_INFO_INVALID_SIGNATURE",

	"STATUS_SGX_TCB_SIGNING_CERT_MISSING",
	"STATUS_SGX_TCB_SIGNING_CERT_INVALID",
	"STATUS_SGX_TCB_SIGNING_CERT_INVALID_EXTENSIONS",
	"STATUS_SGX_TCB_SIGNING_CERT_INVALID_ISSUER",
	"STATUS_SGX_TCB_SIGNING_CERT_CHAIN_UNTRUSTED",
	"STATUS_SGX_TCB_SIGNING_CERT_REVOKED",

	"STATUS_SGX_CRL_UNSUPPORTED_FORMAT",
	"STATUS_SGX_CRL_UNKNOWN_ISSUER",
	"STATUS_SGX_CRL_INVALID",
	"STATUS_SGX_CRL_INVALID_EXTENSIONS",
	"STATUS_SGX_CRL_INVALID_SIGNATURE",

	"STATUS_SGX_CA_CERT_UNSUPPORTED_FORMAT",
	"STATUS_SGX_CA_CERT_INVALID",
	"STATUS_TRUSTED_ROOT_CA_UNSUPPORTED_FORMAT",

	"STATUS_MISSING_PARAMETERS",

	"STATUS_UNSUPPORTED_QUOTE_FORMAT",
	"STATUS_UNSUPPORTED_PCK_CERT_FORMAT",
	"STATUS_INVALID_PCK_CERT",
	"STATUS_UNSUPPORTED_PCK_RL_FORMAT",
	"STATUS_INVALID_PCK_CRL",
	"STATUS_UNSUPPORTED_TCB_INFO_FORMAT",
	"STATUS_PCK_REVOKED",
	"STATUS_TCB_INFO_MISMATCH",
	"STATUS_TCB_OUT_OF_DATE",
	"STATUS_TCB_REVOKED",
	"STATUS_TCB_CONFIGURATION_NEEDED",
	"STATUS_TCB_OUT_OF_DATE_CONFIGURATION_NEEDED",
	"STATUS_TCB_NOT_SUPPORTED",
	"STATUS_TCB_UNRECOGNIZED_STATUS",
	"STATUS_UNSUPPORTED_QE_CERTIFICATION",
	"STATUS_INVALID_QE_CERTIFICATION_DATA_SIZE",
	"STATUS_UNSUPPORTED_QE_CERTIFICATION_DATA_TYPE",
	"STATUS_PCK_CERT_MISMATCH",
	"STATUS_INVALID_QE_REPORT_SIGNATURE",
	"STATUS_INVALID_QE_REPORT_DATA",
	"STATUS_INVALID_QUOTE_SIGNATURE",

	"STATUS_SGX_QE_IDENTITY_UNSUPPORTED_FORMAT",
	"STATUS_SGX_QE_IDENTITY_INVALID",
	"STATUS_SGX_QE_IDENTITY_INVALID_SIGNATURE",

	"STATUS_SGX_ENCLAVE_REPORT_UNSUPPORTED_FORMAT",
	"STATUS_SGX_ENCLAVE_IDENTITY_UNSUPPORTED_FORMAT",
	"STATUS_SGX_ENCLAVE_IDENTITY_INVALID",
	"STATUS_SGX_ENCLAVE_IDENTITY_UNSUPPORTED_VERSION",
	"STATUS_SGX_ENCLAVE_IDENTITY_OUT_OF_DATE",
	"STATUS_SGX_ENCLAVE_REPORT_MISCSELECT_MISMATCH",
	"STATUS_SGX_ENCLAVE_REPORT_ATTRIBUTES_MISMATCH",
	"STATUS_SGX_ENCLAVE_REPORT_MRENCLAVE_MISMATCH",
	"STATUS_SGX_ENCLAVE_REPORT_MRSIGNER_MISMATCH",
	"STATUS_SGX_ENCLAVE_REPORT_ISVPRODID_MISMATCH",
	"STATUS_SGX_ENCLAVE_REPORT_ISVSVN_OUT_OF_DATE",

	"STATUS_UNSUPPORTED_QE_IDENTITY_FORMAT",
	"STATUS_QE_IDENTITY_OUT_OF_DATE",
	"STATUS_QE_IDENTITY_MISMATCH",
	"STATUS_SGX_TCB_INFO_EXPIRED",
	"STATUS_SGX_ENCLAVE_IDENTITY_INVALID_SIGNATURE",
	"STATUS_INVALID_PARAMETER",
	"STATUS_SGX_PCK_CERT_CHAIN_EXPIRED",
	"STATUS_SGX_CRL_EXPIRED",
	"STATUS_SGX_SIGNING_CERT_CHAIN_EXPIRED",
	"STATUS_SGX_ENCLAVE_IDENTITY_EXPIRED",
	"STATUS_TCB_SW_HARDENING_NEEDED",
	"STATUS_TCB_CONFIGURATION_AND_SW_HARDENING_NEEDED",
	"STATUS_SGX_ENCLAVE_REPORT_ISVSVN_REVOKED",
}

// String renders the status as "<NAME>(<n>)". Values outside the table render
// as "Unknown status (<n>)" instead of panicking, as callers may hand over
// integers received over the ABI.
func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("Unknown status (%d)", int(s))
	}
	return fmt.Sprintf("%v(%d)", statusNames[s], int(s))
}

// Name returns the bare enumerator name without the numeric suffix.
func (s Status) Name() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("Unknown status (%d)", int(s))
	}
	return statusNames[s]
}

// Ok reports whether s is the sole success value.
func (s Status) Ok() bool {
	return s == STATUS_OK
}
