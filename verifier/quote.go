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
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math/big"
	"time"

	"github.com/google/go-tdx-guest/pcs"

	"github.com/Fraunhofer-AISEC/dcap-qvl/collateral"
	"github.com/Fraunhofer-AISEC/dcap-qvl/pckparser"
	"github.com/Fraunhofer-AISEC/dcap-qvl/quote"
	"github.com/Fraunhofer-AISEC/dcap-qvl/status"
)

const (
	// Enclave identity IDs of the reference quoting enclaves
	QE    = "QE"
	TD_QE = "TD_QE"
)

// QuoteVerifier composes the full DCAP verification pipeline: PCK chain,
// collateral artifacts, quote cryptography, TCB level selection and enclave
// identity matching.
type QuoteVerifier struct {
	common   commonVerifier
	pck      *PckCertVerifier
	tcbInfo  *TcbInfoVerifier
	identity *EnclaveIdentityVerifier
}

func NewQuoteVerifier() *QuoteVerifier {
	return &QuoteVerifier{
		common:   NewCommonVerifier(),
		pck:      NewPckCertVerifier(),
		tcbInfo:  NewTcbInfoVerifier(),
		identity: NewEnclaveIdentityVerifier(),
	}
}

// Verify decodes and verifies attestation evidence. The returned status is
// STATUS_OK only if every layer verified and the platform TCB level is up to
// date; a verified quote on a stale platform yields the matching
// STATUS_TCB_* value instead.
func (v *QuoteVerifier) Verify(quoteRaw []byte,
	pckChain, tcbSigningChain *pckparser.CertificateChain,
	rootCaCrl, intermediateCrl *pckparser.CrlStore,
	trustedRoot *pckparser.Certificate,
	tcbInfo *collateral.TcbInfo, qeIdentity *collateral.EnclaveIdentity,
	expirationDate time.Time) status.Status {

	if len(quoteRaw) == 0 || pckChain == nil || tcbSigningChain == nil ||
		rootCaCrl == nil || intermediateCrl == nil || trustedRoot == nil ||
		tcbInfo == nil || qeIdentity == nil {
		log.Debugf("Missing quote verification parameters")
		return status.STATUS_MISSING_PARAMETERS
	}

	// 1. Decode the quote and check version and format
	q, err := quote.Decode(quoteRaw)
	if err != nil {
		log.Debugf("Failed to decode quote: %v", err)
		return status.STATUS_UNSUPPORTED_QUOTE_FORMAT
	}
	if q.QuoteHeader.Version != quote.SGX_QUOTE_VERSION {
		log.Debugf("Unsupported quote version %v", q.QuoteHeader.Version)
		return status.STATUS_UNSUPPORTED_QUOTE_FORMAT
	}
	if q.QuoteHeader.TeeType != quote.SGX_TEE_TYPE {
		log.Debugf("Unsupported TEE type 0x%x", q.QuoteHeader.TeeType)
		return status.STATUS_UNSUPPORTED_QUOTE_FORMAT
	}
	if q.QuoteHeader.AttestationKeyType != quote.ECDSA_P_256 {
		log.Debugf("Unsupported attestation key type %v", q.QuoteHeader.AttestationKeyType)
		return status.STATUS_UNSUPPORTED_QUOTE_FORMAT
	}

	// 2. PCK certificate chain
	if s := v.pck.Verify(pckChain, rootCaCrl, intermediateCrl, trustedRoot,
		expirationDate); s != status.STATUS_OK {
		return s
	}

	pckCert := pckChain.GetPckCert()
	if pckCert.Pck == nil {
		log.Debugf("PCK certificate carries no SGX extensions")
		return status.STATUS_UNSUPPORTED_PCK_CERT_FORMAT
	}

	// 3. Collateral artifacts
	if s := v.tcbInfo.Verify(tcbInfo, tcbSigningChain, rootCaCrl, trustedRoot,
		expirationDate); s != status.STATUS_OK {
		return s
	}
	if s := v.identity.Verify(qeIdentity, tcbSigningChain, rootCaCrl, trustedRoot,
		expirationDate); s != status.STATUS_OK {
		return s
	}

	// 4. Cross-checks between PCK certificate, TCB info and quote
	if s := v.checkTcbInfoBinding(pckCert, tcbInfo); s != status.STATUS_OK {
		return s
	}
	if s := v.checkQeCertData(&q, pckCert); s != status.STATUS_OK {
		return s
	}

	// 5. QE report signature under the PCK public key
	sig := q.QuoteSignatureData
	if err := v.common.CheckSha256EcdsaSignature(sig.QEReportSignature[:],
		q.QeReportBytes(), pckCert.PublicKey()); err != nil {
		log.Debugf("Failed to verify QE report signature: %v", err)
		return status.STATUS_INVALID_QE_REPORT_SIGNATURE
	}

	// 6. QE report data binds the attestation key:
	// SHA256(attestation key || QE auth data) || 32*0x00
	hashRef := sha256.Sum256(append(sig.ECDSAAttestationKey[:], sig.QEAuthData...))
	reportDataRef := append(hashRef[:], make([]byte, 32)...)
	if !bytes.Equal(sig.QEReport.ReportData[:], reportDataRef) {
		log.Debugf("Invalid QE report data. Expected: %v, got: %v",
			hex.EncodeToString(reportDataRef),
			hex.EncodeToString(sig.QEReport.ReportData[:]))
		return status.STATUS_INVALID_QE_REPORT_DATA
	}

	// 7. Quote signature over header and enclave report body under the
	// attestation public key
	akPub := ecdsaPubFromPoint(sig.ECDSAAttestationKey)
	if akPub == nil {
		log.Debugf("Failed to reconstruct attestation public key")
		return status.STATUS_INVALID_QUOTE_SIGNATURE
	}
	if err := v.common.CheckSha256EcdsaSignature(sig.ISVEnclaveReportSignature[:],
		q.SignedBytes(), akPub); err != nil {
		log.Debugf("Failed to verify quote signature: %v", err)
		return status.STATUS_INVALID_QUOTE_SIGNATURE
	}

	// 8. TCB level selection
	tcbStatus, s := v.selectTcbLevel(tcbInfo, pckCert.Pck)
	if s != status.STATUS_OK {
		return s
	}

	// 9. Enclave identity matching against the QE report
	if s := v.matchEnclaveIdentity(&sig.QEReport, qeIdentity); s != status.STATUS_OK {
		return s
	}

	// 10. The TCB level status decides the verdict
	return tcbStatus
}

// checkTcbInfoBinding checks that the TCB info was issued for the platform
// the PCK certificate describes
func (v *QuoteVerifier) checkTcbInfoBinding(pckCert *pckparser.Certificate,
	tcbInfo *collateral.TcbInfo) status.Status {

	tcbInfoFmspc, err := hex.DecodeString(tcbInfo.TcbInfo.Fmspc)
	if err != nil {
		log.Debugf("Failed to decode TCB info FMSPC: %v", err)
		return status.STATUS_UNSUPPORTED_TCB_INFO_FORMAT
	}
	if !bytes.Equal(tcbInfoFmspc, pckCert.Pck.Fmspc) {
		log.Debugf("FMSPC value from TCB info (%v) and FMSPC value from SGX extensions "+
			"in PCK certificate (%v) do not match",
			tcbInfo.TcbInfo.Fmspc, hex.EncodeToString(pckCert.Pck.Fmspc))
		return status.STATUS_TCB_INFO_MISMATCH
	}

	tcbInfoPceId, err := hex.DecodeString(tcbInfo.TcbInfo.PceID)
	if err != nil {
		log.Debugf("Failed to decode TCB info PCE ID: %v", err)
		return status.STATUS_UNSUPPORTED_TCB_INFO_FORMAT
	}
	if !bytes.Equal(tcbInfoPceId, pckCert.Pck.PceId) {
		log.Debugf("PCEID value from TCB info (%v) and PCEID value from SGX extensions "+
			"in PCK certificate (%v) do not match",
			tcbInfo.TcbInfo.PceID, hex.EncodeToString(pckCert.Pck.PceId))
		return status.STATUS_TCB_INFO_MISMATCH
	}

	return status.STATUS_OK
}

// checkQeCertData checks that the QE certification data embedded in the quote
// carries the same PCK certificate the chain was verified with
func (v *QuoteVerifier) checkQeCertData(q *quote.SgxQuote, pckCert *pckparser.Certificate) status.Status {

	sig := q.QuoteSignatureData

	declared := 64 + 64 + quote.SGX_QUOTE_BODY_SIZE + 64 +
		2 + len(sig.QEAuthData) + 2 + 4 + len(sig.QECertData)
	if int(q.QuoteSignatureDataLen) != declared {
		log.Debugf("Quote signature data length %v does not match parsed length %v",
			q.QuoteSignatureDataLen, declared)
		return status.STATUS_INVALID_QE_CERTIFICATION_DATA_SIZE
	}

	if sig.QECertDataType != quote.QE_CERT_DATA_TYPE_PCK_CHAIN {
		log.Debugf("QE certification data type %v not supported", sig.QECertDataType)
		return status.STATUS_UNSUPPORTED_QE_CERTIFICATION_DATA_TYPE
	}

	quoteChain, err := pckparser.ParseCertificateChain(sig.QECertData)
	if err != nil {
		log.Debugf("Failed to parse certificate chain from QE certification data: %v", err)
		return status.STATUS_UNSUPPORTED_QE_CERTIFICATION
	}

	quotePck := quoteChain.GetPckCert()
	if quotePck == nil || !bytes.Equal(quotePck.X509().Raw, pckCert.X509().Raw) {
		log.Debugf("PCK certificate from QE certification data does not match the " +
			"verified PCK certificate chain")
		return status.STATUS_PCK_CERT_MISMATCH
	}

	return status.STATUS_OK
}

// selectTcbLevel iterates the TCB info levels in their given order and
// selects the first level whose component SVNs and PCE SVN are satisfied by
// the PCK certificate's TCB. The level's status string decides the result.
func (v *QuoteVerifier) selectTcbLevel(tcbInfo *collateral.TcbInfo,
	pckExt *pckparser.PckExtensions) (status.Status, status.Status) {

	log.Tracef("Checking %v TCB info levels", len(tcbInfo.TcbInfo.TcbLevels))

	for _, tcbLevel := range tcbInfo.TcbInfo.TcbLevels {
		if !sgxTcbComponentsSatisfied(tcbLevel.Tcb.SgxTcbcomponents, pckExt.Tcb.CompSvn) {
			continue
		}
		if pckExt.Tcb.PceSvn < int(tcbLevel.Tcb.Pcesvn) {
			continue
		}

		log.Debugf("Selected TCB level date %v, status %v", tcbLevel.TcbDate, tcbLevel.TcbStatus)
		return tcbStatusToStatus(tcbLevel.TcbStatus), status.STATUS_OK
	}

	log.Debugf("No TCB level matches the platform TCB")
	return status.STATUS_OK, status.STATUS_TCB_NOT_SUPPORTED
}

// sgxTcbComponentsSatisfied reports whether every component SVN of the TCB
// level is less than or equal to the corresponding PCK certificate SVN
func sgxTcbComponentsSatisfied(comps []pcs.TcbComponent, pckSvns [16]byte) bool {
	if len(comps) != 16 {
		log.Debugf("Unexpected SGX TCB components length %v", len(comps))
		return false
	}
	for i := 0; i < 16; i++ {
		if pckSvns[i] < comps[i].Svn {
			log.Tracef("Comp_%02v PCK certificate SVN %v lower than TCB info SVN %v",
				i+1, pckSvns[i], comps[i].Svn)
			return false
		}
	}
	return true
}

func tcbStatusToStatus(s pcs.TcbComponentStatus) status.Status {
	switch s {
	case pcs.TcbComponentStatusUpToDate:
		return status.STATUS_OK
	case pcs.TcbComponentStatusOutOfDate:
		return status.STATUS_TCB_OUT_OF_DATE
	case pcs.TcbComponentStatusRevoked:
		return status.STATUS_TCB_REVOKED
	case pcs.TcbComponentStatusConfigurationNeeded:
		return status.STATUS_TCB_CONFIGURATION_NEEDED
	case pcs.TcbComponentStatusOutOfDateConfigurationNeeded:
		return status.STATUS_TCB_OUT_OF_DATE_CONFIGURATION_NEEDED
	case pcs.TcbComponentStatusSwHardeningNeeded:
		return status.STATUS_TCB_SW_HARDENING_NEEDED
	case pcs.TcbComponentStatusConfigurationAndSWHardeningNeeded:
		return status.STATUS_TCB_CONFIGURATION_AND_SW_HARDENING_NEEDED
	default:
		log.Debugf("Unrecognized TCB level status %q", s)
		return status.STATUS_TCB_UNRECOGNIZED_STATUS
	}
}

// matchEnclaveIdentity compares the QE report against the enclave identity:
// masked MISCSELECT and ATTRIBUTES equality, MRSIGNER and ISVPRODID equality
// and the ISVSVN against the identity's TCB levels
func (v *QuoteVerifier) matchEnclaveIdentity(qeReport *quote.EnclaveReportBody,
	qeIdentity *collateral.EnclaveIdentity) status.Status {

	identity := qeIdentity.EnclaveIdentity

	if identity.ID != QE {
		log.Debugf("Enclave identity ID %q does not match the quoting enclave", identity.ID)
		return status.STATUS_QE_IDENTITY_MISMATCH
	}

	// MISCSELECT masked equality
	miscselectMask := binary.LittleEndian.Uint32(identity.MiscselectMask.Bytes)
	refMiscSelect := binary.LittleEndian.Uint32(identity.Miscselect.Bytes)
	reportMiscSelect := qeReport.MISCSELECT & miscselectMask
	if refMiscSelect != reportMiscSelect {
		log.Debugf("MISCSELECT value from QE identity (0x%x) does not match masked "+
			"MISCSELECT value from QE report (0x%x)", refMiscSelect, reportMiscSelect)
		return status.STATUS_SGX_ENCLAVE_REPORT_MISCSELECT_MISMATCH
	}

	// ATTRIBUTES masked equality
	reportAttributes := qeReport.Attributes
	attributesMask := identity.AttributesMask
	if len(attributesMask.Bytes) == len(reportAttributes) {
		for i := range reportAttributes {
			reportAttributes[i] &= attributesMask.Bytes[i]
		}
	}
	if !bytes.Equal(identity.Attributes.Bytes, reportAttributes[:]) {
		log.Debugf("ATTRIBUTES mismatch. Expected: %v, got: %v",
			hex.EncodeToString(identity.Attributes.Bytes),
			hex.EncodeToString(reportAttributes[:]))
		return status.STATUS_SGX_ENCLAVE_REPORT_ATTRIBUTES_MISMATCH
	}

	// MRSIGNER equality
	if !bytes.Equal(identity.Mrsigner.Bytes, qeReport.MRSIGNER[:]) {
		log.Debugf("MRSIGNER mismatch. Expected: %v, got: %v",
			hex.EncodeToString(identity.Mrsigner.Bytes),
			hex.EncodeToString(qeReport.MRSIGNER[:]))
		return status.STATUS_SGX_ENCLAVE_REPORT_MRSIGNER_MISMATCH
	}

	// ISVPRODID equality
	if qeReport.ISVProdID != uint16(identity.IsvProdID) {
		log.Debugf("ISVPRODID mismatch. Expected: %v, got: %v",
			identity.IsvProdID, qeReport.ISVProdID)
		return status.STATUS_SGX_ENCLAVE_REPORT_ISVPRODID_MISMATCH
	}

	// ISVSVN against the identity TCB levels, highest ISVSVN first
	tcbStatus, found := qeTcbLevelStatus(qeIdentity, qeReport.ISVSVN)
	if !found {
		log.Debugf("QE report ISVSVN %v is below all enclave identity TCB levels",
			qeReport.ISVSVN)
		return status.STATUS_SGX_ENCLAVE_REPORT_ISVSVN_OUT_OF_DATE
	}
	if tcbStatus == pcs.TcbComponentStatusRevoked {
		log.Debugf("Enclave identity TCB level for ISVSVN %v is revoked", qeReport.ISVSVN)
		return status.STATUS_SGX_ENCLAVE_REPORT_ISVSVN_REVOKED
	}

	return status.STATUS_OK
}

// qeTcbLevelStatus returns the status of the first enclave identity TCB level
// whose ISVSVN threshold is satisfied. The levels are listed highest ISVSVN
// first, so the first match is the current level of the reported enclave.
func qeTcbLevelStatus(qeIdentity *collateral.EnclaveIdentity, isvSvn uint16) (pcs.TcbComponentStatus, bool) {
	for _, level := range qeIdentity.EnclaveIdentity.TcbLevels {
		if uint16(level.Tcb.Isvsvn) <= isvSvn {
			return level.TcbStatus, true
		}
	}
	return "", false
}

// ecdsaPubFromPoint reconstructs an ECDSA P-256 public key from 64 raw
// X || Y point bytes
func ecdsaPubFromPoint(point [64]byte) *ecdsa.PublicKey {
	x := new(big.Int).SetBytes(point[:32])
	y := new(big.Int).SetBytes(point[32:])
	if !elliptic.P256().IsOnCurve(x, y) {
		return nil
	}
	return &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     x,
		Y:     y,
	}
}
