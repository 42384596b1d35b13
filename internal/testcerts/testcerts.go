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

// Package testcerts synthesizes a miniature SGX PKI for package tests: root,
// intermediate and PCK certificates with real SGX extensions, CRLs, signed
// TCB info and QE identity collateral and fully signed quotes. Test use only.
package testcerts

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/Fraunhofer-AISEC/dcap-qvl/internal"
)

var (
	oidSgxExtension       = asn1.ObjectIdentifier{1, 2, 840, 113741, 1, 13, 1}
	oidPpid               = asn1.ObjectIdentifier{1, 2, 840, 113741, 1, 13, 1, 1}
	oidTcb                = asn1.ObjectIdentifier{1, 2, 840, 113741, 1, 13, 1, 2}
	oidTcbComp            = asn1.ObjectIdentifier{1, 2, 840, 113741, 1, 13, 1, 2, 1}
	oidTcbPceSvn          = asn1.ObjectIdentifier{1, 2, 840, 113741, 1, 13, 1, 2, 17}
	oidTcbCpuSvn          = asn1.ObjectIdentifier{1, 2, 840, 113741, 1, 13, 1, 2, 18}
	oidPceId              = asn1.ObjectIdentifier{1, 2, 840, 113741, 1, 13, 1, 3}
	oidFmspc              = asn1.ObjectIdentifier{1, 2, 840, 113741, 1, 13, 1, 4}
	oidSgxType            = asn1.ObjectIdentifier{1, 2, 840, 113741, 1, 13, 1, 5}
	oidPlatformInstanceId = asn1.ObjectIdentifier{1, 2, 840, 113741, 1, 13, 1, 6}
	oidConfiguration      = asn1.ObjectIdentifier{1, 2, 840, 113741, 1, 13, 1, 7}
	oidConfDynamic        = asn1.ObjectIdentifier{1, 2, 840, 113741, 1, 13, 1, 7, 1}
	oidConfCachedKeys     = asn1.ObjectIdentifier{1, 2, 840, 113741, 1, 13, 1, 7, 2}
	oidConfSmt            = asn1.ObjectIdentifier{1, 2, 840, 113741, 1, 13, 1, 7, 3}
)

// PckValues are the SGX extension values baked into a generated PCK
// certificate
type PckValues struct {
	Ppid     []byte
	CompSvn  [16]byte
	CpuSvn   []byte
	PceSvn   int
	PceId    []byte
	Fmspc    []byte
	Platform bool
}

// DefaultPckValues returns the values of the reference verification scenario
func DefaultPckValues() PckValues {
	ppid := make([]byte, 16)
	for i := range ppid {
		ppid[i] = 0xaa
	}
	cpusvn := make([]byte, 16)
	var compSvn [16]byte
	for i := range cpusvn {
		cpusvn[i] = 0x09
		compSvn[i] = 0x09
	}
	return PckValues{
		Ppid:    ppid,
		CompSvn: compSvn,
		CpuSvn:  cpusvn,
		PceSvn:  0x03f2,
		PceId:   []byte{0x04, 0xf3},
		Fmspc:   []byte{0x05, 0xf4, 0x44, 0x45, 0xaa, 0x00},
	}
}

// DefaultPckSerial is the PCK serial number of the reference verification
// scenario
func DefaultPckSerial() *big.Int {
	serial, _ := new(big.Int).SetString("4066B0014B717CF701D5B7D8F136B199E97396C8", 16)
	return serial
}

// Pki is a complete generated SGX PKI
type Pki struct {
	RootKey         *ecdsa.PrivateKey
	IntermediateKey *ecdsa.PrivateKey
	PckKey          *ecdsa.PrivateKey
	TcbKey          *ecdsa.PrivateKey

	RootCert         *x509.Certificate
	IntermediateCert *x509.Certificate
	PckCert          *x509.Certificate
	TcbSigningCert   *x509.Certificate

	NotBefore time.Time
	NotAfter  time.Time
}

// NewPki generates a root CA, an intermediate Processor CA, a PCK certificate
// with the given SGX extension values and a TCB signing certificate, all
// valid in the given window
func NewPki(values PckValues, notBefore, notAfter time.Time) (*Pki, error) {

	rootKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate root key: %w", err)
	}
	intermediateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate intermediate key: %w", err)
	}
	pckKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate PCK key: %w", err)
	}
	tcbKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate TCB signing key: %w", err)
	}

	rootTmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "Intel SGX Root CA", Organization: []string{"Intel Corporation"}},
		NotBefore:             notBefore,
		NotAfter:              notAfter,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	rootCert, err := createCert(rootTmpl, rootTmpl, &rootKey.PublicKey, rootKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create root cert: %w", err)
	}

	intermediateTmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(2),
		Subject:               pkix.Name{CommonName: "Intel SGX PCK Processor CA", Organization: []string{"Intel Corporation"}},
		NotBefore:             notBefore,
		NotAfter:              notAfter,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	intermediateCert, err := createCert(intermediateTmpl, rootCert, &intermediateKey.PublicKey, rootKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create intermediate cert: %w", err)
	}

	sgxExt, err := BuildSgxExtensions(values)
	if err != nil {
		return nil, err
	}
	pckTmpl := &x509.Certificate{
		SerialNumber:          DefaultPckSerial(),
		Subject:               pkix.Name{CommonName: "Intel SGX PCK Certificate", Organization: []string{"Intel Corporation"}},
		NotBefore:             notBefore,
		NotAfter:              notAfter,
		KeyUsage:              x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		ExtraExtensions: []pkix.Extension{{
			Id:    oidSgxExtension,
			Value: sgxExt,
		}},
	}
	pckCert, err := createCert(pckTmpl, intermediateCert, &pckKey.PublicKey, intermediateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create PCK cert: %w", err)
	}

	tcbTmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(3),
		Subject:               pkix.Name{CommonName: "Intel SGX TCB Signing", Organization: []string{"Intel Corporation"}},
		NotBefore:             notBefore,
		NotAfter:              notAfter,
		KeyUsage:              x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
	}
	tcbSigningCert, err := createCert(tcbTmpl, rootCert, &tcbKey.PublicKey, rootKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create TCB signing cert: %w", err)
	}

	return &Pki{
		RootKey:          rootKey,
		IntermediateKey:  intermediateKey,
		PckKey:           pckKey,
		TcbKey:           tcbKey,
		RootCert:         rootCert,
		IntermediateCert: intermediateCert,
		PckCert:          pckCert,
		TcbSigningCert:   tcbSigningCert,
		NotBefore:        notBefore,
		NotAfter:         notAfter,
	}, nil
}

func createCert(tmpl, parent *x509.Certificate, pub *ecdsa.PublicKey, signer *ecdsa.PrivateKey) (*x509.Certificate, error) {
	der, err := x509.CreateCertificate(rand.Reader, tmpl, parent, pub, signer)
	if err != nil {
		return nil, err
	}
	return x509.ParseCertificate(der)
}

// BuildSgxExtensions encodes PCK extension values into the DER value of the
// SGX extension OID
func BuildSgxExtensions(values PckValues) ([]byte, error) {

	type oidBytes struct {
		Id    asn1.ObjectIdentifier
		Value []byte
	}
	type oidInt struct {
		Id    asn1.ObjectIdentifier
		Value int
	}
	type oidEnum struct {
		Id    asn1.ObjectIdentifier
		Value asn1.Enumerated
	}

	entries := make([][]byte, 0, 7)

	ppid, err := asn1.Marshal(oidBytes{Id: oidPpid, Value: values.Ppid})
	if err != nil {
		return nil, err
	}
	entries = append(entries, ppid)

	tcbEntries := make([][]byte, 0, 18)
	for i := 0; i < 16; i++ {
		compOid := append(asn1.ObjectIdentifier{}, oidTcbComp...)
		compOid[len(compOid)-1] = i + 1
		comp, err := asn1.Marshal(oidInt{Id: compOid, Value: int(values.CompSvn[i])})
		if err != nil {
			return nil, err
		}
		tcbEntries = append(tcbEntries, comp)
	}
	pceSvn, err := asn1.Marshal(oidInt{Id: oidTcbPceSvn, Value: values.PceSvn})
	if err != nil {
		return nil, err
	}
	tcbEntries = append(tcbEntries, pceSvn)
	cpuSvn, err := asn1.Marshal(oidBytes{Id: oidTcbCpuSvn, Value: values.CpuSvn})
	if err != nil {
		return nil, err
	}
	tcbEntries = append(tcbEntries, cpuSvn)

	tcbInner, err := wrapSequence(tcbEntries)
	if err != nil {
		return nil, err
	}
	tcbOid, err := asn1.Marshal(oidTcb)
	if err != nil {
		return nil, err
	}
	tcb, err := wrapSequence([][]byte{tcbOid, tcbInner})
	if err != nil {
		return nil, err
	}
	entries = append(entries, tcb)

	pceId, err := asn1.Marshal(oidBytes{Id: oidPceId, Value: values.PceId})
	if err != nil {
		return nil, err
	}
	entries = append(entries, pceId)

	fmspc, err := asn1.Marshal(oidBytes{Id: oidFmspc, Value: values.Fmspc})
	if err != nil {
		return nil, err
	}
	entries = append(entries, fmspc)

	sgxType, err := asn1.Marshal(oidEnum{Id: oidSgxType, Value: 0})
	if err != nil {
		return nil, err
	}
	entries = append(entries, sgxType)

	if values.Platform {
		instanceId, err := asn1.Marshal(oidBytes{Id: oidPlatformInstanceId, Value: make([]byte, 16)})
		if err != nil {
			return nil, err
		}
		entries = append(entries, instanceId)

		type confFlag struct {
			ConfigurationId    asn1.ObjectIdentifier
			ConfigurationValue bool
		}
		type confEntry struct {
			Id    asn1.ObjectIdentifier
			Value []confFlag
		}
		conf, err := asn1.Marshal(confEntry{
			Id: oidConfiguration,
			Value: []confFlag{
				{ConfigurationId: oidConfDynamic, ConfigurationValue: true},
				{ConfigurationId: oidConfCachedKeys, ConfigurationValue: true},
				{ConfigurationId: oidConfSmt, ConfigurationValue: false},
			},
		})
		if err != nil {
			return nil, err
		}
		entries = append(entries, conf)
	}

	return wrapSequence(entries)
}

// wrapSequence concatenates pre-encoded DER elements into one SEQUENCE
func wrapSequence(elements [][]byte) ([]byte, error) {
	var content []byte
	for _, e := range elements {
		content = append(content, e...)
	}
	return asn1.Marshal(asn1.RawValue{
		Class:      asn1.ClassUniversal,
		Tag:        asn1.TagSequence,
		IsCompound: true,
		Bytes:      content,
	})
}

// NewCrl creates a CRL signed by the issuer listing the given serials,
// valid in the given window
func (p *Pki) NewCrl(issuerCert *x509.Certificate, issuerKey *ecdsa.PrivateKey,
	thisUpdate, nextUpdate time.Time, revokedSerials ...*big.Int) (*x509.RevocationList, error) {

	entries := make([]x509.RevocationListEntry, 0, len(revokedSerials))
	for _, serial := range revokedSerials {
		entries = append(entries, x509.RevocationListEntry{
			SerialNumber:   serial,
			RevocationTime: thisUpdate,
		})
	}

	tmpl := &x509.RevocationList{
		Number:                    big.NewInt(1),
		ThisUpdate:                thisUpdate,
		NextUpdate:                nextUpdate,
		RevokedCertificateEntries: entries,
	}
	der, err := x509.CreateRevocationList(rand.Reader, tmpl, issuerCert, issuerKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create CRL: %w", err)
	}
	return x509.ParseRevocationList(der)
}

// PckChainPem returns the root, intermediate and PCK certificates as one
// concatenated PEM bundle
func (p *Pki) PckChainPem() []byte {
	return internal.WriteCertsPem([]*x509.Certificate{p.RootCert, p.IntermediateCert, p.PckCert})
}

// TcbSigningChainPem returns the root and TCB signing certificates as one
// concatenated PEM bundle
func (p *Pki) TcbSigningChainPem() []byte {
	return internal.WriteCertsPem([]*x509.Certificate{p.RootCert, p.TcbSigningCert})
}

// TcbLevelSpec describes one TCB level of generated TCB info collateral
type TcbLevelSpec struct {
	CompSvn [16]byte
	PceSvn  int
	Status  string
}

// SignTcbInfo builds and signs a TCB info JSON document for the given FMSPC
// and PCE ID listing the given TCB levels
func (p *Pki) SignTcbInfo(fmspc, pceId []byte, levels []TcbLevelSpec,
	issueDate, nextUpdate time.Time) ([]byte, error) {

	type tcbComponent struct {
		Svn int `json:"svn"`
	}
	type tcb struct {
		SgxTcbComponents []tcbComponent `json:"sgxtcbcomponents"`
		PceSvn           int            `json:"pcesvn"`
	}
	type tcbLevel struct {
		Tcb       tcb    `json:"tcb"`
		TcbDate   string `json:"tcbDate"`
		TcbStatus string `json:"tcbStatus"`
	}
	type tcbInfoBody struct {
		ID                      string     `json:"id"`
		Version                 int        `json:"version"`
		IssueDate               string     `json:"issueDate"`
		NextUpdate              string     `json:"nextUpdate"`
		Fmspc                   string     `json:"fmspc"`
		PceID                   string     `json:"pceId"`
		TcbType                 int        `json:"tcbType"`
		TcbEvaluationDataNumber int        `json:"tcbEvaluationDataNumber"`
		TcbLevels               []tcbLevel `json:"tcbLevels"`
	}

	body := tcbInfoBody{
		ID:                      "SGX",
		Version:                 3,
		IssueDate:               issueDate.UTC().Format(time.RFC3339),
		NextUpdate:              nextUpdate.UTC().Format(time.RFC3339),
		Fmspc:                   hex.EncodeToString(fmspc),
		PceID:                   hex.EncodeToString(pceId),
		TcbType:                 0,
		TcbEvaluationDataNumber: 1,
	}
	for _, level := range levels {
		comps := make([]tcbComponent, 16)
		for i := 0; i < 16; i++ {
			comps[i] = tcbComponent{Svn: int(level.CompSvn[i])}
		}
		body.TcbLevels = append(body.TcbLevels, tcbLevel{
			Tcb:       tcb{SgxTcbComponents: comps, PceSvn: level.PceSvn},
			TcbDate:   issueDate.UTC().Format(time.RFC3339),
			TcbStatus: level.Status,
		})
	}

	return p.signCollateral("tcbInfo", body)
}

// QeIdentityValues describes generated QE identity collateral
type QeIdentityValues struct {
	MrSigner       []byte
	IsvProdId      int
	IsvSvn         int
	Status         string
	Miscselect     []byte
	MiscselectMask []byte
	Attributes     []byte
	AttributesMask []byte
}

// DefaultQeIdentityValues returns identity values matching the QE report the
// quote builder emits
func DefaultQeIdentityValues() QeIdentityValues {
	mrsigner := make([]byte, 32)
	for i := range mrsigner {
		mrsigner[i] = 0x8c
	}
	return QeIdentityValues{
		MrSigner:       mrsigner,
		IsvProdId:      1,
		IsvSvn:         5,
		Status:         "UpToDate",
		Miscselect:     []byte{0x00, 0x00, 0x00, 0x00},
		MiscselectMask: []byte{0xff, 0xff, 0xff, 0xff},
		Attributes:     []byte{0x11, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
		AttributesMask: []byte{0xfb, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0, 0, 0, 0, 0, 0, 0, 0},
	}
}

// SignQeIdentity builds and signs a QE identity JSON document
func (p *Pki) SignQeIdentity(values QeIdentityValues,
	issueDate, nextUpdate time.Time) ([]byte, error) {

	type tcb struct {
		IsvSvn int `json:"isvsvn"`
	}
	type tcbLevel struct {
		Tcb       tcb    `json:"tcb"`
		TcbDate   string `json:"tcbDate"`
		TcbStatus string `json:"tcbStatus"`
	}
	type identityBody struct {
		ID                      string     `json:"id"`
		Version                 int        `json:"version"`
		IssueDate               string     `json:"issueDate"`
		NextUpdate              string     `json:"nextUpdate"`
		TcbEvaluationDataNumber int        `json:"tcbEvaluationDataNumber"`
		Miscselect              string     `json:"miscselect"`
		MiscselectMask          string     `json:"miscselectMask"`
		Attributes              string     `json:"attributes"`
		AttributesMask          string     `json:"attributesMask"`
		MrSigner                string     `json:"mrsigner"`
		IsvProdId               int        `json:"isvprodid"`
		TcbLevels               []tcbLevel `json:"tcbLevels"`
	}

	body := identityBody{
		ID:                      "QE",
		Version:                 2,
		IssueDate:               issueDate.UTC().Format(time.RFC3339),
		NextUpdate:              nextUpdate.UTC().Format(time.RFC3339),
		TcbEvaluationDataNumber: 1,
		Miscselect:              hex.EncodeToString(values.Miscselect),
		MiscselectMask:          hex.EncodeToString(values.MiscselectMask),
		Attributes:              hex.EncodeToString(values.Attributes),
		AttributesMask:          hex.EncodeToString(values.AttributesMask),
		MrSigner:                hex.EncodeToString(values.MrSigner),
		IsvProdId:               values.IsvProdId,
		TcbLevels: []tcbLevel{{
			Tcb:       tcb{IsvSvn: values.IsvSvn},
			TcbDate:   issueDate.UTC().Format(time.RFC3339),
			TcbStatus: values.Status,
		}},
	}

	return p.signCollateral("enclaveIdentity", body)
}

// signCollateral marshals the body, signs its exact bytes with the TCB
// signing key and assembles the final document around the verbatim body
func (p *Pki) signCollateral(key string, body any) ([]byte, error) {

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %v body: %w", key, err)
	}

	sig, err := SignRaw(p.TcbKey, bodyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to sign %v body: %w", key, err)
	}

	doc := fmt.Sprintf("{%q:%s,%q:%q}", key, bodyBytes, "signature", hex.EncodeToString(sig))
	return []byte(doc), nil
}

// SignRaw signs the SHA-256 digest of data and returns the raw 64-byte
// r || s signature
func SignRaw(key *ecdsa.PrivateKey, data []byte) ([]byte, error) {
	digest := sha256.Sum256(data)
	r, s, err := ecdsa.Sign(rand.Reader, key, digest[:])
	if err != nil {
		return nil, err
	}
	sig := make([]byte, 64)
	r.FillBytes(sig[:32])
	s.FillBytes(sig[32:])
	return sig, nil
}

// QuoteValues parameterizes the generated quote
type QuoteValues struct {
	Version            uint16
	AttestationKeyType uint16
	TeeType            uint32
	CpuSvn             [16]byte
	MiscSelect         uint32
	Attributes         [16]byte
	MrEnclave          [32]byte
	MrSigner           [32]byte
	IsvProdId          uint16
	IsvSvn             uint16
	ReportData         [64]byte

	QeMiscSelect uint32
	QeAttributes [16]byte
	QeMrSigner   [32]byte
	QeIsvProdId  uint16
	QeIsvSvn     uint16

	// CorruptQeReportData breaks the attestation key binding in the QE
	// report data while keeping the QE report signature valid
	CorruptQeReportData bool
}

// DefaultQuoteValues returns quote values matching DefaultQeIdentityValues
func DefaultQuoteValues() QuoteValues {
	var mrsigner [32]byte
	for i := range mrsigner {
		mrsigner[i] = 0x8c
	}
	var cpusvn [16]byte
	for i := range cpusvn {
		cpusvn[i] = 0x09
	}
	return QuoteValues{
		Version:            3,
		AttestationKeyType: 2,
		TeeType:            0,
		CpuSvn:             cpusvn,
		MrSigner:           mrsigner,
		IsvProdId:          1,
		IsvSvn:             5,
		QeMiscSelect:       0,
		QeAttributes:       [16]byte{0x11},
		QeMrSigner:         mrsigner,
		QeIsvProdId:        1,
		QeIsvSvn:           5,
	}
}

// BuildQuote assembles and signs a complete SGX ECDSA quote: the enclave
// report signed by a fresh attestation key, the QE report binding that key,
// signed by the PCK key, and the PCK chain as QE certification data type 5.
func (p *Pki) BuildQuote(values QuoteValues) ([]byte, error) {

	attKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate attestation key: %w", err)
	}

	var akPoint [64]byte
	attKey.PublicKey.X.FillBytes(akPoint[:32])
	attKey.PublicKey.Y.FillBytes(akPoint[32:])

	qeAuthData := []byte{0x01, 0x02, 0x03, 0x04}

	// QE report data: SHA256(attestation key || QE auth data) || 32*0x00
	hashRef := sha256.Sum256(append(akPoint[:], qeAuthData...))
	var qeReportData [64]byte
	copy(qeReportData[:], hashRef[:])
	if values.CorruptQeReportData {
		qeReportData[0] ^= 0xff
	}

	header := struct {
		Version            uint16
		AttestationKeyType uint16
		TeeType            uint32
		QESVN              uint16
		PCESVN             uint16
		QEVendorID         [16]byte
		UserData           [20]byte
	}{
		Version:            values.Version,
		AttestationKeyType: values.AttestationKeyType,
		TeeType:            values.TeeType,
	}

	body := enclaveReportBody{
		CPUSVN:     values.CpuSvn,
		MISCSELECT: values.MiscSelect,
		Attributes: values.Attributes,
		MRENCLAVE:  values.MrEnclave,
		MRSIGNER:   values.MrSigner,
		ISVProdID:  values.IsvProdId,
		ISVSVN:     values.IsvSvn,
		ReportData: values.ReportData,
	}

	qeReport := enclaveReportBody{
		CPUSVN:     values.CpuSvn,
		MISCSELECT: values.QeMiscSelect,
		Attributes: values.QeAttributes,
		MRSIGNER:   values.QeMrSigner,
		ISVProdID:  values.QeIsvProdId,
		ISVSVN:     values.QeIsvSvn,
		ReportData: qeReportData,
	}

	signedPart, err := marshalLE(header, body)
	if err != nil {
		return nil, err
	}
	quoteSig, err := SignRaw(attKey, signedPart)
	if err != nil {
		return nil, fmt.Errorf("failed to sign quote body: %w", err)
	}

	qeReportBytes, err := marshalLE(qeReport)
	if err != nil {
		return nil, err
	}
	qeReportSig, err := SignRaw(p.PckKey, qeReportBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to sign QE report: %w", err)
	}

	certData := p.PckChainPem()

	sigData, err := marshalLE(
		[64]byte(quoteSig),
		akPoint,
		qeReport,
		[64]byte(qeReportSig),
		uint16(len(qeAuthData)),
	)
	if err != nil {
		return nil, err
	}
	sigData = append(sigData, qeAuthData...)
	tail, err := marshalLE(uint16(5), uint32(len(certData)))
	if err != nil {
		return nil, err
	}
	sigData = append(sigData, tail...)
	sigData = append(sigData, certData...)

	quote := signedPart
	lenField, err := marshalLE(uint32(len(sigData)))
	if err != nil {
		return nil, err
	}
	quote = append(quote, lenField...)
	quote = append(quote, sigData...)

	return quote, nil
}

// enclaveReportBody mirrors the 384-byte SGX enclave report layout
type enclaveReportBody struct {
	CPUSVN     [16]byte
	MISCSELECT uint32
	Reserved1  [28]byte
	Attributes [16]byte
	MRENCLAVE  [32]byte
	Reserved2  [32]byte
	MRSIGNER   [32]byte
	Reserved3  [96]byte
	ISVProdID  uint16
	ISVSVN     uint16
	Reserved4  [60]byte
	ReportData [64]byte
}

func marshalLE(values ...any) ([]byte, error) {
	buf := new(bytes.Buffer)
	for _, v := range values {
		if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
			return nil, fmt.Errorf("failed to marshal %T: %w", v, err)
		}
	}
	return buf.Bytes(), nil
}
