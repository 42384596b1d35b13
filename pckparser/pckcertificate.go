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
	"encoding/asn1"
	"fmt"
)

// SGX extension OID arc below the Intel SGX extension 1.2.840.113741.1.13.1
var (
	oidSgxExtension       = asn1.ObjectIdentifier{1, 2, 840, 113741, 1, 13, 1}
	oidPpid               = asn1.ObjectIdentifier{1, 2, 840, 113741, 1, 13, 1, 1}
	oidTcb                = asn1.ObjectIdentifier{1, 2, 840, 113741, 1, 13, 1, 2}
	oidPceId              = asn1.ObjectIdentifier{1, 2, 840, 113741, 1, 13, 1, 3}
	oidFmspc              = asn1.ObjectIdentifier{1, 2, 840, 113741, 1, 13, 1, 4}
	oidSgxType            = asn1.ObjectIdentifier{1, 2, 840, 113741, 1, 13, 1, 5}
	oidPlatformInstanceId = asn1.ObjectIdentifier{1, 2, 840, 113741, 1, 13, 1, 6}
	oidConfiguration      = asn1.ObjectIdentifier{1, 2, 840, 113741, 1, 13, 1, 7}
)

const (
	PROCESSOR_CA_EXTENSION_COUNT = 5
	PLATFORM_CA_EXTENSION_COUNT  = 7

	PPID_SIZE   = 16
	CPUSVN_SIZE = 16
	PCEID_SIZE  = 2
	FMSPC_SIZE  = 6
)

// PckVariant tags which PCK CA issued the certificate. The variants differ in
// the number of entries below the SGX extension OID.
type PckVariant int

const (
	PckVariantProcessor PckVariant = iota
	PckVariantPlatform
)

func (v PckVariant) String() string {
	switch v {
	case PckVariantProcessor:
		return "Processor"
	case PckVariantPlatform:
		return "Platform"
	default:
		return fmt.Sprintf("PckVariant(%d)", int(v))
	}
}

// SgxType is the platform type encoded in the SGX extensions
type SgxType int

const (
	SgxTypeStandard SgxType = iota
	SgxTypeScalable
	SgxTypeScalableWithIntegrity
)

// PckTcb carries the TCB values bound into a PCK certificate: the 16 per
// component SVNs, the aggregated CPUSVN bytes and the PCE SVN.
type PckTcb struct {
	CompSvn [16]byte
	PceSvn  int
	CpuSvn  []byte
}

// PckConfiguration carries the optional platform configuration flags of the
// Platform CA variant
type PckConfiguration struct {
	DynamicPlatform bool
	CachedKeys      bool
	SmtEnabled      bool
}

// PckExtensions is the decoded payload of the Intel SGX extension OID.
// PlatformInstanceId and Configuration are only set for the Platform variant.
type PckExtensions struct {
	Variant            PckVariant
	Ppid               []byte
	Tcb                PckTcb
	PceId              []byte
	Fmspc              []byte
	SgxType            SgxType
	PlatformInstanceId []byte
	Configuration      *PckConfiguration
}

// InvalidExtensionError reports a missing or malformed SGX extension. It is
// the parse failure callers must expect when a certificate that is not a PCK
// certificate of the requested variant is handed to the PCK constructors.
type InvalidExtensionError struct {
	Message string
}

func (e *InvalidExtensionError) Error() string {
	return e.Message
}

func invalidExtension(format string, args ...any) *InvalidExtensionError {
	return &InvalidExtensionError{Message: fmt.Sprintf(format, args...)}
}

// ------------------------- start SGX extension ASN.1 layout -------------------------
// ASN.1 encoded data structure below the SGX extension OID of a PCK certificate

type sgxExtPpid struct {
	Id    asn1.ObjectIdentifier
	Value []byte
}

type sgxExtTcbComp struct {
	Id    asn1.ObjectIdentifier
	Value int
}

type sgxExtTcb struct {
	Id    asn1.ObjectIdentifier
	Value struct {
		Comp_01 sgxExtTcbComp
		Comp_02 sgxExtTcbComp
		Comp_03 sgxExtTcbComp
		Comp_04 sgxExtTcbComp
		Comp_05 sgxExtTcbComp
		Comp_06 sgxExtTcbComp
		Comp_07 sgxExtTcbComp
		Comp_08 sgxExtTcbComp
		Comp_09 sgxExtTcbComp
		Comp_10 sgxExtTcbComp
		Comp_11 sgxExtTcbComp
		Comp_12 sgxExtTcbComp
		Comp_13 sgxExtTcbComp
		Comp_14 sgxExtTcbComp
		Comp_15 sgxExtTcbComp
		Comp_16 sgxExtTcbComp
		PceSvn  sgxExtTcbComp
		CpuSvn  struct {
			Svn   asn1.ObjectIdentifier
			Value []byte
		}
	}
}

type sgxExtPceId struct {
	Id    asn1.ObjectIdentifier
	Value []byte
}

type sgxExtFmspc struct {
	Id    asn1.ObjectIdentifier
	Value []byte
}

type sgxExtSgxType struct {
	Id    asn1.ObjectIdentifier
	Value asn1.Enumerated
}

type sgxExtPlatformInstanceId struct {
	Id    asn1.ObjectIdentifier
	Value []byte
}

// ConfigurationId determines the type of the ConfigurationValue:
// [0]: dynamicPlatform, [1]: cachedKeys, [2]: sMTenabled
type sgxExtConfiguration struct {
	Id    asn1.ObjectIdentifier
	Value []struct {
		ConfigurationId    asn1.ObjectIdentifier
		ConfigurationValue bool
	}
}

// ------------------------- end SGX extension ASN.1 layout -------------------------

// ParsePckCertificate parses a PEM or DER encoded PCK certificate including
// its SGX extensions. The variant is derived from the extension entry count.
func ParsePckCertificate(data []byte) (*Certificate, error) {
	cert, err := ParseCertificate(data)
	if err != nil {
		return nil, err
	}
	return PckFromCertificate(cert)
}

// ParseProcessorPckCertificate parses a PCK certificate and requires the
// Processor CA variant
func ParseProcessorPckCertificate(data []byte) (*Certificate, error) {
	cert, err := ParsePckCertificate(data)
	if err != nil {
		return nil, err
	}
	if cert.Pck.Variant != PckVariantProcessor {
		return nil, invalidExtension(
			"OID [%v] expected to contain [%v] elements when given [%v]",
			oidSgxExtension, PROCESSOR_CA_EXTENSION_COUNT, PLATFORM_CA_EXTENSION_COUNT)
	}
	return cert, nil
}

// ParsePlatformPckCertificate parses a PCK certificate and requires the
// Platform CA variant
func ParsePlatformPckCertificate(data []byte) (*Certificate, error) {
	cert, err := ParsePckCertificate(data)
	if err != nil {
		return nil, err
	}
	if cert.Pck.Variant != PckVariantPlatform {
		return nil, invalidExtension(
			"OID [%v] expected to contain [%v] elements when given [%v]",
			oidSgxExtension, PLATFORM_CA_EXTENSION_COUNT, PROCESSOR_CA_EXTENSION_COUNT)
	}
	return cert, nil
}

// PckFromCertificate constructs a PCK certificate value from an already parsed
// certificate by decoding its SGX extensions. The input value is not modified.
func PckFromCertificate(cert *Certificate) (*Certificate, error) {

	var extValue []byte
	for _, ext := range cert.Extensions {
		if ext.Id.Equal(oidSgxExtension) {
			extValue = ext.Value
			break
		}
	}
	if extValue == nil {
		return nil, invalidExtension("OID [%v] not found in certificate CN=%v",
			oidSgxExtension, cert.Subject.CommonName)
	}

	pck, err := parseSgxExtensions(extValue)
	if err != nil {
		return nil, err
	}

	pckCert := *cert
	pckCert.Pck = pck

	log.Tracef("Parsed %v PCK certificate, FMSPC %x", pck.Variant, pck.Fmspc)

	return &pckCert, nil
}

// parseSgxExtensions decodes the value of the SGX extension OID. The value is
// a single SEQUENCE whose entry count decides the variant: 5 entries for the
// Processor CA, 7 for the Platform CA. Everything else is rejected.
func parseSgxExtensions(extValue []byte) (*PckExtensions, error) {

	var seq asn1.RawValue
	rest, err := asn1.Unmarshal(extValue, &seq)
	if err != nil {
		return nil, invalidExtension("failed to decode SGX extensions sequence: %v", err)
	}
	if len(rest) != 0 {
		return nil, invalidExtension("%v trailing bytes after SGX extensions sequence", len(rest))
	}
	if seq.Class != asn1.ClassUniversal || seq.Tag != asn1.TagSequence {
		return nil, invalidExtension("SGX extensions value is not a sequence (class %v, tag %v)",
			seq.Class, seq.Tag)
	}

	count, err := countSequenceEntries(seq.Bytes)
	if err != nil {
		return nil, err
	}
	if count != PROCESSOR_CA_EXTENSION_COUNT && count != PLATFORM_CA_EXTENSION_COUNT {
		return nil, invalidExtension(
			"OID [%v] expected to contain [%v] or [%v] elements when given [%v]",
			oidSgxExtension, PROCESSOR_CA_EXTENSION_COUNT, PLATFORM_CA_EXTENSION_COUNT, count)
	}

	var ppid sgxExtPpid
	var tcb sgxExtTcb
	var pceId sgxExtPceId
	var fmspc sgxExtFmspc
	var sgxType sgxExtSgxType
	var platformInstanceId sgxExtPlatformInstanceId
	var configuration sgxExtConfiguration

	rest, err = asn1.Unmarshal(seq.Bytes, &ppid)
	if err != nil || !ppid.Id.Equal(oidPpid) {
		return nil, invalidExtension("failed to decode SGX extensions PPID: %v", err)
	}
	rest, err = asn1.Unmarshal(rest, &tcb)
	if err != nil || !tcb.Id.Equal(oidTcb) {
		return nil, invalidExtension("failed to decode SGX extensions TCB: %v", err)
	}
	rest, err = asn1.Unmarshal(rest, &pceId)
	if err != nil || !pceId.Id.Equal(oidPceId) {
		return nil, invalidExtension("failed to decode SGX extensions PCEID: %v", err)
	}
	rest, err = asn1.Unmarshal(rest, &fmspc)
	if err != nil || !fmspc.Id.Equal(oidFmspc) {
		return nil, invalidExtension("failed to decode SGX extensions FMSPC: %v", err)
	}
	rest, err = asn1.Unmarshal(rest, &sgxType)
	if err != nil || !sgxType.Id.Equal(oidSgxType) {
		return nil, invalidExtension("failed to decode SGX extensions SGXTYPE: %v", err)
	}

	variant := PckVariantProcessor
	if count == PLATFORM_CA_EXTENSION_COUNT {
		variant = PckVariantPlatform
		rest, err = asn1.Unmarshal(rest, &platformInstanceId)
		if err != nil || !platformInstanceId.Id.Equal(oidPlatformInstanceId) {
			return nil, invalidExtension("failed to decode SGX extensions PlatformInstanceId: %v", err)
		}
		rest, err = asn1.Unmarshal(rest, &configuration)
		if err != nil || !configuration.Id.Equal(oidConfiguration) {
			return nil, invalidExtension("failed to decode SGX extensions Configuration: %v", err)
		}
	}
	if len(rest) != 0 {
		return nil, invalidExtension("%v trailing bytes after SGX extension entries", len(rest))
	}

	if len(ppid.Value) != PPID_SIZE {
		return nil, invalidExtension("PPID length %v, expected %v", len(ppid.Value), PPID_SIZE)
	}
	if len(pceId.Value) != PCEID_SIZE {
		return nil, invalidExtension("PCEID length %v, expected %v", len(pceId.Value), PCEID_SIZE)
	}
	if len(fmspc.Value) != FMSPC_SIZE {
		return nil, invalidExtension("FMSPC length %v, expected %v", len(fmspc.Value), FMSPC_SIZE)
	}
	if len(tcb.Value.CpuSvn.Value) != CPUSVN_SIZE {
		return nil, invalidExtension("CPUSVN length %v, expected %v",
			len(tcb.Value.CpuSvn.Value), CPUSVN_SIZE)
	}

	pck := &PckExtensions{
		Variant: variant,
		Ppid:    ppid.Value,
		Tcb: PckTcb{
			CompSvn: [16]byte{
				byte(tcb.Value.Comp_01.Value), byte(tcb.Value.Comp_02.Value),
				byte(tcb.Value.Comp_03.Value), byte(tcb.Value.Comp_04.Value),
				byte(tcb.Value.Comp_05.Value), byte(tcb.Value.Comp_06.Value),
				byte(tcb.Value.Comp_07.Value), byte(tcb.Value.Comp_08.Value),
				byte(tcb.Value.Comp_09.Value), byte(tcb.Value.Comp_10.Value),
				byte(tcb.Value.Comp_11.Value), byte(tcb.Value.Comp_12.Value),
				byte(tcb.Value.Comp_13.Value), byte(tcb.Value.Comp_14.Value),
				byte(tcb.Value.Comp_15.Value), byte(tcb.Value.Comp_16.Value),
			},
			PceSvn: tcb.Value.PceSvn.Value,
			CpuSvn: tcb.Value.CpuSvn.Value,
		},
		PceId:   pceId.Value,
		Fmspc:   fmspc.Value,
		SgxType: SgxType(sgxType.Value),
	}

	if variant == PckVariantPlatform {
		pck.PlatformInstanceId = platformInstanceId.Value
		conf := &PckConfiguration{}
		for _, c := range configuration.Value {
			if len(c.ConfigurationId) == 0 {
				continue
			}
			switch c.ConfigurationId[len(c.ConfigurationId)-1] {
			case 1:
				conf.DynamicPlatform = c.ConfigurationValue
			case 2:
				conf.CachedKeys = c.ConfigurationValue
			case 3:
				conf.SmtEnabled = c.ConfigurationValue
			}
		}
		pck.Configuration = conf
	}

	return pck, nil
}

func countSequenceEntries(data []byte) (int, error) {
	count := 0
	for rest := data; len(rest) > 0; {
		var entry asn1.RawValue
		var err error
		rest, err = asn1.Unmarshal(rest, &entry)
		if err != nil {
			return 0, invalidExtension("failed to decode SGX extension entry %v: %v", count, err)
		}
		count++
	}
	return count, nil
}
