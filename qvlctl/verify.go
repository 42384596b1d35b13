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

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/Fraunhofer-AISEC/dcap-qvl/collateral"
	"github.com/Fraunhofer-AISEC/dcap-qvl/pckparser"
	"github.com/Fraunhofer-AISEC/dcap-qvl/verifier"
)

const (
	quoteFlag           = "quote"
	pckChainFlag        = "pck-chain"
	tcbChainFlag        = "tcb-signing-chain"
	rootCrlFlag         = "root-crl"
	intermediateCrlFlag = "intermediate-crl"
	trustedRootFlag     = "trusted-root"
	tcbInfoFlag         = "tcb-info"
	qeIdentityFlag      = "qe-identity"
	expirationFlag      = "expiration"
	formatFlag          = "format"
	outputFlag          = "output"
)

func verifyCommand() *cli.Command {
	return &cli.Command{
		Name:  "verify",
		Usage: "Verify a quote against its collateral and print the verdict",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: quoteFlag, Usage: "Quote file (binary)", Required: true},
			&cli.StringFlag{Name: pckChainFlag, Usage: "PCK certificate chain file (concatenated PEM)", Required: true},
			&cli.StringFlag{Name: tcbChainFlag, Usage: "TCB signing chain file (concatenated PEM)", Required: true},
			&cli.StringFlag{Name: rootCrlFlag, Usage: "Root CA CRL file (PEM or DER)", Required: true},
			&cli.StringFlag{Name: intermediateCrlFlag, Usage: "Intermediate CA CRL file (PEM or DER)", Required: true},
			&cli.StringFlag{Name: trustedRootFlag, Usage: "Trusted root CA certificate file (PEM)", Required: true},
			&cli.StringFlag{Name: tcbInfoFlag, Usage: "TCB info file (JSON)", Required: true},
			&cli.StringFlag{Name: qeIdentityFlag, Usage: "QE identity file (JSON)", Required: true},
			&cli.StringFlag{Name: expirationFlag, Usage: "Expiration date (RFC 3339, default: now)"},
			&cli.StringFlag{Name: formatFlag, Usage: "Report format (json, cbor)", Value: "json"},
			&cli.StringFlag{Name: outputFlag, Usage: "Report output file (default: stdout)"},
		},
		Action: runVerify,
	}
}

func runVerify(ctx context.Context, cmd *cli.Command) error {

	quoteRaw, err := os.ReadFile(cmd.String(quoteFlag))
	if err != nil {
		return fmt.Errorf("failed to read quote: %w", err)
	}

	pckChainRaw, err := os.ReadFile(cmd.String(pckChainFlag))
	if err != nil {
		return fmt.Errorf("failed to read PCK chain: %w", err)
	}
	pckChain, err := pckparser.ParseCertificateChain(pckChainRaw)
	if err != nil {
		return fmt.Errorf("failed to parse PCK chain: %w", err)
	}

	tcbChainRaw, err := os.ReadFile(cmd.String(tcbChainFlag))
	if err != nil {
		return fmt.Errorf("failed to read TCB signing chain: %w", err)
	}
	tcbChain, err := pckparser.ParseCertificateChain(tcbChainRaw)
	if err != nil {
		return fmt.Errorf("failed to parse TCB signing chain: %w", err)
	}

	rootCrlRaw, err := os.ReadFile(cmd.String(rootCrlFlag))
	if err != nil {
		return fmt.Errorf("failed to read root CA CRL: %w", err)
	}
	rootCrl, err := pckparser.ParseCrl(rootCrlRaw)
	if err != nil {
		return fmt.Errorf("failed to parse root CA CRL: %w", err)
	}

	intermediateCrlRaw, err := os.ReadFile(cmd.String(intermediateCrlFlag))
	if err != nil {
		return fmt.Errorf("failed to read intermediate CA CRL: %w", err)
	}
	intermediateCrl, err := pckparser.ParseCrl(intermediateCrlRaw)
	if err != nil {
		return fmt.Errorf("failed to parse intermediate CA CRL: %w", err)
	}

	trustedRootRaw, err := os.ReadFile(cmd.String(trustedRootFlag))
	if err != nil {
		return fmt.Errorf("failed to read trusted root: %w", err)
	}
	trustedRoot, err := pckparser.ParseCertificate(trustedRootRaw)
	if err != nil {
		return fmt.Errorf("failed to parse trusted root: %w", err)
	}

	tcbInfoRaw, err := os.ReadFile(cmd.String(tcbInfoFlag))
	if err != nil {
		return fmt.Errorf("failed to read TCB info: %w", err)
	}
	tcbInfo, err := collateral.ParseTcbInfo(tcbInfoRaw)
	if err != nil {
		return fmt.Errorf("failed to parse TCB info: %w", err)
	}

	qeIdentityRaw, err := os.ReadFile(cmd.String(qeIdentityFlag))
	if err != nil {
		return fmt.Errorf("failed to read QE identity: %w", err)
	}
	qeIdentity, err := collateral.ParseEnclaveIdentity(qeIdentityRaw)
	if err != nil {
		return fmt.Errorf("failed to parse QE identity: %w", err)
	}

	expiration := time.Now()
	if cmd.IsSet(expirationFlag) {
		expiration, err = time.Parse(time.RFC3339, cmd.String(expirationFlag))
		if err != nil {
			return fmt.Errorf("failed to parse expiration date: %w", err)
		}
	}

	result := verifier.VerifyEvidence(quoteRaw, pckChain, tcbChain, rootCrl,
		intermediateCrl, trustedRoot, tcbInfo, qeIdentity, expiration)

	log.Infof("Verification verdict: %v", result.VerdictName)

	report, err := result.Marshal(cmd.String(formatFlag))
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if out := cmd.String(outputFlag); out != "" {
		if err := os.WriteFile(out, report, 0644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		log.Infof("Wrote %v report to %v", cmd.String(formatFlag), out)
	} else {
		fmt.Println(string(report))
	}

	if !result.Success {
		return fmt.Errorf("verification failed: %v", result.VerdictName)
	}

	return nil
}
