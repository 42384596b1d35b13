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
	"strings"

	"golang.org/x/exp/maps"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
)

var (
	logLevels = map[string]logrus.Level{
		"panic": logrus.PanicLevel,
		"fatal": logrus.FatalLevel,
		"error": logrus.ErrorLevel,
		"warn":  logrus.WarnLevel,
		"info":  logrus.InfoLevel,
		"debug": logrus.DebugLevel,
		"trace": logrus.TraceLevel,
	}

	log = logrus.WithField("service", "qvlctl")
)

const (
	logLevelFlag = "log-level"
)

func main() {

	cmd := &cli.Command{
		Name:  "qvlctl",
		Usage: "Verify Intel SGX DCAP attestation evidence",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  logLevelFlag,
				Usage: fmt.Sprintf("Set log level (%v)", strings.Join(maps.Keys(logLevels), ",")),
				Value: "info",
			},
		},
		Commands: []*cli.Command{
			verifyCommand(),
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			l, ok := logLevels[strings.ToLower(cmd.String(logLevelFlag))]
			if !ok {
				log.Warnf("LogLevel %v does not exist. Default to info level", cmd.String(logLevelFlag))
				l = logrus.InfoLevel
			}
			logrus.SetLevel(l)
			return ctx, nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatalf("%v", err)
	}
}
