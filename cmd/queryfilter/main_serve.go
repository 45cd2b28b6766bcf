/*
 * Copyright 2025 The RuleGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rulego/queryfilter/endpoint/rest"
)

type cmdServe struct {
	global *cmdGlobal

	flagAddr        string
	flagCertFile    string
	flagCertKeyFile string
	flagTimeout     time.Duration
}

func (c *cmdServe) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "serve [flags]"
	cmd.Short = "Serve the node over HTTP"
	cmd.Long = `Description:
  Serve the node over HTTP

  POST /api/v1/msg/:msgType filters the request body. Prometheus metrics are
  served on /metrics.
`
	cmd.Args = cobra.NoArgs
	cmd.RunE = c.Run
	cmd.Flags().StringVar(&c.flagAddr, "addr", ":9090", "Listen address")
	cmd.Flags().StringVar(&c.flagCertFile, "cert", "", "TLS certificate file")
	cmd.Flags().StringVar(&c.flagCertKeyFile, "key", "", "TLS key file")
	cmd.Flags().DurationVar(&c.flagTimeout, "shutdown-timeout", 10*time.Second, "Graceful shutdown timeout")

	return cmd
}

func (c *cmdServe) Run(cmd *cobra.Command, args []string) error {
	ruleEngine, err := c.global.newRuleEngine("rest")
	if err != nil {
		return err
	}
	defer ruleEngine.Stop()

	restEndpoint := rest.New(rest.Config{
		Addr:        c.flagAddr,
		CertFile:    c.flagCertFile,
		CertKeyFile: c.flagCertKeyFile,
	}, ruleEngine)

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- restEndpoint.Start()
	}()

	select {
	case err = <-errCh:
		return err
	case <-ctx.Done():
	}

	c.global.logger.Info("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), c.flagTimeout)
	defer shutdownCancel()
	if err = restEndpoint.Stop(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
