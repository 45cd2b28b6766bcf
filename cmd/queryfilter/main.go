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

// Command queryfilter runs the queryFilter node from the command line or as
// an HTTP endpoint.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rulego/queryfilter/api/types"
	"github.com/rulego/queryfilter/components/filter"
	"github.com/rulego/queryfilter/engine"
)

type cmdGlobal struct {
	flagQuery        string
	flagQueryFile    string
	flagSyntax       string
	flagPayloadPath  string
	flagAllowExpr    bool
	flagRouteFailure bool
	flagProperties   map[string]string
	flagCacheSize    int
	flagVerbose      bool
	flagLogFormat    string

	logger *logrus.Logger
}

func main() {
	if err := newApp().Execute(); err != nil {
		os.Exit(1)
	}
}

func newApp() *cobra.Command {
	globalCmd := &cmdGlobal{logger: logrus.New()}

	app := &cobra.Command{}
	app.Use = "queryfilter"
	app.Short = "Filter message payloads with a templated query"
	app.Long = `Description:
  Filter message payloads with a templated query

  The query is a mustache template rendered against the message. The result
  is parsed as a query document and the elements of the message payload that
  match it are kept.
`
	app.SilenceUsage = true
	app.PersistentPreRunE = globalCmd.PreRun

	app.PersistentFlags().StringVarP(&globalCmd.flagQuery, "query", "q", "", "Query template")
	app.PersistentFlags().StringVar(&globalCmd.flagQueryFile, "query-file", "", "Read the query template from a file")
	app.PersistentFlags().StringVar(&globalCmd.flagSyntax, "syntax", "json", "Query syntax (json or yaml)")
	app.PersistentFlags().StringVar(&globalCmd.flagPayloadPath, "payload-path", filter.DefaultPayloadPath, "Path of the collection in the message")
	app.PersistentFlags().BoolVar(&globalCmd.flagAllowExpr, "allow-expr", false, "Enable the $expr operator")
	app.PersistentFlags().BoolVar(&globalCmd.flagRouteFailure, "route-failure", false, "Report failed messages as errors instead of dropping them")
	app.PersistentFlags().IntVar(&globalCmd.flagCacheSize, "cache-size", 0, "Number of parsed queries to cache")
	app.PersistentFlags().StringToStringVar(&globalCmd.flagProperties, "global", nil, "Global properties available to the template as {{global.key}}")
	app.PersistentFlags().BoolVarP(&globalCmd.flagVerbose, "verbose", "v", false, "Show all debug messages")
	app.PersistentFlags().StringVar(&globalCmd.flagLogFormat, "log-format", "text", "Log format (text or json)")

	runCmd := cmdRun{global: globalCmd}
	app.AddCommand(runCmd.Command())

	serveCmd := cmdServe{global: globalCmd}
	app.AddCommand(serveCmd.Command())

	return app
}

// PreRun sets up the logger.
func (c *cmdGlobal) PreRun(cmd *cobra.Command, args []string) error {
	c.logger.SetOutput(cmd.ErrOrStderr())
	switch c.flagLogFormat {
	case "json":
		c.logger.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		c.logger.SetFormatter(&logrus.TextFormatter{})
	default:
		return fmt.Errorf("Invalid log format %q", c.flagLogFormat)
	}
	if c.flagVerbose {
		c.logger.SetLevel(logrus.DebugLevel)
	} else {
		c.logger.SetLevel(logrus.InfoLevel)
	}
	return nil
}

// Printf logs node diagnostics. Lines tagged [WARN] are logged as warnings.
func (c *cmdGlobal) Printf(format string, v ...interface{}) {
	if strings.HasPrefix(format, "[WARN] ") {
		c.logger.Warnf(strings.TrimPrefix(format, "[WARN] "), v...)
		return
	}
	c.logger.Infof(format, v...)
}

func (c *cmdGlobal) configuration() (types.Configuration, error) {
	query := c.flagQuery
	if c.flagQueryFile != "" {
		if query != "" {
			return nil, errors.New("--query and --query-file can't be used together")
		}
		content, err := os.ReadFile(c.flagQueryFile)
		if err != nil {
			return nil, err
		}
		query = string(content)
	}
	return types.Configuration{
		"query":        query,
		"syntax":       c.flagSyntax,
		"payloadPath":  c.flagPayloadPath,
		"allowExpr":    c.flagAllowExpr,
		"routeFailure": c.flagRouteFailure,
		"cacheSize":    c.flagCacheSize,
	}, nil
}

func (c *cmdGlobal) newRuleEngine(id string) (*engine.RuleEngine, error) {
	configuration, err := c.configuration()
	if err != nil {
		return nil, err
	}
	config := engine.NewConfig(types.WithLogger(c), types.WithProperties(c.flagProperties))
	c.logger.WithFields(logrus.Fields{"id": id, "syntax": c.flagSyntax, "payloadPath": c.flagPayloadPath}).Debug("Creating node")
	return engine.NewRuleEngine(id, filter.QueryFilterNodeType, configuration, engine.WithConfig(config))
}
