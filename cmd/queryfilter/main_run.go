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
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rulego/queryfilter/api/types"
	"github.com/rulego/queryfilter/engine"
)

type cmdRun struct {
	global *cmdGlobal

	flagFile     string
	flagMsgType  string
	flagMetadata map[string]string
}

func (c *cmdRun) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "run [flags]"
	cmd.Short = "Filter one message"
	cmd.Long = `Description:
  Filter one message

  The message data is read from --file, or from stdin, and must be a JSON
  object. The filtered message data is written to stdout.
`
	cmd.Example = `  queryfilter run -q '{ "status": "{{status}}" }' --file msg.json`
	cmd.Args = cobra.NoArgs
	cmd.RunE = c.Run
	cmd.Flags().StringVarP(&c.flagFile, "file", "f", "", "Read the message data from a file")
	cmd.Flags().StringVar(&c.flagMsgType, "msg-type", "DEFAULT", "Message type")
	cmd.Flags().StringToStringVar(&c.flagMetadata, "metadata", nil, "Message metadata")

	return cmd
}

func (c *cmdRun) Run(cmd *cobra.Command, args []string) error {
	ruleEngine, err := c.global.newRuleEngine("cli")
	if err != nil {
		return err
	}
	defer ruleEngine.Stop()

	var data []byte
	if c.flagFile != "" {
		data, err = os.ReadFile(c.flagFile)
	} else {
		data, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return err
	}

	msg := types.NewMsg(time.Now().UnixMilli(), c.flagMsgType, types.JSON, types.BuildMetadata(c.flagMetadata), string(data))
	result := ruleEngine.OnMsg(cmd.Context(), msg)
	if result.Err != nil {
		return result.Err
	}
	if !result.Success() {
		return engine.ErrNotForwarded
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), result.Msg.Data)
	return err
}
