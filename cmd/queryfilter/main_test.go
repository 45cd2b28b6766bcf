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
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rulego/queryfilter/engine"
	"github.com/rulego/queryfilter/utils/json"
)

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	app := newApp()
	var stdout, stderr bytes.Buffer
	app.SetIn(strings.NewReader(stdin))
	app.SetOut(&stdout)
	app.SetErr(&stderr)
	app.SetArgs(args)
	err := app.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRun(t *testing.T) {
	stdout, _, err := execute(t, `{"status":"ok","payload":[{"status":"ok","id":1},{"status":"bad","id":2}]}`,
		"run", "-q", `{ "status": "{{status}}" }`)
	require.NoError(t, err)
	obj, err := json.UnmarshalObject([]byte(strings.TrimSpace(stdout)))
	require.NoError(t, err)
	assert.Len(t, obj["payload"], 1)
}

func TestRunOptions(t *testing.T) {
	dir := t.TempDir()
	queryFile := filepath.Join(dir, "query.yaml")
	msgFile := filepath.Join(dir, "msg.json")
	require.NoError(t, os.WriteFile(queryFile, []byte("region: '{{metadata.region}}'\nage: {$gte: {{global.minAge}}}\n"), 0644))
	require.NoError(t, os.WriteFile(msgFile, []byte(`{"data":{"items":[{"region":"eu","age":20},{"region":"eu","age":10},{"region":"us","age":30}]}}`), 0644))

	stdout, _, err := execute(t, "", "run", "--query-file", queryFile, "--syntax", "yaml",
		"--payload-path", "data.items", "--global", "minAge=18", "--metadata", "region=eu", "--file", msgFile)
	require.NoError(t, err)
	obj, err := json.UnmarshalObject([]byte(strings.TrimSpace(stdout)))
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{
		"items": []interface{}{map[string]interface{}{"region": "eu", "age": 20.0}},
	}, obj["data"])
}

func TestRunNotForwarded(t *testing.T) {
	stdout, stderr, err := execute(t, `{"payload":[{"age":1}]}`, "run", "-q", `{ "age": {{age}} }`)
	assert.Equal(t, engine.ErrNotForwarded, err)
	assert.Equal(t, "", stdout)
	assert.Contains(t, stderr, "level=warning")
	assert.Contains(t, stderr, "not forwarded")

	_, _, err = execute(t, `{"payload":[{"age":1}]}`, "run", "-q", `{ "age": {{age}} }`, "--route-failure")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse: ")
}

func TestRunErrors(t *testing.T) {
	_, _, err := execute(t, `{}`, "run")
	assert.Error(t, err)

	_, _, err = execute(t, `{}`, "run", "-q", "{}", "--query-file", "query.json")
	assert.Error(t, err)

	_, _, err = execute(t, `{}`, "run", "-q", "{}", "--log-format", "xml")
	assert.Error(t, err)

	_, _, err = execute(t, `{}`, "run", "-q", "{}", "--file", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, _, err = execute(t, `{}`, "run", "-q", "{}", "extra")
	assert.Error(t, err)
}
