/*
 * Copyright 2023 The RuleGo Authors.
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

package queryfilter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rulego/queryfilter/api/types"
	"github.com/rulego/queryfilter/components/filter"
	"github.com/rulego/queryfilter/engine"
	"github.com/rulego/queryfilter/utils/json"
)

func TestDefaultPool(t *testing.T) {
	defer Stop()
	ruleEngine, err := New("aa", filter.QueryFilterNodeType, types.Configuration{"query": `{ "on": true }`})
	require.NoError(t, err)

	again, err := New("aa", filter.QueryFilterNodeType, types.Configuration{"query": `{ "on": false }`})
	require.NoError(t, err)
	assert.Same(t, ruleEngine, again)

	_, ok := Get("aa")
	assert.True(t, ok)

	results := OnMsg(context.Background(), types.NewMsg(0, "TEST", types.JSON, types.NewMetadata(), `{"payload":[{"on":true},{"on":false}]}`))
	require.Contains(t, results, "aa")
	require.True(t, results["aa"].Success())
	obj, err := json.UnmarshalObject([]byte(results["aa"].Msg.Data))
	require.NoError(t, err)
	assert.Equal(t, []interface{}{map[string]interface{}{"on": true}}, obj["payload"])

	Del("aa")
	_, ok = Get("aa")
	assert.False(t, ok)
	assert.Equal(t, engine.ErrStopped, ruleEngine.OnMsg(context.Background(), types.NewMsg(0, "TEST", types.JSON, nil, `{}`)).Err)

	_, err = New("bb", filter.QueryFilterNodeType, types.Configuration{})
	assert.ErrorIs(t, err, filter.ErrQueryEmpty)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "status.json"),
		[]byte(`{"configuration":{"query":"{ \"status\": \"{{status}}\" }"}}`), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "adults.yaml"),
		[]byte("id: adults\ntype: queryFilter\nconfiguration:\n  syntax: yaml\n  query: 'age: {$gte: 18}'\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("ignored"), 0644))

	pool := &Pool{}
	defer pool.Stop()
	require.NoError(t, pool.Load(dir))

	var ids []string
	pool.Range(func(id string, ruleEngine *engine.RuleEngine) bool {
		assert.Equal(t, filter.QueryFilterNodeType, ruleEngine.NodeType())
		ids = append(ids, id)
		return true
	})
	assert.ElementsMatch(t, []string{"status", "adults"}, ids)

	results := pool.OnMsg(context.Background(), types.NewMsg(0, "TEST", types.JSON, types.NewMetadata(),
		`{"status":"ok","payload":[{"status":"ok","age":10},{"status":"bad","age":20}]}`))
	assert.Equal(t, `{"payload":[{"age":10,"status":"ok"}],"status":"ok"}`, results["status"].Msg.Data)
	assert.Equal(t, `{"payload":[{"age":20,"status":"bad"}],"status":"ok"}`, results["adults"].Msg.Data)
}

func TestLoadErrors(t *testing.T) {
	pool := &Pool{}
	assert.Error(t, pool.Load(filepath.Join(t.TempDir(), "missing")))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`{`), 0644))
	assert.Error(t, pool.Load(dir))

	dir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.yml"), []byte("configuration: {}\n"), 0644))
	err := pool.Load(dir)
	assert.ErrorIs(t, err, filter.ErrQueryEmpty)
}

func TestParseDefinition(t *testing.T) {
	def, err := ParseDefinition("filters/adults.YML", []byte("configuration:\n  query: '{}'\n"))
	require.NoError(t, err)
	assert.Equal(t, "adults", def.Id)
	assert.Equal(t, filter.QueryFilterNodeType, def.Type)
	assert.Equal(t, "{}", def.Configuration["query"])
}
