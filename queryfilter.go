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

// Package queryfilter filters the payload collection of messages with a
// mustache templated query.
//
// # Usage
//
// Create an engine hosting a queryFilter node:
//
//	ruleEngine, err := queryfilter.New("filter01", filter.QueryFilterNodeType, types.Configuration{
//		"query": `{ "status": "{{status}}", "age": { "$gte": {{metadata.minAge}} } }`,
//	})
//
// Process a message. Elements of msg.payload that do not match are removed:
//
//	metaData := types.NewMetadata()
//	metaData.PutValue("minAge", "18")
//	msg := types.NewMsg(0, "TELEMETRY_MSG", types.JSON, metaData, `{"status":"ok","payload":[{"status":"ok","age":20}]}`)
//	result := ruleEngine.OnMsg(context.Background(), msg)
//
// Load all node definitions of a folder:
//
//	err := queryfilter.Load("./filters")
//
// Get engine instance
//
//	ruleEngine, ok := queryfilter.Get("filter01")
package queryfilter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/rulego/queryfilter/api/types"
	"github.com/rulego/queryfilter/components/filter"
	"github.com/rulego/queryfilter/engine"
	"github.com/rulego/queryfilter/utils/fs"
	"github.com/rulego/queryfilter/utils/json"
)

// DefinitionPatterns are the file names Load reads.
var DefinitionPatterns = []string{"*.json", "*.yaml", "*.yml"}

// Registry is the default component registry.
var Registry = engine.Registry

var DefaultPool = &Pool{}

// Definition is a node definition file.
type Definition struct {
	// Id 为空时使用文件名
	Id string `json:"id" yaml:"id"`
	// Type 为空时使用queryFilter
	Type          string              `json:"type" yaml:"type"`
	Configuration types.Configuration `json:"configuration" yaml:"configuration"`
}

// ParseDefinition parses a json or yaml node definition. The format follows
// the extension of path.
func ParseDefinition(path string, data []byte) (Definition, error) {
	var def Definition
	var err error
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &def)
	default:
		err = json.Unmarshal(data, &def)
	}
	if err != nil {
		return def, fmt.Errorf("%s: %w", path, err)
	}
	if def.Id == "" {
		def.Id = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if def.Type == "" {
		def.Type = filter.QueryFilterNodeType
	}
	return def, nil
}

// Pool 规则引擎实例池
type Pool struct {
	ruleEngines sync.Map
}

// Load 加载指定文件夹及其子文件夹所有节点定义文件到规则引擎实例池
func (p *Pool) Load(folderPath string, opts ...engine.RuleEngineOption) error {
	paths, err := fs.GetFilePaths(folderPath, DefinitionPatterns)
	if err != nil {
		return err
	}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		def, err := ParseDefinition(path, data)
		if err != nil {
			return err
		}
		if _, err = p.New(def.Id, def.Type, def.Configuration, opts...); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

// New 创建一个新的RuleEngine并将其存储在实例池中
// 如果id已经存在，则返回已存在的实例
func (p *Pool) New(id string, nodeType string, configuration types.Configuration, opts ...engine.RuleEngineOption) (*engine.RuleEngine, error) {
	if v, ok := p.ruleEngines.Load(id); ok {
		return v.(*engine.RuleEngine), nil
	}
	ruleEngine, err := engine.NewRuleEngine(id, nodeType, configuration, opts...)
	if err != nil {
		return nil, err
	}
	if actual, loaded := p.ruleEngines.LoadOrStore(id, ruleEngine); loaded {
		ruleEngine.Stop()
		return actual.(*engine.RuleEngine), nil
	}
	return ruleEngine, nil
}

// Get 获取指定ID规则引擎实例
func (p *Pool) Get(id string) (*engine.RuleEngine, bool) {
	v, ok := p.ruleEngines.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*engine.RuleEngine), true
}

// Del 删除指定ID规则引擎实例
func (p *Pool) Del(id string) {
	if v, ok := p.ruleEngines.LoadAndDelete(id); ok {
		v.(*engine.RuleEngine).Stop()
	}
}

// Range 遍历所有规则引擎实例
func (p *Pool) Range(f func(id string, ruleEngine *engine.RuleEngine) bool) {
	p.ruleEngines.Range(func(key, value any) bool {
		return f(key.(string), value.(*engine.RuleEngine))
	})
}

// Stop 释放所有规则引擎实例
func (p *Pool) Stop() {
	p.ruleEngines.Range(func(key, value any) bool {
		value.(*engine.RuleEngine).Stop()
		p.ruleEngines.Delete(key)
		return true
	})
}

// OnMsg 调用所有规则引擎实例处理消息，返回每个实例的处理结果
func (p *Pool) OnMsg(ctx context.Context, msg types.RuleMsg) map[string]engine.Result {
	results := make(map[string]engine.Result)
	p.Range(func(id string, ruleEngine *engine.RuleEngine) bool {
		// 每个实例处理消息副本
		results[id] = ruleEngine.OnMsg(ctx, msg.Copy())
		return true
	})
	return results
}

// Load 加载指定文件夹及其子文件夹所有节点定义文件
func Load(folderPath string, opts ...engine.RuleEngineOption) error {
	return DefaultPool.Load(folderPath, opts...)
}

// New 创建一个新的RuleEngine并将其存储在默认实例池中
func New(id string, nodeType string, configuration types.Configuration, opts ...engine.RuleEngineOption) (*engine.RuleEngine, error) {
	return DefaultPool.New(id, nodeType, configuration, opts...)
}

// Get 获取指定ID规则引擎实例
func Get(id string) (*engine.RuleEngine, bool) {
	return DefaultPool.Get(id)
}

// Del 删除指定ID规则引擎实例
func Del(id string) {
	DefaultPool.Del(id)
}

// Stop 释放所有规则引擎实例
func Stop() {
	DefaultPool.Stop()
}

// OnMsg 调用所有规则引擎实例处理消息
func OnMsg(ctx context.Context, msg types.RuleMsg) map[string]engine.Result {
	return DefaultPool.OnMsg(ctx, msg)
}
