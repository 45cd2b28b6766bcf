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

// Package test holds helpers for testing single node components.
package test

import (
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/rulego/queryfilter/api/types"
	reflect2 "github.com/rulego/queryfilter/utils/reflect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// CreateAndInitNode 创建并初始化一个节点实例
func CreateAndInitNode(targetNodeType string, initConfig types.Configuration, registry *types.SafeComponentSlice) (types.Node, error) {
	return CreateAndInitNodeWithConfig(types.NewConfig(), targetNodeType, initConfig, registry)
}

// CreateAndInitNodeWithConfig 使用指定的引擎配置创建并初始化一个节点实例
func CreateAndInitNodeWithConfig(config types.Config, targetNodeType string, initConfig types.Configuration, registry *types.SafeComponentSlice) (types.Node, error) {
	nodeFactory, ok := registry.Get(targetNodeType)
	if !ok {
		return nil, types.ErrComponentNotFound
	}
	node := nodeFactory.New()
	err := node.Init(config, initConfig)
	return node, err
}

// NodeNew 测试创建节点实例，并检查默认配置
func NodeNew(t *testing.T, targetNodeType string, targetNode types.Node, defaultConfig types.Configuration, registry *types.SafeComponentSlice) {
	nodeFactory, ok := registry.Get(targetNode.Type())
	require.True(t, ok)
	assert.Equal(t, targetNodeType, nodeFactory.Type())

	node := nodeFactory.New()
	assert.Equal(t, reflect.TypeOf(targetNode), reflect.TypeOf(node))
	assertFields(t, node, defaultConfig)
}

// NodeInit 测试初始化，并检查初始化后的配置
func NodeInit(t *testing.T, targetNodeType string, initConfig types.Configuration, expected types.Configuration, registry *types.SafeComponentSlice) {
	node, err := CreateAndInitNode(targetNodeType, initConfig, registry)
	require.Nil(t, err)
	assertFields(t, node, expected)
}

func assertFields(t *testing.T, node types.Node, expected types.Configuration) {
	fields := reflect2.GetComponentForm(node).Fields
	for k, v := range expected {
		field, ok := fields.GetField(k)
		if assert.True(t, ok, k) {
			assert.Equal(t, v, field.DefaultValue, k)
		}
	}
}

type Msg struct {
	MetaData types.Metadata
	DataType types.DataType
	MsgType  string
	Data     string
}

// NodeOnMsg 发送消息
// Messages are handled one after another on the calling goroutine.
func NodeOnMsg(t *testing.T, node types.Node, msgList []Msg, callback func(msg types.RuleMsg, relationType string, err error)) {
	NodeOnMsgWithConfig(t, types.NewConfig(), node, msgList, callback)
}

// NodeOnMsgWithConfig 使用指定的引擎配置发送消息
func NodeOnMsgWithConfig(t *testing.T, config types.Config, node types.Node, msgList []Msg, callback func(msg types.RuleMsg, relationType string, err error)) {
	ctx := NewRuleContextWithId(config, node.Type(), callback)
	for _, item := range msgList {
		msg := ctx.NewMsg(item.MsgType, item.MetaData, item.Data)
		if item.DataType != "" {
			msg.DataType = item.DataType
		}
		node.OnMsg(ctx, msg)
	}
}

// Recorder collects the messages a node forwarded and the warnings it logged.
type Recorder struct {
	mu        sync.Mutex
	Relations []string
	Msgs      []types.RuleMsg
	Errs      []error
	Warnings  []string
}

// Callback records one forwarded message.
func (r *Recorder) Callback(msg types.RuleMsg, relationType string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Relations = append(r.Relations, relationType)
	r.Msgs = append(r.Msgs, msg)
	r.Errs = append(r.Errs, err)
}

// Logger returns a logger that records every line.
func (r *Recorder) Logger() types.Logger {
	return types.LoggerFunc(func(format string, v ...interface{}) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.Warnings = append(r.Warnings, fmt.Sprintf(format, v...))
	})
}

// Config returns an engine config logging into the recorder.
func (r *Recorder) Config(opts ...types.Option) types.Config {
	return types.NewConfig(append([]types.Option{types.WithLogger(r.Logger())}, opts...)...)
}
