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

package types

import (
	"context"
)

// Relation types a node can tell.
const (
	Success = "Success"
	Failure = "Failure"
)

// OnEndFunc receives every message a node tells, with the relation it was
// told on. err is set for `Failure`.
type OnEndFunc = func(ctx RuleContext, msg RuleMsg, err error, relationType string)

// Configuration is the raw node configuration, decoded by the node in Init.
type Configuration map[string]interface{}

// ComponentRegistry creates nodes by type.
type ComponentRegistry interface {
	// Register 注册组件，类型重复返回 ErrComponentExists
	Register(node Node) error
	Unregister(componentType string) error
	// NewNode 创建nodeType的未初始化实例
	NewNode(nodeType string) (Node, error)
	GetComponents() map[string]Node
}

// Node is a message processing component.
// The host creates an instance with New, calls Init once with the node
// configuration and then OnMsg for every message. OnMsg may be called
// concurrently. Destroy is called once the instance is no longer used.
type Node interface {
	// New returns a new instance carrying the default configuration.
	New() Node
	// Type is the unique component type.
	Type() string
	Init(ruleConfig Config, configuration Configuration) error
	// OnMsg handles msg and reports the outcome through ctx.
	// Telling nothing drops the message.
	OnMsg(ctx RuleContext, msg RuleMsg)
	Destroy()
}

// RuleContext is the per-message context handed to Node.OnMsg.
type RuleContext interface {
	// TellSuccess forwards msg on the `Success` relation.
	TellSuccess(msg RuleMsg)
	// TellFailure forwards msg on the `Failure` relation with err.
	TellFailure(msg RuleMsg, err error)
	// TellNext forwards msg on each of relationTypes.
	TellNext(msg RuleMsg, relationTypes ...string)
	NewMsg(msgType string, metaData Metadata, data string) RuleMsg
	// GetSelfId 当前节点ID
	GetSelfId() string
	Config() Config
	SetEndFunc(f OnEndFunc) RuleContext
	GetEndFunc() OnEndFunc
	SetContext(c context.Context) RuleContext
	GetContext() context.Context
}
