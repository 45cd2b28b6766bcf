/*
 * Copyright 2024 The RuleGo Authors.
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

// Package engine hosts a single node component and drives it with messages.
//
// Package engine 提供单节点的执行环境。
//
// Key Components:
//   - RuleEngine: owns one initialized node and executes messages on it
//   - DefaultRuleContext: the context handed to the node for one message
//   - RuleComponentRegistry: the registry nodes are created from
//
// A node reports its outcome through the context (TellSuccess, TellFailure,
// TellNext). Execute turns that into a Result; a node that tells nothing has
// dropped the message.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rulego/queryfilter/api/types"
)

var (
	// ErrStopped is returned for messages sent to a stopped engine.
	ErrStopped = errors.New("the rule engine has been stopped")
	// ErrNotForwarded is the error of a Result whose message the node dropped.
	ErrNotForwarded = errors.New("message not forwarded")
)

// Result is the outcome of executing one message on a node.
type Result struct {
	// Msg is the message the node told, or the input message if it told nothing.
	Msg types.RuleMsg
	// RelationType is the relation the node told, empty when not forwarded.
	RelationType string
	// Err is the error told with the message, or the execution error.
	Err error
	// Forwarded reports whether the node told the message to any relation.
	Forwarded bool
}

// Success reports whether the message was forwarded on the `Success` relation.
func (r Result) Success() bool {
	return r.Forwarded && r.RelationType == types.Success
}

// Execute runs msg through node synchronously.
// Only the first relation the node tells is reported. A panic in the node is
// recovered and returned as the Result error.
func Execute(ctx context.Context, config types.Config, nodeId string, node types.Node, msg types.RuleMsg) (result Result) {
	result.Msg = msg
	if node == nil {
		result.Err = types.ErrNodeNil
		return result
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		result.Err = err
		return result
	}
	defer func() {
		if e := recover(); e != nil {
			result = Result{Msg: msg, Err: fmt.Errorf("node %s(%s) panic: %v", node.Type(), nodeId, e)}
		}
	}()
	ruleCtx := NewRuleContext(ctx, config, nodeId)
	ruleCtx.SetEndFunc(func(_ types.RuleContext, out types.RuleMsg, err error, relationType string) {
		if result.Forwarded {
			return
		}
		result = Result{Msg: out, RelationType: relationType, Err: err, Forwarded: true}
	})
	node.OnMsg(ruleCtx, msg)
	return result
}

// RuleEngineOption 规则引擎配置项
type RuleEngineOption func(*RuleEngine) error

// WithConfig is an option that sets the Config of the RuleEngine.
func WithConfig(config types.Config) RuleEngineOption {
	return func(e *RuleEngine) error {
		e.Config = config
		return nil
	}
}

// NewConfig creates a new Config using the default component registry.
func NewConfig(opts ...types.Option) types.Config {
	c := types.NewConfig(opts...)
	if c.ComponentsRegistry == nil {
		c.ComponentsRegistry = Registry
	}
	return c
}

// RuleEngine 单节点规则引擎
type RuleEngine struct {
	// Config is the configuration shared with the node.
	Config   types.Config
	id       string
	nodeType string
	node     types.Node
	stopped  bool
	lock     sync.RWMutex
}

// NewRuleEngine creates the node nodeType from the configured registry and
// initializes it with configuration.
func NewRuleEngine(id string, nodeType string, configuration types.Configuration, opts ...RuleEngineOption) (*RuleEngine, error) {
	e := &RuleEngine{
		id:       id,
		nodeType: nodeType,
		Config:   NewConfig(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	if e.Config.ComponentsRegistry == nil {
		e.Config.ComponentsRegistry = Registry
	}
	node, err := e.newNode(configuration)
	if err != nil {
		return nil, err
	}
	e.node = node
	return e, nil
}

func (e *RuleEngine) newNode(configuration types.Configuration) (types.Node, error) {
	node, err := e.Config.ComponentsRegistry.NewNode(e.nodeType)
	if err != nil {
		return nil, err
	}
	if err = node.Init(e.Config, configuration); err != nil {
		return nil, fmt.Errorf("init node %s(%s) error: %w", e.nodeType, e.id, err)
	}
	return node, nil
}

// Id returns the id of the hosted node.
func (e *RuleEngine) Id() string {
	return e.id
}

// NodeType returns the component type of the hosted node.
func (e *RuleEngine) NodeType() string {
	return e.nodeType
}

// Reload replaces the node with a new instance initialized with configuration.
// On error the current node is kept.
func (e *RuleEngine) Reload(configuration types.Configuration) error {
	node, err := e.newNode(configuration)
	if err != nil {
		return err
	}
	e.lock.Lock()
	old := e.node
	e.node = node
	e.stopped = false
	e.lock.Unlock()
	if old != nil {
		old.Destroy()
	}
	return nil
}

// OnMsg executes msg on the node and waits for the result.
func (e *RuleEngine) OnMsg(ctx context.Context, msg types.RuleMsg) Result {
	e.lock.RLock()
	defer e.lock.RUnlock()
	if e.stopped {
		return Result{Msg: msg, Err: ErrStopped}
	}
	return Execute(ctx, e.Config, e.id, e.node, msg)
}

// Stop destroys the node. Later messages fail with ErrStopped.
func (e *RuleEngine) Stop() {
	e.lock.Lock()
	defer e.lock.Unlock()
	if e.stopped {
		return
	}
	e.stopped = true
	if e.node != nil {
		e.node.Destroy()
	}
}
