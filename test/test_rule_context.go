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

package test

import (
	"context"
	"time"

	"github.com/rulego/queryfilter/api/types"
)

var _ types.RuleContext = (*NodeTestRuleContext)(nil)

// Callback receives every message a node tells.
type Callback = func(msg types.RuleMsg, relationType string, err error)

// NodeTestRuleContext 单节点测试上下文
// Told messages go to the callback first, then to the end function if set.
type NodeTestRuleContext struct {
	ctx      context.Context
	config   types.Config
	selfId   string
	callback Callback
	onEnd    types.OnEndFunc
}

func NewRuleContext(config types.Config, callback Callback) types.RuleContext {
	return NewRuleContextWithId(config, "", callback)
}

// NewRuleContextWithId creates a context whose GetSelfId returns selfId.
// A nil callback discards told messages.
func NewRuleContextWithId(config types.Config, selfId string, callback Callback) types.RuleContext {
	if callback == nil {
		callback = func(types.RuleMsg, string, error) {}
	}
	return &NodeTestRuleContext{
		ctx:      context.TODO(),
		config:   config,
		selfId:   selfId,
		callback: callback,
	}
}

func (c *NodeTestRuleContext) TellSuccess(msg types.RuleMsg) {
	c.tell(msg, nil, types.Success)
}

func (c *NodeTestRuleContext) TellFailure(msg types.RuleMsg, err error) {
	c.tell(msg, err, types.Failure)
}

func (c *NodeTestRuleContext) TellNext(msg types.RuleMsg, relationTypes ...string) {
	c.tell(msg, nil, relationTypes...)
}

func (c *NodeTestRuleContext) tell(msg types.RuleMsg, err error, relationTypes ...string) {
	for _, relationType := range relationTypes {
		c.callback(msg, relationType, err)
		if c.onEnd != nil {
			c.onEnd(c, msg, err, relationType)
		}
	}
}

func (c *NodeTestRuleContext) NewMsg(msgType string, metaData types.Metadata, data string) types.RuleMsg {
	return types.NewMsg(time.Now().UnixMilli(), msgType, types.JSON, metaData, data)
}

func (c *NodeTestRuleContext) GetSelfId() string { return c.selfId }

func (c *NodeTestRuleContext) Config() types.Config { return c.config }

func (c *NodeTestRuleContext) GetEndFunc() types.OnEndFunc { return c.onEnd }

func (c *NodeTestRuleContext) GetContext() context.Context { return c.ctx }

func (c *NodeTestRuleContext) SetEndFunc(onEndFunc types.OnEndFunc) types.RuleContext {
	c.onEnd = onEndFunc
	return c
}

func (c *NodeTestRuleContext) SetContext(ctx context.Context) types.RuleContext {
	c.ctx = ctx
	return c
}
