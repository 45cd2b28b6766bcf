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

package engine

import (
	"context"
	"time"

	"github.com/rulego/queryfilter/api/types"
)

var _ types.RuleContext = (*DefaultRuleContext)(nil)

// DefaultRuleContext is the context of one message executed on a node.
// There are no downstream nodes: every told relation goes to the end
// function.
type DefaultRuleContext struct {
	ctx    context.Context
	config types.Config
	selfId string
	onEnd  types.OnEndFunc
}

// NewRuleContext creates a context for executing the node selfId.
func NewRuleContext(ctx context.Context, config types.Config, selfId string) *DefaultRuleContext {
	if ctx == nil {
		ctx = context.Background()
	}
	return &DefaultRuleContext{ctx: ctx, config: config, selfId: selfId}
}

func (c *DefaultRuleContext) TellSuccess(msg types.RuleMsg) {
	c.tell(msg, nil, types.Success)
}

func (c *DefaultRuleContext) TellFailure(msg types.RuleMsg, err error) {
	c.tell(msg, err, types.Failure)
}

func (c *DefaultRuleContext) TellNext(msg types.RuleMsg, relationTypes ...string) {
	c.tell(msg, nil, relationTypes...)
}

func (c *DefaultRuleContext) tell(msg types.RuleMsg, err error, relationTypes ...string) {
	onEnd := c.onEnd
	if onEnd == nil {
		return
	}
	for _, relationType := range relationTypes {
		onEnd(c, msg, err, relationType)
	}
}

// NewMsg creates a JSON message.
func (c *DefaultRuleContext) NewMsg(msgType string, metaData types.Metadata, data string) types.RuleMsg {
	return types.NewMsg(time.Now().UnixMilli(), msgType, types.JSON, metaData, data)
}

func (c *DefaultRuleContext) GetSelfId() string { return c.selfId }

func (c *DefaultRuleContext) Config() types.Config { return c.config }

func (c *DefaultRuleContext) GetEndFunc() types.OnEndFunc { return c.onEnd }

func (c *DefaultRuleContext) GetContext() context.Context { return c.ctx }

func (c *DefaultRuleContext) SetEndFunc(onEndFunc types.OnEndFunc) types.RuleContext {
	c.onEnd = onEndFunc
	return c
}

func (c *DefaultRuleContext) SetContext(ctx context.Context) types.RuleContext {
	c.ctx = ctx
	return c
}
