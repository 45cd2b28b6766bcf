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

// Package base provides helpers shared by the node components.
package base

import (
	"fmt"

	"github.com/rulego/queryfilter/api/types"
	"github.com/rulego/queryfilter/utils/json"
)

var NodeUtils = &nodeUtils{}

type nodeUtils struct {
}

// GetMsgObject decodes the message data into the message object.
// The message must be a JSON message carrying an object. Numbers are kept
// as json.Number.
func (n *nodeUtils) GetMsgObject(msg types.RuleMsg) (map[string]interface{}, error) {
	if !msg.IsJSON() {
		return nil, fmt.Errorf("%w: dataType=%s", types.ErrNotJsonObject, msg.DataType)
	}
	obj, err := json.UnmarshalObjectUseNumber([]byte(msg.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrNotJsonObject, err)
	}
	return obj, nil
}

// GetEvn 获取模板变量环境
// The environment is the message object itself, plus `metadata`, `msgType`,
// `id`, `ts` and `global` when the object does not define them. obj is not
// modified.
func (n *nodeUtils) GetEvn(ctx types.RuleContext, msg types.RuleMsg, obj map[string]interface{}) map[string]interface{} {
	evn := make(map[string]interface{}, len(obj)+5)
	for k, v := range obj {
		evn[k] = v
	}
	putIfAbsent(evn, types.MetadataKey, map[string]string(msg.Metadata))
	putIfAbsent(evn, types.MsgTypeKey, msg.Type)
	putIfAbsent(evn, types.IdKey, msg.Id)
	putIfAbsent(evn, types.TsKey, msg.Ts)
	if ctx != nil {
		putIfAbsent(evn, types.GlobalKey, map[string]string(ctx.Config().Properties))
	}
	return evn
}

func putIfAbsent(evn map[string]interface{}, key string, value interface{}) {
	if _, ok := evn[key]; !ok {
		evn[key] = value
	}
}
