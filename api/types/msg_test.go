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
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewMsg(t *testing.T) {
	msg := NewMsg(0, "TEST", JSON, nil, `{"payload":[]}`)
	assert.NotEqual(t, "", msg.Id)
	assert.True(t, msg.Ts > 0)
	assert.Equal(t, "TEST", msg.Type)
	assert.Equal(t, JSON, msg.DataType)
	assert.NotNil(t, msg.Metadata)

	other := NewMsg(0, "TEST", JSON, nil, "")
	assert.NotEqual(t, msg.Id, other.Id)

	msg = NewMsg(1719024872741, "TEST", TEXT, nil, "aa")
	assert.Equal(t, int64(1719024872741), msg.Ts)
}

func TestMsgCopy(t *testing.T) {
	metadata := NewMetadata()
	metadata.PutValue("productType", "test")
	msg := NewMsg(0, "TEST", JSON, metadata, `{"payload":[]}`)

	copyMsg := msg.Copy()
	assert.Equal(t, msg.Id, copyMsg.Id)
	assert.Equal(t, msg.Ts, copyMsg.Ts)
	assert.Equal(t, msg.Data, copyMsg.Data)

	copyMsg.Metadata.PutValue("productType", "changed")
	assert.Equal(t, "test", msg.Metadata.GetValue("productType"))
	assert.Equal(t, "changed", copyMsg.Metadata.GetValue("productType"))
}

func TestMetadata(t *testing.T) {
	source := map[string]string{"a": "1"}
	md := BuildMetadata(source)
	md.PutValue("", "ignored")
	md.PutValue("b", "2")
	assert.Equal(t, Metadata{"a": "1", "b": "2"}, md)
	assert.Equal(t, map[string]string{"a": "1"}, source)
	assert.Equal(t, "", md.GetValue("c"))
}

func TestIsJSON(t *testing.T) {
	msg := NewMsg(0, "TEST", JSON, nil, "{}")
	assert.True(t, msg.IsJSON())
	msg.DataType = TEXT
	assert.False(t, msg.IsJSON())
}

func TestConfigOptions(t *testing.T) {
	var lines []string
	config := NewConfig(
		WithLogger(LoggerFunc(func(format string, v ...interface{}) {
			lines = append(lines, fmt.Sprintf(format, v...))
		})),
		WithProperties(Metadata{"threshold": "18"}),
	)
	config.Logger.Printf("warn %d", 1)
	assert.Equal(t, []string{"warn 1"}, lines)
	assert.Equal(t, "18", config.Properties.GetValue("threshold"))

	config = NewConfig(WithLogger(nil))
	assert.NotNil(t, config.Logger)
}
