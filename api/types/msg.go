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
	"time"

	"github.com/gofrs/uuid/v5"
)

// DataType is the encoding of RuleMsg.Data.
type DataType string

const (
	JSON   = DataType("JSON")
	TEXT   = DataType("TEXT")
	BINARY = DataType("BINARY")
)

// Keys added to the template environment of a message.
const (
	IdKey       = "id"
	TsKey       = "ts"
	MetadataKey = "metadata"
	MsgTypeKey  = "msgType"
	GlobalKey   = "global"
)

// Metadata holds the string attributes travelling with a message.
// Templates see it as the `metadata` variable.
type Metadata map[string]string

func NewMetadata() Metadata {
	return make(Metadata)
}

// BuildMetadata 复制data创建元数据
func BuildMetadata(data map[string]string) Metadata {
	metadata := make(Metadata, len(data))
	for k, v := range data {
		metadata[k] = v
	}
	return metadata
}

func (md Metadata) Copy() Metadata {
	return BuildMetadata(md)
}

func (md Metadata) GetValue(key string) string {
	return md[key]
}

// PutValue sets key. Empty keys are ignored.
func (md Metadata) PutValue(key, value string) {
	if key == "" {
		return
	}
	md[key] = value
}

// RuleMsg is the message a node receives.
// For JSON messages Data holds the encoded message object whose attributes,
// payload included, the filter node operates on.
type RuleMsg struct {
	// Id 消息ID，在整个处理过程中唯一
	Id string `json:"id"`
	// Ts 毫秒时间戳
	Ts       int64    `json:"ts"`
	Type     string   `json:"type"`
	DataType DataType `json:"dataType"`
	Data     string   `json:"data"`
	Metadata Metadata `json:"metadata"`
}

// NewMsg creates a message with a new uuid v4 id.
// ts <= 0 is replaced by the current time and a nil metaData by an empty one.
func NewMsg(ts int64, msgType string, dataType DataType, metaData Metadata, data string) RuleMsg {
	if ts <= 0 {
		ts = time.Now().UnixMilli()
	}
	if metaData == nil {
		metaData = NewMetadata()
	}
	var id string
	if uuId, err := uuid.NewV4(); err == nil {
		id = uuId.String()
	}
	return RuleMsg{
		Id:       id,
		Ts:       ts,
		Type:     msgType,
		DataType: dataType,
		Data:     data,
		Metadata: metaData,
	}
}

// IsJSON reports whether Data is JSON encoded.
func (m *RuleMsg) IsJSON() bool {
	return m.DataType == JSON
}

// Copy returns the same message with its own metadata.
func (m *RuleMsg) Copy() RuleMsg {
	msg := *m
	msg.Metadata = m.Metadata.Copy()
	return msg
}
