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

package maps

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// PathSeparator separates the segments of a field path, e.g. `address.city`.
const PathSeparator = "."

var ErrEmptyPath = errors.New("empty path")

// Map2Struct Decode takes an input structure and uses reflection to translate it to
// the output structure. output must be a pointer to a map or struct.
// Strings are converted to durations and weakly typed values (e.g. "true") are accepted.
func Map2Struct(input interface{}, output interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           output,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

// Get 获取多级字段的值，例如：Get(m, "address.city")
// 不存在则返回nil
func Get(input interface{}, fieldName string) interface{} {
	v, _ := GetE(input, fieldName)
	return v
}

// GetE walks fieldName through nested maps and slices. Slice segments are
// zero based indexes. The boolean reports whether the full path exists.
func GetE(input interface{}, fieldName string) (interface{}, bool) {
	if fieldName == "" {
		return nil, false
	}
	current := input
	for _, key := range strings.Split(fieldName, PathSeparator) {
		switch v := current.(type) {
		case map[string]interface{}:
			next, ok := v[key]
			if !ok {
				return nil, false
			}
			current = next
		case map[string]string:
			next, ok := v[key]
			if !ok {
				return nil, false
			}
			current = next
		case []interface{}:
			index, err := strconv.Atoi(key)
			if err != nil || index < 0 || index >= len(v) {
				return nil, false
			}
			current = v[index]
		default:
			return nil, false
		}
	}
	return current, true
}

// Set 设置多级字段的值，中间层级不存在时自动创建。
// 数组层级使用下标访问，下标必须已经存在
func Set(input map[string]interface{}, fieldName string, value interface{}) error {
	if fieldName == "" {
		return ErrEmptyPath
	}
	keys := strings.Split(fieldName, PathSeparator)
	var current interface{} = input
	for i, key := range keys {
		last := i == len(keys)-1
		switch v := current.(type) {
		case map[string]interface{}:
			if last {
				v[key] = value
				return nil
			}
			next, ok := v[key]
			if !ok || next == nil {
				next = make(map[string]interface{})
				v[key] = next
			}
			current = next
		case []interface{}:
			index, err := strconv.Atoi(key)
			if err != nil || index < 0 || index >= len(v) {
				return fmt.Errorf("field %s is not a valid index", strings.Join(keys[:i+1], PathSeparator))
			}
			if last {
				v[index] = value
				return nil
			}
			current = v[index]
		default:
			return fmt.Errorf("field %s is not an object", strings.Join(keys[:i], PathSeparator))
		}
	}
	return nil
}
