/*
 * Copyright 2025 The RuleGo Authors.
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

package query

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonx "github.com/rulego/queryfilter/utils/json"
	"gopkg.in/yaml.v3"
)

// decode turns a query literal into inert data. Only mappings, sequences
// and scalars can come out of it.
func decode(text string, syntax Syntax) (map[string]interface{}, error) {
	switch syntax {
	case "", SyntaxJSON:
		doc, err := jsonx.UnmarshalObjectUseNumber([]byte(text))
		if err == jsonx.ErrNotObject {
			return nil, ErrNotDocument
		}
		if err != nil {
			return nil, fmt.Errorf("invalid json query: %w", err)
		}
		if err = normalizeNumbers(doc); err != nil {
			return nil, fmt.Errorf("invalid json query: %w", err)
		}
		return doc, nil
	case SyntaxYAML:
		if strings.TrimSpace(text) == "" {
			return nil, ErrNotDocument
		}
		var v interface{}
		if err := yaml.Unmarshal([]byte(text), &v); err != nil {
			return nil, fmt.Errorf("invalid yaml query: %w", err)
		}
		normalized, err := normalizeYAML(v)
		if err != nil {
			return nil, err
		}
		doc, ok := normalized.(map[string]interface{})
		if !ok {
			return nil, ErrNotDocument
		}
		return doc, nil
	default:
		return nil, fmt.Errorf("unsupported query syntax: %s", syntax)
	}
}

// maxExactFloat 是float64能精确表示的最大整数
const maxExactFloat = 1 << 53

// normalizeNumbers replaces json.Number literals with float64 in place.
// Integers that float64 cannot hold exactly become int64.
func normalizeNumbers(doc map[string]interface{}) error {
	for k, item := range doc {
		n, err := normalizeNumber(item)
		if err != nil {
			return err
		}
		doc[k] = n
	}
	return nil
}

func normalizeNumber(v interface{}) (interface{}, error) {
	switch value := v.(type) {
	case map[string]interface{}:
		return value, normalizeNumbers(value)
	case []interface{}:
		for i, item := range value {
			n, err := normalizeNumber(item)
			if err != nil {
				return nil, err
			}
			value[i] = n
		}
		return value, nil
	case json.Number:
		if i, err := value.Int64(); err == nil && (i > maxExactFloat || i < -maxExactFloat) {
			return i, nil
		}
		return value.Float64()
	default:
		return v, nil
	}
}

// normalizeYAML converts the yaml node values to the json shaped types the
// matcher works with.
func normalizeYAML(v interface{}) (interface{}, error) {
	switch value := v.(type) {
	case map[string]interface{}:
		for k, item := range value {
			n, err := normalizeYAML(item)
			if err != nil {
				return nil, err
			}
			value[k] = n
		}
		return value, nil
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(value))
		for k, item := range value {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("query key %v is not a string", k)
			}
			n, err := normalizeYAML(item)
			if err != nil {
				return nil, err
			}
			m[key] = n
		}
		return m, nil
	case []interface{}:
		for i, item := range value {
			n, err := normalizeYAML(item)
			if err != nil {
				return nil, err
			}
			value[i] = n
		}
		return value, nil
	default:
		return value, nil
	}
}
