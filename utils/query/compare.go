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
	"reflect"
	"strings"

	"github.com/rulego/queryfilter/utils/cast"
)

// Type names accepted by $type.
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeArray   = "array"
	TypeObject  = "object"
	TypeNull    = "null"
)

// equal compares two decoded values. Numbers compare by value whatever
// their Go representation, mappings and sequences compare element wise.
func equal(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if cast.IsNumber(a) && cast.IsNumber(b) {
		if ai, bi, ok := exactInts(a, b); ok {
			return ai == bi
		}
		return cast.ToFloat64(a) == cast.ToFloat64(b)
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case []interface{}:
		bv, ok := b.([]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]interface{}:
		bv, ok := b.(map[string]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			other, ok := bv[k]
			if !ok || !equal(v, other) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

// compare orders two numbers or two strings. ok is false for any other pair.
func compare(a, b interface{}) (result int, ok bool) {
	if cast.IsNumber(a) && cast.IsNumber(b) {
		if ai, bi, ok := exactInts(a, b); ok {
			switch {
			case ai < bi:
				return -1, true
			case ai > bi:
				return 1, true
			default:
				return 0, true
			}
		}
		af, bf := cast.ToFloat64(a), cast.ToFloat64(b)
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		default:
			return 0, true
		}
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return strings.Compare(as, bs), true
	}
	return 0, false
}

// exactInts returns a and b as int64 when both are integers, so integers
// beyond float64 precision compare exactly.
func exactInts(a, b interface{}) (int64, int64, bool) {
	ai, ok := toInt64(a)
	if !ok {
		return 0, 0, false
	}
	bi, ok := toInt64(b)
	return ai, bi, ok
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case int:
		return int64(n), true
	case int64:
		return n, true
	case int32:
		return int64(n), true
	}
	return 0, false
}

func isComparable(v interface{}) bool {
	if cast.IsNumber(v) {
		return true
	}
	_, ok := v.(string)
	return ok
}

// contains reports whether list holds an element equal to v.
func contains(list []interface{}, v interface{}) bool {
	for _, item := range list {
		if equal(item, v) {
			return true
		}
	}
	return false
}

func typeName(v interface{}) string {
	switch v.(type) {
	case nil:
		return TypeNull
	case string:
		return TypeString
	case bool:
		return TypeBoolean
	case []interface{}:
		return TypeArray
	case map[string]interface{}:
		return TypeObject
	}
	if cast.IsNumber(v) {
		return TypeNumber
	}
	return ""
}
