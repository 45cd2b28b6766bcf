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

// Package cast converts decoded query and message values.
package cast

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
)

// IsNumber reports whether value holds a Go numeric type or a json.Number.
// Numeric strings are not numbers.
func IsNumber(value interface{}) bool {
	if _, ok := value.(json.Number); ok {
		return true
	}
	if value == nil {
		return false
	}
	switch reflect.TypeOf(value).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

// ToFloat64 is ToFloat64E without the error, 0 on failure.
func ToFloat64(value interface{}) float64 {
	v, _ := ToFloat64E(value)
	return v
}

// ToFloat64E converts numbers, json.Number and numeric strings to float64.
func ToFloat64E(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case json.Number:
		return v.Float64()
	case string:
		return strconv.ParseFloat(v, 64)
	}
	if !IsNumber(value) {
		return 0, fmt.Errorf("unable to cast %v of type %T to float64", value, value)
	}
	rv := reflect.ValueOf(value)
	switch {
	case rv.CanInt():
		return float64(rv.Int()), nil
	case rv.CanUint():
		return float64(rv.Uint()), nil
	default:
		return rv.Float(), nil
	}
}

// ToIntE converts an interface{} to int. Floats must not carry a fraction.
func ToIntE(value interface{}) (int, error) {
	if v, ok := value.(int); ok {
		return v, nil
	}
	if v, ok := value.(string); ok {
		return strconv.Atoi(v)
	}
	if !IsNumber(value) {
		return 0, fmt.Errorf("unable to cast %v of type %T to int", value, value)
	}
	f, err := ToFloat64E(value)
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("unable to cast %v of type %T to int: has a fraction", value, value)
	}
	return int(f), nil
}
