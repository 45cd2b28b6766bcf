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
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/rulego/queryfilter/utils/cast"
	"github.com/rulego/queryfilter/utils/maps"
)

// Document operators.
const (
	OpAnd  = "$and"
	OpOr   = "$or"
	OpNor  = "$nor"
	OpNot  = "$not"
	OpExpr = "$expr"
)

// Field operators.
const (
	OpEq         = "$eq"
	OpEqual      = "$equal"
	OpNe         = "$ne"
	OpLt         = "$lt"
	OpLte        = "$lte"
	OpGt         = "$gt"
	OpGte        = "$gte"
	OpBetween    = "$between"
	OpIn         = "$in"
	OpNin        = "$nin"
	OpAll        = "$all"
	OpAny        = "$any"
	OpContains   = "$contains"
	OpSize       = "$size"
	OpExists     = "$exists"
	OpHas        = "$has"
	OpLike       = "$like"
	OpLikeI      = "$likeI"
	OpStartsWith = "$startsWith"
	OpEndsWith   = "$endsWith"
	OpRegex      = "$regex"
	OpRegexp     = "$regexp"
	OpOptions    = "$options"
	OpMod        = "$mod"
	OpType       = "$type"
	OpElemMatch  = "$elemMatch"
)

const operatorPrefix = "$"

// matchFunc tests a whole element.
type matchFunc func(doc interface{}) (bool, error)

// testFunc tests the value found at a field path. found is false when the
// path does not exist in the element.
type testFunc func(attr interface{}, found bool) (bool, error)

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func isOperator(key string) bool {
	return strings.HasPrefix(key, operatorPrefix)
}

func compileDocument(doc map[string]interface{}, o options) (matchFunc, error) {
	var matchers []matchFunc
	for _, key := range sortedKeys(doc) {
		value := doc[key]
		var m matchFunc
		var err error
		switch key {
		case OpAnd, OpOr, OpNor:
			m, err = compileLogical(key, value, o)
		case OpNot:
			m, err = compileNotDocument(value, o)
		case OpExpr:
			m, err = compileExpr(value, o)
		default:
			if isOperator(key) {
				return nil, fmt.Errorf("unknown query operator %s", key)
			}
			m, err = compileField(key, value, o)
		}
		if err != nil {
			return nil, err
		}
		matchers = append(matchers, m)
	}
	return allOf(matchers), nil
}

func allOf(matchers []matchFunc) matchFunc {
	return func(doc interface{}) (bool, error) {
		for _, m := range matchers {
			if ok, err := m(doc); err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	}
}

func anyOf(matchers []matchFunc) matchFunc {
	return func(doc interface{}) (bool, error) {
		for _, m := range matchers {
			if ok, err := m(doc); err != nil || ok {
				return ok, err
			}
		}
		return false, nil
	}
}

func negate(m matchFunc) matchFunc {
	return func(doc interface{}) (bool, error) {
		ok, err := m(doc)
		return !ok && err == nil, err
	}
}

// subDocuments accepts a list of documents or a single document.
func subDocuments(op string, value interface{}, o options) ([]matchFunc, error) {
	var docs []interface{}
	switch v := value.(type) {
	case []interface{}:
		docs = v
	case map[string]interface{}:
		docs = []interface{}{v}
	default:
		return nil, fmt.Errorf("%s expects an object or an array of objects", op)
	}
	matchers := make([]matchFunc, 0, len(docs))
	for _, item := range docs {
		sub, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%s expects an object or an array of objects", op)
		}
		m, err := compileDocument(sub, o)
		if err != nil {
			return nil, err
		}
		matchers = append(matchers, m)
	}
	return matchers, nil
}

func compileLogical(op string, value interface{}, o options) (matchFunc, error) {
	matchers, err := subDocuments(op, value, o)
	if err != nil {
		return nil, err
	}
	switch op {
	case OpAnd:
		return allOf(matchers), nil
	case OpOr:
		return anyOf(matchers), nil
	default:
		return negate(anyOf(matchers)), nil
	}
}

func compileNotDocument(value interface{}, o options) (matchFunc, error) {
	sub, ok := value.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%s expects an object", OpNot)
	}
	m, err := compileDocument(sub, o)
	if err != nil {
		return nil, err
	}
	return negate(m), nil
}

// compileExpr compiles an expr-lang boolean expression evaluated with the
// element fields as variables. Non object elements never match.
func compileExpr(value interface{}, o options) (matchFunc, error) {
	if !o.allowExpr {
		return nil, ErrExprDisabled
	}
	source, ok := value.(string)
	if !ok || strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("%s expects a non empty string", OpExpr)
	}
	program, err := expr.Compile(source, expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", OpExpr, err)
	}
	return func(doc interface{}) (bool, error) {
		env, ok := doc.(map[string]interface{})
		if !ok {
			return false, nil
		}
		out, err := expr.Run(program, exprValue(env))
		if err != nil {
			return false, fmt.Errorf("%s: %w", OpExpr, err)
		}
		result, _ := out.(bool)
		return result, nil
	}, nil
}

// exprValue copies v with json.Number replaced by int64 or float64, the
// number types expr operates on.
func exprValue(v interface{}) interface{} {
	switch value := v.(type) {
	case json.Number:
		if i, err := value.Int64(); err == nil {
			return i
		}
		f, _ := value.Float64()
		return f
	case map[string]interface{}:
		m := make(map[string]interface{}, len(value))
		for k, item := range value {
			m[k] = exprValue(item)
		}
		return m
	case []interface{}:
		list := make([]interface{}, len(value))
		for i, item := range value {
			list[i] = exprValue(item)
		}
		return list
	}
	return v
}

func compileField(path string, value interface{}, o options) (matchFunc, error) {
	test, err := compileCondition(value, o)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", path, err)
	}
	return func(doc interface{}) (bool, error) {
		attr, found := maps.GetE(doc, path)
		return test(attr, found)
	}, nil
}

// operatorSet reports whether value is a mapping of operators. A mapping
// mixing operators and plain keys is an error.
func operatorSet(value interface{}) (map[string]interface{}, bool, error) {
	m, ok := value.(map[string]interface{})
	if !ok || len(m) == 0 {
		return nil, false, nil
	}
	operators := 0
	for k := range m {
		if isOperator(k) {
			operators++
		}
	}
	switch operators {
	case 0:
		return nil, false, nil
	case len(m):
		return m, true, nil
	default:
		return nil, false, fmt.Errorf("cannot mix operators and fields in %v", m)
	}
}

func compileCondition(value interface{}, o options) (testFunc, error) {
	set, ok, err := operatorSet(value)
	if err != nil {
		return nil, err
	}
	if !ok {
		return eqTest(value), nil
	}
	var tests []testFunc
	for _, op := range sortedKeys(set) {
		if op == OpOptions {
			if _, ok := set[OpRegex]; !ok {
				if _, ok := set[OpRegexp]; !ok {
					return nil, fmt.Errorf("%s requires %s", OpOptions, OpRegex)
				}
			}
			continue
		}
		test, err := compileOperator(op, set[op], set, o)
		if err != nil {
			return nil, err
		}
		tests = append(tests, test)
	}
	return func(attr interface{}, found bool) (bool, error) {
		for _, test := range tests {
			if ok, err := test(attr, found); err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	}, nil
}

func compileOperator(op string, operand interface{}, set map[string]interface{}, o options) (testFunc, error) {
	switch op {
	case OpEq, OpEqual:
		return eqTest(operand), nil
	case OpNe:
		return negateTest(eqTest(operand)), nil
	case OpLt:
		return compareTest(op, operand, func(c int) bool { return c < 0 })
	case OpLte:
		return compareTest(op, operand, func(c int) bool { return c <= 0 })
	case OpGt:
		return compareTest(op, operand, func(c int) bool { return c > 0 })
	case OpGte:
		return compareTest(op, operand, func(c int) bool { return c >= 0 })
	case OpBetween:
		return betweenTest(operand)
	case OpIn:
		return inTest(op, operand)
	case OpNin:
		test, err := inTest(op, operand)
		if err != nil {
			return nil, err
		}
		return negateTest(test), nil
	case OpAll:
		return arrayTest(op, operand, true)
	case OpAny:
		return arrayTest(op, operand, false)
	case OpContains:
		return containsTest(operand), nil
	case OpSize:
		return sizeTest(operand)
	case OpExists, OpHas:
		return existsTest(op, operand)
	case OpLike, OpLikeI, OpStartsWith, OpEndsWith:
		return stringTest(op, operand)
	case OpRegex, OpRegexp:
		return regexTest(op, operand, set[OpOptions])
	case OpMod:
		return modTest(operand)
	case OpType:
		return typeTest(operand)
	case OpElemMatch:
		return elemMatchTest(operand, o)
	case OpNot:
		test, err := compileCondition(operand, o)
		if err != nil {
			return nil, err
		}
		return negateTest(test), nil
	default:
		return nil, fmt.Errorf("unknown query operator %s", op)
	}
}

func negateTest(test testFunc) testFunc {
	return func(attr interface{}, found bool) (bool, error) {
		ok, err := test(attr, found)
		return !ok && err == nil, err
	}
}

// eqTest matches equal values. An array attribute also matches when one of
// its elements equals a scalar operand. A missing field equals null.
func eqTest(operand interface{}) testFunc {
	_, operandIsArray := operand.([]interface{})
	return func(attr interface{}, found bool) (bool, error) {
		if list, ok := attr.([]interface{}); ok && !operandIsArray {
			return contains(list, operand), nil
		}
		return equal(attr, operand), nil
	}
}

func compareTest(op string, operand interface{}, accept func(int) bool) (testFunc, error) {
	if !isComparable(operand) {
		return nil, fmt.Errorf("%s expects a number or a string", op)
	}
	return func(attr interface{}, found bool) (bool, error) {
		if !found {
			return false, nil
		}
		c, ok := compare(attr, operand)
		return ok && accept(c), nil
	}, nil
}

// betweenTest matches lo < attr < hi.
func betweenTest(operand interface{}) (testFunc, error) {
	bounds, ok := operand.([]interface{})
	if !ok || len(bounds) != 2 || !isComparable(bounds[0]) || !isComparable(bounds[1]) {
		return nil, fmt.Errorf("%s expects [low, high]", OpBetween)
	}
	return func(attr interface{}, found bool) (bool, error) {
		low, ok := compare(attr, bounds[0])
		if !ok || low <= 0 {
			return false, nil
		}
		high, ok := compare(attr, bounds[1])
		return ok && high < 0, nil
	}, nil
}

func operandList(op string, operand interface{}) ([]interface{}, error) {
	list, ok := operand.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%s expects an array", op)
	}
	return list, nil
}

func inTest(op string, operand interface{}) (testFunc, error) {
	list, err := operandList(op, operand)
	if err != nil {
		return nil, err
	}
	return func(attr interface{}, found bool) (bool, error) {
		if values, ok := attr.([]interface{}); ok {
			for _, v := range values {
				if contains(list, v) {
					return true, nil
				}
			}
			return false, nil
		}
		return contains(list, attr), nil
	}, nil
}

// arrayTest implements $all (every operand value present) and $any (at
// least one present). The attribute must be an array.
func arrayTest(op string, operand interface{}, all bool) (testFunc, error) {
	list, err := operandList(op, operand)
	if err != nil {
		return nil, err
	}
	return func(attr interface{}, found bool) (bool, error) {
		values, ok := attr.([]interface{})
		if !ok || len(list) == 0 {
			return false, nil
		}
		for _, v := range list {
			present := contains(values, v)
			if all && !present {
				return false, nil
			}
			if !all && present {
				return true, nil
			}
		}
		return all, nil
	}, nil
}

func containsTest(operand interface{}) testFunc {
	return func(attr interface{}, found bool) (bool, error) {
		switch v := attr.(type) {
		case []interface{}:
			return contains(v, operand), nil
		case string:
			s, ok := operand.(string)
			return ok && strings.Contains(v, s), nil
		default:
			return false, nil
		}
	}
}

func sizeTest(operand interface{}) (testFunc, error) {
	if !cast.IsNumber(operand) {
		return nil, fmt.Errorf("%s expects an integer", OpSize)
	}
	size, err := cast.ToIntE(operand)
	if err != nil {
		return nil, fmt.Errorf("%s expects an integer", OpSize)
	}
	return func(attr interface{}, found bool) (bool, error) {
		values, ok := attr.([]interface{})
		return ok && len(values) == size, nil
	}, nil
}

func existsTest(op string, operand interface{}) (testFunc, error) {
	expected, ok := operand.(bool)
	if !ok {
		return nil, fmt.Errorf("%s expects a boolean", op)
	}
	return func(attr interface{}, found bool) (bool, error) {
		return found == expected, nil
	}, nil
}

func stringTest(op string, operand interface{}) (testFunc, error) {
	pattern, ok := operand.(string)
	if !ok {
		return nil, fmt.Errorf("%s expects a string", op)
	}
	var accept func(s string) bool
	switch op {
	case OpLike:
		accept = func(s string) bool { return strings.Contains(s, pattern) }
	case OpLikeI:
		lower := strings.ToLower(pattern)
		accept = func(s string) bool { return strings.Contains(strings.ToLower(s), lower) }
	case OpStartsWith:
		accept = func(s string) bool { return strings.HasPrefix(s, pattern) }
	default:
		accept = func(s string) bool { return strings.HasSuffix(s, pattern) }
	}
	return func(attr interface{}, found bool) (bool, error) {
		s, ok := attr.(string)
		return ok && accept(s), nil
	}, nil
}

func regexTest(op string, operand interface{}, flags interface{}) (testFunc, error) {
	pattern, ok := operand.(string)
	if !ok {
		return nil, fmt.Errorf("%s expects a string", op)
	}
	if flags != nil {
		f, ok := flags.(string)
		if !ok || strings.Trim(f, "ims") != "" {
			return nil, fmt.Errorf("%s supports the flags i, m and s", OpOptions)
		}
		if f != "" {
			pattern = "(?" + f + ")" + pattern
		}
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return func(attr interface{}, found bool) (bool, error) {
		s, ok := attr.(string)
		return ok && re.MatchString(s), nil
	}, nil
}

// modTest matches attr % divisor == remainder.
func modTest(operand interface{}) (testFunc, error) {
	args, ok := operand.([]interface{})
	if !ok || len(args) != 2 || !cast.IsNumber(args[0]) || !cast.IsNumber(args[1]) {
		return nil, fmt.Errorf("%s expects [divisor, remainder]", OpMod)
	}
	divisor, remainder := cast.ToFloat64(args[0]), cast.ToFloat64(args[1])
	if divisor == 0 {
		return nil, fmt.Errorf("%s divisor can not be 0", OpMod)
	}
	return func(attr interface{}, found bool) (bool, error) {
		if !cast.IsNumber(attr) {
			return false, nil
		}
		return math.Mod(cast.ToFloat64(attr), divisor) == remainder, nil
	}, nil
}

func typeTest(operand interface{}) (testFunc, error) {
	name, ok := operand.(string)
	switch name {
	case TypeString, TypeNumber, TypeBoolean, TypeArray, TypeObject, TypeNull:
	default:
		ok = false
	}
	if !ok {
		return nil, fmt.Errorf("%s expects one of string, number, boolean, array, object, null", OpType)
	}
	return func(attr interface{}, found bool) (bool, error) {
		return found && typeName(attr) == name, nil
	}, nil
}

// elemMatchTest matches arrays holding at least one element that satisfies
// operand. An operand made of field operators applies to the element itself,
// any other operand is a sub document.
func elemMatchTest(operand interface{}, o options) (testFunc, error) {
	sub, ok := operand.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%s expects an object", OpElemMatch)
	}
	var match matchFunc
	if isFieldOperatorSet(sub) {
		test, err := compileCondition(sub, o)
		if err != nil {
			return nil, err
		}
		match = func(doc interface{}) (bool, error) {
			return test(doc, true)
		}
	} else {
		m, err := compileDocument(sub, o)
		if err != nil {
			return nil, err
		}
		match = m
	}
	return func(attr interface{}, found bool) (bool, error) {
		values, ok := attr.([]interface{})
		if !ok {
			return false, nil
		}
		for _, v := range values {
			if ok, err := match(v); err != nil || ok {
				return ok, err
			}
		}
		return false, nil
	}, nil
}

func isFieldOperatorSet(m map[string]interface{}) bool {
	if len(m) == 0 {
		return false
	}
	for k := range m {
		switch k {
		case OpAnd, OpOr, OpNor, OpExpr:
			return false
		}
		if !isOperator(k) {
			return false
		}
	}
	return true
}
