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

// Package query filters collections with MongoDB style query documents.
//
// A query document is inert data (maps, slices, scalars) decoded from a json
// or yaml literal. Every key of a document must hold for an element to match:
//
//	{"status": "ok", "age": {"$gte": 18}, "$or": [{"vip": true}, {"score": {"$gt": 90}}]}
//
// Field keys are dotted paths (`address.city`, `tags.0`). A field value that is
// a mapping made of `$` operators is an operator set, any other value is an
// equality test. Supported field operators:
//
//	$eq $equal $ne $lt $lte $gt $gte $between $in $nin $all $any $contains
//	$size $exists $has $like $likeI $startsWith $endsWith $regex $regexp
//	$options $mod $type $elemMatch $not
//
// Supported document operators: $and $or $nor $not and, when enabled with
// WithExpr, $expr (an expr-lang boolean expression over the element fields).
package query

import (
	"errors"
	"fmt"
	"reflect"
)

// Syntax is the literal syntax a query text is written in.
type Syntax string

const (
	SyntaxJSON Syntax = "json"
	SyntaxYAML Syntax = "yaml"
)

var (
	// ErrNotCollection is returned by Filter when the input is not a slice.
	ErrNotCollection = errors.New("collection is not an array")
	// ErrNotDocument is returned when a query literal is not a mapping.
	ErrNotDocument = errors.New("query is not an object")
	// ErrExprDisabled is returned when a query uses $expr without WithExpr(true).
	ErrExprDisabled = errors.New("$expr operator is not enabled")
)

// ParseSyntax returns the Syntax named s. Empty means json.
func ParseSyntax(s string) (Syntax, error) {
	switch Syntax(s) {
	case "", SyntaxJSON:
		return SyntaxJSON, nil
	case SyntaxYAML:
		return SyntaxYAML, nil
	default:
		return "", fmt.Errorf("unsupported query syntax: %s", s)
	}
}

type options struct {
	syntax    Syntax
	allowExpr bool
}

// Option configures Parse and Compile.
type Option func(*options)

// WithSyntax sets the literal syntax used by Parse. Default json.
func WithSyntax(syntax Syntax) Option {
	return func(o *options) {
		o.syntax = syntax
	}
}

// WithExpr enables the $expr document operator.
func WithExpr(enabled bool) Option {
	return func(o *options) {
		o.allowExpr = enabled
	}
}

func newOptions(opts []Option) options {
	o := options{syntax: SyntaxJSON}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Query is a compiled query document. It is immutable and safe for
// concurrent use.
type Query struct {
	doc   map[string]interface{}
	match matchFunc
}

// Parse decodes text as a query literal and compiles it.
func Parse(text string, opts ...Option) (*Query, error) {
	o := newOptions(opts)
	doc, err := decode(text, o.syntax)
	if err != nil {
		return nil, err
	}
	return compile(doc, o)
}

// Compile compiles an already decoded query document.
func Compile(doc map[string]interface{}, opts ...Option) (*Query, error) {
	if doc == nil {
		return nil, ErrNotDocument
	}
	return compile(doc, newOptions(opts))
}

func compile(doc map[string]interface{}, o options) (*Query, error) {
	match, err := compileDocument(doc, o)
	if err != nil {
		return nil, err
	}
	return &Query{doc: doc, match: match}, nil
}

// Document returns the decoded query document.
func (q *Query) Document() map[string]interface{} {
	return q.doc
}

// Match reports whether doc satisfies the query.
func (q *Query) Match(doc interface{}) (bool, error) {
	return q.match(doc)
}

// Filter returns the elements of collection matching the query, in their
// original order. collection is not modified. An empty collection yields an
// empty, non nil slice.
func (q *Query) Filter(collection interface{}) ([]interface{}, error) {
	items, ok := toSlice(collection)
	if !ok {
		return nil, ErrNotCollection
	}
	result := make([]interface{}, 0, len(items))
	for i, item := range items {
		matched, err := q.match(item)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		if matched {
			result = append(result, item)
		}
	}
	return result, nil
}

func toSlice(collection interface{}) ([]interface{}, bool) {
	switch v := collection.(type) {
	case []interface{}:
		return v, true
	case []map[string]interface{}:
		items := make([]interface{}, len(v))
		for i, item := range v {
			items[i] = item
		}
		return items, true
	case nil, string, []byte:
		return nil, false
	}
	rv := reflect.ValueOf(collection)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	items := make([]interface{}, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}
