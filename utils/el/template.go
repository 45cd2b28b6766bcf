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

package el

import (
	"strings"

	"github.com/cbroglie/mustache"
)

// VarPrefix marks a template variable.
const VarPrefix = "{{"

// Template renders text against a data context.
type Template interface {
	Parse() error
	Execute(data map[string]any) (string, error)
	// HasVar 是否有变量
	HasVar() bool
}

// NewTemplate returns a MustacheTemplate when tmpl opens a mustache tag,
// otherwise a NotTemplate that returns tmpl as is. An unmatched `{{` is a
// parse error.
func NewTemplate(tmpl string) (Template, error) {
	if strings.Contains(tmpl, VarPrefix) {
		return NewMustacheTemplate(tmpl)
	}
	return &NotTemplate{Tmpl: tmpl}, nil
}

// MustacheTemplate 使用mustache语法渲染模板，例如：{"status": "{{status}}"}
// Names are resolved with dotted access ({{msg.name}}), missing names render
// as empty text, {{x}} is HTML escaped and {{{x}}} is not.
type MustacheTemplate struct {
	Tmpl     string
	template *mustache.Template
}

func NewMustacheTemplate(tmpl string) (*MustacheTemplate, error) {
	t := &MustacheTemplate{Tmpl: tmpl}
	if err := t.Parse(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *MustacheTemplate) Parse() error {
	template, err := mustache.ParseString(t.Tmpl)
	if err != nil {
		return err
	}
	t.template = template
	return nil
}

func (t *MustacheTemplate) Execute(data map[string]any) (string, error) {
	if t.template == nil {
		return t.Tmpl, nil
	}
	return t.template.Render(data)
}

func (t *MustacheTemplate) HasVar() bool {
	return true
}

// NotTemplate 原样输出
type NotTemplate struct {
	Tmpl string
}

func (t *NotTemplate) Parse() error {
	return nil
}

func (t *NotTemplate) Execute(data map[string]any) (string, error) {
	return t.Tmpl, nil
}

func (t *NotTemplate) HasVar() bool {
	return false
}
