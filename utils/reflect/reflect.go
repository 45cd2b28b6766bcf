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

// Package reflect describes node components from their configuration struct.
//
// A component keeps its configuration in an exported `Config` field (or an
// unexported `config` field). The fields of that struct, with their current
// values as defaults, form the component's form.
package reflect

import (
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/rulego/queryfilter/api/types"
)

// ComponentForm 组件表单
type ComponentForm struct {
	// Type 组件类型
	Type string `json:"type"`
	// Label 组件结构体名称
	Label string `json:"label"`
	// Fields 配置字段
	Fields ConfigFields `json:"fields"`
}

// ConfigField 组件配置字段
type ConfigField struct {
	Name         string      `json:"name"`
	Type         string      `json:"type"`
	DefaultValue interface{} `json:"defaultValue"`
	Label        string      `json:"label,omitempty"`
	Desc         string      `json:"desc,omitempty"`
	Required     bool        `json:"required,omitempty"`
}

type ConfigFields []ConfigField

// GetField returns the field with the given name.
func (f ConfigFields) GetField(name string) (ConfigField, bool) {
	for _, field := range f {
		if field.Name == name {
			return field, true
		}
	}
	return ConfigField{}, false
}

// GetComponentForm 获取组件的表单结构
func GetComponentForm(component types.Node) ComponentForm {
	t, configField, configValue := GetComponentConfig(component)
	return ComponentForm{
		Type:   component.Type(),
		Label:  t.Name(),
		Fields: GetFields(configField, configValue),
	}
}

// GetComponentConfig 获取组件配置字段和值
func GetComponentConfig(component types.Node) (reflect.Type, reflect.StructField, reflect.Value) {
	t := reflect.TypeOf(component)
	v := reflect.ValueOf(component)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
		v = v.Elem()
	}
	for _, name := range []string{"config", "Config"} {
		if configField, ok := t.FieldByName(name); ok && configField.Type.Kind() == reflect.Struct {
			return t, configField, v.FieldByName(name)
		}
	}
	return t, reflect.StructField{}, reflect.Value{}
}

// GetFields 获取组件config字段
// Field names follow the json tag, or the lower camel case Go name.
func GetFields(configField reflect.StructField, configValue reflect.Value) ConfigFields {
	var fields ConfigFields
	if configField.Type == nil {
		return fields
	}
	for i := 0; i < configField.Type.NumField(); i++ {
		field := configField.Type.Field(i)
		if !field.IsExported() {
			continue
		}
		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}
		var defaultValue interface{}
		if configValue.IsValid() && configValue.Field(i).CanInterface() {
			defaultValue = configValue.Field(i).Interface()
		}
		required, _ := strconv.ParseBool(field.Tag.Get("required"))
		fields = append(fields, ConfigField{
			Name:         fieldName(field.Name, jsonTag),
			Type:         typeName(field.Type),
			DefaultValue: defaultValue,
			Label:        field.Tag.Get("label"),
			Desc:         field.Tag.Get("desc"),
			Required:     required,
		})
	}
	return fields
}

func fieldName(goName, jsonTag string) string {
	if i := strings.Index(jsonTag, ","); i != -1 {
		jsonTag = jsonTag[:i]
	}
	if jsonTag != "" {
		return jsonTag
	}
	r := []rune(goName)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

func typeName(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Map:
		return "map"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Struct:
		return "struct"
	default:
		return t.Name()
	}
}
