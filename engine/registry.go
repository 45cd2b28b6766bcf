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

package engine

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rulego/queryfilter/api/types"
	"github.com/rulego/queryfilter/components/filter"
	"github.com/rulego/queryfilter/utils/reflect"
)

var _ types.ComponentRegistry = (*RuleComponentRegistry)(nil)

// Registry is the default registry for node components.
var Registry = new(RuleComponentRegistry)

// init registers default components to the default component registry.
func init() {
	for _, node := range filter.Registry.Components() {
		_ = Registry.Register(node)
	}
}

// RuleComponentRegistry is a registry for node components.
type RuleComponentRegistry struct {
	components map[string]types.Node
	sync.RWMutex
}

// Register adds a node component to the registry.
func (r *RuleComponentRegistry) Register(node types.Node) error {
	if node == nil {
		return types.ErrNodeNil
	}
	r.Lock()
	defer r.Unlock()
	if r.components == nil {
		r.components = make(map[string]types.Node)
	}
	if _, ok := r.components[node.Type()]; ok {
		return fmt.Errorf("%w. componentType=%s", types.ErrComponentExists, node.Type())
	}
	r.components[node.Type()] = node
	return nil
}

// Unregister removes a component from the registry by its type.
func (r *RuleComponentRegistry) Unregister(componentType string) error {
	r.Lock()
	defer r.Unlock()
	if _, ok := r.components[componentType]; !ok {
		return fmt.Errorf("%w. componentType=%s", types.ErrComponentNotFound, componentType)
	}
	delete(r.components, componentType)
	return nil
}

// NewNode creates a new instance of a node component by its type.
func (r *RuleComponentRegistry) NewNode(componentType string) (types.Node, error) {
	r.RLock()
	defer r.RUnlock()
	node, ok := r.components[componentType]
	if !ok {
		return nil, fmt.Errorf("%w. componentType=%s", types.ErrComponentNotFound, componentType)
	}
	return node.New(), nil
}

// GetComponents returns a map of all registered components.
func (r *RuleComponentRegistry) GetComponents() map[string]types.Node {
	r.RLock()
	defer r.RUnlock()
	var components = make(map[string]types.Node, len(r.components))
	for k, v := range r.components {
		components[k] = v
	}
	return components
}

// GetComponentForms returns the forms of all registered components, sorted by type.
func (r *RuleComponentRegistry) GetComponentForms() []reflect.ComponentForm {
	r.RLock()
	defer r.RUnlock()
	var forms = make([]reflect.ComponentForm, 0, len(r.components))
	for _, component := range r.components {
		forms = append(forms, reflect.GetComponentForm(component.New()))
	}
	sort.Slice(forms, func(i, j int) bool {
		return forms[i].Type < forms[j].Type
	})
	return forms
}
