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
	"sync"
)

// SafeComponentSlice is the list of components a package contributes.
// Component packages add to it from init and the default registry loads it.
type SafeComponentSlice struct {
	//组件列表
	components []Node
	sync.Mutex
}

// Add 线程安全地添加元素
func (p *SafeComponentSlice) Add(nodes ...Node) {
	p.Lock()
	defer p.Unlock()
	p.components = append(p.components, nodes...)
}

// Components 获取组件列表
func (p *SafeComponentSlice) Components() []Node {
	p.Lock()
	defer p.Unlock()
	result := make([]Node, len(p.components))
	copy(result, p.components)
	return result
}

// Get returns the component of the given type.
func (p *SafeComponentSlice) Get(nodeType string) (Node, bool) {
	p.Lock()
	defer p.Unlock()
	for _, node := range p.components {
		if node.Type() == nodeType {
			return node, true
		}
	}
	return nil, false
}
