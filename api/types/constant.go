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

package types

import "errors"

var (
	// ErrComponentExists is returned when a node type is registered twice.
	ErrComponentExists = errors.New("the component already exists")
	// ErrComponentNotFound is returned when a node type is not registered.
	ErrComponentNotFound = errors.New("component not found")
	// ErrNotJsonObject is returned when a message does not carry a JSON object.
	ErrNotJsonObject = errors.New("message data is not a json object")
	// ErrNodeNil is returned when a host is asked to run a nil node.
	ErrNodeNil = errors.New("node can not be nil")
)
