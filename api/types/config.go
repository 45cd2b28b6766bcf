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

// Config defines the configuration shared by the nodes of a host.
type Config struct {
	// ComponentsRegistry is the component registry, defaulting to `queryfilter.Registry`.
	ComponentsRegistry ComponentRegistry
	// Logger is the logging interface, defaulting to `DefaultLogger()`.
	// Node warnings (for example a message that could not be filtered) are written here.
	Logger Logger
	// Properties are global properties in key-value format.
	// Templates can read them through the `global` variable, e.g. {{global.threshold}}.
	Properties Metadata
}

// NewConfig creates a new Config with default values and applies the provided options.
func NewConfig(opts ...Option) Config {
	c := &Config{
		Logger:     DefaultLogger(),
		Properties: NewMetadata(),
	}

	for _, opt := range opts {
		_ = opt(c)
	}
	return *c
}
