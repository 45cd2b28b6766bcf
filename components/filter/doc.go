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

// Package filter provides message filtering components.
//
// - QueryFilter: renders a mustache query template against the message,
// parses the result as a query document and keeps the elements of the
// message payload that match it.
//
// Each component is registered with the Registry. Reference a component in a
// node definition by its Type, for example:
//
//	{
//	  "id": "node1",
//	  "type": "queryFilter",
//	  "name": "adults only",
//	  "configuration": {
//	    "query": "{ \"age\": { \"$gte\": {{minAge}} } }"
//	  }
//	}
//
// The message data must be a JSON object. Its top-level fields are the
// template variables and its `payload` field holds the collection to filter.
// A message that cannot be filtered is logged through the configured Logger
// and dropped.
package filter
