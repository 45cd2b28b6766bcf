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

package rest

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rulego/queryfilter/api/types"
	"github.com/rulego/queryfilter/engine"
)

// Message outcomes.
const (
	OutcomeForwarded = "forwarded"
	OutcomeFailure   = "failure"
	OutcomeDropped   = "dropped"
	OutcomeError     = "error"
)

// OutcomeOf classifies an execution result.
func OutcomeOf(result engine.Result) string {
	switch {
	case result.Forwarded && result.RelationType == types.Failure:
		return OutcomeFailure
	case result.Forwarded:
		return OutcomeForwarded
	case result.Err != nil:
		return OutcomeError
	default:
		return OutcomeDropped
	}
}

// Metrics 端点指标，每个端点使用独立的 prometheus.Registry
type Metrics struct {
	registry *prometheus.Registry
	messages *prometheus.CounterVec
	duration prometheus.Histogram
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		messages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "queryfilter_messages_total",
			Help: "Total messages executed, by outcome",
		}, []string{"outcome"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "queryfilter_message_duration_seconds",
			Help:    "Message execution time",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// Registry returns the registry the metrics are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Observe records one executed message.
func (m *Metrics) Observe(outcome string, elapsed time.Duration) {
	m.Messages(outcome).Inc()
	m.duration.Observe(elapsed.Seconds())
}

// Messages returns the counter of outcome.
func (m *Metrics) Messages(outcome string) prometheus.Counter {
	return m.messages.WithLabelValues(outcome)
}
