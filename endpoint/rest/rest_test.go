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

package rest

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rulego/queryfilter/api/types"
	"github.com/rulego/queryfilter/components/filter"
	"github.com/rulego/queryfilter/engine"
	"github.com/rulego/queryfilter/test"
	"github.com/rulego/queryfilter/utils/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRest(t *testing.T, configuration types.Configuration) (*Rest, *test.Recorder) {
	recorder := &test.Recorder{}
	ruleEngine, err := engine.NewRuleEngine("rest01", filter.QueryFilterNodeType, configuration,
		engine.WithConfig(engine.NewConfig(types.WithLogger(recorder.Logger()))))
	require.NoError(t, err)
	return New(Config{Addr: ":0"}, ruleEngine), recorder
}

func post(t *testing.T, handler http.Handler, url string, contentType string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, url, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set(ContentTypeKey, contentType)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestRestMsg(t *testing.T) {
	restEndpoint, recorder := newRest(t, types.Configuration{
		"query": `{ "status": "{{status}}", "region": "{{metadata.region}}", "type": "{{metadata.msgType}}" }`,
	})
	handler := restEndpoint.Router()

	w := post(t, handler, "/api/v1/msg/TELEMETRY?region=eu", JsonContextType,
		`{"status":"ok","payload":[{"status":"ok","region":"eu","type":"TELEMETRY","id":1},{"status":"ok","region":"us","type":"TELEMETRY","id":2}]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, JsonContextType, w.Header().Get(ContentTypeKey))
	assert.NotEqual(t, "", w.Header().Get(MsgIdKey))
	obj, err := json.UnmarshalObject(w.Body.Bytes())
	require.NoError(t, err)
	assert.Len(t, obj["payload"], 1)

	w = post(t, handler, "/api/v1/msg/TELEMETRY", JsonContextType, `{"status":"ok"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), engine.ErrNotForwarded.Error())

	w = post(t, handler, "/api/v1/msg/TELEMETRY", "text/plain", `{"status":"ok","payload":[]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Len(t, recorder.Warnings, 2)

	w = post(t, handler, "/api/v1/msg", JsonContextType, `{}`)
	assert.NotEqual(t, http.StatusOK, w.Code)
}

func TestRestRouteFailure(t *testing.T) {
	restEndpoint, _ := newRest(t, types.Configuration{
		"query":        `{ "age": {{age}} }`,
		"routeFailure": true,
	})
	w := post(t, restEndpoint.Router(), "/api/v1/msg/TEST", JsonContextType, `{"payload":[{"age":1}]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "parse: ")
	assert.Equal(t, 1.0, counterValue(t, restEndpoint, OutcomeFailure))
}

func TestRestStopped(t *testing.T) {
	restEndpoint, _ := newRest(t, types.Configuration{"query": `{}`})
	restEndpoint.ruleEngine.Stop()
	w := post(t, restEndpoint.Router(), "/api/v1/msg/TEST", JsonContextType, `{"payload":[]}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), engine.ErrStopped.Error())
}

func TestRestMetrics(t *testing.T) {
	restEndpoint, _ := newRest(t, types.Configuration{"query": `{ "on": true }`})
	handler := restEndpoint.Router()
	post(t, handler, "/api/v1/msg/TEST", JsonContextType, `{"payload":[{"on":true}]}`)
	post(t, handler, "/api/v1/msg/TEST", JsonContextType, `{"payload":[{"on":false}]}`)
	post(t, handler, "/api/v1/msg/TEST", JsonContextType, `{"payload":1}`)

	assert.Equal(t, 2.0, counterValue(t, restEndpoint, OutcomeForwarded))
	assert.Equal(t, 1.0, counterValue(t, restEndpoint, OutcomeDropped))

	req := httptest.NewRequest(http.MethodGet, MetricsPath, nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	body, _ := io.ReadAll(w.Body)
	assert.Contains(t, string(body), `queryfilter_messages_total{outcome="forwarded"} 2`)
	assert.Contains(t, string(body), `queryfilter_messages_total{outcome="dropped"} 1`)
	assert.Contains(t, string(body), `queryfilter_message_duration_seconds_count 3`)
}

func TestRestComponents(t *testing.T) {
	restEndpoint, _ := newRest(t, types.Configuration{"query": `{}`})
	req := httptest.NewRequest(http.MethodGet, ComponentsPath, nil)
	w := httptest.NewRecorder()
	restEndpoint.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var forms []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &forms))
	require.Len(t, forms, 1)
	assert.Equal(t, filter.QueryFilterNodeType, forms[0]["type"])
}

func TestOutcomeOf(t *testing.T) {
	assert.Equal(t, OutcomeForwarded, OutcomeOf(engine.Result{Forwarded: true, RelationType: types.Success}))
	assert.Equal(t, OutcomeFailure, OutcomeOf(engine.Result{Forwarded: true, RelationType: types.Failure}))
	assert.Equal(t, OutcomeError, OutcomeOf(engine.Result{Err: engine.ErrStopped}))
	assert.Equal(t, OutcomeDropped, OutcomeOf(engine.Result{}))
}

func TestStartStop(t *testing.T) {
	restEndpoint, _ := newRest(t, types.Configuration{"query": `{}`})
	restEndpoint.Config.Addr = "127.0.0.1:0"
	done := make(chan error, 1)
	go func() {
		done <- restEndpoint.Start()
	}()
	time.Sleep(time.Millisecond * 100)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.Nil(t, restEndpoint.Stop(ctx))
	assert.Nil(t, <-done)
}

func TestStopBeforeStart(t *testing.T) {
	restEndpoint, _ := newRest(t, types.Configuration{"query": `{}`})
	restEndpoint.Config.Addr = "127.0.0.1:0"
	assert.Nil(t, restEndpoint.Stop(context.Background()))

	done := make(chan error, 1)
	go func() {
		done <- restEndpoint.Start()
	}()
	select {
	case err := <-done:
		assert.Nil(t, err)
	case <-time.After(time.Second):
		t.Fatal("server started after stop")
	}
}

func counterValue(t *testing.T, r *Rest, outcome string) float64 {
	families, err := r.Metrics().Registry().Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != "queryfilter_messages_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "outcome" && label.GetValue() == outcome {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}
