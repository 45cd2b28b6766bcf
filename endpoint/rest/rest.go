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

// Package rest exposes a rule engine over HTTP.
//
// Routes:
//
//	POST /api/v1/msg/:msgType  execute the request body as a message
//	GET  /api/v1/components    list the registered component forms
//	GET  /metrics              prometheus metrics
//
// A forwarded message is answered with 200 and the message data. A message
// the node did not forward is answered with 422.
package rest

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/textproto"
	"strings"
	"sync"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rulego/queryfilter/api/types"
	"github.com/rulego/queryfilter/engine"
	"github.com/rulego/queryfilter/utils/json"
	"github.com/rulego/queryfilter/utils/reflect"
)

const (
	ContentTypeKey  = "Content-Type"
	JsonContextType = "application/json"
	MsgIdKey        = "X-Msg-Id"
	MsgTypeParam    = "msgType"

	MsgPath        = "/api/v1/msg/:" + MsgTypeParam
	ComponentsPath = "/api/v1/components"
	MetricsPath    = "/metrics"
)

// RequestMessage http请求消息
type RequestMessage struct {
	request *http.Request
	body    []byte
	//路径参数
	Params httprouter.Params
	msg    *types.RuleMsg
}

func (r *RequestMessage) Body() []byte {
	if r.body == nil && r.request.Body != nil {
		defer func() {
			_ = r.request.Body.Close()
		}()
		entry, _ := io.ReadAll(r.request.Body)
		r.body = entry
	}
	return r.body
}

func (r *RequestMessage) Headers() textproto.MIMEHeader {
	return textproto.MIMEHeader(r.request.Header)
}

func (r *RequestMessage) From() string {
	return r.request.URL.String()
}

// GetParam returns the path parameter key, or the form value key.
func (r *RequestMessage) GetParam(key string) string {
	if v := r.Params.ByName(key); v != "" {
		return v
	}
	return r.request.FormValue(key)
}

// GetMsg 把请求转换成 RuleMsg
// Path parameters and query parameters are copied into the metadata. The body
// is JSON data when Content-Type is application/json, otherwise text.
func (r *RequestMessage) GetMsg() *types.RuleMsg {
	if r.msg == nil {
		metadata := types.NewMetadata()
		for k, v := range r.request.URL.Query() {
			if len(v) > 0 {
				metadata.PutValue(k, v[0])
			}
		}
		for _, param := range r.Params {
			metadata.PutValue(param.Key, param.Value)
		}
		dataType := types.TEXT
		if contentType := r.Headers().Get(ContentTypeKey); strings.HasPrefix(contentType, JsonContextType) {
			dataType = types.JSON
		}
		ruleMsg := types.NewMsg(time.Now().UnixMilli(), r.GetParam(MsgTypeParam), dataType, metadata, string(r.Body()))
		r.msg = &ruleMsg
	}
	return r.msg
}

// Config Rest 服务配置
type Config struct {
	Addr        string
	CertFile    string
	CertKeyFile string
}

// Rest 接收端端点
type Rest struct {
	//配置
	Config     Config
	ruleEngine *engine.RuleEngine
	metrics    *Metrics
	router     *httprouter.Router
	server     *http.Server
	// stopped Stop 已调用，之后的 Start 不再监听
	stopped bool
	lock    sync.Mutex
}

// New creates an endpoint that executes messages on ruleEngine.
func New(config Config, ruleEngine *engine.RuleEngine) *Rest {
	r := &Rest{
		Config:     config,
		ruleEngine: ruleEngine,
		metrics:    NewMetrics(),
		router:     httprouter.New(),
	}
	r.router.POST(MsgPath, r.msgHandler)
	r.router.GET(ComponentsPath, r.componentsHandler)
	r.router.Handler(http.MethodGet, MetricsPath, promhttp.HandlerFor(r.metrics.Registry(), promhttp.HandlerOpts{}))
	r.router.PanicHandler = func(w http.ResponseWriter, req *http.Request, e interface{}) {
		r.logger().Printf("rest handler err :%v", e)
		w.WriteHeader(http.StatusInternalServerError)
	}
	return r
}

// Router returns the http handler of the endpoint.
func (r *Rest) Router() http.Handler {
	return r.router
}

// Metrics returns the metrics collected by the endpoint.
func (r *Rest) Metrics() *Metrics {
	return r.metrics
}

// Start serves until Stop is called.
func (r *Rest) Start() error {
	server := &http.Server{Addr: r.Config.Addr, Handler: r.router}
	r.lock.Lock()
	if r.stopped {
		r.lock.Unlock()
		return nil
	}
	r.server = server
	r.lock.Unlock()
	var err error
	if r.Config.CertKeyFile != "" && r.Config.CertFile != "" {
		r.logger().Printf("starting server with TLS on %s", r.Config.Addr)
		err = server.ListenAndServeTLS(r.Config.CertFile, r.Config.CertKeyFile)
	} else {
		r.logger().Printf("starting server on %s", r.Config.Addr)
		err = server.ListenAndServe()
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop shuts the server down gracefully. A Start after Stop returns nil
// without serving.
func (r *Rest) Stop(ctx context.Context) error {
	r.lock.Lock()
	r.stopped = true
	server := r.server
	r.lock.Unlock()
	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

func (r *Rest) logger() types.Logger {
	return types.NewLogger(r.ruleEngine.Config.Logger)
}

func (r *Rest) msgHandler(w http.ResponseWriter, req *http.Request, params httprouter.Params) {
	start := time.Now()
	in := &RequestMessage{request: req, Params: params}
	msg := in.GetMsg()

	result := r.ruleEngine.OnMsg(req.Context(), *msg)
	outcome := OutcomeOf(result)
	r.metrics.Observe(outcome, time.Since(start))

	w.Header().Set(MsgIdKey, result.Msg.Id)
	switch outcome {
	case OutcomeForwarded:
		w.Header().Set(ContentTypeKey, JsonContextType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(result.Msg.Data))
	case OutcomeError:
		writeError(w, http.StatusInternalServerError, result.Err)
	default:
		err := result.Err
		if err == nil {
			err = engine.ErrNotForwarded
		}
		writeError(w, http.StatusUnprocessableEntity, err)
	}
}

func (r *Rest) componentsHandler(w http.ResponseWriter, req *http.Request, params httprouter.Params) {
	var forms = []reflect.ComponentForm{}
	if registry, ok := r.ruleEngine.Config.ComponentsRegistry.(interface {
		GetComponentForms() []reflect.ComponentForm
	}); ok {
		forms = registry.GetComponentForms()
	}
	body, err := json.Marshal(forms)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set(ContentTypeKey, JsonContextType)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, statusCode int, err error) {
	body, _ := json.Marshal(map[string]string{"error": err.Error()})
	w.Header().Set(ContentTypeKey, JsonContextType)
	w.WriteHeader(statusCode)
	_, _ = w.Write(body)
}
