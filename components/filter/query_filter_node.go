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

package filter

//规则链节点配置示例：
//{
//        "id": "s1",
//        "type": "queryFilter",
//        "name": "查询过滤器",
//        "configuration": {
//          "query": "{ \"status\": \"{{status}}\" }"
//        }
//      }
import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rulego/queryfilter/api/types"
	"github.com/rulego/queryfilter/components/base"
	"github.com/rulego/queryfilter/utils/cache"
	"github.com/rulego/queryfilter/utils/el"
	"github.com/rulego/queryfilter/utils/json"
	"github.com/rulego/queryfilter/utils/maps"
	"github.com/rulego/queryfilter/utils/query"
)

// QueryFilterNodeType 组件类型
const QueryFilterNodeType = "queryFilter"

// DefaultPayloadPath is where the collection is read from and written back to.
const DefaultPayloadPath = "payload"

// DefaultCacheTTL is the expiration of cached queries when cacheSize is set.
const DefaultCacheTTL = "10m"

// Stages of a message transformation.
const (
	StageDecode = "decode"
	StageRender = "render"
	StageParse  = "parse"
	StageFilter = "filter"
	StageEncode = "encode"
)

var (
	ErrQueryEmpty      = errors.New("query can not be empty")
	ErrPayloadNotFound = errors.New("payload not found")
)

func init() {
	Registry.Add(&QueryFilterNode{})
}

// TransformError is the reason a message was not forwarded.
type TransformError struct {
	Stage string
	Err   error
}

func (e *TransformError) Error() string {
	return e.Stage + ": " + e.Err.Error()
}

func (e *TransformError) Unwrap() error {
	return e.Err
}

// QueryFilterNodeConfiguration 节点配置
type QueryFilterNodeConfiguration struct {
	// Query 查询模板，使用mustache语法渲染，渲染结果为查询文档
	// 例如：{ "status": "{{status}}" } 或者 { "age": { "$gte": {{minAge}} } }
	Query string `label:"查询" desc:"mustache查询模板，渲染结果为查询文档" required:"true"`
	// Syntax 查询文档的语法：json 或 yaml，默认json
	Syntax string `label:"语法" desc:"json or yaml"`
	// PayloadPath 待过滤集合的路径，默认payload
	PayloadPath string `label:"集合路径" desc:"path of the collection in the message"`
	// AllowExpr 是否允许$expr操作符
	AllowExpr bool `label:"允许$expr" desc:"enable the $expr operator"`
	// RouteFailure 失败时是否发送到`Failure`链，默认只记录告警
	RouteFailure bool `label:"失败路由" desc:"send failed messages to the Failure relation"`
	// CacheSize 缓存已解析查询的数量，默认0不缓存
	CacheSize int `label:"缓存大小" desc:"number of parsed queries to cache, 0 disables the cache"`
	// CacheTTL 已解析查询的缓存时间，例如：10m，为空不过期
	CacheTTL string `label:"缓存时间" desc:"expiration of cached queries, e.g. 10m"`
}

// QueryFilterNode 使用查询过滤消息负载中的集合
// 节点使用消息字段渲染查询模板，把渲染结果解析为查询文档，
// 然后保留负载集合中匹配查询的元素（保持原有顺序），并通过`Success`链发送消息。
// 渲染、解析或者过滤失败时记录一条告警，消息不会被发送。
// 模板中可以访问消息的顶层字段，以及 `metadata`、`msgType`、`id`、`ts`、`global` 变量
type QueryFilterNode struct {
	//节点配置
	Config   QueryFilterNodeConfiguration
	syntax   query.Syntax
	template el.Template
	// 渲染结果->*query.Query
	queries *cache.MemoryCache
}

// Type 组件类型
func (x *QueryFilterNode) Type() string {
	return QueryFilterNodeType
}

func (x *QueryFilterNode) New() types.Node {
	return &QueryFilterNode{Config: QueryFilterNodeConfiguration{
		Syntax:      string(query.SyntaxJSON),
		PayloadPath: DefaultPayloadPath,
		CacheTTL:    DefaultCacheTTL,
	}}
}

// Init 初始化
func (x *QueryFilterNode) Init(ruleConfig types.Config, configuration types.Configuration) error {
	if err := maps.Map2Struct(configuration, &x.Config); err != nil {
		return err
	}
	if strings.TrimSpace(x.Config.Query) == "" {
		return ErrQueryEmpty
	}
	if x.Config.PayloadPath == "" {
		x.Config.PayloadPath = DefaultPayloadPath
	}
	syntax, err := query.ParseSyntax(x.Config.Syntax)
	if err != nil {
		return err
	}
	x.syntax = syntax
	template, err := el.NewTemplate(x.Config.Query)
	if err != nil {
		return fmt.Errorf("invalid query template: %w", err)
	}
	x.template = template
	if x.Config.CacheSize > 0 {
		var ttl time.Duration
		if x.Config.CacheTTL != "" {
			if ttl, err = time.ParseDuration(x.Config.CacheTTL); err != nil {
				return fmt.Errorf("invalid cacheTTL: %w", err)
			}
		}
		x.queries = cache.NewMemoryCache(x.Config.CacheSize, ttl)
		x.queries.StartGC()
	}
	return nil
}

// OnMsg 处理消息
func (x *QueryFilterNode) OnMsg(ctx types.RuleContext, msg types.RuleMsg) {
	if err := x.transform(ctx, &msg); err != nil {
		ctx.Config().Logger.Printf("[WARN] %s(%s): message %s not forwarded: %v", x.Type(), ctx.GetSelfId(), msg.Id, err)
		if x.Config.RouteFailure {
			ctx.TellFailure(msg, err)
		}
		return
	}
	ctx.TellSuccess(msg)
}

// Destroy 销毁
func (x *QueryFilterNode) Destroy() {
	if x.queries != nil {
		x.queries.StopGC()
	}
}

// parse returns the compiled query of a rendered template.
func (x *QueryFilterNode) parse(text string) (*query.Query, error) {
	if x.queries != nil {
		if v, ok := x.queries.Get(text); ok {
			return v.(*query.Query), nil
		}
	}
	q, err := query.Parse(text, query.WithSyntax(x.syntax), query.WithExpr(x.Config.AllowExpr))
	if err != nil {
		return nil, err
	}
	if x.queries != nil {
		x.queries.Set(text, q)
	}
	return q, nil
}

// transform replaces the payload of msg with the matching elements.
// msg is only modified when no error is returned.
func (x *QueryFilterNode) transform(ctx types.RuleContext, msg *types.RuleMsg) (err error) {
	stage := StageDecode
	defer func() {
		if r := recover(); r != nil {
			err = &TransformError{Stage: stage, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	obj, err := base.NodeUtils.GetMsgObject(*msg)
	if err != nil {
		return &TransformError{Stage: stage, Err: err}
	}

	stage = StageRender
	text, err := x.template.Execute(base.NodeUtils.GetEvn(ctx, *msg, obj))
	if err != nil {
		return &TransformError{Stage: stage, Err: err}
	}

	stage = StageParse
	q, err := x.parse(text)
	if err != nil {
		return &TransformError{Stage: stage, Err: fmt.Errorf("%w, query: %s", err, text)}
	}

	stage = StageFilter
	payload, ok := maps.GetE(obj, x.Config.PayloadPath)
	if !ok {
		return &TransformError{Stage: stage, Err: fmt.Errorf("%w: %s", ErrPayloadNotFound, x.Config.PayloadPath)}
	}
	result, err := q.Filter(payload)
	if err != nil {
		return &TransformError{Stage: stage, Err: err}
	}
	if err = maps.Set(obj, x.Config.PayloadPath, result); err != nil {
		return &TransformError{Stage: stage, Err: err}
	}

	stage = StageEncode
	data, err := json.Marshal(obj)
	if err != nil {
		return &TransformError{Stage: stage, Err: err}
	}
	msg.Data = string(data)
	return nil
}
