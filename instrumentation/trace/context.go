// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package trace

import (
	"context"
	"github.com/google/uuid"
	"github.com/orbs-network/scribe/log"
	"net/http"
	"time"
)

type entryPointKeyType string

const entryPointKey entryPointKeyType = "ep"

const RequestId = "request-id"
const RequestIdHeader = "X-Request-Id"
const RequestTraceName = "X-Trace-Name"

type Context struct {
	created   time.Time
	name      string
	requestId string
}

func NewContext(parent context.Context, name string) context.Context {
	return newContextWithId(parent, name, name+"-"+uuid.New().String())
}

func newContextWithId(parent context.Context, name string, requestId string) context.Context {
	ep := &Context{
		name:      name,
		created:   time.Now(),
		requestId: requestId,
	}
	return context.WithValue(parent, entryPointKey, ep)
}

// honors an incoming X-Request-Id so callers can correlate their own logs
func NewFromRequest(parent context.Context, r *http.Request) context.Context {
	name := r.Method + " " + r.URL.Path
	if requestId := r.Header.Get(RequestIdHeader); requestId != "" {
		return newContextWithId(parent, name, requestId)
	}
	return NewContext(parent, name)
}

func PropagateContext(parent context.Context, tracingContext *Context) context.Context {
	return context.WithValue(parent, entryPointKey, tracingContext)
}

func FromContext(ctx context.Context) (e *Context, ok bool) {
	e, ok = ctx.Value(entryPointKey).(*Context)
	return
}

func (c *Context) RequestId() string {
	if c == nil {
		return ""
	}
	return c.requestId
}

func (c *Context) Name() string {
	if c == nil {
		return ""
	}
	return c.name
}

func (c *Context) Elapsed() time.Duration {
	return time.Since(c.created)
}

func (c *Context) WriteTraceToResponse(w http.ResponseWriter) {
	w.Header().Set(RequestIdHeader, c.requestId)
}

func LogFieldFrom(ctx context.Context) *log.Field {
	if trace, ok := FromContext(ctx); ok {
		return log.String(RequestId, trace.requestId)
	} else {
		return log.String(RequestId, "NO-CONTEXT")
	}
}
