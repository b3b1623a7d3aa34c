// Copyright 2025 Nhat-Nguyen Nguyen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package problem writes RFC 7807 problem documents.
package problem

import (
	"encoding/json"
	"net/http"
)

// Problem is an RFC 7807 document. Extensions are merged into the top-level
// object on encoding.
type Problem struct {
	Code          *string         `json:"code,omitempty"`
	Detail        *string         `json:"detail,omitempty"`
	Instance      *string         `json:"instance,omitempty"`
	InvalidParams *[]InvalidParam `json:"invalidParams,omitempty"`
	Status        int             `json:"status"`
	Title         string          `json:"title"`
	TraceID       *string         `json:"traceId,omitempty"`
	Type          *string         `json:"type,omitempty"`

	Extensions map[string]any `json:"-"`
}

type InvalidParam struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

type Option func(*Problem)

func New(opts ...Option) *Problem {
	p := &Problem{
		Type:   strPtr("about:blank"),
		Status: http.StatusInternalServerError,
		Detail: strPtr("unhandled error"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if p.Type == nil {
		p.Type = strPtr("about:blank")
	}
	if p.Title == "" {
		p.Title = http.StatusText(p.Status)
		if p.Title == "" {
			p.Title = "Unknown Error"
		}
	}
	return p
}

func Write(w http.ResponseWriter, p *Problem) {
	if p == nil {
		p = Internal("server error")
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

func WithStatus(status int) Option {
	return func(p *Problem) { p.Status = status }
}

func WithTitle(title string) Option {
	return func(p *Problem) { p.Title = title }
}

func WithDetail(detail string) Option {
	return func(p *Problem) { p.Detail = strPtr(detail) }
}

func WithType(typ string) Option {
	return func(p *Problem) { p.Type = strPtr(typ) }
}

func WithCode(code string) Option {
	return func(p *Problem) { p.Code = strPtr(code) }
}

func WithInstance(instance string) Option {
	return func(p *Problem) { p.Instance = strPtr(instance) }
}

func WithTraceID(traceID string) Option {
	return func(p *Problem) { p.TraceID = strPtr(traceID) }
}

func WithInvalidParam(name, reason string) Option {
	return func(p *Problem) {
		var params []InvalidParam
		if p.InvalidParams != nil {
			params = *p.InvalidParams
		}
		params = append(params, InvalidParam{Name: name, Reason: reason})
		p.InvalidParams = &params
	}
}

func WithExtension(key string, value any) Option {
	return func(p *Problem) {
		if p.Extensions == nil {
			p.Extensions = map[string]any{}
		}
		p.Extensions[key] = value
	}
}

// Status builds a problem for an arbitrary HTTP status.
func Status(status int, detail string, opts ...Option) *Problem {
	base := []Option{WithStatus(status), WithTitle(http.StatusText(status)), WithDetail(detail)}
	return New(append(base, opts...)...)
}

func BadRequest(detail string, opts ...Option) *Problem {
	return Status(http.StatusBadRequest, detail, opts...)
}

func Unauthorized(detail string, opts ...Option) *Problem {
	return Status(http.StatusUnauthorized, detail, opts...)
}

func NotFound(detail string, opts ...Option) *Problem {
	return Status(http.StatusNotFound, detail, opts...)
}

func MethodNotAllowed(detail string, opts ...Option) *Problem {
	return Status(http.StatusMethodNotAllowed, detail, opts...)
}

func TooManyRequests(detail string, opts ...Option) *Problem {
	return Status(http.StatusTooManyRequests, detail, opts...)
}

func Internal(detail string, opts ...Option) *Problem {
	return Status(http.StatusInternalServerError, detail, opts...)
}

func BadGateway(detail string, opts ...Option) *Problem {
	return Status(http.StatusBadGateway, detail, opts...)
}

func ServiceUnavailable(detail string, opts ...Option) *Problem {
	return Status(http.StatusServiceUnavailable, detail, opts...)
}

func strPtr(s string) *string { return &s }

func (p Problem) MarshalJSON() ([]byte, error) {
	// alias drops the method set so json.Marshal does not recurse.
	type alias Problem
	base, err := json.Marshal(alias(p))
	if err != nil || len(p.Extensions) == 0 {
		return base, err
	}
	var m map[string]any
	if err := json.Unmarshal(base, &m); err != nil {
		return nil, err
	}
	for k, v := range p.Extensions {
		if _, exists := m[k]; !exists {
			m[k] = v
		}
	}
	return json.Marshal(m)
}
