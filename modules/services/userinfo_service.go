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

// Package services adapts each HTTP surface into a server.RegistrableService.
package services

import (
	"net/http"

	"techstructure/modules/middleware"
	"techstructure/modules/server"
	"techstructure/modules/telemetry"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
)

var _ server.RegistrableService = (*UserinfoService)(nil)

// UserinfoService mounts the profile API behind request validation.
type UserinfoService struct {
	routes  http.Handler
	doc     *openapi3.T
	metrics *telemetry.HTTPMetrics
}

// NewUserinfoService wraps routes. doc may be nil to skip validation;
// metrics may be nil to skip instrumentation.
func NewUserinfoService(routes http.Handler, doc *openapi3.T, metrics *telemetry.HTTPMetrics) *UserinfoService {
	return &UserinfoService{routes: routes, doc: doc, metrics: metrics}
}

// Register mounts a chi router at the mux root. Metrics sit inside chi so
// they are labelled with the matched route pattern.
func (s *UserinfoService) Register(mux *http.ServeMux) {
	r := chi.NewRouter()
	r.Use(middleware.Telemetry(s.metrics, middleware.ChiRouteLabel))
	if s.doc != nil {
		r.Use(middleware.OpenAPIValidation(s.doc))
	}
	r.Mount("/", s.routes)
	mux.Handle("/", r)
}

func (s *UserinfoService) Middlewares() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.Recovery(nil),
	}
}
