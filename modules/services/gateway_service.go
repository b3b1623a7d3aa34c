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

package services

import (
	"net/http"

	"techstructure/modules/middleware"
	"techstructure/modules/server"
	"techstructure/modules/telemetry"
)

var _ server.RegistrableService = (*GatewayService)(nil)

type GatewayService struct {
	router  http.Handler
	metrics *telemetry.HTTPMetrics
	label   middleware.RouteLabelFunc
}

// NewGatewayService labels metrics with label, which should map requests
// onto configured routes to keep cardinality low.
func NewGatewayService(router http.Handler, metrics *telemetry.HTTPMetrics, label middleware.RouteLabelFunc) *GatewayService {
	return &GatewayService{router: router, metrics: metrics, label: label}
}

func (s *GatewayService) Register(mux *http.ServeMux) {
	mux.Handle("/", s.router)
}

func (s *GatewayService) Middlewares() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.Recovery(nil),
		middleware.Telemetry(s.metrics, s.label),
	}
}
