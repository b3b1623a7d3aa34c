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

package middleware

import (
	"net/http"
	"time"

	"techstructure/modules/telemetry"

	"github.com/go-chi/chi/v5"
)

type responseRecorder struct {
	http.ResponseWriter
	status      int
	written     int64
	wroteHeader bool
}

func (r *responseRecorder) WriteHeader(code int) {
	if r.wroteHeader {
		return
	}
	r.status = code
	r.wroteHeader = true
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	n, err := r.ResponseWriter.Write(b)
	r.written += int64(n)
	return n, err
}

// Unwrap lets http.ResponseController reach Flush on the real writer, which
// the reverse proxy needs for streamed responses.
func (r *responseRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// RouteLabelFunc returns a low-cardinality label for r.
type RouteLabelFunc func(r *http.Request) string

// PatternLabel uses the ServeMux pattern that matched r.
func PatternLabel(r *http.Request) string {
	if r.Pattern == "" {
		return "unmatched"
	}
	return r.Pattern
}

// ChiRouteLabel uses the chi route pattern. The middleware must run inside
// the chi router, where the pattern is known once the handler returns.
func ChiRouteLabel(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// Telemetry records metrics for every request. It should wrap the whole
// chain so problems written by inner middleware are counted.
func Telemetry(metrics *telemetry.HTTPMetrics, label RouteLabelFunc) func(http.Handler) http.Handler {
	if label == nil {
		label = PatternLabel
	}
	return func(next http.Handler) http.Handler {
		if metrics == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			metrics.RecordRequest(r.Context(), r.Method, label(r),
				rec.status, float64(time.Since(start).Microseconds())/1000, rec.written)
		})
	}
}
