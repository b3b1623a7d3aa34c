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

// Package middleware holds net/http middleware shared by the gateway and
// the userinfo service.
package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"techstructure/modules/middleware/problem"
)

type PanicHandler func(w http.ResponseWriter, r *http.Request, recovered any)

// WriteInternalProblem answers a recovered panic with a 500 problem.
func WriteInternalProblem(w http.ResponseWriter, _ *http.Request, _ any) {
	problem.Write(w, problem.Internal("unexpected server error"))
}

func Recovery(handler PanicHandler) func(http.Handler) http.Handler {
	if handler == nil {
		handler = WriteInternalProblem
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil || rec == http.ErrAbortHandler {
					if rec != nil {
						panic(rec)
					}
					return
				}
				slog.ErrorContext(r.Context(), "panic serving request",
					slog.Any("error", rec),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("stack", string(debug.Stack())),
				)
				handler(w, r, rec)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
