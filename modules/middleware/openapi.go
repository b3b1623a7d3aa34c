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
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"techstructure/modules/middleware/problem"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	nethttpmiddleware "github.com/oapi-codegen/nethttp-middleware"
)

// LoadOpenAPI reads and validates the document at path inside fsys.
func LoadOpenAPI(ctx context.Context, fsys fs.FS, path string) (*openapi3.T, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("openapi: read %s: %w", path, err)
	}
	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("openapi: parse %s: %w", path, err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("openapi: invalid %s: %w", path, err)
	}
	return doc, nil
}

// OpenAPIValidation rejects requests that do not match doc with a 400
// problem listing the offending parameters.
func OpenAPIValidation(doc *openapi3.T) func(http.Handler) http.Handler {
	return nethttpmiddleware.OapiRequestValidatorWithOptions(doc, &nethttpmiddleware.Options{
		Options:               openapi3filter.Options{MultiError: true},
		DoNotValidateServers:  true,
		SilenceServersWarning: true,
		ErrorHandlerWithOpts: func(ctx context.Context, err error, w http.ResponseWriter, r *http.Request, opts nethttpmiddleware.ErrorHandlerOpts) {
			status := opts.StatusCode
			if status == 0 {
				status = http.StatusBadRequest
			}
			if status == http.StatusNotFound {
				problem.Write(w, problem.NotFound("no such route"))
				return
			}
			slog.DebugContext(ctx, "request failed validation",
				slog.String("path", r.URL.Path),
				slog.Any("error", err),
			)

			var popts []problem.Option
			for _, fe := range FieldErrors(err) {
				popts = append(popts, problem.WithInvalidParam(fe.Field, fe.Reason))
			}
			problem.Write(w, problem.Status(status, "request does not match the API description", popts...))
		},
	})
}

type FieldError struct {
	Field  string
	Reason string
}

// FieldErrors flattens a validation error into per-field reasons without
// echoing client input.
func FieldErrors(err error) []FieldError {
	var multi openapi3.MultiError
	if errors.As(err, &multi) {
		var out []FieldError
		for _, item := range multi {
			out = append(out, FieldErrors(item)...)
		}
		return out
	}

	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) {
		field := "body"
		if reqErr.Parameter != nil {
			field = reqErr.Parameter.Name
		}
		var schemaErr *openapi3.SchemaError
		if errors.As(reqErr.Err, &schemaErr) {
			if reqErr.Parameter == nil {
				field = pointerField(schemaErr.JSONPointer())
			}
			return []FieldError{{Field: field, Reason: schemaErr.Reason}}
		}
		if errors.Is(reqErr.Err, openapi3filter.ErrInvalidRequired) {
			return []FieldError{{Field: field, Reason: "is required"}}
		}
		return []FieldError{{Field: field, Reason: safeReason(reqErr.Reason)}}
	}

	var schemaErr *openapi3.SchemaError
	if errors.As(err, &schemaErr) {
		return []FieldError{{Field: pointerField(schemaErr.JSONPointer()), Reason: schemaErr.Reason}}
	}

	var secErr *openapi3filter.SecurityRequirementsError
	if errors.As(err, &secErr) {
		return []FieldError{{Field: "authorization", Reason: "missing or invalid credentials"}}
	}
	return []FieldError{{Field: "request", Reason: "invalid value"}}
}

func pointerField(ptr []string) string {
	if len(ptr) == 0 || ptr[0] == "" {
		return "body"
	}
	return strings.Join(ptr, "/")
}

func safeReason(reason string) string {
	if strings.Contains(strings.ToLower(reason), "must be one of") {
		return reason
	}
	return "invalid value"
}
