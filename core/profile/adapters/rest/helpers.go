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

package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"techstructure/core/profile/domain"
	"techstructure/modules/api/serde"
	"techstructure/modules/etag"
	"techstructure/modules/middleware/problem"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid/v5"
)

func writeProblem(w http.ResponseWriter, p *problem.Problem) { problem.Write(w, p) }

func notFoundProblem(detail string) *problem.Problem { return problem.NotFound(detail) }

func unavailableProblem(detail string) *problem.Problem { return problem.ServiceUnavailable(detail) }

func methodNotAllowedProblem() *problem.Problem {
	return problem.MethodNotAllowed("method not allowed")
}

// pathID binds the {id} segment; a malformed id is answered with a 400.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := serde.BindPathUUID("id", chi.URLParam(r, "id"))
	if err != nil {
		writeProblem(w, problem.BadRequest("invalid id", problem.WithInvalidParam("id", "must be a UUID")))
		return uuid.Nil, false
	}
	return id, true
}

// principal reads the caller id from PrincipalHeader.
func principal(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := serde.HeaderUUID(r, PrincipalHeader)
	if err != nil {
		writeError(r.Context(), w, domain.ErrMissingOrInvalidPrincipal)
		return uuid.Nil, false
	}
	return id, true
}

// writeCached writes v as JSON with a weak ETag, or 304 when the client
// already holds the same representation.
func writeCached(w http.ResponseWriter, r *http.Request, v any) {
	tag, err := etag.Of(v)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	w.Header().Set("ETag", tag)
	w.Header().Set("Cache-Control", "private, no-cache")
	if etag.Matches(r.Header.Get("If-None-Match"), tag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	serde.WriteJSON(w, http.StatusOK, v)
}

// writeError maps domain sentinels to problem documents.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	writeProblem(w, problemFor(ctx, err))
}

func problemFor(ctx context.Context, err error) *problem.Problem {
	switch {
	case errors.Is(err, domain.ErrMissingOrInvalidPrincipal):
		return problem.BadRequest("missing or invalid principal",
			problem.WithInvalidParam(PrincipalHeader, "must be a UUID"))
	case errors.Is(err, domain.ErrInvalidData):
		return problem.BadRequest(err.Error())
	case errors.Is(err, domain.ErrIdentityUnknown):
		return problem.NotFound("user not found")
	case errors.Is(err, domain.ErrProfileNotFound):
		return problem.NotFound("profile not found")
	case errors.Is(err, domain.ErrIdentityLookup):
		return problem.ServiceUnavailable("identity provider unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		return problem.ServiceUnavailable("request timed out")
	case errors.Is(err, domain.ErrImageNotFound):
		slog.ErrorContext(ctx, "profile image reference does not resolve", slog.Any("error", err))
		return problem.Internal("server error")
	default:
		if !errors.Is(err, domain.ErrUnhandled) {
			slog.ErrorContext(ctx, "unmapped error", slog.Any("error", err))
		}
		return problem.Internal("server error")
	}
}
