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

// Package rest exposes the profile use cases over HTTP.
package rest

import (
	"context"
	"net/http"

	"techstructure/core/profile/domain"
	"techstructure/modules/db"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gofrs/uuid/v5"
)

// PrincipalHeader carries the caller id injected by the gateway.
const PrincipalHeader = "X-Uuid"

// Application is the set of use cases the handlers call.
type Application interface {
	GetProfile(ctx context.Context, target, viewer uuid.UUID) (*domain.ProfileView, error)
	GetSmallProfile(ctx context.Context, target uuid.UUID) (*domain.SmallProfileView, error)
	GetSmallProfiles(ctx context.Context, ids []uuid.UUID) ([]domain.SmallProfileView, error)
	GetUserRecipes(ctx context.Context, author uuid.UUID) ([]domain.Recipe, error)
	GetUserReels(ctx context.Context, author uuid.UUID) ([]domain.Reel, error)
	GetUserEmail(ctx context.Context, id uuid.UUID) (string, error)
	GetUsername(ctx context.Context, id uuid.UUID) (string, error)
}

type ProfileAPI struct {
	app    Application
	health db.HealthManager
}

func NewProfileAPI(app Application, health db.HealthManager) *ProfileAPI {
	return &ProfileAPI{app: app, health: health}
}

// Routes builds the router. Static segments win over /{id} in chi, so /me,
// /small and /healthz never reach the profile handler.
func (p *ProfileAPI) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeProblem(w, notFoundProblem("no such resource"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeProblem(w, methodNotAllowedProblem())
	})

	r.Get("/healthz", p.Healthz)
	r.Get("/me", p.GetMe)
	r.Get("/small", p.GetSmallProfiles)
	r.Post("/small", p.GetSmallProfiles)
	r.Get("/small/{id}", p.GetSmallProfile)
	r.Get("/api/user/{id}/email", p.GetUserEmail)
	r.Get("/api/user/{id}/username", p.GetUsername)
	r.Get("/{id}", p.GetProfile)
	r.Get("/{id}/recipes", p.GetUserRecipes)
	r.Get("/{id}/reels", p.GetUserReels)
	return r
}

// Healthz returns 204 when the database answers a ping.
func (p *ProfileAPI) Healthz(w http.ResponseWriter, r *http.Request) {
	if p.health != nil {
		if err := p.health.HealthCheck(r.Context()); err != nil {
			writeProblem(w, unavailableProblem("database unavailable"))
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
