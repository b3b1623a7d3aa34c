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
	"errors"
	"net/http"

	"techstructure/core/profile/domain"
	"techstructure/modules/api/serde"
	"techstructure/modules/middleware/problem"

	"github.com/gofrs/uuid/v5"
)

// GetMe returns the caller's own profile.
func (p *ProfileAPI) GetMe(w http.ResponseWriter, r *http.Request) {
	viewer, ok := principal(w, r)
	if !ok {
		return
	}
	view, err := p.app.GetProfile(r.Context(), viewer, viewer)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeCached(w, r, view)
}

// GetProfile returns the profile of {id} as seen by the caller.
func (p *ProfileAPI) GetProfile(w http.ResponseWriter, r *http.Request) {
	target, ok := pathID(w, r)
	if !ok {
		return
	}
	viewer, ok := principal(w, r)
	if !ok {
		return
	}
	view, err := p.app.GetProfile(r.Context(), target, viewer)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeCached(w, r, view)
}

func (p *ProfileAPI) GetSmallProfile(w http.ResponseWriter, r *http.Request) {
	target, ok := pathID(w, r)
	if !ok {
		return
	}
	view, err := p.app.GetSmallProfile(r.Context(), target)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeCached(w, r, view)
}

// GetSmallProfiles resolves a JSON array of ids. GET with a body is kept for
// existing clients; POST is the preferred form.
func (p *ProfileAPI) GetSmallProfiles(w http.ResponseWriter, r *http.Request) {
	var ids []uuid.UUID
	if err := serde.ParseJSONBody(w, r, &ids); err != nil {
		detail := "body must be a JSON array of UUIDs"
		if errors.Is(err, serde.ErrEmptyBody) {
			detail = "request body is required"
		}
		writeProblem(w, problem.BadRequest(detail, problem.WithInvalidParam("body", "invalid value")))
		return
	}
	views, err := p.app.GetSmallProfiles(r.Context(), ids)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	if views == nil {
		views = []domain.SmallProfileView{}
	}
	serde.WriteJSON(w, http.StatusOK, views)
}

func (p *ProfileAPI) GetUserRecipes(w http.ResponseWriter, r *http.Request) {
	author, ok := pathID(w, r)
	if !ok {
		return
	}
	items, err := p.app.GetUserRecipes(r.Context(), author)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	serde.WriteJSON(w, http.StatusOK, items)
}

func (p *ProfileAPI) GetUserReels(w http.ResponseWriter, r *http.Request) {
	author, ok := pathID(w, r)
	if !ok {
		return
	}
	items, err := p.app.GetUserReels(r.Context(), author)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	serde.WriteJSON(w, http.StatusOK, items)
}
