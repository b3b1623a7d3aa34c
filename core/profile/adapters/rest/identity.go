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
	"net/http"

	"techstructure/modules/api/serde"
)

func (p *ProfileAPI) GetUserEmail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	email, err := p.app.GetUserEmail(r.Context(), id)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	serde.WriteText(w, http.StatusOK, email)
}

func (p *ProfileAPI) GetUsername(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	name, err := p.app.GetUsername(r.Context(), id)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	serde.WriteText(w, http.StatusOK, name)
}
