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

package domain

import (
	"github.com/gofrs/uuid/v5"
	"github.com/oapi-codegen/nullable"
)

type (
	// Identity is the account as the identity provider reports it.
	Identity struct {
		ID       uuid.UUID
		Username string
		Email    string
		Banned   bool
	}

	// Profile is the locally stored part of a user.
	Profile struct {
		OwnerID      uuid.UUID
		ImageID      uuid.UUID
		ImageSmallID uuid.UUID
		IsPrivate    bool
		Description  string
	}

	Recipe struct {
		ID          uuid.UUID `json:"id"`
		AuthorID    uuid.UUID `json:"authorId"`
		Name        string    `json:"name"`
		Description string    `json:"description"`
	}

	Reel struct {
		ID          uuid.UUID `json:"id"`
		AuthorID    uuid.UUID `json:"authorId"`
		VideoID     uuid.UUID `json:"videoId"`
		Title       string    `json:"title"`
		Description string    `json:"description"`
	}

	// ProfileView is the aggregated profile. Fields left unset are omitted
	// from the JSON document: image and privacy fields for banned users, and
	// bio plus content for private profiles seen by someone else.
	ProfileView struct {
		UserUUID      uuid.UUID                      `json:"userUuid"`
		UserName      string                         `json:"userName"`
		ImageURL      nullable.Nullable[string]      `json:"imageUrl,omitempty"`
		ImageSmallURL nullable.Nullable[string]      `json:"imageSmallUrl,omitempty"`
		IsPrivate     nullable.Nullable[bool]        `json:"isPrivate,omitempty"`
		IsBanned      bool                           `json:"isBanned"`
		Bio           nullable.Nullable[string]      `json:"bio,omitempty"`
		Followers     nullable.Nullable[[]uuid.UUID] `json:"followers,omitempty"`
		Recipes       nullable.Nullable[[]uuid.UUID] `json:"recipes,omitempty"`
		Reels         nullable.Nullable[[]uuid.UUID] `json:"reels,omitempty"`
	}

	SmallProfileView struct {
		UserUUID      uuid.UUID                 `json:"userUuid"`
		Username      string                    `json:"username"`
		ImageURL      nullable.Nullable[string] `json:"imageUrl,omitempty"`
		ImageSmallURL nullable.Nullable[string] `json:"imageSmallUrl,omitempty"`
		IsBanned      bool                      `json:"isBanned"`
	}
)

// Full reports whether bio and content are part of the view.
func (v ProfileView) Full() bool { return v.Bio.IsSpecified() }
