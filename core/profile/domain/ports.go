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
	"context"

	"github.com/gofrs/uuid/v5"
)

// IdentityProvider resolves accounts. Implementations return
// ErrIdentityUnknown for ids the provider does not know and wrap every other
// failure in ErrIdentityLookup.
type IdentityProvider interface {
	GetUser(ctx context.Context, id uuid.UUID) (Identity, error)
}

type ProfileStore interface {
	// GetProfile returns ErrProfileNotFound when owner has no row.
	GetProfile(ctx context.Context, owner uuid.UUID) (Profile, error)
	// RegisterProfile inserts p unless a row for p.OwnerID exists, and
	// returns the row that is stored either way.
	RegisterProfile(ctx context.Context, p Profile) (Profile, error)
}

type ImageStore interface {
	// GetImageURL returns ErrImageNotFound for unknown ids.
	GetImageURL(ctx context.Context, id uuid.UUID) (string, error)
}

type RecipeStore interface {
	ListRecipesByAuthor(ctx context.Context, author uuid.UUID) ([]Recipe, error)
}

type ReelStore interface {
	ListReelsByAuthor(ctx context.Context, author uuid.UUID) ([]Reel, error)
}
