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

// Package domain aggregates a user's profile from the identity provider,
// the profile store and the content stores.
package domain

import (
	"github.com/gofrs/uuid/v5"
)

// Settings holds the defaults applied to newly registered profiles and the
// bounds for bulk lookups.
type Settings struct {
	DefaultImageID     uuid.UUID `env:"DEFAULT_IMAGE_ID" envDefault:"847cd648-bcf5-4b5d-8905-e579a285b5e6"`
	DefaultDescription string    `env:"DEFAULT_DESCRIPTION" envDefault:"New account"`
	BulkConcurrency    int       `env:"BULK_CONCURRENCY" envDefault:"8"`
	MaxBulkIDs         int       `env:"MAX_BULK_IDS" envDefault:"100"`
}

// DefaultSettings matches the env defaults above.
func DefaultSettings() Settings {
	return Settings{
		DefaultImageID:     uuid.Must(uuid.FromString("847cd648-bcf5-4b5d-8905-e579a285b5e6")),
		DefaultDescription: "New account",
		BulkConcurrency:    8,
		MaxBulkIDs:         100,
	}
}

type Application struct {
	identities IdentityProvider
	profiles   ProfileStore
	images     ImageStore
	recipes    RecipeStore
	reels      ReelStore
	settings   Settings
}

func NewApp(
	identities IdentityProvider,
	profiles ProfileStore,
	images ImageStore,
	recipes RecipeStore,
	reels ReelStore,
	settings Settings,
) *Application {
	if settings.BulkConcurrency <= 0 {
		settings.BulkConcurrency = 1
	}
	return &Application{
		identities: identities,
		profiles:   profiles,
		images:     images,
		recipes:    recipes,
		reels:      reels,
		settings:   settings,
	}
}

func (app *Application) defaultProfile(owner uuid.UUID) Profile {
	return Profile{
		OwnerID:      owner,
		ImageID:      app.settings.DefaultImageID,
		ImageSmallID: app.settings.DefaultImageID,
		Description:  app.settings.DefaultDescription,
	}
}
