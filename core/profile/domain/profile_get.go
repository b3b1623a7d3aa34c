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
	"errors"
	"log/slog"

	"github.com/gofrs/uuid/v5"
	"github.com/oapi-codegen/nullable"
)

// GetProfile aggregates target's profile as seen by viewer. A target that
// exists at the identity provider but has no stored profile is registered
// with the default settings first.
func (app *Application) GetProfile(ctx context.Context, target, viewer uuid.UUID) (*ProfileView, error) {
	if target.IsNil() {
		return nil, ErrInvalidData
	}

	identity, err := app.identities.GetUser(ctx, target)
	if err != nil {
		return nil, app.fail(ctx, "get identity", err)
	}

	prof, err := app.loadOrRegister(ctx, target)
	if err != nil {
		return nil, app.fail(ctx, "load profile", err)
	}

	view := &ProfileView{
		UserUUID: target,
		UserName: identity.Username,
		IsBanned: identity.Banned,
	}
	if identity.Banned {
		return view, nil
	}

	imageURL, smallURL, err := app.resolveImages(ctx, prof)
	if err != nil {
		return nil, app.fail(ctx, "resolve images", err)
	}
	view.ImageURL = nullable.NewNullableWithValue(imageURL)
	view.ImageSmallURL = nullable.NewNullableWithValue(smallURL)
	view.IsPrivate = nullable.NewNullableWithValue(prof.IsPrivate)

	if prof.IsPrivate && target != viewer {
		return view, nil
	}

	recipes, err := app.recipes.ListRecipesByAuthor(ctx, target)
	if err != nil {
		return nil, app.fail(ctx, "list recipes", err)
	}
	reels, err := app.reels.ListReelsByAuthor(ctx, target)
	if err != nil {
		return nil, app.fail(ctx, "list reels", err)
	}

	view.Bio = nullable.NewNullableWithValue(prof.Description)
	view.Followers = nullable.NewNullableWithValue([]uuid.UUID{})
	view.Recipes = nullable.NewNullableWithValue(recipeIDs(recipes))
	view.Reels = nullable.NewNullableWithValue(reelIDs(reels))
	return view, nil
}

func (app *Application) loadOrRegister(ctx context.Context, owner uuid.UUID) (Profile, error) {
	prof, err := app.profiles.GetProfile(ctx, owner)
	if err == nil {
		return prof, nil
	}
	if !errors.Is(err, ErrProfileNotFound) {
		return Profile{}, err
	}

	prof, err = app.profiles.RegisterProfile(ctx, app.defaultProfile(owner))
	if err != nil {
		return Profile{}, err
	}
	slog.InfoContext(ctx, "registered profile", slog.String("owner", owner.String()))
	return prof, nil
}

func (app *Application) resolveImages(ctx context.Context, prof Profile) (string, string, error) {
	imageURL, err := app.images.GetImageURL(ctx, prof.ImageID)
	if err != nil {
		return "", "", err
	}
	smallURL, err := app.images.GetImageURL(ctx, prof.ImageSmallID)
	if err != nil {
		return "", "", err
	}
	return imageURL, smallURL, nil
}

func recipeIDs(items []Recipe) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	return ids
}

func reelIDs(items []Reel) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	return ids
}

var passthrough = []error{
	ErrIdentityLookup,
	ErrProfileNotFound,
	ErrImageNotFound,
	ErrInvalidData,
	ErrMissingOrInvalidPrincipal,
	context.Canceled,
	context.DeadlineExceeded,
}

// fail keeps errors the transport knows how to report and collapses the rest
// into ErrUnhandled after logging them.
func (app *Application) fail(ctx context.Context, op string, err error) error {
	for _, known := range passthrough {
		if errors.Is(err, known) {
			return err
		}
	}
	slog.ErrorContext(ctx, "unexpected error", slog.String("op", op), slog.Any("error", err))
	return ErrUnhandled
}
