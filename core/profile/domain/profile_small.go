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
	"log/slog"

	"techstructure/worker"

	"github.com/gofrs/uuid/v5"
	"github.com/oapi-codegen/nullable"
)

// GetSmallProfile never registers: a target without a stored profile yields
// ErrProfileNotFound.
func (app *Application) GetSmallProfile(ctx context.Context, target uuid.UUID) (*SmallProfileView, error) {
	if target.IsNil() {
		return nil, ErrInvalidData
	}

	prof, err := app.profiles.GetProfile(ctx, target)
	if err != nil {
		return nil, app.fail(ctx, "get profile", err)
	}
	identity, err := app.identities.GetUser(ctx, target)
	if err != nil {
		return nil, app.fail(ctx, "get identity", err)
	}

	view := &SmallProfileView{
		UserUUID: target,
		Username: identity.Username,
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
	return view, nil
}

// GetSmallProfiles resolves ids concurrently. Duplicates are collapsed, ids
// that fail are logged and left out, and the result follows the order in
// which ids first appear.
func (app *Application) GetSmallProfiles(ctx context.Context, ids []uuid.UUID) ([]SmallProfileView, error) {
	if len(ids) > app.settings.MaxBulkIDs {
		return nil, ErrInvalidData
	}

	unique := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id.IsNil() {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	results := make([]*SmallProfileView, len(unique))
	worker.Each(ctx, app.settings.BulkConcurrency, unique, func(ctx context.Context, job worker.Indexed[uuid.UUID]) {
		view, err := app.GetSmallProfile(ctx, job.Item)
		if err != nil {
			slog.WarnContext(ctx, "skipping small profile",
				slog.String("id", job.Item.String()),
				slog.Any("error", err),
			)
			return
		}
		results[job.Index] = view
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]SmallProfileView, 0, len(results))
	for _, v := range results {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out, nil
}
