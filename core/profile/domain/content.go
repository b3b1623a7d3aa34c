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

// GetUserRecipes lists author's recipes regardless of profile privacy.
func (app *Application) GetUserRecipes(ctx context.Context, author uuid.UUID) ([]Recipe, error) {
	if author.IsNil() {
		return nil, ErrInvalidData
	}
	items, err := app.recipes.ListRecipesByAuthor(ctx, author)
	if err != nil {
		return nil, app.fail(ctx, "list recipes", err)
	}
	if items == nil {
		items = []Recipe{}
	}
	return items, nil
}

// GetUserReels lists author's reels regardless of profile privacy.
func (app *Application) GetUserReels(ctx context.Context, author uuid.UUID) ([]Reel, error) {
	if author.IsNil() {
		return nil, ErrInvalidData
	}
	items, err := app.reels.ListReelsByAuthor(ctx, author)
	if err != nil {
		return nil, app.fail(ctx, "list reels", err)
	}
	if items == nil {
		items = []Reel{}
	}
	return items, nil
}
