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

package pg

import (
	"context"
	"database/sql"

	"techstructure/core/profile/domain"

	"github.com/gofrs/uuid/v5"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/scan"
)

var (
	_ domain.RecipeStore = (*ContentStore)(nil)
	_ domain.ReelStore   = (*ContentStore)(nil)
)

type (
	recipeRow struct {
		ID          uuid.UUID      `db:"id"`
		AuthorID    uuid.UUID      `db:"posting_user_id"`
		Name        string         `db:"name"`
		Description sql.NullString `db:"description"`
	}

	reelRow struct {
		ID          uuid.UUID      `db:"id"`
		AuthorID    uuid.UUID      `db:"posting_user_id"`
		VideoID     uuid.UUID      `db:"video_id"`
		Title       string         `db:"title"`
		Description sql.NullString `db:"description"`
	}

	// ContentStore lists recipes and reels. Both tables are owned by other
	// services and only read here.
	ContentStore struct {
		pool   Pool
		tables Tables
	}
)

func NewContentStore(pool Pool, tables Tables) *ContentStore {
	return &ContentStore{pool: pool, tables: tables}
}

func (s *ContentStore) ListRecipesByAuthor(ctx context.Context, author uuid.UUID) ([]domain.Recipe, error) {
	q := psql.Select(
		sm.Columns("id", "posting_user_id", "name", "description"),
		sm.From(s.tables.Recipes),
		sm.Where(psql.Quote("posting_user_id").EQ(psql.Arg(author))),
		sm.OrderBy("id"),
	)
	rows, err := bob.All(ctx, s.pool.Reader(), q, scan.StructMapper[recipeRow]())
	if err != nil {
		return nil, wrapError(err, domain.ErrInvalidData)
	}

	out := make([]domain.Recipe, len(rows))
	for i, r := range rows {
		out[i] = domain.Recipe{
			ID:          r.ID,
			AuthorID:    r.AuthorID,
			Name:        r.Name,
			Description: r.Description.String,
		}
	}
	return out, nil
}

func (s *ContentStore) ListReelsByAuthor(ctx context.Context, author uuid.UUID) ([]domain.Reel, error) {
	q := psql.Select(
		sm.Columns("id", "posting_user_id", "video_id", "title", "description"),
		sm.From(s.tables.Reels),
		sm.Where(psql.Quote("posting_user_id").EQ(psql.Arg(author))),
		sm.OrderBy("id"),
	)
	rows, err := bob.All(ctx, s.pool.Reader(), q, scan.StructMapper[reelRow]())
	if err != nil {
		return nil, wrapError(err, domain.ErrInvalidData)
	}

	out := make([]domain.Reel, len(rows))
	for i, r := range rows {
		out[i] = domain.Reel{
			ID:          r.ID,
			AuthorID:    r.AuthorID,
			VideoID:     r.VideoID,
			Title:       r.Title,
			Description: r.Description.String,
		}
	}
	return out, nil
}
