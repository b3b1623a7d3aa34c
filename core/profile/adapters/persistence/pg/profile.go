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
	"errors"
	"fmt"

	"techstructure/core/profile/domain"

	"github.com/gofrs/uuid/v5"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/scan"
)

var (
	_ domain.ProfileStore = (*ProfileStore)(nil)
	_ domain.ImageStore   = (*ProfileStore)(nil)
)

var profileColumns = []any{"user_uuid", "image_url_uuid", "image_small_url_uuid", "is_private", "description"}

type (
	profileRow struct {
		OwnerID      uuid.UUID      `db:"user_uuid"`
		ImageID      uuid.UUID      `db:"image_url_uuid"`
		ImageSmallID uuid.UUID      `db:"image_small_url_uuid"`
		IsPrivate    bool           `db:"is_private"`
		Description  sql.NullString `db:"description"`
	}

	registerArgs struct {
		OwnerID      uuid.UUID `db:"user_uuid"`
		ImageID      uuid.UUID `db:"image_url_uuid"`
		ImageSmallID uuid.UUID `db:"image_small_url_uuid"`
		IsPrivate    bool      `db:"is_private"`
		Description  string    `db:"description"`
	}

	// ProfileStore reads profiles from replicas and registers them on the
	// primary with a prepared conditional insert.
	ProfileStore struct {
		pool   Pool
		tables Tables

		registerStmt bob.QueryStmt[registerArgs, profileRow, []profileRow]
	}
)

func (r profileRow) toDomain() domain.Profile {
	return domain.Profile{
		OwnerID:      r.OwnerID,
		ImageID:      r.ImageID,
		ImageSmallID: r.ImageSmallID,
		IsPrivate:    r.IsPrivate,
		Description:  r.Description.String,
	}
}

func NewProfileStore(ctx context.Context, pool Pool, tables Tables) (*ProfileStore, error) {
	primary := pool.Primary()

	// INSERT ... ON CONFLICT (user_uuid) DO NOTHING RETURNING ...
	// A concurrent registration makes RETURNING yield no row.
	insert := psql.Insert(
		im.Into(tables.Profiles, "user_uuid", "image_url_uuid", "image_small_url_uuid", "is_private", "description"),
		im.Values(
			bob.Named("user_uuid"),
			bob.Named("image_url_uuid"),
			bob.Named("image_small_url_uuid"),
			bob.Named("is_private"),
			bob.Named("description"),
		),
		im.OnConflict("user_uuid").DoNothing(),
		im.Returning(profileColumns...),
	)

	stmt, err := bob.PrepareQuery[registerArgs](ctx, primary, insert, scan.StructMapper[profileRow]())
	if err != nil {
		return nil, fmt.Errorf("prepare register profile: %w", err)
	}

	return &ProfileStore{pool: pool, tables: tables, registerStmt: stmt}, nil
}

func (s *ProfileStore) selectProfile(owner uuid.UUID) bob.Query {
	return psql.Select(
		sm.Columns(profileColumns...),
		sm.From(s.tables.Profiles),
		sm.Where(psql.Quote("user_uuid").EQ(psql.Arg(owner))),
	)
}

func (s *ProfileStore) GetProfile(ctx context.Context, owner uuid.UUID) (domain.Profile, error) {
	row, err := bob.One(ctx, s.pool.Reader(), s.selectProfile(owner), scan.StructMapper[profileRow]())
	if err != nil {
		return domain.Profile{}, wrapError(err, domain.ErrProfileNotFound)
	}
	return row.toDomain(), nil
}

// RegisterProfile returns the stored row. When another request registered
// the owner first, the winner's row is re-read from the primary so that
// replica lag cannot hide it.
func (s *ProfileStore) RegisterProfile(ctx context.Context, p domain.Profile) (domain.Profile, error) {
	row, err := s.registerStmt.One(ctx, registerArgs{
		OwnerID:      p.OwnerID,
		ImageID:      p.ImageID,
		ImageSmallID: p.ImageSmallID,
		IsPrivate:    p.IsPrivate,
		Description:  p.Description,
	})
	if err == nil {
		return row.toDomain(), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return domain.Profile{}, wrapError(err, domain.ErrProfileNotFound)
	}

	row, err = bob.One(ctx, s.pool.Primary(), s.selectProfile(p.OwnerID), scan.StructMapper[profileRow]())
	if err != nil {
		return domain.Profile{}, wrapError(err, domain.ErrProfileNotFound)
	}
	return row.toDomain(), nil
}

func (s *ProfileStore) GetImageURL(ctx context.Context, id uuid.UUID) (string, error) {
	q := psql.Select(
		sm.Columns("photo_url"),
		sm.From(s.tables.Photos),
		sm.Where(psql.Quote("id").EQ(psql.Arg(id))),
	)
	url, err := bob.One(ctx, s.pool.Reader(), q, scan.SingleColumnMapper[string])
	if err != nil {
		return "", wrapError(err, domain.ErrImageNotFound)
	}
	return url, nil
}
