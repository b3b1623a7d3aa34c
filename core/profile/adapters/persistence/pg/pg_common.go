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

// Package pg stores profiles, image references and authored content in
// Postgres through bob.
package pg

import (
	"database/sql"
	"errors"

	"techstructure/core/profile/domain"
	"techstructure/modules/db"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stephenafamo/bob"
)

// Pool is the subset of the connection pool the adapters need: a primary
// for prepared writes and replica-aware reads.
type Pool interface {
	db.ReaderConnectionManager
	Primary() bob.DB
}

// Tables names the tables used by the adapters so tests and deployments can
// point them at a different schema.
type Tables struct {
	Profiles string `env:"PROFILES" envDefault:"user_profiles"`
	Photos   string `env:"PHOTOS" envDefault:"photo_urls"`
	Recipes  string `env:"RECIPES" envDefault:"recipes"`
	Reels    string `env:"REELS" envDefault:"reels"`
}

func DefaultTables() Tables {
	return Tables{Profiles: "user_profiles", Photos: "photo_urls", Recipes: "recipes", Reels: "reels"}
}

// wrapError maps driver errors onto domain errors. notFound is returned for
// sql.ErrNoRows.
func wrapError(err, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "22P02": // invalid_text_representation
			return domain.ErrInvalidData
		}
	}
	return err
}
