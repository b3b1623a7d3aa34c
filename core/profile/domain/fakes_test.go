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
	"sync"

	"github.com/gofrs/uuid/v5"
)

type fakeIdentities struct {
	mu    sync.Mutex
	users map[uuid.UUID]Identity
	err   error
}

func (f *fakeIdentities) GetUser(_ context.Context, id uuid.UUID) (Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return Identity{}, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return Identity{}, ErrIdentityUnknown
	}
	return u, nil
}

type fakeProfiles struct {
	mu       sync.Mutex
	rows     map[uuid.UUID]Profile
	inserts  int
	getErr   error
	getCalls int
}

func newFakeProfiles(rows ...Profile) *fakeProfiles {
	f := &fakeProfiles{rows: map[uuid.UUID]Profile{}}
	for _, r := range rows {
		f.rows[r.OwnerID] = r
	}
	return f
}

func (f *fakeProfiles) GetProfile(_ context.Context, owner uuid.UUID) (Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.getErr != nil {
		return Profile{}, f.getErr
	}
	p, ok := f.rows[owner]
	if !ok {
		return Profile{}, ErrProfileNotFound
	}
	return p, nil
}

func (f *fakeProfiles) RegisterProfile(_ context.Context, p Profile) (Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.rows[p.OwnerID]; ok {
		return existing, nil
	}
	f.inserts++
	f.rows[p.OwnerID] = p
	return p, nil
}

func (f *fakeProfiles) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeImages map[uuid.UUID]string

func (f fakeImages) GetImageURL(_ context.Context, id uuid.UUID) (string, error) {
	u, ok := f[id]
	if !ok {
		return "", ErrImageNotFound
	}
	return u, nil
}

type fakeContent struct {
	recipes map[uuid.UUID][]Recipe
	reels   map[uuid.UUID][]Reel
	err     error
}

func (f fakeContent) ListRecipesByAuthor(_ context.Context, author uuid.UUID) ([]Recipe, error) {
	return f.recipes[author], f.err
}

func (f fakeContent) ListReelsByAuthor(_ context.Context, author uuid.UUID) ([]Reel, error) {
	return f.reels[author], f.err
}

var (
	defaultImage = uuid.Must(uuid.FromString("847cd648-bcf5-4b5d-8905-e579a285b5e6"))
	smallImage   = uuid.Must(uuid.FromString("5b8d6f0e-3c55-4f7e-9d5b-2a0f5d6e4c11"))
	errBoom      = errors.New("boom")
)

type fixture struct {
	app        *Application
	identities *fakeIdentities
	profiles   *fakeProfiles
	content    fakeContent
}

func newFixture(identities []Identity, rows ...Profile) *fixture {
	ids := &fakeIdentities{users: map[uuid.UUID]Identity{}}
	for _, u := range identities {
		ids.users[u.ID] = u
	}
	profiles := newFakeProfiles(rows...)
	content := fakeContent{recipes: map[uuid.UUID][]Recipe{}, reels: map[uuid.UUID][]Reel{}}
	images := fakeImages{
		defaultImage: "/static/images/default-profile.png",
		smallImage:   "https://cdn.example.com/small.png",
	}
	return &fixture{
		app:        NewApp(ids, profiles, images, content, content, DefaultSettings()),
		identities: ids,
		profiles:   profiles,
		content:    content,
	}
}
