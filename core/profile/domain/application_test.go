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
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/gofrs/uuid/v5"
)

func TestGetProfileRegistersOnFirstRead(t *testing.T) {
	t.Parallel()

	alice := uuid.Must(uuid.NewV4())
	f := newFixture([]Identity{{ID: alice, Username: "alice", Email: "alice@example.com"}})

	view, err := f.app.GetProfile(context.Background(), alice, alice)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if f.profiles.inserts != 1 {
		t.Fatalf("inserts = %d, want 1", f.profiles.inserts)
	}
	if got, _ := view.Bio.Get(); got != "New account" {
		t.Fatalf("bio = %q", got)
	}
	if got, _ := view.ImageURL.Get(); got != "/static/images/default-profile.png" {
		t.Fatalf("imageUrl = %q", got)
	}
	if private, _ := view.IsPrivate.Get(); private {
		t.Fatal("new profile is private")
	}
}

func TestGetProfileConcurrentFirstReadsRegisterOnce(t *testing.T) {
	t.Parallel()

	alice := uuid.Must(uuid.NewV4())
	f := newFixture([]Identity{{ID: alice, Username: "alice"}})

	var wg sync.WaitGroup
	for range 16 {
		wg.Go(func() {
			if _, err := f.app.GetProfile(context.Background(), alice, alice); err != nil {
				t.Errorf("GetProfile: %v", err)
			}
		})
	}
	wg.Wait()

	if f.profiles.inserts != 1 || f.profiles.count() != 1 {
		t.Fatalf("inserts = %d rows = %d, want 1/1", f.profiles.inserts, f.profiles.count())
	}
}

func TestGetProfileVisibility(t *testing.T) {
	t.Parallel()

	owner := uuid.Must(uuid.NewV4())
	other := uuid.Must(uuid.NewV4())
	recipe := Recipe{ID: uuid.Must(uuid.NewV4()), AuthorID: owner, Name: "pho", Description: "broth"}
	reel := Reel{ID: uuid.Must(uuid.NewV4()), AuthorID: owner, VideoID: uuid.Must(uuid.NewV4()), Title: "t"}

	tests := []struct {
		name     string
		private  bool
		viewer   uuid.UUID
		wantFull bool
	}{
		{name: "self sees private profile", private: true, viewer: owner, wantFull: true},
		{name: "other is denied private profile", private: true, viewer: other, wantFull: false},
		{name: "other sees public profile", private: false, viewer: other, wantFull: true},
		{name: "self sees public profile", private: false, viewer: owner, wantFull: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(
				[]Identity{{ID: owner, Username: "owner"}},
				Profile{OwnerID: owner, ImageID: defaultImage, ImageSmallID: smallImage, IsPrivate: tt.private, Description: "hi"},
			)
			f.content.recipes[owner] = []Recipe{recipe}
			f.content.reels[owner] = []Reel{reel}

			view, err := f.app.GetProfile(context.Background(), owner, tt.viewer)
			if err != nil {
				t.Fatalf("GetProfile: %v", err)
			}
			if view.Full() != tt.wantFull {
				t.Fatalf("Full() = %v, want %v", view.Full(), tt.wantFull)
			}
			if !view.ImageSmallURL.IsSpecified() || !view.IsPrivate.IsSpecified() {
				t.Fatal("image and privacy fields must always be present for non-banned users")
			}

			bs, err := json.Marshal(view)
			if err != nil {
				t.Fatal(err)
			}
			var doc map[string]json.RawMessage
			if err := json.Unmarshal(bs, &doc); err != nil {
				t.Fatal(err)
			}
			for _, key := range []string{"bio", "followers", "recipes", "reels"} {
				if _, ok := doc[key]; ok != tt.wantFull {
					t.Errorf("field %q present = %v, want %v", key, ok, tt.wantFull)
				}
			}
			if tt.wantFull {
				if ids, _ := view.Recipes.Get(); len(ids) != 1 || ids[0] != recipe.ID {
					t.Errorf("recipes = %v", ids)
				}
				if ids, _ := view.Reels.Get(); len(ids) != 1 || ids[0] != reel.ID {
					t.Errorf("reels = %v", ids)
				}
				if string(doc["followers"]) != "[]" {
					t.Errorf("followers = %s", doc["followers"])
				}
			}
		})
	}
}

func TestGetProfileBannedUser(t *testing.T) {
	t.Parallel()

	banned := uuid.Must(uuid.NewV4())
	f := newFixture(
		[]Identity{{ID: banned, Username: "mallory", Banned: true}},
		Profile{OwnerID: banned, ImageID: defaultImage, ImageSmallID: defaultImage, Description: "x"},
	)

	view, err := f.app.GetProfile(context.Background(), banned, banned)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	bs, _ := json.Marshal(view)
	var doc map[string]any
	_ = json.Unmarshal(bs, &doc)
	if len(doc) != 3 || doc["isBanned"] != true || doc["userName"] != "mallory" {
		t.Fatalf("banned view = %s", bs)
	}
}

func TestGetProfileErrors(t *testing.T) {
	t.Parallel()

	known := uuid.Must(uuid.NewV4())
	missingImage := uuid.Must(uuid.NewV4())

	t.Run("unknown identity", func(t *testing.T) {
		t.Parallel()
		f := newFixture(nil)
		_, err := f.app.GetProfile(context.Background(), known, known)
		if !errors.Is(err, ErrIdentityUnknown) || !errors.Is(err, ErrIdentityLookup) {
			t.Fatalf("err = %v", err)
		}
		if f.profiles.count() != 0 {
			t.Fatal("profile registered for unknown identity")
		}
	})

	t.Run("identity provider down", func(t *testing.T) {
		t.Parallel()
		f := newFixture(nil)
		f.identities.err = ErrIdentityLookup
		if _, err := f.app.GetProfile(context.Background(), known, known); !errors.Is(err, ErrIdentityLookup) {
			t.Fatalf("err = %v", err)
		}
	})

	t.Run("missing image", func(t *testing.T) {
		t.Parallel()
		f := newFixture(
			[]Identity{{ID: known, Username: "k"}},
			Profile{OwnerID: known, ImageID: missingImage, ImageSmallID: defaultImage},
		)
		if _, err := f.app.GetProfile(context.Background(), known, known); !errors.Is(err, ErrImageNotFound) {
			t.Fatalf("err = %v", err)
		}
	})

	t.Run("store failure is unhandled", func(t *testing.T) {
		t.Parallel()
		f := newFixture([]Identity{{ID: known, Username: "k"}})
		f.profiles.getErr = errBoom
		if _, err := f.app.GetProfile(context.Background(), known, known); !errors.Is(err, ErrUnhandled) {
			t.Fatalf("err = %v", err)
		}
	})

	t.Run("content failure aborts aggregation", func(t *testing.T) {
		t.Parallel()
		f := newFixture(
			[]Identity{{ID: known, Username: "k"}},
			Profile{OwnerID: known, ImageID: defaultImage, ImageSmallID: defaultImage},
		)
		f.app.recipes = fakeContent{err: errBoom}
		if _, err := f.app.GetProfile(context.Background(), known, known); !errors.Is(err, ErrUnhandled) {
			t.Fatalf("err = %v", err)
		}
	})
}

func TestGetProfileIsIdempotent(t *testing.T) {
	t.Parallel()

	id := uuid.Must(uuid.NewV4())
	f := newFixture([]Identity{{ID: id, Username: "u"}})

	first, err := f.app.GetProfile(context.Background(), id, id)
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.app.GetProfile(context.Background(), id, id)
	if err != nil {
		t.Fatal(err)
	}
	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Fatalf("views differ:\n%s\n%s", a, b)
	}
	if f.profiles.inserts != 1 {
		t.Fatalf("inserts = %d", f.profiles.inserts)
	}
}

func TestGetSmallProfile(t *testing.T) {
	t.Parallel()

	known := uuid.Must(uuid.NewV4())
	unregistered := uuid.Must(uuid.NewV4())
	banned := uuid.Must(uuid.NewV4())
	f := newFixture(
		[]Identity{
			{ID: known, Username: "known"},
			{ID: unregistered, Username: "fresh"},
			{ID: banned, Username: "banned", Banned: true},
		},
		Profile{OwnerID: known, ImageID: defaultImage, ImageSmallID: smallImage},
		Profile{OwnerID: banned, ImageID: defaultImage, ImageSmallID: defaultImage},
	)

	view, err := f.app.GetSmallProfile(context.Background(), known)
	if err != nil {
		t.Fatalf("GetSmallProfile: %v", err)
	}
	if got, _ := view.ImageSmallURL.Get(); view.Username != "known" || got != "https://cdn.example.com/small.png" {
		t.Fatalf("view = %+v", view)
	}

	if _, err := f.app.GetSmallProfile(context.Background(), unregistered); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("unregistered err = %v", err)
	}
	if f.profiles.inserts != 0 {
		t.Fatal("small profile lookup registered a profile")
	}

	view, err = f.app.GetSmallProfile(context.Background(), banned)
	if err != nil {
		t.Fatal(err)
	}
	if !view.IsBanned || view.ImageURL.IsSpecified() {
		t.Fatalf("banned view = %+v", view)
	}
}

func TestGetSmallProfilesOrderAndDedupe(t *testing.T) {
	t.Parallel()

	a, b, c := uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())
	missing := uuid.Must(uuid.NewV4())
	f := newFixture(
		[]Identity{{ID: a, Username: "a"}, {ID: b, Username: "b"}, {ID: c, Username: "c"}},
		Profile{OwnerID: a, ImageID: defaultImage, ImageSmallID: defaultImage},
		Profile{OwnerID: b, ImageID: defaultImage, ImageSmallID: defaultImage},
		Profile{OwnerID: c, ImageID: defaultImage, ImageSmallID: defaultImage},
	)

	views, err := f.app.GetSmallProfiles(context.Background(), []uuid.UUID{c, a, missing, c, b, a})
	if err != nil {
		t.Fatalf("GetSmallProfiles: %v", err)
	}
	want := []string{"c", "a", "b"}
	if len(views) != len(want) {
		t.Fatalf("got %d views, want %d", len(views), len(want))
	}
	for i, name := range want {
		if views[i].Username != name {
			t.Fatalf("views[%d] = %q, want %q", i, views[i].Username, name)
		}
	}
}

func TestGetSmallProfilesRejectsOversizedBatch(t *testing.T) {
	t.Parallel()

	f := newFixture(nil)
	ids := make([]uuid.UUID, DefaultSettings().MaxBulkIDs+1)
	if _, err := f.app.GetSmallProfiles(context.Background(), ids); !errors.Is(err, ErrInvalidData) {
		t.Fatalf("err = %v", err)
	}

	views, err := f.app.GetSmallProfiles(context.Background(), nil)
	if err != nil || len(views) != 0 {
		t.Fatalf("empty batch = %v, %v", views, err)
	}
}

func TestGetUserRecipesMapsVerbatim(t *testing.T) {
	t.Parallel()

	author := uuid.Must(uuid.NewV4())
	f := newFixture(nil)
	want := []Recipe{
		{ID: uuid.Must(uuid.NewV4()), AuthorID: author, Name: "bun cha", Description: "grilled pork"},
		{ID: uuid.Must(uuid.NewV4()), AuthorID: author, Name: "banh mi", Description: ""},
	}
	f.content.recipes[author] = want

	got, err := f.app.GetUserRecipes(context.Background(), author)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("recipe %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	reels, err := f.app.GetUserReels(context.Background(), author)
	if err != nil || reels == nil || len(reels) != 0 {
		t.Fatalf("reels = %v, %v", reels, err)
	}
}

func TestGetUserEmailAndUsername(t *testing.T) {
	t.Parallel()

	id := uuid.Must(uuid.NewV4())
	f := newFixture([]Identity{{ID: id, Username: "bob", Email: "bob@example.com"}})

	email, err := f.app.GetUserEmail(context.Background(), id)
	if err != nil || email != "bob@example.com" {
		t.Fatalf("email = %q, %v", email, err)
	}
	name, err := f.app.GetUsername(context.Background(), id)
	if err != nil || name != "bob" {
		t.Fatalf("username = %q, %v", name, err)
	}
	if _, err := f.app.GetUsername(context.Background(), uuid.Must(uuid.NewV4())); !errors.Is(err, ErrIdentityUnknown) {
		t.Fatalf("unknown err = %v", err)
	}
}
