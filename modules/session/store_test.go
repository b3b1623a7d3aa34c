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

package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/sessions"
)

type memKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemKV() *memKV { return &memKV{data: map[string][]byte{}} }

func (m *memKV) AtomicGet(_ context.Context, key string) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return v, nil
}

func (m *memKV) AtomicSet(_ context.Context, key string, value any) (any, error) {
	// mirrors the redis KV, which JSON-encodes structs
	raw, err := jsonBytes(value)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, ok := m.data[key]
	m.data[key] = raw
	if !ok {
		return nil, nil
	}
	return prev, nil
}

func (m *memKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memKV) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

func newTestStore(t *testing.T, kv *memKV) *Store {
	t.Helper()
	cfg := Config{CookieName: "SESSION", HashKey: "0123456789abcdef0123456789abcdef", MaxAge: 0}
	s, err := NewStore(kv, cfg.Options(), cfg.KeyPairs()...)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func saveValues(t *testing.T, s *Store, values map[any]any) *http.Cookie {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	sess, err := s.Get(req, "SESSION")
	if err != nil {
		t.Fatal(err)
	}
	for k, v := range values {
		sess.Values[k] = v
	}
	if err := sess.Save(req, rec); err != nil {
		t.Fatal(err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("got %d cookies", len(cookies))
	}
	return cookies[0]
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	kv := newMemKV()
	s := newTestStore(t, kv)
	binary := string([]byte{0x1f, 0x8b, 0xff, 0x00})
	cookie := saveValues(t, s, map[any]any{"sub": "u-1", "gothic": binary})

	if kv.len() != 1 {
		t.Fatalf("kv holds %d records", kv.len())
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	sess, err := s.Get(req, "SESSION")
	if err != nil {
		t.Fatal(err)
	}
	if sess.IsNew {
		t.Fatal("stored session reported as new")
	}
	if sess.Values["sub"] != "u-1" || sess.Values["gothic"] != binary {
		t.Fatalf("values = %v", sess.Values)
	}
}

func TestForgedCookieStartsFresh(t *testing.T) {
	t.Parallel()

	kv := newMemKV()
	s := newTestStore(t, kv)
	saveValues(t, s, map[any]any{"sub": "u-1"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "SESSION", Value: "tampered"})
	sess, err := s.Get(req, "SESSION")
	if err != nil {
		t.Fatal(err)
	}
	if !sess.IsNew || len(sess.Values) != 0 {
		t.Fatalf("forged cookie loaded %v", sess.Values)
	}
}

func TestDeleteOnNegativeMaxAge(t *testing.T) {
	t.Parallel()

	kv := newMemKV()
	s := newTestStore(t, kv)
	cookie := saveValues(t, s, map[any]any{"sub": "u-1"})

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	sess, err := s.Get(req, "SESSION")
	if err != nil {
		t.Fatal(err)
	}
	sess.Options.MaxAge = -1
	if err := sess.Save(req, rec); err != nil {
		t.Fatal(err)
	}
	if kv.len() != 0 {
		t.Fatal("session record survived logout")
	}
	expired := rec.Result().Cookies()
	if len(expired) != 1 || expired[0].MaxAge >= 0 {
		t.Fatalf("cookie not expired: %+v", expired)
	}
}

func TestRegenerateIssuesNewID(t *testing.T) {
	t.Parallel()

	kv := newMemKV()
	s := newTestStore(t, kv)
	old := saveValues(t, s, map[any]any{"sub": "u-1"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(old)
	rec := httptest.NewRecorder()
	sess, err := s.Get(req, "SESSION")
	if err != nil {
		t.Fatal(err)
	}
	oldID := sess.ID
	if err := s.Regenerate(req, sess); err != nil {
		t.Fatal(err)
	}
	if len(sess.Values) != 0 || !sess.IsNew {
		t.Fatalf("regenerated session kept %v", sess.Values)
	}
	sess.Values["sub"] = "u-2"
	if err := sess.Save(req, rec); err != nil {
		t.Fatal(err)
	}
	if sess.ID == "" || sess.ID == oldID {
		t.Fatalf("id not rotated: %q", sess.ID)
	}
	if kv.len() != 1 {
		t.Fatalf("kv holds %d records", kv.len())
	}

	stale := httptest.NewRequest(http.MethodGet, "/", nil)
	stale.AddCookie(old)
	again, err := s.Get(stale, "SESSION")
	if err != nil {
		t.Fatal(err)
	}
	if !again.IsNew {
		t.Fatalf("old cookie still loads %v", again.Values)
	}
}

func TestNewStoreRequiresKey(t *testing.T) {
	t.Parallel()

	if _, err := NewStore(newMemKV(), sessions.Options{}); err != ErrMissingKeys {
		t.Fatalf("err = %v", err)
	}
}

func jsonBytes(v any) ([]byte, error) { return json.Marshal(v) }
