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

// Package session implements a gorilla/sessions Store that keeps session
// values in a db.KV and only a signed session id in the cookie.
package session

import (
	"context"
	"encoding/base32"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"techstructure/modules/db"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
)

var _ sessions.Store = (*Store)(nil)

var ErrMissingKeys = errors.New("session: at least one hash key is required")

// Config configures the gateway session cookie.
type Config struct {
	CookieName string        `env:"COOKIE_NAME" envDefault:"SESSION"`
	HashKey    string        `env:"HASH_KEY"`
	BlockKey   string        `env:"BLOCK_KEY"`
	MaxAge     time.Duration `env:"MAX_AGE" envDefault:"30m"`
	Secure     bool          `env:"SECURE"`
	Domain     string        `env:"DOMAIN"`
}

// record is what lands in the KV. Values are gob-encoded by securecookie's
// serializer since gothic stores binary strings that JSON would mangle.
type record struct {
	Values    []byte    `json:"values"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Store struct {
	Codecs  []securecookie.Codec
	Options *sessions.Options

	kv         db.JSONKV[record]
	serializer securecookie.Serializer
	now        func() time.Time
}

// NewStore builds a Store over kv. keyPairs follow securecookie.CodecsFromPairs:
// hash key, block key, hash key, block key...
func NewStore(kv db.KV, opts sessions.Options, keyPairs ...[]byte) (*Store, error) {
	if len(keyPairs) == 0 || len(keyPairs[0]) == 0 {
		return nil, ErrMissingKeys
	}
	if opts.Path == "" {
		opts.Path = "/"
	}
	codecs := securecookie.CodecsFromPairs(keyPairs...)
	if opts.MaxAge > 0 {
		for _, c := range codecs {
			if sc, ok := c.(*securecookie.SecureCookie); ok {
				sc.MaxAge(opts.MaxAge)
			}
		}
	}
	return &Store{
		Codecs:     codecs,
		Options:    &opts,
		kv:         db.NewJSONKV[record](kv),
		serializer: securecookie.GobEncoder{},
		now:        time.Now,
	}, nil
}

// Options derives the cookie options from cfg.
func (cfg Config) Options() sessions.Options {
	return sessions.Options{
		Path:     "/",
		Domain:   cfg.Domain,
		MaxAge:   int(cfg.MaxAge / time.Second),
		Secure:   cfg.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// KeyPairs returns the configured hash/block keys, generating an ephemeral
// hash key when none is set. Sessions then do not survive a restart.
func (cfg Config) KeyPairs() [][]byte {
	hash := []byte(cfg.HashKey)
	if len(hash) == 0 {
		hash = securecookie.GenerateRandomKey(64)
	}
	var block []byte
	if cfg.BlockKey != "" {
		block = []byte(cfg.BlockKey)
	}
	return [][]byte{hash, block}
}

// Get returns the session cached for this request, loading it on first use.
func (s *Store) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New loads the session named by the request cookie. A missing, forged or
// expired cookie yields a fresh session; only KV failures are returned.
func (s *Store) New(r *http.Request, name string) (*sessions.Session, error) {
	sess := sessions.NewSession(s, name)
	opts := *s.Options
	sess.Options = &opts
	sess.IsNew = true

	c, err := r.Cookie(name)
	if err != nil {
		return sess, nil
	}
	var id string
	if err := securecookie.DecodeMulti(name, c.Value, &id, s.Codecs...); err != nil {
		return sess, nil
	}

	found, err := s.load(r.Context(), id, sess)
	if err != nil {
		return sess, err
	}
	if found {
		sess.ID = id
		sess.IsNew = false
	}
	return sess, nil
}

// Save persists the values and refreshes the cookie. MaxAge < 0 deletes the
// session from the KV and expires the cookie.
func (s *Store) Save(r *http.Request, w http.ResponseWriter, sess *sessions.Session) error {
	if sess.Options.MaxAge < 0 {
		if sess.ID != "" {
			if err := s.kv.Delete(r.Context(), sess.ID); err != nil {
				return err
			}
		}
		http.SetCookie(w, sessions.NewCookie(sess.Name(), "", sess.Options))
		return nil
	}

	if sess.ID == "" {
		sess.ID = newID()
	}
	raw, err := s.serializer.Serialize(sess.Values)
	if err != nil {
		return fmt.Errorf("session: encode values: %w", err)
	}
	if _, err := s.kv.Set(r.Context(), sess.ID, record{Values: raw, UpdatedAt: s.now().UTC()}); err != nil {
		return err
	}

	encoded, err := securecookie.EncodeMulti(sess.Name(), sess.ID, s.Codecs...)
	if err != nil {
		return fmt.Errorf("session: encode cookie: %w", err)
	}
	http.SetCookie(w, sessions.NewCookie(sess.Name(), encoded, sess.Options))
	return nil
}

// Regenerate drops the stored record behind sess and empties it, so the next
// Save issues a new id. Call it whenever the session changes privilege.
func (s *Store) Regenerate(r *http.Request, sess *sessions.Session) error {
	if sess.ID != "" {
		if err := s.kv.Delete(r.Context(), sess.ID); err != nil {
			return err
		}
	}
	sess.ID = ""
	sess.IsNew = true
	sess.Values = make(map[any]any)
	return nil
}

func (s *Store) load(ctx context.Context, id string, sess *sessions.Session) (bool, error) {
	rec, err := s.kv.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if rec == nil {
		return false, nil
	}
	if err := s.serializer.Deserialize(rec.Values, &sess.Values); err != nil {
		return false, fmt.Errorf("session: decode values: %w", err)
	}
	return true, nil
}

func newID() string {
	return strings.TrimRight(base32.StdEncoding.EncodeToString(securecookie.GenerateRandomKey(32)), "=")
}
