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

// Package etag derives weak validators from response representations.
package etag

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"
)

const weakPrefix = `W/"`

// Of hashes the JSON encoding of v into a weak ETag value, quotes included.
func Of(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return FromBytes(raw), nil
}

// FromBytes hashes an already encoded representation.
func FromBytes(raw []byte) string {
	sum := sha256.Sum256(raw)
	return weakPrefix + base64.RawURLEncoding.EncodeToString(sum[:16]) + `"`
}

// Matches reports whether an If-None-Match header value selects tag.
// Comparison is weak, so W/ prefixes are ignored on both sides.
func Matches(ifNoneMatch, tag string) bool {
	if ifNoneMatch == "" || tag == "" {
		return false
	}
	want := opaque(tag)
	for candidate := range strings.SplitSeq(ifNoneMatch, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || opaque(candidate) == want {
			return true
		}
	}
	return false
}

func opaque(tag string) string {
	return strings.TrimPrefix(tag, "W/")
}
