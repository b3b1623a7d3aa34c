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

import "strings"

// Policy decides access per path. Login paths skip principal resolution and
// are throttled separately.
type Policy interface {
	Authorize(path string, p Principal) bool
	IsLoginPath(path string) bool
}

// DefaultLoginPrefixes covers the authorization start and callback endpoints.
var DefaultLoginPrefixes = []string{"/login/", "/oauth2/"}

// PermitAll authorizes every request, authenticated or not.
type PermitAll struct {
	LoginPrefixes []string
}

func NewPermitAll() PermitAll {
	return PermitAll{LoginPrefixes: DefaultLoginPrefixes}
}

func (PermitAll) Authorize(string, Principal) bool { return true }

func (p PermitAll) IsLoginPath(path string) bool {
	for _, prefix := range p.LoginPrefixes {
		if strings.HasPrefix(path, prefix) || path == strings.TrimSuffix(prefix, "/") {
			return true
		}
	}
	return false
}
