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
	"errors"
	"fmt"
)

var (
	// ErrIdentityLookup means the identity provider could not be asked.
	ErrIdentityLookup = errors.New("identity lookup failed")
	// ErrIdentityUnknown means the provider answered that the id does not exist.
	ErrIdentityUnknown = fmt.Errorf("%w: unknown identity", ErrIdentityLookup)

	ErrProfileNotFound           = errors.New("profile not found")
	ErrImageNotFound             = errors.New("profile image not found")
	ErrMissingOrInvalidPrincipal = errors.New("missing or invalid principal")
	ErrInvalidData               = errors.New("invalid data provided for profile operations")
	ErrUnhandled                 = errors.New("unexpected error")
)
