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

	"github.com/gofrs/uuid/v5"
)

func (app *Application) GetUserEmail(ctx context.Context, id uuid.UUID) (string, error) {
	identity, err := app.lookupIdentity(ctx, id)
	if err != nil {
		return "", err
	}
	return identity.Email, nil
}

func (app *Application) GetUsername(ctx context.Context, id uuid.UUID) (string, error) {
	identity, err := app.lookupIdentity(ctx, id)
	if err != nil {
		return "", err
	}
	return identity.Username, nil
}

func (app *Application) lookupIdentity(ctx context.Context, id uuid.UUID) (Identity, error) {
	if id.IsNil() {
		return Identity{}, ErrInvalidData
	}
	identity, err := app.identities.GetUser(ctx, id)
	if err != nil {
		return Identity{}, app.fail(ctx, "get identity", err)
	}
	return identity, nil
}
