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

package keycloak

import "time"

// Config is read with the KEYCLOAK_ prefix.
type Config struct {
	URL           string        `env:"URL" envDefault:"http://login.techstructure.com:8080"`
	Realm         string        `env:"REALM" envDefault:"Techstructure"`
	AdminRealm    string        `env:"ADMIN_REALM" envDefault:"master"`
	AdminUser     string        `env:"ADMIN_USER" envDefault:"admin"`
	AdminPassword string        `env:"ADMIN_PASSWORD" envDefault:"admin"`
	Timeout       time.Duration `env:"TIMEOUT" envDefault:"5s"`

	// Client-side throttle for admin API calls.
	RequestsPerSecond float64 `env:"REQUESTS_PER_SECOND" envDefault:"50"`
	Burst             int     `env:"BURST" envDefault:"20"`

	// The admin token is refreshed this long before it expires.
	TokenSkew time.Duration `env:"TOKEN_SKEW" envDefault:"10s"`
}
