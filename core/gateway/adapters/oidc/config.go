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

package oidc

type Config struct {
	Provider     string   `env:"PROVIDER" envDefault:"keycloak"`
	DiscoveryURL string   `env:"DISCOVERY_URL" envDefault:"http://login.techstructure.com:8080/realms/Techstructure/.well-known/openid-configuration"`
	ClientID     string   `env:"CLIENT_ID" envDefault:"gateway"`
	ClientSecret string   `env:"CLIENT_SECRET"`
	CallbackURL  string   `env:"CALLBACK_URL" envDefault:"http://localhost:8080/login/oauth2/code/keycloak"`
	Scopes       []string `env:"SCOPES" envDefault:"openid,profile,email" envSeparator:","`

	PostLoginRedirect  string `env:"POST_LOGIN_REDIRECT" envDefault:"/"`
	PostLogoutRedirect string `env:"POST_LOGOUT_REDIRECT" envDefault:"/"`
}
