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

package ratelimit

import "time"

type KeyStrategyId string

const (
	RemoteIpKeyStrategy  KeyStrategyId = "remote_ip"
	PrincipalKeyStrategy KeyStrategyId = "principal"
)

type (
	// RestHTTPConfig is read from RATE_LIMIT_*. Route patterns must match the
	// ids produced by the RouteInfoFunc, which for the gateway are the
	// configured route prefixes such as "/api/user".
	RestHTTPConfig struct {
		Enabled             bool         `env:"ENABLED" envDefault:"false"`
		Routes              []Route      `envPrefix:"ROUTE_"`
		DefaultPolicy       EndpointRule `envPrefix:"DEFAULT_"`
		AllowIfNoMatch      bool         `env:"ALLOW_IF_NO_MATCH" envDefault:"true"`
		AllowIfNoIdentifier bool         `env:"ALLOW_IF_NO_ID" envDefault:"true"`
	}

	Route struct {
		Pattern       string         `env:"PATTERN"`
		EndpointRules []EndpointRule `envPrefix:"POLICY_"`
	}

	// EndpointRule with an empty Method applies to every method.
	EndpointRule struct {
		Method      string        `env:"METHOD"`
		Limit       int64         `env:"LIMIT" envDefault:"600"`
		Window      time.Duration `env:"WINDOW" envDefault:"1m"`
		KeyStrategy KeyStrategyId `env:"KEY_STRATEGY" envDefault:"remote_ip"`
	}
)
