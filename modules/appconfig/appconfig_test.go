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

package appconfig

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestLoadGatewayDefaults(t *testing.T) {
	t.Setenv("OIDC_CLIENT_SECRET", "secret")

	cfg, err := LoadGateway()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("port = %d", cfg.Server.Port)
	}
	if !cfg.StripIdentityHeaders {
		t.Fatal("identity headers are not stripped by default")
	}
	if len(cfg.Routes) != 1 || cfg.Routes[0].Prefix != "/api/userinfo" {
		t.Fatalf("routes = %+v", cfg.Routes)
	}
	if cfg.Otel.ServiceName != "gateway" {
		t.Fatalf("service name = %q", cfg.Otel.ServiceName)
	}
}

func TestLoadGatewayRoutes(t *testing.T) {
	t.Setenv("GATEWAY_ROUTE_0_ID", "userinfo")
	t.Setenv("GATEWAY_ROUTE_0_PREFIX", "/api/userinfo")
	t.Setenv("GATEWAY_ROUTE_0_TARGET", "http://userinfo:8081")
	t.Setenv("GATEWAY_ROUTE_1_ID", "recipes")
	t.Setenv("GATEWAY_ROUTE_1_PREFIX", "/api/recipes")
	t.Setenv("GATEWAY_ROUTE_1_TARGET", "http://recipes:8082")
	t.Setenv("GATEWAY_ROUTE_1_STRIP_PREFIX", "false")

	cfg, err := LoadGateway()
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Routes) != 2 {
		t.Fatalf("routes = %+v", cfg.Routes)
	}
	if !cfg.Routes[0].StripPrefix || cfg.Routes[1].StripPrefix {
		t.Fatalf("strip prefix flags = %v, %v", cfg.Routes[0].StripPrefix, cfg.Routes[1].StripPrefix)
	}
}

func TestLoadUserinfo(t *testing.T) {
	t.Setenv("PROFILE_MAX_BULK_IDS", "50")

	cfg, err := LoadUserinfo()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 8081 || cfg.Profiles.MaxBulkIDs != 50 {
		t.Fatalf("port = %d, max ids = %d", cfg.Server.Port, cfg.Profiles.MaxBulkIDs)
	}
	if cfg.Tables.Profiles != "user_profiles" {
		t.Fatalf("profiles table = %q", cfg.Tables.Profiles)
	}
}

func TestLoadUserinfoRejectsProdDefaults(t *testing.T) {
	t.Setenv("ENV", "prod")

	if _, err := LoadUserinfo(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("err = %v", err)
	}
}

func TestLoggerLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := Logging{Level: "warn", Format: "json"}.Logger(&buf)
	log.Info("hidden")
	log.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), `"msg":"shown"`) {
		t.Fatalf("output = %s", buf.String())
	}
}
