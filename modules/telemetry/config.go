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

package telemetry

import "time"

type Protocol string

const (
	ProtocolHTTP Protocol = "http/protobuf"
	ProtocolGRPC Protocol = "grpc"
)

// Config is read with the OTEL_ prefix stripped by the caller's env
// options. An empty ServiceName is filled in by each binary.
type Config struct {
	Enabled        bool   `env:"OTEL_ENABLED" envDefault:"false"`
	ServiceName    string `env:"OTEL_SERVICE_NAME"`
	ServiceVersion string `env:"SERVICE_VERSION" envDefault:"dev"`
	Environment    string `env:"ENVIRONMENT" envDefault:"local"`

	// Either a URL ("http://otel-collector:4318") or host:port.
	OTLPEndpoint string   `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"otel-collector:4318"`
	Protocol     Protocol `env:"OTEL_EXPORTER_OTLP_PROTOCOL" envDefault:"http/protobuf"`
	Insecure     bool     `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`

	SamplerRatio   float64       `env:"OTEL_SAMPLER_RATIO" envDefault:"1"`
	StartupTimeout time.Duration `env:"OTEL_STARTUP_TIMEOUT" envDefault:"5s"`
	DisableMetrics bool          `env:"OTEL_DISABLE_METRICS"`

	ResourceAttrs map[string]string `env:"OTEL_RESOURCE_ATTRIBUTES" envSeparator:"," envKeyValSeparator:"="`
}
