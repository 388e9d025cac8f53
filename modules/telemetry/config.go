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

type (
	Mode     string
	Protocol string
)

const (
	ModeDetect   Mode = "detect"
	ModeManual   Mode = "manual"
	ModeAuto     Mode = "auto"
	ModeDisabled Mode = "disabled"

	ProtocolGRPC Protocol = "grpc"
	ProtocolHTTP Protocol = "http/protobuf"
)

// Config is parsed without a prefix so the standard OTEL_* variables apply.
type Config struct {
	ServiceName    string `env:"OTEL_SERVICE_NAME" envDefault:"forum-api"`
	ServiceVersion string `env:"SERVICE_VERSION" envDefault:"dev"`
	Environment    string `env:"ENVIRONMENT" envDefault:"local"`

	// "http://otel-collector:4318" or a bare "otel-collector:4318"
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"otel-collector:4318"`
	// MetricsEndpoint overrides OTLPEndpoint for metrics only.
	MetricsEndpoint string   `env:"OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"`
	Protocol        Protocol `env:"OTEL_EXPORTER_OTLP_PROTOCOL" envDefault:"http/protobuf" validate:"oneof=grpc http/protobuf"`
	Insecure        bool     `env:"OTEL_EXPORTER_OTLP_INSECURE"`

	// 0 never, 1 always, otherwise parent based ratio
	SamplerRatio float64 `env:"OTEL_SAMPLER_RATIO" envDefault:"1" validate:"gte=0,lte=1"`

	StartupTimeout time.Duration `env:"OTEL_STARTUP_TIMEOUT" envDefault:"5s"`

	Mode Mode `env:"OTEL_MODE" envDefault:"detect" validate:"oneof=detect manual auto disabled"`

	DisableMetrics bool `env:"OTEL_DISABLE_METRICS"`

	ResourceAttrs map[string]string `env:"OTEL_EXTRA_RESOURCE_ATTRIBUTES" envSeparator:"," envKeyValSeparator:"="`
}
