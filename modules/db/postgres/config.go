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

package postgres

type (
	// PostgresConfig is parsed under the POSTGRES_ prefix. Fields must be exported for env.
	PostgresConfig struct {
		WriteConfig PoolConfig   `envPrefix:"PRIMARY_"`
		ReadConfigs []PoolConfig `envPrefix:"REPLICA_"`

		// MigrationsDir is where GenerateMigration writes new files.
		MigrationsDir string `env:"MIGRATIONS_DIR" envDefault:"core/forum/adapters/persistence/pg/migrations"`
		AutoMigrate   bool   `env:"AUTO_MIGRATE" envDefault:"true"`
	}

	PoolConfig struct {
		Host         string `env:"HOST"     envDefault:"localhost"`
		Port         uint16 `env:"PORT"     envDefault:"5432"`
		User         string `env:"USER"     envDefault:"postgres"`
		Password     string `env:"PASSWORD" envDefault:"postgres"`
		Database     string `env:"DATABASE" envDefault:"forum"`
		SSLMode      string `env:"SSLMODE"  envDefault:"disable" validate:"oneof=disable allow prefer require verify-ca verify-full"`
		PoolMaxConns int    `env:"POOL_MAX_CONNS" envDefault:"5" validate:"min=1"`
	}
)
