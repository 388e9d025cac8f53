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

// Package db holds the storage contracts shared by the Postgres and Redis adapters.
package db

import (
	"context"
	"errors"
	"time"

	"github.com/stephenafamo/bob"
)

// ErrKeyNotFound is returned by KV implementations that distinguish a miss from a nil value.
var ErrKeyNotFound = errors.New("db: key not found")

type (
	TxFn func(ctx context.Context, q Querier) error

	// Querier is satisfied by both bob.DB and bob.Tx.
	Querier interface {
		bob.Executor
	}

	// ConnectionPool is an OLTP SQL connection pool with optional read replicas.
	ConnectionPool interface {
		HealthManager
		ConnectionManager
		MigrationManager
		TxManager

		// Shutdown closes all underlying connections.
		Shutdown(context.Context) error
	}

	HealthManager interface {
		HealthCheck(context.Context) error
	}

	ConnectionManager interface {
		// Writer returns the primary connection.
		Writer() Querier

		ReaderConnectionManager
	}

	ReaderConnectionManager interface {
		// Reader returns a replica connection, or the writer when no replica is configured.
		Reader() Querier
	}

	MigrationManager interface {
		// GenerateMigration writes a new, empty migration file named after name.
		GenerateMigration(ctx context.Context, name string) error
		MigrateUp(context.Context) error
		MigrateDown(context.Context) error
	}

	TxManager interface {
		WithTx(ctx context.Context, fn TxFn) error
		WithTimeoutTx(ctx context.Context, timeout time.Duration, fn TxFn) error
	}

	// KV is a key value store with atomic read and swap.
	// AtomicGet returns (nil, nil) on a miss; AtomicSet returns the previous value or nil.
	KV interface {
		AtomicGet(context.Context, string) (any, error)
		AtomicSet(context.Context, string, any) (any, error)
		Delete(context.Context, string) error
	}
)
