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

// Package dbtest starts throwaway redis and postgres containers for
// integration tests. Callers skip when no container runtime is reachable.
package dbtest

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/docker/go-connections/nat"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"forum/modules/db/postgres"
)

const startTimeout = 3 * time.Minute

// Redis starts redis and returns its host:port.
func Redis(ctx context.Context) (string, func(), error) {
	c, err := start(ctx, tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("6379/tcp"),
			wait.ForLog("Ready to accept connections"),
		).WithDeadline(startTimeout),
	})
	if err != nil {
		return "", nil, err
	}
	host, port, err := endpoint(ctx, c, "6379/tcp")
	if err != nil {
		terminate(c)
		return "", nil, err
	}
	return net.JoinHostPort(host, strconv.Itoa(int(port))), func() { terminate(c) }, nil
}

// Postgres starts postgres and returns a pool config pointing at it.
func Postgres(ctx context.Context) (postgres.PoolConfig, func(), error) {
	c, err := start(ctx, tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "postgres",
			"POSTGRES_DB":       "forum",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("5432/tcp"),
			// the server restarts once after init
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		).WithDeadline(startTimeout),
	})
	if err != nil {
		return postgres.PoolConfig{}, nil, err
	}
	host, port, err := endpoint(ctx, c, "5432/tcp")
	if err != nil {
		terminate(c)
		return postgres.PoolConfig{}, nil, err
	}
	cfg := postgres.PoolConfig{
		Host:         host,
		Port:         port,
		User:         "postgres",
		Password:     "postgres",
		Database:     "forum",
		SSLMode:      "disable",
		PoolMaxConns: 4,
	}
	return cfg, func() { terminate(c) }, nil
}

// start turns a missing docker daemon into an error; some provider lookups panic instead.
func start(ctx context.Context, req tc.ContainerRequest) (c tc.Container, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dbtest: container runtime unavailable: %v", r)
		}
	}()
	ctx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()

	c, err = tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		if c != nil {
			terminate(c)
		}
		return nil, fmt.Errorf("dbtest: start %s: %w", req.Image, err)
	}
	return c, nil
}

func endpoint(ctx context.Context, c tc.Container, port nat.Port) (string, uint16, error) {
	host, err := c.Host(ctx)
	if err != nil {
		return "", 0, fmt.Errorf("dbtest: container host: %w", err)
	}
	mapped, err := c.MappedPort(ctx, port)
	if err != nil {
		return "", 0, fmt.Errorf("dbtest: mapped port: %w", err)
	}
	n, err := strconv.ParseUint(mapped.Port(), 10, 16)
	if err != nil {
		return "", 0, fmt.Errorf("dbtest: mapped port %q: %w", mapped.Port(), err)
	}
	return host, uint16(n), nil
}

func terminate(c tc.Container) {
	_ = c.Terminate(context.Background())
}
