package integration

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	testDatabase = "pgconf_test"
	testUser     = "pgconf"
	testPassword = "pgconf"
)

// TestContext holds the PostgreSQL container shared by the integration tests
type TestContext struct {
	Container testcontainers.Container
	Host      string
	Port      int
}

// NewTestContext starts a PostgreSQL testcontainer.
func NewTestContext(ctx context.Context) (*TestContext, error) {
	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase(testDatabase),
		tcpostgres.WithUsername(testUser),
		tcpostgres.WithPassword(testPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	// Get connection details for the host (not container network)
	host, err := pgContainer.Host(ctx)
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := pgContainer.MappedPort(ctx, "5432")
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	return &TestContext{
		Container: pgContainer,
		Host:      host,
		Port:      port.Int(),
	}, nil
}

// Settings returns lookup settings that point the base connection string at
// the container.
func (tc *TestContext) Settings() map[string]string {
	return map[string]string{
		"DB_HOST": tc.Host,
		"DB_PORT": strconv.Itoa(tc.Port),
	}
}

// BaseConnectionString deliberately names an unreachable server; the
// container address has to come from the overrides.
func (tc *TestContext) BaseConnectionString() string {
	return fmt.Sprintf("Host=unreachable.invalid;Port=1;Database=%s;Username=%s;Password=%s;SSL Mode=disable",
		testDatabase, testUser, testPassword)
}

// Close cleans up all test resources
func (tc *TestContext) Close(ctx context.Context) {
	if tc.Container != nil {
		_ = tc.Container.Terminate(ctx)
	}
}
