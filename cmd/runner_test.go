package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spinsync/spinsync/internal/repositories"
	"github.com/spinsync/spinsync/internal/shared"
	tu "github.com/spinsync/spinsync/internal/testing"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Config: nil,
			})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Logger: nil,
			})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Output: nil,
			})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				HTTPClient: nil,
			})

			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})

		t.Run("with configPath sets field", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				ConfigPath: "/test/path/config.toml",
			})

			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			expected := `{"key":"value"}` + "\n"
			if result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			// channels cannot be marshaled to JSON
			data := make(chan int)
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			data := map[string]string{"key": "value"}
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("hello %s", "world")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			err := runner.writePlain("test")

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) == 0 {
			t.Error("expected at least one command to be registered")
		}

		for i, cmd := range commands {
			if cmd == nil {
				t.Errorf("command at index %d is nil", i)
			}
		}
	})
}

func TestNewSessionStore(t *testing.T) {
	runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard)})

	t.Run("memory backend", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Sessions.Backend = "memory"

		store, closeStore, err := runner.newSessionStore(config)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		defer closeStore()

		if _, ok := store.(*repositories.MemorySessionRepository); !ok {
			t.Errorf("expected memory repository, got %T", store)
		}
	})

	t.Run("sqlite backend runs migrations", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Sessions.Backend = "sqlite"
		config.Database.Path = filepath.Join(t.TempDir(), "sessions.db")

		store, closeStore, err := runner.newSessionStore(config)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		defer closeStore()

		repo, ok := store.(*repositories.SQLiteSessionRepository)
		if !ok {
			t.Fatalf("expected sqlite repository, got %T", store)
		}

		// The migrated schema must accept a round trip.
		ctx := context.Background()
		session, err := repo.Get(ctx, "missing")
		if err != nil {
			t.Fatalf("expected migrated schema, got %v", err)
		}
		if session != nil {
			t.Errorf("expected no session, got %+v", session)
		}
	})

	t.Run("redis backend constructs without dialing", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Sessions.Backend = "redis"

		store, closeStore, err := runner.newSessionStore(config)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		defer closeStore()

		if _, ok := store.(*repositories.RedisSessionRepository); !ok {
			t.Errorf("expected redis repository, got %T", store)
		}
		if _, ok := store.(repositories.Purger); ok {
			t.Error("redis sessions expire via TTL and must not advertise purging")
		}
	})

	t.Run("unknown backend", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Sessions.Backend = "etcd"

		_, _, err := runner.newSessionStore(config)
		if err == nil {
			t.Fatal("expected error for unknown backend")
		}
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected invalid config error, got %v", err)
		}
	})
}

func TestSessionsPurge(t *testing.T) {
	config := shared.DefaultConfig()
	config.Sessions.Backend = "memory"
	output := &bytes.Buffer{}

	runner := NewRunner(RunnerOpts{
		Config: config,
		Logger: shared.NewLogger(io.Discard),
		Output: output,
	})

	// Point --config at a missing file so the injected config is used.
	missing := filepath.Join(t.TempDir(), "config.toml")
	cmd := sessionsCommand(runner)
	if err := cmd.Run(context.Background(), []string{"sessions", "purge", "--config", missing, "--older-than", "1h"}); err != nil {
		t.Fatalf("purge failed: %v", err)
	}

	if !strings.Contains(output.String(), "Purged 0 expired sessions") {
		t.Errorf("unexpected output: %s", output.String())
	}
}

func TestAuthURL(t *testing.T) {
	config := shared.DefaultConfig()
	output := &bytes.Buffer{}

	runner := NewRunner(RunnerOpts{
		Config: config,
		Logger: shared.NewLogger(io.Discard),
		Output: output,
	})

	missing := filepath.Join(t.TempDir(), "config.toml")
	cmd := authCommand(runner)
	if err := cmd.Run(context.Background(), []string{"auth", "--config", missing}); err != nil {
		t.Fatalf("auth failed: %v", err)
	}

	if got := strings.TrimSpace(output.String()); got != "http://127.0.0.1:5000/login" {
		t.Errorf("auth url = %s", got)
	}
}
