package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rarespot/rarespot/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

// clearConfigEnvVars removes every RARESPOT_* variable the loader reads so
// tests do not leak state into each other.
func clearConfigEnvVars(t *testing.T) {
	t.Helper()
	keys := []string{
		"RARESPOT_CONFIG",
		"RARESPOT_LOG_LEVEL",
		"RARESPOT_ADDR",
		"RARESPOT_QUEUE_SIZE",
		"RARESPOT_WORKER_COUNT",
		"RARESPOT_DEDUPE_SIZE",
		"RARESPOT_CACHE_SIZE",
		"RARESPOT_MAX_LEADERBOARD_LIMIT",
		"RARESPOT_ORACLE_BASE_URL",
		"RARESPOT_ORACLE_API_KEY",
		"RARESPOT_ORACLE_MODEL",
		"RARESPOT_ORACLE_TEMPERATURE",
		"RARESPOT_ORACLE_MAX_TOKENS",
		"RARESPOT_ORACLE_TIMEOUT_MS",
		"RARESPOT_ORACLE_RETRIES",
	}
	for _, key := range keys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad(t *testing.T) {
	Convey("Given a clean environment", t, func() {
		clearConfigEnvVars(t)

		Convey("When loading with no overrides", func() {
			cfg, err := config.Load(context.Background())

			Convey("Then defaults are returned", func() {
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":9080")
				So(cfg.QueueSize, ShouldEqual, 100_000)
				So(cfg.OracleModel, ShouldEqual, "gpt-4o-mini")
			})
		})

		Convey("When environment variables override defaults", func() {
			t.Setenv("RARESPOT_ADDR", ":7070")
			t.Setenv("RARESPOT_QUEUE_SIZE", "42")
			t.Setenv("RARESPOT_LOG_LEVEL", "debug")
			t.Setenv("RARESPOT_ORACLE_API_KEY", "sk-test")

			cfg, err := config.Load(context.Background())

			Convey("Then the env values win", func() {
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":7070")
				So(cfg.QueueSize, ShouldEqual, 42)
				So(cfg.LogLevel, ShouldEqual, "debug")
				So(cfg.OracleAPIKey, ShouldEqual, "sk-test")

				// Untouched fields keep defaults.
				So(cfg.WorkerCount, ShouldBeGreaterThan, 0)
				So(cfg.OracleModel, ShouldEqual, "gpt-4o-mini")
			})
		})

		Convey("When a YAML file is provided via RARESPOT_CONFIG", func() {
			dir := t.TempDir()
			path := filepath.Join(dir, "config.yaml")

			yaml := "addr: \":6060\"\nworker_count: 3\noracle_model: gpt-4o\n"
			So(os.WriteFile(path, []byte(yaml), 0o600), ShouldBeNil)

			t.Setenv("RARESPOT_CONFIG", path)

			cfg, err := config.Load(context.Background())

			Convey("Then file values override defaults", func() {
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":6060")
				So(cfg.WorkerCount, ShouldEqual, 3)
				So(cfg.OracleModel, ShouldEqual, "gpt-4o")
			})

			Convey("And env values override the file", func() {
				t.Setenv("RARESPOT_ADDR", ":5050")

				cfg, err := config.Load(context.Background())
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":5050")
				So(cfg.WorkerCount, ShouldEqual, 3)
			})
		})

		Convey("When the config file is missing", func() {
			t.Setenv("RARESPOT_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))

			cfg, err := config.Load(context.Background())

			Convey("Then loading fails with ErrLoadConfig", func() {
				So(cfg, ShouldBeNil)
				So(errors.Is(err, config.ErrLoadConfig), ShouldBeTrue)
			})
		})

		Convey("When validation fails", func() {
			Convey("And queue_size is not positive", func() {
				t.Setenv("RARESPOT_QUEUE_SIZE", "0")

				cfg, err := config.Load(context.Background())
				So(cfg, ShouldBeNil)
				So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
			})

			Convey("And worker_count is not positive", func() {
				t.Setenv("RARESPOT_WORKER_COUNT", "-1")

				cfg, err := config.Load(context.Background())
				So(cfg, ShouldBeNil)
				So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
			})
		})
	})
}
