package config_test

import (
	"context"
	"os"
	"testing"

	"github.com/okian/kartcup/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		// keep a stray .env in the package dir from leaking into tests
		_ = os.Setenv("KART_DOTENV", createTempFile("kart-*.env", ""))
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.Store, convey.ShouldEqual, config.StoreMemory)
				convey.So(cfg.FinalsTargets["gp"], convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("KART_ADDR", ":8080")
			_ = os.Setenv("KART_MAX_UPDATE_ATTEMPTS", "9")
			_ = os.Setenv("KART_FINALS_TARGETS__BM", "7")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.MaxUpdateAttempts, convey.ShouldEqual, 9)
				convey.So(cfg.FinalsTargets["bm"], convey.ShouldEqual, 7)
			})

			convey.Convey("And untouched map entries keep their defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.FinalsTargets["mr"], convey.ShouldEqual, 5)
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			yamlContent := `
addr: ":9090"
log_format: json
max_update_attempts: 3
finals_targets:
  gp: 4
qualification_rounds:
  bm: 6
`
			tmpFile := createTempFile("kart-config-*.yaml", yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("KART_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from the file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.MaxUpdateAttempts, convey.ShouldEqual, 3)
				convey.So(cfg.FinalsTargets["gp"], convey.ShouldEqual, 4)
				convey.So(cfg.QualificationRounds["bm"], convey.ShouldEqual, 6)
			})

			convey.Convey("And env vars override the file", func() {
				_ = os.Setenv("KART_ADDR", ":7070")
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.MaxUpdateAttempts, convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When a .env file sets values", func() {
			dotenv := createTempFile("kart-*.env", "KART_STORE=postgres\nKART_DATABASE_URL=postgres://kart@localhost/kart\n")
			defer func() { _ = os.Remove(dotenv) }()
			_ = os.Setenv("KART_DOTENV", dotenv)

			cfg, err := config.Load(ctx)

			convey.Convey("Then they are picked up like env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Store, convey.ShouldEqual, config.StorePostgres)
				convey.So(cfg.DatabaseURL, convey.ShouldEqual, "postgres://kart@localhost/kart")
			})
		})

		convey.Convey("When loading config with an invalid YAML file", func() {
			tmpFile := createTempFile("kart-config-*.yaml", `invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("KART_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with a non-existent file", func() {
			_ = os.Setenv("KART_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("KART_ADDR", "")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an unsupported bracket size", func() {
			_ = os.Setenv("KART_BRACKET_SIZE", "16")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should be rejected", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an invalid number", func() {
			_ = os.Setenv("KART_MAX_UPDATE_ATTEMPTS", "lots")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	for _, kv := range os.Environ() {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				if key := kv[:i]; len(key) >= 5 && key[:5] == "KART_" {
					_ = os.Unsetenv(key)
				}
				break
			}
		}
	}
}

func createTempFile(pattern, content string) string {
	tmpFile, err := os.CreateTemp("", pattern)
	if err != nil {
		panic(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	if err := tmpFile.Close(); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}
