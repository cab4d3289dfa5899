package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/zodiachr/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigDefaults(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should be valid and use the mock login", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.Store.Driver, convey.ShouldEqual, "memory")
			convey.So(cfg.Auth.Mode, convey.ShouldEqual, "mock")
			convey.So(cfg.Auth.Username, convey.ShouldEqual, "admin")
			convey.So(cfg.Auth.DateOfBirth, convey.ShouldEqual, "2003-12-04")
			convey.So(cfg.Scheduler.BirthdayCron, convey.ShouldEqual, "0 8 * * *")
			convey.So(cfg.UpcomingDays, convey.ShouldEqual, 30)
		})
	})
}

func TestConfigValidate(t *testing.T) {
	convey.Convey("Given configs that break one rule each", t, func() {
		mutate := []func(c *config.Config){
			func(c *config.Config) { c.Addr = "" },
			func(c *config.Config) { c.Store.Driver = "postgres" },
			func(c *config.Config) { c.Store.Driver = "sqlite"; c.Store.Path = "" },
			func(c *config.Config) { c.Auth.Mode = "ldap" },
			func(c *config.Config) { c.Auth.Mode = "remote"; c.Auth.BaseURL = "" },
			func(c *config.Config) { c.Auth.SessionTTL = 0 },
			func(c *config.Config) { c.Auth.LoginBurst = 0 },
			func(c *config.Config) { c.Scheduler.BirthdayCron = "every morning" },
			func(c *config.Config) { c.Scheduler.Timezone = "Mars/Olympus" },
			func(c *config.Config) { c.UpcomingDays = 400 },
			func(c *config.Config) { c.Import.QueueSize = 0 },
		}

		convey.Convey("Then each should fail with ErrInvalidConfig", func() {
			for _, m := range mutate {
				cfg := config.New(context.Background())
				m(cfg)
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			}
		})
	})
}

func TestConfigValidateKinds(t *testing.T) {
	convey.Convey("Given configs with scheduler or mode mistakes", t, func() {
		cases := []struct {
			mutate func(c *config.Config)
			kind   error
		}{
			{func(c *config.Config) { c.Scheduler.BirthdayCron = "every morning" }, config.ErrInvalidSchedule},
			{func(c *config.Config) { c.Scheduler.Timezone = "Mars/Olympus" }, config.ErrUnknownTimezone},
			{func(c *config.Config) { c.Store.Driver = "postgres" }, config.ErrUnknownMode},
			{func(c *config.Config) { c.Auth.Mode = "ldap" }, config.ErrUnknownMode},
		}

		convey.Convey("Then each should wrap both ErrInvalidConfig and its specific kind", func() {
			for _, tc := range cases {
				cfg := config.New(context.Background())
				tc.mutate(cfg)
				err := cfg.Validate()
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(errors.Is(err, tc.kind), convey.ShouldBeTrue)
			}
		})

		convey.Convey("Then a disabled scheduler should skip the cron check", func() {
			cfg := config.New(context.Background())
			cfg.Scheduler.Enabled = false
			cfg.Scheduler.BirthdayCron = "every morning"
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then Location should report the unknown zone directly", func() {
			cfg := config.New(context.Background())
			cfg.Scheduler.Timezone = "Mars/Olympus"
			_, err := cfg.Location()
			convey.So(errors.Is(err, config.ErrUnknownTimezone), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "Mars/Olympus")
		})
	})
}

func TestConfigLoader(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given a config loader", t, func() {
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then the defaults should come back", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.Auth.Mode, convey.ShouldEqual, "mock")
			})
		})

		convey.Convey("When loading with environment variables", func() {
			_ = os.Setenv("ZODIAC_ADDR", ":8181")
			_ = os.Setenv("ZODIAC_AUTH__MODE", "remote")
			_ = os.Setenv("ZODIAC_AUTH__BASE_URL", "http://auth.local/api")
			_ = os.Setenv("ZODIAC_AUTH__REQUIRED", "true")
			_ = os.Setenv("ZODIAC_AUTH__SESSION_TTL", "2h")
			_ = os.Setenv("ZODIAC_IMPORT__WORKER_COUNT", "3")

			cfg, err := config.Load(ctx)

			convey.Convey("Then nested keys should be overridden", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8181")
				convey.So(cfg.Auth.Mode, convey.ShouldEqual, "remote")
				convey.So(cfg.Auth.BaseURL, convey.ShouldEqual, "http://auth.local/api")
				convey.So(cfg.Auth.Required, convey.ShouldBeTrue)
				convey.So(cfg.Auth.SessionTTL, convey.ShouldEqual, 2*time.Hour)
				convey.So(cfg.Import.WorkerCount, convey.ShouldEqual, 3)
				convey.So(cfg.Import.QueueSize, convey.ShouldEqual, 10_000)
			})
		})

		convey.Convey("When loading with a YAML file", func() {
			path := filepath.Join(t.TempDir(), "config.yaml")
			yamlContent := `
addr: ":9090"
log_format: json
store:
  driver: sqlite
  path: /tmp/zodiac-test.db
scheduler:
  birthday_cron: "30 7 * * 1-5"
`
			convey.So(os.WriteFile(path, []byte(yamlContent), 0o600), convey.ShouldBeNil)
			_ = os.Setenv("ZODIAC_CONFIG", path)
			_ = os.Setenv("ZODIAC_ADDR", ":7070")

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values should apply and env should win", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.Store.Driver, convey.ShouldEqual, "sqlite")
				convey.So(cfg.Store.Path, convey.ShouldEqual, "/tmp/zodiac-test.db")
				convey.So(cfg.Scheduler.BirthdayCron, convey.ShouldEqual, "30 7 * * 1-5")
				convey.So(cfg.Scheduler.Enabled, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading with a dotenv file", func() {
			path := filepath.Join(t.TempDir(), ".env")
			convey.So(os.WriteFile(path, []byte("ZODIAC_UPCOMING_DAYS=14\nZODIAC_LOG_LEVEL=debug\n"), 0o600), convey.ShouldBeNil)
			_ = os.Setenv("ZODIAC_ENV_FILE", path)
			_ = os.Setenv("ZODIAC_LOG_LEVEL", "warn")

			cfg, err := config.Load(ctx)

			convey.Convey("Then dotenv should fill gaps without overriding the environment", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.UpcomingDays, convey.ShouldEqual, 14)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "warn")
			})
		})

		convey.Convey("When the config file is missing", func() {
			_ = os.Setenv("ZODIAC_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))
			_, err := config.Load(ctx)

			convey.Convey("Then ErrLoadConfig should be returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When env values fail validation", func() {
			_ = os.Setenv("ZODIAC_STORE__DRIVER", "mongo")
			_, err := config.Load(ctx)

			convey.Convey("Then ErrInvalidConfig should be returned", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func clearConfigEnvVars() {
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, config.EnvPrefix) {
			_ = os.Unsetenv(kv[:strings.IndexByte(kv, '=')])
		}
	}
}
