package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/okian/racerank/internal/config"
	"github.com/okian/racerank/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	"RACERANK_CONFIG",
	"RACERANK_RULE",
	"RACERANK_K_FACTOR",
	"RACERANK_MIN_RACES",
	"RACERANK_MIN_DATE",
	"RACERANK_STRICT_ORDER",
	"RACERANK_ADDR",
	"RACERANK_LOG_LEVEL",
	"RACERANK_OUTPUT_DIR",
}

func clearConfigEnvVars() {
	for _, k := range configEnvVars {
		_ = os.Unsetenv(k)
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "racerank.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should carry the documented defaults", func() {
			convey.So(cfg.Rule, convey.ShouldEqual, "pairwise")
			convey.So(cfg.DefaultRating, convey.ShouldEqual, model.DefaultRating)
			convey.So(cfg.KFactor, convey.ShouldEqual, 2.0)
			convey.So(cfg.MinRaces, convey.ShouldEqual, 10)
			convey.So(cfg.MinDate, convey.ShouldEqual, "2000.00.00")
			convey.So(cfg.IDLength, convey.ShouldEqual, 7)
			convey.So(cfg.LoaderConcurrency, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.Addr, convey.ShouldBeEmpty)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should succeed", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Rule, convey.ShouldEqual, "pairwise")
				d, err := cfg.MinEventDate()
				convey.So(err, convey.ShouldBeNil)
				convey.So(d, convey.ShouldEqual, model.EventDate("2000.00.00"))
			})
		})

		convey.Convey("When environment variables are set", func() {
			_ = os.Setenv("RACERANK_RULE", "field")
			_ = os.Setenv("RACERANK_K_FACTOR", "4.5")
			_ = os.Setenv("RACERANK_MIN_RACES", "3")
			_ = os.Setenv("RACERANK_STRICT_ORDER", "true")
			_ = os.Setenv("RACERANK_ADDR", ":8080")

			cfg, err := config.Load(ctx)

			convey.Convey("Then they should override the defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Rule, convey.ShouldEqual, "field")
				convey.So(cfg.KFactor, convey.ShouldEqual, 4.5)
				convey.So(cfg.MinRaces, convey.ShouldEqual, 3)
				convey.So(cfg.StrictOrder, convey.ShouldBeTrue)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			})
		})

		convey.Convey("When a YAML file is given", func() {
			path := writeConfigFile(t, `
rule: harkness
min_races: 5
min_date: "2005-07-01"
output_dir: /tmp/out
history_db: /tmp/out/history.db
`)
			_ = os.Setenv("RACERANK_CONFIG", path)
			_ = os.Setenv("RACERANK_MIN_RACES", "7")

			cfg, err := config.Load(ctx)

			convey.Convey("Then the file should apply and env should win", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Rule, convey.ShouldEqual, "harkness")
				convey.So(cfg.MinRaces, convey.ShouldEqual, 7)
				convey.So(cfg.OutputDir, convey.ShouldEqual, "/tmp/out")
				convey.So(cfg.HistoryDB, convey.ShouldEqual, "/tmp/out/history.db")
				d, _ := cfg.MinEventDate()
				convey.So(d, convey.ShouldEqual, model.EventDate("2005.07.01"))
			})
		})

		convey.Convey("When the file does not exist", func() {
			_, err := config.LoadFile(ctx, filepath.Join(t.TempDir(), "missing.yaml"))

			convey.Convey("Then it should report a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When values are invalid", func() {
			cases := map[string]string{
				"RACERANK_RULE":      "glicko",
				"RACERANK_K_FACTOR":  "0",
				"RACERANK_MIN_RACES": "-1",
				"RACERANK_MIN_DATE":  "yesterday",
				"RACERANK_LOG_LEVEL": "loud",
				"RACERANK_ADDR":      "not an address",
			}
			for key, val := range cases {
				clearConfigEnvVars()
				_ = os.Setenv(key, val)
				_, err := config.Load(ctx)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			}
		})

		convey.Convey("When the output dir is cleared", func() {
			cfg := config.New()
			cfg.OutputDir = ""

			convey.Convey("Then validation should fail", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}
