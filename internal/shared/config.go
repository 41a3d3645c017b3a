package shared

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Database struct {
		Driver string `yaml:"driver"` // "sqlite" (default)
		DSN    string `yaml:"dsn"`    // "./trendline.db"
	} `yaml:"database"`

	Reference struct {
		Tool             string `yaml:"tool"` // default analysis tool for history queries
		UsePreviousBuild bool   `yaml:"use_previous_build_as_reference"`
		UseStableBuild   bool   `yaml:"use_stable_build_as_reference"`
	} `yaml:"reference"`

	Gates struct {
		TotalUnstable int      `yaml:"total_unstable"` // 0 = off
		TotalFailure  int      `yaml:"total_failure"`  // 0 = off
		NewUnstable   int      `yaml:"new_unstable"`   // 0 = off
		NewFailure    int      `yaml:"new_failure"`    // 0 = off
		Disabled      []string `yaml:"disabled"`
	} `yaml:"gates"`

	Health struct {
		Healthy   int `yaml:"healthy"`   // issue count scoring 100
		Unhealthy int `yaml:"unhealthy"` // issue count scoring 0
	} `yaml:"health"`

	Reporting struct {
		OutDir string `yaml:"out_dir"` // "./reports"
	} `yaml:"reporting"`

	Server struct {
		Addr           string   `yaml:"addr"` // ":8080"
		AllowedOrigins []string `yaml:"allowed_origins"`
		SessionMinutes int      `yaml:"session_minutes"`
	} `yaml:"server"`

	Logging struct {
		Format string `yaml:"format"` // "json"|"text"
		Level  string `yaml:"level"`  // "info"|"debug"|"warn"|"error"
	} `yaml:"logging"`
}

func DefaultConfig() Config {
	var c Config
	c.Database.Driver = "sqlite"
	c.Database.DSN = "./trendline.db"
	c.Reference.Tool = "checkline"
	c.Reference.UsePreviousBuild = true
	c.Gates.NewUnstable = 1
	c.Health.Healthy = 0
	c.Health.Unhealthy = 0
	c.Reporting.OutDir = "./reports"
	c.Server.Addr = ":8080"
	c.Server.SessionMinutes = 720
	c.Logging.Format = "json"
	c.Logging.Level = "info"
	return c
}

func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()
	if path != "" {
		if b, err := os.ReadFile(path); err == nil {
			_ = yaml.Unmarshal(b, &c)
		}
	}
	// Env overrides (simple, explicit)
	if v := os.Getenv("TRENDLINE_DB_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("TRENDLINE_TOOL"); v != "" {
		c.Reference.Tool = v
	}
	if v := os.Getenv("TRENDLINE_USE_PREVIOUS_BUILD"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Reference.UsePreviousBuild = b
		}
	}
	if v := os.Getenv("TRENDLINE_USE_STABLE_BUILD"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Reference.UseStableBuild = b
		}
	}
	if v := os.Getenv("TRENDLINE_OUT_DIR"); v != "" {
		c.Reporting.OutDir = v
	}
	if v := os.Getenv("TRENDLINE_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("TRENDLINE_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("TRENDLINE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	return c, nil
}
