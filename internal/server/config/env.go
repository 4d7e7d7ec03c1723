package config

import (
	"os"
	"strconv"

	"github.com/dmitrijs2005/fplassistant/internal/flagx"
	"github.com/joho/godotenv"
)

// envBindings maps environment variables onto Config fields. The names match
// the ones the deployment already exports.
var envBindings = []struct {
	name string
	set  func(c *Config, v string)
}{
	{"PORT", func(c *Config, v string) { c.HTTPAddr = ":" + v }},
	{"DATABASE_URL", func(c *Config, v string) { c.DatabaseDSN = v }},
	{"JWT_SECRET", func(c *Config, v string) { c.SecretKey = v }},
	{"AWS_REGION", func(c *Config, v string) { c.S3Region = v }},
	{"AWS_ACCESS_KEY_ID", func(c *Config, v string) { c.S3AccessKey = v }},
	{"AWS_SECRET_ACCESS_KEY", func(c *Config, v string) { c.S3SecretKey = v }},
	{"S3_ENDPOINT", func(c *Config, v string) { c.S3BaseEndpoint = v }},
	{"PREDICTIONS_S3_BUCKET", func(c *Config, v string) { c.PredictionsBucket = v }},
	{"PREDICTIONS_S3_KEY", func(c *Config, v string) { c.PredictionsKey = v }},
	{"CURRENT_FPL_SEASON", func(c *Config, v string) { c.Season = v }},
	{"SPECIAL_USER_EMAIL", func(c *Config, v string) { c.SpecialUserEmail = v }},
	{"CLIENT_ORIGIN", func(c *Config, v string) { c.ClientOrigin = v }},
	{"WEB_DIR", func(c *Config, v string) { c.WebDir = v }},
	{"LOG_LEVEL", func(c *Config, v string) { c.LogLevel = v }},
	{"TRUST_PROXY_HEADERS", func(c *Config, v string) {
		if b, err := strconv.ParseBool(v); err == nil {
			c.TrustProxyHeaders = b
		}
	}},
}

// parseEnv overlays values from the environment. A dotenv file named by
// -env is loaded first and must exist; otherwise ./.env is loaded when
// present. Variables already set in the process environment win over the file.
func parseEnv(config *Config, args []string) {
	if path := flagx.EnvFile(args); path != "" {
		if err := godotenv.Load(path); err != nil {
			panic(err)
		}
	} else if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}

	for _, b := range envBindings {
		if v, ok := os.LookupEnv(b.name); ok && v != "" {
			b.set(config, v)
		}
	}
}
