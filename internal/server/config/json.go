package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/fplassistant/internal/flagx"
	"github.com/dmitrijs2005/fplassistant/internal/timex"
)

// JsonConfig is the on-disk shape of the JSON config file. Durations accept
// both "90s"-style strings and integer nanoseconds. Absent fields leave the
// current value untouched.
type JsonConfig struct {
	HTTPAddr                    *string         `json:"http_addr"`
	DatabaseDSN                 *string         `json:"database_dsn"`
	SecretKey                   *string         `json:"secret_key"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration"`
	S3AccessKey                 *string         `json:"s3_access_key"`
	S3SecretKey                 *string         `json:"s3_secret_key"`
	S3Region                    *string         `json:"s3_region"`
	S3BaseEndpoint              *string         `json:"s3_base_endpoint"`
	PredictionsBucket           *string         `json:"predictions_bucket"`
	PredictionsKey              *string         `json:"predictions_key"`
	FPLBaseURL                  *string         `json:"fpl_base_url"`
	FixturesArchiveURL          *string         `json:"fixtures_archive_url"`
	Season                      *string         `json:"season"`
	LastGameweek                *int            `json:"last_gameweek"`
	UserAgent                   *string         `json:"user_agent"`
	UpstreamTimeout             *timex.Duration `json:"upstream_timeout"`
	ArchiveTimeout              *timex.Duration `json:"archive_timeout"`
	FeedTimeout                 *timex.Duration `json:"feed_timeout"`
	TeamCacheTTL                *timex.Duration `json:"team_cache_ttl"`
	NewsCacheTTL                *timex.Duration `json:"news_cache_ttl"`
	NewsFeeds                   []FeedSource    `json:"news_feeds"`
	SpecialUserEmail            *string         `json:"special_user_email"`
	ClientOrigin                *string         `json:"client_origin"`
	WebDir                      *string         `json:"web_dir"`
	AuthRateLimit               *float64        `json:"auth_rate_limit"`
	AuthRateBurst               *int            `json:"auth_rate_burst"`
	TrustProxyHeaders           *bool           `json:"trust_proxy_headers"`
	LogLevel                    *string         `json:"log_level"`
}

// parseJson overlays values from the file named by -c / -config.
// Without the flag nothing is loaded. An unreadable file or invalid JSON
// panics: the server must not start on a half-read configuration.
func parseJson(config *Config, args []string) {
	path := flagx.ConfigPath(args)
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setDuration(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration)
	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.PredictionsBucket, c.PredictionsBucket)
	setString(&config.PredictionsKey, c.PredictionsKey)
	setString(&config.FPLBaseURL, c.FPLBaseURL)
	setString(&config.FixturesArchiveURL, c.FixturesArchiveURL)
	setString(&config.Season, c.Season)
	if c.LastGameweek != nil {
		config.LastGameweek = *c.LastGameweek
	}
	setString(&config.UserAgent, c.UserAgent)
	setDuration(&config.UpstreamTimeout, c.UpstreamTimeout)
	setDuration(&config.ArchiveTimeout, c.ArchiveTimeout)
	setDuration(&config.FeedTimeout, c.FeedTimeout)
	setDuration(&config.TeamCacheTTL, c.TeamCacheTTL)
	setDuration(&config.NewsCacheTTL, c.NewsCacheTTL)
	if len(c.NewsFeeds) > 0 {
		config.NewsFeeds = c.NewsFeeds
	}
	setString(&config.SpecialUserEmail, c.SpecialUserEmail)
	setString(&config.ClientOrigin, c.ClientOrigin)
	setString(&config.WebDir, c.WebDir)
	if c.AuthRateLimit != nil {
		config.AuthRateLimit = *c.AuthRateLimit
	}
	if c.AuthRateBurst != nil {
		config.AuthRateBurst = *c.AuthRateBurst
	}
	if c.TrustProxyHeaders != nil {
		config.TrustProxyHeaders = *c.TrustProxyHeaders
	}
	setString(&config.LogLevel, c.LogLevel)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
