// Package config handles configuration for the server: defaults, a JSON
// overlay, environment variables (optionally read from a .env file) and
// finally command-line flags.
package config

import (
	"os"
	"time"
)

// FeedSource is one RSS feed the news aggregator reads.
type FeedSource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Config holds runtime settings for the server.
//
// Fields:
//   - HTTPAddr: bind address for the HTTP API.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty means the in-memory user store.
//   - SecretKey: HMAC secret for signing JWTs (HS256). Do not use the default in prod.
//   - AccessTokenValidityDuration: lifetime of issued tokens.
//   - S3*: object storage settings; empty keys fall back to the AWS default chain,
//     an empty endpoint means AWS itself.
//   - PredictionsBucket / PredictionsKey: location of the predictions document.
//   - FPLBaseURL, FixturesArchiveURL, Season, LastGameweek: league data sources.
//   - UpstreamTimeout / ArchiveTimeout / FeedTimeout: per-call outbound timeouts.
//   - TeamCacheTTL / NewsCacheTTL: lifetimes of the two in-memory caches.
//   - SpecialUserEmail: the one account flagged as special in auth responses.
//   - ClientOrigin: allowed CORS origin; WebDir: optional client bundle to serve.
type Config struct {
	HTTPAddr                    string
	DatabaseDSN                 string
	SecretKey                   string
	AccessTokenValidityDuration time.Duration

	S3AccessKey       string
	S3SecretKey       string
	S3Region          string
	S3BaseEndpoint    string
	PredictionsBucket string
	PredictionsKey    string

	FPLBaseURL         string
	FixturesArchiveURL string
	Season             string
	LastGameweek       int
	UserAgent          string
	UpstreamTimeout    time.Duration
	ArchiveTimeout     time.Duration
	FeedTimeout        time.Duration
	TeamCacheTTL       time.Duration
	NewsCacheTTL       time.Duration
	NewsFeeds          []FeedSource

	SpecialUserEmail string
	ClientOrigin     string
	WebDir           string
	AuthRateLimit    float64
	AuthRateBurst    int
	// TrustProxyHeaders takes the client address from X-Forwarded-For and
	// X-Real-IP. Enable only behind a proxy that overwrites them.
	TrustProxyHeaders bool
	LogLevel          string
}

// DefaultNewsFeeds is the feed list used when none is configured.
func DefaultNewsFeeds() []FeedSource {
	return []FeedSource{
		{Name: "BBC Sport - Football", URL: "https://feeds.bbci.co.uk/sport/football/rss.xml"},
		{Name: "Football News Views - PL", URL: "https://www.football-news-views.co.uk/premier-league-rss.xml"},
		{Name: "Football News Views - Spurs", URL: "https://www.football-news-views.co.uk/tottenham-hotspurrss.xml"},
	}
}

// LoadDefaults populates Config with development defaults.
// NOTE: SecretKey must be overridden outside local development.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":5001"
	c.DatabaseDSN = ""
	c.SecretKey = "secretKey"
	c.AccessTokenValidityDuration = 30 * 24 * time.Hour

	c.S3Region = "us-east-1"

	c.FPLBaseURL = "https://fantasy.premierleague.com/api"
	c.FixturesArchiveURL = "https://raw.githubusercontent.com/vaastav/Fantasy-Premier-League/master/data"
	c.Season = "2023-24"
	c.LastGameweek = 38
	c.UserAgent = "FPL-Assistant-App/1.0"
	c.UpstreamTimeout = 7 * time.Second
	c.ArchiveTimeout = 10 * time.Second
	c.FeedTimeout = 10 * time.Second
	c.TeamCacheTTL = time.Hour
	c.NewsCacheTTL = 30 * time.Minute
	c.NewsFeeds = DefaultNewsFeeds()

	c.ClientOrigin = "http://localhost:5173"
	c.AuthRateLimit = 5
	c.AuthRateBurst = 10
	c.LogLevel = "info"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line flags.
func LoadConfig() *Config {
	args := os.Args[1:]

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, args)
	parseEnv(cfg, args)
	parseFlags(cfg, args)
	return cfg
}
