package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/fplassistant/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":5001")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      token validity, hours
//	-b string   predictions S3 bucket
//	-k string   predictions S3 object key
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-n string   season of the fixtures archive (e.g., "2024-25")
//	-w string   directory with the built client to serve
//	-l string   log level
//
// Args are filtered with flagx.FilterArgs first, so -c/-config and -env
// (read by the other layers) never reach this flag set.
func parseFlags(config *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-s", "-t", "-b", "-k", "-g", "-e", "-n", "-w", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	tokenValidity := fs.Int("t", int(config.AccessTokenValidityDuration.Hours()), "token validity (in hours)")

	fs.StringVar(&config.PredictionsBucket, "b", config.PredictionsBucket, "predictions S3 bucket")
	fs.StringVar(&config.PredictionsKey, "k", config.PredictionsKey, "predictions S3 key")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.Season, "n", config.Season, "fixtures archive season")
	fs.StringVar(&config.WebDir, "w", config.WebDir, "client bundle directory")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*tokenValidity) * time.Hour
}
