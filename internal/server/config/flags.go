package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/microblog/internal/flagx"
)

// parseFlags overlays command-line flags onto config.
//
//	-a string         gRPC bind address (e.g. ":50051")
//	-d string         PostgreSQL DSN
//	-s string         session token HMAC secret
//	-t int            session token validity, minutes
//	-l string         log level
//	-self-follow bool permit an identity to follow itself
//	-m string         metrics bind address, empty disables
func parseFlags(config *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-s", "-t", "-l", "-self-follow", "-m"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level (debug, info, warn, error)")
	fs.StringVar(&config.MetricsAddr, "m", config.MetricsAddr, "metrics address")
	fs.BoolVar(&config.AllowSelfFollow, "self-follow", config.AllowSelfFollow, "allow an identity to follow itself")
	sessionTTL := fs.Int("t", int(config.SessionTokenValidityDuration.Minutes()), "session token validity (in minutes)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// only touch the duration when -t was given, so sub-minute values from
	// earlier layers survive
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.SessionTokenValidityDuration = time.Duration(*sessionTTL) * time.Minute
		}
	})
}
