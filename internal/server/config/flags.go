package config

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/foundationauth/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
//	-a string   gRPC bind address (e.g. ":50051")
//	-d string   database DSN
//	-driver     database driver, "pgx" or "sqlite"
//	-s string   JWT HMAC secret key
//	-t int      session token validity, hours
//	-v string   verification link base URL
//	-m string   mail provider: log, smtp, sendgrid, s3
//	-l string   log level
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-driver", "-s", "-t", "-v", "-m", "-l"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.DatabaseDriver, "driver", config.DatabaseDriver, "database driver (pgx|sqlite)")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "JWT secret key")
	sessionHours := fs.Int("t", int(config.SessionTokenValidityDuration.Hours()), "session token validity (in hours)")
	fs.StringVar(&config.VerificationLinkBase, "v", config.VerificationLinkBase, "verification link base URL")
	fs.StringVar(&config.MailProvider, "m", config.MailProvider, "mail provider (log|smtp|sendgrid|s3)")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	config.SessionTokenValidityDuration = time.Duration(*sessionHours) * time.Hour
	return nil
}
