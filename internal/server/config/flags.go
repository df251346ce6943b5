package config

import (
	"flag"
	"strings"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/flagx"
)

// parseFlags populates server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":3000")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      access token lifetime, minutes
//	-r int      refresh token lifetime, hours
//	-v int      activation token lifetime, hours
//	-m int      max open database connections
//	-x string   storage backend (postgres, memory)
//	-H string   password hasher (bcrypt, argon2id)
//	-R string   Redis address for token records
//	-l string   log level
//	-o string   comma separated CORS origins
//
// args are filtered with flagx.FilterArgs first so that -c/-config and
// -env-file do not trip the parser.
func parseFlags(config *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-s", "-t", "-r", "-v", "-m", "-x", "-H", "-R", "-l", "-o"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTTL := fs.Int("t", int(config.AccessTokenTTL/time.Minute), "access token lifetime (in minutes)")
	refreshTTL := fs.Int("r", int(config.RefreshTokenTTL/time.Hour), "refresh token lifetime (in hours)")
	activationTTL := fs.Int("v", int(config.ActivationTokenTTL/time.Hour), "activation token lifetime (in hours)")

	fs.IntVar(&config.MaxOpenConns, "m", config.MaxOpenConns, "max open database connections")
	fs.StringVar(&config.Storage, "x", config.Storage, "storage backend (postgres, memory)")
	fs.StringVar(&config.PasswordHasher, "H", config.PasswordHasher, "password hasher (bcrypt, argon2id)")
	fs.StringVar(&config.RedisAddr, "R", config.RedisAddr, "redis address for token records")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	origins := fs.String("o", strings.Join(config.CORSAllowedOrigins, ","), "comma separated CORS origins")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// only touch lifetimes that were given, so sub-unit values from other
	// layers are not truncated
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenTTL = time.Duration(*accessTTL) * time.Minute
		case "r":
			config.RefreshTokenTTL = time.Duration(*refreshTTL) * time.Hour
		case "v":
			config.ActivationTokenTTL = time.Duration(*activationTTL) * time.Hour
		case "o":
			config.CORSAllowedOrigins = splitList(*origins)
		}
	})
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
