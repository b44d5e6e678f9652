package config

import (
	"flag"
	"os"
	"time"

	"github.com/akihokurino/works-server/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
//	-a string   HTTP (GraphQL) bind address, e.g. ":8080"
//	-g string   gRPC health bind address, e.g. ":50051"
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-k string   refresh token encryption passphrase
//	-m string   Misoca base URL
//	-t int      Misoca request timeout, seconds
//	-l string   log level
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-e string   S3 base endpoint
//
// os.Args is filtered with flagx.FilterArgs first so subcommands and flags of
// other parsers do not collide with these.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-g", "-d", "-s", "-k", "-m", "-t", "-l", "-u", "-p", "-b", "-e"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to serve GraphQL on")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "address and port to serve gRPC health on")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.TokenEncryptionKey, "k", config.TokenEncryptionKey, "refresh token encryption key")
	fs.StringVar(&config.MisocaBaseURL, "m", config.MisocaBaseURL, "misoca base url")

	misocaTimeout := fs.Int("t", int(config.MisocaTimeout.Seconds()), "misoca timeout (in seconds)")

	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.MisocaTimeout = time.Duration(*misocaTimeout) * time.Second
}
