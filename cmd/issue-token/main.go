// Command issue-token mints a bearer token for an owner, for local use and
// for provisioning clients.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"expensetracker/internal/auth"
	"expensetracker/internal/cli"
	applog "expensetracker/internal/log"
)

func main() {
	owner := flag.String("owner", "", "owner ID the token is issued for")
	ttl := flag.Duration("ttl", 0, "token lifetime, defaults to JWT_TTL")
	flag.Parse()

	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig(applog.ComponentTokenIssuer)

	if *owner == "" {
		logger.Error("Missing -owner flag")
		os.Exit(2)
	}
	lifetime := cfg.JWTTTL
	if *ttl > 0 {
		lifetime = *ttl
	}

	token, err := auth.NewJWTManager(cfg.JWTSecret, lifetime).Generate(*owner)
	if err != nil {
		logger.Error("Failed to issue token", "error", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "token for %s expires %s\n", *owner, time.Now().Add(lifetime).UTC().Format(time.RFC3339))
	fmt.Println(token)
}
