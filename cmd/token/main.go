// Command token mints a bearer token for the email API using JWT_SECRET.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"SendLater/internal/api"
)

func main() {
	subject := flag.String("sub", "admin", "token subject")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	logger := zap.Must(zap.NewDevelopment())
	defer logger.Sync()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	tok, err := api.IssueToken([]byte(secret), *subject, *ttl)
	if err != nil {
		logger.Fatal("failed to issue token", zap.Error(err))
	}

	fmt.Println(tok)
}
