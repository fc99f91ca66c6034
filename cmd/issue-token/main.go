// Command issue-token prints a signed bearer token for a user, for local
// testing against an API started with JWT_SECRET.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/fkhayef/splitledger/internal/config"
	"github.com/fkhayef/splitledger/pkg/logging"
	mw "github.com/fkhayef/splitledger/pkg/middleware"
)

func main() {
	userID := flag.Int64("user", 0, "user id to put in the sub claim")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	logging.Setup(cfg.LogLevel)

	if *userID <= 0 {
		slog.Error("-user is required")
		os.Exit(2)
	}
	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET is not set")
		os.Exit(1)
	}

	token, err := mw.NewTokenValidator(cfg.JWTSecret).Issue(*userID, *ttl)
	if err != nil {
		slog.Error("failed to sign token", "error", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
