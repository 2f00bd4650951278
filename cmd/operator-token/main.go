package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/spmiller41/saleset-v2-sub000/internal/auth"
	"github.com/spmiller41/saleset-v2-sub000/platform/config"
	"github.com/spmiller41/saleset-v2-sub000/platform/logger"
)

const defaultTTL = 12 * time.Hour

// Usage: operator-token [operator-uuid] [ttl]
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// stdout carries only the token.
	log := logger.NewWithWriter(cfg.Env, os.Stderr)

	operatorID := uuid.New()
	if len(os.Args) > 1 {
		operatorID, err = uuid.Parse(os.Args[1])
		if err != nil {
			log.Error("invalid operator id", "value", os.Args[1], "error", err)
			os.Exit(2)
		}
	}

	ttl := defaultTTL
	if len(os.Args) > 2 {
		ttl, err = time.ParseDuration(os.Args[2])
		if err != nil || ttl <= 0 {
			log.Error("invalid ttl", "value", os.Args[2], "error", err)
			os.Exit(2)
		}
	}

	token, err := auth.IssueAccessToken(cfg.GetJWTAccessSecret(), operatorID, []string{auth.RoleAdmin}, ttl, time.Now())
	if err != nil {
		log.Error("failed to issue operator token", "error", err)
		os.Exit(1)
	}

	log.Info("operator token issued", "operator_id", operatorID, "expires_in", ttl.String())
	fmt.Println(token)
}
