// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	AppID         int64
	PrivateKey    string
	WebhookSecret string
	BotLogin      string
	ListenAddr    string
	SnapshotsURL  string
	TravisURL     string
	AppVeyorURL   string
	CheckName     string
}

// Load reads configuration from environment variables and returns a
// validated Config. Required: DEPLOYLINKS_APP_ID, DEPLOYLINKS_PRIVATE_KEY,
// DEPLOYLINKS_WEBHOOK_SECRET. Literal "\n" sequences in the private key are
// unescaped, matching how hosting platforms inject multi-line PEM values.
// Optional variables with defaults: DEPLOYLINKS_BOT_LOGIN
// (add-deployment-links[bot]), DEPLOYLINKS_LISTEN_ADDR (127.0.0.1:8080),
// DEPLOYLINKS_SNAPSHOTS_URL, DEPLOYLINKS_TRAVIS_URL,
// DEPLOYLINKS_APPVEYOR_URL (provider production endpoints), and
// DEPLOYLINKS_CHECK_NAME (AppVeyor).
func Load() (*Config, error) {
	appIDRaw := os.Getenv("DEPLOYLINKS_APP_ID")
	if appIDRaw == "" {
		return nil, fmt.Errorf("DEPLOYLINKS_APP_ID is required")
	}
	appID, err := strconv.ParseInt(appIDRaw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("DEPLOYLINKS_APP_ID has invalid value %q: %w", appIDRaw, err)
	}

	privateKey := os.Getenv("DEPLOYLINKS_PRIVATE_KEY")
	if privateKey == "" {
		return nil, fmt.Errorf("DEPLOYLINKS_PRIVATE_KEY is required")
	}
	privateKey = strings.ReplaceAll(privateKey, `\n`, "\n")

	webhookSecret := os.Getenv("DEPLOYLINKS_WEBHOOK_SECRET")
	if webhookSecret == "" {
		return nil, fmt.Errorf("DEPLOYLINKS_WEBHOOK_SECRET is required")
	}

	botLogin := "add-deployment-links[bot]"
	if v, ok := os.LookupEnv("DEPLOYLINKS_BOT_LOGIN"); ok {
		botLogin = v
	}

	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("DEPLOYLINKS_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	checkName := "AppVeyor"
	if v, ok := os.LookupEnv("DEPLOYLINKS_CHECK_NAME"); ok {
		checkName = v
	}

	return &Config{
		AppID:         appID,
		PrivateKey:    privateKey,
		WebhookSecret: webhookSecret,
		BotLogin:      botLogin,
		ListenAddr:    listenAddr,
		SnapshotsURL:  os.Getenv("DEPLOYLINKS_SNAPSHOTS_URL"),
		TravisURL:     os.Getenv("DEPLOYLINKS_TRAVIS_URL"),
		AppVeyorURL:   os.Getenv("DEPLOYLINKS_APPVEYOR_URL"),
		CheckName:     checkName,
	}, nil
}
