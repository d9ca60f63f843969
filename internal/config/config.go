package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds everything the client process reads from the environment.
type Config struct {
	Env      string
	LogLevel string

	APIBaseURL   string
	WebSocketURL string
	AccessToken  string

	RedisURL  string
	RedisPass string
	RedisDB   int

	ChainRPCURL   string
	ChainID       int64
	TokenAddress  string
	CasinoAddress string
	TokenDecimals int
	PrivateKey    string

	GatewayPort string

	// Delay before the post-settlement balance refresh; on-chain finality
	// lags the local confirmation signal.
	BalanceRefreshDelay time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		APIBaseURL:    getEnv("API_BASE_URL", "http://127.0.0.1:8000"),
		WebSocketURL:  getEnv("WEBSOCKET_URL", "ws://127.0.0.1:8000/ws"),
		AccessToken:   getEnv("ACCESS_TOKEN", ""),
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPass:     getEnv("REDIS_PASSWORD", ""),
		ChainRPCURL:   getEnv("CHAIN_RPC_URL", ""),
		TokenAddress:  getEnv("TOKEN_ADDRESS", ""),
		CasinoAddress: getEnv("CASINO_ADDRESS", ""),
		PrivateKey:    getEnv("WALLET_PRIVATE_KEY", ""),
		GatewayPort:   getEnv("GATEWAY_PORT", "8090"),
	}

	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB value: %v", err)
	}
	cfg.RedisDB = db

	chainID, err := strconv.ParseInt(getEnv("CHAIN_ID", "11124"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid CHAIN_ID value: %v", err)
	}
	cfg.ChainID = chainID

	decimals, err := strconv.Atoi(getEnv("TOKEN_DECIMALS", "18"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_DECIMALS value: %v", err)
	}
	cfg.TokenDecimals = decimals

	delaySec, err := strconv.Atoi(getEnv("BALANCE_REFRESH_DELAY_SEC", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid BALANCE_REFRESH_DELAY_SEC value: %v", err)
	}
	cfg.BalanceRefreshDelay = time.Duration(delaySec) * time.Second

	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("ACCESS_TOKEN must be set")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
