package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"roulette-live-client/internal/api"
	"roulette-live-client/internal/chain"
	"roulette-live-client/internal/config"
	"roulette-live-client/internal/game"
	"roulette-live-client/internal/gateway"
	"roulette-live-client/internal/models"
	"roulette-live-client/internal/session"
	"roulette-live-client/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}
	log.SetFormatter(&log.JSONFormatter{})

	if _, err := api.CheckToken(cfg.AccessToken, time.Now()); err != nil {
		log.Fatalf("Access token unusable: %v", err)
	}

	client := api.NewClient(cfg.APIBaseURL, cfg.AccessToken)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	profile, err := client.Me(ctx)
	if err != nil {
		log.Fatalf("Failed to fetch profile: %v", err)
	}
	log.WithFields(log.Fields{
		"wallet":  profile.WalletAddress,
		"balance": profile.Balance,
	}).Info("authenticated")

	view := &models.BalanceView{}
	view.Set(profile.Balance, time.Now())

	var st store.Store
	if redisStore, err := store.NewRedisStore(cfg, profile.WalletAddress); err != nil {
		log.WithError(err).Warn("Redis unavailable, transfer state will not survive restarts")
		st = store.NewMemoryStore()
	} else {
		st = redisStore
	}
	defer st.Close()

	backend, err := chain.NewEthBackend(cfg)
	if err != nil {
		log.Fatalf("Failed to set up chain backend: %v", err)
	}

	orchestrator := chain.NewOrchestrator(backend, client, st, view, cfg.CasinoAddress, cfg.TokenDecimals, cfg.BalanceRefreshDelay)
	defer orchestrator.Close()
	orchestrator.Resume()

	state := game.NewState()
	ledger := game.NewLedger(state, view)

	sess := session.New(cfg.WebSocketURL, cfg.AccessToken, state, ledger, client, view)
	go sess.Run(ctx)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	gw := gateway.New(state, ledger, sess, orchestrator, view)
	router := gw.Router()

	log.WithField("port", cfg.GatewayPort).Info("gateway starting")
	if err := router.Run(":" + cfg.GatewayPort); err != nil {
		log.Fatalf("Failed to start gateway: %v", err)
	}
}
