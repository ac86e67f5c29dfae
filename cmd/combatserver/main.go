// Package main provides the combat server binary: it wires storage, dice,
// adversary content, and the optional narrator into the combat service and
// serves until interrupted.
package main

import (
	"context"
	"flag"
	"log"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthv1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/repairman29/mythseeker/internal/config"
	"github.com/repairman29/mythseeker/internal/game/adversary"
	"github.com/repairman29/mythseeker/internal/game/dice"
	"github.com/repairman29/mythseeker/internal/game/narrative"
	"github.com/repairman29/mythseeker/internal/gameserver"
	"github.com/repairman29/mythseeker/internal/observability"
	"github.com/repairman29/mythseeker/internal/server"
	"github.com/repairman29/mythseeker/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting combat server",
		zap.String("addr", cfg.Server.Addr()),
	)

	// Connect to PostgreSQL.
	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	defer pool.Close()
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Duration("elapsed", time.Since(dbStart)),
	)

	charRepo := postgres.NewCharacterRepository(pool.DB())
	sessRepo := postgres.NewGameSessionRepository(pool.DB())
	combatRepo := postgres.NewCombatRepository(pool.DB())

	// Load adversary templates.
	var templates []*adversary.Template
	if cfg.Content.AdversariesDir != "" {
		templates, err = adversary.LoadTemplates(cfg.Content.AdversariesDir)
		if err != nil {
			logger.Fatal("loading adversary templates", zap.Error(err))
		}
	}
	registry, err := adversary.NewRegistry(templates)
	if err != nil {
		logger.Fatal("indexing adversary templates", zap.Error(err))
	}
	logger.Info("adversary templates loaded", zap.Int("count", registry.Count()))

	diceRoller := dice.NewRoller(dice.NewCryptoSource(), logger)

	var narrator narrative.Narrator
	if cfg.Narrative.Enabled {
		narrator = narrative.NewAnthropicNarrator(cfg.Narrative.APIKey, cfg.Narrative.Model, cfg.Narrative.MaxTokens)
		logger.Info("combat narrator enabled", zap.String("model", cfg.Narrative.Model))
	}

	combatSvc := gameserver.NewCombatService(charRepo, sessRepo, combatRepo, registry, diceRoller, narrator, logger)

	grpcServer := grpc.NewServer()
	healthSrv := health.NewServer()
	healthSrv.SetServingStatus("", healthv1.HealthCheckResponse_SERVING)
	healthv1.RegisterHealthServer(grpcServer, healthSrv)

	lc := server.NewLifecycle(logger)
	lc.Add("grpc", &server.FuncService{
		StartFn: func() error {
			lis, err := net.Listen("tcp", cfg.Server.Addr())
			if err != nil {
				return err
			}
			return grpcServer.Serve(lis)
		},
		StopFn: func() {
			healthSrv.SetServingStatus("", healthv1.HealthCheckResponse_NOT_SERVING)
			grpcServer.GracefulStop()
		},
	})

	reaperDone := make(chan struct{})
	lc.Add("idle-reaper", &server.FuncService{
		StartFn: func() error {
			ticker := time.NewTicker(cfg.Combat.ReapInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if n, err := combatSvc.ReapIdle(ctx, cfg.Combat.IdleTimeout); err != nil {
						logger.Error("reaping idle combats", zap.Error(err))
					} else if n > 0 {
						logger.Info("reaped idle combats", zap.Int("count", n))
					}
				case <-reaperDone:
					return nil
				}
			}
		},
		StopFn: func() { close(reaperDone) },
	})

	logger.Info("combat server ready", zap.Duration("startup", time.Since(start)))
	if err := lc.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
