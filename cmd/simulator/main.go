package main

import (
	"assetmap/config"
	"assetmap/handlers"
	"assetmap/models"
	"assetmap/services"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "설정 로드 실패: %v\n", err)
		os.Exit(1)
	}

	logger := cfg.Log.NewLogger(os.Stdout).With("service", "simulator")
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := services.InitDatabase(cfg.Database, logger)
	if err != nil {
		logger.Error("DB 초기화 실패", "error", err)
		os.Exit(1)
	}

	// 카탈로그: 비어 있을 때만 생성
	catalog := services.NewCatalogStore(db)
	generator := services.NewCatalogGenerator(cfg.Simulator.Seed)
	seeded, err := catalog.SeedIfEmpty(ctx, generator.Generate(cfg.Simulator.Objects, time.Now()))
	if err != nil {
		logger.Error("카탈로그 생성 실패", "error", err)
		os.Exit(1)
	}
	assets, err := catalog.List(ctx)
	if err != nil {
		logger.Error("카탈로그 조회 실패", "error", err)
		os.Exit(1)
	}
	logger.Info("카탈로그 준비 완료", "assets", len(assets), "seeded", seeded)

	broker := services.NewPositionBroker()
	publish := broker.Update

	if cfg.MQTT.Enabled {
		publisher, err := services.NewMQTTPublisher(cfg.MQTT.Broker, cfg.MQTT.ClientID+"-simulator", cfg.MQTT.Topic, logger)
		if err != nil {
			logger.Error("MQTT 초기화 실패", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()

		publish = func(t models.Telemetry) {
			broker.Update(t)
			publisher.Publish(t)
		}
	}

	simulator := services.NewFleetSimulator(assets, cfg.Simulator.UpdateInterval, cfg.Simulator.Seed, publish, logger)
	simulator.Start()
	defer simulator.Stop()

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Content-Type",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	handlers.NewSimulatorHandler(broker, catalog, cfg.Simulator, logger).Register(app.Group("/api"))

	go func() {
		<-ctx.Done()
		logger.Info("종료 신호 수신")
		simulator.Stop()
		broker.Close()
		if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
			logger.Error("서버 종료 실패", "error", err)
		}
	}()

	logger.Info("시뮬레이터 시작",
		"addr", cfg.Simulator.Addr,
		"objects", len(assets),
		"map", fmt.Sprintf("%.0fx%.0f", models.PlaneSide, models.PlaneSide),
		"interval", cfg.Simulator.UpdateInterval,
	)
	if err := app.Listen(cfg.Simulator.Addr); err != nil {
		logger.Error("서버 실행 실패", "error", err)
	}
}
