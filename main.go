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
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "설정 로드 실패: %v\n", err)
		os.Exit(1)
	}

	logger := cfg.Log.NewLogger(os.Stdout).With("service", "viewer")
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := services.NewPipelineMetrics(reg)

	// 메타데이터 캐시 (실패해도 기본 카테고리로 표시)
	apiClient := services.NewAPIClient(cfg.Viewer.APIBaseURL)
	cache := services.NewMetadataCache(apiClient, logger, metrics)
	if err := cache.Refresh(ctx); err != nil {
		logger.Warn("초기 메타데이터 조회 실패", "error", err)
	}
	go cache.StartAutoRefresh(ctx, cfg.Viewer.MetadataRefresh)

	// 메인 레인 구성 요소
	store := services.NewPositionStore()
	selection := services.NewSelectionState()

	raster, err := services.NewRasterCanvas(1, 1)
	if err != nil {
		logger.Error("렌더 표면 생성 실패", "error", err)
		os.Exit(1)
	}
	engine, err := services.NewRenderEngine(raster, store, selection, cache, models.Viewport{
		CSSWidth:         cfg.Viewer.CSSWidth,
		CSSHeight:        cfg.Viewer.CSSHeight,
		DevicePixelRatio: cfg.Viewer.DevicePixelRatio,
	}, logger, metrics)
	if err != nil {
		logger.Error("렌더 엔진 초기화 실패", "error", err)
		os.Exit(1)
	}

	hub := handlers.NewClientManager(logger)
	go hub.Start(ctx)
	services.NewSelectionFeed(store, selection, cache, hub, logger)

	mailbox := services.NewMailbox(metrics)
	runtime := services.NewRuntime(services.RuntimeDeps{
		Mailbox:   mailbox,
		Store:     store,
		Selection: selection,
		Engine:    engine,
		HitTester: services.NewHitTester(store, selection),
		Lookup:    cache,
		Logger:    logger,
		Metrics:   metrics,
	})
	go runtime.Run(ctx)

	// 스트림 디코더
	var source services.Source
	switch cfg.Viewer.Source {
	case "mqtt":
		source = services.NewMQTTSource(cfg.MQTT.Broker, cfg.MQTT.ClientID+"-viewer", cfg.MQTT.Topic)
	default:
		source = services.NewSSESource(cfg.Viewer.StreamURL)
	}
	decoder := services.NewStreamDecoder(source, mailbox, services.ReconnectConfig{
		RetryDelay:    cfg.Viewer.Reconnect.RetryDelay,
		MaxRetryDelay: cfg.Viewer.Reconnect.MaxRetryDelay,
		MaxRetries:    cfg.Viewer.Reconnect.MaxRetries,
	}, logger, metrics)
	go func() {
		if err := decoder.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("스트림 디코더 중단", "error", err)
			stop()
		}
	}()

	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Viewer.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("assetmap 뷰어가 실행 중입니다.")
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	viewer := handlers.NewViewerHandler(runtime, raster, apiClient, hub, logger)
	viewer.Register(app.Group("/api"))

	// WebSocket
	app.Use("/websocket", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/websocket/selection", websocket.New(viewer.HandleSelectionWebSocket))

	go func() {
		<-ctx.Done()
		logger.Info("종료 신호 수신")
		if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
			logger.Error("서버 종료 실패", "error", err)
		}
	}()

	logger.Info("뷰어 시작",
		"addr", cfg.Viewer.Addr,
		"source", source.Name(),
		"backing", fmt.Sprintf("%dx%d", engine.Viewport().BackingWidth, engine.Viewport().BackingHeight),
	)
	if err := app.Listen(cfg.Viewer.Addr); err != nil {
		logger.Error("서버 실행 실패", "error", err)
		stop()
	}

	<-runtime.Done()
}
