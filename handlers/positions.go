package handlers

import (
	"assetmap/config"
	"assetmap/models"
	"assetmap/services"
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// SimulatorHandler serves the telemetry source API.
type SimulatorHandler struct {
	broker  *services.PositionBroker
	catalog *services.CatalogStore
	cfg     config.SimulatorConfig
	logger  *slog.Logger
}

func NewSimulatorHandler(broker *services.PositionBroker, catalog *services.CatalogStore, cfg config.SimulatorConfig, logger *slog.Logger) *SimulatorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SimulatorHandler{broker: broker, catalog: catalog, cfg: cfg, logger: logger}
}

// Register mounts the simulator routes on api.
func (h *SimulatorHandler) Register(api fiber.Router) {
	api.Get("/positions/stream", h.HandlePositionStream)
	api.Get("/positions", h.HandleGetAllPositions)
	api.Get("/position", h.HandleGetPosition)
	api.Get("/objects", h.HandleGetAllObjects)
	api.Get("/object", h.HandleGetObject)
	api.Get("/stats", h.HandleGetStats)
}

// queryID - ?id= 파라미터 파싱. 실패 시 응답용 메시지 반환
func queryID(c *fiber.Ctx) (int64, string) {
	idStr := c.Query("id")
	if idStr == "" {
		return 0, "Missing id parameter"
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return 0, "Invalid id parameter"
	}
	return id, ""
}

// HandleGetAllPositions - GET /api/positions
func (h *SimulatorHandler) HandleGetAllPositions(c *fiber.Ctx) error {
	return c.JSON(h.broker.Snapshot())
}

// HandleGetPosition - GET /api/position?id=X
func (h *SimulatorHandler) HandleGetPosition(c *fiber.Ctx) error {
	id, problem := queryID(c)
	if problem != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": problem})
	}

	t, ok := h.broker.Get(models.TrackedObjectID(id))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Position not found"})
	}
	return c.JSON(t)
}

// HandleGetAllObjects - GET /api/objects
func (h *SimulatorHandler) HandleGetAllObjects(c *fiber.Ctx) error {
	assets, err := h.catalog.List(c.UserContext())
	if err != nil {
		h.logger.Error("카탈로그 조회 실패", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch objects"})
	}

	objects := make([]models.CatalogObject, len(assets))
	for i, a := range assets {
		objects[i] = a.Object()
	}
	return c.JSON(objects)
}

// HandleGetObject - GET /api/object?id=X
func (h *SimulatorHandler) HandleGetObject(c *fiber.Ctx) error {
	id, problem := queryID(c)
	if problem != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": problem})
	}

	asset, err := h.catalog.Get(c.UserContext(), id)
	switch {
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Object not found"})
	case err != nil:
		h.logger.Error("카탈로그 조회 실패", "object_id", id, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch object"})
	}
	return c.JSON(asset.Object())
}

// HandleGetStats - GET /api/stats
func (h *SimulatorHandler) HandleGetStats(c *fiber.Ctx) error {
	total, err := h.catalog.Count(c.UserContext())
	if err != nil {
		h.logger.Error("카탈로그 개수 조회 실패", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch stats"})
	}

	return c.JSON(models.SystemStats{
		ConnectedClients: h.broker.ClientCount(),
		MapDimensions:    models.MapDimensions{Width: models.PlaneSide, Height: models.PlaneSide},
		TotalObjects:     int(total),
		TotalPositions:   h.broker.Len(),
		UpdateIntervalMs: h.cfg.UpdateInterval.Milliseconds(),
	})
}
