package handlers

import (
	"assetmap/models"
	"assetmap/services"
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

const laneTimeout = 2 * time.Second

// StatsFetcher - 텔레메트리 서버 통계 조회
type StatsFetcher interface {
	FetchStats(ctx context.Context) (models.SystemStats, error)
}

// FrameSource is the raster surface the engine paints into.
type FrameSource interface {
	EncodePNG(w io.Writer) error
}

// ViewerHandler serves the viewer API. Every access to the store, selection
// or engine goes through the runtime.
type ViewerHandler struct {
	runtime *services.Runtime
	frame   FrameSource
	stats   StatsFetcher
	hub     *ClientManager
	logger  *slog.Logger
}

func NewViewerHandler(runtime *services.Runtime, frame FrameSource, stats StatsFetcher, hub *ClientManager, logger *slog.Logger) *ViewerHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ViewerHandler{runtime: runtime, frame: frame, stats: stats, hub: hub, logger: logger}
}

// Register mounts the viewer routes on api.
func (h *ViewerHandler) Register(api fiber.Router) {
	api.Get("/health", h.HandleHealth)
	api.Get("/frame.png", h.HandleFrame)
	api.Post("/resize", h.HandleResize)
	api.Post("/click", h.HandleClick)
	api.Get("/selection", h.HandleGetSelection)
	api.Delete("/selection", h.HandleClearSelection)
	api.Get("/stats", h.HandleStats)

	export := api.Group("/export")
	export.Get("/scene.pdf", h.HandleExportPDF)
	export.Get("/positions.xlsx", h.HandleExportXLSX)
}

// do runs fn on the main lane with a request-scoped deadline.
func (h *ViewerHandler) do(c *fiber.Ctx, fn func()) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), laneTimeout)
	defer cancel()
	return h.runtime.Do(ctx, fn)
}

func laneError(c *fiber.Ctx, err error) error {
	status := fiber.StatusServiceUnavailable
	if errors.Is(err, context.DeadlineExceeded) {
		status = fiber.StatusGatewayTimeout
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// HandleHealth - GET /api/health
func (h *ViewerHandler) HandleHealth(c *fiber.Ctx) error {
	var counter uint64
	var tracked int
	if err := h.do(c, func() {
		counter = h.runtime.Store().Counter()
		tracked = h.runtime.Store().Len()
	}); err != nil {
		return laneError(c, err)
	}
	return c.JSON(fiber.Map{
		"status":  "OK",
		"clients": h.hub.GetClientCount(),
		"counter": counter,
		"tracked": tracked,
		"time":    time.Now().Format(time.RFC3339),
	})
}

// HandleFrame - GET /api/frame.png (마지막으로 그린 프레임)
func (h *ViewerHandler) HandleFrame(c *fiber.Ctx) error {
	var buf bytes.Buffer
	var encErr error
	if err := h.do(c, func() { encErr = h.frame.EncodePNG(&buf) }); err != nil {
		return laneError(c, err)
	}
	if encErr != nil {
		h.logger.Error("프레임 인코딩 실패", "error", encErr)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "프레임 인코딩 실패"})
	}

	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Send(buf.Bytes())
}

type resizeRequest struct {
	Width            float64 `json:"width"`
	Height           float64 `json:"height"`
	DevicePixelRatio float64 `json:"device_pixel_ratio"`
}

// HandleResize - POST /api/resize
func (h *ViewerHandler) HandleResize(c *fiber.Ctx) error {
	var req resizeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "잘못된 요청 형식"})
	}
	if req.DevicePixelRatio == 0 {
		req.DevicePixelRatio = 1
	}

	var vp models.Viewport
	var resizeErr error
	if err := h.do(c, func() {
		resizeErr = h.runtime.Engine().Resize(req.Width, req.Height, req.DevicePixelRatio)
		vp = h.runtime.Engine().Viewport()
	}); err != nil {
		return laneError(c, err)
	}
	if resizeErr != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": resizeErr.Error()})
	}
	return c.JSON(vp)
}

type clickRequest struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	CSSWidth  float64 `json:"css_width"`
	CSSHeight float64 `json:"css_height"`
}

// HandleClick - POST /api/click. 3m 이내 가장 가까운 객체 선택, 없으면 선택 해제
func (h *ViewerHandler) HandleClick(c *fiber.Ctx) error {
	var req clickRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "잘못된 요청 형식"})
	}

	var (
		selected bool
		details  models.SelectionData
	)
	if err := h.do(c, func() {
		vp := h.runtime.Engine().Viewport()
		// 표시 크기가 바뀐 상태에서의 클릭
		if req.CSSWidth > 0 && req.CSSHeight > 0 {
			vp.CSSWidth, vp.CSSHeight = req.CSSWidth, req.CSSHeight
		}
		if _, selected = h.runtime.HitTester().Click(req.X, req.Y, vp); selected {
			details, _ = h.runtime.SelectionDetails()
		}
	}); err != nil {
		return laneError(c, err)
	}

	if !selected {
		return c.JSON(fiber.Map{"selected": false})
	}
	return c.JSON(fiber.Map{"selected": true, "selection": details})
}

// HandleGetSelection - GET /api/selection
func (h *ViewerHandler) HandleGetSelection(c *fiber.Ctx) error {
	var (
		details models.SelectionData
		ok      bool
	)
	if err := h.do(c, func() { details, ok = h.runtime.SelectionDetails() }); err != nil {
		return laneError(c, err)
	}

	switch {
	case !ok:
		return c.JSON(fiber.Map{"selected": false})
	case details.Telemetry == nil:
		return c.JSON(fiber.Map{"selected": true, "status": models.MessageTypeNoData, "selection": details})
	default:
		return c.JSON(fiber.Map{"selected": true, "status": "live", "selection": details})
	}
}

// HandleClearSelection - DELETE /api/selection
func (h *ViewerHandler) HandleClearSelection(c *fiber.Ctx) error {
	if err := h.do(c, func() { h.runtime.Selection().Clear() }); err != nil {
		return laneError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleStats - GET /api/stats (텔레메트리 서버 통계 + 뷰어 상태)
func (h *ViewerHandler) HandleStats(c *fiber.Ctx) error {
	var info models.SystemInfo
	var frames uint64
	if err := h.do(c, func() {
		info = models.SystemInfo{
			ConnectedClients: h.hub.GetClientCount(),
			UpdateCounter:    h.runtime.Store().Counter(),
			TrackedObjects:   h.runtime.Store().Len(),
		}
		frames = h.runtime.Engine().Frames()
	}); err != nil {
		return laneError(c, err)
	}

	resp := fiber.Map{"viewer": info, "frames": frames}
	if h.stats != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
		defer cancel()
		stats, err := h.stats.FetchStats(ctx)
		if err != nil {
			h.logger.Warn("서버 통계 조회 실패", "error", err)
			resp["server_error"] = err.Error()
		} else {
			resp["server"] = stats
		}
	}
	return c.JSON(resp)
}

// snapshotScene copies what an export needs off the main lane.
func (h *ViewerHandler) snapshotScene(c *fiber.Ctx) ([]models.PositionRecord, models.TrackedObjectID, bool, models.Viewport, error) {
	var (
		records []models.PositionRecord
		id      models.TrackedObjectID
		ok      bool
		vp      models.Viewport
	)
	err := h.do(c, func() {
		records = h.runtime.Store().Snapshot()
		id, ok = h.runtime.Selection().Selected()
		vp = h.runtime.Engine().Viewport()
	})
	return records, id, ok, vp, err
}

// HandleExportPDF - GET /api/export/scene.pdf
func (h *ViewerHandler) HandleExportPDF(c *fiber.Ctx) error {
	records, id, ok, vp, err := h.snapshotScene(c)
	if err != nil {
		return laneError(c, err)
	}

	pdf, err := services.BuildScenePDF(services.Scene{
		Records:    slices.Values(records),
		SelectedID: id,
		Selected:   ok,
		Lookup:     h.runtime.Lookup(),
	}, vp.BackingWidth, vp.BackingHeight)
	if err != nil {
		h.logger.Error("PDF 내보내기 실패", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "PDF 생성 실패"})
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="asset-map.pdf"`)
	return c.Send(pdf)
}

// HandleExportXLSX - GET /api/export/positions.xlsx
func (h *ViewerHandler) HandleExportXLSX(c *fiber.Ctx) error {
	records, _, _, _, err := h.snapshotScene(c)
	if err != nil {
		return laneError(c, err)
	}

	xlsx, err := services.BuildPositionsXLSX(records, h.runtime.Lookup(), time.Now())
	if err != nil {
		h.logger.Error("XLSX 내보내기 실패", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "XLSX 생성 실패"})
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="asset-positions.xlsx"`)
	return c.Send(xlsx)
}

// HandleSelectionWebSocket - GET /websocket/selection
// 연결 시 시스템 정보와 현재 선택을 보낸 뒤 허브에 등록. 클라이언트는 deselect만 보낼 수 있음
func (h *ViewerHandler) HandleSelectionWebSocket(conn *websocket.Conn) {
	ctx, cancel := context.WithTimeout(context.Background(), laneTimeout)
	var (
		info    models.SystemInfo
		details models.SelectionData
		ok      bool
	)
	err := h.runtime.Do(ctx, func() {
		info = models.SystemInfo{
			ConnectedClients: h.hub.GetClientCount() + 1,
			UpdateCounter:    h.runtime.Store().Counter(),
			TrackedObjects:   h.runtime.Store().Len(),
		}
		details, ok = h.runtime.SelectionDetails()
	})
	cancel()
	if err != nil {
		h.logger.Warn("웹소켓 초기화 실패", "error", err)
		_ = conn.Close()
		return
	}

	_ = conn.WriteJSON(models.WebSocketMessage{Type: models.MessageTypeSystemInfo, Data: info, Timestamp: time.Now().UnixMilli()})
	if ok {
		_ = conn.WriteJSON(models.WebSocketMessage{Type: models.MessageTypeSelection, Data: details, Timestamp: time.Now().UnixMilli()})
	}

	if _, registered := h.hub.Register(conn); !registered {
		_ = conn.Close()
		return
	}
	defer h.hub.Unregister(conn)

	for {
		var msg models.WebSocketMessage
		if err := conn.ReadJSON(&msg); err != nil {
			h.logger.Debug("웹소켓 읽기 종료", "error", err)
			return
		}

		switch msg.Type {
		case models.MessageTypeDeselect:
			ctx, cancel := context.WithTimeout(context.Background(), laneTimeout)
			err := h.runtime.Do(ctx, func() { h.runtime.Selection().Clear() })
			cancel()
			if err != nil {
				h.logger.Warn("선택 해제 실패", "error", err)
				return
			}
		default:
			h.logger.Debug("알 수 없는 메시지 타입", "type", msg.Type)
		}
	}
}
