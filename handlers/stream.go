package handlers

import (
	"assetmap/models"
	"bufio"
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

// HandlePositionStream - GET /api/positions/stream
// SSE: 현재 스냅샷을 먼저 보내고 이후 갱신을 계속 전송
func (h *SimulatorHandler) HandlePositionStream(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	clientID := uuid.New().String()
	client := h.broker.AddClient(h.cfg.Objects * 2)
	logger := h.logger.With("client_id", clientID)
	logger.Info("SSE 클라이언트 연결", "clients", h.broker.ClientCount())

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer func() {
			h.broker.RemoveClient(client)
			logger.Info("SSE 클라이언트 해제")
		}()

		for _, t := range h.broker.Snapshot() {
			if err := writeEvent(w, t); err != nil {
				return
			}
		}
		if err := w.Flush(); err != nil {
			return
		}

		for t := range client {
			if err := writeEvent(w, t); err != nil {
				return
			}
			// 끊긴 클라이언트는 Flush 에러로 감지
			if err := w.Flush(); err != nil {
				return
			}
		}
	}))
	return nil
}

func writeEvent(w *bufio.Writer, t models.Telemetry) error {
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}
