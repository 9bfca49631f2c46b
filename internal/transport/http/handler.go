package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lucas-remigio/graocerto.pt/internal/relay"
	"github.com/lucas-remigio/graocerto.pt/pkg/httputil"
)

// Relay is the part of relay.Hub the HTTP surface needs.
type Relay interface {
	Health() relay.Health
	Debug() relay.DebugInfo
	Notify(room, action string) relay.Delivery
}

type Handler struct {
	relay Relay
}

func NewHandler(r Relay) *Handler {
	return &Handler{relay: r}
}

// GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, h.relay.Health())
}

// GET /debug/rooms
func (h *Handler) DebugRooms(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, h.relay.Debug())
}

type NotifyRequest struct {
	Action string `json:"action"`
}

type NotifyResponse struct {
	Room      string `json:"email"`
	Delivered int    `json:"delivered"`
	Failed    int    `json:"failed"`
}

// POST /rooms/{key}/notify
func (h *Handler) Notify(w http.ResponseWriter, r *http.Request) {
	room, err := roomParam(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	var req NotifyRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 4096)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.fail(w, fmt.Errorf("%w: body must be JSON", ErrInvalidInput))
		return
	}

	res := h.relay.Notify(room, req.Action)
	httputil.OK(w, NotifyResponse{Room: room, Delivered: res.Delivered, Failed: res.Failed})
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	status := toHTTP(err)
	if status >= http.StatusInternalServerError {
		slog.Error("handler failed", "err", err)
	}
	httputil.Error(w, status, err.Error())
}

func roomParam(r *http.Request) (string, error) {
	room := chi.URLParam(r, "key")
	// chi routes on RawPath when it is set, otherwise on the already decoded Path
	if r.URL.RawPath != "" {
		var err error
		if room, err = url.PathUnescape(room); err != nil {
			return "", fmt.Errorf("%w: bad room key", ErrInvalidInput)
		}
	}
	if strings.TrimSpace(room) == "" {
		return "", fmt.Errorf("%w: room key is required", ErrInvalidInput)
	}
	return room, nil
}
