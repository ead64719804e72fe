// Package api serves a small HTTP control surface for the bridge.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/automatedhome/eavesdrum-bridge/pkg/client"
	"github.com/automatedhome/eavesdrum-bridge/pkg/merge"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxUploadSize bounds imported documents.
const maxUploadSize = 1 << 20

type Handler struct {
	client *client.Client
}

func NewHandler(c *client.Client) *Handler {
	return &Handler{client: c}
}

// Router returns the routes wrapped in the default middleware stack.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	h.Routes(r)
	return r
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/health", h.Health)
	r.Get("/status", h.Status)

	r.Route("/config", func(r chi.Router) {
		r.Get("/", h.GetConfig)
		r.Get("/export", h.ExportConfig)
		r.Post("/import", h.ImportConfig)
		r.Post("/save", h.SaveConfig)
		r.Post("/restore", h.RestoreConfig)
	})

	r.Post("/monitor/trigger", h.TriggerMonitor)
	r.Post("/notes/{note}", h.PlayNote)
}

func jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResponse(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]interface{}{
		"error": message,
		"code":  status,
	})
}

func successResponse(w http.ResponseWriter, message string) {
	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"message": message,
	})
}

// requireConnection answers 503 while the device is unreachable; commands
// would be dropped silently otherwise.
func (h *Handler) requireConnection(w http.ResponseWriter) bool {
	if !h.client.Connected() {
		errorResponse(w, http.StatusServiceUnavailable, "device not connected")
		return false
	}
	return true
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]interface{}{"status": "ok"})
}

type statusResponse struct {
	Connected   bool        `json:"connected"`
	Dirty       bool        `json:"dirty"`
	Pads        int         `json:"pads"`
	InvalidPads []int       `json:"invalidPads"`
	Version     interface{} `json:"version,omitempty"`
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	cfg := h.client.Store().State()
	resp := statusResponse{
		Connected:   h.client.Connected(),
		Dirty:       cfg.IsDirty,
		Pads:        len(cfg.Pads),
		InvalidPads: cfg.InvalidPads(),
	}
	if resp.InvalidPads == nil {
		resp.InvalidPads = []int{}
	}
	if cfg.Version != nil {
		resp.Version = cfg.Version
	}
	jsonResponse(w, http.StatusOK, resp)
}

func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, h.client.Store().State())
}

func (h *Handler) ExportConfig(w http.ResponseWriter, r *http.Request) {
	data, err := h.client.ExportConfig()
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.Header().Set("Content-Disposition", `attachment; filename="config.yaml"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// ImportConfig applies the YAML request body. The target is selected with the
// query parameters filter (settings|mappings), pad (index) and role. A pad
// without role gets the role of that pad and vice versa.
func (h *Handler) ImportConfig(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter, err := merge.ParseFilter(q.Get("filter"))
	if err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx := merge.DropContext{Filter: filter, PadRole: q.Get("role")}
	cfg := h.client.Store().State()
	if s := q.Get("pad"); s != "" {
		index, err := strconv.Atoi(s)
		if err != nil {
			errorResponse(w, http.StatusBadRequest, "invalid pad index")
			return
		}
		ctx.PadIndex = &index
		if pad, ok := cfg.PadByIndex(index); ok && ctx.PadRole == "" {
			ctx.PadRole = pad.Role
		}
	} else if ctx.PadRole != "" {
		if index, ok := cfg.PadIndexByRole(ctx.PadRole); ok {
			ctx.PadIndex = &index
		}
	}

	name := q.Get("name")
	if name == "" {
		name = "config.yaml"
	}

	if !h.requireConnection(w) {
		return
	}
	err = h.client.ImportFile(name, io.LimitReader(r.Body, maxUploadSize), ctx)
	switch {
	case err == nil:
		successResponse(w, "configuration applied")
	case errors.Is(err, merge.ErrUnreadable):
		errorResponse(w, http.StatusBadRequest, merge.Message(err))
	default:
		errorResponse(w, http.StatusUnprocessableEntity, merge.Message(err))
	}
}

func (h *Handler) SaveConfig(w http.ResponseWriter, r *http.Request) {
	h.send(w, h.client.SaveConfig, "save requested")
}

func (h *Handler) RestoreConfig(w http.ResponseWriter, r *http.Request) {
	h.send(w, h.client.RestoreConfig, "restore requested")
}

func (h *Handler) TriggerMonitor(w http.ResponseWriter, r *http.Request) {
	h.send(w, h.client.TriggerMonitor, "monitor triggered")
}

func (h *Handler) PlayNote(w http.ResponseWriter, r *http.Request) {
	note, err := strconv.ParseUint(chi.URLParam(r, "note"), 10, 8)
	if err != nil || note > 127 {
		errorResponse(w, http.StatusBadRequest, "note must be 0..127")
		return
	}
	h.send(w, func() error { return h.client.PlayNote(uint8(note)) }, "note played")
}

func (h *Handler) send(w http.ResponseWriter, fn func() error, message string) {
	if !h.requireConnection(w) {
		return
	}
	if err := fn(); err != nil {
		errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	successResponse(w, message)
}
