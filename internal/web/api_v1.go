package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rook-computer/shapekit/internal/app"
	"github.com/rook-computer/shapekit/internal/shape"
)

// maxSceneBytes bounds POST /render bodies.
const maxSceneBytes = 1 << 20

// Display is what the API drives; *app.App implements it.
type Display interface {
	WriteFrame(w io.Writer) error
	RenderYAML(data []byte) error
	Stats() (shape.PassStats, uint64)
}

type logger interface {
	Infof(component, format string, args ...interface{})
	Errorf(component, format string, args ...interface{})
}

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type statsResponse struct {
	Passes     uint64  `json:"passes"`
	Strategy   string  `json:"strategy"`
	Shapes     int     `json:"shapes"`
	Bands      int     `json:"bands"`
	DurationMs float64 `json:"durationMs"`
	Error      string  `json:"error,omitempty"`
}

func apiV1Router(cfg APIV1Config) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = app.NoopLogger{}
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/frame.png", func(w http.ResponseWriter, r *http.Request) { handleFrame(w, r, cfg) })
	mux.HandleFunc("/render", func(w http.ResponseWriter, r *http.Request) { handleRender(w, r, cfg) })
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) { handleStats(w, r, cfg) })
	return mux
}

func handleFrame(w http.ResponseWriter, r *http.Request, cfg APIV1Config) {
	if r.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	if cfg.Display == nil {
		writeAPIError(w, http.StatusNotImplemented, "not_implemented", "display not configured")
		return
	}
	// Encode first so a failure can still be reported as JSON.
	var buf bytes.Buffer
	if err := cfg.Display.WriteFrame(&buf); err != nil {
		if errors.Is(err, app.ErrNoReadback) {
			writeAPIError(w, http.StatusNotImplemented, "no_readback", err.Error())
			return
		}
		writeAPIError(w, http.StatusInternalServerError, "frame_failed", err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func handleRender(w http.ResponseWriter, r *http.Request, cfg APIV1Config) {
	if r.Method != http.MethodPost {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	if cfg.Display == nil {
		writeAPIError(w, http.StatusNotImplemented, "not_implemented", "display not configured")
		return
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxSceneBytes+1))
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, "read_failed", err.Error())
		return
	}
	if len(data) > maxSceneBytes {
		writeAPIError(w, http.StatusRequestEntityTooLarge, "too_large", "scene exceeds 1 MiB")
		return
	}
	if err := cfg.Display.RenderYAML(data); err != nil {
		cfg.Logger.Errorf("web", "render request failed: %v", err)
		writeAPIError(w, http.StatusUnprocessableEntity, "render_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats(cfg.Display))
}

func handleStats(w http.ResponseWriter, r *http.Request, cfg APIV1Config) {
	if r.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	if cfg.Display == nil {
		writeAPIError(w, http.StatusNotImplemented, "not_implemented", "display not configured")
		return
	}
	writeJSON(w, http.StatusOK, stats(cfg.Display))
}

func stats(d Display) statsResponse {
	s, passes := d.Stats()
	resp := statsResponse{
		Passes:     passes,
		Strategy:   s.Strategy.String(),
		Shapes:     s.Shapes,
		Bands:      s.Bands,
		DurationMs: float64(s.Duration) / float64(time.Millisecond),
	}
	if s.Err != nil {
		resp.Error = s.Err.Error()
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, apiError{Error: code, Message: message})
}
