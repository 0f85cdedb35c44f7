package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/HugoSmits86/nativewebp"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"bike-viewer/internal/catalog"
	"bike-viewer/internal/viewer"
)

const (
	writeWait = 5 * time.Second
	maxBody   = 1 << 12
)

// modelView is the catalog entry as served to the page.
type modelView struct {
	ID          catalog.ModelID `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Asset       string          `json:"asset"`
}

type selectResponse struct {
	Token   uint64       `json:"token"`
	Started bool         `json:"started"`
	State   viewer.State `json:"state"`
}

func catalogView() []modelView {
	all := catalog.All()
	out := make([]modelView, len(all))
	for i, d := range all {
		out[i] = modelView{ID: d.ID, Name: d.Name, Description: d.Description, Asset: d.AssetPath}
	}
	return out
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, catalogView())
}

func (s *Server) handleMount(w http.ResponseWriter, r *http.Request) {
	id, err := s.Mount()
	if err != nil {
		status := http.StatusServiceUnavailable
		if errors.Is(err, ErrTooManySessions) {
			status = http.StatusTooManyRequests
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleUnmount(w http.ResponseWriter, r *http.Request) {
	if err := s.Unmount(chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// sessionFor resolves the {id} param or writes a 404.
func (s *Server) sessionFor(w http.ResponseWriter, r *http.Request) (*viewer.Viewer, bool) {
	v, err := s.Session(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return nil, false
	}
	return v, true
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	v, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, v.State())
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	v, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	id, err := catalog.Parse(chi.URLParam(r, "model"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	tok, started, err := v.Select(id)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusAccepted, selectResponse{Token: tok, Started: started, State: v.State()})
}

func (s *Server) handleCamera(w http.ResponseWriter, r *http.Request) {
	v, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	a, err := viewer.ParseAction(chi.URLParam(r, "action"))
	if err == nil {
		err = v.Adjust(a)
	}
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, v.State())
}

func (s *Server) handleColor(w http.ResponseWriter, r *http.Request) {
	v, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	var body struct {
		Color string `json:"color"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := v.Recolor(body.Color); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, v.State())
}

func (s *Server) handleViewport(w http.ResponseWriter, r *http.Request) {
	v, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	var body struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := v.Resize(body.Width, body.Height); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, v.State())
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	v, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := nativewebp.Encode(&buf, v.Frame(), nil); err != nil {
		s.log.Error("Frame encode failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, fmt.Errorf("webp encode: %w", err))
		return
	}
	w.Header().Set("Content-Type", "image/webp")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

// handleWebSocket streams the session state as JSON text messages, starting
// with the current state. Slow clients skip intermediate states.
//
// The connection keeps the session mounted; once the last one closes the
// session is unmounted after Options.SessionGrace.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	v, detach, err := s.attach(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	defer detach()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	states, cancel := v.Subscribe()
	defer cancel()

	// Reader: only needed to notice the client going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			return
		case st, ok := <-states:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"),
					time.Now().Add(writeWait))
				return
			}
			data, err := json.Marshal(st)
			if err != nil {
				s.log.Error("State marshal failed", zap.Error(err))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.log.Debug("WebSocket write failed", zap.Error(err))
				return
			}
		}
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, catalog.ErrUnknownModel), errors.Is(err, ErrUnknownSession):
		return http.StatusNotFound
	case errors.Is(err, viewer.ErrUnknownAction),
		errors.Is(err, viewer.ErrInvalidColor),
		errors.Is(err, viewer.ErrInvalidViewport):
		return http.StatusBadRequest
	case errors.Is(err, viewer.ErrClosed):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}
