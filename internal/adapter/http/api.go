package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/storm-track-playback/internal/domain"
	"github.com/couchcryptid/storm-track-playback/internal/playback"
	"github.com/couchcryptid/storm-track-playback/internal/session"
)

const maxBodyBytes = 4 << 10

type viewResponse struct {
	playback.View
	Message string `json:"message,omitempty"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func (s *Server) handleView(w http.ResponseWriter, _ *http.Request) {
	s.writeView(w)
}

func (s *Server) handleFacts(w http.ResponseWriter, _ *http.Request) {
	facts, err := s.ctrl.Facts()
	if err != nil {
		s.writeError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, facts)
}

func (s *Server) handleYears(w http.ResponseWriter, r *http.Request) {
	years, err := s.ctrl.Years(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, map[string][]string{"years": years})
}

func (s *Server) handleYear(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Year yearValue `json:"year"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.ctrl.RequestYear(r.Context(), string(req.Year)); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeView(w)
}

func (s *Server) handlePlayPause(w http.ResponseWriter, _ *http.Request) {
	state, err := s.ctrl.TogglePlayPause()
	if err != nil {
		s.writeError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, map[string]playback.State{"state": state})
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Multiplier float64 `json:"multiplier"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.ctrl.SetSpeed(req.Multiplier); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeView(w)
}

func (s *Server) handleKeepTrails(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Keep *bool `json:"keep"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if req.Keep == nil {
		s.writeError(w, &domain.ValidationError{Field: "keep", Reason: "required"})
		return
	}
	s.ctrl.SetKeepTrails(*req.Keep)
	s.writeView(w)
}

func (s *Server) handleSelect(w http.ResponseWriter, _ *http.Request) {
	selected, err := s.ctrl.OnMarkerPicked()
	if err != nil {
		s.writeError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, map[string]bool{"selected": selected})
}

func (s *Server) writeView(w http.ResponseWriter) {
	sharedobs.WriteJSON(w, http.StatusOK, viewResponse{View: s.ctrl.View(), Message: s.ctrl.Message()})
}

// decode reads a small JSON body into v, answering 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err == nil {
		err = json.Unmarshal(body, v)
	}
	if err != nil {
		sharedobs.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

// writeError maps session and domain errors onto status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &verr):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNoData):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrNotLoaded), errors.Is(err, playback.ErrNoStorms):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrDatasetUnavailable):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("api request failed", "error", err)
	}
	sharedobs.WriteJSON(w, status, errorResponse{Error: err.Error(), Message: s.ctrl.Message()})
}

// yearValue accepts a year as a JSON string or number.
type yearValue string

func (y *yearValue) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*y = yearValue(s)
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.New("year must be a string or number")
	}
	*y = yearValue(strconv.FormatFloat(n, 'f', -1, 64))
	return nil
}
