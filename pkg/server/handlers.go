package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/vango-dev/reactiveurl/internal/errors"
	"github.com/vango-dev/reactiveurl/pkg/query"
)

const maxBodyBytes = 1 << 20

// State is the body of /state responses.
type State struct {
	Query query.RawQuery `json:"query"`
	URL   string         `json:"url"`
}

type errorBody struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func (s *Server) state() State {
	snapshot := s.rx.CreateQuery()
	return State{Query: snapshot, URL: s.PageURL(snapshot)}
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handlePatchState(w http.ResponseWriter, r *http.Request) {
	var values query.RawQuery
	if err := decodeBody(r, &values); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	fields := s.rx.Fields()
	var unknown []string
	for k := range values {
		if !slices.Contains(fields, k) {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %v", ErrUnknownField, unknown))
		return
	}

	s.rx.Update(values)
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handlePutField(w http.ResponseWriter, r *http.Request) {
	field := chi.URLParam(r, "field")
	if !slices.Contains(s.rx.Fields(), field) {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("%w: %q", ErrUnknownField, field))
		return
	}

	var value any
	if err := decodeBody(r, &value); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	s.rx.Set(field, value)
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleResetState(w http.ResponseWriter, r *http.Request) {
	s.rx.Reset()
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleGetURL(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, s.state().URL)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.hub.HandleWebSocket(w, r, func() Message {
		return s.message(s.rx.CreateQuery())
	})
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return errors.New("R160").Wrap(err)
	}
	return nil
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	body := errorBody{Message: err.Error()}
	var e *errors.Error
	if errors.As(err, &e) {
		body.Code = e.Code
	}
	s.logger.Debug("request failed", "status", status, "error", err)
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
