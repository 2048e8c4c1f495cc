package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/retouchlab/retouch"
)

// maxUploadBytes bounds the multipart form kept in memory.
const maxUploadBytes = 32 << 20

// encodeFailedMessage is the static user-facing message for local encode
// failures; the underlying error only goes to the log.
const encodeFailedMessage = "Could not read the selected image."

// sessionResponse is the view of a session snapshot handed to the page.
// Image slots are rendered as data URIs.
type sessionResponse struct {
	ID          string        `json:"id"`
	Phase       retouch.Phase `json:"phase"`
	Epoch       uint64        `json:"epoch"`
	OriginalURI string        `json:"original_uri,omitempty"`
	ResultURI   string        `json:"result_uri,omitempty"`
	Text        string        `json:"text,omitempty"`
	Error       string        `json:"error,omitempty"`
}

func snapshotResponse(id string, snap retouch.Snapshot) sessionResponse {
	resp := sessionResponse{
		ID:    id,
		Phase: snap.Phase,
		Epoch: snap.Epoch,
		Text:  snap.Text,
		Error: snap.Err,
	}
	if snap.Original != nil {
		resp.OriginalURI = snap.Original.DataURI()
	}
	if snap.Result != nil {
		resp.ResultURI = snap.Result.DataURI()
	}
	return resp
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id, session := s.store.Create()
	s.json(w, http.StatusCreated, snapshotResponse(id, session.Snapshot()))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, session, ok := s.session(w, r)
	if !ok {
		return
	}
	s.json(w, http.StatusOK, snapshotResponse(id, session.Snapshot()))
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	id, session, ok := s.session(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.error(w, http.StatusBadRequest, "bad_request", "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		s.error(w, http.StatusBadRequest, "bad_request", "image file is required")
		return
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = retouch.GetMIMEType(header.Filename)
	}

	snap, err := session.Upload(file, mimeType)
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", id).Msg("upload encode failed")
		s.error(w, http.StatusUnprocessableEntity, "encode_failed", encodeFailedMessage)
		return
	}

	s.json(w, http.StatusOK, snapshotResponse(id, snap))
}

type generateRequest struct {
	Instruction string `json:"instruction"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	id, session, ok := s.session(w, r)
	if !ok {
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	snap, err := session.Generate(r.Context(), req.Instruction)
	switch {
	case err == nil:
		s.json(w, http.StatusOK, snapshotResponse(id, snap))
	case errors.Is(err, retouch.ErrGenerationPending):
		s.error(w, http.StatusConflict, "generation_pending", "a generation is already in flight")
	case errors.Is(err, retouch.ErrEmptyInstruction):
		s.error(w, http.StatusUnprocessableEntity, "bad_request", "instruction is required")
	case errors.Is(err, retouch.ErrNoImage):
		s.error(w, http.StatusUnprocessableEntity, "bad_request", "upload an image first")
	default:
		// Remote failures are display state, not transport errors: the page
		// renders the Failed snapshot.
		s.json(w, http.StatusOK, snapshotResponse(id, snap))
	}
}

func (s *Server) handleSaveResult(w http.ResponseWriter, r *http.Request) {
	id, session, ok := s.session(w, r)
	if !ok {
		return
	}

	res, err := session.SaveResult(r.Context(), retouch.TimestampPath("edits", time.Now()))
	switch {
	case err == nil:
		s.json(w, http.StatusOK, map[string]any{
			"url":  res.URL,
			"path": res.Path,
			"size": res.Size,
		})
	case errors.Is(err, retouch.ErrNoResult):
		s.error(w, http.StatusConflict, "no_result", "no generated image to save")
	case errors.Is(err, retouch.ErrStorageNotConfigured):
		s.error(w, http.StatusConflict, "storage_not_configured", "saving is not enabled")
	default:
		s.logger.Error().Err(err).Str("session_id", id).Msg("saving result failed")
		s.error(w, http.StatusInternalServerError, "internal", "failed to save result")
	}
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	type modelResponse struct {
		Name              string `json:"name"`
		Provider          string `json:"provider"`
		APIModelName      string `json:"api_model_name"`
		RequestsPerMinute int    `json:"requests_per_minute"`
	}

	models := s.editor.Models()
	out := make([]modelResponse, 0, len(models))
	for _, m := range models {
		out = append(out, modelResponse{
			Name:              m.Name,
			Provider:          string(m.Provider),
			APIModelName:      m.APIModelName,
			RequestsPerMinute: m.RateLimits.RequestsPerMinute,
		})
	}
	s.json(w, http.StatusOK, out)
}

// session resolves the {id} route parameter, answering 404 itself when the
// session is unknown.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (string, *retouch.Session, bool) {
	id := chi.URLParam(r, "id")
	session, ok := s.store.Get(id)
	if !ok {
		s.error(w, http.StatusNotFound, "not_found", "unknown session")
		return "", nil, false
	}
	return id, session, true
}

func (s *Server) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) error(w http.ResponseWriter, status int, code, message string) {
	s.json(w, status, map[string]string{"code": code, "message": message})
}
