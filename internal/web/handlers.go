package web

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"go.uber.org/zap"

	"github.com/Faultbox/zmdl/internal/exporter"
	"github.com/Faultbox/zmdl/internal/logger"
	"github.com/Faultbox/zmdl/internal/model"
	"github.com/Faultbox/zmdl/pkg/gltfscene"
	"github.com/Faultbox/zmdl/pkg/scene"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("failed to write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// statusFor maps export errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrConfiguration), errors.Is(err, model.ErrDataIntegrity):
		return http.StatusUnprocessableEntity
	case errors.Is(err, scene.ErrInvalidScene), errors.Is(err, gltfscene.ErrUnsupported):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	limit := s.cfg.Server.MaxBodyMB << 20
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read request body")
	}
	return data, nil
}

// exportOptions applies per-request query overrides.
func (s *Server) exportOptions(r *http.Request) exporter.Options {
	opts := s.opts
	if v := r.URL.Query().Get("selected"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			opts.SelectedOnly = b
		}
	}
	return opts
}

// handleExportScene exports a YAML or JSON scene snapshot.
func (s *Server) handleExportScene(w http.ResponseWriter, r *http.Request) {
	data, err := s.readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sc, err := scene.Parse(data, r.URL.Query().Get("base_dir"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.export(w, r, sc)
}

// handleExportGLTF exports a glTF or GLB document.
func (s *Server) handleExportGLTF(w http.ResponseWriter, r *http.Request) {
	data, err := s.readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	doc := &gltf.Document{}
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrapf(err, "Failed to read gltf"))
		return
	}
	sc, err := gltfscene.Convert(doc, gltfscene.Options{
		FPS:     s.cfg.GLTF.FPS,
		BaseDir: r.URL.Query().Get("base_dir"),
	})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	s.export(w, r, sc)
}

func (s *Server) export(w http.ResponseWriter, r *http.Request, sc *scene.Scene) {
	opts := s.exportOptions(r)
	doc, err := exporter.New(opts).Export(r.Context(), sc)
	if err != nil {
		logger.Warn("export failed", zap.Error(err))
		writeError(w, statusFor(err), err)
		return
	}

	out, err := model.Marshal(doc, opts.Encode)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(out)))
	if _, err := w.Write(out); err != nil {
		logger.Warn("failed to write response", zap.Error(err))
	}
}
