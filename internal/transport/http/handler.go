package http

import (
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"spooker/internal/config"
	apperrors "spooker/internal/errors"
	"spooker/internal/files"
	"spooker/internal/services"
	ws "spooker/internal/websocket"
	"spooker/pkg/contracts"
)

// Handler holds the dependencies of the API endpoints.
type Handler struct {
	cfg       *config.Config
	service   *services.ProcessService
	manager   *files.Manager
	discovery *files.Discovery
	hub       *ws.Hub
	logger    *slog.Logger
	started   time.Time
}

// NewHandler creates the API handler.
func NewHandler(cfg *config.Config, service *services.ProcessService, manager *files.Manager, hub *ws.Hub, logger *slog.Logger) *Handler {
	return &Handler{
		cfg:       cfg,
		service:   service,
		manager:   manager,
		discovery: files.NewDiscovery(cfg.Paths.InputDir, cfg.Paths.OutputDir),
		hub:       hub,
		logger:    logger,
		started:   time.Now(),
	}
}

// healthResponse is the payload of GET /api/health.
type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, healthResponse{
		Status:  "ok",
		Version: contracts.Version,
		Uptime:  time.Since(h.started).Round(time.Second).String(),
	})
}

// filesResponse is the payload of GET /api/files.
type filesResponse struct {
	Inputs  []files.FileInfo `json:"inputs"`
	Outputs []files.FileInfo `json:"outputs"`
}

// ListFiles lists input exports and generated statistics files.
func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	inputs, err := h.discovery.FindInputFiles()
	if err != nil {
		h.renderError(w, r, apperrors.FromEngine(apperrors.FileProcessingf(h.cfg.Paths.InputDir, "%v", err)))
		return
	}
	outputs, err := h.discovery.FindOutputFiles()
	if err != nil {
		h.renderError(w, r, apperrors.FromEngine(apperrors.FileProcessingf(h.cfg.Paths.OutputDir, "%v", err)))
		return
	}
	render.JSON(w, r, filesResponse{Inputs: inputs, Outputs: outputs})
}

// uploadResponse is the payload of POST /api/upload.
type uploadResponse struct {
	Success bool   `json:"success"`
	Path    string `json:"path"`
	Name    string `json:"name"`
}

// Upload stores a meter export in the input folder.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.Server.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.cfg.Server.MaxUploadBytes); err != nil {
		h.renderError(w, r, apperrors.ErrInvalidRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.renderError(w, r, apperrors.ErrMissingFile)
		return
	}
	defer file.Close()

	path, err := h.manager.SaveUpload(header.Filename, file)
	if err != nil {
		h.renderError(w, r, apperrors.FromEngine(err))
		return
	}

	h.hub.Broadcast(ws.TypeFiles, map[string]string{"uploaded": header.Filename})
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, uploadResponse{Success: true, Path: path, Name: header.Filename})
}

// processRequest is the body of POST /api/process.
type processRequest struct {
	// Files names inputs inside the input folder; empty processes all.
	Files []string `json:"files"`
	// Format optionally pins the parser for every file.
	Format string `json:"format"`
	DryRun bool   `json:"dry_run"`
}

// Bind implements render.Binder.
func (p *processRequest) Bind(r *http.Request) error { return nil }

// Process runs the pipeline over the requested (or all) input files.
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	req := &processRequest{}
	if r.ContentLength > 0 {
		if err := render.Bind(r, req); err != nil {
			h.renderError(w, r, apperrors.ErrInvalidRequest)
			return
		}
	}

	paths, apiErr := h.resolveInputs(req.Files)
	if apiErr != nil {
		h.renderError(w, r, apiErr)
		return
	}

	h.hub.Broadcast(ws.TypeProcessing, map[string]int{"files": len(paths)})

	summary, err := h.service.ProcessPaths(r.Context(), paths, services.ProcessOptions{
		FormatOverride: req.Format,
		DryRun:         req.DryRun,
	})
	if err != nil {
		h.hub.Broadcast(ws.TypeError, map[string]string{"error": err.Error()})
		h.renderError(w, r, apperrors.FromEngine(err))
		return
	}

	h.hub.Broadcast(ws.TypeComplete, summary)
	render.JSON(w, r, summary)
}

// resolveInputs maps requested names to paths, or discovers every input
// when none are named.
func (h *Handler) resolveInputs(names []string) ([]string, *apperrors.APIError) {
	if len(names) == 0 {
		inputs, err := h.discovery.FindInputFiles()
		if err != nil {
			return nil, apperrors.FromEngine(apperrors.FileProcessingf(h.cfg.Paths.InputDir, "%v", err))
		}
		if len(inputs) == 0 {
			return nil, apperrors.NewAPIError(http.StatusBadRequest, "NO_INPUT_FILES", "The input folder holds no meter exports")
		}
		paths := make([]string, len(inputs))
		for i, f := range inputs {
			paths[i] = f.Path
		}
		return paths, nil
	}

	paths := make([]string, 0, len(names))
	for _, name := range names {
		clean, err := files.SanitizeFilename(name)
		if err != nil || !files.IsInputFile(clean) {
			return nil, apperrors.ErrField("files", "invalid input file name: "+name)
		}
		paths = append(paths, filepath.Join(h.cfg.Paths.InputDir, clean))
	}
	return paths, nil
}

// DeleteFile removes one input export.
func (h *Handler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.manager.DeleteInput(name); err != nil {
		h.renderError(w, r, apperrors.FromEngine(err))
		return
	}
	h.hub.Broadcast(ws.TypeFiles, map[string]string{"deleted": name})
	render.JSON(w, r, map[string]bool{"success": true})
}

// Download streams one generated YAML file.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	path, err := h.manager.OutputPath(name)
	if err != nil {
		h.renderError(w, r, apperrors.ErrNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/x-yaml")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	http.ServeFile(w, r, path)
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, apiErr *apperrors.APIError) {
	if err := render.Render(w, r, apperrors.NewErrorResponse(apiErr)); err != nil {
		h.logger.Error("failed to render error response", slog.String("error", err.Error()))
	}
}
