package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/username/coinfolio/backend/src/config"
	"github.com/username/coinfolio/backend/src/logger"
	"github.com/username/coinfolio/backend/src/parsers"
	"github.com/username/coinfolio/backend/src/services"
	"github.com/username/coinfolio/backend/src/utils"
)

type UploadHandler struct {
	portfolioService services.PortfolioService
}

func NewUploadHandler(service services.PortfolioService) *UploadHandler {
	return &UploadHandler{
		portfolioService: service,
	}
}

// HandleUpload ingests an exchange history export. The optional "source"
// form field names the exchange; when absent the format is detected from
// the file's header line.
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		logger.L.Warn("Failed to parse multipart form or request too large", "error", err, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("Failed to parse form or request too large (max %d MB)", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		logger.L.Warn("Failed to retrieve file from request", "error", err)
		utils.SendJSONError(w, "Failed to retrieve file from request. Ensure 'file' field is used.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if fileHeader.Size > config.Cfg.MaxUploadSizeBytes {
		logger.L.Warn("Uploaded file header reports size too large", "fileSize", fileHeader.Size, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("File too large, max %d MB (header check)", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	source := r.FormValue("source")
	logger.L.Info("Processing upload request", "filename", fileHeader.Filename, "source", source)

	summary, err := h.portfolioService.ProcessUpload(file, source)
	if err != nil {
		if errors.Is(err, parsers.ErrUnsupportedFormat) {
			logger.L.Warn("Upload rejected, unsupported format", "filename", fileHeader.Filename, "error", err)
			utils.SendJSONError(w, fmt.Sprintf("Unsupported history format: %v", err), http.StatusBadRequest)
		} else if errors.Is(err, services.ErrParsingFailed) {
			logger.L.Warn("Upload processing failed due to parsing errors", "filename", fileHeader.Filename, "error", err)
			utils.SendJSONError(w, fmt.Sprintf("Error parsing history file: %v", err), http.StatusBadRequest)
		} else {
			logger.L.Error("Internal error processing upload", "filename", fileHeader.Filename, "error", err)
			utils.SendJSONError(w, "An internal error occurred while processing the file. Please try again later.", http.StatusInternalServerError)
		}
		return
	}

	utils.SendJSONResponse(w, summary, http.StatusOK)
}

// HandlePoll fetches recent orders straight from an exchange API.
func (h *UploadHandler) HandlePoll(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")
	logger.L.Info("Processing poll request", "source", source)

	ctx, cancel := context.WithTimeout(r.Context(), config.Cfg.PollTimeout)
	defer cancel()

	summary, err := h.portfolioService.ProcessPoll(ctx, source)
	if err != nil {
		if errors.Is(err, services.ErrPollerNotConfigured) {
			utils.SendJSONError(w, fmt.Sprintf("No poller configured for source %q", source), http.StatusNotFound)
		} else {
			logger.L.Error("Internal error polling exchange", "source", source, "error", err)
			utils.SendJSONError(w, fmt.Sprintf("Error polling %s. Please try again later.", source), http.StatusInternalServerError)
		}
		return
	}

	utils.SendJSONResponse(w, summary, http.StatusOK)
}
