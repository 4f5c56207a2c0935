package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/luminapos/corrispettivi/internal/apperrors"
	portssvc "github.com/luminapos/corrispettivi/internal/core/ports/services"
	"github.com/luminapos/corrispettivi/internal/dto"
	"github.com/luminapos/corrispettivi/internal/middleware"
)

// auditHandler handles the auditor-facing asynchronous query endpoints.
type auditHandler struct {
	audit portssvc.AuditService
}

// newAuditHandler creates a new auditHandler.
func newAuditHandler(audit portssvc.AuditService) *auditHandler {
	return &auditHandler{audit: audit}
}

// postJournalAudit creates an asynchronous journal audit job.
func (h *auditHandler) postJournalAudit(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	req := dto.JournalAuditRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind journal audit request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	query, err := req.ToQuery()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	jobID, err := h.audit.RequestJournalAudit(c.Request.Context(), query)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to create journal audit job", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create audit job"})
		}
		return
	}

	logger.Info("Journal audit job created", slog.String("job_id", jobID))
	c.JSON(http.StatusOK, dto.AuditJobResponse{JobID: jobID})
}

// postDocumentAudit creates an asynchronous document audit job.
func (h *auditHandler) postDocumentAudit(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	req := dto.DocumentAuditRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind document audit request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	query, err := req.ToQuery()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	jobID, err := h.audit.RequestDocumentAudit(c.Request.Context(), query)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to create document audit job", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create audit job"})
		}
		return
	}

	logger.Info("Document audit job created", slog.String("job_id", jobID))
	c.JSON(http.StatusOK, dto.AuditJobResponse{JobID: jobID})
}

// getJobStatus reports the current state of a job.
func (h *auditHandler) getJobStatus(c *gin.Context) {
	jobID := c.Param("jobID")

	status, err := h.audit.GetStatus(c.Request.Context(), jobID)
	if err != nil {
		h.renderJobError(c, jobID, err)
		return
	}

	c.JSON(http.StatusOK, dto.AuditStatusResponse{Status: status})
}

// listJobArtifacts lists the artifacts of a READY job. A job still
// processing (or terminal without data) yields 409.
func (h *auditHandler) listJobArtifacts(c *gin.Context) {
	jobID := c.Param("jobID")

	files, err := h.audit.ListArtifacts(c.Request.Context(), jobID)
	if err != nil {
		h.renderJobError(c, jobID, err)
		return
	}

	c.JSON(http.StatusOK, dto.AuditFilesResponse{Files: files})
}

// downloadJobArtifact streams one named artifact of a READY job.
func (h *auditHandler) downloadJobArtifact(c *gin.Context) {
	jobID := c.Param("jobID")
	name := c.Param("name")

	data, err := h.audit.DownloadArtifact(c.Request.Context(), jobID, name)
	if err != nil {
		h.renderJobError(c, jobID, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "application/json", data)
}

func (h *auditHandler) renderJobError(c *gin.Context, jobID string, err error) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Error("Audit job request failed",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Audit request failed"})
	}
}

// RegisterAuditRoutes sets up the auditor-facing routes. Both audit
// kinds share the status/list/download handlers: the job ID alone
// identifies the job.
func RegisterAuditRoutes(rg *gin.RouterGroup, audit portssvc.AuditService) {
	h := newAuditHandler(audit)

	journal := rg.Group("/journal")
	{
		journal.POST("", h.postJournalAudit)
		journal.GET("/:jobID/status", h.getJobStatus)
		journal.GET("/:jobID", h.listJobArtifacts)
		journal.GET("/:jobID/file/:name", h.downloadJobArtifact)
	}

	document := rg.Group("/document")
	{
		document.POST("", h.postDocumentAudit)
		document.GET("/:jobID/status", h.getJobStatus)
		document.GET("/:jobID", h.listJobArtifacts)
		document.GET("/:jobID/file/:name", h.downloadJobArtifact)
	}
}
