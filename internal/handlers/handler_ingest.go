package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/luminapos/corrispettivi/internal/apperrors"
	"github.com/luminapos/corrispettivi/internal/core/domain"
	portssvc "github.com/luminapos/corrispettivi/internal/core/ports/services"
	"github.com/luminapos/corrispettivi/internal/dto"
	"github.com/luminapos/corrispettivi/internal/middleware"
)

// ingestHandler handles the PEM-facing ingestion endpoints.
type ingestHandler struct {
	ingestion portssvc.IngestionService
}

// newIngestHandler creates a new ingestHandler.
func newIngestHandler(ingestion portssvc.IngestionService) *ingestHandler {
	return &ingestHandler{ingestion: ingestion}
}

// getSessionSeed issues a fresh session seed to an opening device.
func (h *ingestHandler) getSessionSeed(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	seed, err := h.ingestion.IssueSeed(c.Request.Context())
	if err != nil {
		logger.Error("Failed to issue session seed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue session seed"})
		return
	}

	c.JSON(http.StatusOK, dto.SeedResponse{SessionID: seed.SessionID, Seed: seed.Seed})
}

// postDocument ingests one receipt pushed in real time.
func (h *ingestHandler) postDocument(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	req := dto.ReceiptRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind receipt", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	receipt, err := req.ToDomain()
	if err != nil {
		logger.Warn("Invalid receipt payload", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ack, err := h.ingestion.IngestReceipt(c.Request.Context(), receipt)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			logger.Warn("Receipt rejected", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to ingest receipt", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to ingest receipt"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ReceiptResponse{MessageID: ack.MessageID, ReceivedAt: ack.ReceivedAt})
}

// postJournal ingests a sealed journal. An integrity failure does not
// reject the journal: it is persisted flagged and acknowledged with
// status ANOMALOUS.
func (h *ingestHandler) postJournal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	req := dto.JournalRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind journal", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	journal, err := req.ToDomain()
	if err != nil {
		logger.Warn("Invalid journal payload", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ack, err := h.ingestion.IngestJournal(c.Request.Context(), journal)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			logger.Warn("Journal rejected", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to ingest journal", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to ingest journal"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.JournalResponse{MessageID: ack.MessageID, Status: string(ack.Status)})
}

// postAnomaly records a device-reported anomaly.
func (h *ingestHandler) postAnomaly(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	req := dto.AnomalyRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind anomaly", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	anomaly := domain.Anomaly{
		DeviceID: req.Dispositivo,
		Detail:   req.Dettaglio,
		Payload:  req.Payload,
	}
	if err := h.ingestion.RecordAnomaly(c.Request.Context(), anomaly); err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			logger.Warn("Anomaly rejected", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to record anomaly", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record anomaly"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.AnomalyResponse{Status: "recorded"})
}

// RegisterIngestRoutes sets up the PEM-facing ingestion routes.
func RegisterIngestRoutes(rg *gin.RouterGroup, ingestion portssvc.IngestionService) {
	h := newIngestHandler(ingestion)

	rg.GET("/session-seed", h.getSessionSeed)
	rg.POST("/document", h.postDocument)
	rg.POST("/journal", h.postJournal)
	rg.POST("/anomaly", h.postAnomaly)
}
