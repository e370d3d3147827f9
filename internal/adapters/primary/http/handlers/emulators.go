package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"emulator-service/internal/adapters/primary/http/dto"
	"emulator-service/internal/core/ports/output"
	"emulator-service/pkg/tabular"
)

// TrainEmulator accepts a training request and answers 202 with the PENDING
// record; training happens on the runner.
func (h *Handler) TrainEmulator(c *gin.Context) {
	var req dto.TrainEmulatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	emulator, err := h.emulatorSvc.Train(
		c.Request.Context(), req.Name, req.Dataset,
		req.Inputs, req.Outputs, dto.ToTrainParams(req.Params),
	)
	if err != nil {
		log.WithError(err).Error("train emulator failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, dto.ToEmulatorResponse(emulator))
}

func (h *Handler) ListEmulators(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	filter := ports.EmulatorListFilter{
		Dataset: c.Query("dataset"),
		Status:  c.Query("status"),
		Limit:   limit,
		Offset:  offset,
	}

	emulators, total, err := h.emulatorSvc.List(c.Request.Context(), filter)
	if err != nil {
		log.WithError(err).Error("list emulators failed")
		mapDomainError(c, err)
		return
	}

	items := make([]dto.EmulatorResponse, 0, len(emulators))
	for _, e := range emulators {
		items = append(items, dto.ToEmulatorResponse(e))
	}

	c.JSON(http.StatusOK, dto.ListEmulatorsResponse{
		Items:      items,
		Total:      total,
		PageSize:   limit,
		NextOffset: offset + len(items),
	})
}

func (h *Handler) GetEmulator(c *gin.Context) {
	emulator, err := h.emulatorSvc.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToEmulatorResponse(emulator))
}

func (h *Handler) GetEmulatorStatus(c *gin.Context) {
	emulator, err := h.emulatorSvc.Status(c.Request.Context(), c.Param("name"))
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToEmulatorStatusResponse(emulator))
}

func (h *Handler) GetEmulatorSummary(c *gin.Context) {
	emulator, err := h.emulatorSvc.Summary(c.Request.Context(), c.Param("name"))
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToEmulatorSummaryResponse(emulator))
}

// Predict evaluates the emulator on a text/csv body and returns the mean and
// std tables, both aligned to the input rows.
func (h *Handler) Predict(c *gin.Context) {
	table, err := tabular.ReadCSV(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	prediction, err := h.emulatorSvc.Predict(c.Request.Context(), c.Param("name"), table)
	if err != nil {
		log.WithError(err).Error("predict failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.PredictionResponse{
		Mean: prediction.Mean,
		Std:  prediction.Std,
	})
}

func (h *Handler) DeleteEmulator(c *gin.Context) {
	if err := h.emulatorSvc.Delete(c.Request.Context(), c.Param("name")); err != nil {
		log.WithError(err).Error("delete emulator failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
