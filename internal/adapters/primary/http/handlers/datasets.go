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

// UploadDataset creates or replaces the named dataset from a text/csv body.
func (h *Handler) UploadDataset(c *gin.Context) {
	table, err := tabular.ReadCSV(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dataset, err := h.datasetSvc.Upload(c.Request.Context(), c.Param("name"), table)
	if err != nil {
		log.WithError(err).Error("upload dataset failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToDatasetResponse(dataset))
}

func (h *Handler) ListDatasets(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	filter := ports.ListFilter{
		Search: c.Query("search"),
		Limit:  limit,
		Offset: offset,
	}

	datasets, total, err := h.datasetSvc.List(c.Request.Context(), filter)
	if err != nil {
		log.WithError(err).Error("list datasets failed")
		mapDomainError(c, err)
		return
	}

	items := make([]dto.DatasetResponse, 0, len(datasets))
	for _, d := range datasets {
		items = append(items, dto.ToDatasetResponse(d))
	}

	c.JSON(http.StatusOK, dto.ListDatasetsResponse{
		Items:      items,
		Total:      total,
		PageSize:   limit,
		NextOffset: offset + len(items),
	})
}

func (h *Handler) GetDataset(c *gin.Context) {
	dataset, err := h.datasetSvc.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToDatasetResponse(dataset))
}

func (h *Handler) GetDatasetSummary(c *gin.Context) {
	dataset, stats, err := h.datasetSvc.Summary(c.Request.Context(), c.Param("name"))
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToDatasetSummaryResponse(dataset, stats))
}

// GetDatasetData streams the stored rows back as text/csv.
func (h *Handler) GetDatasetData(c *gin.Context) {
	dataset, err := h.datasetSvc.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.Data(http.StatusOK, "text/csv; charset=utf-8", dataset.Data)
}

func (h *Handler) DeleteDataset(c *gin.Context) {
	if err := h.datasetSvc.Delete(c.Request.Context(), c.Param("name")); err != nil {
		log.WithError(err).Error("delete dataset failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
