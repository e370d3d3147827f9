package handlers

import (
	"emulator-service/internal/core/services"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	datasetSvc  *services.DatasetService
	emulatorSvc *services.EmulatorService
}

func New(datasetSvc *services.DatasetService, emulatorSvc *services.EmulatorService) *Handler {
	return &Handler{
		datasetSvc:  datasetSvc,
		emulatorSvc: emulatorSvc,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	// Datasets
	r.PUT("/datasets/:name", h.UploadDataset)
	r.GET("/datasets", h.ListDatasets)
	r.GET("/datasets/:name", h.GetDataset)
	r.GET("/datasets/:name/summary", h.GetDatasetSummary)
	r.GET("/datasets/:name/data", h.GetDatasetData)
	r.DELETE("/datasets/:name", h.DeleteDataset)

	// Emulators
	r.POST("/emulators", h.TrainEmulator)
	r.GET("/emulators", h.ListEmulators)
	r.GET("/emulators/:name", h.GetEmulator)
	r.GET("/emulators/:name/status", h.GetEmulatorStatus)
	r.GET("/emulators/:name/summary", h.GetEmulatorSummary)
	r.POST("/emulators/:name/predict", h.Predict)
	r.DELETE("/emulators/:name", h.DeleteEmulator)
}
