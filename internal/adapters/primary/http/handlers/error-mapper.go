package handlers

import (
	"errors"
	"net/http"

	"emulator-service/internal/core/domain"

	"github.com/gin-gonic/gin"
)

func mapDomainError(c *gin.Context, err error) {
	switch {
	// Not found errors
	case errors.Is(err, domain.ErrDatasetNotFound),
		errors.Is(err, domain.ErrEmulatorNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	// Conflict / lifecycle errors
	case errors.Is(err, domain.ErrEmulatorNameConflict),
		errors.Is(err, domain.ErrDatasetInUse):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	// Bad request / validation errors
	case errors.Is(err, domain.ErrInvalidDatasetName),
		errors.Is(err, domain.ErrEmptyDataset),
		errors.Is(err, domain.ErrInvalidEmulatorName),
		errors.Is(err, domain.ErrUnsupportedEstimator),
		errors.Is(err, domain.ErrInvalidTrainTestRatio),
		errors.Is(err, domain.ErrInvalidRidgeAlpha),
		errors.Is(err, domain.ErrEmulatorNotReady),
		errors.Is(err, domain.ErrNoInputColumns),
		errors.Is(err, domain.ErrNoOutputColumns),
		errors.Is(err, domain.ErrDuplicateColumn),
		errors.Is(err, domain.ErrOverlappingColumns),
		errors.Is(err, domain.ErrColumnNotInDataset),
		errors.Is(err, domain.ErrMissingInputColumn),
		errors.Is(err, domain.ErrEmptyInputTable):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	// Backpressure
	case errors.Is(err, domain.ErrTrainingQueueFull):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
