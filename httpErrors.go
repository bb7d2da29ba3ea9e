package main

import (
	"errors"
	"net/http"

	"github.com/FDXFinanzas1/inventario-ciego/config"
	"github.com/FDXFinanzas1/inventario-ciego/utils"
	"github.com/gin-gonic/gin"
)

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	var ve *utils.ValidationError
	var ce *utils.ConflictError
	var ue *utils.UpstreamError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, utils.ErrorUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, utils.ErrorRecordNotFound):
		return http.StatusNotFound
	case errors.As(err, &ce):
		return http.StatusConflict
	case errors.As(err, &ue):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// respondError writes the JSON error body. Internal failures are logged with
// their cause and answered with a generic message.
func respondError(c *gin.Context, funcName string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError || status == http.StatusBadGateway {
		cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
		config.LogError(config.GetLogger(), "handlers", funcName, c.Request.Method+" "+c.FullPath(), map[string]any{"correlation_id": cid}, err)
	}
	switch status {
	case http.StatusInternalServerError:
		c.JSON(status, gin.H{"error": "internal server error"})
	case http.StatusBadGateway:
		c.JSON(status, gin.H{"error": "upstream service unavailable"})
	default:
		c.JSON(status, gin.H{"error": err.Error()})
	}
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "fields": utils.ProcessValidationErrors(err)})
}
