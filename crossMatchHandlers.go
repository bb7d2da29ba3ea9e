package main

import (
	"net/http"
	"strconv"

	"github.com/FDXFinanzas1/inventario-ciego/config"
	"github.com/FDXFinanzas1/inventario-ciego/models"
	"github.com/FDXFinanzas1/inventario-ciego/models/reports"
	"github.com/FDXFinanzas1/inventario-ciego/utils"
	"github.com/FDXFinanzas1/inventario-ciego/workflow"
	"github.com/gin-gonic/gin"
)

func pathId(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func runCrossMatchHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req workflow.CrossMatchInput
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
		execution, err := workflow.RunCrossMatch(c.Request.Context(), config.GetLogger(), req)
		if err != nil {
			respondError(c, "runCrossMatchHandler", err)
			return
		}
		status := http.StatusCreated
		if execution.Status != models.ExecutionStatusCompleted {
			status = http.StatusOK
		}
		c.JSON(status, execution)
	}
}

func listCrossMatchesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.Query("limit"))
		executions, err := models.ListCrossMatchExecutions(c.Request.Context(), c.Query("warehouse_id"), limit)
		if err != nil {
			respondError(c, "listCrossMatchesHandler", err)
			return
		}
		c.JSON(http.StatusOK, executions)
	}
}

func getCrossMatchHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		execution, err := models.GetCrossMatchExecution(c.Request.Context(), id)
		if err != nil {
			respondError(c, "getCrossMatchHandler", err)
			return
		}
		c.JSON(http.StatusOK, execution)
	}
}

func crossMatchDetailsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		details, err := models.ListCrossMatchDetails(c.Request.Context(), id, models.MatchOrigin(c.Query("origin")))
		if err != nil {
			respondError(c, "crossMatchDetailsHandler", err)
			return
		}
		c.JSON(http.StatusOK, details)
	}
}

func deleteCrossMatchHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		execution, err := models.DeleteCrossMatchExecution(c.Request.Context(), id)
		if err != nil {
			respondError(c, "deleteCrossMatchHandler", err)
			return
		}
		c.JSON(http.StatusOK, execution)
	}
}

func exportCrossMatchHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		wb, err := reports.ExportCrossMatch(c.Request.Context(), id)
		if err != nil {
			respondError(c, "exportCrossMatchHandler", err)
			return
		}
		writeWorkbook(c, wb)
	}
}

func writeWorkbook(c *gin.Context, wb *reports.Workbook) {
	c.Header("Content-Disposition", "attachment; filename="+wb.Filename)
	c.Header("X-Export-Archived", strconv.FormatBool(wb.Archived))
	c.Data(http.StatusOK, utils.XlsxContentType, wb.Data)
}
