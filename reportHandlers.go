package main

import (
	"net/http"
	"strconv"

	"github.com/FDXFinanzas1/inventario-ciego/models/reports"
	"github.com/gin-gonic/gin"
)

func historyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := reports.GetSliceHistory(c.Request.Context(), c.Query("fecha_desde"), c.Query("fecha_hasta"), c.Query("bodega"))
		if err != nil {
			respondError(c, "historyHandler", err)
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

func differencesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := reports.GetDifferences(c.Request.Context(), c.Query("fecha"), c.Query("bodega"))
		if err != nil {
			respondError(c, "differencesHandler", err)
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

func dashboardHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := reports.GetDashboardRollup(c.Request.Context(), c.Query("fecha_desde"), c.Query("fecha_hasta"))
		if err != nil {
			respondError(c, "dashboardHandler", err)
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

func trendsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.Query("limite"))
		rows, err := reports.GetTrendRanking(c.Request.Context(), reports.TrendFilter{
			WarehouseId: c.Query("bodega"),
			From:        c.Query("fecha_desde"),
			To:          c.Query("fecha_hasta"),
			Limit:       limit,
		})
		if err != nil {
			respondError(c, "trendsHandler", err)
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

// temporalTrendsHandler accepts either dias or a fecha_desde/fecha_hasta range.
func temporalTrendsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			result *reports.TemporalResponse
			err    error
		)
		if from, to := c.Query("fecha_desde"), c.Query("fecha_hasta"); from != "" || to != "" {
			result, err = reports.GetTemporalSeries(c.Request.Context(), from, to)
		} else {
			days := 30
			if v := c.Query("dias"); v != "" {
				days, err = strconv.Atoi(v)
				if err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"error": "dias must be a number"})
					return
				}
			}
			result, err = reports.GetRecentTemporalSeries(c.Request.Context(), days)
		}
		if err != nil {
			respondError(c, "temporalTrendsHandler", err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func exportCountsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		wb, err := reports.ExportCounts(c.Request.Context(), c.Query("fecha_desde"), c.Query("fecha_hasta"), c.Query("bodega"))
		if err != nil {
			respondError(c, "exportCountsHandler", err)
			return
		}
		writeWorkbook(c, wb)
	}
}
