package main

import (
	"net/http"
	"strings"

	"github.com/FDXFinanzas1/inventario-ciego/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func warehousesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		warehouses, err := models.GetWarehouses(c.Request.Context())
		if err != nil {
			respondError(c, "warehousesHandler", err)
			return
		}
		c.JSON(http.StatusOK, warehouses)
	}
}

func createWarehouseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.NewWarehouse
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
		warehouse, err := models.CreateWarehouse(c.Request.Context(), &req)
		if err != nil {
			respondError(c, "createWarehouseHandler", err)
			return
		}
		c.JSON(http.StatusCreated, warehouse)
	}
}

func categoriesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.GetCategories())
	}
}

func productsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := models.GetProductCatalog(c.Request.Context(), strings.TrimSpace(c.Query("bodega")))
		if err != nil {
			respondError(c, "productsHandler", err)
			return
		}
		c.JSON(http.StatusOK, products)
	}
}

func querySliceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		date := c.Query("fecha")
		warehouseId := c.Query("local")
		if date == "" || warehouseId == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Fecha y local son requeridos"})
			return
		}
		records, err := models.QuerySlice(c.Request.Context(), date, warehouseId)
		if err != nil {
			respondError(c, "querySliceHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"productos": records,
			"progreso":  models.ClassifyProgress(models.MetricsOf(records)),
		})
	}
}

type submitCountRequest struct {
	Id       int                 `json:"id" binding:"required"`
	Quantity decimal.NullDecimal `json:"cantidad_contada"`
	Pass     *int                `json:"conteo"`
}

func submitCountHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req submitCountRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
		pass := 1
		if req.Pass != nil {
			pass = *req.Pass
		}
		if err := models.SubmitCount(c.Request.Context(), req.Id, req.Quantity, pass); err != nil {
			respondError(c, "submitCountHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

type submitNotesRequest struct {
	Id    int    `json:"id" binding:"required"`
	Notes string `json:"observaciones"`
}

func submitNotesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req submitNotesRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
		if err := models.SubmitNotes(c.Request.Context(), req.Id, req.Notes); err != nil {
			respondError(c, "submitNotesHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

type loadReferenceRequest struct {
	Date        string                 `json:"fecha"`
	WarehouseId string                 `json:"local"`
	Items       []models.ReferenceItem `json:"productos"`
}

func loadReferenceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loadReferenceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
		if req.Date == "" || req.WarehouseId == "" || len(req.Items) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Datos incompletos"})
			return
		}
		touched, err := models.UpsertReference(c.Request.Context(), req.Date, req.WarehouseId, req.Items)
		if err != nil {
			respondError(c, "loadReferenceHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "registros": touched})
	}
}

func allocationsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		allocations, err := models.GetAllocations(c.Request.Context(), c.Query("fecha"), c.Query("local"))
		if err != nil {
			respondError(c, "allocationsHandler", err)
			return
		}
		c.JSON(http.StatusOK, allocations)
	}
}

type allocateRequest struct {
	RecordId    int                            `json:"conteo_id" binding:"required"`
	Allocations []models.NewVarianceAllocation `json:"asignaciones"`
}

func allocateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req allocateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
		saved, err := models.Allocate(c.Request.Context(), req.RecordId, req.Allocations)
		if err != nil {
			respondError(c, "allocateHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "asignaciones": saved})
	}
}

func purgeSliceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := models.Purge(c.Request.Context(), c.Query("fecha"), c.Query("local"))
		if err != nil {
			respondError(c, "purgeSliceHandler", err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}
