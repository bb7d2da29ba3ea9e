package models

import (
	"context"
	"strings"
	"time"

	"github.com/FDXFinanzas1/inventario-ciego/config"
	"github.com/FDXFinanzas1/inventario-ciego/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Warehouse is a counting location. Its ID is the short code stored on count records.
type Warehouse struct {
	ID        string    `gorm:"primary_key;size:50" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"nombre"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewWarehouse struct {
	ID   string `json:"id" binding:"required"`
	Name string `json:"nombre" binding:"required"`
}

type Category struct {
	ID   int    `json:"id"`
	Name string `json:"nombre"`
}

var defaultWarehouses = []NewWarehouse{
	{ID: "real_audiencia", Name: "Real Audiencia"},
	{ID: "floreana", Name: "Floreana"},
	{ID: "portugal", Name: "Portugal"},
	{ID: "santo_cachon_real", Name: "Santo Cachon Real"},
	{ID: "santo_cachon_portugal", Name: "Santo Cachon Portugal"},
	{ID: "simon_bolon", Name: "Simon Bolon"},
}

var categories = []Category{
	{ID: 1, Name: "Bebidas"},
	{ID: 2, Name: "Carnes"},
	{ID: 3, Name: "Lacteos"},
	{ID: 4, Name: "Congelados"},
	{ID: 5, Name: "Otros"},
}

func GetCategories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// SeedWarehouses inserts the default locations, leaving existing rows alone.
func SeedWarehouses(ctx context.Context) error {
	return config.WithConn(ctx, func(conn *gorm.DB) error {
		for _, w := range defaultWarehouses {
			row := Warehouse{ID: w.ID, Name: w.Name, IsActive: utils.NewTrue()}
			if err := conn.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func GetWarehouses(ctx context.Context) ([]Warehouse, error) {
	results := make([]Warehouse, 0)
	err := config.WithConn(ctx, func(conn *gorm.DB) error {
		return conn.Where("is_active = ?", true).Order("name ASC").Find(&results).Error
	})
	if err != nil {
		return nil, utils.TranslateDBError("get warehouses", err)
	}
	return results, nil
}

// WarehouseNames maps warehouse id to display name, inactive ones included.
func WarehouseNames(ctx context.Context) (map[string]string, error) {
	var rows []Warehouse
	err := config.WithConn(ctx, func(conn *gorm.DB) error {
		return conn.Find(&rows).Error
	})
	if err != nil {
		return nil, utils.TranslateDBError("get warehouse names", err)
	}
	names := make(map[string]string, len(rows))
	for _, w := range rows {
		names[w.ID] = w.Name
	}
	return names, nil
}

func CreateWarehouse(ctx context.Context, input *NewWarehouse) (*Warehouse, error) {
	id := strings.ToLower(strings.TrimSpace(input.ID))
	name := strings.TrimSpace(input.Name)
	if id == "" {
		return nil, utils.NewValidationError("id", "is required")
	}
	if name == "" {
		return nil, utils.NewValidationError("nombre", "is required")
	}

	warehouse := Warehouse{ID: id, Name: name, IsActive: utils.NewTrue()}
	err := config.WithConn(ctx, func(conn *gorm.DB) error {
		return conn.Create(&warehouse).Error
	})
	if err != nil {
		return nil, utils.TranslateDBError("create warehouse", err)
	}
	return &warehouse, nil
}
