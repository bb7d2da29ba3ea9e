package models

import (
	"context"

	"github.com/FDXFinanzas1/inventario-ciego/config"
	"github.com/FDXFinanzas1/inventario-ciego/utils"
	"gorm.io/gorm"
)

// Product is a catalog entry derived from the count ledger.
type Product struct {
	ProductCode string `json:"codigo"`
	Name        string `json:"nombre"`
	Unit        string `json:"unidad"`
	LastSeen    string `json:"ultima_fecha"`
}

// GetProductCatalog lists every product code seen in the ledger with the name
// and unit of its most recent record.
func GetProductCatalog(ctx context.Context, warehouseId string) ([]Product, error) {
	var records []CountRecord
	err := config.WithConn(ctx, func(conn *gorm.DB) error {
		query := conn.Select("product_code", "name", "unit", "count_date")
		if warehouseId != "" {
			query = query.Where("warehouse_id = ?", warehouseId)
		}
		return query.Order("product_code ASC, count_date ASC, id ASC").Find(&records).Error
	})
	if err != nil {
		return nil, utils.TranslateDBError("product catalog", err)
	}

	products := make([]Product, 0)
	for _, r := range records {
		n := len(products)
		if n > 0 && products[n-1].ProductCode == r.ProductCode {
			products[n-1].Name = r.Name
			products[n-1].Unit = r.Unit
			products[n-1].LastSeen = r.CountDate
			continue
		}
		products = append(products, Product{ProductCode: r.ProductCode, Name: r.Name, Unit: r.Unit, LastSeen: r.CountDate})
	}
	return products, nil
}
