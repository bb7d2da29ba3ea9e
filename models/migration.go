package models

import (
	"context"
	"log"

	"github.com/FDXFinanzas1/inventario-ciego/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Warehouse{}, &User{},
		&CountRecord{}, &VarianceAllocation{},
		&CrossMatchExecution{}, &CrossMatchDetail{},
	)
	if err != nil {
		log.Fatal(err)
	}
	if err := SeedWarehouses(context.Background()); err != nil {
		log.Fatal(err)
	}
}
