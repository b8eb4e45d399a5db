package models

import (
	"log"

	"github.com/hihabib/inventory-management-system-api-sub000/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Unit{}, &UnitConversion{},
		&Product{},
		&Maintains{},
		&CustomerCategory{}, &Customer{},
		&StockBatch{}, &Stock{},
		&Sale{}, &Payment{}, &PaymentSale{},
		&CustomerDue{}, &CustomerDueUpdateHistory{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
