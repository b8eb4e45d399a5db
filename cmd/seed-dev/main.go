// seed-dev loads a minimal development dataset: base units, a default outlet,
// and one sample product with its cross-unit conversion.
//
// Usage (from backend directory):
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-dev
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/hihabib/inventory-management-system-api-sub000/config"
	"github.com/hihabib/inventory-management-system-api-sub000/models"
	"github.com/hihabib/inventory-management-system-api-sub000/utils"
	"github.com/shopspring/decimal"
)

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	models.MigrateTable()

	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "seed-dev")

	unitIds := map[string]int{}
	for _, u := range []models.NewUnit{
		{Name: "kg", Suffix: "kg"},
		{Name: "gm", Suffix: "gm"},
		{Name: "box", Suffix: "box"},
		{Name: "pcs", Suffix: "pcs"},
	} {
		unit, err := models.CreateUnit(ctx, &u)
		if err != nil {
			// already seeded; look it up instead
			existing, lookupErr := models.GetUnits(ctx, &u.Name)
			if lookupErr != nil || len(existing) == 0 {
				fmt.Fprintf(os.Stderr, "seed unit %s: %v\n", u.Name, err)
				os.Exit(1)
			}
			unit = existing[0]
		}
		unitIds[unit.Name] = unit.ID
	}

	outlet, err := models.CreateMaintains(ctx, &models.NewMaintains{Name: "Dev Outlet", Type: models.MaintainsTypeOutlet})
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed maintains: %v\n", err)
		os.Exit(1)
	}

	product, err := models.CreateProduct(ctx, &models.NewProduct{
		Name:       "Sample Rice",
		MainUnitId: unitIds["kg"],
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed product: %v\n", err)
		os.Exit(1)
	}
	conversions := map[string]string{"box": "10", "gm": "0.001", "pcs": "0.5"}
	for name, factor := range conversions {
		if _, err := models.CreateUnitConversion(ctx, &models.NewUnitConversion{
			ProductId: product.ID,
			UnitId:    unitIds[name],
			Factor:    decimal.RequireFromString(factor),
		}); err != nil {
			fmt.Fprintf(os.Stderr, "seed conversion %s: %v\n", name, err)
			os.Exit(1)
		}
	}

	fmt.Printf("seeded: outlet=%d product=%d units=%v\n", outlet.ID, product.ID, unitIds)
}
