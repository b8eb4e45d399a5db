package models_test

import (
	"testing"
	"time"

	"github.com/hihabib/inventory-management-system-api-sub000/models"
	"github.com/hihabib/inventory-management-system-api-sub000/utils"
	"github.com/stretchr/testify/require"
)

func day(n int) time.Time {
	return time.Date(2026, time.January, n, 0, 0, 0, 0, time.UTC)
}

func TestAllocateFIFOSpillsOldestFirst(t *testing.T) {
	batches := []models.BatchStock{
		{StockBatchId: 2, ProductionDate: day(5), Available: dec("5")},
		{StockBatchId: 1, ProductionDate: day(1), Available: dec("5")},
	}

	allocations, err := models.AllocateFIFO(batches, dec("7"))
	require.NoError(t, err)
	require.Len(t, allocations, 2)

	require.Equal(t, 1, allocations[0].StockBatchId)
	require.True(t, allocations[0].QuantityTaken.Equal(dec("5")))
	require.Equal(t, 2, allocations[1].StockBatchId)
	require.True(t, allocations[1].QuantityTaken.Equal(dec("2")))
}

func TestAllocateFIFOBreaksDateTiesByBatchId(t *testing.T) {
	batches := []models.BatchStock{
		{StockBatchId: 9, ProductionDate: day(1), Available: dec("5")},
		{StockBatchId: 3, ProductionDate: day(1), Available: dec("5")},
	}

	allocations, err := models.AllocateFIFO(batches, dec("6"))
	require.NoError(t, err)
	require.Equal(t, 3, allocations[0].StockBatchId)
	require.Equal(t, 9, allocations[1].StockBatchId)
}

func TestAllocateFIFOSkipsEmptyBatches(t *testing.T) {
	batches := []models.BatchStock{
		{StockBatchId: 1, ProductionDate: day(1), Available: dec("0")},
		{StockBatchId: 2, ProductionDate: day(2), Available: dec("4")},
	}

	allocations, err := models.AllocateFIFO(batches, dec("3"))
	require.NoError(t, err)
	require.Len(t, allocations, 1)
	require.Equal(t, 2, allocations[0].StockBatchId)
}

func TestAllocateFIFOFailsWhenShort(t *testing.T) {
	batches := []models.BatchStock{
		{StockBatchId: 1, ProductionDate: day(1), Available: dec("5")},
		{StockBatchId: 2, ProductionDate: day(2), Available: dec("1")},
	}

	_, err := models.AllocateFIFO(batches, dec("7"))
	require.ErrorIs(t, err, utils.ErrorInsufficientStock)
}

func TestAllocateFIFORejectsNonPositiveRequest(t *testing.T) {
	_, err := models.AllocateFIFO(nil, dec("0"))
	require.True(t, utils.IsValidationError(err))
}

func TestAllocateFIFODoesNotMutateInput(t *testing.T) {
	batches := []models.BatchStock{
		{StockBatchId: 2, ProductionDate: day(5), Available: dec("5")},
		{StockBatchId: 1, ProductionDate: day(1), Available: dec("5")},
	}

	_, err := models.AllocateFIFO(batches, dec("7"))
	require.NoError(t, err)
	require.Equal(t, 2, batches[0].StockBatchId, "caller's slice must keep its order")
}

func TestAllocateFromBatchHasNoSpillover(t *testing.T) {
	batch := models.BatchStock{StockBatchId: 4, ProductionDate: day(1), Available: dec("5")}

	_, err := models.AllocateFromBatch(batch, dec("6"))
	require.ErrorIs(t, err, utils.ErrorInsufficientStock)

	allocations, err := models.AllocateFromBatch(batch, dec("5"))
	require.NoError(t, err)
	require.Len(t, allocations, 1)
	require.Equal(t, 4, allocations[0].StockBatchId)
	require.True(t, allocations[0].QuantityTaken.Equal(dec("5")))
}
