package database

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brainless/getmarket/internal/models"
)

func TestMarketOverview(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)
	ctx := context.Background()
	date := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

	t.Run("empty store yields counts only", func(t *testing.T) {
		testDB.TruncateAll(t)

		overview, err := testDB.GetMarketOverview(ctx)
		require.NoError(t, err)
		assert.Zero(t, overview.TotalCompanies)
		assert.Nil(t, overview.LatestTradingDate)
		assert.Empty(t, overview.TopGainers)
	})

	t.Run("ranks movers on the latest trading date", func(t *testing.T) {
		testDB.TruncateAll(t)

		gainer := stockRecord("UP", date)
		gainer.PrevClose = decimal.NewFromFloat(100)
		gainer.Last = decimal.NewFromFloat(110)

		loser := stockRecord("DOWN", date)
		loser.PrevClose = decimal.NewFromFloat(100)
		loser.Last = decimal.NewFromFloat(80)

		active := stockRecord("BUSY", date)
		active.TotalTradedQty = 99000000

		_, err := testDB.UpsertDailyPrices(ctx, []models.StockRecord{gainer, loser, active})
		require.NoError(t, err)

		overview, err := testDB.GetMarketOverview(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), overview.TotalCompanies)
		require.NotNil(t, overview.LatestTradingDate)

		require.NotEmpty(t, overview.TopGainers)
		assert.Equal(t, "UP", overview.TopGainers[0].Symbol)
		require.NotEmpty(t, overview.TopLosers)
		assert.Equal(t, "DOWN", overview.TopLosers[0].Symbol)
		require.NotEmpty(t, overview.MostActive)
		assert.Equal(t, "BUSY", overview.MostActive[0].Symbol)
	})

	t.Run("rejects unknown metrics", func(t *testing.T) {
		_, err := testDB.GetTopPerformers(ctx, "momentum", 5)
		assert.Error(t, err)
	})
}
