package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	t.Run("all tables exist", func(t *testing.T) {
		expectedTables := []string{
			"companies",
			"daily_prices",
			"ingestion_log",
		}

		for _, tableName := range expectedTables {
			var exists bool
			err := testDB.GetRawConn().QueryRow(`
				SELECT EXISTS (
					SELECT FROM information_schema.tables
					WHERE table_schema = 'public'
					AND table_name = $1
				)
			`, tableName).Scan(&exists)

			require.NoError(t, err, "failed to check table existence for %s", tableName)
			assert.True(t, exists, "table %s should exist", tableName)
		}
	})

	t.Run("migrate is idempotent", func(t *testing.T) {
		// Second run against an up-to-date schema must be a no-op.
		err := testDB.Migrate()
		require.NoError(t, err)
	})

	t.Run("companies symbol is unique", func(t *testing.T) {
		testDB.TruncateAll(t)

		conn := testDB.GetRawConn()
		_, err := conn.Exec(`
			INSERT INTO companies (symbol, created_at, updated_at)
			VALUES ('RELIANCE', now(), now())
		`)
		require.NoError(t, err)

		_, err = conn.Exec(`
			INSERT INTO companies (symbol, created_at, updated_at)
			VALUES ('RELIANCE', now(), now())
		`)
		assert.Error(t, err, "duplicate symbol should violate unique constraint")
	})

	t.Run("daily_prices unique on company and date", func(t *testing.T) {
		testDB.TruncateAll(t)

		conn := testDB.GetRawConn()
		var companyID int64
		err := conn.QueryRow(`
			INSERT INTO companies (symbol, created_at, updated_at)
			VALUES ('TCS', now(), now())
			RETURNING id
		`).Scan(&companyID)
		require.NoError(t, err)

		insert := `
			INSERT INTO daily_prices (
				company_id, trade_date, open, high, low, close, last, prev_close, created_at
			) VALUES ($1, '2025-01-15', 1, 2, 1, 2, 2, 1, now())
		`
		_, err = conn.Exec(insert, companyID)
		require.NoError(t, err)

		_, err = conn.Exec(insert, companyID)
		assert.Error(t, err, "duplicate (company, trade_date) should violate unique constraint")
	})

	t.Run("deleting a company cascades to its prices", func(t *testing.T) {
		testDB.TruncateAll(t)

		conn := testDB.GetRawConn()
		var companyID int64
		err := conn.QueryRow(`
			INSERT INTO companies (symbol, created_at, updated_at)
			VALUES ('INFY', now(), now())
			RETURNING id
		`).Scan(&companyID)
		require.NoError(t, err)

		_, err = conn.Exec(`
			INSERT INTO daily_prices (
				company_id, trade_date, open, high, low, close, last, prev_close, created_at
			) VALUES ($1, '2025-01-15', 1, 2, 1, 2, 2, 1, now())
		`, companyID)
		require.NoError(t, err)

		_, err = conn.Exec(`DELETE FROM companies WHERE id = $1`, companyID)
		require.NoError(t, err)

		var count int
		err = conn.QueryRow(`SELECT COUNT(*) FROM daily_prices WHERE company_id = $1`, companyID).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})
}
