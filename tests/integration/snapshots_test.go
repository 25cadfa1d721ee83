package integration

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/skuwatch/metrics-service/internal/database"
	"github.com/skuwatch/metrics-service/pkg/apperrors"
	"github.com/skuwatch/metrics-service/pkg/trends"
)

// setupSnapshotTestDB starts a throwaway Postgres and applies the schema.
func setupSnapshotTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode (requires Docker)")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err, "Failed to start postgres container")

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get connection string")

	config, err := pgxpool.ParseConfig(connStr)
	require.NoError(t, err)

	pool, err := pgxpool.NewWithConfig(ctx, config)
	require.NoError(t, err, "Failed to create connection pool")

	require.NoError(t, database.Migrate(ctx, pool), "Failed to apply schema")

	cleanup := func() {
		pool.Close()
		container.Terminate(ctx)
	}
	return pool, cleanup
}

func floatp(v float64) *float64 { return &v }
func boolp(v bool) *bool        { return &v }

func at(t *testing.T, stamp string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, stamp)
	require.NoError(t, err)
	return ts
}

func TestDailySeriesMostRecentSnapshotWins(t *testing.T) {
	pool, cleanup := setupSnapshotTestDB(t)
	defer cleanup()
	ctx := context.Background()

	productID, err := database.CreateProduct(ctx, pool, "B00INTTEST1", "Integration Widget", "widgets")
	require.NoError(t, err)

	// Three snapshots on the same day; the evening scrape must win.
	for _, s := range []struct {
		stamp string
		price float64
	}{
		{"2024-03-05T08:00:00Z", 10.00},
		{"2024-03-05T14:00:00Z", 11.50},
		{"2024-03-05T21:30:00Z", 12.99},
	} {
		require.NoError(t, database.InsertSnapshot(ctx, pool, &database.Snapshot{
			ProductID:  productID,
			CapturedAt: at(t, s.stamp),
			Price:      floatp(s.price),
		}))
	}

	store := database.NewSnapshotStore(pool)
	from := at(t, "2024-03-01T00:00:00Z")
	to := at(t, "2024-03-07T00:00:00Z")

	rows, err := store.DailySeries(ctx, productID, []string{"price"}, from, to)
	require.NoError(t, err)

	require.Len(t, rows, 1, "same-day snapshots must collapse to one row")
	assert.Equal(t, "2024-03-05", rows[0].Date)
	assert.Equal(t, 12.99, rows[0].Values["price"])
}

func TestDailySeriesSparseWindow(t *testing.T) {
	pool, cleanup := setupSnapshotTestDB(t)
	defer cleanup()
	ctx := context.Background()

	productID, err := database.CreateProduct(ctx, pool, "B00INTTEST2", "Sparse Widget", "widgets")
	require.NoError(t, err)

	// Days 1, 3 and 6 of the window have snapshots; day 3 missed the rank.
	require.NoError(t, database.InsertSnapshot(ctx, pool, &database.Snapshot{
		ProductID: productID, CapturedAt: at(t, "2024-03-01T12:00:00Z"),
		Price: floatp(19.99), BSRMain: floatp(1500), InStock: boolp(true),
	}))
	require.NoError(t, database.InsertSnapshot(ctx, pool, &database.Snapshot{
		ProductID: productID, CapturedAt: at(t, "2024-03-03T12:00:00Z"),
		Price: floatp(18.49), InStock: boolp(false),
	}))
	require.NoError(t, database.InsertSnapshot(ctx, pool, &database.Snapshot{
		ProductID: productID, CapturedAt: at(t, "2024-03-06T12:00:00Z"),
		Price: floatp(21.00), BSRMain: floatp(1320), InStock: boolp(true),
	}))

	store := database.NewSnapshotStore(pool)
	from := at(t, "2024-03-01T00:00:00Z")
	to := at(t, "2024-03-07T00:00:00Z")

	rows, err := store.DailySeries(ctx, productID, []string{"price", "bsr_main", "in_stock"}, from, to)
	require.NoError(t, err)

	require.Len(t, rows, 3, "days without snapshots are omitted")
	assert.Equal(t, "2024-03-01", rows[0].Date)
	assert.Equal(t, "2024-03-03", rows[1].Date)
	assert.Equal(t, "2024-03-06", rows[2].Date)

	// Mixed types scan correctly; an uncaptured rank surfaces as nil.
	assert.Equal(t, 1500.0, rows[0].Values["bsr_main"])
	assert.Nil(t, rows[1].Values["bsr_main"])
	assert.Equal(t, false, rows[1].Values["in_stock"])
	assert.Equal(t, true, rows[2].Values["in_stock"])
}

func TestProductNotFound(t *testing.T) {
	pool, cleanup := setupSnapshotTestDB(t)
	defer cleanup()

	store := database.NewSnapshotStore(pool)
	_, err := store.Product(context.Background(), "no-such-id")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestCategoryDailyAverage(t *testing.T) {
	pool, cleanup := setupSnapshotTestDB(t)
	defer cleanup()
	ctx := context.Background()

	p1, err := database.CreateProduct(ctx, pool, "B00INTTEST3", "Widget A", "widgets")
	require.NoError(t, err)
	p2, err := database.CreateProduct(ctx, pool, "B00INTTEST4", "Widget B", "widgets")
	require.NoError(t, err)
	other, err := database.CreateProduct(ctx, pool, "B00INTTEST5", "Gadget", "gadgets")
	require.NoError(t, err)

	// p1 scraped twice on the day; the later 12.00 must enter the average,
	// so the expected mean is (12 + 20) / 2, not (10 + 20) / 2.
	require.NoError(t, database.InsertSnapshot(ctx, pool, &database.Snapshot{
		ProductID: p1, CapturedAt: at(t, "2024-03-05T08:00:00Z"), Price: floatp(10.00),
	}))
	require.NoError(t, database.InsertSnapshot(ctx, pool, &database.Snapshot{
		ProductID: p1, CapturedAt: at(t, "2024-03-05T20:00:00Z"), Price: floatp(12.00),
	}))
	require.NoError(t, database.InsertSnapshot(ctx, pool, &database.Snapshot{
		ProductID: p2, CapturedAt: at(t, "2024-03-05T12:00:00Z"), Price: floatp(20.00),
	}))
	// A different category never contaminates the average.
	require.NoError(t, database.InsertSnapshot(ctx, pool, &database.Snapshot{
		ProductID: other, CapturedAt: at(t, "2024-03-05T12:00:00Z"), Price: floatp(999.00),
	}))

	store := database.NewSnapshotStore(pool)
	from := at(t, "2024-03-01T00:00:00Z")
	to := at(t, "2024-03-07T00:00:00Z")

	points, err := store.CategoryDailyAverage(ctx, "widgets", "price", from, to)
	require.NoError(t, err)

	require.Len(t, points, 1)
	assert.Equal(t, "2024-03-05", points[0].Date)
	require.NotNil(t, points[0].Value)
	assert.InDelta(t, 16.0, *points[0].Value, 0.001)
}

func TestCategoryDailyAverageUnknownCategory(t *testing.T) {
	pool, cleanup := setupSnapshotTestDB(t)
	defer cleanup()

	store := database.NewSnapshotStore(pool)
	from := at(t, "2024-03-01T00:00:00Z")
	to := at(t, "2024-03-07T00:00:00Z")

	points, err := store.CategoryDailyAverage(context.Background(), "no-such-category", "price", from, to)
	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestCategoryDailyAverageRejectsNonNumericField(t *testing.T) {
	pool, cleanup := setupSnapshotTestDB(t)
	defer cleanup()

	store := database.NewSnapshotStore(pool)
	from := at(t, "2024-03-01T00:00:00Z")
	to := at(t, "2024-03-07T00:00:00Z")

	_, err := store.CategoryDailyAverage(context.Background(), "widgets", "buybox_seller", from, to)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestDeleteSnapshotsBefore(t *testing.T) {
	pool, cleanup := setupSnapshotTestDB(t)
	defer cleanup()
	ctx := context.Background()

	productID, err := database.CreateProduct(ctx, pool, "B00INTTEST6", "Old Widget", "widgets")
	require.NoError(t, err)

	require.NoError(t, database.InsertSnapshot(ctx, pool, &database.Snapshot{
		ProductID: productID, CapturedAt: at(t, "2023-01-01T12:00:00Z"), Price: floatp(5.00),
	}))
	require.NoError(t, database.InsertSnapshot(ctx, pool, &database.Snapshot{
		ProductID: productID, CapturedAt: at(t, "2024-03-05T12:00:00Z"), Price: floatp(6.00),
	}))

	deleted, err := database.DeleteSnapshotsBefore(ctx, pool, at(t, "2024-01-01T00:00:00Z"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	store := database.NewSnapshotStore(pool)
	rows, err := store.DailySeries(ctx, productID,
		[]string{"price"}, at(t, "2023-01-01T00:00:00Z"), at(t, "2024-12-31T00:00:00Z"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2024-03-05", rows[0].Date)
}

// End-to-end through the engine: the Postgres source feeding the trend engine
// must respect the same sparse and tie-break semantics the unit tests pin.
func TestEngineOverPostgres(t *testing.T) {
	pool, cleanup := setupSnapshotTestDB(t)
	defer cleanup()
	ctx := context.Background()

	productID, err := database.CreateProduct(ctx, pool, "B00INTTEST7", "E2E Widget", "widgets")
	require.NoError(t, err)

	require.NoError(t, database.InsertSnapshot(ctx, pool, &database.Snapshot{
		ProductID: productID, CapturedAt: at(t, "2024-03-04T09:00:00Z"), Price: floatp(30.00), Rating: floatp(4.2),
	}))
	require.NoError(t, database.InsertSnapshot(ctx, pool, &database.Snapshot{
		ProductID: productID, CapturedAt: at(t, "2024-03-04T22:00:00Z"), Price: floatp(28.00), Rating: floatp(4.2),
	}))
	require.NoError(t, database.InsertSnapshot(ctx, pool, &database.Snapshot{
		ProductID: productID, CapturedAt: at(t, "2024-03-06T12:00:00Z"), Price: floatp(29.50), Rating: floatp(4.3),
	}))

	today := at(t, "2024-03-07T00:00:00Z")
	engine := trends.NewEngine(database.NewSnapshotStore(pool), trends.EngineConfig{
		Now: func() time.Time { return today },
	})

	result, err := engine.Trends(ctx, trends.TrendQuery{
		ProductID: productID,
		Fields:    []string{"price", "rating"},
		Days:      7,
	})
	require.NoError(t, err)

	require.Len(t, result.Data, 2)
	assert.Equal(t, result.TotalPoints, len(result.Data))
	assert.Equal(t, "2024-03-04", result.Data[0].Date())
	assert.Equal(t, 28.00, result.Data[0]["price"], "later same-day snapshot wins")
	assert.Equal(t, "2024-03-06", result.Data[1].Date())
}
