package repository_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"shop-service/internal/database"
	"shop-service/internal/models"
	"shop-service/internal/repository"
	"shop-service/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// openPostgres connects to TEST_DATABASE_URL, migrates and empties the schema.
func openPostgres(t *testing.T) *repository.PgStore {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, database.Migrate(ctx, pool, logger))

	_, err = pool.Exec(ctx, `TRUNCATE operations, order_items, orders, cart_items, products, categories, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	return repository.NewPgStore(pool, 5*time.Second)
}

func seedProduct(t *testing.T, store repository.Store, stock int) *models.Product {
	t.Helper()
	ctx := context.Background()
	c := &models.Category{Name: "Tools"}
	require.NoError(t, store.Categories().Create(ctx, c))
	p := &models.Product{Name: "Hammer", Price: decimal.RequireFromString("15.50"), Stock: stock, CategoryID: c.CategoryID}
	require.NoError(t, store.Products().Create(ctx, p))
	return p
}

func seedUser(t *testing.T, store repository.Store, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, Name: "Buyer", PasswordHash: "x"}
	require.NoError(t, store.Users().Create(context.Background(), u))
	return u
}

func TestPostgresCheckoutAndCancel(t *testing.T) {
	store := openPostgres(t)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	p := seedProduct(t, store, 5)
	u := seedUser(t, store, "buyer@example.com")

	carts := service.NewCartManager(store, logger)
	orders := service.NewOrderEngine(store, nil, logger)

	_, err := carts.AddItem(ctx, u.UserID, p.ProductID, 2)
	require.NoError(t, err)
	_, err = carts.AddItem(ctx, u.UserID, p.ProductID, 1)
	require.NoError(t, err)

	placed, err := orders.CreateOrder(ctx, u.UserID, "1 Main St")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("46.50").Equal(placed.TotalAmount))

	got, err := store.Products().GetByID(ctx, p.ProductID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Stock)

	snap, err := store.Carts().Snapshot(ctx, u.UserID)
	require.NoError(t, err)
	assert.True(t, snap.Empty())

	order, err := orders.CancelOrder(ctx, u.UserID, placed.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, order.Status)

	got, err = store.Products().GetByID(ctx, p.ProductID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Stock)

	ops, err := store.Operations().GetByOrderID(ctx, placed.OrderID)
	require.NoError(t, err)
	assert.Len(t, ops, 2)
}

func TestPostgresConcurrentLastUnit(t *testing.T) {
	store := openPostgres(t)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	p := seedProduct(t, store, 1)
	carts := service.NewCartManager(store, logger)
	orders := service.NewOrderEngine(store, nil, logger)

	const buyers = 8
	users := make([]int64, 0, buyers)
	for i := range buyers {
		u := seedUser(t, store, "buyer"+string(rune('a'+i))+"@example.com")
		_, err := carts.AddItem(ctx, u.UserID, p.ProductID, 1)
		require.NoError(t, err)
		users = append(users, u.UserID)
	}

	var (
		g      errgroup.Group
		placed atomic.Int32
	)
	for _, id := range users {
		g.Go(func() error {
			_, err := orders.CreateOrder(ctx, id, "1 Main St")
			switch {
			case err == nil:
				placed.Add(1)
			case errors.Is(err, repository.ErrNotEnough), errors.Is(err, repository.ErrConflict):
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), placed.Load())
	got, err := store.Products().GetByID(ctx, p.ProductID)
	require.NoError(t, err)
	assert.Zero(t, got.Stock)
}
