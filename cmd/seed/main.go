// Command seed loads demo categories, products and a demo user into the
// configured Postgres database. Running it twice is harmless.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"time"

	"shop-service/internal/auth"
	"shop-service/internal/config"
	"shop-service/internal/database"
	"shop-service/internal/models"
	"shop-service/internal/repository"
	"shop-service/internal/service"

	"github.com/shopspring/decimal"
)

type seedProduct struct {
	name        string
	description string
	price       string
	stock       int
}

var catalog = map[string][]seedProduct{
	"Books": {
		{"The Go Programming Language", "Donovan & Kernighan", "39.90", 25},
		{"Concurrency in Go", "Katherine Cox-Buday", "34.50", 12},
	},
	"Electronics": {
		{"Mechanical Keyboard", "87 keys, brown switches", "89.00", 8},
		{"USB-C Hub", "7-in-1 adapter", "29.99", 40},
	},
	"Home": {
		{"Coffee Grinder", "Conical burr", "59.00", 5},
	},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatal("failed to connect database: ", err)
	}
	store := repository.NewPgStore(pool, cfg.TxTimeout)
	defer store.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		log.Fatal("migrations failed: ", err)
	}

	cat := service.NewCatalog(store, nil, logger)
	accounts := service.NewAccounts(store, auth.NewManager(cfg.JWTSecret, cfg.JWTTTL), logger)

	existing, err := cat.ListCategories(ctx)
	if err != nil {
		log.Fatal("failed to list categories: ", err)
	}
	byName := make(map[string]int64, len(existing))
	for _, c := range existing {
		byName[c.Name] = c.CategoryID
	}

	for name, products := range catalog {
		id, ok := byName[name]
		if ok {
			fmt.Printf("category %q already present, skipping\n", name)
			continue
		}

		category, err := cat.CreateCategory(ctx, name)
		if err != nil {
			log.Fatal("failed to create category: ", err)
		}
		id = category.CategoryID
		fmt.Printf("created category %q (id %d)\n", name, id)

		for _, sp := range products {
			p := &models.Product{
				Name:        sp.name,
				Description: sp.description,
				Price:       decimal.RequireFromString(sp.price),
				Stock:       sp.stock,
				CategoryID:  id,
			}
			if err := cat.CreateProduct(ctx, p); err != nil {
				log.Fatal("failed to create product: ", err)
			}
			fmt.Printf("  created product %q (id %d, stock %d)\n", p.Name, p.ProductID, p.Stock)
		}
	}

	user, err := accounts.Register(ctx, service.Registration{
		Email:    "demo@example.com",
		Name:     "Demo User",
		Password: "demo-password",
	})
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		fmt.Println("demo user already present")
	case err != nil:
		log.Fatal("failed to create demo user: ", err)
	default:
		fmt.Printf("created demo user %s (id %d)\n", user.Email, user.UserID)
	}
}
