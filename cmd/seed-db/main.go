// Command seed-db creates a demo account with a starter catalog. Running it
// again reuses the account and skips products whose code already exists.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/tiendita-pos/internal/domain/auth"
	"github.com/xenking/tiendita-pos/internal/domain/product"
	"github.com/xenking/tiendita-pos/internal/storage/postgres"
)

var demoProducts = []product.Product{
	{Code: "BEB001", Name: "Refresco de cola 600ml", Category: product.CategoryDrinks, Price: decimal.RequireFromString("18.00"), Stock: 48},
	{Code: "BEB002", Name: "Agua natural 1L", Category: product.CategoryDrinks, Price: decimal.RequireFromString("12.00"), Stock: 60},
	{Code: "BEB003", Name: "Café americano", Category: product.CategoryDrinks, Price: decimal.RequireFromString("25.00"), Stock: 100},
	{Code: "COM001", Name: "Torta de jamón", Category: product.CategoryFood, Price: decimal.RequireFromString("45.00"), Stock: 20},
	{Code: "COM002", Name: "Quesadilla", Category: product.CategoryFood, Price: decimal.RequireFromString("30.00"), Stock: 25},
	{Code: "COM003", Name: "Tacos al pastor (3)", Category: product.CategoryFood, Price: decimal.RequireFromString("55.00"), Stock: 30},
	{Code: "POS001", Name: "Flan napolitano", Category: product.CategoryDesserts, Price: decimal.RequireFromString("28.00"), Stock: 12},
	{Code: "POS002", Name: "Pay de queso", Category: product.CategoryDesserts, Price: decimal.RequireFromString("35.00"), Stock: 8},
	{Code: "OTR001", Name: "Bolsa reutilizable", Category: product.CategoryOther, Price: decimal.RequireFromString("10.00"), Stock: 0},
}

func main() {
	var (
		databaseURL  string
		email        string
		password     string
		businessName string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&email, "email", "demo@tiendita.local", "demo account email")
	flag.StringVar(&password, "password", "", "demo account password (or POS_SEED_PASSWORD env)")
	flag.StringVar(&businessName, "business-name", "Tiendita Demo", "demo business name")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if password == "" {
		password = os.Getenv("POS_SEED_PASSWORD")
	}
	if password == "" {
		slog.Error("password is required: set --password or POS_SEED_PASSWORD")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, auth.SignUpRequest{
		Email:        email,
		Password:     password,
		BusinessName: businessName,
	}); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL string, account auth.SignUpRequest) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	users := postgres.NewUserRepository(pool)
	userID, err := seedAccount(ctx, auth.NewService(users, users, nil), users, account)
	if err != nil {
		return errors.Wrap(err, "seed account")
	}

	if err := seedProducts(auth.WithUserID(ctx, userID), postgres.NewProductRepository(pool)); err != nil {
		return errors.Wrap(err, "seed products")
	}
	return nil
}

// seedAccount signs the demo account up, or reuses it when the email is
// already registered.
func seedAccount(ctx context.Context, svc *auth.Service, users auth.UserRepository, req auth.SignUpRequest) (string, error) {
	p, err := svc.SignUp(ctx, req)
	if err == nil {
		slog.Info("created account", slog.String("email", p.Email), slog.String("user_id", p.UserID))
		return p.UserID, nil
	}
	if !errors.Is(err, auth.ErrEmailTaken) {
		return "", err
	}

	u, err := users.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return "", errors.Wrap(err, "find existing account")
	}
	slog.Info("reusing account", slog.String("email", u.Email), slog.String("user_id", u.ID))
	return u.ID, nil
}

func seedProducts(ctx context.Context, repo product.Repository) error {
	current, err := repo.List(ctx)
	if err != nil {
		return errors.Wrap(err, "list products")
	}
	have := make(map[string]bool, len(current))
	for _, p := range current {
		have[p.Code] = true
	}

	for _, p := range demoProducts {
		if have[p.Code] {
			slog.Info("product exists", slog.String("code", p.Code))
			continue
		}
		if _, err := repo.Create(ctx, p); err != nil {
			return errors.Wrapf(err, "create product %s", p.Code)
		}
		slog.Info("created product", slog.String("code", p.Code), slog.String("name", p.Name))
	}
	return nil
}
