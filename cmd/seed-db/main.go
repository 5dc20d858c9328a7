package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/freshbowl/internal/repository"
)

type variantJSON struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type productJSON struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Price     decimal.Decimal `json:"price"`
	Available bool            `json:"available"`
	Variants  []variantJSON   `json:"variants"`
}

const (
	upsertProductSQL = `INSERT INTO products (id, name, category, price, available)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			category = EXCLUDED.category,
			price = EXCLUDED.price,
			available = EXCLUDED.available`

	upsertVariantSQL = `INSERT INTO product_variants (id, product_id, name, price)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			price = EXCLUDED.price`

	upsertCouponSQL = `INSERT INTO coupons (code, percentage, fixed, max_uses, active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (code) DO UPDATE SET
			percentage = EXCLUDED.percentage,
			fixed = EXCLUDED.fixed,
			max_uses = EXCLUDED.max_uses,
			active = EXCLUDED.active`

	upsertAddressSQL = `INSERT INTO addresses (id, customer_id, street, city, region, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			street = EXCLUDED.street,
			city = EXCLUDED.city,
			region = EXCLUDED.region,
			notes = EXCLUDED.notes`

	upsertAPIKeySQL = `INSERT INTO api_keys (id, key_hash, name, scopes, active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			key_hash = EXCLUDED.key_hash,
			name = EXCLUDED.name,
			scopes = EXCLUDED.scopes,
			active = EXCLUDED.active`
)

func main() {
	var (
		databaseURL  string
		productsFile string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&apiKey, "api-key", "", "operations API key to seed (or BOWL_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or BOWL_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("BOWL_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or BOWL_SEED_API_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("BOWL_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, apiKey, pepper string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, pool, productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if err := seedCoupons(ctx, pool); err != nil {
		return errors.Wrap(err, "seed coupons")
	}

	if err := seedAddresses(ctx, pool); err != nil {
		return errors.Wrap(err, "seed addresses")
	}

	if err := seedAPIKey(ctx, pool, apiKey, pepper); err != nil {
		return errors.Wrap(err, "seed api key")
	}

	return nil
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	for _, p := range products {
		if _, err := pool.Exec(ctx, upsertProductSQL,
			p.ID, p.Name, p.Category, p.Price, p.Available,
		); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}

		for _, v := range p.Variants {
			if _, err := pool.Exec(ctx, upsertVariantSQL,
				v.ID, p.ID, v.Name, v.Price,
			); err != nil {
				return errors.Wrapf(err, "upsert variant %s of product %s", v.ID, p.ID)
			}
		}

		slog.Info("upserted product",
			slog.String("id", p.ID),
			slog.String("name", p.Name),
			slog.Int("variants", len(p.Variants)),
		)
	}

	return nil
}

type seedCoupon struct {
	code       string
	percentage decimal.Decimal
	fixed      decimal.Decimal
	maxUses    int
}

func seedCoupons(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding launch coupons")

	coupons := []seedCoupon{
		{code: "WELCOME10", percentage: decimal.NewFromInt(10), fixed: decimal.Zero, maxUses: 0},
		{code: "LUNCH15", percentage: decimal.NewFromInt(15), fixed: decimal.Zero, maxUses: 0},
		{code: "FIVER", percentage: decimal.Zero, fixed: decimal.NewFromInt(5), maxUses: 500},
	}

	for _, c := range coupons {
		if _, err := pool.Exec(ctx, upsertCouponSQL,
			c.code, c.percentage, c.fixed, c.maxUses, true,
		); err != nil {
			return errors.Wrapf(err, "upsert coupon %s", c.code)
		}

		slog.Info("upserted coupon", slog.String("code", c.code))
	}

	return nil
}

type seedAddress struct {
	id, customerID, street, city, region, notes string
}

func seedAddresses(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding demo addresses")

	addresses := []seedAddress{
		{id: "addr-demo-1", customerID: "demo-customer", street: "742 Evergreen Terrace", city: "Springfield", region: "OR", notes: "ring twice"},
		{id: "addr-demo-2", customerID: "demo-customer", street: "1200 Market St, Suite 400", city: "Portland", region: "OR", notes: "office, front desk"},
	}

	for _, a := range addresses {
		if _, err := pool.Exec(ctx, upsertAddressSQL,
			a.id, a.customerID, a.street, a.city, a.region, a.notes,
		); err != nil {
			return errors.Wrapf(err, "upsert address %s", a.id)
		}
	}

	slog.Info("upserted addresses", slog.Int("count", len(addresses)))

	return nil
}

func seedAPIKey(ctx context.Context, pool *pgxpool.Pool, apiKey, pepper string) error {
	slog.Info("seeding operations API key")

	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(apiKey))
	keyHash := hex.EncodeToString(mac.Sum(nil))

	if _, err := pool.Exec(ctx, upsertAPIKeySQL,
		"default", keyHash, "Default operations key", []string{"operations"}, true,
	); err != nil {
		return errors.Wrap(err, "upsert default API key")
	}

	slog.Info("upserted API key", slog.String("id", "default"))

	return nil
}
