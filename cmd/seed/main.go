// seed is a one-shot tool that loads a usable starting dataset: an admin user,
// a few categories, products, and customers. Safe to re-run; existing rows are
// left alone via ON CONFLICT guards.
//
// Usage: go run ./cmd/seed
package main

import (
	"context"
	"log"
	"os"

	"pos-ledger/internal/db"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer pool.Close()

	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		log.Fatal("SEED_ADMIN_PASSWORD is not set")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash admin password: %v", err)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	log.Println("Seeding admin user...")
	_, err = tx.Exec(ctx, `
		INSERT INTO users (username, full_name, password_hash, role)
		VALUES ('admin', 'Administrator', $1, 'admin')
		ON CONFLICT (username) DO NOTHING;
	`, string(hash))
	if err != nil {
		log.Fatalf("Failed to seed admin user: %v", err)
	}

	log.Println("Seeding categories...")
	_, err = tx.Exec(ctx, `
		INSERT INTO categories (name, description)
		SELECT v.name, v.description
		FROM (VALUES
		    ('Beverages',  'Drinks, juices, and water'),
		    ('Snacks',     'Packaged snacks and sweets'),
		    ('Household',  'Cleaning and household supplies'),
		    ('Groceries',  'Staple food items')
		) AS v(name, description)
		WHERE NOT EXISTS (SELECT 1 FROM categories c WHERE c.name = v.name);
	`)
	if err != nil {
		log.Fatalf("Failed to seed categories: %v", err)
	}

	log.Println("Seeding products...")
	_, err = tx.Exec(ctx, `
		INSERT INTO products (name, brand, category_id, price, stock_quantity, min_stock_alert)
		SELECT v.name, v.brand, c.id, v.price::numeric, v.stock, v.alert
		FROM (VALUES
		    ('Sparkling Water 600ml', 'AquaPura',  'Beverages', '1.50', 120, 20),
		    ('Orange Juice 1L',       'Citrico',   'Beverages', '3.25',  48, 10),
		    ('Potato Chips 150g',     'CrunchCo',  'Snacks',    '2.10',  80, 15),
		    ('Chocolate Bar 90g',     'CacaoBell', 'Snacks',    '1.80', 100, 15),
		    ('Dish Soap 500ml',       'Brillo',    'Household', '2.75',  40, 10),
		    ('Rice 1kg',              'CampoReal', 'Groceries', '2.40',  60, 12)
		) AS v(name, brand, category, price, stock, alert)
		JOIN categories c ON c.name = v.category
		WHERE NOT EXISTS (SELECT 1 FROM products p WHERE p.name = v.name);
	`)
	if err != nil {
		log.Fatalf("Failed to seed products: %v", err)
	}

	log.Println("Seeding customers...")
	_, err = tx.Exec(ctx, `
		INSERT INTO customers (full_name, phone)
		SELECT v.full_name, v.phone
		FROM (VALUES
		    ('Maria Lopez',  '555-0101'),
		    ('Jorge Ramirez','555-0102'),
		    ('Ana Torres',   '555-0103')
		) AS v(full_name, phone)
		WHERE NOT EXISTS (SELECT 1 FROM customers c WHERE c.full_name = v.full_name);
	`)
	if err != nil {
		log.Fatalf("Failed to seed customers: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("Failed to commit seed: %v", err)
	}
	log.Println("Seed complete.")
}
