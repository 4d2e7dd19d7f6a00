package seed

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/alexedwards/argon2id"

	"github.com/Simplici0/koshtorys/internal/db"
	"github.com/Simplici0/koshtorys/internal/migrations"
)

func TestRunIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "seed-test.db")
	database, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	defer database.Close()

	if err := migrations.Up(database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	cfg := Config{
		AdminEmail:    "admin@koshtorys.test",
		AdminPassword: "12345",
	}

	// admin + 5 metals + 3 tiers + 21 sizes + 2+2+2 optional rows + settings + background
	const firstRunInserts = 38
	for i := 0; i < 10; i++ {
		stats, err := Run(database, cfg)
		if err != nil {
			t.Fatalf("run seed (iteration=%d): %v", i, err)
		}
		if i == 0 {
			if stats.Inserts != firstRunInserts {
				t.Fatalf("expected %d inserts in first run, got %d", firstRunInserts, stats.Inserts)
			}
			continue
		}
		if stats.Inserts != 0 || stats.Updates != 0 {
			t.Fatalf("expected no changes in iteration %d, got %+v", i, stats)
		}
	}

	assertCount(t, database, `SELECT COUNT(*) FROM users WHERE email = ?`, "admin@koshtorys.test", 1)
	assertCount(t, database, `SELECT COUNT(*) FROM metals`, nil, 5)
	assertCount(t, database, `SELECT COUNT(*) FROM workmanship WHERE name = ?`, "premium_plus", 1)
	assertCount(t, database, `SELECT COUNT(*) FROM stones`, nil, 21)
	assertCount(t, database, `SELECT COUNT(*) FROM coatings WHERE name IN (?, ?)`, []any{"Rhodium", "Ruthenium"}, 2)
	assertCount(t, database, `SELECT COUNT(*) FROM settings WHERE id = 1 AND usd_rate = '40'`, nil, 1)
	assertCount(t, database, `SELECT COUNT(*) FROM backgrounds WHERE file = ?`, "background.png", 1)

	var hash string
	if err := database.QueryRow(`SELECT password_hash FROM users WHERE email = ?`, "admin@koshtorys.test").Scan(&hash); err != nil {
		t.Fatalf("query admin hash: %v", err)
	}
	ok, err := argon2id.ComparePasswordAndHash("12345", hash)
	if err != nil || !ok {
		t.Fatalf("expected admin hash to match password (err=%v)", err)
	}
}

func TestRunKeepsEditedPrices(t *testing.T) {
	database, err := db.Open(filepath.Join(t.TempDir(), "seed-prices.db"))
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	defer database.Close()
	if err := migrations.Up(database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	if _, err := Run(database, Config{}); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if _, err := database.Exec(`UPDATE metals SET price = '2150.5' WHERE name = 'Gold 585'`); err != nil {
		t.Fatalf("edit price: %v", err)
	}
	if _, err := database.Exec(`UPDATE settings SET background_file = '' WHERE id = 1`); err != nil {
		t.Fatalf("blank background: %v", err)
	}

	stats, err := Run(database, Config{})
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if stats.Updates != 1 {
		t.Fatalf("expected the blank background to be repaired, got %+v", stats)
	}
	assertCount(t, database, `SELECT COUNT(*) FROM metals WHERE name = 'Gold 585' AND price = '2150.5'`, nil, 1)
	assertCount(t, database, `SELECT COUNT(*) FROM users`, nil, 0)
}

func assertCount(t *testing.T, database *sql.DB, query string, args any, expected int) {
	t.Helper()

	var count int
	var err error
	switch v := args.(type) {
	case nil:
		err = database.QueryRow(query).Scan(&count)
	case []any:
		err = database.QueryRow(query, v...).Scan(&count)
	default:
		err = database.QueryRow(query, v).Scan(&count)
	}
	if err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != expected {
		t.Fatalf("expected count %d, got %d", expected, count)
	}
}
