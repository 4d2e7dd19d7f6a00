package seed

import (
	"database/sql"
	"fmt"

	"github.com/alexedwards/argon2id"
	"github.com/rotisserie/eris"

	"github.com/Simplici0/koshtorys/internal/pricing"
	"github.com/Simplici0/koshtorys/internal/render"
)

const (
	defaultExchangeRate   = "40"
	defaultBackgroundName = "Default"
)

// Fixed vocabularies. Only the optional tables can grow from the admin editor.
var (
	Metals            = []string{"Silver 925", "Gold 375", "Gold 585", "Gold 750", "Platinum 950"}
	WorkmanshipTiers  = []string{"platinum", "premium", "premium_plus"}
	DefaultProfiles   = []string{"Comfort fit", "Standard"}
	DefaultEngravings = []string{"Simple", "Complex"}
	DefaultCoatings   = []string{"Rhodium", "Ruthenium"}
)

// Config contains the values required by startup seed.
type Config struct {
	AdminEmail    string
	AdminPassword string
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Updates int
}

// Run executes the startup seed in an idempotent way. Existing prices are
// never touched; only missing rows are inserted.
func Run(db *sql.DB, cfg Config) (Stats, error) {
	tx, err := db.Begin()
	if err != nil {
		return Stats{}, eris.Wrap(err, "begin seed transaction")
	}

	stats := Stats{}
	steps := []func(*sql.Tx, *Stats) error{
		func(tx *sql.Tx, st *Stats) error { return seedAdmin(tx, cfg.AdminEmail, cfg.AdminPassword, st) },
		func(tx *sql.Tx, st *Stats) error { return ensureNames(tx, "metals", Metals, st) },
		func(tx *sql.Tx, st *Stats) error { return ensureNames(tx, "workmanship", WorkmanshipTiers, st) },
		ensureStones,
		func(tx *sql.Tx, st *Stats) error { return ensureNames(tx, "profiles", DefaultProfiles, st) },
		func(tx *sql.Tx, st *Stats) error { return ensureNames(tx, "engravings", DefaultEngravings, st) },
		func(tx *sql.Tx, st *Stats) error { return ensureNames(tx, "coatings", DefaultCoatings, st) },
		ensureSettings,
		ensureDefaultBackground,
	}
	for _, step := range steps {
		if err := step(tx, &stats); err != nil {
			_ = tx.Rollback()
			return Stats{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, eris.Wrap(err, "commit seed transaction")
	}

	return stats, nil
}

func seedAdmin(tx *sql.Tx, email, password string, stats *Stats) error {
	if email == "" || password == "" {
		return nil
	}

	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM users WHERE email = ? LIMIT 1)`, email).Scan(&exists); err != nil {
		return eris.Wrap(err, "check admin user existence")
	}
	if exists {
		return nil
	}

	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return eris.Wrap(err, "hash admin password")
	}

	if _, err := tx.Exec(`INSERT INTO users (email, password_hash) VALUES (?, ?)`, email, hash); err != nil {
		return eris.Wrap(err, "insert admin user")
	}
	stats.Inserts++
	return nil
}

// ensureNames inserts missing names with a zero price. table is one of the
// fixed catalog table names.
func ensureNames(tx *sql.Tx, table string, names []string, stats *Stats) error {
	insert := fmt.Sprintf(`INSERT OR IGNORE INTO %s (name, price) VALUES (?, '0')`, table)
	for _, name := range names {
		res, err := tx.Exec(insert, name)
		if err != nil {
			return eris.Wrapf(err, "insert %s %q", table, name)
		}
		if n, err := res.RowsAffected(); err == nil {
			stats.Inserts += int(n)
		}
	}
	return nil
}

func ensureStones(tx *sql.Tx, stats *Stats) error {
	for _, size := range pricing.StoneSizes {
		res, err := tx.Exec(`INSERT OR IGNORE INTO stones (size) VALUES (?)`, string(size))
		if err != nil {
			return eris.Wrapf(err, "insert stone size %s", size)
		}
		if n, err := res.RowsAffected(); err == nil {
			stats.Inserts += int(n)
		}
	}
	return nil
}

func ensureSettings(tx *sql.Tx, stats *Stats) error {
	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM settings WHERE id = 1)`).Scan(&exists); err != nil {
		return eris.Wrap(err, "check settings existence")
	}
	if !exists {
		if _, err := tx.Exec(`INSERT INTO settings (id, usd_rate, background_file) VALUES (1, ?, ?)`,
			defaultExchangeRate, render.DefaultBackground); err != nil {
			return eris.Wrap(err, "insert settings singleton")
		}
		stats.Inserts++
		return nil
	}

	res, err := tx.Exec(`UPDATE settings SET background_file = ? WHERE id = 1 AND (background_file IS NULL OR background_file = '')`,
		render.DefaultBackground)
	if err != nil {
		return eris.Wrap(err, "repair settings background")
	}
	if n, err := res.RowsAffected(); err == nil {
		stats.Updates += int(n)
	}
	return nil
}

func ensureDefaultBackground(tx *sql.Tx, stats *Stats) error {
	res, err := tx.Exec(`INSERT OR IGNORE INTO backgrounds (name, file) VALUES (?, ?)`, defaultBackgroundName, render.DefaultBackground)
	if err != nil {
		return eris.Wrap(err, "insert default background")
	}
	if n, err := res.RowsAffected(); err == nil {
		stats.Inserts += int(n)
	}
	return nil
}
