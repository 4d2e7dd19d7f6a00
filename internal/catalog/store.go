package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/Simplici0/koshtorys/internal/pricing"
)

var (
	ErrUnknownTable = eris.New("unknown price table")
	ErrFixedTable   = eris.New("price table does not accept new rows")
	ErrNotFound     = eris.New("catalog row not found")
	ErrDuplicate    = eris.New("catalog row already exists")
	ErrInvalidPrice = eris.New("price must not be negative")
	ErrInvalidRate  = eris.New("exchange rate must be positive")
	ErrInvalidName  = eris.New("invalid name")
)

// Table names a name-keyed flat price table.
type Table string

const (
	TableMetals      Table = "metals"
	TableWorkmanship Table = "workmanship"
	TableProfiles    Table = "profiles"
	TableEngravings  Table = "engravings"
	TableCoatings    Table = "coatings"
)

// Tables lists the flat price tables in admin display order.
var Tables = []Table{TableMetals, TableWorkmanship, TableProfiles, TableEngravings, TableCoatings}

var tableTitles = map[Table]string{
	TableMetals:      "Metals, per gram",
	TableWorkmanship: "Workmanship, per gram",
	TableProfiles:    "Profiles",
	TableEngravings:  "Engravings",
	TableCoatings:    "Coatings",
}

// ParseTable maps a raw table name onto the closed set of tables.
func ParseTable(raw string) (Table, error) {
	t := Table(strings.TrimSpace(raw))
	if _, ok := tableTitles[t]; !ok {
		return "", eris.Wrapf(ErrUnknownTable, "%q", raw)
	}
	return t, nil
}

// Title is the heading shown above the table in the admin editor.
func (t Table) Title() string { return tableTitles[t] }

// Extensible reports whether new names may be added. Metals and workmanship
// tiers are a fixed vocabulary.
func (t Table) Extensible() bool {
	return t == TableProfiles || t == TableEngravings || t == TableCoatings
}

// PriceRow is one row of a flat price table.
type PriceRow struct {
	Name  string
	Price decimal.Decimal
}

// StoneRow is one size row of the stone matrix, USD per piece.
type StoneRow struct {
	Size   pricing.StoneSize
	Prices map[pricing.StoneType]decimal.Decimal
}

// Settings is the settings singleton.
type Settings struct {
	ExchangeRate  decimal.Decimal
	Background    string
	RateUpdatedAt time.Time
}

// Background is a selectable page template stored under the assets dir.
type Background struct {
	Name string
	File string
}

// Store reads and edits the price catalog in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore wraps an open database that has been migrated.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Snapshot reads every price table and the exchange rate inside one
// transaction, so a quote never mixes two versions of the catalog.
func (s *Store) Snapshot(ctx context.Context) (pricing.Catalog, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return pricing.Catalog{}, eris.Wrap(err, "catalog: begin snapshot")
	}
	defer tx.Rollback()

	cat := pricing.Catalog{}
	targets := map[Table]*map[string]decimal.Decimal{
		TableMetals:      &cat.Metals,
		TableWorkmanship: &cat.Workmanship,
		TableProfiles:    &cat.Profiles,
		TableEngravings:  &cat.Engravings,
		TableCoatings:    &cat.Coatings,
	}
	for _, t := range Tables {
		rows, err := listPrices(ctx, tx, t)
		if err != nil {
			return pricing.Catalog{}, err
		}
		m := make(map[string]decimal.Decimal, len(rows))
		for _, r := range rows {
			m[r.Name] = r.Price
		}
		*targets[t] = m
	}

	stones, err := listStones(ctx, tx)
	if err != nil {
		return pricing.Catalog{}, err
	}
	cat.Stones = make(map[pricing.StoneKey]decimal.Decimal, len(stones)*len(pricing.StoneTypes))
	for _, row := range stones {
		for typ, price := range row.Prices {
			cat.Stones[pricing.StoneKey{Size: row.Size, Type: typ}] = price
		}
	}

	settings, err := readSettings(ctx, tx)
	if err != nil {
		return pricing.Catalog{}, err
	}
	cat.ExchangeRate = settings.ExchangeRate
	return cat, nil
}

// ListPrices returns the rows of t in insertion order.
func (s *Store) ListPrices(ctx context.Context, t Table) ([]PriceRow, error) {
	return listPrices(ctx, s.db, t)
}

func listPrices(ctx context.Context, q queryer, t Table) ([]PriceRow, error) {
	if _, ok := tableTitles[t]; !ok {
		return nil, eris.Wrapf(ErrUnknownTable, "%q", t)
	}
	rows, err := q.QueryContext(ctx, fmt.Sprintf(`SELECT name, price FROM %s ORDER BY rowid`, t))
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: list %s", t)
	}
	defer rows.Close()

	var out []PriceRow
	for rows.Next() {
		var r PriceRow
		if err := rows.Scan(&r.Name, &r.Price); err != nil {
			return nil, eris.Wrapf(err, "catalog: scan %s", t)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "catalog: iterate %s", t)
	}
	return out, nil
}

// UpdatePrice sets the price of an existing row.
func (s *Store) UpdatePrice(ctx context.Context, t Table, name string, price decimal.Decimal) error {
	if _, ok := tableTitles[t]; !ok {
		return eris.Wrapf(ErrUnknownTable, "%q", t)
	}
	if price.IsNegative() {
		return eris.Wrapf(ErrInvalidPrice, "%s %q: %s", t, name, price)
	}
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`UPDATE %s SET price = ? WHERE name = ?`, t), price.String(), name)
	if err != nil {
		return eris.Wrapf(err, "catalog: update %s %q", t, name)
	}
	return requireOneRow(res, t, name)
}

// AddItem appends a named row with a zero price to an extensible table.
func (s *Store) AddItem(ctx context.Context, t Table, name string) error {
	if _, ok := tableTitles[t]; !ok {
		return eris.Wrapf(ErrUnknownTable, "%q", t)
	}
	if !t.Extensible() {
		return eris.Wrapf(ErrFixedTable, "%s", t)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return eris.Wrap(ErrInvalidName, "name is empty")
	}
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`INSERT OR IGNORE INTO %s (name, price) VALUES (?, '0')`, t), name)
	if err != nil {
		return eris.Wrapf(err, "catalog: insert %s %q", t, name)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return eris.Wrapf(ErrDuplicate, "%s %q", t, name)
	}
	return nil
}

// ListStones returns the stone matrix ordered by size.
func (s *Store) ListStones(ctx context.Context) ([]StoneRow, error) {
	return listStones(ctx, s.db)
}

func listStones(ctx context.Context, q queryer) ([]StoneRow, error) {
	rows, err := q.QueryContext(ctx, `SELECT size, diamond, cvd, moissanite, zircon FROM stones ORDER BY CAST(size AS REAL)`)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: list stones")
	}
	defer rows.Close()

	var out []StoneRow
	for rows.Next() {
		var (
			size                             string
			diamond, cvd, moissanite, zircon decimal.Decimal
		)
		if err := rows.Scan(&size, &diamond, &cvd, &moissanite, &zircon); err != nil {
			return nil, eris.Wrap(err, "catalog: scan stones")
		}
		out = append(out, StoneRow{
			Size: pricing.StoneSize(size),
			Prices: map[pricing.StoneType]decimal.Decimal{
				pricing.StoneDiamond:    diamond,
				pricing.StoneCVD:        cvd,
				pricing.StoneMoissanite: moissanite,
				pricing.StoneZircon:     zircon,
			},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "catalog: iterate stones")
	}
	return out, nil
}

// UpdateStonePrice sets the USD price of one stone cell.
func (s *Store) UpdateStonePrice(ctx context.Context, size pricing.StoneSize, typ pricing.StoneType, usd decimal.Decimal) error {
	if _, err := pricing.ParseStoneSize(string(size)); err != nil {
		return err
	}
	if _, err := pricing.ParseStoneType(string(typ)); err != nil {
		return err
	}
	if usd.IsNegative() {
		return eris.Wrapf(ErrInvalidPrice, "stone %s %s: %s", typ, size, usd)
	}
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`UPDATE stones SET %s = ? WHERE size = ?`, typ), usd.String(), string(size))
	if err != nil {
		return eris.Wrapf(err, "catalog: update stone %s %s", typ, size)
	}
	return requireOneRow(res, "stones", string(size))
}

// Settings returns the settings singleton.
func (s *Store) Settings(ctx context.Context) (Settings, error) {
	return readSettings(ctx, s.db)
}

func readSettings(ctx context.Context, q queryer) (Settings, error) {
	var (
		out     Settings
		updated sql.NullString
	)
	err := q.QueryRowContext(ctx, `SELECT usd_rate, background_file, rate_updated_at FROM settings WHERE id = 1`).
		Scan(&out.ExchangeRate, &out.Background, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Settings{}, eris.Wrap(ErrNotFound, "settings")
	}
	if err != nil {
		return Settings{}, eris.Wrap(err, "catalog: read settings")
	}
	if updated.Valid {
		if ts, err := time.Parse(time.RFC3339, updated.String); err == nil {
			out.RateUpdatedAt = ts
		}
	}
	return out, nil
}

// SetExchangeRate stores the UAH per USD rate and stamps the update time.
func (s *Store) SetExchangeRate(ctx context.Context, rate decimal.Decimal) error {
	if !rate.IsPositive() {
		return eris.Wrapf(ErrInvalidRate, "%s", rate)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE settings SET usd_rate = ?, rate_updated_at = ? WHERE id = 1`,
		rate.String(), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return eris.Wrap(err, "catalog: update exchange rate")
	}
	return requireOneRow(res, "settings", "1")
}

// SetBackground selects the page template by file name.
func (s *Store) SetBackground(ctx context.Context, file string) error {
	if !plainFileName(file) {
		return eris.Wrapf(ErrInvalidName, "background %q", file)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE settings SET background_file = ? WHERE id = 1`, file)
	if err != nil {
		return eris.Wrap(err, "catalog: update background")
	}
	return requireOneRow(res, "settings", "1")
}

// Backgrounds lists the registered page templates.
func (s *Store) Backgrounds(ctx context.Context) ([]Background, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, file FROM backgrounds ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: list backgrounds")
	}
	defer rows.Close()

	var out []Background
	for rows.Next() {
		var b Background
		if err := rows.Scan(&b.Name, &b.File); err != nil {
			return nil, eris.Wrap(err, "catalog: scan background")
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "catalog: iterate backgrounds")
	}
	return out, nil
}

// AddBackground registers a template file. Re-registering a file renames it
// and re-using a name points it at the new file.
func (s *Store) AddBackground(ctx context.Context, name, file string) error {
	name = strings.TrimSpace(name)
	if name == "" || !plainFileName(file) {
		return eris.Wrapf(ErrInvalidName, "background %q (%q)", name, file)
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO backgrounds (name, file) VALUES (?, ?)
		ON CONFLICT(file) DO UPDATE SET name = excluded.name
		ON CONFLICT(name) DO UPDATE SET file = excluded.file
	`, name, file); err != nil {
		return eris.Wrapf(err, "catalog: insert background %q", name)
	}
	return nil
}

func plainFileName(file string) bool {
	return file != "" && file != "." && file != ".." && filepath.Base(file) == file
}

func requireOneRow(res sql.Result, table any, key string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrapf(err, "catalog: rows affected %v", table)
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%v %q", table, key)
	}
	return nil
}
