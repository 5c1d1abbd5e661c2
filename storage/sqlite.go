// Package storage persists pharmacies, shortage reports and alerts in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/giygas/medishortage-api/interfaces"
	"github.com/giygas/medishortage-api/logging"
	"github.com/giygas/medishortage-api/medicineparser/entities"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Compile-time checks to ensure SQLiteStore implements the store interfaces
var (
	_ interfaces.PharmacyDirectory = (*SQLiteStore)(nil)
	_ interfaces.InventoryStore    = (*SQLiteStore)(nil)
	_ interfaces.ReportStore       = (*SQLiteStore)(nil)
)

// ErrPharmacyNotFound is returned when an inventory update names an unknown pharmacy
var ErrPharmacyNotFound = errors.New("pharmacy not found")

var schema = []string{
	`CREATE TABLE IF NOT EXISTS pharmacies (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		address TEXT NOT NULL DEFAULT '',
		latitude REAL NOT NULL,
		longitude REAL NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS pharmacy_medicines (
		pharmacy_id INTEGER NOT NULL REFERENCES pharmacies(id) ON DELETE CASCADE,
		medicine_name TEXT NOT NULL COLLATE NOCASE,
		price REAL NOT NULL,
		manual INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (pharmacy_id, medicine_name)
	)`,
	`CREATE TABLE IF NOT EXISTS shortage_reports (
		id TEXT PRIMARY KEY,
		medicine_name TEXT NOT NULL COLLATE NOCASE,
		location_name TEXT NOT NULL COLLATE NOCASE,
		report_type TEXT NOT NULL,
		pharmacy_id INTEGER,
		reported_price REAL,
		expected_price REAL,
		description TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reports_lookup
		ON shortage_reports(medicine_name, location_name, created_at)`,
	`CREATE TABLE IF NOT EXISTS shortage_alerts (
		id TEXT PRIMARY KEY,
		medicine_name TEXT NOT NULL COLLATE NOCASE,
		location_name TEXT NOT NULL COLLATE NOCASE,
		alert_type TEXT NOT NULL,
		severity TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at INTEGER NOT NULL
	)`,
	// Keep the oldest active alert per pair so the unique index below can be built
	`UPDATE shortage_alerts SET is_active = 0
		WHERE is_active = 1 AND rowid NOT IN (
			SELECT MIN(rowid) FROM shortage_alerts WHERE is_active = 1
			GROUP BY medicine_name, location_name
		)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_alerts_active
		ON shortage_alerts(medicine_name, location_name) WHERE is_active = 1`,
}

type pharmacyRow struct {
	ID        int64   `db:"id"`
	Name      string  `db:"name"`
	Address   string  `db:"address"`
	Latitude  float64 `db:"latitude"`
	Longitude float64 `db:"longitude"`
}

type priceRow struct {
	PharmacyID   int64   `db:"pharmacy_id"`
	MedicineName string  `db:"medicine_name"`
	Price        float64 `db:"price"`
}

type alertRow struct {
	ID           string `db:"id"`
	MedicineName string `db:"medicine_name"`
	LocationName string `db:"location_name"`
	AlertType    string `db:"alert_type"`
	Severity     string `db:"severity"`
	Description  string `db:"description"`
	IsActive     bool   `db:"is_active"`
	CreatedAt    int64  `db:"created_at"`
}

// SQLiteStore is the sqlx backed store for pharmacies, reports and alerts
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) the database at path and applies the schema.
// ":memory:" gives a private in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("database path is required")
	}

	dsn := path
	if path != ":memory:" && !strings.Contains(path, "?") {
		dsn = path + "?_foreign_keys=on&_busy_timeout=5000"
	}

	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	// Each connection to :memory: is a separate database
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	logging.Info("SQLite store ready", "path", path)
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping checks the database connection
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SeedPharmacies upserts the given pharmacies and replaces their inventories.
// Prices set through UpsertInventory survive a reseed.
func (s *SQLiteStore) SeedPharmacies(ctx context.Context, pharmacies []entities.Pharmacy) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, p := range pharmacies {
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO pharmacies (id, name, address, latitude, longitude)
			VALUES (:id, :name, :address, :latitude, :longitude)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				address = excluded.address,
				latitude = excluded.latitude,
				longitude = excluded.longitude`,
			pharmacyRow{ID: p.ID, Name: p.Name, Address: p.Address, Latitude: p.Latitude, Longitude: p.Longitude})
		if err != nil {
			return fmt.Errorf("failed to upsert pharmacy %d: %w", p.ID, err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM pharmacy_medicines WHERE pharmacy_id = ? AND manual = 0`, p.ID); err != nil {
			return fmt.Errorf("failed to clear inventory of pharmacy %d: %w", p.ID, err)
		}

		for medicine, price := range p.MedicinePrices {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO pharmacy_medicines (pharmacy_id, medicine_name, price) VALUES (?, ?, ?)
				ON CONFLICT(pharmacy_id, medicine_name) DO NOTHING`,
				p.ID, strings.TrimSpace(medicine), price)
			if err != nil {
				return fmt.Errorf("failed to store price of %s for pharmacy %d: %w", medicine, p.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit pharmacies: %w", err)
	}

	logging.Info("Pharmacy directory seeded", "count", len(pharmacies))
	return nil
}

// ListPharmacies returns every pharmacy with its inventory, ordered by id
func (s *SQLiteStore) ListPharmacies(ctx context.Context) ([]entities.Pharmacy, error) {
	var rows []pharmacyRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT id, name, address, latitude, longitude FROM pharmacies ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to list pharmacies: %w", err)
	}

	var prices []priceRow
	if err := s.db.SelectContext(ctx, &prices,
		`SELECT pharmacy_id, medicine_name, price FROM pharmacy_medicines`); err != nil {
		return nil, fmt.Errorf("failed to list inventories: %w", err)
	}

	inventories := make(map[int64]map[string]float64, len(rows))
	for _, pr := range prices {
		inv, ok := inventories[pr.PharmacyID]
		if !ok {
			inv = make(map[string]float64)
			inventories[pr.PharmacyID] = inv
		}
		inv[pr.MedicineName] = pr.Price
	}

	pharmacies := make([]entities.Pharmacy, 0, len(rows))
	for _, r := range rows {
		inv := inventories[r.ID]
		if inv == nil {
			inv = map[string]float64{}
		}
		pharmacies = append(pharmacies, entities.Pharmacy{
			ID:             r.ID,
			Name:           r.Name,
			Address:        r.Address,
			Latitude:       r.Latitude,
			Longitude:      r.Longitude,
			MedicinePrices: inv,
		})
	}

	return pharmacies, nil
}

// UpsertInventory sets the price of medicine at the pharmacy, adding it to
// the inventory when missing. Names match case-insensitively and the price
// takes precedence over the directory file on later reseeds.
func (s *SQLiteStore) UpsertInventory(ctx context.Context, pharmacyID int64, medicine string, price float64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM pharmacies WHERE id = ?)`, pharmacyID); err != nil {
		return fmt.Errorf("failed to look up pharmacy %d: %w", pharmacyID, err)
	}
	if !exists {
		return fmt.Errorf("%w: %d", ErrPharmacyNotFound, pharmacyID)
	}

	medicine = strings.TrimSpace(medicine)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO pharmacy_medicines (pharmacy_id, medicine_name, price, manual) VALUES (?, ?, ?, 1)
		ON CONFLICT(pharmacy_id, medicine_name) DO UPDATE SET price = excluded.price, manual = 1`,
		pharmacyID, medicine, price)
	if err != nil {
		return fmt.Errorf("failed to store price of %s for pharmacy %d: %w", medicine, pharmacyID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit inventory update: %w", err)
	}

	logging.Info("Inventory updated", "pharmacy_id", pharmacyID, "medicine", medicine, "price", price)
	return nil
}

// SaveReport stores a shortage report
func (s *SQLiteStore) SaveReport(ctx context.Context, report entities.ShortageReport) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO shortage_reports
			(id, medicine_name, location_name, report_type, pharmacy_id,
			 reported_price, expected_price, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.ID, report.MedicineName, report.LocationName, report.ReportType,
		nullInt(report.PharmacyID), nullFloat(report.ReportedPrice), nullFloat(report.ExpectedPrice),
		report.Description, report.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// CountReports counts reports for a medicine/location pair created at or after since
func (s *SQLiteStore) CountReports(ctx context.Context, medicine, location string, since time.Time) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM shortage_reports
		WHERE medicine_name = ? AND location_name = ? AND created_at >= ?`,
		medicine, location, since.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to count reports: %w", err)
	}
	return count, nil
}

// HasActiveAlert reports whether an active alert exists for the pair
func (s *SQLiteStore) HasActiveAlert(ctx context.Context, medicine, location string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `
		SELECT EXISTS(
			SELECT 1 FROM shortage_alerts
			WHERE medicine_name = ? AND location_name = ? AND is_active = 1
		)`, medicine, location)
	if err != nil {
		return false, fmt.Errorf("failed to look up active alert: %w", err)
	}
	return exists, nil
}

// CreateAlert stores a new alert. created is false when an active alert
// already exists for the pair; at most one active alert per pair is kept.
func (s *SQLiteStore) CreateAlert(ctx context.Context, alert entities.ShortageAlert) (created bool, err error) {
	res, err := s.db.NamedExecContext(ctx, `
		INSERT INTO shortage_alerts
			(id, medicine_name, location_name, alert_type, severity, description, is_active, created_at)
		VALUES (:id, :medicine_name, :location_name, :alert_type, :severity, :description, :is_active, :created_at)
		ON CONFLICT DO NOTHING`,
		alertRow{
			ID:           alert.ID,
			MedicineName: alert.MedicineName,
			LocationName: alert.LocationName,
			AlertType:    alert.AlertType,
			Severity:     alert.Severity,
			Description:  alert.Description,
			IsActive:     alert.IsActive,
			CreatedAt:    alert.CreatedAt.UnixNano(),
		})
	if err != nil {
		return false, fmt.Errorf("failed to create alert: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to create alert: %w", err)
	}
	return n > 0, nil
}

// ListActiveAlerts returns active alerts, most severe first then newest first
func (s *SQLiteStore) ListActiveAlerts(ctx context.Context) ([]entities.ShortageAlert, error) {
	var rows []alertRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, medicine_name, location_name, alert_type, severity, description, is_active, created_at
		FROM shortage_alerts
		WHERE is_active = 1
		ORDER BY CASE severity
			WHEN 'critical' THEN 4
			WHEN 'high' THEN 3
			WHEN 'medium' THEN 2
			WHEN 'low' THEN 1
			ELSE 0 END DESC,
			created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}

	alerts := make([]entities.ShortageAlert, 0, len(rows))
	for _, r := range rows {
		alerts = append(alerts, entities.ShortageAlert{
			ID:           r.ID,
			MedicineName: r.MedicineName,
			LocationName: r.LocationName,
			AlertType:    r.AlertType,
			Severity:     r.Severity,
			Description:  r.Description,
			IsActive:     r.IsActive,
			CreatedAt:    time.Unix(0, r.CreatedAt).UTC(),
		})
	}
	return alerts, nil
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
