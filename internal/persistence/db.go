// Package persistence stores saved games in SQLite, with an optional S3
// copy of the latest snapshot.
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/main-street/internal/buildings"
	"github.com/talgya/main-street/internal/engine"
	"github.com/talgya/main-street/internal/tenants"
)

// ErrNoSnapshot is returned when no saved game exists.
var ErrNoSnapshot = errors.New("no saved game")

// Meta keys.
const (
	metaGame          = "game"
	metaSavedAt       = "saved_at"
	metaEventsThrough = "events_through"
)

// DB wraps a SQLite connection for saved games.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS buildings (
		id TEXT PRIMARY KEY,
		seq INTEGER NOT NULL,
		kind TEXT NOT NULL,
		category TEXT NOT NULL,
		street INTEGER NOT NULL,
		lot INTEGER NOT NULL,
		position REAL NOT NULL,
		accumulated_income REAL NOT NULL,
		data_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS applications (
		id TEXT PRIMARY KEY,
		seq INTEGER NOT NULL,
		building_id TEXT NOT NULL,
		name TEXT NOT NULL,
		job TEXT NOT NULL,
		credit_score INTEGER NOT NULL,
		rent_offer REAL NOT NULL,
		employment_months INTEGER NOT NULL,
		received_at REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		day INTEGER NOT NULL,
		minute REAL NOT NULL,
		sim_time TEXT NOT NULL,
		category TEXT NOT NULL,
		description TEXT NOT NULL,
		building_id TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS game_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_minute ON events(minute);
	CREATE INDEX IF NOT EXISTS idx_buildings_street ON buildings(street, lot);
	`
	_, err := db.conn.Exec(schema)
	return err
}

type buildingRow struct {
	ID       string `db:"id"`
	DataJSON string `db:"data_json"`
}

type applicationRow struct {
	ID               string  `db:"id"`
	BuildingID       string  `db:"building_id"`
	Name             string  `db:"name"`
	Job              string  `db:"job"`
	CreditScore      int     `db:"credit_score"`
	RentOffer        float64 `db:"rent_offer"`
	EmploymentMonths int     `db:"employment_months"`
	ReceivedAt       float64 `db:"received_at"`
}

type eventRow struct {
	Day         int     `db:"day"`
	Minute      float64 `db:"minute"`
	SimTime     string  `db:"sim_time"`
	Category    string  `db:"category"`
	Description string  `db:"description"`
	BuildingID  string  `db:"building_id"`
}

// SaveSnapshot writes a full game in one transaction, replacing the
// previous save. Buildings and applications get their own rows; the rest
// of the state is one JSON document in game_meta.
func (db *DB) SaveSnapshot(ctx context.Context, snap *engine.Snapshot) error {
	core := *snap
	core.Buildings = nil
	core.Mailbox = nil
	coreJSON, err := json.Marshal(core)
	if err != nil {
		return fmt.Errorf("encode game: %w", err)
	}

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM buildings"); err != nil {
		return err
	}
	stmt, err := tx.PreparexContext(ctx, `INSERT INTO buildings
		(id, seq, kind, category, street, lot, position, accumulated_income, data_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, b := range snap.Buildings {
		data, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("encode building %s: %w", b.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			b.ID, i, b.Kind.String(), b.Category.String(), b.Street, b.Lot, b.Position,
			b.CollectableIncome(), string(data),
		); err != nil {
			return fmt.Errorf("insert building %s: %w", b.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM applications"); err != nil {
		return err
	}
	for i, a := range snap.Mailbox {
		_, err := tx.ExecContext(ctx, `INSERT INTO applications
			(id, seq, building_id, name, job, credit_score, rent_offer, employment_months, received_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID, i, a.BuildingID, a.Name, a.Job, a.CreditScore, a.RentOffer, a.EmploymentMonths, a.ReceivedAt,
		)
		if err != nil {
			return fmt.Errorf("insert application %s: %w", a.ID, err)
		}
	}

	if err := setMeta(ctx, tx, metaGame, string(coreJSON)); err != nil {
		return err
	}
	if err := setMeta(ctx, tx, metaSavedAt, engine.SimTime(snap.Clock.Minutes)); err != nil {
		return err
	}
	return tx.Commit()
}

// LoadSnapshot reads the saved game. It returns ErrNoSnapshot when the
// database has never been saved to.
func (db *DB) LoadSnapshot(ctx context.Context) (*engine.Snapshot, error) {
	var coreJSON string
	err := db.conn.GetContext(ctx, &coreJSON, "SELECT value FROM game_meta WHERE key = ?", metaGame)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, err
	}

	snap := &engine.Snapshot{}
	if err := json.Unmarshal([]byte(coreJSON), snap); err != nil {
		return nil, fmt.Errorf("decode game: %w", err)
	}

	var rows []buildingRow
	if err := db.conn.SelectContext(ctx, &rows, "SELECT id, data_json FROM buildings ORDER BY seq"); err != nil {
		return nil, fmt.Errorf("load buildings: %w", err)
	}
	for _, r := range rows {
		b := &buildings.Building{}
		if err := json.Unmarshal([]byte(r.DataJSON), b); err != nil {
			return nil, fmt.Errorf("decode building %s: %w", r.ID, err)
		}
		snap.Buildings = append(snap.Buildings, b)
	}

	var apps []applicationRow
	if err := db.conn.SelectContext(ctx, &apps, `SELECT id, building_id, name, job, credit_score,
		rent_offer, employment_months, received_at FROM applications ORDER BY seq`); err != nil {
		return nil, fmt.Errorf("load applications: %w", err)
	}
	for _, a := range apps {
		snap.Mailbox = append(snap.Mailbox, tenants.Application{
			ID:               a.ID,
			BuildingID:       a.BuildingID,
			Name:             a.Name,
			Job:              a.Job,
			CreditScore:      a.CreditScore,
			RentOffer:        a.RentOffer,
			EmploymentMonths: a.EmploymentMonths,
			ReceivedAt:       a.ReceivedAt,
		})
	}

	slog.Info("saved game loaded", "buildings", len(snap.Buildings), "applications", len(snap.Mailbox),
		"time", engine.SimTime(snap.Clock.Minutes))
	return snap, nil
}

// HasSnapshot reports whether a saved game exists.
func (db *DB) HasSnapshot(ctx context.Context) bool {
	var n int
	err := db.conn.GetContext(ctx, &n, "SELECT COUNT(*) FROM game_meta WHERE key = ?", metaGame)
	return err == nil && n > 0
}

// SaveEvents appends the events newer than the last one saved.
func (db *DB) SaveEvents(ctx context.Context, events []engine.Event) (int, error) {
	through := -1.0
	if v, err := db.GetMeta(ctx, metaEventsThrough); err == nil {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			through = f
		}
	}

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	n := 0
	for _, e := range events {
		if e.Minute <= through {
			continue
		}
		_, err := tx.ExecContext(ctx,
			"INSERT INTO events (day, minute, sim_time, category, description, building_id) VALUES (?, ?, ?, ?, ?, ?)",
			e.Day, e.Minute, e.Time, e.Category, e.Description, e.BuildingID,
		)
		if err != nil {
			return 0, err
		}
		n++
	}
	if n == 0 {
		return 0, nil
	}
	last := events[len(events)-1].Minute
	if err := setMeta(ctx, tx, metaEventsThrough, strconv.FormatFloat(last, 'f', -1, 64)); err != nil {
		return 0, err
	}
	return n, tx.Commit()
}

// ClearEventCursor forgets which events were saved. Call it when a game
// is reset or restored, since the new clock may be behind the old cursor.
func (db *DB) ClearEventCursor(ctx context.Context) error {
	_, err := db.conn.ExecContext(ctx, "DELETE FROM game_meta WHERE key = ?", metaEventsThrough)
	return err
}

// RecentEvents returns the most recent N events, newest first.
func (db *DB) RecentEvents(ctx context.Context, limit int) ([]engine.Event, error) {
	var rows []eventRow
	err := db.conn.SelectContext(ctx, &rows,
		"SELECT day, minute, sim_time, category, description, building_id FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	out := make([]engine.Event, len(rows))
	for i, r := range rows {
		out[i] = engine.Event{
			Day:         r.Day,
			Minute:      r.Minute,
			Time:        r.SimTime,
			Category:    r.Category,
			Description: r.Description,
			BuildingID:  r.BuildingID,
		}
	}
	return out, nil
}

// SaveMeta stores a key-value pair in game metadata.
func (db *DB) SaveMeta(ctx context.Context, key, value string) error {
	return setMeta(ctx, db.conn, key, value)
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := db.conn.GetContext(ctx, &value, "SELECT value FROM game_meta WHERE key = ?", key)
	return value, err
}

func setMeta(ctx context.Context, ex sqlx.ExecerContext, key, value string) error {
	_, err := ex.ExecContext(ctx,
		"INSERT OR REPLACE INTO game_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}
