// Package ledger provides persistent implementations of the energy ledger.
package ledger

import (
	"database/sql"
	"time"

	core "github.com/kilianp07/fleetload/core/metrics/ledger"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists ledger records in a SQLite database, one row per
// agent and day.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS energy_ledger (
        agent_id TEXT,
        day INTEGER,
        consumed_kwh REAL,
        delivered_kwh REAL,
        PRIMARY KEY(agent_id, day)
    );`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Add inserts the record or accumulates it into the existing day row.
func (s *SQLiteStore) Add(r core.Record) error {
	d := core.Day(r.Date)
	_, err := s.db.Exec(`INSERT INTO energy_ledger (agent_id, day, consumed_kwh, delivered_kwh)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(agent_id, day) DO UPDATE SET
            consumed_kwh = consumed_kwh + excluded.consumed_kwh,
            delivered_kwh = delivered_kwh + excluded.delivered_kwh`,
		r.AgentID, d.Unix(), r.ConsumedKWh, r.DeliveredKWh)
	return err
}

// Query returns the records of one agent in the range [start,end].
func (s *SQLiteStore) Query(agentID string, start, end time.Time) ([]core.Record, error) {
	return s.query(`SELECT agent_id, day, consumed_kwh, delivered_kwh
        FROM energy_ledger WHERE agent_id = ? AND day >= ? AND day <= ? ORDER BY day`,
		agentID, core.Day(start).Unix(), core.Day(end).Unix())
}

// All returns every record ordered by day then agent id.
func (s *SQLiteStore) All() ([]core.Record, error) {
	return s.query(`SELECT agent_id, day, consumed_kwh, delivered_kwh
        FROM energy_ledger ORDER BY day, agent_id`)
}

func (s *SQLiteStore) query(q string, args ...any) ([]core.Record, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []core.Record
	for rows.Next() {
		var (
			id              string
			ts              int64
			cons, delivered float64
		)
		if err := rows.Scan(&id, &ts, &cons, &delivered); err != nil {
			return nil, err
		}
		res = append(res, core.Record{
			AgentID:      id,
			Date:         time.Unix(ts, 0).UTC(),
			ConsumedKWh:  cons,
			DeliveredKWh: delivered,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Reset removes every record.
func (s *SQLiteStore) Reset() error {
	_, err := s.db.Exec(`DELETE FROM energy_ledger`)
	return err
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
