package queue

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"BankSentinel/internal/model"
)

// SQLiteQueue persists pending transactions to a SQLite database.
type SQLiteQueue struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteQueue opens (or creates) the queue database and runs migrations.
func NewSQLiteQueue(dbPath string) (*SQLiteQueue, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy_timeout: %w", err)
	}

	q := &SQLiteQueue{db: db}
	if err := q.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] pending queue opened: %s", dbPath)
	return q, nil
}

func (q *SQLiteQueue) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS pending_transactions (
			id          TEXT PRIMARY KEY,
			source      TEXT NOT NULL,
			type        TEXT NOT NULL,
			amount      REAL NOT NULL,
			description TEXT,
			raw_title   TEXT,
			raw_text    TEXT,
			bank_name   TEXT,
			rule_name   TEXT,
			timestamp   INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pending_ts ON pending_transactions(timestamp)`,
	}
	for _, s := range stmts {
		if _, err := q.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// Append writes a record to the pending store. Records without an ID get one
// assigned, so every persisted row is individually addressable.
func (q *SQLiteQueue) Append(rec *model.TransactionRecord) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	_, err := q.db.Exec(`INSERT INTO pending_transactions
		(id, source, type, amount, description, raw_title, raw_text, bank_name, rule_name, timestamp)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		rec.ID, rec.Source, string(rec.Type), rec.Amount, rec.Description,
		rec.RawTitle, rec.RawText, rec.BankName, rec.RuleName,
		rec.Timestamp.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("append pending: %w", err)
	}
	return nil
}

// Pending returns all queued records in insertion order.
func (q *SQLiteQueue) Pending() ([]*model.TransactionRecord, error) {
	rows, err := q.db.Query(`SELECT id, source, type, amount, description,
		raw_title, raw_text, bank_name, rule_name, timestamp
		FROM pending_transactions ORDER BY timestamp, id`)
	if err != nil {
		return nil, fmt.Errorf("query pending: %w", err)
	}
	defer rows.Close()

	var records []*model.TransactionRecord
	for rows.Next() {
		var rec model.TransactionRecord
		var txType string
		var ts int64
		if err := rows.Scan(&rec.ID, &rec.Source, &txType, &rec.Amount,
			&rec.Description, &rec.RawTitle, &rec.RawText,
			&rec.BankName, &rec.RuleName, &ts); err != nil {
			return nil, fmt.Errorf("scan pending: %w", err)
		}
		rec.Type = model.TransactionType(txType)
		rec.Timestamp = time.UnixMilli(ts)
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending: %w", err)
	}
	return records, nil
}

func (q *SQLiteQueue) Clear() (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	res, err := q.db.Exec(`DELETE FROM pending_transactions`)
	if err != nil {
		return 0, fmt.Errorf("clear pending: %w", err)
	}
	return res.RowsAffected()
}

func (q *SQLiteQueue) Close() error {
	log.Println("[INFO] closing pending queue")
	return q.db.Close()
}
