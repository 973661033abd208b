package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultPath returns "<home>/.tap/tap-node.db", the default database
// location referenced by §6.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("store: resolving home directory: %w", err)
	}
	return filepath.Join(home, ".tap", "tap-node.db"), nil
}

// migrations are forward-only and idempotent on re-application, per §6.
// Each entry's index+1 is its migration number.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS transactions (
		transaction_id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		status TEXT NOT NULL,
		initiator_did TEXT NOT NULL,
		body TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		settlement_id TEXT,
		state TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		transaction_id TEXT NOT NULL REFERENCES transactions(transaction_id),
		direction TEXT NOT NULL,
		type TEXT NOT NULL,
		envelope TEXT NOT NULL,
		created_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS deliveries (
		id TEXT PRIMARY KEY,
		message_id TEXT NOT NULL,
		recipient_did TEXT NOT NULL,
		delivery_url TEXT NOT NULL,
		status TEXT NOT NULL,
		retry_count INTEGER NOT NULL DEFAULT 0,
		last_http_status INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		delivered_at INTEGER
	)`,
	`CREATE INDEX IF NOT EXISTS idx_deliveries_status ON deliveries(status, retry_count)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_transaction ON messages(transaction_id)`,
}

// SQLiteStore is the §6 default Store: a single SQLite file behind one
// connection (SetMaxOpenConns(1)), so reads and writes alike run one at a
// time; there is no separate pool of concurrent readers.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and
// applies every migration in order. An empty path uses DefaultPath.
func Open(path string) (*SQLiteStore, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("store: creating %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: opening %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite: a single writer; §5.

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	for i, stmt := range migrations {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("store: migration %d: %w", i+1, err)
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) PutTransaction(tx *Transaction) error {
	_, err := s.db.Exec(
		`INSERT INTO transactions (transaction_id, type, status, initiator_did, body, created_at, updated_at, settlement_id, state)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.TransactionID, tx.Type, tx.Status, tx.InitiatorDID, string(tx.Body),
		tx.CreatedAt.Unix(), tx.UpdatedAt.Unix(), tx.SettlementID, nullString(tx.State),
	)
	if err != nil {
		return newErr(ErrStorage, "inserting transaction %s: %v", tx.TransactionID, err)
	}
	return nil
}

func (s *SQLiteStore) GetTransaction(id string) (*Transaction, error) {
	row := s.db.QueryRow(
		`SELECT transaction_id, type, status, initiator_did, body, created_at, updated_at, settlement_id, state
		 FROM transactions WHERE transaction_id = ?`, id,
	)
	return scanTransaction(row)
}

func scanTransaction(row *sql.Row) (*Transaction, error) {
	var tx Transaction
	var body string
	var createdAt, updatedAt int64
	var settlementID, state sql.NullString
	err := row.Scan(&tx.TransactionID, &tx.Type, &tx.Status, &tx.InitiatorDID, &body, &createdAt, &updatedAt, &settlementID, &state)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, newErr(ErrStorage, "scanning transaction: %v", err)
	}
	tx.Body = []byte(body)
	tx.CreatedAt = time.Unix(createdAt, 0).UTC()
	tx.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	tx.SettlementID = settlementID.String
	tx.State = []byte(state.String)
	return &tx, nil
}

// UpdateTransaction applies an optimistic compare-and-swap on updated_at,
// guarding per-transaction_id write ordering without an in-process lock
// (§5). Zero rows affected means a concurrent writer already moved the
// row; the caller should reload and retry.
func (s *SQLiteStore) UpdateTransaction(tx *Transaction, prevUpdatedAt time.Time) error {
	res, err := s.db.Exec(
		`UPDATE transactions SET status = ?, body = ?, updated_at = ?, settlement_id = ?, state = ?
		 WHERE transaction_id = ? AND updated_at = ?`,
		tx.Status, string(tx.Body), tx.UpdatedAt.Unix(), tx.SettlementID, nullString(tx.State),
		tx.TransactionID, prevUpdatedAt.Unix(),
	)
	if err != nil {
		return newErr(ErrStorage, "updating transaction %s: %v", tx.TransactionID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return newErr(ErrStorage, "updating transaction %s: %v", tx.TransactionID, err)
	}
	if n == 0 {
		return newErr(ErrStorage, "transaction %s: concurrent write detected", tx.TransactionID)
	}
	return nil
}

func (s *SQLiteStore) ListTransactions() ([]*Transaction, error) {
	rows, err := s.db.Query(
		`SELECT transaction_id, type, status, initiator_did, body, created_at, updated_at, settlement_id, state
		 FROM transactions ORDER BY updated_at DESC`,
	)
	if err != nil {
		return nil, newErr(ErrStorage, "listing transactions: %v", err)
	}
	defer rows.Close()

	var out []*Transaction
	for rows.Next() {
		var tx Transaction
		var body string
		var createdAt, updatedAt int64
		var settlementID, state sql.NullString
		if err := rows.Scan(&tx.TransactionID, &tx.Type, &tx.Status, &tx.InitiatorDID, &body, &createdAt, &updatedAt, &settlementID, &state); err != nil {
			return nil, newErr(ErrStorage, "scanning transaction row: %v", err)
		}
		tx.Body = []byte(body)
		tx.CreatedAt = time.Unix(createdAt, 0).UTC()
		tx.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		tx.SettlementID = settlementID.String
		tx.State = []byte(state.String)
		out = append(out, &tx)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) PutMessage(msg *Message) error {
	_, err := s.db.Exec(
		`INSERT INTO messages (id, transaction_id, direction, type, envelope, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.TransactionID, string(msg.Direction), msg.Type, string(msg.Envelope), msg.CreatedAt.Unix(),
	)
	if err != nil {
		return newErr(ErrStorage, "inserting message %s: %v", msg.ID, err)
	}
	return nil
}

func (s *SQLiteStore) GetMessage(id string) (*Message, error) {
	row := s.db.QueryRow(
		`SELECT id, transaction_id, direction, type, envelope, created_at FROM messages WHERE id = ?`, id,
	)
	var msg Message
	var direction, envelope string
	var createdAt int64
	err := row.Scan(&msg.ID, &msg.TransactionID, &direction, &msg.Type, &envelope, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, newErr(ErrStorage, "scanning message %s: %v", id, err)
	}
	msg.Direction = Direction(direction)
	msg.Envelope = []byte(envelope)
	msg.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &msg, nil
}

func (s *SQLiteStore) PutDelivery(d *Delivery) error {
	_, err := s.db.Exec(
		`INSERT INTO deliveries (id, message_id, recipient_did, delivery_url, status, retry_count, last_http_status, error, created_at, updated_at, delivered_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.MessageID, d.RecipientDID, d.DeliveryURL, string(d.Status), d.RetryCount, d.LastHTTPStatus, d.Error,
		d.CreatedAt.Unix(), d.UpdatedAt.Unix(), nullTime(d.DeliveredAt),
	)
	if err != nil {
		return newErr(ErrStorage, "inserting delivery %s: %v", d.ID, err)
	}
	return nil
}

func (s *SQLiteStore) UpdateDelivery(d *Delivery) error {
	_, err := s.db.Exec(
		`UPDATE deliveries SET status = ?, retry_count = ?, last_http_status = ?, error = ?, updated_at = ?, delivered_at = ?
		 WHERE id = ?`,
		string(d.Status), d.RetryCount, d.LastHTTPStatus, d.Error, d.UpdatedAt.Unix(), nullTime(d.DeliveredAt), d.ID,
	)
	if err != nil {
		return newErr(ErrStorage, "updating delivery %s: %v", d.ID, err)
	}
	return nil
}

// DueDeliveries mirrors the §4.I scheduler query: status='Failed' AND
// retry_count<max. The next_attempt<=now leg is evaluated by the caller
// via Delivery.NextAttemptAt, since the backoff base is a Node-level
// config value rather than a column; now is accepted here so a future
// SQL-side filter can be added without changing the interface.
func (s *SQLiteStore) DueDeliveries(now time.Time, maxRetries int) ([]*Delivery, error) {
	_ = now
	rows, err := s.db.Query(
		`SELECT id, message_id, recipient_did, delivery_url, status, retry_count, last_http_status, error, created_at, updated_at, delivered_at
		 FROM deliveries WHERE status = ? AND retry_count < ?`,
		string(DeliveryFailed), maxRetries,
	)
	if err != nil {
		return nil, newErr(ErrStorage, "querying due deliveries: %v", err)
	}
	defer rows.Close()

	var out []*Delivery
	for rows.Next() {
		d, err := scanDeliveryRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, newErr(ErrStorage, "iterating due deliveries: %v", err)
	}
	return out, nil
}

func scanDeliveryRows(rows *sql.Rows) (*Delivery, error) {
	var d Delivery
	var status string
	var errStr sql.NullString
	var createdAt, updatedAt int64
	var deliveredAt sql.NullInt64
	if err := rows.Scan(&d.ID, &d.MessageID, &d.RecipientDID, &d.DeliveryURL, &status, &d.RetryCount, &d.LastHTTPStatus, &errStr, &createdAt, &updatedAt, &deliveredAt); err != nil {
		return nil, newErr(ErrStorage, "scanning delivery row: %v", err)
	}
	d.Status = DeliveryStatus(status)
	d.Error = errStr.String
	d.CreatedAt = time.Unix(createdAt, 0).UTC()
	d.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	if deliveredAt.Valid {
		t := time.Unix(deliveredAt.Int64, 0).UTC()
		d.DeliveredAt = &t
	}
	return &d, nil
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Unix()
}

func nullString(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
