package journal

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/dshills/epicenter/internal/event"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrClosed is returned by operations on a closed journal.
var ErrClosed = errors.New("journal is closed")

const schema = `
CREATE TABLE IF NOT EXISTS journal_records (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	event_key TEXT NOT NULL,
	payload TEXT NOT NULL,
	recorded_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS journal_records_key_idx ON journal_records (event_key, id);
`

// Record is one journaled event.
type Record struct {
	ID         int64               `json:"id"`
	Key        string              `json:"key"`
	Payload    jsoniter.RawMessage `json:"payload"`
	RecordedAt time.Time           `json:"recorded_at"`
}

// Journal stores the events that reach its recorders in a SQLite database.
type Journal struct {
	db     *sql.DB
	logger hclog.Logger
	now    func() time.Time
}

// Option configures a Journal.
type Option func(*Journal)

// WithLogger sets the journal logger.
func WithLogger(l hclog.Logger) Option {
	return func(j *Journal) {
		if l != nil {
			j.logger = l
		}
	}
}

// WithClock overrides the time source used for RecordedAt.
func WithClock(now func() time.Time) Option {
	return func(j *Journal) {
		if now != nil {
			j.now = now
		}
	}
}

// Open opens the journal database at path and creates its schema.
func Open(ctx context.Context, path string, opts ...Option) (*Journal, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("journal path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite db")
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ping sqlite db")
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "create journal schema")
	}

	j := &Journal{
		db:     db,
		logger: hclog.NewNullLogger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j, nil
}

// Close releases the database connection.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Append stores payload under key.
func (j *Journal) Append(ctx context.Context, key string, payload []byte) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if j == nil || j.db == nil {
		return 0, ErrClosed
	}
	if key == "" {
		return 0, errors.New("event key is required")
	}

	res, err := j.db.ExecContext(ctx,
		`INSERT INTO journal_records (event_key, payload, recorded_at) VALUES (?, ?, ?)`,
		key, string(payload), j.now().UTC().UnixMilli(),
	)
	if err != nil {
		return 0, errors.Wrap(err, "insert journal record")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "journal record id")
	}
	j.logger.Trace("recorded event", "key", key, "id", id)
	return id, nil
}

// Records lists the newest records first. An empty key lists every event type.
func (j *Journal) Records(ctx context.Context, key string, limit int) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if j == nil || j.db == nil {
		return nil, ErrClosed
	}
	if limit <= 0 {
		return nil, errors.New("limit must be greater than zero")
	}

	query := `SELECT id, event_key, payload, recorded_at FROM journal_records`
	args := []any{}
	if key != "" {
		query += ` WHERE event_key = ?`
		args = append(args, key)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list journal records")
	}
	defer rows.Close()

	records := make([]Record, 0, limit)
	for rows.Next() {
		var (
			rec        Record
			payload    string
			recordedAt int64
		)
		if err := rows.Scan(&rec.ID, &rec.Key, &payload, &recordedAt); err != nil {
			return nil, errors.Wrap(err, "scan journal record")
		}
		rec.Payload = jsoniter.RawMessage(payload)
		rec.RecordedAt = time.UnixMilli(recordedAt).UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate journal records")
	}
	return records, nil
}

// Recorder returns a listener that journals every T it sees.
// It never modifies the event. A storage error fails the dispatch.
func Recorder[T event.Event](j *Journal) event.AsyncListener[T] {
	key := event.KeyOf[T]().String()
	return func(ctx context.Context, ev *T) error {
		payload, err := json.Marshal(ev)
		if err != nil {
			return errors.Wrapf(err, "encode %s", key)
		}
		_, err = j.Append(ctx, key, payload)
		return err
	}
}
