package stats

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/carline/order"
)

const defaultBatchSize = 1000

type completionEntry struct {
	number    int
	kind      string
	model     string
	spec      string
	submitted int
	completed int
	delay     int
}

// SQLiteRecorder writes completions into the completion table of a SQLite
// database. Entries are buffered and written in batches; whatever is left is
// written when the program exits through atexit.
type SQLiteRecorder struct {
	*sql.DB

	dbName    string
	batchSize int
	entries   []completionEntry
	logger    *slog.Logger
}

// NewSQLiteRecorder creates the database file path.sqlite3. An empty path
// picks a unique name. It fails if the file already exists.
func NewSQLiteRecorder(path string, logger *slog.Logger) (*SQLiteRecorder, error) {
	if path == "" {
		path = "carline_stats_" + xid.New().String()
	}

	filename := path + ".sqlite3"
	if _, err := os.Stat(filename); err == nil {
		return nil, fmt.Errorf("file %s already exists", filename)
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, err
	}

	r := &SQLiteRecorder{
		DB:        db,
		dbName:    filename,
		batchSize: defaultBatchSize,
		logger:    logger,
	}

	if err := r.createTable(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("recording completions", "database", filename)

	atexit.Register(func() {
		if err := r.Flush(); err != nil {
			logger.Error("cannot flush completions", "error", err)
		}
	})

	return r, nil
}

// Name returns the database file name.
func (r *SQLiteRecorder) Name() string {
	return r.dbName
}

func (r *SQLiteRecorder) createTable() error {
	_, err := r.Exec(`
		CREATE TABLE completion (
			order_number INTEGER NOT NULL,
			kind         TEXT    NOT NULL,
			model        TEXT,
			spec         TEXT    NOT NULL,
			submitted    INTEGER NOT NULL,
			completed    INTEGER NOT NULL,
			delay        INTEGER NOT NULL
		);`)

	return err
}

// RecordCompletion implements Sink.
func (r *SQLiteRecorder) RecordCompletion(delayMinutes int, o *order.Order) {
	entry := completionEntry{
		number:    o.Number(),
		kind:      o.Kind().String(),
		spec:      o.Specification().Key(),
		submitted: o.SubmittedAt().InMinutes(),
		delay:     delayMinutes,
	}

	if m, ok := o.Model(); ok {
		entry.model = m.Name()
	}

	if at, ok := o.CompletedAt(); ok {
		entry.completed = at.InMinutes()
	}

	r.entries = append(r.entries, entry)
	if len(r.entries) < r.batchSize {
		return
	}

	if err := r.Flush(); err != nil {
		r.logger.Error("cannot flush completions", "error", err)
	}
}

// Flush writes the buffered completions.
func (r *SQLiteRecorder) Flush() error {
	if len(r.entries) == 0 {
		return nil
	}

	tx, err := r.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(
		"INSERT INTO completion VALUES (?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, e := range r.entries {
		var model any
		if e.model != "" {
			model = e.model
		}

		_, err := stmt.Exec(e.number, e.kind, model, e.spec,
			e.submitted, e.completed, e.delay)
		if err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	r.entries = nil

	return nil
}
