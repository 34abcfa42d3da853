package db

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"sync"
	"testing"

	"duckwatch/internal/config"
)

// captureHandler records log records for assertion in tests.
type captureHandler struct {
	mu    sync.Mutex
	attrs []map[string]slog.Value
}

func (h *captureHandler) Enabled(_ context.Context, _ slog.Level) bool { return true }

func (h *captureHandler) Handle(ctx context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	m := make(map[string]slog.Value)
	m["msg"] = slog.StringValue(r.Message)
	r.Attrs(func(a slog.Attr) bool {
		m[a.Key] = a.Value
		return true
	})
	h.attrs = append(h.attrs, m)
	return nil
}

func (h *captureHandler) WithAttrs(attrs []slog.Attr) slog.Handler { return h }

func (h *captureHandler) WithGroup(name string) slog.Handler { return h }

func (h *captureHandler) recordsFor(t *testing.T, msg string) []map[string]slog.Value {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []map[string]slog.Value
	for _, m := range h.attrs {
		if m["msg"].String() == msg {
			out = append(out, m)
		}
	}
	return out
}

func (h *captureHandler) reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.attrs = nil
}

func TestNewLoggingConnector_nilLoggerUsesDefault(t *testing.T) {
	conn := NewLoggingConnector(":memory:", nil)
	lc, ok := conn.(*loggingConnector)
	if !ok {
		t.Fatalf("connector type = %T, want *loggingConnector", conn)
	}
	if lc.logger != slog.Default() {
		t.Error("nil logger should fall back to slog.Default()")
	}
}

func TestLoggingConnector_ExecAndQueryLogged(t *testing.T) {
	handler := &captureHandler{}
	logger := slog.New(handler)

	db := sql.OpenDB(NewLoggingConnector(":memory:", logger))
	db.SetMaxOpenConns(1)
	defer func() { _ = db.Close() }()

	if _, err := db.Exec(`CREATE TABLE t (id INTEGER PRIMARY KEY)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	recs := handler.recordsFor(t, "sql")
	if len(recs) == 0 {
		t.Fatal("expected at least one sql log record for Exec")
	}
	got := recs[len(recs)-1]
	if got["op"].String() != "exec" {
		t.Errorf("op: got %q, want exec", got["op"].String())
	}
	if got["sql"].String() != `CREATE TABLE t (id INTEGER PRIMARY KEY)` {
		t.Errorf("sql: got %q", got["sql"].String())
	}

	handler.reset()
	row := db.QueryRow(`SELECT 1`)
	var one int
	if err := row.Scan(&one); err != nil {
		t.Fatalf("query row: %v", err)
	}
	recs = handler.recordsFor(t, "sql")
	if len(recs) == 0 {
		t.Fatal("expected sql log record for QueryRow")
	}
	got = recs[len(recs)-1]
	if got["op"].String() != "query" {
		t.Errorf("op: got %q, want query", got["op"].String())
	}
	if got["sql"].String() != `SELECT 1` {
		t.Errorf("sql: got %q", got["sql"].String())
	}
}

func TestLoggingConnector_QueryWithArgsLogged(t *testing.T) {
	handler := &captureHandler{}
	logger := slog.New(handler)

	db := sql.OpenDB(NewLoggingConnector(":memory:", logger))
	db.SetMaxOpenConns(1)
	defer func() { _ = db.Close() }()

	if _, err := db.Exec(`CREATE TABLE t (id INTEGER, name TEXT)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	handler.reset()

	if _, err := db.Exec(`INSERT INTO t (id, name) VALUES (?, ?)`, 1, "alice"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	recs := handler.recordsFor(t, "sql")
	if len(recs) == 0 {
		t.Fatal("expected sql log for Exec with args")
	}
	got := recs[len(recs)-1]
	if got["op"].String() != "exec" {
		t.Errorf("op: got %q, want exec", got["op"].String())
	}
	if got["sql"].String() != `INSERT INTO t (id, name) VALUES (?, ?)` {
		t.Errorf("sql: got %q", got["sql"].String())
	}
	args, ok := got["args"].Any().([]string)
	if !ok || len(args) != 2 || args[0] != "1" || args[1] != "alice" {
		t.Errorf("args: got %v, want [1 alice]", got["args"].Any())
	}
	if _, ok := got["duration_ms"]; !ok {
		t.Error("expected duration_ms attribute in log")
	}
}

func TestLoggingConnector_QueryRowsLogged(t *testing.T) {
	handler := &captureHandler{}
	logger := slog.New(handler)

	db := sql.OpenDB(NewLoggingConnector(":memory:", logger))
	db.SetMaxOpenConns(1)
	defer func() { _ = db.Close() }()

	if _, err := db.Exec(`CREATE TABLE t (id INTEGER)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	handler.reset()

	rows, err := db.Query(`SELECT id FROM t`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	_ = rows.Close()
	recs := handler.recordsFor(t, "sql")
	if len(recs) == 0 {
		t.Fatal("expected sql log for Query")
	}
	got := recs[len(recs)-1]
	if got["op"].String() != "query" {
		t.Errorf("op: got %q, want query", got["op"].String())
	}
	if got["sql"].String() != `SELECT id FROM t` {
		t.Errorf("sql: got %q", got["sql"].String())
	}
}

func TestLoggingConnector_PingSucceeds(t *testing.T) {
	db := sql.OpenDB(NewLoggingConnector(":memory:", slog.Default()))
	defer func() { _ = db.Close() }()
	if err := db.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestLoggingConnector_MultiStatementExec(t *testing.T) {
	db := sql.OpenDB(NewLoggingConnector(":memory:", slog.New(&captureHandler{})))
	db.SetMaxOpenConns(1)
	defer func() { _ = db.Close() }()

	script := `
CREATE TABLE pond (id TEXT PRIMARY KEY);
INSERT INTO pond (id) VALUES ('P1');
INSERT INTO pond (id) VALUES ('P2');
`
	if _, err := db.Exec(script); err != nil {
		t.Fatalf("exec script: %v", err)
	}
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM pond`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Errorf("rows: got %d, want 2 (every statement of the script must run)", n)
	}
}

func TestLoggingConnector_ErrorLogged(t *testing.T) {
	handler := &captureHandler{}
	db := sql.OpenDB(NewLoggingConnector(":memory:", slog.New(handler)))
	defer func() { _ = db.Close() }()

	if _, err := db.Exec(`SELECT * FROM missing_table`); err == nil {
		t.Fatal("expected error for missing table")
	}
	recs := handler.recordsFor(t, "sql")
	if len(recs) == 0 {
		t.Fatal("expected sql log for failed Exec")
	}
	if _, ok := recs[len(recs)-1]["error"]; !ok {
		t.Error("expected error attribute on failed statement")
	}
}

func TestLoggingConnector_PreparedStatementLogged(t *testing.T) {
	handler := &captureHandler{}
	db := sql.OpenDB(NewLoggingConnector(":memory:", slog.New(handler)))
	db.SetMaxOpenConns(1)
	defer func() { _ = db.Close() }()

	stmt, err := db.Prepare(`SELECT ? + 1`)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	defer func() { _ = stmt.Close() }()
	handler.reset()

	var got int
	if err := stmt.QueryRow(41).Scan(&got); err != nil {
		t.Fatalf("query: %v", err)
	}
	if got != 42 {
		t.Errorf("result: got %d, want 42", got)
	}
	recs := handler.recordsFor(t, "sql")
	if len(recs) != 1 || recs[0]["sql"].String() != `SELECT ? + 1` {
		t.Errorf("records: got %v, want one record for the prepared query", recs)
	}
}

func TestBuildDSN(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		dsn  string
		path string
		want string
	}{
		{name: "explicit dsn wins", dsn: "file::memory:?cache=shared", path: "ignored.db", want: "file::memory:?cache=shared"},
		{name: "plain path", path: dir + "/a/duckwatch.db", want: "file:" + dir + "/a/duckwatch.db?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL"},
		{name: "file uri with params", path: "file:" + dir + "/b.db?mode=rwc", want: "file:" + dir + "/b.db?mode=rwc&_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildDSN(tt.dsn, tt.path)
			if err != nil {
				t.Fatalf("BuildDSN: %v", err)
			}
			if got != tt.want {
				t.Errorf("BuildDSN = %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := os.Stat(dir + "/a"); err != nil {
		t.Errorf("parent directory not created: %v", err)
	}
	if _, err := BuildDSN("", ""); err == nil {
		t.Error("BuildDSN with nothing configured: want error")
	}
}

func TestOpen(t *testing.T) {
	for _, logSQL := range []bool{false, true} {
		cfg := config.Config{
			LogLevel:       slog.LevelDebug,
			DBDriver:       "sqlite3",
			SQLitePath:     t.TempDir() + "/duckwatch.db",
			DBMaxOpenConns: 1,
			DBMaxIdleConns: 1,
			DBLogSQL:       logSQL,
		}
		db, err := Open(context.Background(), cfg, slog.New(&captureHandler{}))
		if err != nil {
			t.Fatalf("Open(logSQL=%v): %v", logSQL, err)
		}
		if _, isLogging := db.Driver().(unsupportedDriver); isLogging != logSQL {
			t.Errorf("Open(logSQL=%v): logging connector used = %v", logSQL, isLogging)
		}
		if err := Close(db); err != nil {
			t.Errorf("Close: %v", err)
		}
	}
	if err := Close(nil); err != nil {
		t.Errorf("Close(nil): %v", err)
	}
}
