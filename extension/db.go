package extension

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/jdbcx/jdbcx-core/errs"
	"github.com/jdbcx/jdbcx-core/result"
)

// DBExtension runs the block body as one or more SQL statements
// against a database/sql handle selected by the url/driver option.
// Pools are keyed by (driver, dsn) and reused across invocations.
type DBExtension struct {
	mu    sync.Mutex
	pools map[string]*sql.DB

	// openFunc opens a new pool; NewDBExtension sets it to sql.Open.
	openFunc func(driverName, dsn string) (*sql.DB, error)
}

// NewDBExtension returns a DBExtension. pools may be nil; pools are
// lazily created and cached for the life of the process.
func NewDBExtension(pools map[string]*sql.DB) *DBExtension {
	if pools == nil {
		pools = make(map[string]*sql.DB)
	}
	return &DBExtension{pools: pools, openFunc: sql.Open}
}

const (
	optURL      = "url"
	optDriver   = "driver"
	optDryRun   = "db.dryRun"
	optMutation = "db.mutation"
	optResult   = "db.result"
)

// resultPolicy is spec.md §4.3's db.result ∈ {first, last, lastUpdate, all}.
type resultPolicy string

const (
	resultFirst      resultPolicy = "first"
	resultLast       resultPolicy = "last"
	resultLastUpdate resultPolicy = "lastUpdate"
	resultAll        resultPolicy = "all"
)

func parseResultPolicy(raw string) resultPolicy {
	switch resultPolicy(raw) {
	case resultFirst, resultLastUpdate, resultAll:
		return resultPolicy(raw)
	default:
		return resultLast
	}
}

// statementGroup is one --;; label delimited section of a db/query
// extension body; Statements is that section split on unquoted ';'.
type statementGroup struct {
	Label      string
	Statements []string
}

// splitGroups implements spec.md §4.3's "--;; label lines split
// multi-statement bodies": a line whose trimmed form starts with
// "--;;" begins a new labeled group (label is the rest of that line);
// text before the first such line is one unlabeled leading group. Each
// group's text is then split into individual statements on unquoted
// ';' via splitStatements.
func splitGroups(body string) []statementGroup {
	lines := strings.Split(body, "\n")
	var raw []statementGroup
	cur := statementGroup{}
	for _, line := range lines {
		if label, ok := groupMarker(line); ok {
			raw = append(raw, cur)
			cur = statementGroup{Label: label}
			continue
		}
		cur.Statements = append(cur.Statements, line)
	}
	raw = append(raw, cur)

	out := make([]statementGroup, 0, len(raw))
	for _, g := range raw {
		text := strings.Join(g.Statements, "\n")
		stmts := splitStatements(text)
		if len(stmts) == 1 && stmts[0] == "" && g.Label == "" {
			continue
		}
		out = append(out, statementGroup{Label: g.Label, Statements: stmts})
	}
	if len(out) == 0 {
		out = []statementGroup{{Statements: []string{""}}}
	}
	return out
}

func groupMarker(line string) (label string, ok bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "--;;") {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(trimmed, "--;;")), true
}

// statementKind classifies a statement for db.result/metadata purposes:
// SELECT-family statements are queried, DML mutates and reports
// affected rows, everything else (DDL, etc.) is executed but counted
// toward neither query_count nor update_count in the query extension's
// metadata table, matching spec.md §8 scenario S2.
type statementKind int

const (
	stmtQuery statementKind = iota
	stmtUpdate
	stmtOther
)

func classifyStatement(stmt string) statementKind {
	upper := strings.ToUpper(strings.TrimSpace(stmt))
	switch {
	case strings.HasPrefix(upper, "SELECT"), strings.HasPrefix(upper, "WITH"),
		strings.HasPrefix(upper, "SHOW"), strings.HasPrefix(upper, "EXPLAIN"):
		return stmtQuery
	case strings.HasPrefix(upper, "INSERT"), strings.HasPrefix(upper, "UPDATE"),
		strings.HasPrefix(upper, "DELETE"), strings.HasPrefix(upper, "MERGE"),
		strings.HasPrefix(upper, "REPLACE"):
		return stmtUpdate
	default:
		return stmtOther
	}
}

func (e *DBExtension) pool(ec *Context) (*sql.DB, error) {
	driverName := ec.Options[optDriver]
	dsn := ec.Options[optURL]
	if dsn == "" {
		return nil, errs.ResolveError("db extension requires a %q option", optURL)
	}
	if driverName == "" {
		driverName = "postgres"
	}

	key := driverName + "\x00" + dsn
	if ec.Options[optDryRun] == "true" {
		key = "dry-run\x00" + key
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if db, ok := e.pools[key]; ok {
		return db, nil
	}

	var db *sql.DB
	var err error
	if ec.Options[optDryRun] == "true" {
		db, err = e.openDryRun(key)
	} else {
		db, err = e.openFunc(driverName, dsn)
	}
	if err != nil {
		return nil, errs.ExecutionError(driverName, err)
	}
	e.pools[key] = db
	return db, nil
}

// openDryRun registers a unique no-op driver the first time key is
// seen and opens a handle against it, exactly mirroring the teacher's
// DryRunDatabase.NewDryRunDatabase: a fake driver.Conn that accepts
// every Prepare/Exec/Query and performs nothing, so a block can be
// validated end to end without touching a real backend.
func (e *DBExtension) openDryRun(key string) (*sql.DB, error) {
	driverName := fmt.Sprintf("jdbcx-dry-run-%s", key)
	sql.Register(driverName, &dryRunDriver{})
	return sql.Open(driverName, "dry-run")
}

// Execute splits ec.Body into --;; label groups, runs each group's
// statements in order (SELECT-family via Query, everything else via
// Exec), and picks the block's result per db.result (spec.md §4.3):
// first/last take the first or last statement's result as-is,
// lastUpdate takes the last Exec-backed result, all concatenates every
// RowResult's rows (or sums every UpdateResult's affected count when
// no query ran).
func (e *DBExtension) Execute(ec *Context) (result.Result, error) {
	db, err := e.pool(ec)
	if err != nil {
		return nil, err
	}
	forced := ec.Options[optMutation] == "true"
	policy := parseResultPolicy(ec.Options[optResult])

	var results []result.Result
	var lastUpdate result.Result
	for _, group := range splitGroups(ec.Body) {
		for _, stmt := range group.Statements {
			if stmt == "" {
				continue
			}
			var res result.Result
			var err error
			if !forced && classifyStatement(stmt) == stmtQuery {
				res, err = e.runQuery(ec, db, stmt)
			} else {
				res, err = e.runExec(ec, db, stmt)
			}
			if err != nil {
				return nil, err
			}
			results = append(results, res)
			if _, ok := res.(*result.UpdateResult); ok {
				lastUpdate = res
			}
		}
	}
	if len(results) == 0 {
		return result.NewUpdateResult(0, ec.Tracker, ec.Log), nil
	}

	switch policy {
	case resultFirst:
		return results[0], nil
	case resultLastUpdate:
		if lastUpdate != nil {
			return lastUpdate, nil
		}
		return results[len(results)-1], nil
	case resultAll:
		return combineResults(results, ec), nil
	default:
		return results[len(results)-1], nil
	}
}

func (e *DBExtension) runExec(ec *Context, db *sql.DB, stmt string) (result.Result, error) {
	res, err := db.ExecContext(ec.Ctx, stmt)
	if err != nil {
		return nil, errs.ExecutionError(ec.Options[optDriver], err)
	}
	affected, _ := res.RowsAffected()
	return result.NewUpdateResult(affected, ec.Tracker, ec.Log), nil
}

func (e *DBExtension) runQuery(ec *Context, db *sql.DB, stmt string) (result.Result, error) {
	rows, err := db.QueryContext(ec.Ctx, stmt)
	if err != nil {
		return nil, errs.ExecutionError(ec.Options[optDriver], err)
	}
	ec.Tracker.Track(rows)

	cols, err := rows.Columns()
	if err != nil {
		return nil, errs.ExecutionError(ec.Options[optDriver], err)
	}
	types, _ := rows.ColumnTypes()
	fields := make([]result.Field, len(cols))
	for i, name := range cols {
		f := result.Field{Name: name, Type: result.TypeOther}
		if i < len(types) {
			f.DatabaseType = types[i].DatabaseTypeName()
			if nullable, ok := types[i].Nullable(); ok {
				f.Nullable = nullable
			}
		}
		fields[i] = f
	}

	var out []result.Row
	dest := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range dest {
		ptrs[i] = &dest[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errs.ExecutionError(ec.Options[optDriver], err)
		}
		row := make(result.Row, len(cols))
		for i, v := range dest {
			row[i] = scanToValue(v)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.ExecutionError(ec.Options[optDriver], err)
	}

	return result.NewRowResult(fields, result.NewSliceIterator(out), ec.Tracker, ec.Log), nil
}

// combineResults implements db.result=all: RowResult/ScalarResult rows
// are concatenated under the first result's fields; if no query ran,
// every UpdateResult's affected count is summed instead.
func combineResults(results []result.Result, ec *Context) result.Result {
	var fields []result.Field
	var rows []result.Row
	var affected int64
	for _, res := range results {
		switch r := res.(type) {
		case *result.UpdateResult:
			affected += r.Affected
		case *result.RowResult:
			if fields == nil {
				fields = r.Fields
			}
			for r.Rows.Next() {
				rows = append(rows, r.Rows.Row())
			}
		case *result.ScalarResult:
			rr := r.AsRowResult()
			if fields == nil {
				fields = rr.Fields
			}
			for rr.Rows.Next() {
				rows = append(rows, rr.Rows.Row())
			}
		}
	}
	if fields != nil {
		return result.NewRowResult(fields, result.NewSliceIterator(rows), ec.Tracker, ec.Log)
	}
	return result.NewUpdateResult(affected, ec.Tracker, ec.Log)
}

func scanToValue(v any) result.Value {
	switch t := v.(type) {
	case nil:
		return result.NullValue()
	case bool:
		return result.BoolValue(t)
	case int64:
		return result.IntegralValue(t, 8, true)
	case float64:
		return result.FloatValue(t, false)
	case []byte:
		return result.BinaryValue(t)
	case string:
		return result.StringValue(t)
	default:
		return result.StringValue(fmt.Sprintf("%v", t))
	}
}

// dryRunDriver/dryRunConn/... mirror the teacher's database/dry_run.go
// fake driver.Conn: every statement succeeds and returns zero rows.
type dryRunDriver struct{}

func (d *dryRunDriver) Open(name string) (driver.Conn, error) { return &dryRunConn{}, nil }

type dryRunConn struct{}

func (c *dryRunConn) Prepare(query string) (driver.Stmt, error) { return &dryRunStmt{}, nil }
func (c *dryRunConn) Close() error                              { return nil }
func (c *dryRunConn) Begin() (driver.Tx, error)                 { return dryRunTx{}, nil }

type dryRunTx struct{}

func (dryRunTx) Commit() error   { return nil }
func (dryRunTx) Rollback() error { return nil }

type dryRunStmt struct{}

func (s *dryRunStmt) Close() error  { return nil }
func (s *dryRunStmt) NumInput() int { return -1 }
func (s *dryRunStmt) Exec(args []driver.Value) (driver.Result, error) {
	return dryRunResult{}, nil
}
func (s *dryRunStmt) Query(args []driver.Value) (driver.Rows, error) {
	return &dryRunRows{}, nil
}

type dryRunResult struct{}

func (dryRunResult) LastInsertId() (int64, error) { return 0, nil }
func (dryRunResult) RowsAffected() (int64, error) { return 0, nil }

type dryRunRows struct{}

func (*dryRunRows) Columns() []string              { return nil }
func (*dryRunRows) Close() error                   { return nil }
func (*dryRunRows) Next(dest []driver.Value) error { return io.EOF }
