package extension

import (
	"encoding/hex"
	"hash/fnv"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jdbcx/jdbcx-core/errs"
	"github.com/jdbcx/jdbcx-core/result"
)

// QueryExtension is the default extension (spec.md §3: absence of a
// header selects it). Body (or query.glob-matched files) is split into
// --;; label groups by db.go's splitGroups, each group dispatched to
// the db extension statement by statement, and the block's result is
// one metadata row per group: thread, connection hash, source path,
// group index, label, query_count, update_count, total_operations,
// affected_rows, elapsed_ms (spec.md §4.3 "query." entry and §8 S2).
type QueryExtension struct {
	registry *Registry
}

func NewQueryExtension(r *Registry) *QueryExtension { return &QueryExtension{registry: r} }

const (
	optParallelism = "exec.parallelism"
	optGlob        = "query.glob"
	optInputFile   = "input.file"
	optThread      = "thread"
)

// querySource is one --;; label group plus the file it came from (when
// query.glob is in play) and its 1-based position across the whole
// invocation.
type querySource struct {
	Index      int
	Label      string
	Statements []string
	SourcePath string
}

func (q *QueryExtension) Execute(ec *Context) (result.Result, error) {
	sources, err := q.sources(ec)
	if err != nil {
		return nil, err
	}

	parallelism := 0
	if raw := ec.Options[optParallelism]; raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			parallelism = n
		}
	}

	rows, err := ConcurrentMap(sources, parallelism, func(src querySource) (result.Row, error) {
		return q.runGroup(ec, src)
	})
	if err != nil {
		return nil, err
	}

	fields := []result.Field{
		{Name: "thread", Type: result.TypeVarchar},
		{Name: "connection", Type: result.TypeVarchar},
		{Name: "source", Type: result.TypeVarchar},
		{Name: "group", Type: result.TypeInteger},
		{Name: "label", Type: result.TypeVarchar},
		{Name: "query_count", Type: result.TypeInteger},
		{Name: "update_count", Type: result.TypeInteger},
		{Name: "total_operations", Type: result.TypeInteger},
		{Name: "affected_rows", Type: result.TypeBigInt},
		{Name: "elapsed_ms", Type: result.TypeBigInt},
	}
	return result.NewRowResult(fields, result.NewSliceIterator(rows), ec.Tracker, ec.Log), nil
}

func (q *QueryExtension) sources(ec *Context) ([]querySource, error) {
	if pattern := ec.Options[optGlob]; pattern != "" {
		return q.globSources(pattern)
	}
	groups := splitGroups(ec.Body)
	out := make([]querySource, len(groups))
	for i, g := range groups {
		out[i] = querySource{
			Index:      i + 1,
			Label:      g.Label,
			Statements: g.Statements,
			SourcePath: ec.Options[optInputFile],
		}
	}
	return out, nil
}

func (q *QueryExtension) globSources(pattern string) ([]querySource, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, errs.ResolveError("invalid query.glob pattern %q: %v", pattern, err)
	}
	if len(matches) == 0 {
		return nil, errs.ResolveError("query.glob %q matched no files", pattern)
	}
	var out []querySource
	for _, path := range matches {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, errs.ExecutionError("query.glob", err)
		}
		for _, g := range splitGroups(string(b)) {
			out = append(out, querySource{
				Index:      len(out) + 1,
				Label:      g.Label,
				Statements: g.Statements,
				SourcePath: path,
			})
		}
	}
	return out, nil
}

// runGroup dispatches every statement in src to the db extension in
// order, tallying the metadata row spec.md §4.3/§8 S2 require: a
// statement counts toward query_count when its result isn't an
// UpdateResult, toward update_count (plus affected_rows) when it is
// and its leading keyword is DML (INSERT/UPDATE/DELETE/MERGE/REPLACE).
// Other Exec-backed statements (DDL) run but count toward neither,
// only toward total_operations.
func (q *QueryExtension) runGroup(ec *Context, src querySource) (result.Row, error) {
	start := time.Now()
	db, ok := q.registry.Lookup("db")
	if !ok {
		return nil, errs.InvalidStateError("db extension not registered")
	}

	var queryCount, updateCount, affected int64
	for _, stmt := range src.Statements {
		if stmt == "" {
			continue
		}
		child := *ec
		child.Body = stmt
		res, err := db.Execute(&child)
		if err != nil {
			return nil, err
		}
		if u, ok := res.(*result.UpdateResult); ok {
			if classifyStatement(stmt) == stmtUpdate {
				updateCount++
				affected += u.Affected
			}
		} else {
			queryCount++
		}
		_ = res.Close()
	}
	elapsed := time.Since(start)

	row := result.Row{
		result.StringValue(threadHandle(ec)),
		result.StringValue(connectionHash(ec)),
		result.StringValue(src.SourcePath),
		result.IntegralValue(int64(src.Index), 4, true),
		result.StringValue(src.Label),
		result.IntegralValue(queryCount, 4, true),
		result.IntegralValue(updateCount, 4, true),
		result.IntegralValue(int64(len(src.Statements)), 4, true),
		result.IntegralValue(affected, 8, true),
		result.IntegralValue(elapsed.Milliseconds(), 8, true),
	}
	return row, nil
}

// threadHandle is the caller-supplied ThreadID stand-in (Go has no
// OS-thread-local storage; see variable.ThreadID). Blocks may set it
// explicitly via the "thread" option; otherwise it is empty.
func threadHandle(ec *Context) string { return ec.Options[optThread] }

// connectionHash fingerprints the (driver, url) pair the nested db
// extension will use, so two groups against the same backend report
// the same value without leaking the DSN itself into the result table.
func connectionHash(ec *Context) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(ec.Options[optDriver]))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(ec.Options[optURL]))
	return hex.EncodeToString(h.Sum(nil))
}

// splitStatements splits on unquoted ';', matching the boundary rule
// every other block/option parser in this module uses: a run inside
// single, double, or backtick quotes is never a split point.
func splitStatements(body string) []string {
	var out []string
	var cur strings.Builder
	var quote rune
	for _, r := range body {
		switch {
		case quote != 0:
			cur.WriteRune(r)
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"' || r == '`':
			quote = r
			cur.WriteRune(r)
		case r == ';':
			out = append(out, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		out = append(out, s)
	}
	if len(out) == 0 {
		out = []string{""}
	}
	return out
}
