// Command jdbcx is the driver-facade stand-in (spec.md §6 "CLI surface
// (driver-side)"): it resolves one jdbcx: URL plus an inline query (or
// @path) into a single extension invocation and prints the result to
// stdout, without ever starting the bridge server.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	flags "github.com/jessevdk/go-flags"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/jdbcx/jdbcx-core/extension"
	"github.com/jdbcx/jdbcx-core/logging"
	"github.com/jdbcx/jdbcx-core/result"
	"github.com/jdbcx/jdbcx-core/serialize"
	"github.com/jdbcx/jdbcx-core/variable"
)

type cliOptions struct {
	Properties []string `short:"D" description:"system property, name=value (a leading jdbcx. prefix on name is stripped)"`
	Format     string   `short:"f" long:"format" default:"csv" description:"output serialization format"`
	Verbose    bool     `short:"v" long:"verbose" description:"log at debug level"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	var opts cliOptions
	parser := flags.NewParser(&opts, flags.Default)
	parser.Usage = "[options] <jdbcx-url> [query|@path]"
	positional, err := parser.ParseArgs(args)
	if err != nil {
		if flags.WroteHelp(err) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 1
	}
	if len(positional) < 1 {
		fmt.Fprintln(stderr, "missing required <jdbcx-url> argument")
		return 1
	}

	level := "info"
	if opts.Verbose {
		level = "debug"
	}
	log := logging.New(stderr, level)

	extName, id, underlying, err := parseJdbcxURL(positional[0])
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	body, err := resolveQuery(positional)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	options := systemProperties(opts.Properties)
	options["url"] = underlying

	reg := extension.NewDefaultRegistry()
	ec := &extension.Context{
		Ctx:       context.Background(),
		Extension: extName,
		ID:        id,
		Options:   options,
		Body:      body,
		Global:    variable.NewGlobalScope(),
		Tracker:   result.NewResourceTracker(),
		Log:       log,
	}
	ec.Chain = variable.Chain{ec.Global}

	res, err := extension.Dispatch(reg, ec)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer res.Close()

	ser, ok := serialize.NewDefaultRegistry().Lookup(serialize.Format(opts.Format))
	if !ok {
		fmt.Fprintf(stderr, "unsupported format %q\n", opts.Format)
		return 1
	}
	fields, rows := rowsOf(res)
	if err := ser.Serialize(stdout, fields, rows); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

// parseJdbcxURL splits "jdbcx:[<extension>[.<id>]:]<underlying-url>"
// per spec.md §6. Extension defaults to "db" when omitted, since the
// bare form `jdbcx:<underlying-url>` names a JDBC-style connection
// string for the default backend.
func parseJdbcxURL(raw string) (extName, id, underlying string, err error) {
	const prefix = "jdbcx:"
	if !strings.HasPrefix(raw, prefix) {
		return "", "", "", fmt.Errorf("url must start with %q, got %q", prefix, raw)
	}
	rest := raw[len(prefix):]

	if colon := strings.Index(rest, ":"); colon >= 0 {
		head := rest[:colon]
		if looksLikeExtensionTag(head) {
			extName, id = splitExtensionID(head)
			return extName, id, rest[colon+1:], nil
		}
	}
	return "db", "", rest, nil
}

// looksLikeExtensionTag distinguishes "script.foo" from a URL scheme
// like "jdbc" or "postgresql": the head must contain no slash or '@'
// and its extension part must name a registered built-in extension.
func looksLikeExtensionTag(head string) bool {
	if head == "" || strings.ContainsAny(head, "/@") {
		return false
	}
	name, _ := splitExtensionID(head)
	_, ok := extension.NewDefaultRegistry().Lookup(name)
	return ok
}

func splitExtensionID(head string) (extName, id string) {
	if dot := strings.Index(head, "."); dot >= 0 {
		return head[:dot], head[dot+1:]
	}
	return head, ""
}

func resolveQuery(positional []string) (string, error) {
	if len(positional) < 2 {
		return "", nil
	}
	q := positional[1]
	if strings.HasPrefix(q, "@") {
		data, err := os.ReadFile(q[1:])
		if err != nil {
			return "", fmt.Errorf("reading query file %q: %w", q[1:], err)
		}
		return string(data), nil
	}
	return q, nil
}

// systemProperties turns "-D name=value" pairs into the extension
// option map, stripping a leading "jdbcx." the way -Djdbcx.<name>
// mirrors an option per spec.md §6.
func systemProperties(props []string) map[string]string {
	out := make(map[string]string, len(props))
	for _, p := range props {
		name, value, ok := strings.Cut(p, "=")
		if !ok {
			continue
		}
		name = strings.TrimPrefix(name, "jdbcx.")
		out[name] = value
	}
	return out
}

func rowsOf(res result.Result) ([]result.Field, result.RowIterator) {
	switch r := res.(type) {
	case *result.RowResult:
		return r.Fields, r.Rows
	case *result.ScalarResult:
		rr := r.AsRowResult()
		return rr.Fields, rr.Rows
	default:
		return nil, result.NewSliceIterator(nil)
	}
}
