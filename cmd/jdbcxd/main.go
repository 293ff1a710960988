// Command jdbcxd runs the bridge server (C5): it loads the YAML
// config, wires the cache, extension registry, and serialization
// registries, and serves HTTP until terminated.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	flags "github.com/jessevdk/go-flags"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/jdbcx/jdbcx-core/bridge"
	"github.com/jdbcx/jdbcx-core/cache"
	"github.com/jdbcx/jdbcx-core/compress"
	"github.com/jdbcx/jdbcx-core/config"
	"github.com/jdbcx/jdbcx-core/extension"
	"github.com/jdbcx/jdbcx-core/logging"
	"github.com/jdbcx/jdbcx-core/serialize"
	"github.com/jdbcx/jdbcx-core/variable"
)

type daemonOptions struct {
	Config       string `short:"c" long:"config" description:"path to config.yaml (defaults to $JDBCX_CONFIG or $JDBCX_HOME/config.yaml)"`
	ExportConfig bool   `long:"export-config" description:"print the effective configuration as YAML and exit"`
	Verbose      bool   `short:"v" long:"verbose" description:"log at debug level"`
}

func main() {
	os.Exit(run())
}

func run() int {
	var opts daemonOptions
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.ParseArgs(os.Args[1:]); err != nil {
		if flags.WroteHelp(err) {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	mgr, err := config.NewManager(opts.Config)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if opts.ExportConfig {
		out, err := mgr.Marshal()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		os.Stdout.Write(out)
		return 0
	}

	level := "info"
	if opts.Verbose {
		level = "debug"
	}
	log := logging.New(os.Stderr, level)

	snap := mgr.Get()
	c := cache.New(snap.Server.RequestLimit, time.Duration(snap.Server.RequestTTLMs)*time.Millisecond, log)
	c.OnEvict(func(qid string, _ *cache.QueryInfo) {
		log.Debug("cache entry evicted", "qid", qid)
	})

	srv := bridge.NewServer(
		c,
		extension.NewDefaultRegistry(),
		serialize.NewDefaultRegistry(),
		compress.NewDefaultRegistry(),
		variable.NewGlobalScope(),
		mgr,
		log,
	)
	srv.Acl = bridge.Acl{
		AllowAll:     snap.Acl.AllowAll,
		AllowedHosts: snap.Acl.AllowedHosts,
		AllowedIPs:   snap.Acl.AllowedIPs,
		CIDRRanges:   snap.Acl.CIDRRanges,
	}
	srv.BearerToken = snap.Auth.BearerToken

	log.Info("jdbcxd listening", "bind", snap.Server.BindAddress)
	if err := http.ListenAndServe(snap.Server.BindAddress, srv); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
