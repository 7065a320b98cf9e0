// Command cqltable renders or applies the schema of tables described in a
// YAML definition.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	gocql "github.com/apache/cassandra-gocql-driver/v2"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"

	"github.com/hupe1980/cqltable"
	"github.com/hupe1980/cqltable/cql"
	"github.com/hupe1980/cqltable/driver"
	"github.com/hupe1980/cqltable/driver/gocqldriver"
	"github.com/hupe1980/cqltable/driver/memdriver"
)

type options struct {
	Definition string        `short:"f" long:"file" env:"CQLTABLE_FILE" description:"table definition file" default:"tables.yml"`
	Keyspace   string        `short:"k" long:"keyspace" env:"CQLTABLE_KEYSPACE" description:"keyspace, overrides the definition"`
	Apply      bool          `long:"apply" description:"execute the statements instead of printing them"`
	Hosts      []string      `long:"host" env:"CQLTABLE_HOSTS" env-delim:"," description:"contact points" default:"127.0.0.1"`
	Username   string        `long:"username" env:"CQLTABLE_USERNAME" description:"auth user"`
	Password   string        `long:"password" env:"CQLTABLE_PASSWORD" description:"auth password"`
	Timeout    time.Duration `long:"timeout" description:"connection and statement timeout" default:"30s"`
	Dbg        bool          `long:"dbg" description:"debug mode"`
}

var revision = "latest"

func main() {
	var opts options
	p := flags.NewParser(&opts, flags.PrintErrors|flags.PassDoubleDash|flags.HelpFlag)
	if _, err := p.Parse(); err != nil {
		os.Exit(1)
	}
	setupLog(opts.Dbg)
	log.Printf("[DEBUG] cqltable %s", revision)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "failed, %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, out io.Writer) error {
	def, err := loadDefinition(opts.Definition)
	if err != nil {
		return err
	}
	specs, err := def.resolve(opts.Keyspace)
	if err != nil {
		return err
	}

	if !opts.Apply {
		return render(ctx, specs, out)
	}

	cluster := gocql.NewCluster(opts.Hosts...)
	cluster.Timeout = opts.Timeout
	cluster.ConnectTimeout = opts.Timeout
	if opts.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{Username: opts.Username, Password: opts.Password}
	}
	gs, err := cluster.CreateSession()
	if err != nil {
		return fmt.Errorf("can't connect to %s: %w", strings.Join(opts.Hosts, ","), err)
	}
	defer gs.Close()

	return apply(ctx, gocqldriver.New(gs), specs, opts.Dbg, out)
}

// render prints the statements without touching a store.
func render(ctx context.Context, specs []tableSpec, out io.Writer) error {
	session := memdriver.NewRecorder(nil)
	for _, s := range specs {
		tbl, err := cqltable.Open(ctx, session, s.name, s.caps, append(slices.Clone(s.opts), cqltable.WithSkipProvisioning())...)
		if err != nil {
			return fmt.Errorf("table %s: %w", s.name, err)
		}
		for _, stmt := range tbl.ProvisioningStatements() {
			if _, err := fmt.Fprintln(out, stmt); err != nil {
				return err
			}
		}
	}
	return nil
}

func apply(ctx context.Context, session driver.Session, specs []tableSpec, dbg bool, out io.Writer) error {
	for _, s := range specs {
		st := time.Now()
		opts := slices.Clone(s.opts)
		if dbg {
			opts = append(opts, cqltable.WithLogger(cqltable.NewTextLogger(slog.LevelDebug)))
		}
		tbl, err := cqltable.Open(ctx, session, s.name, s.caps, opts...)
		if err != nil {
			return fmt.Errorf("table %s: %w", s.name, err)
		}
		log.Printf("[INFO] provisioned %s in %v", tbl.FQName(), time.Since(st).Truncate(time.Millisecond))
		if _, err := fmt.Fprintf(out, "%s ok (%d statements)\n", tbl.FQName(), len(tbl.ProvisioningStatements())); err != nil {
			return err
		}
	}
	return nil
}

func bodyIndexOptions(m map[string]string) []cql.IndexOption {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]cql.IndexOption, len(keys))
	for i, k := range keys {
		out[i] = cql.IndexOption{Key: k, Value: m[k]}
	}
	return out
}

func setupLog(dbg bool) {
	logOpts := []lgr.Option{lgr.Out(io.Discard), lgr.Err(os.Stderr)}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
