// Command pqreactor-loadtest drives a pqreactor.ReconnectionPool against a
// real PostgreSQL server, issuing a configurable number of inserts through
// a fixed-size pool and reporting how many succeeded.
package main

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/pqreactor/pqreactor/go/pqreactor"
	"github.com/pqreactor/pqreactor/go/pqreactor/epollreactor"
	"github.com/pqreactor/pqreactor/go/pqreactorconfig"
	"github.com/pqreactor/pqreactor/go/pqreactorlog"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "pqreactor-loadtest",
		Short: "Drive a pqreactor connection pool with a burst of concurrent inserts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, configFile)
		},
	}

	def := pqreactorconfig.Default()
	flags := cmd.Flags()
	flags.String("dsn", def.DSN, "PostgreSQL connection string")
	flags.Int("pool-size", def.PoolSize, "number of pooled connections")
	flags.Duration("connect-timeout", def.ConnectTimeout, "per-connection connect deadline")
	flags.String("log-level", def.LogLevel, "debug, info, warn, or error")
	flags.String("log-format", def.LogFormat, "text or json")
	flags.String("log-output", def.LogOutput, "stderr, stdout, or a file path")
	flags.Int("inserts", 10000, "number of insert operations to submit")
	flags.String("table", "pqreactor_loadtest", "table to insert into; created if missing")
	flags.StringVar(&configFile, "config", "", "optional config file (yaml/json/toml)")

	return cmd
}

func run(cmd *cobra.Command, configFile string) error {
	loader := pqreactorconfig.NewLoader(afero.NewOsFs())
	if err := loader.BindFlags(cmd.Flags()); err != nil {
		return err
	}
	if err := loader.LoadFile(configFile); err != nil {
		return err
	}
	cfg, err := loader.Decode()
	if err != nil {
		return err
	}
	if cfg.DSN == "" {
		return fmt.Errorf("pqreactor-loadtest: --dsn (or PQREACTOR_DSN) is required")
	}

	logger, err := pqreactorlog.New(pqreactorlog.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: cfg.LogOutput,
	})
	if err != nil {
		return err
	}

	insertCount, err := cmd.Flags().GetInt("inserts")
	if err != nil {
		return err
	}
	table, err := cmd.Flags().GetString("table")
	if err != nil {
		return err
	}

	reactor, err := epollreactor.New()
	if err != nil {
		return fmt.Errorf("pqreactor-loadtest: starting reactor: %w", err)
	}
	go reactor.Run()
	defer reactor.Close()

	keywords, values, err := pqreactor.ParseConnInfo(cfg.DSN)
	if err != nil {
		return err
	}
	connect := pqreactor.ConnectOpWithTimeout(pqreactor.ConnectOp(keywords, values, true), cfg.ConnectTimeout)

	conns := make([]*pqreactor.Connection, cfg.PoolSize)
	for i := range conns {
		conns[i] = pqreactor.NewConnection(reactor)
	}
	pool := pqreactor.NewReconnectionPool(pqreactor.NewConnectionPool(conns), connect)

	logger.Info("starting load test",
		"pool_size", cfg.PoolSize,
		"inserts", insertCount,
		"table", table,
	)

	createTable := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (id SERIAL PRIMARY KEY, payload TEXT NOT NULL)",
		table,
	)
	setupDone := make(chan error, 1)
	pool.Submit(pqreactor.ExecOp(createTable, pqreactor.IgnoreResult), func(err error, _ *pqreactor.Connection) {
		setupDone <- err
	})
	if err := <-setupDone; err != nil {
		return fmt.Errorf("pqreactor-loadtest: creating table: %w", err)
	}

	insertStmt := pqreactor.NewAutoPreparedQuery(
		fmt.Sprintf("INSERT INTO %s (payload) VALUES ($1)", table),
		nil,
	)

	var succeeded, failed int64
	var wg sync.WaitGroup
	wg.Add(insertCount)

	start := time.Now()
	for i := 0; i < insertCount; i++ {
		payload := fmt.Sprintf("row-%d", i)
		params := pqreactor.NewOwnedTextParams(nil, []*string{&payload})
		op := insertStmt.Op(params, false, pqreactor.IgnoreResult)
		pool.Submit(op, func(err error, conn *pqreactor.Connection) {
			if err != nil {
				atomic.AddInt64(&failed, 1)
				logger.Warn("insert failed", "error", err, "connected", conn.IsConnected())
			} else {
				atomic.AddInt64(&succeeded, 1)
			}
			wg.Done()
		})
	}
	wg.Wait()
	elapsed := time.Since(start)

	logger.Info("load test complete",
		"succeeded", succeeded,
		"failed", failed,
		"elapsed", elapsed.String(),
	)
	if failed > 0 {
		return fmt.Errorf("pqreactor-loadtest: %d of %d inserts failed", failed, insertCount)
	}
	return nil
}
