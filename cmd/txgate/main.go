// Package main is the txgate command line: it runs a transaction node, a data node or a standalone
// state server, and talks to a running node over HTTP.
//
// Configuration comes from settings.conf / settings_local.conf and the environment, with an optional
// .env file loaded first. Flags override the configured values.
package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"

	"github.com/bsv-blockchain/txgate/errors"
	"github.com/bsv-blockchain/txgate/settings"
	"github.com/bsv-blockchain/txgate/ulogger"
	"github.com/bsv-blockchain/txgate/util/servicemanager"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

const progname = "txgate"

// env carries what every command needs once the configuration is loaded.
type env struct {
	logger    ulogger.Logger
	tSettings *settings.Settings
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	e := &env{}

	return &cli.App{
		Name:  progname,
		Usage: "URI addressed transaction governance",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "dotenv file loaded before the settings are read",
				Value: ".env",
			},
		},
		Before: func(c *cli.Context) error {
			return e.load(c.String("env-file"), c.IsSet("env-file"))
		},
		Commands: []*cli.Command{
			{
				Name:   "node",
				Usage:  "Run a transaction node",
				Action: e.runNode,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "listen", Usage: "HTTP listen address"},
					&cli.StringFlag{Name: "read-store", Usage: "state store URL validators read from"},
					&cli.StringSliceFlag{Name: "peer", Usage: "peer URL, kafka:// or any state store URL"},
					&cli.BoolFlag{Name: "materialize", Usage: "materialize accepted transactions into the read store"},
				},
			},
			{
				Name:   "datanode",
				Usage:  "Run a data node materializing a node's transaction stream",
				Action: e.runDataNode,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "listen", Usage: "HTTP listen address"},
					&cli.StringFlag{Name: "store", Usage: "state store URL to materialize into"},
					&cli.StringSliceFlag{Name: "endpoint", Usage: "node endpoint, http(s)://, ws(s):// or kafka://"},
					&cli.StringFlag{Name: "materializer", Usage: "comma separated materializers: utxo, txn"},
				},
			},
			{
				Name:   "state",
				Usage:  "Serve a state store over HTTP",
				Action: e.runState,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "listen", Usage: "HTTP listen address"},
					&cli.StringFlag{Name: "store", Usage: "state store URL"},
				},
			},
			{
				Name:   "submit",
				Usage:  "Submit a transaction to a node",
				Action: submit,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "node", Usage: "node base URL", Value: "http://localhost:8090"},
					&cli.StringFlag{Name: "uri", Usage: "transaction uri", Required: true},
					&cli.StringFlag{Name: "data", Usage: "transaction data as JSON", Value: "null"},
				},
			},
			{
				Name:   "health",
				Usage:  "Query the health endpoint of a node, data node or state server",
				Action: checkHealth,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "url", Usage: "service base URL", Value: "http://localhost:8090"},
				},
			},
		},
	}
}

// load reads the dotenv file, which only has to exist when it was asked for explicitly, and then the settings.
func (e *env) load(envFile string, required bool) error {
	if err := godotenv.Load(envFile); err != nil && (required || !errors.Is(err, fs.ErrNotExist)) {
		return errors.NewConfigurationError("failed to load %s", envFile, err)
	}

	e.tSettings = settings.NewSettings()
	e.logger = ulogger.New(progname,
		ulogger.WithLevel(e.tSettings.LogLevel),
		ulogger.WithLoggerType(e.tSettings.LoggerType),
	)

	return nil
}

// run starts service under a service manager and blocks until it fails or the process is signalled.
func (e *env) run(name string, service servicemanager.Service) error {
	sm := servicemanager.NewServiceManager(context.Background(), e.logger)

	if err := sm.AddService(name, service); err != nil {
		sm.ForceShutdown()
		_ = sm.Wait()

		return err
	}

	return sm.Wait()
}

func (e *env) runNode(c *cli.Context) error {
	s := *e.tSettings.TxNode

	if c.IsSet("listen") {
		s.HTTPListenAddress = c.String("listen")
	}

	if c.IsSet("read-store") {
		u, err := parseURL(c.String("read-store"))
		if err != nil {
			return err
		}

		s.ReadStore = u
	}

	if c.IsSet("peer") {
		s.Peers = c.StringSlice("peer")
	}

	tSettings := *e.tSettings
	tSettings.TxNode = &s

	return e.run("TxNode", newNodeService(e.logger.New("txnode"), &tSettings, c.Bool("materialize")))
}

func (e *env) runDataNode(c *cli.Context) error {
	s := *e.tSettings.DataNode

	if c.IsSet("listen") {
		s.HTTPListenAddress = c.String("listen")
	}

	if c.IsSet("store") {
		u, err := parseURL(c.String("store"))
		if err != nil {
			return err
		}

		s.Store = u
	}

	if c.IsSet("endpoint") {
		s.Endpoints = c.StringSlice("endpoint")
	}

	if c.IsSet("materializer") {
		s.Materializer = c.String("materializer")
	}

	tSettings := *e.tSettings
	tSettings.DataNode = &s

	return e.run("DataNode", newDataNodeService(e.logger.New("datanode"), &tSettings))
}

func (e *env) runState(c *cli.Context) error {
	s := *e.tSettings.State

	if c.IsSet("listen") {
		s.HTTPListenAddress = c.String("listen")
	}

	if c.IsSet("store") {
		u, err := parseURL(c.String("store"))
		if err != nil {
			return err
		}

		s.Store = u
	}

	return e.run("State", newStateService(e.logger.New("state"), &s))
}
