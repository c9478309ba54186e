package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"perpgate/cmd/keys"
	"perpgate/cmd/snapshot"
	"perpgate/src/adapter"
	"perpgate/src/connectors"
	"perpgate/src/database"
	"perpgate/src/repository"
	"perpgate/src/server"
)

var Version string

func main() {
	app := cli.NewApp()
	app.Name = "Perpgate CMD"
	app.Usage = "The perpgate command line interface"

	app.Commands = []cli.Command{
		serverCMD,
		keysCMD,
		snapshotCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	serverCMD = cli.Command{
		Name:        "server",
		Usage:       "run the public market-data server",
		Action:      serverAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Serve the health endpoint and public market data over HTTP`,
	}
	keysCMD = cli.Command{
		Name:        "keys",
		Usage:       "manage exchange credentials",
		Action:      keysAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Interactive CLI for storing encrypted exchange credentials`,
	}
	snapshotCMD = cli.Command{
		Name:      "snapshot",
		Usage:     "print a market and account snapshot",
		Action:    snapshotAction,
		ArgsUsage: "",
		Flags: []cli.Flag{
			cli.UintFlag{Name: "user", Usage: "user id for an authenticated snapshot"},
			cli.StringFlag{Name: "exchange", Value: "binance", Usage: "binance or aevo"},
			cli.StringFlag{Name: "symbol", Value: "BTC", Usage: "canonical symbol"},
		},
		Description: `Fetch ticker, orderbook and (with --user) account state through the adapter layer`,
	}
)

func serverAction(_ *cli.Context) error {
	logrus.Info("Starting server CMD")

	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	factory := adapter.NewFactory(repository.NewCredentialRepository(), connectors.GetConfig())
	server.StartServer(server.GetConfig().Port, factory)
	return nil
}

func keysAction(_ *cli.Context) error {
	logrus.Info("Starting keys CMD")

	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	return keys.Run()
}

func snapshotAction(c *cli.Context) error {
	logrus.Info("Starting snapshot CMD")

	snap := &snapshot.Snapshot{
		UserID:   uint(c.Uint("user")),
		Exchange: c.String("exchange"),
		Symbol:   c.String("symbol"),
	}
	if err := snap.Start(); err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}
	return nil
}
