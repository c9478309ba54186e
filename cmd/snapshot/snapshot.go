// Package snapshot drives the adapter layer end to end from the
// command line: public market data for any venue, plus account state
// when a user id with stored credentials is given.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	logger "github.com/sirupsen/logrus"

	"perpgate/src/adapter"
	"perpgate/src/connectors"
	"perpgate/src/database"
	"perpgate/src/repository"
)

type Snapshot struct {
	UserID   uint
	Exchange string
	Symbol   string
}

func (s *Snapshot) Start() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	log := logger.WithFields(logger.Fields{
		"exchange": s.Exchange,
		"symbol":   s.Symbol,
	})

	if err := database.InitMainDB(); err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}

	factory := adapter.NewFactory(repository.NewCredentialRepository(), connectors.GetConfig())

	var (
		ad  adapter.Adapter
		err error
	)
	if s.UserID > 0 {
		ad, err = factory.ForUser(ctx, s.UserID, s.Exchange)
	} else {
		ad, err = factory.Public(s.Exchange)
	}
	if err != nil {
		return err
	}

	out := json.NewEncoder(os.Stdout)
	out.SetIndent("", "  ")

	ticker, err := ad.GetTicker(ctx, s.Symbol)
	if err != nil {
		return fmt.Errorf("fetching ticker: %w", err)
	}
	log.WithField("last_price", ticker.LastPrice.String()).Info("Ticker fetched")
	if err := out.Encode(ticker); err != nil {
		return err
	}

	book, err := ad.GetOrderbook(ctx, s.Symbol, 5)
	if err != nil {
		return fmt.Errorf("fetching orderbook: %w", err)
	}
	if err := out.Encode(book); err != nil {
		return err
	}

	if s.UserID == 0 {
		return nil
	}

	account, err := ad.GetAccount(ctx)
	if err != nil {
		return fmt.Errorf("fetching account: %w", err)
	}
	log.WithFields(logger.Fields{
		"balances":  len(account.Balances),
		"positions": len(account.Positions),
	}).Info("Account fetched")
	return out.Encode(account)
}
