package adapter

import (
	"context"
	"fmt"

	logger "github.com/sirupsen/logrus"

	"perpgate/src/connectors"
	"perpgate/src/model"
	"perpgate/src/security"
)

// CredentialSource yields encrypted credentials for a user/exchange
// pair. The repository layer implements it. A nil credential with a
// nil error means "none on file".
type CredentialSource interface {
	Credentials(ctx context.Context, userID uint, exchange string) (*model.UserCredential, error)
}

// Factory constructs adapters. Authenticated adapters decrypt
// credentials just in time; the plaintext is handed to the client
// constructor and never retained or logged here.
type Factory struct {
	creds CredentialSource
	cfg   connectors.Config
}

func NewFactory(creds CredentialSource, cfg connectors.Config) *Factory {
	return &Factory{creds: creds, cfg: cfg}
}

func validExchange(exchange string) bool {
	return exchange == model.ExchangeBinance || exchange == model.ExchangeAevo
}

// ForUser builds an authenticated adapter for one user on one
// exchange. Missing credentials are an AuthError; an unknown exchange
// fails fast.
func (f *Factory) ForUser(ctx context.Context, userID uint, exchange string) (Adapter, error) {
	if !validExchange(exchange) {
		return nil, fmt.Errorf("unknown exchange %q", exchange)
	}

	cred, err := f.creds.Credentials(ctx, userID, exchange)
	if err != nil {
		return nil, fmt.Errorf("loading credentials for user %d on %s: %w", userID, exchange, err)
	}
	if cred == nil {
		return nil, &model.AuthError{Exchange: exchange, Reason: fmt.Sprintf("no credentials on file for user %d", userID)}
	}

	key, err := security.DecryptString(cred.KeyEnc)
	if err != nil {
		return nil, &model.AuthError{Exchange: exchange, Reason: "credential decryption failed"}
	}
	secret, err := security.DecryptString(cred.SecretEnc)
	if err != nil {
		return nil, &model.AuthError{Exchange: exchange, Reason: "credential decryption failed"}
	}

	logger.WithFields(logger.Fields{
		"user_id":  userID,
		"exchange": exchange,
	}).Debug("Building authenticated adapter")

	switch exchange {
	case model.ExchangeBinance:
		return NewBinanceAdapter(connectors.NewBinanceClient(key, secret, f.cfg)), nil
	case model.ExchangeAevo:
		client, err := connectors.NewAevoClient(key, secret, f.cfg)
		if err != nil {
			return nil, err
		}
		return NewAevoAdapter(client, f.cfg), nil
	}
	return nil, fmt.Errorf("unknown exchange %q", exchange)
}

// Public builds a credential-free adapter. Market-data calls work;
// authenticated calls fail with an AuthError.
func (f *Factory) Public(exchange string) (Adapter, error) {
	switch exchange {
	case model.ExchangeBinance:
		return NewBinanceAdapter(connectors.NewBinanceClient("", "", f.cfg)), nil
	case model.ExchangeAevo:
		client, err := connectors.NewAevoClient("", "", f.cfg)
		if err != nil {
			return nil, err
		}
		return NewAevoAdapter(client, f.cfg), nil
	}
	return nil, fmt.Errorf("unknown exchange %q", exchange)
}
