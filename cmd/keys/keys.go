// Package keys is an interactive CLI for storing encrypted exchange
// credentials. Plaintext keys exist only in the command line buffer;
// everything written to the database goes through security.EncryptString.
package keys

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	logger "github.com/sirupsen/logrus"

	"perpgate/src/model"
	"perpgate/src/repository"
	"perpgate/src/security"
)

func printUsage() {
	fmt.Println("Available commands:")
	fmt.Println("  help                                       Show this help message")
	fmt.Println("  shutdown                                   Exit the application")
	fmt.Println("  set_key <user_id> <exchange> <key> <secret>  Store credentials for an exchange")
	fmt.Println("  del_key <user_id> <exchange>               Remove credentials for an exchange")
	fmt.Println("  list <user_id>                             List exchanges with stored credentials")
	fmt.Println()
}

func parseUserID(s string) (uint, bool) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil || id == 0 {
		fmt.Println("user_id must be a positive integer")
		return 0, false
	}
	return uint(id), true
}

// Run starts the interactive loop. Blocks until shutdown or SIGTERM.
func Run() error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	credentialRep := repository.NewCredentialRepository()

	reader := bufio.NewScanner(os.Stdin)
	reader.Buffer(make([]byte, 0, 1024), 1024*1024)

	for {
		fmt.Print("cmd> ")

		if !reader.Scan() {
			return reader.Err()
		}

		line := strings.TrimSpace(reader.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]

		switch cmd {

		case "shutdown":
			fmt.Println("Exiting CLI...")
			return nil

		case "help":
			printUsage()

		case "set_key":
			if len(parts) < 5 {
				printUsage()
				continue
			}
			userID, ok := parseUserID(parts[1])
			if !ok {
				continue
			}
			exchange, key, secret := parts[2], parts[3], parts[4]
			if exchange != model.ExchangeBinance && exchange != model.ExchangeAevo {
				fmt.Printf("unknown exchange %q\n", exchange)
				continue
			}

			encryptKey, err := security.EncryptString(key)
			if err != nil {
				logger.WithError(err).Error("Failed to encrypt key")
				continue
			}
			encryptSecret, err := security.EncryptString(secret)
			if err != nil {
				logger.WithError(err).Error("Failed to encrypt secret")
				continue
			}

			cred := &model.UserCredential{
				UserID:    userID,
				Exchange:  exchange,
				KeyEnc:    encryptKey,
				SecretEnc: encryptSecret,
			}
			if err := credentialRep.Upsert(ctx, cred); err != nil {
				logger.WithError(err).Error("Failed to upsert credential")
				continue
			}
			fmt.Printf("credentials stored for user %d on %s\n", userID, exchange)

		case "del_key":
			if len(parts) < 3 {
				printUsage()
				continue
			}
			userID, ok := parseUserID(parts[1])
			if !ok {
				continue
			}
			if err := credentialRep.Delete(ctx, userID, parts[2]); err != nil {
				logger.WithError(err).Error("Failed to delete credential")
				continue
			}
			fmt.Printf("credentials removed for user %d on %s\n", userID, parts[2])

		case "list":
			if len(parts) < 2 {
				printUsage()
				continue
			}
			userID, ok := parseUserID(parts[1])
			if !ok {
				continue
			}
			creds, err := credentialRep.ListByUser(ctx, userID)
			if err != nil {
				logger.WithError(err).Error("Failed to list credentials")
				continue
			}
			if len(creds) == 0 {
				fmt.Println("no credentials on file")
				continue
			}
			for _, c := range creds {
				fmt.Printf("  %s (updated %s)\n", c.Exchange, c.UpdatedAt.Format("2006-01-02 15:04:05"))
			}

		default:
			printUsage()
		}
	}
}
