package main

import (
	"errors"
	"os"
	"time"

	"github.com/spf13/cobra"

	"relay-back/internal/client"
)

const defaultServer = "http://localhost:8080/api"

var errNoUser = errors.New("user is required: pass --user or set RELAY_USER")

var (
	serverURL string
	userID    string
	timeout   time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "relay-client",
	Short: "Send and receive messages through a relay server",
	Long: `relay-client talks to a relay server over HTTP. Messages wait in the
recipient's inbox until the recipient fetches, acknowledges and removes them.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", envOr("RELAY_SERVER", defaultServer), "relay API base url")
	rootCmd.PersistentFlags().StringVarP(&userID, "user", "u", os.Getenv("RELAY_USER"), "identity to act as")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "per-request timeout")
}

func newClient() *client.Client {
	return client.New(serverURL, client.WithTimeout(timeout))
}

func requireUser() (string, error) {
	if userID == "" {
		return "", errNoUser
	}

	return userID, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}
