package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"relay-back/internal/apperrors"
	"relay-back/internal/client"
	"relay-back/internal/model"
	"relay-back/pkg/logger"
)

var (
	sendKey      string
	clearPurge   bool
	watchPoll    bool
	watchEvery   time.Duration
	registerPass string
)

var sendCmd = &cobra.Command{
	Use:   "send <to> <content>",
	Short: "Send a message",
	Args:  cobra.ExactArgs(2),
	RunE:  runSend,
}

var inboxCmd = &cobra.Command{
	Use:   "inbox",
	Short: "List pending messages without removing them",
	Args:  cobra.NoArgs,
	RunE:  runInbox,
}

var ackCmd = &cobra.Command{
	Use:   "ack <id>",
	Short: "Mark a message as received",
	Args:  cobra.ExactArgs(1),
	RunE:  runAck,
}

var rmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Remove a message from the inbox",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop every pending message of the user",
	Args:  cobra.NoArgs,
	RunE:  runClear,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print incoming messages, acknowledging and removing each one",
	Long: `Watch streams the inbox over a websocket and prints every new message.
Each printed message is acknowledged and then removed. With --poll the inbox
is fetched at a fixed interval instead.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List registered identities",
	Args:  cobra.NoArgs,
	RunE:  runUsers,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register the identity given by --user",
	Args:  cobra.NoArgs,
	RunE:  runRegister,
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Show relay counters",
	Args:  cobra.NoArgs,
	RunE:  runHealth,
}

func init() {
	sendCmd.Flags().StringVarP(&sendKey, "key", "k", "", "idempotency key for safe retries")
	clearCmd.Flags().BoolVar(&clearPurge, "purge", false, "also delete the messages from the store")
	watchCmd.Flags().BoolVar(&watchPoll, "poll", false, "poll instead of streaming")
	watchCmd.Flags().DurationVar(&watchEvery, "interval", 2*time.Second, "poll interval")
	registerCmd.Flags().StringVarP(&registerPass, "password", "p", "", "password")

	rootCmd.AddCommand(sendCmd, inboxCmd, ackCmd, rmCmd, clearCmd, watchCmd, usersCmd, registerCmd, healthCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	from, err := requireUser()
	if err != nil {
		return err
	}

	id, err := newClient().SendIdempotent(cmd.Context(), sendKey, from, args[0], args[1])
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), id)

	return nil
}

func runInbox(cmd *cobra.Command, _ []string) error {
	user, err := requireUser()
	if err != nil {
		return err
	}

	messages, err := newClient().Fetch(cmd.Context(), user)
	if err != nil {
		return fmt.Errorf("fetch inbox: %w", err)
	}

	if len(messages) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No pending messages")
		return nil
	}

	for _, message := range messages {
		printMessage(cmd.OutOrStdout(), message)
	}

	return nil
}

func runAck(cmd *cobra.Command, args []string) error {
	message, err := newClient().Acknowledge(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("acknowledge: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Acknowledged %s\n", message.ID)

	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	err := newClient().Remove(cmd.Context(), userID, args[0])

	switch {
	case errors.Is(err, apperrors.ErrMessageDoesNotExist):
		fmt.Fprintf(cmd.OutOrStdout(), "%s already removed\n", args[0])
	case err != nil:
		return fmt.Errorf("remove: %w", err)
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
	}

	return nil
}

func runClear(cmd *cobra.Command, _ []string) error {
	user, err := requireUser()
	if err != nil {
		return err
	}

	dropped, err := newClient().ClearInbox(cmd.Context(), user, clearPurge)
	if err != nil {
		return fmt.Errorf("clear inbox: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Dropped %d messages\n", len(dropped))

	return nil
}

func runWatch(cmd *cobra.Command, _ []string) error {
	user, err := requireUser()
	if err != nil {
		return err
	}

	log, err := logger.SetupLogger(&logger.Config{Level: "warn"})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	out := cmd.OutOrStdout()

	session := client.NewSession(newClient(), user,
		func(_ context.Context, message model.Message) error {
			printMessage(out, message)
			return nil
		},
		client.WithPollInterval(watchEvery),
		client.WithLogger(log),
	)

	if watchPoll {
		return session.Run(cmd.Context())
	}

	if err := session.Watch(cmd.Context()); err != nil {
		log.Warn("Stream failed, falling back to polling", zap.Error(err))
		return session.Run(cmd.Context())
	}

	return nil
}

func runUsers(cmd *cobra.Command, _ []string) error {
	users, err := newClient().Users(cmd.Context())
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	for _, user := range users {
		fmt.Fprintln(cmd.OutOrStdout(), user)
	}

	return nil
}

func runRegister(cmd *cobra.Command, _ []string) error {
	user, err := requireUser()
	if err != nil {
		return err
	}

	registered, err := newClient().Register(cmd.Context(), user, registerPass)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Registered %s at %s\n", registered.ID, registered.CreatedAt.Format(time.DateTime))

	return nil
}

func runHealth(cmd *cobra.Command, _ []string) error {
	health, err := newClient().Health(cmd.Context())
	if err != nil {
		return fmt.Errorf("health: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Messages: %d\n", health.MessageCount)
	fmt.Fprintf(out, "Inboxes:  %d\n", health.InboxCount)
	fmt.Fprintf(out, "Pending:  %d\n", health.PendingCount)
	fmt.Fprintf(out, "Users:    %d\n", health.UserCount)
	fmt.Fprintf(out, "Uptime:   %s\n", time.Duration(health.UptimeSeconds*float64(time.Second)).Round(time.Second))

	return nil
}

func printMessage(w io.Writer, message model.Message) {
	status := "new"
	if message.Verified {
		status = "verified"
	}

	fmt.Fprintf(w, "[%s] %s %s -> %s (%s)\n    %s\n",
		message.Timestamp.Local().Format(time.DateTime),
		message.ID,
		message.From,
		message.To,
		status,
		message.Content,
	)
}
