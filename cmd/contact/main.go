// Command contact submits the portfolio contact form from the terminal. It
// posts to the same relay endpoint the website uses.
//
// Usage:
//
//	contact send --first Jane --last Doe --email jane@example.com \
//	    --subject Hello --message "Let's talk" --base-url https://relay.example.com
//	contact validate-email jane@example.com
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/venkat210105/portfolio/contact"
	"github.com/venkat210105/portfolio/logging"
)

// errFailed marks a command that already reported its failure on stdout.
var errFailed = errors.New("contact: submission failed")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "contact",
		Short:         "Send and check portfolio contact messages",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newSendCmd(), newValidateEmailCmd())
	return root
}

type sendOptions struct {
	form    contact.Form
	baseURL string
	timeout time.Duration
	verbose bool
}

func newSendCmd() *cobra.Command {
	var opts sendOptions

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Submit a contact message to the relay",
		Long: `Submit a contact message to the relay and print the JSON result.
The relay base URL comes from --base-url or CONTACT_API_URL.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSend(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.form.FirstName, "first", "", "First name")
	f.StringVar(&opts.form.LastName, "last", "", "Last name")
	f.StringVar(&opts.form.Email, "email", "", "Reply-to email address")
	f.StringVar(&opts.form.Subject, "subject", "", "Subject line")
	f.StringVar(&opts.form.Message, "message", "", "Message body")
	f.StringVar(&opts.baseURL, "base-url", "", "Relay base URL (default $CONTACT_API_URL)")
	f.DurationVar(&opts.timeout, "timeout", 30*time.Second, "Give up after this long")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Log to stderr")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func runSend(cmd *cobra.Command, opts sendOptions) error {
	baseURL := opts.baseURL
	if baseURL == "" {
		baseURL = os.Getenv("CONTACT_API_URL")
	}
	if baseURL == "" {
		return errors.New("relay URL required (use --base-url or CONTACT_API_URL env)")
	}

	logger := zap.NewNop()
	if opts.verbose {
		l, err := logging.NewDevelopment()
		if err != nil {
			return err
		}
		defer l.Sync()
		logger = l
	}

	ctrl, err := contact.New(baseURL, contact.WithLogger(logger))
	if err != nil {
		return err
	}
	for _, field := range contact.Fields {
		if err := ctrl.SetField(field, opts.form.Get(field)); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()
	res := ctrl.Submit(ctx)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return err
	}
	if !res.Success {
		return errFailed
	}
	return nil
}

func newValidateEmailCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-email <address>",
		Short: "Check an address the way the contact form does",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := contact.ValidateEmail(args[0]); err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), err)
				return errFailed
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}
