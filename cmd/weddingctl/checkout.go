package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/weddingplanner/weddingplanner/internal/logger"
	weddingplanner "github.com/weddingplanner/weddingplanner/sdk/go"
)

type clientFlags struct {
	apiURL   string
	email    string
	logLevel string
}

func (f *clientFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.apiURL, "api-url", envOr("WEDDING_API_URL", "http://localhost:8080"), "API base URL")
	cmd.Flags().StringVar(&f.email, "email", os.Getenv("WEDDING_CLIENT_EMAIL"), "client account email")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "warn", "log level")
}

// login signs in with the password from WEDDING_CLIENT_PASSWORD and stores
// the token the way the web app does.
func (f *clientFlags) login(cmd *cobra.Command, client *weddingplanner.Client, session weddingplanner.SessionStore) error {
	if f.email == "" {
		return errors.New("--email is required")
	}
	password := os.Getenv("WEDDING_CLIENT_PASSWORD")
	if password == "" {
		return errors.New("WEDDING_CLIENT_PASSWORD is not set")
	}

	auth, err := client.Login(cmd.Context(), f.email, password)
	if err != nil {
		return fmt.Errorf("login failed: %s", weddingplanner.Message(err))
	}
	session.Set(weddingplanner.ScopeLocal, weddingplanner.KeyToken, auth.Token)
	if auth.User != nil {
		session.Set(weddingplanner.ScopeLocal, weddingplanner.KeyUserRole, auth.User.Role)
	}
	return nil
}

func newCheckoutCmd() *cobra.Command {
	var flags clientFlags
	var cartPath string

	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Book every service in a cart file and open a payment for the first",
		Long: "Reads a JSON array of cart items, creates a booking for each and prints\n" +
			"the hosted checkout URL. Without --email the checkout runs anonymously\n" +
			"and is sent to the login page.",
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := loadCart(cartPath)
			if err != nil {
				return err
			}

			log := logger.NewWithWriter(cmd.ErrOrStderr(), flags.logLevel, "text")
			client := weddingplanner.NewClient(weddingplanner.Config{BaseURL: flags.apiURL})
			session := weddingplanner.NewMemorySessionStore()
			if flags.email != "" {
				if err := flags.login(cmd, client, session); err != nil {
					return err
				}
			}

			term := &terminal{out: cmd.OutOrStdout()}
			co, err := weddingplanner.NewCheckout(weddingplanner.CheckoutConfig{
				API:       client,
				Cart:      weddingplanner.NewMemoryCart(items...),
				Session:   session,
				Navigator: term,
				Notifier:  term,
				Logger:    &log.Logger,
			})
			if err != nil {
				return err
			}

			res, err := co.Checkout(cmd.Context())
			var partial *weddingplanner.PartialCheckoutError
			if errors.As(err, &partial) {
				for _, b := range partial.Created {
					fmt.Fprintf(cmd.OutOrStdout(), "left unpaid: booking %s\n", b.ID)
				}
			}
			if err != nil {
				return err
			}

			txRef, _ := session.Get(weddingplanner.ScopeSession, weddingplanner.KeyPaymentTxRef)
			fmt.Fprintf(cmd.OutOrStdout(), "tx_ref: %s\n", txRef)
			for _, b := range res.UnpaidBookings {
				fmt.Fprintf(cmd.OutOrStdout(), "still to pay: booking %s\n", b.ID)
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&cartPath, "cart", "cart.json", "cart file, or - for stdin")
	return cmd
}

func newVerifyCmd() *cobra.Command {
	var flags clientFlags

	cmd := &cobra.Command{
		Use:   "verify [tx_ref]",
		Short: "Verify a payment after returning from the hosted checkout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := weddingplanner.NewClient(weddingplanner.Config{BaseURL: flags.apiURL})
			session := weddingplanner.NewMemorySessionStore()
			if err := flags.login(cmd, client, session); err != nil {
				return err
			}
			token, _ := session.Get(weddingplanner.ScopeLocal, weddingplanner.KeyToken)

			res, err := client.VerifyPayment(cmd.Context(), token, args[0])
			if err != nil {
				return fmt.Errorf("verification failed: %s", weddingplanner.Message(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", res.TxRef, res.Status)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

// loadCart reads a JSON array of cart items from path, or stdin for "-".
func loadCart(path string) ([]weddingplanner.CartItem, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open cart: %w", err)
		}
		defer f.Close()
		r = f
	}

	var items []weddingplanner.CartItem
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to parse cart: %w", err)
	}
	for i := range items {
		if items[i].Type == "" {
			items[i].Type = "service"
		}
	}
	return items, nil
}

// terminal prints navigation and notices instead of driving a browser.
type terminal struct {
	out io.Writer
}

func (t *terminal) Navigate(path string) { fmt.Fprintf(t.out, "-> %s\n", path) }
func (t *terminal) Redirect(url string)  { fmt.Fprintf(t.out, "checkout: %s\n", url) }
func (t *terminal) Info(msg string)      { fmt.Fprintf(t.out, "info: %s\n", msg) }
func (t *terminal) Error(msg string)     { fmt.Fprintf(t.out, "error: %s\n", msg) }

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
