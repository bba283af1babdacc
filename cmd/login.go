package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jfmyers9/lastfmkit/internal/config"
	"github.com/jfmyers9/lastfmkit/pkg/lastfm"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to Last.fm",
	Long: `Sign in to Last.fm and keep the session locally.

You'll be prompted for your Last.fm API key and secret if none are
configured, then for your username and password. With --web, lfm instead
prints a URL to authorize in your browser, so your password is never
entered here.

Session keys do not expire; you only need to sign in once.

You can get API credentials from: https://www.last.fm/api/account/create`,
	RunE: runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)

	loginCmd.Flags().Bool("web", false, "Authorize in a browser instead of entering a password")
	loginCmd.Flags().StringP("username", "u", "", "Last.fm username")
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	reader := bufio.NewReader(os.Stdin)
	out := cmd.OutOrStdout()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Fprintln(out, "Last.fm Authentication")
	fmt.Fprintln(out, "======================")
	fmt.Fprintln(out)

	changed, err := promptCredentials(out, reader, cfg)
	if err != nil {
		return err
	}

	a, err := newAppWithConfig(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	web, _ := cmd.Flags().GetBool("web")
	var session *lastfm.Session
	if web {
		session, err = loginWithBrowser(ctx, out, reader, a.client)
	} else {
		username, _ := cmd.Flags().GetString("username")
		session, err = loginWithPassword(ctx, out, reader, a.client, username)
	}
	if err != nil {
		return err
	}

	if changed {
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		fmt.Fprintf(out, "✓ API credentials saved to %s/config.yaml\n", config.GetConfigDir())
	}
	fmt.Fprintf(out, "\n✓ Signed in as %s\n", session.Name())
	if session.Subscriber() {
		fmt.Fprintln(out, "✓ Last.fm subscriber")
	}
	return nil
}

// promptCredentials asks for the API key and secret when they are missing
// or the user wants to replace them. It reports whether cfg changed.
func promptCredentials(out io.Writer, reader *bufio.Reader, cfg *config.Config) (bool, error) {
	if cfg.LastFM.APIKey != "" && cfg.LastFM.APISecret != "" {
		fmt.Fprintf(out, "Found existing API credentials.\n")
		fmt.Fprintf(out, "API Key: %s\n", cfg.LastFM.APIKey)
		fmt.Fprint(out, "\nUse existing credentials? [Y/n]: ")
		response, err := reader.ReadString('\n')
		if err != nil {
			response = "y"
		}
		response = strings.TrimSpace(strings.ToLower(response))
		if response == "" || response == "y" || response == "yes" {
			return false, nil
		}
		cfg.LastFM.APIKey = ""
		cfg.LastFM.APISecret = ""
	}

	fmt.Fprintln(out, "You can get API credentials from: https://www.last.fm/api/account/create")
	fmt.Fprintln(out)

	apiKey, err := prompt(out, reader, "Enter your Last.fm API Key: ")
	if err != nil {
		return false, fmt.Errorf("failed to read API key: %w", err)
	}
	apiSecret, err := prompt(out, reader, "Enter your Last.fm API Secret: ")
	if err != nil {
		return false, fmt.Errorf("failed to read API secret: %w", err)
	}
	if apiKey == "" || apiSecret == "" {
		return false, errors.New("API key and secret are required")
	}

	cfg.LastFM.APIKey = apiKey
	cfg.LastFM.APISecret = apiSecret
	return true, nil
}

func prompt(out io.Writer, reader *bufio.Reader, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// readPassword reads without echo when stdin is a terminal.
func readPassword(out io.Writer, reader *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return prompt(out, reader, "Password: ")
	}
	fmt.Fprint(out, "Password: ")
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func loginWithPassword(ctx context.Context, out io.Writer, reader *bufio.Reader, client *lastfm.Client, username string) (*lastfm.Session, error) {
	if username == "" {
		var err error
		if username, err = prompt(out, reader, "Username: "); err != nil {
			return nil, fmt.Errorf("failed to read username: %w", err)
		}
	}
	password, err := readPassword(out, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	if username == "" || password == "" {
		return nil, errors.New("username and password are required")
	}

	fmt.Fprintln(out, "\nSigning in...")
	session, err := lastfm.Await(ctx, func(done func(*lastfm.Session, error)) *lastfm.Operation {
		return client.Auth().Login(username, password, done)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign in: %w", err)
	}
	return session, nil
}

func loginWithBrowser(ctx context.Context, out io.Writer, reader *bufio.Reader, client *lastfm.Client) (*lastfm.Session, error) {
	fmt.Fprintln(out, "\nGenerating authentication token...")
	token, err := lastfm.Await(ctx, func(done func(*lastfm.Token, error)) *lastfm.Operation {
		return client.Auth().GetToken(done)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate auth token: %w", err)
	}

	fmt.Fprintln(out, "\nPlease visit this URL to authorize lfm:")
	fmt.Fprintf(out, "\n  %s\n\n", client.Auth().AuthURL(token.Token))
	fmt.Fprintln(out, "After authorizing, press Enter to continue...")
	_, _ = reader.ReadString('\n')

	// The token stays unauthorized until the browser step completes.
	fmt.Fprintln(out, "Retrieving session key...")
	const maxRetries = 3
	retryDelay := 2 * time.Second

	var session *lastfm.Session
	for i := 0; i < maxRetries; i++ {
		session, err = lastfm.Await(ctx, func(done func(*lastfm.Session, error)) *lastfm.Operation {
			return client.Auth().LoginWithToken(token.Token, done)
		})
		if err == nil || !errors.Is(err, &lastfm.Error{Code: lastfm.ErrCodeUnauthorizedToken}) {
			break
		}

		if i < maxRetries-1 {
			fmt.Fprintf(out, "Token not authorized yet (attempt %d/%d). Retrying in %v...\n",
				i+1, maxRetries, retryDelay)
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session key: %w", err)
	}
	return session, nil
}
