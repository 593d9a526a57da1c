package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/jrsteele09/rdp-proxy/data"
	"github.com/jrsteele09/rdp-proxy/internal/config"
	"github.com/jrsteele09/rdp-proxy/internal/logging"
	"github.com/jrsteele09/rdp-proxy/token"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// PasswordReader asks the user for the password without echoing it.
type PasswordReader func(prompt string) (string, error)

// Execute runs the terminal client against the configured proxy.
func Execute() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration.")
		os.Exit(1)
	}
	logging.Setup(os.Stderr, cfg.GetEnv(), cfg.GetLogLevel())

	rootCmd := NewRootCmd(cfg, promptForPassword)
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Command execution failed.")
		os.Exit(1)
	}
}

type app struct {
	cfg          config.Config
	readPassword PasswordReader

	username string
	appKey   string
	baseURL  string
}

// NewRootCmd builds the command tree. Flag defaults come from cfg.
func NewRootCmd(cfg config.Config, readPassword PasswordReader) *cobra.Command {
	a := &app{cfg: cfg, readPassword: readPassword}

	rootCmd := &cobra.Command{
		Use:           "rdpcli",
		Short:         "Query the Refinitiv Data Platform through the same-origin proxy",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&a.username, "username", "u", cfg.GetUsername(), "Machine ID used to log in [RDP_USERNAME]")
	rootCmd.PersistentFlags().StringVarP(&a.appKey, "app-key", "k", cfg.GetAppKey(), "Application key sent as client_id [RDP_APP_KEY]")
	rootCmd.PersistentFlags().StringVar(&a.baseURL, "base-url", cfg.GetProxyURL(), "Proxy (or platform) base URL [RDP_PROXY_URL]")

	rootCmd.AddCommand(
		a.esgCmd(),
		a.newsCmd(),
		a.symbologyCmd("symbology", "Map a RIC to its ISIN and exchange ticker", data.TargetSymbology),
		a.symbologyCmd("permid", "Map a RIC to its organization PermID", data.TargetPermID),
		a.sessionCmd(),
	)

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	rootCmd.SetHelpCommand(&cobra.Command{
		Use:    "no-help",
		Hidden: true,
	})

	return rootCmd
}

func (a *app) httpClient() *http.Client {
	return &http.Client{Timeout: a.cfg.GetRequestTimeout()}
}

func (a *app) newManager(opts ...token.ManagerOption) (*token.Manager, error) {
	opts = append([]token.ManagerOption{
		token.WithHTTPClient(a.httpClient()),
		token.WithRefreshTimeout(a.cfg.GetRequestTimeout()),
	}, opts...)
	return token.NewManager(a.baseURL, a.cfg, opts...)
}

func (a *app) credentials() (token.Credentials, error) {
	creds := token.Credentials{Username: a.username, ClientID: a.appKey}
	if creds.Username == "" || creds.ClientID == "" {
		// Login reports the missing credentials without prompting.
		return creds, nil
	}
	password, err := a.readPassword("Password: ")
	if err != nil {
		return creds, fmt.Errorf("failed to read password: %w", err)
	}
	creds.Password = password
	return creds, nil
}

// withSession logs in, runs fn with the access token and always revokes the
// session afterwards.
func (a *app) withSession(ctx context.Context, fn func(ctx context.Context, client *data.Client, accessToken string) error) error {
	creds, err := a.credentials()
	if err != nil {
		return err
	}
	manager, err := a.newManager()
	if err != nil {
		return err
	}
	defer manager.Close()
	client, err := data.NewClient(a.baseURL, a.cfg, data.WithHTTPClient(a.httpClient()))
	if err != nil {
		return err
	}

	if err := manager.Login(ctx, creds); err != nil {
		return err
	}
	accessToken, _ := manager.CurrentAccessToken()

	runErr := fn(ctx, client, accessToken)
	if err := manager.Revoke(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to revoke the session")
		if runErr == nil {
			runErr = err
		}
	}
	return runErr
}

func (a *app) esgCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "esg SYMBOL",
		Short: "Fetch the ESG view for an instrument",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd.Context(), func(ctx context.Context, client *data.Client, accessToken string) error {
				result, err := client.FetchESG(ctx, strings.TrimSpace(args[0]), accessToken)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result)
			})
		},
	}
}

func (a *app) newsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "news SYMBOL",
		Short: "Fetch the latest news headlines for an instrument",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd.Context(), func(ctx context.Context, client *data.Client, accessToken string) error {
				result, err := client.FetchNewsHeadlines(ctx, strings.TrimSpace(args[0]), accessToken)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result)
			})
		},
	}
}

func (a *app) symbologyCmd(use, short string, target data.Target) *cobra.Command {
	var table bool
	cmd := &cobra.Command{
		Use:   use + " SYMBOL",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd.Context(), func(ctx context.Context, client *data.Client, accessToken string) error {
				resp, err := client.LookupSymbology(ctx, strings.TrimSpace(args[0]), target, accessToken)
				if err != nil {
					return err
				}
				if table {
					RenderSymbologyTable(cmd.OutOrStdout(), resp)
					return nil
				}
				return printJSON(cmd.OutOrStdout(), resp)
			})
		},
	}
	cmd.Flags().BoolVarP(&table, "table", "t", false, "Print the matches as a table instead of JSON")
	return cmd
}

// lockedWriter serializes writes from the refresh goroutine and the command.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// promptForPassword reads the password from the terminal without echo.
func promptForPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", err
		}
		return strings.TrimSpace(line), nil
	}
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(password)), nil
}
