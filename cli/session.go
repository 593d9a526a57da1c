package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jrsteele09/rdp-proxy/token"
	"github.com/jrsteele09/rdp-proxy/token/jwt"
	"github.com/spf13/cobra"
)

// sessionCmd keeps one session alive and prints every renewal until it is
// interrupted or the duration elapses.
func (a *app) sessionCmd() *cobra.Command {
	var duration time.Duration
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Log in and keep the token refreshed until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := &lockedWriter{w: cmd.OutOrStdout()}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}

			creds, err := a.credentials()
			if err != nil {
				return err
			}
			var manager *token.Manager
			manager, err = a.newManager(
				token.OnRefresh(func(state token.State) {
					fmt.Fprintln(out, "Token refreshed")
					printState(out, state, manager)
				}),
				token.OnRefreshError(func(err error) {
					fmt.Fprintf(out, "Refresh failed, keeping the current token: %v\n", err)
				}),
			)
			if err != nil {
				return err
			}
			defer manager.Close()

			if err := manager.Login(ctx, creds); err != nil {
				return err
			}
			fmt.Fprintln(out, "Authentication to RDP success")
			printState(out, manager.Snapshot(), manager)

			<-ctx.Done()

			// ctx is done, so revoke on a fresh deadline.
			revokeCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GetRequestTimeout())
			defer cancel()
			if err := manager.Revoke(revokeCtx); err != nil {
				return err
			}
			fmt.Fprintln(out, "Logout user success")
			return nil
		},
	}
	cmd.Flags().DurationVarP(&duration, "duration", "d", 0, "Stop after this long (0 runs until interrupted)")
	return cmd
}

func printState(w io.Writer, state token.State, manager *token.Manager) {
	fmt.Fprintf(w, "  expires:      %s\n", formatTime(state.Expiry()))
	if next, ok := manager.NextRefresh(); ok {
		fmt.Fprintf(w, "  next refresh: %s\n", formatTime(next))
	} else {
		fmt.Fprintln(w, "  next refresh: none")
	}

	claims, err := jwt.Inspect(state.AccessToken)
	if err != nil {
		return
	}
	if claims.Subject != "" {
		fmt.Fprintf(w, "  subject:      %s\n", claims.Subject)
	}
	if len(claims.Scopes) > 0 {
		fmt.Fprintf(w, "  scopes:       %d granted\n", len(claims.Scopes))
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.Local().Format(time.TimeOnly)
}
