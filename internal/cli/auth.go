package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/BerylCAtieno/loanmitra/internal/models"
	"github.com/BerylCAtieno/loanmitra/internal/utils"
)

const signInWait = 10 * time.Minute

func newLoginCommand(a *app) *cobra.Command {
	var provider, token string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to LoanMitra",
		Long: `Sign in with an OAuth provider.

Without --token the sign-in URL is printed and copied to the clipboard.
Open it in a browser; the callback page shows a token. Paste it into
` + "`loanmitra login --token <token>`" + ` from any terminal and this command
picks it up.

Examples:
  loanmitra login
  loanmitra login --token eyJhbGciOi...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if token != "" {
				return a.loginWithToken(ctx, token)
			}
			return a.loginInteractive(ctx, provider)
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "google", "OAuth provider")
	cmd.Flags().StringVar(&token, "token", "", "Store a token issued by the sign-in callback")
	return cmd
}

func (a *app) loginWithToken(ctx context.Context, token string) error {
	if err := a.store.SaveToken(strings.TrimSpace(token)); err != nil {
		return err
	}
	user, err := a.client.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if user == nil {
		_ = a.store.Clear()
		return fmt.Errorf("%w: the token was rejected", utils.ErrAuthRequired)
	}
	a.println(formatSuccess("Signed in as " + displayName(user)))
	return nil
}

func (a *app) loginInteractive(ctx context.Context, provider string) error {
	if err := a.gate.Mount(ctx); err != nil {
		return err
	}
	if user := a.gate.User(); user != nil {
		a.println(formatInfo("Already signed in as " + displayName(user)))
		return nil
	}

	signedIn := make(chan *models.User, 1)
	cancel := a.gate.Watch(func(u *models.User) {
		if u != nil {
			select {
			case signedIn <- u:
			default:
			}
		}
	})
	defer cancel()

	if err := a.gate.SignIn(ctx, provider); err != nil {
		return err
	}

	a.println(formatMuted("Waiting for sign-in to finish. Press Ctrl+C to stop."))
	ctx, stop := context.WithTimeout(ctx, signInWait)
	defer stop()
	select {
	case u := <-signedIn:
		a.println(formatSuccess("Signed in as " + displayName(u)))
		return nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("timed out waiting for sign-in")
		}
		return ctx.Err()
	}
}

// showSignInURL is how the session gate hands a sign-in URL to the user.
func (a *app) showSignInURL(url string) error {
	a.println(formatInfo("Open this URL to sign in:"))
	a.println(styleBold.Render(url))
	if err := clipboard.WriteAll(url); err != nil {
		a.println(formatMuted("(Clipboard access failed, please copy manually)"))
	} else {
		a.println(formatMuted("(Copied to clipboard)"))
	}
	return nil
}

func newLogoutCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.Clear(); err != nil {
				return err
			}
			a.println(formatSuccess("Signed out"))
			return nil
		},
	}
}

func newWhoamiCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.gate.Mount(cmd.Context()); err != nil {
				return err
			}
			user := a.gate.User()
			if user == nil {
				a.println(formatWarning("Not signed in"))
				return nil
			}
			a.printf("%s\n%s %s\n", styleBold.Render(displayName(user)), formatMuted("id:"), user.ID)
			return nil
		},
	}
}

func displayName(u *models.User) string {
	switch {
	case u.Name != "" && u.Email != "":
		return fmt.Sprintf("%s <%s>", u.Name, u.Email)
	case u.Email != "":
		return u.Email
	case u.Name != "":
		return u.Name
	}
	return u.ID
}
