package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"ai-docview/internal/dto"
	"ai-docview/internal/entity"
	"ai-docview/internal/service"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var errNotSignedIn = errors.New("not signed in, run `docview login` first")

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with Google and open a document service session",
	Long: `Without flags, login starts a local callback server, prints the Google
consent URL and waits for the browser to come back. With --id-token the
given Google id token is exchanged directly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		idToken, _ := cmd.Flags().GetString("id-token")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		var res service.ExchangeResult
		if idToken != "" {
			res = app.Identity.SignIn(cmd.Context(), entity.IdentityAssertion{IdToken: idToken})
		} else {
			var err error
			if res, err = browserLogin(cmd, timeout); err != nil {
				return err
			}
		}
		printExchange(res)
		return nil
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Renew the Google identity and repeat the session exchange",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := app.OAuth.Refresh(cmd.Context())
		if err != nil {
			return err
		}
		printExchange(res)
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		record := app.Sessions.Current()
		if record == nil {
			if asJSON {
				return json.NewEncoder(os.Stdout).Encode(dto.WhoAmIResponse{User: map[string]interface{}{}})
			}
			color.Yellow("Not signed in")
			return nil
		}

		projected := app.Identity.ProjectSession(record)
		res := dto.WhoAmIResponse{
			Authenticated: record.HasBackendToken(),
			Subject:       record.Profile.Subject,
			User:          projected.User,
		}
		if !record.Expiry.IsZero() {
			res.ExpiresAt = record.Expiry.Format(time.RFC3339)
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}

		fmt.Printf("%s %v <%v>\n", color.CyanString("User:"), res.User["name"], res.User["email"])
		fmt.Printf("%s %v\n", color.CyanString("Id:  "), res.User["id"])
		if res.Authenticated {
			color.Green("Document service session active")
		} else {
			color.Yellow("Signed in with Google only; the document service has not accepted this identity")
		}
		if res.ExpiresAt != "" {
			fmt.Printf("Google identity expires %s\n", res.ExpiresAt)
		}
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.Identity.SignOut(cmd.Context()); err != nil {
			return err
		}
		color.Green("Signed out")
		return nil
	},
}

func init() {
	loginCmd.Flags().String("id-token", "", "exchange this Google id token instead of opening the browser flow")
	loginCmd.Flags().Duration("timeout", 5*time.Minute, "how long to wait for the browser callback")
	whoamiCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(loginCmd, refreshCmd, whoamiCmd, logoutCmd)
}

// browserLogin serves the OAuth callback locally until one outcome arrives.
func browserLogin(cmd *cobra.Command, timeout time.Duration) (service.ExchangeResult, error) {
	url, err := app.OAuth.GetLoginURL("google")
	if err != nil {
		return service.ExchangeResult{}, err
	}

	callback := app.CallbackApp()
	listenErr := make(chan error, 1)
	go func() {
		listenErr <- callback.Listen("127.0.0.1:" + app.Config.Google.CallbackPort)
	}()
	defer func() { _ = callback.Shutdown() }()

	fmt.Println("Open this URL in your browser to sign in:")
	fmt.Println(color.CyanString(url))

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case outcome := <-app.OAuthController.Outcomes():
		return outcome.Result, outcome.Err
	case err := <-listenErr:
		return service.ExchangeResult{}, fmt.Errorf("callback server: %w", err)
	case <-timer.C:
		return service.ExchangeResult{}, fmt.Errorf("no sign-in within %s", timeout)
	case <-cmd.Context().Done():
		return service.ExchangeResult{}, cmd.Context().Err()
	}
}

func printExchange(res service.ExchangeResult) {
	projected := app.Identity.ProjectSession(&res.Session)
	if res.Authenticated {
		color.Green("Signed in as %v <%v>", projected.User["name"], projected.User["email"])
		return
	}
	color.Yellow("Signed in with Google as %v, but the document service did not accept the identity", projected.User["email"])
	if res.Failure != nil {
		fmt.Fprintln(os.Stderr, color.YellowString("  %v", res.Failure))
	}
}
