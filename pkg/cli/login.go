package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/upshift-tools/upshift/pkg/auth"
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the Upshift service",
		Long: `Sign in using the device authorization flow.

The command prints a verification URL and a short code. Open the URL on
any device, enter the code, and the CLI completes the sign-in once the
grant is approved.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := activeProfile()
			if err != nil {
				return err
			}

			flow := &auth.DeviceFlow{
				Issuer:   profile.IssuerURL,
				ClientID: profile.GetClientID(),
			}

			da, err := flow.Start(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("Open %s and enter the code:\n\n", da.VerificationURI)
			color.Cyan("    %s", da.UserCode)
			if da.VerificationURIComplete != "" {
				fmt.Printf("\nOr open %s directly.\n", da.VerificationURIComplete)
			}
			fmt.Println("\nWaiting for approval...")

			token, err := flow.Wait(cmd.Context(), da)
			if err != nil {
				return err
			}

			tokens, err := newTokenManager(profile)
			if err != nil {
				return err
			}
			if err := tokens.SetToken(token); err != nil {
				return err
			}

			if identity, err := auth.ParseIdentity(token.AccessToken); err == nil && identity.Email != "" {
				color.Green("✓ Signed in as %s", identity.Email)
			} else {
				color.Green("✓ Signed in")
			}
			return nil
		},
	}

	return loginCmd
}

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the cached session",
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := activeProfile()
			if err != nil {
				return err
			}
			tokens, err := newTokenManager(profile)
			if err != nil {
				return err
			}
			if err := tokens.Clear(); err != nil {
				return err
			}
			color.Green("✓ Signed out")
			return nil
		},
	}
}

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := activeProfile()
			if err != nil {
				return err
			}
			tokens, err := newTokenManager(profile)
			if err != nil {
				return err
			}

			accessToken, err := tokens.Token(cmd.Context())
			if err != nil {
				return err
			}

			if identity, err := auth.ParseIdentity(accessToken); err == nil {
				printIdentity(identity.Name, identity.Email, identity.Subject)
				return nil
			}

			// Opaque token, ask the service who we are
			api, err := newClient(profile)
			if err != nil {
				return err
			}
			user, err := api.GetUser(cmd.Context())
			if err != nil {
				return err
			}
			printIdentity(user.Name, user.Email, user.ID)
			return nil
		},
	}
}

func printIdentity(name, email, subject string) {
	if name != "" {
		fmt.Printf("Name:    %s\n", name)
	}
	if email != "" {
		fmt.Printf("Email:   %s\n", email)
	}
	fmt.Printf("Subject: %s\n", subject)
}
