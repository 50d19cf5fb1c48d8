package main

import (
	"context"
	"errors"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and link this device to the account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		email, password, err := credentials(cmd)
		if err != nil {
			return err
		}
		return withRuntime(cmd, true, func(ctx context.Context, rt *runtime) error {
			res, err := rt.agent.SignIn(ctx, email, password)
			if err != nil {
				return err
			}
			pterm.Success.Printf("Signed in as %s (%s)\n", email, res.UserID)
			return nil
		})
	},
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account and link this device to it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		email, password, err := credentials(cmd)
		if err != nil {
			return err
		}
		name, _ := cmd.Flags().GetString("name")
		if name == "" {
			return errors.New("--name is required")
		}
		return withRuntime(cmd, true, func(ctx context.Context, rt *runtime) error {
			res, err := rt.agent.SignUp(ctx, email, password, name)
			if err != nil {
				return err
			}
			pterm.Success.Printf("Account created for %s (%s)\n", email, res.UserID)
			return nil
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the local session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withRuntime(cmd, false, func(ctx context.Context, rt *runtime) error {
			if err := rt.sessions().Clear(ctx); err != nil {
				return err
			}
			pterm.Info.Println("Signed out")
			return nil
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{loginCmd, signupCmd} {
		c.Flags().String("email", "", "Account email")
		c.Flags().String("password", "", "Account password (prompted when empty)")
	}
	signupCmd.Flags().String("name", "", "Display name")
}

func credentials(cmd *cobra.Command) (string, string, error) {
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")
	if email == "" {
		return "", "", errors.New("--email is required")
	}
	if password == "" {
		var err error
		password, err = pterm.DefaultInteractiveTextInput.WithMask("*").Show("Password")
		if err != nil {
			return "", "", err
		}
	}
	return email, password, nil
}
