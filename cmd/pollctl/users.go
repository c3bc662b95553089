package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vncsmyrnk/pollsite/internal/core/ports"
)

func newUsersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage accounts",
	}
	cmd.AddCommand(newUsersAddCmd(a))
	return cmd
}

func newUsersAddCmd(a *app) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an account with the signup rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repos, svc, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer repos.Close()

			user, err := svc.Users.Register(cmd.Context(), ports.SignupInput{
				Username:  username,
				Password1: password,
				Password2: password,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "created %s (%s)\n", user.Username, user.ID)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&username, "username", "", "account name")
	f.StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
