package main

import (
	"errors"
	"fmt"

	"github.com/Sternrassler/unsplash-client/pkg/errmsg"
	"github.com/Sternrassler/unsplash-client/pkg/prefs"
	"github.com/spf13/cobra"
)

func newLoginCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login <access-token> <username>",
		Short: "Store the OAuth token of a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := a.openSession()
			if err != nil {
				return err
			}
			if err := session.Login(args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as @%s\n", session.State().Username)
			return nil
		},
	}
}

func newLogoutCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored user token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := a.openSession()
			if err != nil {
				return err
			}
			if !session.State().LoggedIn {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
				return nil
			}
			if err := session.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCommand(a *app) *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := a.openSession()
			if err != nil {
				return err
			}

			state := session.State()
			out := cmd.OutOrStdout()
			if !state.LoggedIn {
				fmt.Fprintln(out, "Not logged in")
				return nil
			}
			if !remote {
				fmt.Fprintf(out, "@%s\n", state.Username)
				return nil
			}

			api, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			me, err := api.Me(cmd.Context())
			if err != nil {
				return errors.New(a.formatter.Format(err))
			}
			fmt.Fprintf(out, "@%s\t%s\t%d photos\t%d likes\n", me.Username, oneLine(me.Name), me.TotalPhotos, me.TotalLikes)
			return nil
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "verify the token against the API")
	return cmd
}

func newLocaleCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "locale [tag]",
		Short: "Show or save the locale of error messages",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.openSession(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				fmt.Fprintln(out, a.formatter.Locale())
				return nil
			}

			f := errmsg.New(args[0])
			if err := a.store.Set(prefs.KeyLocale, f.Locale()); err != nil {
				return err
			}
			a.formatter = f
			fmt.Fprintln(out, f.Locale())
			return nil
		},
	}
}
