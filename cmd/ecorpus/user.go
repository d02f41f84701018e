package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ecorpus-go/internal/vfs"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

var userAddCmd = &cobra.Command{
	Use:   "add USERNAME",
	Short: "Create a user and prompt for a password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd, "AddUser")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		if _, err := requireAdmin(cmd, a); err != nil {
			return err
		}

		p := vfs.AddUserParams{Username: args[0]}
		p.Email, _ = cmd.Flags().GetString("email")
		p.IsAdministrator, _ = cmd.Flags().GetBool("admin")
		if noPassword, _ := cmd.Flags().GetBool("no-password"); !noPassword {
			if p.Password, err = readNewSecret("password"); err != nil {
				return err
			}
		}

		u, err := a.VFS().AddUser(cmd.Context(), p)
		if err != nil {
			return err
		}
		fmt.Printf("Created user %s (uid %d)\n", u.Username, u.ID)
		return nil
	},
}

var userListCmd = &cobra.Command{
	Use:   "ls",
	Short: "List users",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd, "ListUsers")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		if _, err := requireAdmin(cmd, a); err != nil {
			return err
		}

		users, err := a.VFS().ListUsers(cmd.Context())
		if err != nil {
			return err
		}
		for _, u := range users {
			role := "user"
			if u.IsAdministrator {
				role = "admin"
			}
			fmt.Printf("%d\t%s\t%s\t%s\n", u.ID, u.Username, role, u.Email)
		}
		return nil
	},
}

var userRemoveCmd = &cobra.Command{
	Use:   "rm USERNAME",
	Short: "Remove a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd, "RemoveUser")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		if _, err := requireAdmin(cmd, a); err != nil {
			return err
		}

		return a.VFS().RemoveUser(cmd.Context(), args[0])
	},
}

var userPasswdCmd = &cobra.Command{
	Use:   "passwd USERNAME",
	Short: "Set a user's password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd, "SetPassword")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		// Users may change their own password.
		if u, err := actor(cmd, a); err != nil {
			return err
		} else if u == nil || u.Username != args[0] {
			if err := a.RequireAdministrator(u); err != nil {
				return err
			}
		}

		password, err := readNewSecret("password")
		if err != nil {
			return err
		}
		return a.VFS().SetPassword(cmd.Context(), args[0], password)
	},
}

var userAdminCmd = &cobra.Command{
	Use:   "admin USERNAME",
	Short: "Grant or revoke administrator rights",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd, "SetAdministrator")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		if _, err := requireAdmin(cmd, a); err != nil {
			return err
		}

		revoke, _ := cmd.Flags().GetBool("revoke")
		return a.VFS().SetAdministrator(cmd.Context(), args[0], !revoke)
	},
}

var userLoginCmd = &cobra.Command{
	Use:   "login USERNAME",
	Short: "Check a user's password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd, "VerifyPassword")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		password, err := readSecret("Password: ")
		if err != nil {
			return err
		}
		u, err := a.VFS().VerifyPassword(cmd.Context(), args[0], password)
		if err != nil {
			return err
		}
		fmt.Printf("Password accepted for %s (uid %d)\n", u.Username, u.ID)
		return nil
	},
}

func init() {
	userAddCmd.Flags().String("email", "", "Email address")
	userAddCmd.Flags().Bool("admin", false, "Make the user an administrator")
	userAddCmd.Flags().Bool("no-password", false, "Create the account without a password")
	userAdminCmd.Flags().Bool("revoke", false, "Revoke instead of grant")

	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userRemoveCmd)
	userCmd.AddCommand(userPasswdCmd)
	userCmd.AddCommand(userAdminCmd)
	userCmd.AddCommand(userLoginCmd)
}
