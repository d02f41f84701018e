package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var keysRotateCmd = &cobra.Command{
	Use:   "rotate",
	Short: "Add a signing key and drop the oldest ones",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd, "RotateKeys")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		if _, err := requireAdmin(cmd, a); err != nil {
			return err
		}

		keep, _ := cmd.Flags().GetInt("keep")
		if err := a.VFS().RotateKeys(cmd.Context(), keep); err != nil {
			return err
		}
		keys, err := a.VFS().GetKeys(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("%d signing keys active\n", len(keys))
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show repository statistics",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd, "Stats")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		s, err := a.VFS().Stats(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Scenes:    %d\n", s.Scenes)
		fmt.Printf("Files:     %d\n", s.Files)
		fmt.Printf("Documents: %d\n", s.Documents)
		fmt.Printf("Users:     %d\n", s.Users)
		fmt.Printf("Objects:   %d (%d bytes)\n", s.Objects, s.ObjectBytes)
		return nil
	},
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete unreferenced objects and report missing ones",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd, "Clean")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		if _, err := requireAdmin(cmd, a); err != nil {
			return err
		}

		report, err := a.VFS().Clean(cmd.Context())
		if err != nil {
			return err
		}
		for _, h := range report.Removed {
			fmt.Printf("removed\t%s\n", h)
		}
		for _, h := range report.Missing {
			fmt.Printf("missing\t%s\n", h)
		}
		fmt.Printf("Removed %d objects, %d missing\n", len(report.Removed), len(report.Missing))
		return nil
	},
}

var backupCmd = &cobra.Command{
	Use:   "backup DEST",
	Short: "Write a consistent copy of the catalog database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd, "Backup")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		if _, err := requireAdmin(cmd, a); err != nil {
			return err
		}

		if err := a.Backup(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Catalog written to %s\n", args[0])
		return nil
	},
}

var accessCheckCmd = &cobra.Command{
	Use:   "check USERNAME PATH OPERATION",
	Short: "Evaluate the path rules for a user",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd, "CheckPath")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		m, ok, err := a.CheckPath(cmd.Context(), args[0], args[1], args[2])
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("denied")
			return nil
		}
		fmt.Printf("allowed by group %s pattern %s\n", m.Rule.Group, m.Rule.Pattern)
		for k, v := range m.Captures {
			fmt.Printf("  %s=%s\n", k, v)
		}
		return nil
	},
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage signing keys",
}

var accessCmd = &cobra.Command{
	Use:   "access",
	Short: "Inspect path rules",
}

func adminCmds() []*cobra.Command {
	keysRotateCmd.Flags().Int("keep", 2, "Number of keys to keep")
	keysCmd.AddCommand(keysRotateCmd)
	accessCmd.AddCommand(accessCheckCmd)
	return []*cobra.Command{keysCmd, statsCmd, cleanCmd, backupCmd, accessCmd}
}
