package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"ecorpus-go/internal/vfs"
)

const timeLayout = time.RFC3339

var sceneCmd = &cobra.Command{
	Use:   "scene",
	Short: "Manage scenes",
}

var sceneCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create an empty scene",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd, "CreateScene")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		var owner int64
		if name, _ := cmd.Flags().GetString("owner"); name != "" {
			u, err := a.VFS().GetUserByName(cmd.Context(), name)
			if err != nil {
				return err
			}
			owner = u.ID
		} else if owner, err = actorID(cmd, a); err != nil {
			return err
		}

		id, err := a.VFS().CreateScene(cmd.Context(), args[0], owner)
		if err != nil {
			return err
		}
		fmt.Printf("Created scene %s (id %d)\n", args[0], id)
		return nil
	},
}

var sceneListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scenes",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd, "ListScenes")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		requester, err := actor(cmd, a)
		if err != nil {
			return err
		}
		scenes, err := a.VFS().ListScenes(cmd.Context(), requester)
		if err != nil {
			return err
		}
		for _, s := range scenes {
			fmt.Printf("%d\t%s\t%s\n", s.ID, s.Mtime.Format(timeLayout), s.Name)
		}
		return nil
	},
}

var sceneRenameCmd = &cobra.Command{
	Use:   "rename NAME NEW_NAME",
	Short: "Rename a scene",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd, "RenameScene")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		if _, err := sceneAccess(cmd, a, args[0], vfs.AccessAdmin); err != nil {
			return err
		}

		return a.VFS().RenameScene(cmd.Context(), args[0], args[1])
	},
}

var sceneArchiveCmd = &cobra.Command{
	Use:   "archive NAME",
	Short: "Hide a scene from everyone but administrators",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd, "ArchiveScene")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		if _, err := sceneAccess(cmd, a, args[0], vfs.AccessAdmin); err != nil {
			return err
		}

		return a.VFS().ArchiveScene(cmd.Context(), args[0])
	},
}

var sceneRemoveCmd = &cobra.Command{
	Use:   "rm NAME",
	Short: "Permanently remove a scene and its history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd, "RemoveScene")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		if _, err := sceneAccess(cmd, a, args[0], vfs.AccessAdmin); err != nil {
			return err
		}

		return a.VFS().RemoveScene(cmd.Context(), args[0])
	},
}

var sceneHistoryCmd = &cobra.Command{
	Use:   "history NAME",
	Short: "Show every file and document version of a scene, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd, "SceneHistory")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		if _, err := sceneAccess(cmd, a, args[0], vfs.AccessRead); err != nil {
			return err
		}

		entries, err := a.VFS().GetSceneHistory(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		for _, e := range entries {
			state := e.Hash
			if e.Type == vfs.ItemFile && e.Hash == "" {
				state = "deleted"
			}
			fmt.Printf("%s\t%d\t%s\t%s\tv%d\t%s\t%s\n",
				e.Type, e.ID, e.Ctime.Format(timeLayout), e.Name, e.Generation, e.Author, state)
		}
		return nil
	},
}

var sceneRestoreCmd = &cobra.Command{
	Use:   "restore NAME file|doc ID",
	Short: "Restore a scene to the state it had at a history entry",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		point := vfs.HistoryPoint{Type: vfs.ItemType(args[1])}
		if point.Type != vfs.ItemFile && point.Type != vfs.ItemDoc {
			return fmt.Errorf("unknown history entry type %q", args[1])
		}
		if point.ID, err = strconv.ParseInt(args[2], 10, 64); err != nil {
			return fmt.Errorf("parsing id: %w", err)
		}

		a, err := newApp(cmd, "RestoreScene")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		author, err := sceneAccess(cmd, a, args[0], vfs.AccessWrite)
		if err != nil {
			return err
		}
		n, err := a.VFS().RestoreScene(cmd.Context(), args[0], point, author)
		if err != nil {
			return err
		}
		fmt.Printf("Restored %d items\n", n)
		return nil
	},
}

var sceneExportCmd = &cobra.Command{
	Use:   "export NAME DEST",
	Short: "Write the latest version of a scene to a zip archive",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd, "ExportScene")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		if _, err := sceneAccess(cmd, a, args[0], vfs.AccessRead); err != nil {
			return err
		}

		encrypt, _ := cmd.Flags().GetBool("encrypt")
		if err := a.ExportScene(cmd.Context(), args[0], args[1], encrypt); err != nil {
			return err
		}
		fmt.Printf("Exported %s to %s\n", args[0], args[1])
		return nil
	},
}

var sceneImportCmd = &cobra.Command{
	Use:   "import NAME SRC",
	Short: "Import a zip archive into a scene, creating it when missing",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd, "ImportScene")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		author, err := importAccess(cmd, a, args[0])
		if err != nil {
			return err
		}

		var passphrase string
		sealed, _ := cmd.Flags().GetBool("decrypt")
		if sealed {
			if passphrase, err = readSecret("Passphrase: "); err != nil {
				return err
			}
		}

		n, err := a.ImportArchive(cmd.Context(), args[0], args[1], sealed, passphrase, author)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d entries into %s\n", n, args[0])
		return nil
	},
}

var sceneImportDirCmd = &cobra.Command{
	Use:   "import-dir NAME DIR",
	Short: "Import a local directory tree into a scene",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd, "ImportDirectory")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		author, err := importAccess(cmd, a, args[0])
		if err != nil {
			return err
		}
		report, err := a.ImportDirectory(cmd.Context(), args[0], args[1], author)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d folders and %d files", report.Folders, report.Files)
		if report.Document {
			fmt.Print(" and the scene document")
		}
		fmt.Println()
		return nil
	},
}

var sceneAccessCmd = &cobra.Command{
	Use:   "access NAME",
	Short: "Show the permissions of a scene",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd, "GetPermissions")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		if _, err := sceneAccess(cmd, a, args[0], vfs.AccessRead); err != nil {
			return err
		}

		perms, err := a.VFS().GetPermissions(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		for _, p := range perms {
			fmt.Printf("%d\t%s\t%s\n", p.UID, p.Username, p.Level)
		}
		return nil
	},
}

var sceneGrantCmd = &cobra.Command{
	Use:   "grant NAME USERNAME ROLE",
	Short: "Set a user's role on a scene (none, read, write, admin or null to reset)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd, "Grant")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		if _, err := sceneAccess(cmd, a, args[0], vfs.AccessAdmin); err != nil {
			return err
		}
		return a.VFS().Grant(cmd.Context(), args[0], args[1], args[2])
	},
}

func init() {
	sceneCreateCmd.Flags().String("owner", "", "Username granted admin on the new scene (defaults to --as)")
	sceneExportCmd.Flags().Bool("encrypt", false, "Seal the archive with the configured age key")
	sceneImportCmd.Flags().Bool("decrypt", false, "The archive was sealed with --encrypt")

	sceneCmd.AddCommand(sceneCreateCmd)
	sceneCmd.AddCommand(sceneListCmd)
	sceneCmd.AddCommand(sceneRenameCmd)
	sceneCmd.AddCommand(sceneArchiveCmd)
	sceneCmd.AddCommand(sceneRemoveCmd)
	sceneCmd.AddCommand(sceneHistoryCmd)
	sceneCmd.AddCommand(sceneRestoreCmd)
	sceneCmd.AddCommand(sceneExportCmd)
	sceneCmd.AddCommand(sceneImportCmd)
	sceneCmd.AddCommand(sceneImportDirCmd)
	sceneCmd.AddCommand(sceneAccessCmd)
	sceneCmd.AddCommand(sceneGrantCmd)
}
