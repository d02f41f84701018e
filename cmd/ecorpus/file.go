package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"ecorpus-go/internal/vfs"
)

var fileCmd = &cobra.Command{
	Use:   "file",
	Short: "Manage the files of a scene",
}

func printFile(f vfs.FileProps) {
	kind := "-"
	switch {
	case f.IsDeleted():
		kind = "x"
	case f.IsFolder():
		kind = "d"
	}
	fmt.Printf("%s\tv%d\t%d\t%s\t%s\t%s\n", kind, f.Generation, f.Size, f.Mtime.Format(timeLayout), f.Author, f.Name)
}

var fileListCmd = &cobra.Command{
	Use:   "ls SCENE",
	Short: "List the latest generation of each file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd, "ListFiles")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		if _, err := sceneAccess(cmd, a, args[0], vfs.AccessRead); err != nil {
			return err
		}

		var opts vfs.ListFilesOptions
		opts.IncludeDeleted, _ = cmd.Flags().GetBool("all")
		opts.IncludeFolders, _ = cmd.Flags().GetBool("folders")
		files, err := a.VFS().ListFiles(cmd.Context(), args[0], opts)
		if err != nil {
			return err
		}
		for _, f := range files {
			printFile(f)
		}
		return nil
	},
}

var filePutCmd = &cobra.Command{
	Use:   "put SCENE NAME [SRC]",
	Short: "Write a new generation of a file from SRC or stdin",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		var r io.Reader = os.Stdin
		if len(args) == 3 {
			f, err := os.Open(args[2])
			if err != nil {
				return fmt.Errorf("opening source: %w", err)
			}
			defer f.Close()
			r = f
		}

		a, err := newApp(cmd, "WriteFile")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		author, err := sceneAccess(cmd, a, args[0], vfs.AccessWrite)
		if err != nil {
			return err
		}
		mime, _ := cmd.Flags().GetString("mime")
		props, err := a.VFS().WriteFile(cmd.Context(), r, vfs.FileParams{Scene: args[0], Name: args[1], Mime: mime, AuthorID: author})
		if err != nil {
			return err
		}
		fmt.Printf("Wrote %s v%d (%d bytes, %s)\n", props.Name, props.Generation, props.Size, props.Hash)
		return nil
	},
}

var fileGetCmd = &cobra.Command{
	Use:   "get SCENE NAME",
	Short: "Print the content of a file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd, "ReadFile")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		if _, err := sceneAccess(cmd, a, args[0], vfs.AccessRead); err != nil {
			return err
		}

		generation, _ := cmd.Flags().GetInt64("generation")
		rc, _, err := a.VFS().OpenFile(cmd.Context(), args[0], args[1], generation)
		if err != nil {
			return err
		}
		defer rc.Close()

		var w io.Writer = os.Stdout
		if out, _ := cmd.Flags().GetString("output"); out != "" {
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("creating output: %w", err)
			}
			defer f.Close()
			w = f
		}
		if _, err := io.Copy(w, rc); err != nil {
			return fmt.Errorf("copying content: %w", err)
		}
		return nil
	},
}

var fileRemoveCmd = &cobra.Command{
	Use:   "rm SCENE NAME",
	Short: "Delete a file, keeping its history",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd, "RemoveFile")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		author, err := sceneAccess(cmd, a, args[0], vfs.AccessWrite)
		if err != nil {
			return err
		}
		_, err = a.VFS().RemoveFile(cmd.Context(), vfs.FileParams{Scene: args[0], Name: args[1], AuthorID: author})
		return err
	},
}

var fileMoveCmd = &cobra.Command{
	Use:   "mv SCENE NAME NEW_NAME",
	Short: "Rename a file or folder",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd, "RenameFile")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		author, err := sceneAccess(cmd, a, args[0], vfs.AccessWrite)
		if err != nil {
			return err
		}
		_, err = a.VFS().RenameFile(cmd.Context(), vfs.FileParams{Scene: args[0], Name: args[1], AuthorID: author}, args[2])
		return err
	},
}

var fileCopyCmd = &cobra.Command{
	Use:   "cp SCENE NAME DEST_NAME",
	Short: "Copy a file version to another name without duplicating content",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd, "CopyFile")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		author, err := sceneAccess(cmd, a, args[0], vfs.AccessWrite)
		if err != nil {
			return err
		}
		generation, _ := cmd.Flags().GetInt64("generation")
		props, err := a.VFS().CopyFile(cmd.Context(), vfs.CopyFileParams{
			Scene:      args[0],
			Name:       args[1],
			Generation: generation,
			DestName:   args[2],
			AuthorID:   author,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Copied to %s v%d\n", props.Name, props.Generation)
		return nil
	},
}

var fileLogCmd = &cobra.Command{
	Use:   "log SCENE NAME",
	Short: "Show every generation of a file, newest first",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd, "FileHistory")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		if _, err := sceneAccess(cmd, a, args[0], vfs.AccessRead); err != nil {
			return err
		}

		history, err := a.VFS().GetFileHistory(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		for _, f := range history {
			printFile(f)
		}
		return nil
	},
}

var fileMkdirCmd = &cobra.Command{
	Use:   "mkdir SCENE NAME",
	Short: "Create a folder",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd, "CreateFolder")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		author, err := sceneAccess(cmd, a, args[0], vfs.AccessWrite)
		if err != nil {
			return err
		}
		_, err = a.VFS().CreateFolder(cmd.Context(), vfs.FileParams{Scene: args[0], Name: args[1], AuthorID: author})
		return err
	},
}

var docCmd = &cobra.Command{
	Use:   "doc",
	Short: "Read and write scene documents",
}

var docGetCmd = &cobra.Command{
	Use:   "get SCENE",
	Short: "Print a scene document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd, "GetDoc")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		if _, err := sceneAccess(cmd, a, args[0], vfs.AccessRead); err != nil {
			return err
		}

		generation, _ := cmd.Flags().GetInt64("generation")
		doc, err := a.VFS().GetDoc(cmd.Context(), args[0], generation)
		if err != nil {
			return err
		}
		fmt.Println(doc.Data)
		return nil
	},
}

var docPutCmd = &cobra.Command{
	Use:   "put SCENE [SRC]",
	Short: "Write a new document generation from SRC or stdin",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		var data []byte
		if len(args) == 2 {
			data, err = os.ReadFile(args[1])
		} else {
			data, err = io.ReadAll(os.Stdin)
		}
		if err != nil {
			return fmt.Errorf("reading document: %w", err)
		}

		a, err := newApp(cmd, "WriteDoc")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		author, err := sceneAccess(cmd, a, args[0], vfs.AccessWrite)
		if err != nil {
			return err
		}
		doc, err := a.VFS().WriteDoc(cmd.Context(), args[0], data, author)
		if err != nil {
			return err
		}
		fmt.Printf("Wrote document v%d\n", doc.Generation)
		return nil
	},
}

func init() {
	fileListCmd.Flags().Bool("all", false, "Include deleted files")
	fileListCmd.Flags().Bool("folders", false, "Include folders")
	filePutCmd.Flags().String("mime", "", "Media type (guessed from the name when empty)")
	fileGetCmd.Flags().Int64("generation", 0, "Generation to read (0 for the latest)")
	fileGetCmd.Flags().StringP("output", "o", "", "Write to this file instead of stdout")
	fileCopyCmd.Flags().Int64("generation", 0, "Source generation (0 for the latest)")
	docGetCmd.Flags().Int64("generation", 0, "Generation to read (0 for the latest)")

	fileCmd.AddCommand(fileListCmd)
	fileCmd.AddCommand(filePutCmd)
	fileCmd.AddCommand(fileGetCmd)
	fileCmd.AddCommand(fileRemoveCmd)
	fileCmd.AddCommand(fileMoveCmd)
	fileCmd.AddCommand(fileCopyCmd)
	fileCmd.AddCommand(fileLogCmd)
	fileCmd.AddCommand(fileMkdirCmd)

	docCmd.AddCommand(docGetCmd)
	docCmd.AddCommand(docPutCmd)
}
