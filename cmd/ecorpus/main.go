package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"ecorpus-go/internal/app"
	"ecorpus-go/internal/config"
	"ecorpus-go/internal/version"
	"ecorpus-go/internal/vfs"
)

func main() {
	if err := fang.Execute(context.Background(), rootCmd, fang.WithVersion(version.GetFullVersion())); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer a.Close().
// operation identifies the CLI command being run (e.g. "CreateScene").
func newApp(cmd *cobra.Command, operation string) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewAppFromConfig(cmd.Context(), cfg, operation, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// closeApp records the command outcome on the operation before closing.
func closeApp(a *app.App, err *error) {
	a.Operation().Fail(*err)
	if cerr := a.Close(); *err == nil {
		*err = cerr
	}
}

// actor resolves the --as flag. Without it commands run as the local
// operator, which scene permissions do not apply to; changes are then
// authored by uid 0.
func actor(cmd *cobra.Command, a *app.App) (*vfs.User, error) {
	name, _ := cmd.Flags().GetString("as")
	return a.Actor(cmd.Context(), name)
}

// sceneAccess checks that the --as user holds level on scene and returns the
// author id for changes.
func sceneAccess(cmd *cobra.Command, a *app.App, scene string, level vfs.AccessLevel) (int64, error) {
	u, err := actor(cmd, a)
	if err != nil {
		return 0, err
	}
	return a.AuthorizeScene(cmd.Context(), u, scene, level)
}

// importAccess lets anyone import into a scene the import creates, and
// writers into an existing one.
func importAccess(cmd *cobra.Command, a *app.App, scene string) (int64, error) {
	_, err := a.VFS().GetScene(cmd.Context(), scene)
	if vfs.ErrNotFound.Has(err) {
		return actorID(cmd, a)
	}
	if err != nil {
		return 0, err
	}
	return sceneAccess(cmd, a, scene, vfs.AccessWrite)
}

// requireAdmin guards repository-wide commands.
func requireAdmin(cmd *cobra.Command, a *app.App) (*vfs.User, error) {
	u, err := actor(cmd, a)
	if err != nil {
		return nil, err
	}
	return u, a.RequireAdministrator(u)
}

func actorID(cmd *cobra.Command, a *app.App) (int64, error) {
	u, err := actor(cmd, a)
	if err != nil || u == nil {
		return 0, err
	}
	return u.ID, nil
}

// readSecret prompts on the terminal without echo. Piped input is read one
// line at a time.
func readSecret(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("reading secret: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading secret: %w", err)
	}
	return string(b), nil
}

// readNewSecret asks twice and requires both answers to match.
func readNewSecret(what string) (string, error) {
	first, err := readSecret("New " + what + ": ")
	if err != nil {
		return "", err
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return first, nil
	}
	second, err := readSecret("Repeat " + what + ": ")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", errors.New(what + "s do not match")
	}
	return first, nil
}

var rootCmd = &cobra.Command{
	Use:   "ecorpus",
	Short: "Versioned scene repository",
	Long:  "ecorpus manages a versioned repository of 3D scenes: their files, documents, users and permissions.",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir:      %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:       %s (%s)\n", cfg.Log.Dir, cfg.Log.Level)
		fmt.Printf("Database:      %s %s\n", cfg.Database.Type, cfg.Database.Path)
		fmt.Printf("Objects:       %s\n", cfg.Objects.Type)
		fmt.Printf("Public Scenes: %v\n", cfg.Scenes.Public)
		fmt.Printf("Access Rules:  %d\n", len(cfg.AccessRules))
		return nil
	},
}

var configEncryptionCmd = &cobra.Command{
	Use:   "encryption",
	Short: "Create the key pair used for encrypted exports",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd, "SetupEncryption")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		force, _ := cmd.Flags().GetBool("force")
		if a.Encryptor().IsConfigured() && !force {
			return errors.New("encryption keys already exist (use --force to replace them)")
		}
		passphrase, err := readNewSecret("passphrase")
		if err != nil {
			return err
		}
		if err := a.Encryptor().Setup(passphrase); err != nil {
			return fmt.Errorf("setting up encryption: %w", err)
		}
		fmt.Println("Encryption keys created.")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("as", "", "Act as this user (author of changes, scene listing filter)")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configEncryptionCmd)
	configEncryptionCmd.Flags().Bool("force", false, "Replace existing keys")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(sceneCmd)
	rootCmd.AddCommand(fileCmd)
	rootCmd.AddCommand(docCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(adminCmds()...)
}
