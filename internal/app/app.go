package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"strconv"

	"golang.org/x/sync/errgroup"

	"ecorpus-go/internal/config"
	"ecorpus-go/internal/database"
	"ecorpus-go/internal/encryption"
	"ecorpus-go/internal/fs"
	"ecorpus-go/internal/objects"
	"ecorpus-go/internal/pathrules"
	"ecorpus-go/internal/vfs"
)

// Groups a requester belongs to when path rules are evaluated.
const (
	GroupAdmins = "admins"
	GroupUsers  = "users"
)

// importWorkers bounds concurrent object uploads during ImportDirectory.
const importWorkers = 4

// App is the application layer between the CLI and the VFS.
// It constructs all dependencies from config and closes them on Close.
type App struct {
	cfg       *config.Config
	db        *database.DB
	objects   vfs.ObjectStore
	encryptor encryption.Encryptor
	rules     *pathrules.Evaluator
	service   *vfs.VFS
	logger    *slog.Logger
	op        *Operation
	logCloser io.Closer
}

// NewAppFromConfig creates a fully wired App from the given config.
// operation identifies the CLI command being run (e.g. "ImportDirectory").
// stderr receives a copy of the log; nil logs to the file only.
// The caller must call Close when done.
func NewAppFromConfig(ctx context.Context, cfg *config.Config, operation string, stderr io.Writer) (*App, error) {
	op := NewOperation(operation, "")
	logger, logCloser, err := newLogger(cfg.Log, op.ID, stderr)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	adapter := &slogAdapter{l: logger}

	fail := func(err error, closers ...io.Closer) (*App, error) {
		for _, c := range closers {
			c.Close()
		}
		logCloser.Close()
		return nil, err
	}

	store, err := objects.NewObjectStoreFromConfig(ctx, cfg.Objects, adapter)
	if err != nil {
		return fail(fmt.Errorf("creating object store: %w", err))
	}
	if err := store.ValidateSetup(); err != nil {
		return fail(fmt.Errorf("validating object store: %w", err))
	}

	db, err := database.NewDatabaseFromConfig(cfg.Database)
	if err != nil {
		return fail(fmt.Errorf("creating database: %w", err))
	}
	if err := db.CheckMigrations(); err != nil {
		return fail(fmt.Errorf("database schema out of date: %w", err), db)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return fail(fmt.Errorf("creating encryptor: %w", err), db)
	}

	rules := make([]pathrules.Rule, 0, len(cfg.AccessRules))
	for _, r := range cfg.AccessRules {
		rules = append(rules, pathrules.Rule{Group: r.Group, Pattern: r.Pattern, Operations: r.Operations})
	}
	evaluator, err := pathrules.New(rules)
	if err != nil {
		return fail(fmt.Errorf("loading access rules: %w", err), db)
	}

	svc := vfs.New(db, store, adapter, vfs.RealClock{}, vfs.RandomIDGenerator{}, vfs.Options{
		PublicScenes: cfg.Scenes.Public,
	})
	logger.Debug("operation started", "operation", operation)

	return &App{
		cfg:       cfg,
		db:        db,
		objects:   store,
		encryptor: enc,
		rules:     evaluator,
		service:   svc,
		logger:    logger,
		op:        op,
		logCloser: logCloser,
	}, nil
}

// VFS exposes the catalog for commands that map one-to-one onto it.
func (a *App) VFS() *vfs.VFS { return a.service }

// Operation returns the operation this App was created for.
func (a *App) Operation() *Operation { return a.op }

// Encryptor returns the configured export encryptor.
func (a *App) Encryptor() encryption.Encryptor { return a.encryptor }

// ImportReport summarizes an ImportDirectory run.
type ImportReport struct {
	Folders  int
	Files    int
	Document bool
}

// ImportDirectory copies the tree under dir into scene, creating the scene
// when it does not exist. A top-level scene.svx.json becomes the scene
// document; every other file is written as a new generation. Folders that
// already exist are kept.
func (a *App) ImportDirectory(ctx context.Context, scene, dir string, author int64) (ImportReport, error) {
	var report ImportReport
	entries, err := fs.Walk(dir, a.cfg.Filesystem.Ignore)
	if err != nil {
		return report, err
	}

	if _, err := a.service.GetScene(ctx, scene); vfs.ErrNotFound.Has(err) {
		if _, err := a.service.CreateScene(ctx, scene, author); err != nil {
			return report, err
		}
	} else if err != nil {
		return report, err
	}

	var files []fs.Entry
	for _, e := range entries {
		switch {
		case e.IsDir:
			_, err := a.service.CreateFolder(ctx, vfs.FileParams{Scene: scene, Name: e.Name, AuthorID: author})
			if err != nil && !vfs.ErrConflict.Has(err) {
				return report, err
			}
			if err == nil {
				report.Folders++
			}
		case e.Name == vfs.DocName:
			data, err := os.ReadFile(e.Path)
			if err != nil {
				return report, fmt.Errorf("reading %s: %w", e.Path, err)
			}
			if _, err := a.service.WriteDoc(ctx, scene, data, author); err != nil {
				return report, err
			}
			report.Document = true
		default:
			files = append(files, e)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(importWorkers)
	for _, e := range files {
		g.Go(func() error {
			return a.importFile(gctx, scene, e, author)
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}
	report.Files = len(files)

	a.logger.Info("directory imported", "scene", scene, "dir", dir,
		"folders", report.Folders, "files", report.Files, "document", report.Document)
	return report, nil
}

func (a *App) importFile(ctx context.Context, scene string, e fs.Entry, author int64) error {
	f, err := os.Open(e.Path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", e.Path, err)
	}
	defer f.Close()
	_, err = a.service.WriteFile(ctx, f, vfs.FileParams{Scene: scene, Name: e.Name, AuthorID: author})
	return err
}

// ExportScene writes scene as a ZIP archive to dest. With encrypt the archive
// is sealed by the configured encryptor.
func (a *App) ExportScene(ctx context.Context, scene, dest string, encrypt bool) (err error) {
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("closing %s: %w", dest, cerr)
		}
		if err != nil {
			os.Remove(dest)
		}
	}()

	var w io.Writer = f
	var sealed io.WriteCloser
	if encrypt {
		if !a.encryptor.IsConfigured() {
			return fmt.Errorf("encryption is not set up")
		}
		sealed, err = a.encryptor.Seal(f)
		if err != nil {
			return fmt.Errorf("sealing export: %w", err)
		}
		w = sealed
	}

	if err := a.service.ExportScene(ctx, scene, w); err != nil {
		return err
	}
	if sealed != nil {
		if err := sealed.Close(); err != nil {
			return fmt.Errorf("finishing sealed export: %w", err)
		}
	}
	a.logger.Info("archive written", "scene", scene, "path", dest, "encrypted", encrypt)
	return nil
}

// ImportArchive reads a ZIP archive written by ExportScene into scene. A
// sealed archive is opened with passphrase and spooled to a temporary file,
// since the central directory sits at the end of the stream.
func (a *App) ImportArchive(ctx context.Context, scene, src string, sealed bool, passphrase string, author int64) (int, error) {
	f, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", src, err)
	}
	defer f.Close()

	archive := f
	if sealed {
		opener, err := a.encryptor.Unlock(passphrase)
		if err != nil {
			return 0, fmt.Errorf("unlocking encryption key: %w", err)
		}
		r, err := opener.Open(f)
		if err != nil {
			return 0, fmt.Errorf("opening sealed archive: %w", err)
		}
		tmp, err := os.CreateTemp("", "ecorpus-import-*.zip")
		if err != nil {
			return 0, fmt.Errorf("creating temp file: %w", err)
		}
		defer os.Remove(tmp.Name())
		defer tmp.Close()
		if _, err := io.Copy(tmp, r); err != nil {
			return 0, fmt.Errorf("decrypting archive: %w", err)
		}
		archive = tmp
	}

	info, err := archive.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat archive: %w", err)
	}
	return a.service.ImportScene(ctx, scene, archive, info.Size(), author)
}

// Backup snapshots the catalog to dest.
func (a *App) Backup(ctx context.Context, dest string) error {
	if err := a.db.BackupTo(ctx, dest); err != nil {
		return err
	}
	a.logger.Info("catalog backed up", "path", dest)
	return nil
}

// Actor resolves the user a command acts as. An empty username is the local
// operator, returned as nil.
func (a *App) Actor(ctx context.Context, username string) (*vfs.User, error) {
	if username == "" {
		return nil, nil
	}
	u, err := a.service.GetUserByName(ctx, username)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// AuthorizeScene checks that user holds level on scene and returns the id to
// record as author of changes. The local operator (nil) is not checked.
func (a *App) AuthorizeScene(ctx context.Context, user *vfs.User, scene string, level vfs.AccessLevel) (int64, error) {
	if user == nil {
		return 0, nil
	}
	if err := a.service.Authorize(ctx, scene, user, level); err != nil {
		a.logger.Warn("access denied", "user", user.Username, "scene", scene, "level", level, "error", err)
		return 0, err
	}
	return user.ID, nil
}

// RequireAdministrator guards repository-wide commands. The local operator
// (nil) passes.
func (a *App) RequireAdministrator(user *vfs.User) error {
	if user == nil || user.IsAdministrator {
		return nil
	}
	return vfs.ErrForbidden.New("%s is not an administrator", user.Username)
}

// CheckPath evaluates the configured access rules for username. An empty
// username is the anonymous requester.
func (a *App) CheckPath(ctx context.Context, username, p, operation string) (pathrules.Match, bool, error) {
	subject := pathrules.Subject{Attributes: map[string]string{}}
	if username != "" {
		u, err := a.service.GetUserByName(ctx, username)
		if err != nil {
			return pathrules.Match{}, false, err
		}
		subject.Groups = append(subject.Groups, GroupUsers)
		if u.IsAdministrator {
			subject.Groups = append(subject.Groups, GroupAdmins)
		}
		subject.Attributes["username"] = u.Username
		subject.Attributes["uid"] = strconv.FormatInt(u.ID, 10)
	}
	return a.rules.Check(subject, path.Clean("/"+p), operation)
}

// Close finalizes the operation and closes all resources.
func (a *App) Close() error {
	var errs []error
	if err := a.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing database: %w", err))
	}
	a.logger.Info("operation finished", "operation", a.op.Name, "status", a.op.Status, "elapsed", a.op.Elapsed())
	if err := a.logCloser.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing log: %w", err))
	}
	return errors.Join(errs...)
}
