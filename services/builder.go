package services

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mrnavastar/patchman/util"
	"github.com/mrnavastar/patchman/util/fileutils"
	"github.com/mrnavastar/patchman/version"
	"github.com/pterm/pterm"
)

// Catalog resolves a game version id to its version patch.
type Catalog interface {
	FindVersion(ctx context.Context, id string) (*version.VersionFile, error)
}

// BundleLoader produces the library bundle patch shipped with the application.
type BundleLoader interface {
	LoadBundle() (*version.VersionFile, error)
}

type Options struct {
	Instance util.Instance
	Catalog  Catalog
	Bundle   BundleLoader
	Logger   *pterm.Logger

	// Now defaults to time.Now.
	Now func() time.Time
	// NewID generates jar mod identities, defaults to uuid.NewString.
	NewID func() string
}

func (o Options) withDefaults() Options {
	o.Logger = util.Logger(o.Logger)
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	return o
}

// Builder produces the ordered patch list of an instance.
type Builder struct {
	inst    util.Instance
	catalog Catalog
	bundle  BundleLoader
	log     *pterm.Logger
}

func NewBuilder(opts Options) *Builder {
	opts = opts.withDefaults()
	return &Builder{
		inst:    opts.Instance,
		catalog: opts.Catalog,
		bundle:  opts.Bundle,
		log:     opts.Logger,
	}
}

// Build loads the builtin patches followed by the instance's patch files.
// Nothing is returned unless every patch loaded.
func (b *Builder) Build(ctx context.Context) ([]version.Patch, error) {
	patches, err := b.builtinPatches(ctx)
	if err != nil {
		return nil, err
	}
	user, err := b.userPatches()
	if err != nil {
		return nil, err
	}
	return append(patches, user...), nil
}

func (b *Builder) builtinPatches(ctx context.Context) ([]version.Patch, error) {
	if b.catalog == nil {
		return nil, &version.VersionIncompleteError{UID: version.MinecraftUID, Err: errors.New("no version catalog")}
	}
	mc, err := b.catalog.FindVersion(ctx, b.inst.VersionID)
	if err != nil || mc == nil {
		return nil, &version.VersionIncompleteError{UID: version.MinecraftUID, Err: err}
	}
	if b.bundle == nil {
		return nil, &version.VersionIncompleteError{UID: version.LwjglUID, Err: errors.New("no library bundle")}
	}
	lwjgl, err := b.bundle.LoadBundle()
	if err != nil || lwjgl == nil {
		return nil, &version.VersionIncompleteError{UID: version.LwjglUID, Err: err}
	}
	return []version.Patch{
		version.NewEngineVersionPatch(mc),
		version.NewLibraryBundlePatch(lwjgl),
	}, nil
}

func (b *Builder) readOrder() []string {
	path := b.inst.OrderFile()
	order, err := fileutils.ReadOrder(path)
	if err == nil {
		return order
	}
	var formatErr *version.OrderFileFormatError
	switch {
	case errors.Is(err, fs.ErrNotExist):
		b.log.Debug("Order file doesn't exist. Ignoring.", b.log.Args("path", path))
	case errors.As(err, &formatErr):
		b.log.Warn("Ignoring overridden order", b.log.Args("path", path, "reason", formatErr.Reason))
	default:
		b.log.Warn("Ignoring overridden order", b.log.Args("path", path, "error", err))
	}
	return nil
}

func (b *Builder) userPatches() ([]version.Patch, error) {
	var patches []version.Patch
	userOrder := b.readOrder()

	// first, everything the user ordered explicitly
	loaded := map[string]bool{}
	for _, id := range userOrder {
		if version.IsBuiltinID(id) || loaded[id] {
			continue
		}
		if id == "" || id != filepath.Base(id) {
			b.log.Warn("Ignoring invalid patch id in order file", b.log.Args("id", id))
			continue
		}
		path := b.inst.PatchFile(id)
		if !fileutils.Exists(path) {
			b.log.Info("Patch file was deleted by external means", b.log.Args("path", path))
			continue
		}
		b.log.Debug("Reading patch by user order", b.log.Args("path", path))
		f, err := version.ParseFile(path, false)
		if err != nil {
			return nil, err
		}
		if f.FileID != id {
			return nil, &version.IdentityMismatchError{FileID: id, DeclaredID: f.FileID}
		}
		loaded[id] = true
		patches = append(patches, version.NewUserPatch(f))
	}

	// then the rest, by the order they declare
	entries, err := os.ReadDir(b.inst.PatchesDir())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	byOrder := map[int]*version.VersionFile{}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		stem := strings.TrimSuffix(entry.Name(), ".json")
		if version.IsBuiltinID(stem) || loaded[stem] {
			continue
		}
		path := filepath.Join(b.inst.PatchesDir(), entry.Name())
		b.log.Debug("Reading patch", b.log.Args("path", path))
		f, err := version.ParseFile(path, true)
		if err != nil {
			return nil, err
		}
		if version.IsBuiltinID(f.FileID) || loaded[f.FileID] {
			continue
		}
		if f.FileID != stem {
			return nil, &version.IdentityMismatchError{FileID: stem, DeclaredID: f.FileID}
		}
		if other, ok := byOrder[f.Order]; ok {
			return nil, &version.OrderConflictError{Order: f.Order, First: other.FileID, Second: f.FileID}
		}
		byOrder[f.Order] = f
	}

	orders := make([]int, 0, len(byOrder))
	for order := range byOrder {
		orders = append(orders, order)
	}
	sort.Ints(orders)
	for _, order := range orders {
		patches = append(patches, version.NewUserPatch(byOrder[order]))
	}
	return patches, nil
}
