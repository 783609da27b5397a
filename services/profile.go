package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/mrnavastar/patchman/util"
	"github.com/mrnavastar/patchman/util/fileutils"
	"github.com/mrnavastar/patchman/version"
	"github.com/pterm/pterm"
)

// ErrNotLoaded is returned by mutations on a controller that has not been
// loaded with Reload yet.
var ErrNotLoaded = errors.New("patch list not loaded")

type Direction int

const (
	MoveUp Direction = iota
	MoveDown
)

type ChangeKind int

const (
	ChangeNone ChangeKind = iota
	ChangeReset
	ChangeMove
	ChangeRemove
	ChangeInsert
)

// Change describes what a mutation did to the patch list. Before and After
// are the patch ids in list order.
type Change struct {
	Kind   ChangeKind
	Before []string
	After  []string
}

func (c Change) Changed() bool {
	return c.Kind != ChangeNone
}

// ProfileController owns an instance's patch list and merged profile and
// keeps both in sync with the files on disk. Calls must not overlap, and
// Reload must succeed once before any mutation.
type ProfileController struct {
	inst    util.Instance
	builder *Builder
	profile *version.Profile
	log     *pterm.Logger
	now     func() time.Time
	newID   func() string
}

func NewProfileController(opts Options) *ProfileController {
	opts = opts.withDefaults()
	return &ProfileController{
		inst:    opts.Instance,
		builder: NewBuilder(opts),
		profile: version.NewProfile(opts.Logger),
		log:     opts.Logger,
		now:     opts.Now,
		newID:   opts.NewID,
	}
}

func (c *ProfileController) Profile() *version.Profile {
	return c.profile
}

func (c *ProfileController) Instance() util.Instance {
	return c.inst
}

// Reload rebuilds the patch list from disk. On error the previous list and
// merged profile are kept.
func (c *ProfileController) Reload(ctx context.Context) (Change, error) {
	patches, err := c.builder.Build(ctx)
	if err != nil {
		return Change{}, err
	}
	before := c.profile.IDs()
	c.profile.Patches = patches
	c.reapply()
	return Change{Kind: ChangeReset, Before: before, After: c.profile.IDs()}, nil
}

func (c *ProfileController) loaded() bool {
	return len(c.profile.Patches) > 0
}

func (c *ProfileController) reapply() {
	c.profile.Reapply(c.now())
}

func (c *ProfileController) saveCurrentOrder() error {
	if err := fileutils.WriteOrder(c.inst.OrderFile(), c.profile.CurrentOrder()); err != nil {
		c.log.Error("Couldn't write order file", c.log.Args("path", c.inst.OrderFile(), "error", err))
		return fmt.Errorf("saving patch order: %w", err)
	}
	return nil
}

// Move swaps the patch at index with its neighbour. Moves involving a builtin
// or leaving the list do nothing.
func (c *ProfileController) Move(index int, direction Direction) (Change, error) {
	theirIndex := index + 1
	if direction == MoveUp {
		theirIndex = index - 1
	}
	from, ok := c.profile.PatchAt(index)
	if !ok {
		return Change{}, nil
	}
	to, ok := c.profile.PatchAt(theirIndex)
	if !ok || index == theirIndex {
		return Change{}, nil
	}
	if !from.Moveable() || !to.Moveable() {
		return Change{}, nil
	}

	before := c.profile.IDs()
	patches := c.profile.Patches
	patches[index], patches[theirIndex] = patches[theirIndex], patches[index]
	if err := c.saveCurrentOrder(); err != nil {
		patches[index], patches[theirIndex] = patches[theirIndex], patches[index]
		return Change{}, err
	}
	c.reapply()
	return Change{Kind: ChangeMove, Before: before, After: c.profile.IDs()}, nil
}

// MoveByID moves the patch with the given id.
func (c *ProfileController) MoveByID(id string, direction Direction) (Change, error) {
	index := c.profile.IndexOf(id)
	if index < 0 {
		return Change{}, fmt.Errorf("%s: %w", id, version.ErrPatchNotFound)
	}
	return c.Move(index, direction)
}

// deletePatchFiles removes the jar mods a patch owns and then its backing
// file. Every jar mod is attempted even if one fails.
func (c *ProfileController) deletePatchFiles(patch version.Patch) error {
	var errs []error
	for _, jarMod := range patch.File.JarMods {
		path := filepath.Join(c.inst.JarModsDir(), jarMod.Name)
		if err := fileutils.RemoveIfExists(path); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("removing jar mods of %s: %w", patch.ID(), err)
	}
	if patch.File.Filename == "" {
		return nil
	}
	if err := fileutils.RemoveIfExists(patch.File.Filename); err != nil {
		return fmt.Errorf("removing %s: %w", patch.ID(), err)
	}
	return nil
}

// Remove deletes the patch at index along with its files. The list is only
// changed once the files are gone.
func (c *ProfileController) Remove(index int) (Change, error) {
	patch, ok := c.profile.PatchAt(index)
	if !ok {
		return Change{}, version.ErrIndexOutOfRange
	}
	if !patch.Moveable() {
		return Change{}, fmt.Errorf("%s: %w", patch.ID(), version.ErrNotMoveable)
	}
	if err := c.deletePatchFiles(patch); err != nil {
		c.log.Error("Couldn't remove patch", c.log.Args("id", patch.ID(), "error", err))
		return Change{}, err
	}

	before := c.profile.IDs()
	c.profile.Patches = append(c.profile.Patches[:index:index], c.profile.Patches[index+1:]...)
	c.reapply()
	change := Change{Kind: ChangeRemove, Before: before, After: c.profile.IDs()}
	c.log.Info("Removed patch", c.log.Args("id", patch.ID()))
	return change, c.saveCurrentOrder()
}

func (c *ProfileController) RemoveByID(id string) (Change, error) {
	index := c.profile.IndexOf(id)
	if index < 0 {
		return Change{}, fmt.Errorf("%s: %w", id, version.ErrPatchNotFound)
	}
	return c.Remove(index)
}

// RevertToVanilla removes every moveable patch, stopping at the first one that
// cannot be removed. Whatever was removed stays removed.
func (c *ProfileController) RevertToVanilla() (Change, error) {
	if !c.loaded() {
		return Change{}, ErrNotLoaded
	}
	before := c.profile.IDs()
	var failure error
	kept := make([]version.Patch, 0, len(c.profile.Patches))
	for _, patch := range c.profile.Patches {
		if failure != nil || !patch.Moveable() {
			kept = append(kept, patch)
			continue
		}
		if err := c.deletePatchFiles(patch); err != nil {
			c.log.Error("Couldn't remove patch", c.log.Args("id", patch.ID(), "error", err))
			failure = err
			kept = append(kept, patch)
		}
	}
	c.profile.Patches = kept
	c.reapply()

	change := Change{Kind: ChangeReset, Before: before, After: c.profile.IDs()}
	if len(change.Before) == len(change.After) {
		change.Kind = ChangeNone
	}
	if err := c.saveCurrentOrder(); err != nil && failure == nil {
		failure = err
	}
	return change, failure
}

// InstallJarMods copies each jar into the jar mod directory and adds a patch
// referencing it. The profile is re-merged once, after the whole batch.
func (c *ProfileController) InstallJarMods(paths []string) (Change, error) {
	if !c.loaded() {
		return Change{}, ErrNotLoaded
	}
	if err := fileutils.EnsureDir(c.inst.PatchesDir()); err != nil {
		return Change{}, err
	}
	if err := fileutils.EnsureDir(c.inst.JarModsDir()); err != nil {
		return Change{}, err
	}

	before := c.profile.IDs()
	var failure error
	for _, path := range paths {
		if err := c.installJarMod(path); err != nil {
			failure = fmt.Errorf("installing jar mod %s: %w", path, err)
			break
		}
		if err := c.saveCurrentOrder(); err != nil {
			failure = err
			break
		}
	}
	c.reapply()

	change := Change{Kind: ChangeInsert, Before: before, After: c.profile.IDs()}
	if len(change.Before) == len(change.After) {
		change.Kind = ChangeNone
	}
	return change, failure
}

func (c *ProfileController) installJarMod(source string) error {
	id := c.newID()
	targetFilename := id + ".jar"
	targetID := version.JarModIDPrefix + id
	finalPath := filepath.Join(c.inst.JarModsDir(), targetFilename)

	if fileutils.Exists(finalPath) {
		return fmt.Errorf("%s: %w", finalPath, version.ErrTargetExists)
	}
	if err := fileutils.CopyFileExclusive(source, finalPath); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%s: %w", finalPath, version.ErrTargetExists)
		}
		return err
	}

	f := &version.VersionFile{
		FileID:   targetID,
		Name:     c.jarModName(source),
		Order:    c.profile.FreeOrderNumber(),
		JarMods:  []version.JarMod{{Name: targetFilename}},
		Filename: c.inst.PatchFile(targetID),
	}
	if err := c.writePatch(f); err != nil {
		if rmErr := fileutils.RemoveIfExists(finalPath); rmErr != nil {
			c.log.Error("Couldn't remove copied jar mod", c.log.Args("path", finalPath, "error", rmErr))
		}
		return err
	}
	c.profile.Patches = append(c.profile.Patches, version.NewUserPatch(f))
	c.log.Info("Installed jar mod", c.log.Args("id", targetID, "source", source))
	return nil
}

func (c *ProfileController) jarModName(source string) string {
	info, ok, err := fileutils.GetJarInfo(source)
	if err != nil {
		c.log.Debug("Couldn't read jar metadata", c.log.Args("path", source, "error", err))
	}
	if ok {
		if info.Version != "" {
			return info.Name + " " + info.Version + " (jar mod)"
		}
		return info.Name + " (jar mod)"
	}
	base := filepath.Base(source)
	return strings.TrimSuffix(base, filepath.Ext(base)) + " (jar mod)"
}

func (c *ProfileController) writePatch(f *version.VersionFile) error {
	data, err := f.ToJSON()
	if err != nil {
		return err
	}
	if err := fileutils.WriteFileAtomic(f.Filename, data); err != nil {
		c.log.Error("Couldn't write patch file", c.log.Args("path", f.Filename, "error", err))
		return err
	}
	return nil
}

// InstallPatch writes a user patch into the patches directory. An existing
// patch with the same id is replaced in place and keeps its order, otherwise
// the patch is appended with the next free order.
func (c *ProfileController) InstallPatch(f *version.VersionFile) (Change, error) {
	if !c.loaded() {
		return Change{}, ErrNotLoaded
	}
	if f.FileID == "" || version.IsBuiltinID(f.FileID) || f.FileID != filepath.Base(f.FileID) {
		return Change{}, fmt.Errorf("cannot install a patch with id %q", f.FileID)
	}
	if err := fileutils.EnsureDir(c.inst.PatchesDir()); err != nil {
		return Change{}, err
	}

	before := c.profile.IDs()
	f.Filename = c.inst.PatchFile(f.FileID)
	index := c.profile.IndexOf(f.FileID)
	if index >= 0 {
		f.Order = c.profile.Patches[index].Order()
	} else {
		f.Order = c.profile.FreeOrderNumber()
	}
	if err := c.writePatch(f); err != nil {
		return Change{}, err
	}

	if index >= 0 {
		c.profile.Patches[index] = version.NewUserPatch(f)
	} else {
		c.profile.Patches = append(c.profile.Patches, version.NewUserPatch(f))
	}
	c.reapply()
	change := Change{Kind: ChangeInsert, Before: before, After: c.profile.IDs()}
	return change, c.saveCurrentOrder()
}

// ResetOrder forgets the user's order and reloads from the patch files alone.
func (c *ProfileController) ResetOrder(ctx context.Context) (Change, error) {
	if err := fileutils.RemoveOrder(c.inst.OrderFile()); err != nil {
		return Change{}, err
	}
	return c.Reload(ctx)
}
