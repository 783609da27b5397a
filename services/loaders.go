package services

import (
	"context"
	"fmt"

	"github.com/mrnavastar/patchman/version"
)

// LoaderSource fetches mod loader patches for a game version.
type LoaderSource interface {
	FabricPatch(ctx context.Context, gameVersion string, loaderVersion string) (*version.VersionFile, error)
	QuiltPatch(ctx context.Context, gameVersion string, loaderVersion string) (*version.VersionFile, error)
}

// InstallLoader installs (or replaces) the patch for a mod loader.
func (c *ProfileController) InstallLoader(ctx context.Context, source LoaderSource, loader string, loaderVersion string) (Change, error) {
	var (
		f   *version.VersionFile
		err error
	)
	switch loader {
	case "fabric":
		f, err = source.FabricPatch(ctx, c.inst.VersionID, loaderVersion)
	case "quilt":
		f, err = source.QuiltPatch(ctx, c.inst.VersionID, loaderVersion)
	default:
		return Change{}, fmt.Errorf("unknown loader %q", loader)
	}
	if err != nil {
		return Change{}, err
	}
	return c.InstallPatch(f)
}
