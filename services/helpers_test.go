package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mrnavastar/patchman/api"
	"github.com/mrnavastar/patchman/util"
	"github.com/mrnavastar/patchman/version"
	"github.com/pterm/pterm"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	err error
}

func (c fakeCatalog) FindVersion(ctx context.Context, id string) (*version.VersionFile, error) {
	if c.err != nil {
		return nil, c.err
	}
	lib := version.Library{Name: "com.mojang:authlib:1.5.21"}
	lwjgl := version.Library{Name: "org.lwjgl.lwjgl:lwjgl:2.9.1"}
	lib.Normalize()
	lwjgl.Normalize()
	return &version.VersionFile{
		Name:                   "Minecraft",
		Version:                id,
		MainClass:              "net.minecraft.client.main.Main",
		ProcessArguments:       "username_session_version",
		MinimumLauncherVersion: 13,
		AddLibraries:           []version.Library{lib, lwjgl},
	}, nil
}

func quietLogger() *pterm.Logger {
	return pterm.DefaultLogger.WithWriter(io.Discard)
}

func testInstance(t *testing.T) util.Instance {
	t.Helper()
	inst := util.Instance{Name: "test", Root: t.TempDir(), VersionID: "1.7.10"}
	require.NoError(t, os.MkdirAll(inst.PatchesDir(), 0755))
	return inst
}

func testOptions(inst util.Instance) Options {
	return Options{
		Instance: inst,
		Catalog:  fakeCatalog{},
		Bundle:   api.Bundle{},
		Logger:   quietLogger(),
		Now: func() time.Time {
			return time.Date(2024, time.March, 3, 12, 0, 0, 0, time.UTC)
		},
	}
}

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// writePatch stores a minimal user patch under patches/<id>.json.
func writePatch(t *testing.T, inst util.Instance, id string, order int) {
	t.Helper()
	writeFile(t, inst.PatchFile(id), fmt.Sprintf(`{"fileId": %q, "name": %q, "order": %d}`, id, id, order))
}

func writeOrder(t *testing.T, inst util.Instance, content string) {
	t.Helper()
	writeFile(t, inst.OrderFile(), content)
}

func loadedController(t *testing.T, inst util.Instance) *ProfileController {
	t.Helper()
	ctrl := NewProfileController(testOptions(inst))
	_, err := ctrl.Reload(context.Background())
	require.NoError(t, err)
	return ctrl
}

func ids(patches []version.Patch) []string {
	out := make([]string, len(patches))
	for i, patch := range patches {
		out[i] = patch.ID()
	}
	return out
}
