package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mrnavastar/patchman/util/fileutils"
	"github.com/mrnavastar/patchman/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readOrder(t *testing.T, ctrl *ProfileController) []string {
	t.Helper()
	order, err := fileutils.ReadOrder(ctrl.Instance().OrderFile())
	require.NoError(t, err)
	return order
}

func writeJarFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("not really a jar"), 0644))
	return path
}

func TestReloadMergesProfile(t *testing.T) {
	inst := testInstance(t)
	writeFile(t, inst.PatchFile("forge"), `{
		"fileId": "forge", "order": 101,
		"mainClass": "net.minecraft.launchwrapper.Launch",
		"+tweakers": ["cpw.mods.fml.common.launcher.FMLTweaker"],
		"-libraries": ["com.mojang:authlib"],
		"+traits": ["legacyFML"]
	}`)
	ctrl := loadedController(t, inst)
	p := ctrl.Profile()

	assert.Equal(t, "net.minecraft.launchwrapper.Launch", p.MainClass)
	assert.Equal(t, version.DefaultAssets, p.Assets)
	assert.Equal(t, "--username ${auth_player_name} --session ${auth_session} --version ${profile_name}", p.MinecraftArguments)
	assert.Equal(t, []string{"cpw.mods.fml.common.launcher.FMLTweaker"}, p.Tweakers)
	assert.True(t, p.HasTrait("legacyFML"))
	assert.False(t, p.IsVanilla())
	for _, lib := range p.Libraries {
		assert.NotEqual(t, "com.mojang:authlib", lib.ArtifactPrefix())
	}
	// lwjgl comes from the bundle, not from the game version
	found := false
	for _, lib := range p.Libraries {
		if lib.RawName() == "org.lwjgl.lwjgl:lwjgl:2.9.1" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestReloadFailureKeepsState(t *testing.T) {
	inst := testInstance(t)
	writePatch(t, inst, "a", 5)
	ctrl := loadedController(t, inst)
	before := ctrl.Profile().IDs()

	writePatch(t, inst, "b", 5)
	_, err := ctrl.Reload(context.Background())
	var conflict *version.OrderConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, before, ctrl.Profile().IDs())
	assert.Equal(t, version.DefaultAssets, ctrl.Profile().Assets)
}

func TestMoveNoOps(t *testing.T) {
	inst := testInstance(t)
	writePatch(t, inst, "a", 101)
	ctrl := loadedController(t, inst)
	before := ctrl.Profile().IDs()

	moves := []struct {
		index     int
		direction Direction
	}{
		{0, MoveUp},
		{0, MoveDown},
		{1, MoveDown},
		{2, MoveUp},
		{2, MoveDown},
		{-1, MoveDown},
		{7, MoveUp},
	}
	for _, m := range moves {
		change, err := ctrl.Move(m.index, m.direction)
		require.NoError(t, err)
		assert.False(t, change.Changed(), "move %d %d", m.index, m.direction)
	}
	assert.Equal(t, before, ctrl.Profile().IDs())
	assert.NoFileExists(t, inst.OrderFile())
}

func TestMove(t *testing.T) {
	inst := testInstance(t)
	writePatch(t, inst, "a", 101)
	writePatch(t, inst, "b", 102)
	writeFile(t, inst.PatchFile("c"), `{"fileId": "c", "order": 103, "mainClass": "c.Main"}`)
	writeFile(t, inst.PatchFile("d"), `{"fileId": "d", "order": 104, "mainClass": "d.Main"}`)
	ctrl := loadedController(t, inst)
	assert.Equal(t, "d.Main", ctrl.Profile().MainClass)

	change, err := ctrl.Move(2, MoveDown)
	require.NoError(t, err)
	assert.Equal(t, ChangeMove, change.Kind)
	assert.Equal(t, []string{version.MinecraftUID, version.LwjglUID, "a", "b", "c", "d"}, change.Before)
	assert.Equal(t, []string{version.MinecraftUID, version.LwjglUID, "b", "a", "c", "d"}, change.After)
	assert.Equal(t, []string{"b", "a", "c", "d"}, readOrder(t, ctrl))

	_, err = ctrl.MoveByID("d", MoveUp)
	require.NoError(t, err)
	assert.Equal(t, "c.Main", ctrl.Profile().MainClass)

	// the persisted order survives a reload
	reloaded := loadedController(t, inst)
	assert.Equal(t, ctrl.Profile().IDs(), reloaded.Profile().IDs())

	_, err = ctrl.MoveByID("nope", MoveUp)
	assert.ErrorIs(t, err, version.ErrPatchNotFound)
}

func TestRemove(t *testing.T) {
	inst := testInstance(t)
	writePatch(t, inst, "a", 101)
	ctrl := loadedController(t, inst)
	_, err := ctrl.InstallJarMods([]string{writeJarFile(t, "thing.jar")})
	require.NoError(t, err)

	jarPatch, ok := ctrl.Profile().PatchAt(3)
	require.True(t, ok)
	jarPath := filepath.Join(inst.JarModsDir(), jarPatch.File.JarMods[0].Name)
	require.FileExists(t, jarPath)

	change, err := ctrl.RemoveByID(jarPatch.ID())
	require.NoError(t, err)
	assert.Equal(t, ChangeRemove, change.Kind)
	assert.NoFileExists(t, jarPath)
	assert.NoFileExists(t, inst.PatchFile(jarPatch.ID()))
	assert.Equal(t, -1, ctrl.Profile().IndexOf(jarPatch.ID()))
	assert.Equal(t, []string{"a"}, readOrder(t, ctrl))
	assert.Empty(t, ctrl.Profile().JarMods)
}

func TestRemoveRefusals(t *testing.T) {
	inst := testInstance(t)
	ctrl := loadedController(t, inst)

	_, err := ctrl.Remove(0)
	assert.ErrorIs(t, err, version.ErrNotMoveable)
	_, err = ctrl.RemoveByID(version.LwjglUID)
	assert.ErrorIs(t, err, version.ErrNotMoveable)
	_, err = ctrl.Remove(2)
	assert.ErrorIs(t, err, version.ErrIndexOutOfRange)
	_, err = ctrl.RemoveByID("nope")
	assert.ErrorIs(t, err, version.ErrPatchNotFound)
	assert.Len(t, ctrl.Profile().Patches, 2)
}

// stuckJarMod makes the jar mod of a patch impossible to delete by turning it
// into a non-empty directory.
func stuckJarMod(t *testing.T, ctrl *ProfileController, id string) {
	t.Helper()
	patch, ok := ctrl.Profile().PatchByID(id)
	require.True(t, ok)
	path := filepath.Join(ctrl.Instance().JarModsDir(), patch.File.JarMods[0].Name)
	require.NoError(t, os.Remove(path))
	writeFile(t, filepath.Join(path, "keep"), "x")
}

func TestRemoveJarModFailureLeavesList(t *testing.T) {
	inst := testInstance(t)
	ctrl := loadedController(t, inst)
	_, err := ctrl.InstallJarMods([]string{writeJarFile(t, "thing.jar")})
	require.NoError(t, err)
	id := ctrl.Profile().Patches[2].ID()
	stuckJarMod(t, ctrl, id)

	_, err = ctrl.RemoveByID(id)
	require.Error(t, err)
	assert.Equal(t, 2, ctrl.Profile().IndexOf(id))
	assert.FileExists(t, inst.PatchFile(id))
	assert.Equal(t, []string{id}, readOrder(t, ctrl))
}

func TestRevertToVanilla(t *testing.T) {
	inst := testInstance(t)
	writePatch(t, inst, "a", 101)
	writePatch(t, inst, "b", 102)
	ctrl := loadedController(t, inst)

	change, err := ctrl.RevertToVanilla()
	require.NoError(t, err)
	assert.True(t, change.Changed())
	assert.Equal(t, []string{version.MinecraftUID, version.LwjglUID}, ctrl.Profile().IDs())
	assert.True(t, ctrl.Profile().IsVanilla())
	assert.Empty(t, readOrder(t, ctrl))
	assert.NoFileExists(t, inst.PatchFile("a"))
	assert.NoFileExists(t, inst.PatchFile("b"))
}

func TestRevertToVanillaStopsAtFirstFailure(t *testing.T) {
	inst := testInstance(t)
	writePatch(t, inst, "a", 101)
	ctrl := loadedController(t, inst)
	_, err := ctrl.InstallJarMods([]string{writeJarFile(t, "one.jar"), writeJarFile(t, "two.jar")})
	require.NoError(t, err)
	stuck := ctrl.Profile().Patches[3].ID()
	last := ctrl.Profile().Patches[4].ID()
	stuckJarMod(t, ctrl, stuck)

	_, err = ctrl.RevertToVanilla()
	require.Error(t, err)
	assert.Equal(t, []string{version.MinecraftUID, version.LwjglUID, stuck, last}, ctrl.Profile().IDs())
	assert.Equal(t, []string{stuck, last}, readOrder(t, ctrl))
	assert.NoFileExists(t, inst.PatchFile("a"))
	assert.FileExists(t, inst.PatchFile(last))
}

func TestInstallJarMods(t *testing.T) {
	inst := testInstance(t)
	ctrl := loadedController(t, inst)

	change, err := ctrl.InstallJarMods([]string{writeJarFile(t, "one.jar"), writeJarFile(t, "two.jar")})
	require.NoError(t, err)
	assert.Equal(t, ChangeInsert, change.Kind)

	p := ctrl.Profile()
	require.Len(t, p.Patches, 4)
	first, second := p.Patches[2], p.Patches[3]
	assert.True(t, first.IsJarMod())
	assert.Equal(t, "one (jar mod)", first.Name())
	assert.Equal(t, 101, first.Order())
	assert.Equal(t, 102, second.Order())
	assert.Len(t, p.JarMods, 2)
	assert.Equal(t, []string{first.ID(), second.ID()}, readOrder(t, ctrl))

	// the patches are found again without the order file
	_, err = ctrl.ResetOrder(context.Background())
	require.NoError(t, err)
	assert.NoFileExists(t, inst.OrderFile())
	assert.Equal(t, []string{version.MinecraftUID, version.LwjglUID, first.ID(), second.ID()}, ctrl.Profile().IDs())
}

func TestInstallJarModCollision(t *testing.T) {
	inst := testInstance(t)
	opts := testOptions(inst)
	opts.NewID = func() string { return "5c3f0a52-8b4e-4c1d-9f38-2b7a6c0e9d11" }
	ctrl := NewProfileController(opts)
	_, err := ctrl.Reload(context.Background())
	require.NoError(t, err)

	writeFile(t, filepath.Join(inst.JarModsDir(), "5c3f0a52-8b4e-4c1d-9f38-2b7a6c0e9d11.jar"), "taken")
	change, err := ctrl.InstallJarMods([]string{writeJarFile(t, "one.jar")})
	assert.ErrorIs(t, err, version.ErrTargetExists)
	assert.False(t, change.Changed())
	assert.Len(t, ctrl.Profile().Patches, 2)
}

func TestResetOrder(t *testing.T) {
	inst := testInstance(t)
	writePatch(t, inst, "a", 101)
	writePatch(t, inst, "b", 102)
	writeOrder(t, inst, `{"version": 1, "order": ["b", "a"]}`)
	ctrl := loadedController(t, inst)
	assert.Equal(t, []string{version.MinecraftUID, version.LwjglUID, "b", "a"}, ctrl.Profile().IDs())

	change, err := ctrl.ResetOrder(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ChangeReset, change.Kind)
	assert.Equal(t, []string{version.MinecraftUID, version.LwjglUID, "a", "b"}, change.After)
}

func TestMutationsNeedLoadedList(t *testing.T) {
	inst := testInstance(t)
	writePatch(t, inst, "a", 101)
	writeOrder(t, inst, `{"version": 1, "order": ["a"]}`)
	ctrl := NewProfileController(testOptions(inst))

	_, err := ctrl.InstallJarMods([]string{writeJarFile(t, "one.jar")})
	assert.ErrorIs(t, err, ErrNotLoaded)
	_, err = ctrl.InstallPatch(&version.VersionFile{FileID: "b"})
	assert.ErrorIs(t, err, ErrNotLoaded)
	_, err = ctrl.RevertToVanilla()
	assert.ErrorIs(t, err, ErrNotLoaded)

	assert.Equal(t, []string{"a"}, readOrder(t, ctrl))
	assert.FileExists(t, inst.PatchFile("a"))
	assert.NoFileExists(t, inst.PatchFile("b"))
}

func TestInstallJarModCleansUpAfterFailedPatchWrite(t *testing.T) {
	inst := testInstance(t)
	opts := testOptions(inst)
	opts.NewID = func() string { return "5c3f0a52-8b4e-4c1d-9f38-2b7a6c0e9d11" }
	ctrl := NewProfileController(opts)
	_, err := ctrl.Reload(context.Background())
	require.NoError(t, err)

	// a non-empty directory where the patch file should go
	patchPath := inst.PatchFile(version.JarModIDPrefix + "5c3f0a52-8b4e-4c1d-9f38-2b7a6c0e9d11")
	writeFile(t, filepath.Join(patchPath, "keep"), "x")

	_, err = ctrl.InstallJarMods([]string{writeJarFile(t, "one.jar")})
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(inst.JarModsDir(), "5c3f0a52-8b4e-4c1d-9f38-2b7a6c0e9d11.jar"))
	assert.Len(t, ctrl.Profile().Patches, 2)
}
