package util

import "path/filepath"

const (
	PatchesDir = "patches"
	JarModsDir = "jarmods"
	OrderFile  = "order.json"
)

type Instance struct {
	Name      string
	Root      string
	VersionID string
}

func (i Instance) PatchesDir() string {
	return filepath.Join(i.Root, PatchesDir)
}

func (i Instance) JarModsDir() string {
	return filepath.Join(i.Root, JarModsDir)
}

func (i Instance) OrderFile() string {
	return filepath.Join(i.Root, OrderFile)
}

// PatchFile is where the patch with the given id is stored.
func (i Instance) PatchFile(id string) string {
	return filepath.Join(i.PatchesDir(), id+".json")
}
