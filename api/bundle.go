package api

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/mrnavastar/patchman/version"
	"golang.org/x/mod/semver"
)

//go:embed resources/lwjgl/*.json
var bundles embed.FS

const bundleDir = "resources/lwjgl"

// Bundle loads the library bundle shipped with the application.
type Bundle struct {
	// Version selects a bundle, empty means the newest one.
	Version string
}

// BundleVersions lists the shipped bundle versions, newest first.
func BundleVersions() []string {
	entries, err := bundles.ReadDir(bundleDir)
	if err != nil {
		return nil
	}
	var versions []string
	for _, e := range entries {
		if v := strings.TrimSuffix(e.Name(), ".json"); semver.IsValid("v" + v) {
			versions = append(versions, v)
		}
	}
	sort.Slice(versions, func(i, j int) bool {
		return semver.Compare("v"+versions[i], "v"+versions[j]) > 0
	})
	return versions
}

func (b Bundle) LoadBundle() (*version.VersionFile, error) {
	v := b.Version
	if v == "" {
		versions := BundleVersions()
		if len(versions) == 0 {
			return nil, fmt.Errorf("no library bundle is shipped")
		}
		v = versions[0]
	}
	name := path.Join(bundleDir, v+".json")
	data, err := bundles.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("library bundle %s: %w", v, err)
	}
	return version.Parse(path.Base(name), data, false)
}
