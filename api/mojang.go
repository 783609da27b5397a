package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/mrnavastar/patchman/util"
	"github.com/mrnavastar/patchman/util/fileutils"
	"github.com/mrnavastar/patchman/version"
	"github.com/pterm/pterm"
)

type ManifestVersion struct {
	Id          string `json:"id"`
	Type        string `json:"type"`
	Url         string `json:"url"`
	ReleaseTime string `json:"releaseTime"`
}

type manifest struct {
	Latest struct {
		Release  string `json:"release"`
		Snapshot string `json:"snapshot"`
	} `json:"latest"`
	Versions []ManifestVersion `json:"versions"`
}

// MojangCatalog resolves game version ids to their version patch, caching the
// version JSON under <CacheDir>/versions/<id>/<id>.json.
type MojangCatalog struct {
	ManifestURL string
	CacheDir    string

	client *resty.Client
	log    *pterm.Logger
}

func NewMojangCatalog(client *resty.Client, cacheDir string, logger *pterm.Logger) *MojangCatalog {
	if client == nil {
		client = NewClient()
	}
	return &MojangCatalog{
		ManifestURL: MojangManifestURL,
		CacheDir:    cacheDir,
		client:      client,
		log:         util.Logger(logger),
	}
}

func (c *MojangCatalog) cachePath(id string) string {
	return filepath.Join(c.CacheDir, "versions", id, id+".json")
}

func (c *MojangCatalog) manifest(ctx context.Context) (manifest, error) {
	var m manifest
	resp, err := c.client.R().SetContext(ctx).SetResult(&m).Get(c.ManifestURL)
	if err != nil {
		return manifest{}, err
	}
	if resp.IsError() {
		return manifest{}, fmt.Errorf("fetching version manifest: %s", resp.Status())
	}
	return m, nil
}

func (c *MojangCatalog) Versions(ctx context.Context) ([]ManifestVersion, error) {
	m, err := c.manifest(ctx)
	if err != nil {
		return nil, err
	}
	return m.Versions, nil
}

func (c *MojangCatalog) LatestRelease(ctx context.Context) (string, error) {
	m, err := c.manifest(ctx)
	if err != nil {
		return "", err
	}
	return m.Latest.Release, nil
}

// FindVersion returns the game version patch for id.
func (c *MojangCatalog) FindVersion(ctx context.Context, id string) (*version.VersionFile, error) {
	path := c.cachePath(id)
	data, err := os.ReadFile(path)
	if err == nil {
		c.log.Debug("Using cached version file", c.log.Args("id", id, "path", path))
		return FromLauncherJSON(filepath.Base(path), data)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	m, err := c.manifest(ctx)
	if err != nil {
		return nil, err
	}
	var entry *ManifestVersion
	for i := range m.Versions {
		if m.Versions[i].Id == id {
			entry = &m.Versions[i]
			break
		}
	}
	if entry == nil {
		return nil, fmt.Errorf("version %s is not in the version manifest", id)
	}

	resp, err := c.client.R().SetContext(ctx).Get(entry.Url)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetching version %s: %s", id, resp.Status())
	}
	data = resp.Body()
	f, err := FromLauncherJSON(id+".json", data)
	if err != nil {
		return nil, err
	}

	if err := fileutils.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, err
	}
	if err := fileutils.WriteFileAtomic(path, data); err != nil {
		c.log.Warn("Could not cache version file", c.log.Args("path", path, "error", err))
	}
	return f, nil
}

type launcherLibrary struct {
	Name    string            `json:"name"`
	Url     string            `json:"url"`
	Natives map[string]string `json:"natives"`
}

type launcherJSON struct {
	Id                     string            `json:"id"`
	MainClass              string            `json:"mainClass"`
	MinecraftArguments     string            `json:"minecraftArguments"`
	ProcessArguments       string            `json:"processArguments"`
	Assets                 string            `json:"assets"`
	MinimumLauncherVersion int               `json:"minimumLauncherVersion"`
	Libraries              []launcherLibrary `json:"libraries"`
	Arguments              struct {
		Game []json.RawMessage `json:"game"`
	} `json:"arguments"`
}

func nativesKey() string {
	switch runtime.GOOS {
	case "darwin":
		return "osx"
	case "windows":
		return "windows"
	default:
		return "linux"
	}
}

// FromLauncherJSON converts a launcher-format version JSON (as served by
// Mojang, Fabric and Quilt) into a patch document.
func FromLauncherJSON(name string, data []byte) (*version.VersionFile, error) {
	var doc launcherJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &version.ParseError{File: name, Reason: "malformed launcher JSON", Err: err}
	}

	f := &version.VersionFile{
		Name:                   "Minecraft",
		Version:                doc.Id,
		MainClass:              doc.MainClass,
		Assets:                 doc.Assets,
		ProcessArguments:       doc.ProcessArguments,
		MinecraftArguments:     doc.MinecraftArguments,
		MinimumLauncherVersion: doc.MinimumLauncherVersion,
	}
	if f.MinecraftArguments == "" && len(doc.Arguments.Game) > 0 {
		var args []string
		for _, raw := range doc.Arguments.Game {
			var s string
			// conditional arguments are objects, only plain strings apply unconditionally
			if json.Unmarshal(raw, &s) == nil {
				args = append(args, s)
			}
		}
		f.MinecraftArguments = strings.Join(args, " ")
	}

	for _, l := range doc.Libraries {
		lib := version.Library{Name: l.Name, URL: l.Url}
		if l.Natives != nil {
			classifier, ok := l.Natives[nativesKey()]
			if !ok {
				// natives for other platforms only
				continue
			}
			lib.Name += ":" + strings.ReplaceAll(classifier, "${arch}", "64")
			lib.Native = true
		}
		if !lib.Normalize() {
			return nil, &version.ParseError{File: name, Reason: "bad library name " + l.Name}
		}
		f.AddLibraries = append(f.AddLibraries, lib)
	}
	return f, nil
}
