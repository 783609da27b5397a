package version

import (
	"strings"
)

// Library is one entry of a patch's library list. Either Name
// ("group:artifact:version[:classifier]") or the split fields may be given.
type Library struct {
	Name       string `json:"name,omitempty"`
	Group      string `json:"group,omitempty"`
	Artifact   string `json:"artifact,omitempty"`
	Version    string `json:"version,omitempty"`
	Classifier string `json:"classifier,omitempty"`
	Native     bool   `json:"native,omitempty"`
	URL        string `json:"url,omitempty"`
}

// lwjglWhitelist lists artifacts shipped by the builtin library bundle.
var lwjglWhitelist = []string{
	"net.java.jinput:jinput",
	"net.java.jinput:jinput-platform",
	"net.java.jutils:jutils",
	"org.lwjgl.lwjgl:lwjgl",
	"org.lwjgl.lwjgl:lwjgl_util",
	"org.lwjgl.lwjgl:lwjgl-platform",
}

// Normalize fills Name and the split fields from each other. It reports
// false when the library has no group or artifact.
func (l *Library) Normalize() bool {
	if l.Name != "" && l.Group == "" && l.Artifact == "" {
		parts := strings.Split(l.Name, ":")
		if len(parts) < 3 || len(parts) > 4 {
			return false
		}
		l.Group, l.Artifact, l.Version = parts[0], parts[1], parts[2]
		if len(parts) == 4 {
			l.Classifier = parts[3]
		}
	}
	if l.Group == "" || l.Artifact == "" {
		return false
	}
	l.Name = l.RawName()
	return true
}

// RawName is the full maven coordinate of the library.
func (l Library) RawName() string {
	name := l.Group + ":" + l.Artifact + ":" + l.Version
	if l.Classifier != "" {
		name += ":" + l.Classifier
	}
	return name
}

// Identity is group:artifact[:classifier], the key used to replace a library.
func (l Library) Identity() string {
	id := l.ArtifactPrefix()
	if l.Classifier != "" {
		id += ":" + l.Classifier
	}
	return id
}

func (l Library) ArtifactPrefix() string {
	return l.Group + ":" + l.Artifact
}

// MatchesFilter reports whether a "-libraries" entry removes this library.
func (l Library) MatchesFilter(prefix string) bool {
	switch {
	case prefix == "":
		return false
	case prefix == l.ArtifactPrefix(), prefix == l.Identity(), prefix == l.RawName():
		return true
	default:
		return strings.HasPrefix(l.RawName(), prefix+":")
	}
}

func isLwjgl(l Library) bool {
	for _, prefix := range lwjglWhitelist {
		if l.ArtifactPrefix() == prefix {
			return true
		}
	}
	return false
}

// RemoveLwjgl drops the whitelisted LWJGL artifacts from the file's libraries.
func (f *VersionFile) RemoveLwjgl() {
	filtered := f.AddLibraries[:0]
	for _, lib := range f.AddLibraries {
		if !isLwjgl(lib) {
			filtered = append(filtered, lib)
		}
	}
	f.AddLibraries = filtered
}
