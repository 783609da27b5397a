package version

import (
	"strings"

	"github.com/go-openapi/strfmt"
)

const (
	MinecraftUID   = "net.minecraft"
	LwjglUID       = "org.lwjgl"
	JarModIDPrefix = "org.multimc.jarmod."

	MinecraftOrder = -2
	LwjglOrder     = -1
)

// Kind tells where a patch came from.
type Kind int

const (
	KindUser Kind = iota
	KindEngineVersion
	KindLibraryBundle
)

func (k Kind) String() string {
	switch k {
	case KindEngineVersion:
		return "engine"
	case KindLibraryBundle:
		return "bundle"
	default:
		return "user"
	}
}

// Patch is one entry of the ordered patch list.
type Patch struct {
	Kind Kind
	File *VersionFile
}

// NewEngineVersionPatch pins f as the builtin game version patch.
func NewEngineVersionPatch(f *VersionFile) Patch {
	f.FileID = MinecraftUID
	f.Order = MinecraftOrder
	f.Vanilla = true
	f.RemoveLwjgl()
	return Patch{Kind: KindEngineVersion, File: f}
}

// NewLibraryBundlePatch pins f as the builtin library bundle patch.
func NewLibraryBundlePatch(f *VersionFile) Patch {
	f.FileID = LwjglUID
	f.Order = LwjglOrder
	f.Vanilla = true
	return Patch{Kind: KindLibraryBundle, File: f}
}

func NewUserPatch(f *VersionFile) Patch {
	return Patch{Kind: KindUser, File: f}
}

func (p Patch) ID() string      { return p.File.FileID }
func (p Patch) Name() string    { return p.File.Name }
func (p Patch) Version() string { return p.File.Version }
func (p Patch) Order() int      { return p.File.Order }

// Moveable patches can be reordered and removed. Builtins never can.
func (p Patch) Moveable() bool {
	switch p.Kind {
	case KindEngineVersion, KindLibraryBundle:
		return false
	case KindUser:
		return true
	}
	return false
}

func (p Patch) IsCustom() bool {
	return p.File.IsCustom()
}

// IsJarMod reports whether the patch was created by a jar mod install.
func (p Patch) IsJarMod() bool {
	return IsJarModID(p.ID())
}

func IsJarModID(id string) bool {
	rest := strings.TrimPrefix(id, JarModIDPrefix)
	return rest != id && strfmt.IsUUID(rest)
}

// IsBuiltinID reports whether id is reserved for a builtin patch.
func IsBuiltinID(id string) bool {
	return id == MinecraftUID || id == LwjglUID
}
