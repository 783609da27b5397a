package version

import (
	"sort"
	"strings"
	"time"

	"github.com/mrnavastar/patchman/util"
	"github.com/pterm/pterm"
)

const (
	DefaultAssets     = "legacy"
	aprilFoolsSuffix  = "_af"
	freeOrderFloor    = 100
	noLauncherVersion = 0
)

// Profile is the merge target every patch is applied to, in list order.
// It is not safe for concurrent use.
type Profile struct {
	Patches []Patch

	Assets                 string
	ProcessArguments       string
	MinecraftArguments     string
	MinimumLauncherVersion int
	MainClass              string
	AppletClass            string
	Libraries              []Library
	Tweakers               []string
	JarMods                []JarMod
	Traits                 map[string]struct{}

	log *pterm.Logger
}

func NewProfile(logger *pterm.Logger) *Profile {
	p := &Profile{log: util.Logger(logger)}
	p.Clear()
	return p
}

// Clear resets every merged field. The patch list is kept.
func (p *Profile) Clear() {
	p.Assets = ""
	p.ProcessArguments = ""
	p.MinecraftArguments = ""
	p.MinimumLauncherVersion = noLauncherVersion
	p.MainClass = ""
	p.AppletClass = ""
	p.Libraries = nil
	p.Tweakers = nil
	p.JarMods = nil
	p.Traits = map[string]struct{}{}
}

// Reapply rebuilds the merged fields from the current patch list.
func (p *Profile) Reapply(now time.Time) {
	p.Clear()
	for _, patch := range p.Patches {
		p.Apply(patch.File)
	}
	p.Finalize(now)
}

// Apply merges one patch document into the profile.
//
// assets, minecraftArguments and processArguments are only taken from the
// first patch that sets them. mainClass and appletClass are taken from the
// last. minimumLauncherVersion keeps the highest value. Collections accumulate.
func (p *Profile) Apply(f *VersionFile) {
	setOnce(&p.Assets, f.Assets)
	setOnce(&p.MinecraftArguments, f.MinecraftArguments)
	setOnce(&p.ProcessArguments, f.ProcessArguments)
	if f.MainClass != "" {
		p.MainClass = f.MainClass
	}
	if f.AppletClass != "" {
		p.AppletClass = f.AppletClass
	}
	if f.MinimumLauncherVersion > p.MinimumLauncherVersion {
		p.MinimumLauncherVersion = f.MinimumLauncherVersion
	}

	if len(f.RemoveLibraries) > 0 {
		kept := p.Libraries[:0]
		for _, lib := range p.Libraries {
			removed := false
			for _, filter := range f.RemoveLibraries {
				if lib.MatchesFilter(filter) {
					removed = true
					break
				}
			}
			if !removed {
				kept = append(kept, lib)
			}
		}
		p.Libraries = kept
	}
	for _, lib := range f.AddLibraries {
		p.addLibrary(lib)
	}

	for _, tweaker := range f.Tweakers {
		if !util.Contains(p.Tweakers, tweaker) {
			p.Tweakers = append(p.Tweakers, tweaker)
		}
	}
	p.JarMods = append(p.JarMods, f.JarMods...)
	for _, trait := range f.Traits {
		p.Traits[trait] = struct{}{}
	}
}

func (p *Profile) addLibrary(lib Library) {
	for i, existing := range p.Libraries {
		if existing.Identity() == lib.Identity() {
			p.Libraries[i] = lib
			return
		}
	}
	p.Libraries = append(p.Libraries, lib)
}

// Finalize fills in defaults once all patches have been applied.
func (p *Profile) Finalize(now time.Time) {
	aprilFools := now.Month() == time.April && now.Day() == 1
	if strings.HasSuffix(p.Assets, aprilFoolsSuffix) && !aprilFools {
		p.Assets = strings.TrimSuffix(p.Assets, aprilFoolsSuffix)
	}
	if p.Assets == "" {
		p.Assets = DefaultAssets
	}
	if p.MinecraftArguments == "" {
		p.MinecraftArguments = argumentsPreset(p.ProcessArguments)
	}
}

// argumentsPreset returns "" for unknown preset names.
func argumentsPreset(processArguments string) string {
	switch strings.ToLower(processArguments) {
	case "legacy":
		return " ${auth_player_name} ${auth_session}"
	case "username_session":
		return "--username ${auth_player_name} --session ${auth_session}"
	case "username_session_version":
		return "--username ${auth_player_name} --session ${auth_session} --version ${profile_name}"
	}
	return ""
}

// ActiveNormalLibs returns the non-native libraries, keeping the first of
// several entries with the same raw name.
func (p *Profile) ActiveNormalLibs() []Library {
	var out []Library
	seen := map[string]bool{}
	for _, lib := range p.Libraries {
		if lib.Native {
			continue
		}
		if seen[lib.RawName()] {
			p.log.Warn("Multiple libraries with the same name in library list", p.log.Args("library", lib.RawName()))
			continue
		}
		seen[lib.RawName()] = true
		out = append(out, lib)
	}
	return out
}

func (p *Profile) ActiveNativeLibs() []Library {
	var out []Library
	for _, lib := range p.Libraries {
		if lib.Native {
			out = append(out, lib)
		}
	}
	return out
}

// TraitList returns the traits sorted by name.
func (p *Profile) TraitList() []string {
	traits := make([]string, 0, len(p.Traits))
	for trait := range p.Traits {
		traits = append(traits, trait)
	}
	sort.Strings(traits)
	return traits
}

func (p *Profile) HasTrait(trait string) bool {
	_, ok := p.Traits[trait]
	return ok
}

// IsVanilla is true when no patch in the list is custom.
func (p *Profile) IsVanilla() bool {
	for _, patch := range p.Patches {
		if patch.IsCustom() {
			return false
		}
	}
	return true
}

func (p *Profile) PatchAt(index int) (Patch, bool) {
	if index < 0 || index >= len(p.Patches) {
		return Patch{}, false
	}
	return p.Patches[index], true
}

func (p *Profile) IndexOf(id string) int {
	for i, patch := range p.Patches {
		if patch.ID() == id {
			return i
		}
	}
	return -1
}

func (p *Profile) PatchByID(id string) (Patch, bool) {
	return p.PatchAt(p.IndexOf(id))
}

// FreeOrderNumber is one above the largest order in use, and at least 101.
func (p *Profile) FreeOrderNumber() int {
	largest := freeOrderFloor
	for _, patch := range p.Patches {
		if patch.Order() > largest {
			largest = patch.Order()
		}
	}
	return largest + 1
}

// CurrentOrder lists the ids of the moveable patches in application order.
func (p *Profile) CurrentOrder() []string {
	order := []string{}
	for _, patch := range p.Patches {
		if patch.Moveable() {
			order = append(order, patch.ID())
		}
	}
	return order
}

// IDs is a snapshot of the patch ids in list order.
func (p *Profile) IDs() []string {
	ids := make([]string, len(p.Patches))
	for i, patch := range p.Patches {
		ids[i] = patch.ID()
	}
	return ids
}

func setOnce(dst *string, value string) {
	if *dst == "" {
		*dst = value
	}
}
