package version

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
)

// VersionFile is one parsed patch document. It is not modified after loading,
// apart from the order and vanilla flag a builtin gets assigned by the loader.
type VersionFile struct {
	FileID                 string    `json:"fileId"`
	Name                   string    `json:"name,omitempty"`
	Version                string    `json:"version,omitempty"`
	Order                  int       `json:"order"`
	Vanilla                bool      `json:"vanilla,omitempty"`
	AddLibraries           []Library `json:"+libraries,omitempty"`
	RemoveLibraries        []string  `json:"-libraries,omitempty"`
	JarMods                []JarMod  `json:"jarMods,omitempty"`
	MainClass              string    `json:"mainClass,omitempty"`
	AppletClass            string    `json:"appletClass,omitempty"`
	Tweakers               []string  `json:"+tweakers,omitempty"`
	MinimumLauncherVersion int       `json:"minimumLauncherVersion,omitempty"`
	Assets                 string    `json:"assets,omitempty"`
	ProcessArguments       string    `json:"processArguments,omitempty"`
	MinecraftArguments     string    `json:"minecraftArguments,omitempty"`
	Traits                 []string  `json:"+traits,omitempty"`

	// Filename is the backing file, empty for patches that have none.
	Filename string `json:"-"`
}

// JarMod references a file in the instance's jar mod directory.
type JarMod struct {
	Name string `json:"name"`
}

type fieldRule struct {
	path string
	typ  gjson.Type
	list bool
}

var schema = []fieldRule{
	{path: "name", typ: gjson.String},
	{path: "version", typ: gjson.String},
	{path: "order", typ: gjson.Number},
	{path: "vanilla", typ: gjson.True},
	{path: "+libraries", list: true, typ: gjson.JSON},
	{path: "-libraries", list: true, typ: gjson.String},
	{path: "jarMods", list: true, typ: gjson.JSON},
	{path: "mainClass", typ: gjson.String},
	{path: "appletClass", typ: gjson.String},
	{path: "+tweakers", list: true, typ: gjson.String},
	{path: "minimumLauncherVersion", typ: gjson.Number},
	{path: "assets", typ: gjson.String},
	{path: "processArguments", typ: gjson.String},
	{path: "minecraftArguments", typ: gjson.String},
	{path: "+traits", list: true, typ: gjson.String},
}

func sameType(got, want gjson.Type) bool {
	if want == gjson.True {
		return got == gjson.True || got == gjson.False
	}
	return got == want
}

// ParseFile reads and validates a patch document from disk.
func ParseFile(path string, requireOrder bool) (*VersionFile, error) {
	name := filepath.Base(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{File: name, Reason: "unable to open", Err: err}
	}
	f, err := Parse(name, data, requireOrder)
	if err != nil {
		return nil, err
	}
	f.Filename = path
	return f, nil
}

// Parse validates data against the patch schema and decodes it. name is only
// used in errors.
func Parse(name string, data []byte, requireOrder bool) (*VersionFile, error) {
	if !gjson.ValidBytes(data) {
		return nil, &ParseError{File: name, Reason: "malformed JSON"}
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, &ParseError{File: name, Reason: "top level value is not an object"}
	}
	id := doc.Get("fileId")
	if id.Type != gjson.String || id.Str == "" {
		return nil, &ParseError{File: name, Reason: "fileId must be a non-empty string"}
	}
	if requireOrder && !doc.Get("order").Exists() {
		return nil, &ParseError{File: name, Reason: "order is required"}
	}
	for _, rule := range schema {
		v := doc.Get(rule.path)
		if !v.Exists() {
			continue
		}
		if !rule.list {
			if !sameType(v.Type, rule.typ) {
				return nil, &ParseError{File: name, Reason: rule.path + " has the wrong type"}
			}
			continue
		}
		if !v.IsArray() {
			return nil, &ParseError{File: name, Reason: rule.path + " must be a list"}
		}
		for _, item := range v.Array() {
			if !sameType(item.Type, rule.typ) || (rule.typ == gjson.JSON && !item.IsObject()) {
				return nil, &ParseError{File: name, Reason: rule.path + " contains an entry of the wrong type"}
			}
		}
	}
	if o := doc.Get("order"); o.Exists() && float64(o.Int()) != o.Num {
		return nil, &ParseError{File: name, Reason: "order must be an integer"}
	}

	var f VersionFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, &ParseError{File: name, Reason: "schema violation", Err: err}
	}
	for i := range f.AddLibraries {
		if !f.AddLibraries[i].Normalize() {
			return nil, &ParseError{File: name, Reason: "library entry needs group and artifact"}
		}
	}
	for _, jm := range f.JarMods {
		if jm.Name == "" || jm.Name != filepath.Base(jm.Name) {
			return nil, &ParseError{File: name, Reason: "jar mod name must be a plain file name"}
		}
	}
	return &f, nil
}

// ToJSON renders the document the way it is stored in the patches directory.
func (f *VersionFile) ToJSON() ([]byte, error) {
	return json.MarshalIndent(f, "", "  ")
}

// IsCustom reports whether the patch changes the game beyond vanilla.
func (f *VersionFile) IsCustom() bool {
	return !f.Vanilla
}
