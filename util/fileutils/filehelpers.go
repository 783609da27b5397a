package fileutils

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}

// CopyFileExclusive copies src to dst and fails with fs.ErrExist if dst is
// already there.
func CopyFileExclusive(src string, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return err
	}
	return nil
}

// RemoveIfExists deletes path. A missing file is not an error.
func RemoveIfExists(path string) error {
	err := os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// WriteFileAtomic writes data to a temp file next to path and renames it over path.
func WriteFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}

// JarInfo is the metadata a mod jar declares about itself.
type JarInfo struct {
	Id      string
	Name    string
	Version string
}

type mcModInfo struct {
	ModID   string `json:"modid"`
	Name    string `json:"name"`
	Version string `json:"version"`
}

// GetJarInfo reads fabric.mod.json or mcmod.info from a jar. ok is false when
// the file is not a zip or declares nothing.
func GetJarInfo(path string) (info JarInfo, ok bool, err error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		if errors.Is(err, zip.ErrFormat) {
			return JarInfo{}, false, nil
		}
		return JarInfo{}, false, err
	}
	defer reader.Close()

	for _, file := range reader.File {
		switch file.Name {
		case "fabric.mod.json":
			var modJson JarInfo
			if err := readZipJSON(file, &modJson); err != nil {
				return JarInfo{}, false, fmt.Errorf("reading %s: %w", file.Name, err)
			}
			return modJson, modJson.Name != "", nil
		case "mcmod.info":
			var mods []mcModInfo
			if err := readZipJSON(file, &mods); err != nil {
				return JarInfo{}, false, fmt.Errorf("reading %s: %w", file.Name, err)
			}
			if len(mods) == 0 || mods[0].Name == "" {
				return JarInfo{}, false, nil
			}
			return JarInfo{Id: mods[0].ModID, Name: mods[0].Name, Version: mods[0].Version}, true, nil
		}
	}
	return JarInfo{}, false, nil
}

func readZipJSON(file *zip.File, v interface{}) error {
	f, err := file.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return err
	}
	// mod authors put raw newlines inside strings more often than you'd think
	return json.Unmarshal([]byte(strings.ReplaceAll(string(content), "\n", "")), v)
}
