package services

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/mrnavastar/patchman/util"
	"github.com/mrnavastar/patchman/util/fileutils"
)

var (
	ErrInstanceNotFound = errors.New("failed to find instance")
	ErrInstanceExists   = errors.New("instance with that name already exists")
)

// CreateInstance registers a new instance rooted at root and creates its
// patch and jar mod directories.
func CreateInstance(name string, root string, versionID string) (util.Instance, error) {
	state, err := fileutils.LoadAppState()
	if err != nil {
		return util.Instance{}, err
	}
	for _, instance := range state.Instances {
		if strings.EqualFold(instance.Name, name) {
			return util.Instance{}, ErrInstanceExists
		}
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return util.Instance{}, err
	}
	instance := util.Instance{Name: name, Root: abs, VersionID: versionID}
	if err := fileutils.EnsureDir(instance.PatchesDir()); err != nil {
		return util.Instance{}, err
	}
	if err := fileutils.EnsureDir(instance.JarModsDir()); err != nil {
		return util.Instance{}, err
	}

	state.Instances = append(state.Instances, instance)
	if state.ActiveInstance == "" {
		state.ActiveInstance = name
	}
	return instance, fileutils.SaveAppState(state)
}

// DeleteInstance forgets the instance. Its files are left on disk.
func DeleteInstance(name string) error {
	state, err := fileutils.LoadAppState()
	if err != nil {
		return err
	}

	list := state.Instances
	for i, instance := range list {
		if strings.EqualFold(instance.Name, name) {
			state.Instances = append(list[:i:i], list[i+1:]...)
			if strings.EqualFold(state.ActiveInstance, name) {
				state.ActiveInstance = ""
			}
			return fileutils.SaveAppState(state)
		}
	}
	return ErrInstanceNotFound
}

func GetInstance(name string) (util.Instance, error) {
	state, err := fileutils.LoadAppState()
	if err != nil {
		return util.Instance{}, err
	}

	for _, instance := range state.Instances {
		if strings.EqualFold(instance.Name, name) {
			return instance, nil
		}
	}
	return util.Instance{}, ErrInstanceNotFound
}

// ActiveInstance returns the named instance, or the active one when name is empty.
func ActiveInstance(name string) (util.Instance, error) {
	if name != "" {
		return GetInstance(name)
	}
	state, err := fileutils.LoadAppState()
	if err != nil {
		return util.Instance{}, err
	}
	if state.ActiveInstance == "" {
		return util.Instance{}, ErrInstanceNotFound
	}
	return GetInstance(state.ActiveInstance)
}

func SetActiveInstance(name string) error {
	if _, err := GetInstance(name); err != nil {
		return err
	}
	state, err := fileutils.LoadAppState()
	if err != nil {
		return err
	}
	state.ActiveInstance = name
	return fileutils.SaveAppState(state)
}
