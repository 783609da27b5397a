package fileutils

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mrnavastar/patchman/util"
	"github.com/zalando/go-keyring"
)

const (
	keyringService = "patchman"
	keyringHomeKey = "home"
	stateFileName  = "patchman.json"
)

type State struct {
	Home           string          `json:"-"`
	ActiveInstance string          `json:"activeInstance"`
	Instances      []util.Instance `json:"instances"`
}

// Setup remembers home as the application directory and creates an empty
// state file there if none exists.
func Setup(home string) error {
	abs, err := filepath.Abs(home)
	if err != nil {
		return err
	}
	if err := EnsureDir(abs); err != nil {
		return err
	}
	if err := keyring.Set(keyringService, keyringHomeKey, abs); err != nil {
		return err
	}
	if Exists(filepath.Join(abs, stateFileName)) {
		return nil
	}
	return SaveAppState(State{Home: abs})
}

func HomeDir() (string, error) {
	return keyring.Get(keyringService, keyringHomeKey)
}

func LoadAppState() (State, error) {
	home, err := HomeDir()
	if err != nil {
		return State{}, err
	}

	state := State{Home: home}
	data, err := os.ReadFile(filepath.Join(home, stateFileName))
	if errors.Is(err, fs.ErrNotExist) {
		return state, nil
	}
	if err != nil {
		return State{}, err
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, err
	}
	state.Home = home
	return state, nil
}

func SaveAppState(state State) error {
	home := state.Home
	if home == "" {
		h, err := HomeDir()
		if err != nil {
			return err
		}
		home = h
	}

	file, err := json.MarshalIndent(state, "", " ")
	if err != nil {
		return err
	}
	return WriteFileAtomic(filepath.Join(home, stateFileName), file)
}
