package fileutils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/buger/jsonparser"
	"github.com/mrnavastar/patchman/version"
	"github.com/tidwall/gjson"
)

const CurrentOrderFileVersion = 1

type orderFile struct {
	Version int      `json:"version"`
	Order   []string `json:"order"`
}

// ReadOrder loads the persisted patch order. A missing file returns an error
// wrapping fs.ErrNotExist, anything unreadable or of the wrong version returns
// *version.OrderFileFormatError.
func ReadOrder(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return nil, &version.OrderFileFormatError{Path: path, Reason: err.Error()}
	}
	if !gjson.ValidBytes(data) {
		return nil, &version.OrderFileFormatError{Path: path, Reason: "malformed JSON"}
	}

	v, err := jsonparser.GetInt(data, "version")
	if err != nil {
		return nil, &version.OrderFileFormatError{Path: path, Reason: "version: " + err.Error()}
	}
	if v != CurrentOrderFileVersion {
		return nil, &version.OrderFileFormatError{
			Path:   path,
			Reason: fmt.Sprintf("invalid order file version %d, expected %d", v, CurrentOrderFileVersion),
		}
	}

	_, dataType, _, err := jsonparser.Get(data, "order")
	if err != nil || dataType != jsonparser.Array {
		return nil, &version.OrderFileFormatError{Path: path, Reason: "order must be a list"}
	}
	order := []string{}
	var itemErr error
	_, err = jsonparser.ArrayEach(data, func(value []byte, dataType jsonparser.ValueType, offset int, err error) {
		if itemErr != nil {
			return
		}
		if err != nil {
			itemErr = err
			return
		}
		if dataType != jsonparser.String {
			itemErr = fmt.Errorf("order entry at offset %d is not a string", offset)
			return
		}
		id, err := jsonparser.ParseString(value)
		if err != nil {
			itemErr = err
			return
		}
		order = append(order, id)
	}, "order")
	if err == nil {
		err = itemErr
	}
	if err != nil {
		return nil, &version.OrderFileFormatError{Path: path, Reason: err.Error()}
	}
	return order, nil
}

func WriteOrder(path string, order []string) error {
	if order == nil {
		order = []string{}
	}
	data, err := json.MarshalIndent(orderFile{Version: CurrentOrderFileVersion, Order: order}, "", "    ")
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, data)
}

func RemoveOrder(path string) error {
	return RemoveIfExists(path)
}
