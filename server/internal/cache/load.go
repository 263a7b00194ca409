package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	jsoniter "github.com/json-iterator/go"

	"github.com/netviz/netviz/pkg/types"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// envelope is the PeeringDB response wrapper: {"data": [...]}.
type envelope struct {
	Data *[]types.Network `json:"data"`
}

// Load reads the dataset file at path.
//
// A missing or unreadable file is reported as types.ErrIO; malformed JSON or
// a payload without a "data" array as types.ErrParse.
func Load(path string) ([]types.Network, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cache: read %q: %w: %w", path, types.ErrIO, err)
	}
	return Decode(raw)
}

// Decode parses a PeeringDB response body into network records.
func Decode(raw []byte) ([]types.Network, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("cache: decode: %w: %w", types.ErrParse, err)
	}
	if env.Data == nil {
		return nil, fmt.Errorf("cache: decode: %w: missing \"data\" array", types.ErrParse)
	}
	return *env.Data, nil
}

// Exists reports whether a dataset file is present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}
