package generator

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/avro07/spay/internal/service"
)

// WriteSeed serializes seed as indented JSON at path, creating parent directories.
func WriteSeed(seed service.Seed, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	if err := EncodeSeed(file, seed); err != nil {
		return fmt.Errorf("encode json for %s: %w", path, err)
	}
	return nil
}

// EncodeSeed writes seed to w as indented JSON.
func EncodeSeed(w io.Writer, seed service.Seed) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(seed)
}

// ReadSeed loads a seed file written by WriteSeed.
func ReadSeed(path string) (service.Seed, error) {
	file, err := os.Open(path)
	if err != nil {
		return service.Seed{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	var seed service.Seed
	if err := json.NewDecoder(file).Decode(&seed); err != nil {
		return service.Seed{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return seed, nil
}
