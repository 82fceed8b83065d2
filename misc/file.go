package misc

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

func ReadFile(fileName string) ([]byte, error) {
	if fileName == "" {
		return nil, errors.New("no filename supplied")
	}
	fileBytes, err := os.ReadFile(fileName)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s - %w", fileName, err)
	}
	return fileBytes, nil
}

// LoadSettingsFile decodes a settings file into settings. Files ending in .yaml or .yml are read as YAML,
// everything else as JSON.
func LoadSettingsFile(fileName string, settings interface{}) error {
	fileBytes, err := ReadFile(fileName)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(fileBytes, settings)
	default:
		err = json.Unmarshal(fileBytes, settings)
	}
	if err != nil {
		return fmt.Errorf("unable to decode %s - %w", fileName, err)
	}
	return nil
}
