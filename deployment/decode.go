package deployment

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/google/uuid"
	ms "github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/wiless/coverage/pathloss"
)

// LoadTowers reads towers (and an optional grid section) from a .json,
// .yaml or .yml file. The document is either a bare list of towers or an
// object with a "towers" list and a "grid" object. Grid fields absent from
// the file keep their defaults.
func LoadTowers(path string) ([]Tower, GridConfig, error) {
	return LoadTowersOver(path, DefaultGridConfig())
}

// LoadTowersOver is LoadTowers with the file's grid section overlaid on base.
func LoadTowersOver(path string, base GridConfig) ([]Tower, GridConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, base, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parseTowers(data, true, base)
	default:
		return parseTowers(data, false, base)
	}
}

// ParseTowers decodes a tower document in YAML or JSON.
func ParseTowers(data []byte, isYAML bool) ([]Tower, GridConfig, error) {
	return parseTowers(data, isYAML, DefaultGridConfig())
}

func parseTowers(data []byte, isYAML bool, grid GridConfig) ([]Tower, GridConfig, error) {
	unmarshal := json.Unmarshal
	if isYAML {
		unmarshal = yaml.Unmarshal
	}
	var raw interface{}
	if err := unmarshal(data, &raw); err != nil {
		return nil, grid, fmt.Errorf("decoding tower file: %w", err)
	}

	var records []interface{}
	switch doc := raw.(type) {
	case []interface{}:
		records = doc
	case map[string]interface{}:
		if g, ok := doc["grid"]; ok && g != nil {
			if err := DecodeGrid(g, &grid); err != nil {
				return nil, grid, err
			}
		}
		list, ok := doc["towers"].([]interface{})
		if !ok {
			return nil, grid, fmt.Errorf("%w: document has no towers list", ErrInvalidTower)
		}
		records = list
	default:
		return nil, grid, fmt.Errorf("%w: unexpected document type %T", ErrInvalidTower, raw)
	}

	towers, err := DecodeTowers(records)
	return towers, grid, err
}

// DecodeTowers converts generic records into towers. Missing fields take
// the DefaultTower values and missing ids get a random UUID. The first
// record that fails to decode fails the whole list.
func DecodeTowers(records []interface{}) ([]Tower, error) {
	towers := make([]Tower, 0, len(records))
	for indx, rec := range records {
		t, err := DecodeTower(rec)
		if err != nil {
			return nil, fmt.Errorf("tower %d: %w", indx, err)
		}
		towers = append(towers, t)
	}
	return towers, nil
}

// DecodeTower converts a single generic record into a normalized tower.
// Unknown scenario names wrap pathloss.ErrUnknownScenario.
func DecodeTower(rec interface{}) (Tower, error) {
	t := DefaultTower("", 0, 0)
	// the decode hook flattens errors to text, so names are checked first
	if m, ok := rec.(map[string]interface{}); ok {
		if name, ok := m["scenario"].(string); ok {
			if _, err := pathloss.ParseScenario(name); err != nil {
				return t, fmt.Errorf("%w: %w", ErrInvalidTower, err)
			}
		}
	}
	if err := decode(rec, &t); err != nil {
		return t, fmt.Errorf("%w: %v", ErrInvalidTower, err)
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return t.Normalized(), nil
}

// DecodeGrid overlays the fields present in rec onto grid.
func DecodeGrid(rec interface{}, grid *GridConfig) error {
	if err := decode(rec, grid); err != nil {
		return fmt.Errorf("grid: %w", err)
	}
	return nil
}

func decode(input interface{}, result interface{}) error {
	dec, err := ms.NewDecoder(&ms.DecoderConfig{
		DecodeHook:       scenarioHook,
		WeaklyTypedInput: true,
		Result:           result,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

var scenarioType = reflect.TypeOf(pathloss.Urban)

// scenarioHook lets files spell scenarios by name.
func scenarioHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != scenarioType || from.Kind() != reflect.String {
		return data, nil
	}
	return pathloss.ParseScenario(data.(string))
}
