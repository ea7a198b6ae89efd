package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

var errInvalidBody = errors.New("invalid request body")

// Tower and grid fields are only checked for shape here; value ranges are
// validated per tower so that one bad tower does not reject a batch.
const towerSchema = `{
	"type": "object",
	"properties": {
		"id":             {"type": "string"},
		"latitude":       {"type": "number"},
		"longitude":      {"type": "number"},
		"frequency":      {"type": "number"},
		"ptx":            {"type": "number"},
		"gtx":            {"type": "number"},
		"grx":            {"type": "number"},
		"antennaHeight":  {"type": "number"},
		"maxSensitivity": {"type": "number"},
		"margin":         {"type": "number"},
		"cableLoss":      {"type": "number"},
		"additionalLoss": {"type": "number"},
		"scenario":       {"type": "string"},
		"sectorRotation": {"type": "number"},
		"largeCity":      {"type": "boolean"}
	}
}`

const gridSchema = `{
	"type": "object",
	"properties": {
		"latRange":     {"type": "number"},
		"lonRange":     {"type": "number"},
		"latStep":      {"type": "number"},
		"lonStep":      {"type": "number"},
		"maxRadius":    {"type": "number"},
		"mobileHeight": {"type": "number"},
		"sectors":      {"type": "integer"},
		"beamwidth":    {"type": "number"},
		"kh":           {"type": "number"},
		"kv":           {"type": "number"},
		"kp":           {"type": "number"},
		"nominalGain":  {"type": "number"}
	}
}`

var batchSchema = `{
	"type": "object",
	"required": ["towers"],
	"properties": {
		"towers": {
			"type": "array",
			"items": ` + towerSchema + `
		},
		"grid": ` + gridSchema + `
	}
}`

var singleSchema = `{
	"type": "object",
	"required": ["tower"],
	"properties": {
		"tower": ` + towerSchema + `,
		"grid": ` + gridSchema + `
	}
}`

// validator checks request bodies against a JSON schema.
type validator struct {
	schema *gojsonschema.Schema
}

func newValidator(schema string) (*validator, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema))
	if err != nil {
		return nil, fmt.Errorf("compiling schema: %w", err)
	}
	return &validator{schema: s}, nil
}

func mustValidator(schema string) *validator {
	v, err := newValidator(schema)
	if err != nil {
		panic(err)
	}
	return v
}

// validate checks raw JSON bytes.
func (v *validator) validate(data []byte) error {
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	if !result.Valid() {
		var msgs []string
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return fmt.Errorf("%w: %s", errInvalidBody, strings.Join(msgs, "; "))
	}
	return nil
}
