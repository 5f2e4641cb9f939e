package model

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed resume.schema.json
var recordSchemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

// RecordSchema returns the raw JSON schema of ResumeRecord, suitable for
// handing to generators that support constrained output.
func RecordSchema() json.RawMessage {
	out := make([]byte, len(recordSchemaJSON))
	copy(out, recordSchemaJSON)
	return out
}

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(recordSchemaJSON))
	})
	return schema, schemaErr
}

// ValidateRecord validates a decoded JSON document (maps, slices, strings as
// produced by encoding/json) against the record schema. It returns the list
// of violations; an empty list means the document is a valid record. The
// error is reserved for failures of the validator itself.
func ValidateRecord(doc interface{}) ([]string, error) {
	s, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("compile record schema: %w", err)
	}
	res, err := s.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, err
	}
	if res.Valid() {
		return nil, nil
	}
	problems := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		problems = append(problems, e.String())
	}
	return problems, nil
}

// DecodeRecord validates raw JSON against the schema and decodes it. The
// record is returned as decoded, without filtering.
func DecodeRecord(raw []byte) (ResumeRecord, []string, error) {
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return ResumeRecord{}, nil, err
	}
	problems, err := ValidateRecord(doc)
	if err != nil || len(problems) > 0 {
		return ResumeRecord{}, problems, err
	}
	var rec ResumeRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return ResumeRecord{}, nil, err
	}
	return rec, nil, nil
}
