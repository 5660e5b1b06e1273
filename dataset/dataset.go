// Package dataset reads named test input records from a JSON file.
//
// The file is an object whose keys are record names:
//
//	{
//	  "dealer": {"email": "dealer@example.com", "name": "Salman"},
//	  "unknown_dealer": {"email": "nobody@example.com"}
//	}
//
// A broken record only fails the tests that ask for it.
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/tidwall/gjson"
)

var (
	// ErrMalformedFile is returned when the file is not a JSON object.
	ErrMalformedFile = errors.New("malformed test data file")
	// ErrRecordNotFound is returned for unknown record names.
	ErrRecordNotFound = errors.New("test data record not found")
	// ErrMalformedRecord is returned when a record or one of its fields has
	// the wrong shape.
	ErrMalformedRecord = errors.New("malformed test data record")
)

// Dataset is a read-only set of records.
type Dataset struct {
	path    string
	records map[string]gjson.Result
}

// Load reads the data file at path.
func Load(fs afero.Fs, path string) (*Dataset, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading test data: %w", err)
	}
	return Parse(path, data)
}

// Parse reads records from data. Name is used in error messages.
func Parse(name string, data []byte) (*Dataset, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: %s is not valid JSON", ErrMalformedFile, name)
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, fmt.Errorf("%w: %s must contain an object of records", ErrMalformedFile, name)
	}

	records := make(map[string]gjson.Result)
	doc.ForEach(func(key, value gjson.Result) bool {
		records[key.String()] = value
		return true
	})

	return &Dataset{path: name, records: records}, nil
}

// Names returns the record names in sorted order.
func (d *Dataset) Names() []string {
	names := lo.Keys(d.records)
	sort.Strings(names)
	return names
}

// Record returns the named record.
func (d *Dataset) Record(name string) (Record, error) {
	raw, ok := d.records[name]
	if !ok {
		return Record{}, fmt.Errorf("%w: %q in %s", ErrRecordNotFound, name, d.path)
	}
	if !raw.IsObject() {
		return Record{}, fmt.Errorf("%w: %q must be an object", ErrMalformedRecord, name)
	}
	return Record{name: name, raw: raw}, nil
}

// Record is one test scenario input.
type Record struct {
	name string
	raw  gjson.Result
}

// Name returns the record name.
func (r Record) Name() string {
	return r.name
}

// Has reports whether the field is present. Nested fields use dots.
func (r Record) Has(field string) bool {
	return r.raw.Get(field).Exists()
}

// String returns a string field.
func (r Record) String(field string) (string, error) {
	v, err := r.field(field, gjson.String)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// StringOr returns a string field or def if it is missing.
func (r Record) StringOr(field, def string) string {
	v, err := r.String(field)
	if err != nil {
		return def
	}
	return v
}

// Bool returns a boolean field.
func (r Record) Bool(field string) (bool, error) {
	v := r.raw.Get(field)
	if !v.Exists() {
		return false, fmt.Errorf("%w: %q has no field %q", ErrMalformedRecord, r.name, field)
	}
	if v.Type != gjson.True && v.Type != gjson.False {
		return false, fmt.Errorf("%w: %q field %q is not a boolean", ErrMalformedRecord, r.name, field)
	}
	return v.Bool(), nil
}

// Strings returns a list of strings.
func (r Record) Strings(field string) ([]string, error) {
	v := r.raw.Get(field)
	if !v.IsArray() {
		return nil, fmt.Errorf("%w: %q field %q is not a list", ErrMalformedRecord, r.name, field)
	}
	out := make([]string, 0, len(v.Array()))
	for _, item := range v.Array() {
		if item.Type != gjson.String {
			return nil, fmt.Errorf("%w: %q field %q must only hold strings", ErrMalformedRecord, r.name, field)
		}
		out = append(out, item.String())
	}
	return out, nil
}

// Decode unmarshals the whole record into v.
func (r Record) Decode(v any) error {
	if err := json.Unmarshal([]byte(r.raw.Raw), v); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrMalformedRecord, r.name, err)
	}
	return nil
}

func (r Record) field(field string, typ gjson.Type) (gjson.Result, error) {
	v := r.raw.Get(field)
	if !v.Exists() {
		return v, fmt.Errorf("%w: %q has no field %q", ErrMalformedRecord, r.name, field)
	}
	if v.Type != typ {
		return v, fmt.Errorf("%w: %q field %q is not a %s", ErrMalformedRecord, r.name, field, typ)
	}
	return v, nil
}
