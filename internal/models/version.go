package models

import "fmt"

// Version record field names, in the order they are written to the properties file.
const (
	FieldMainVersion           = "mainVersion"
	FieldBackendVersion        = "backendVersion"
	FieldMainBuilderVersion    = "mainBuilderVersion"
	FieldBackendBuilderVersion = "backendBuilderVersion"
)

// DefaultFieldOrder is the documented output order of pluginVersion.properties.
var DefaultFieldOrder = []string{
	FieldMainVersion,
	FieldBackendVersion,
	FieldMainBuilderVersion,
	FieldBackendBuilderVersion,
}

// VersionField is a single named value of a VersionRecord.
type VersionField struct {
	Key   string
	Value string
}

// VersionRecord maps a fixed set of field names to extracted values.
// It is immutable once built; Fields returns a copy.
type VersionRecord struct {
	fields []VersionField
	index  map[string]int
}

// NewVersionRecord builds a record from fields in output order.
// Duplicate or empty keys are rejected.
func NewVersionRecord(fields []VersionField) (*VersionRecord, error) {
	r := &VersionRecord{
		fields: make([]VersionField, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		if f.Key == "" {
			return nil, fmt.Errorf("version field has empty key")
		}
		if _, dup := r.index[f.Key]; dup {
			return nil, fmt.Errorf("duplicate version field %q", f.Key)
		}
		r.index[f.Key] = len(r.fields)
		r.fields = append(r.fields, f)
	}
	return r, nil
}

// Get returns the value of key and whether it is present.
func (r *VersionRecord) Get(key string) (string, bool) {
	i, ok := r.index[key]
	if !ok {
		return "", false
	}
	return r.fields[i].Value, true
}

// Fields returns the fields in output order.
func (r *VersionRecord) Fields() []VersionField {
	out := make([]VersionField, len(r.fields))
	copy(out, r.fields)
	return out
}

// Len returns the number of fields.
func (r *VersionRecord) Len() int {
	return len(r.fields)
}

// MainVersion returns the mainVersion field (empty if absent).
func (r *VersionRecord) MainVersion() string {
	v, _ := r.Get(FieldMainVersion)
	return v
}

// BackendVersion returns the backendVersion field (empty if absent).
func (r *VersionRecord) BackendVersion() string {
	v, _ := r.Get(FieldBackendVersion)
	return v
}
