package mapper

import "strconv"

// FieldRef addresses one field of a raw record, either by column index
// (CSV rows) or by key (decoded API payloads).
type FieldRef struct {
	name  string
	index int
}

// Col refers to a column of an array-indexed record.
func Col(i int) FieldRef { return FieldRef{index: i} }

// Key refers to a named field of a key-indexed record.
func Key(name string) FieldRef { return FieldRef{name: name, index: -1} }

func (f FieldRef) String() string {
	if f.name != "" {
		return f.name
	}
	return "column " + strconv.Itoa(f.index)
}

// Record is one raw exchange record as handed over by a parser or poller.
// All field values are raw strings; numeric fields must still carry their
// exact decimal text so no precision is lost before ParseDecimal runs.
type Record interface {
	Field(ref FieldRef) (string, bool)
}

// Row is an array-indexed record, typically one CSV line split into columns.
type Row []string

func (r Row) Field(ref FieldRef) (string, bool) {
	if ref.name != "" || ref.index < 0 || ref.index >= len(r) {
		return "", false
	}
	return r[ref.index], true
}

// Doc is a key-indexed record, typically one decoded JSON object with its
// values rendered back to strings (json.Number keeps amounts exact).
type Doc map[string]string

func (d Doc) Field(ref FieldRef) (string, bool) {
	if ref.name == "" {
		return "", false
	}
	value, ok := d[ref.name]
	return value, ok
}
