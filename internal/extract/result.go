package extract

// NotFound is shown for fields whose label or value was not located.
const NotFound = "정보 없음"

// FieldValue is the outcome for one field.
type FieldValue struct {
	Field string
	Value string
	Found bool
}

// Result holds one value per configured field, in label-table order.
type Result struct {
	Fields   []FieldValue
	notFound string
}

// Get returns the value of field and whether it was found.
func (r Result) Get(field string) (string, bool) {
	for _, f := range r.Fields {
		if f.Field == field {
			return f.Value, f.Found
		}
	}
	return "", false
}

// Display returns the value of field or the not-found sentinel.
func (r Result) Display(field string) string {
	if v, ok := r.Get(field); ok {
		return v
	}
	if r.notFound == "" {
		return NotFound
	}
	return r.notFound
}

// Map renders the result as field -> display value.
func (r Result) Map() map[string]string {
	out := make(map[string]string, len(r.Fields))
	for _, f := range r.Fields {
		out[f.Field] = r.Display(f.Field)
	}
	return out
}

// FoundCount is the number of fields with a value.
func (r Result) FoundCount() int {
	n := 0
	for _, f := range r.Fields {
		if f.Found {
			n++
		}
	}
	return n
}

// Clone returns a copy that shares no memory with r.
func (r Result) Clone() Result {
	r.Fields = append([]FieldValue(nil), r.Fields...)
	return r
}
