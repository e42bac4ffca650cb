package settle

import "sort"

// Field names a validation target.
type Field string

const (
	FieldName    Field = "name"
	FieldAmount  Field = "amount"
	FieldGeneric Field = "generic"
)

// Result is an immutable set of field-scoped validation messages. The zero
// value is a valid result. Every mutator returns a new Result.
type Result struct {
	errs map[Field]string
}

// Valid reports whether no field carries a message.
func (r Result) Valid() bool { return len(r.errs) == 0 }

// Message returns the message for f, or "".
func (r Result) Message(f Field) string { return r.errs[f] }

// Has reports whether f carries a message.
func (r Result) Has(f Field) bool {
	_, ok := r.errs[f]
	return ok
}

// With returns a copy of r where f is set to msg. An empty msg clears f.
func (r Result) With(f Field, msg string) Result {
	next := make(map[Field]string, len(r.errs)+1)
	for k, v := range r.errs {
		next[k] = v
	}
	if msg == "" {
		delete(next, f)
	} else {
		next[f] = msg
	}
	return Result{errs: next}
}

// Fields returns the messages keyed by field name.
func (r Result) Fields() map[string]string {
	out := make(map[string]string, len(r.errs))
	for k, v := range r.errs {
		out[string(k)] = v
	}
	return out
}

// Failed lists the fields carrying a message in a stable order.
func (r Result) Failed() []Field {
	fields := make([]Field, 0, len(r.errs))
	for f := range r.errs {
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i] < fields[j] })
	return fields
}
