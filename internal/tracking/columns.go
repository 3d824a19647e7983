package tracking

import (
	"bytes"
	"reflect"
	"strings"
	"sync"
)

type column struct {
	name  string
	index []int
}

var columnCache sync.Map // reflect.Type -> []column

// columnsOf lists the db-tagged fields of a struct type, flattening embedded
// structs in declaration order.
func columnsOf(t reflect.Type) []column {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if cached, ok := columnCache.Load(t); ok {
		return cached.([]column)
	}
	var cols []column
	walkColumns(t, nil, &cols)
	columnCache.Store(t, cols)
	return cols
}

func walkColumns(t reflect.Type, prefix []int, out *[]column) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		idx := make([]int, len(prefix)+1)
		copy(idx, prefix)
		idx[len(prefix)] = i

		tag := f.Tag.Get("db")
		if f.Anonymous && tag == "" && f.Type.Kind() == reflect.Struct {
			walkColumns(f.Type, idx, out)
			continue
		}
		if !f.IsExported() || tag == "" || tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		*out = append(*out, column{name: name, index: idx})
	}
}

// Columns returns the column names of an entity in declaration order.
func Columns(e Entity) []string {
	cols := columnsOf(reflect.TypeOf(e))
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
	}
	return names
}

// Values returns the normalised column values of an entity, aligned with Columns.
func Values(e Entity) []any {
	v := reflect.ValueOf(e)
	for v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	cols := columnsOf(v.Type())
	out := make([]any, len(cols))
	for i, c := range cols {
		out[i] = normalize(v.FieldByIndex(c.index))
	}
	return out
}

// normalize dereferences pointers and copies byte slices so a snapshot never
// aliases the live entity.
func normalize(v reflect.Value) any {
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8 {
		if v.IsNil() {
			return nil
		}
		return bytes.Clone(v.Bytes())
	}
	return v.Interface()
}

// sameValue reports whether two normalised values are identical.
func sameValue(a, b any) bool {
	if ab, ok := a.([]byte); ok {
		bb, ok := b.([]byte)
		return ok && bytes.Equal(ab, bb)
	}
	return reflect.DeepEqual(a, b)
}
