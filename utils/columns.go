package utils

import "reflect"

// ColumnList returns the "db" tags of T's fields, optionally prefixed with a
// table alias, for use in select clauses.
func ColumnList[T any](prefixes ...string) []string {
	var value T
	t := reflect.TypeOf(value)

	prefix := ""
	if len(prefixes) > 0 {
		prefix = prefixes[0] + "."
	}

	columns := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		columns = append(columns, prefix+tag)
	}
	return columns
}
