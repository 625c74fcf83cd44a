// Package nullable carries SQL NULL through JSON as null.
package nullable

import (
	"bytes"
	"database/sql"
	"encoding/json"
)

// Null scans like sql.Null and encodes an invalid value as JSON null.
type Null[T any] struct {
	sql.Null[T]
}

type (
	String = Null[string]
	Int    = Null[int64]
)

func Of[T any](v T) Null[T] {
	return Null[T]{sql.Null[T]{V: v, Valid: true}}
}

// StringOf treats "" as NULL.
func StringOf(s string) String {
	if s == "" {
		return String{}
	}
	return Of(s)
}

func IntOf(v int64) Int { return Of(v) }

func (n Null[T]) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.V)
}

func (n *Null[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*n = Null[T]{}
		return nil
	}
	if err := json.Unmarshal(data, &n.V); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

// OrZero returns the value, or the zero T when NULL.
func (n Null[T]) OrZero() T {
	if !n.Valid {
		var zero T
		return zero
	}
	return n.V
}

func (n Null[T]) IsNull() bool { return !n.Valid }
