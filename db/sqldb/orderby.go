package sqldb

import (
	"fmt"
	"regexp"
	"strings"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// Column is an identifier (e.g. "p.created_at") that passed validation, safe to splice into SQL.
type Column struct {
	name string
}

func (c Column) Name() string { return c.name }

func NewColumn(name string) (Column, error) {
	if !identifierPattern.MatchString(name) {
		return Column{}, fmt.Errorf("sqldb: invalid identifier %q", name)
	}
	return Column{name: name}, nil
}

// NewColumnOrPanic is NewColumn for identifiers fixed at compile time.
func NewColumnOrPanic(name string) Column {
	c, err := NewColumn(name)
	if err != nil {
		panic(err)
	}
	return c
}

type OrderBy struct {
	Column Column
	Desc   bool
}

// String is the clause item, e.g. "created_at DESC".
func (o OrderBy) String() string {
	if o.Desc {
		return o.Column.Name() + " DESC"
	}
	return o.Column.Name() + " ASC"
}

// OrderByClause renders " ORDER BY a DESC, b ASC", or "" for no orders.
func OrderByClause(orders []OrderBy) string {
	if len(orders) == 0 {
		return ""
	}
	items := make([]string, len(orders))
	for i, o := range orders {
		items[i] = o.String()
	}
	return " ORDER BY " + strings.Join(items, ", ")
}
