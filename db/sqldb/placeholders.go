package sqldb

import (
	"fmt"
	"strconv"
	"strings"
)

// PlaceholderPrefixForDBType is the bind parameter style per supported driver.
// '?' drivers take anonymous placeholders; others number them ($1, $2, ...).
var PlaceholderPrefixForDBType = map[string]byte{
	"mysql":  '?',
	"pgsql":  '$',
	"sqlite": '?',
}

// dynamicPlaceholder marks a list whose length is only known at query time, e.g. `id IN (??)`.
const dynamicPlaceholder = "??"

// placeholderWriter emits placeholders in the driver's style, numbering from next.
type placeholderWriter struct {
	b      strings.Builder
	prefix byte
	next   int
}

func (w *placeholderWriter) writeOne() {
	if w.prefix == '?' || w.prefix == 0 {
		w.b.WriteByte('?')
		return
	}
	w.b.WriteByte(w.prefix)
	w.b.WriteString(strconv.Itoa(w.next))
	w.next++
}

func (w *placeholderWriter) writeList(n int) {
	for k := range n {
		if k > 0 {
			w.b.WriteString(", ")
		}
		w.writeOne()
	}
}

// scanPlaceholders walks sql outside single-quoted literals and calls onStatic for each `?`
// and onDynamic for each `??`. Everything else is copied to w.
func scanPlaceholders(sql string, w *placeholderWriter, onStatic func(), onDynamic func() error) error {
	inLiteral := false
	for i := 0; i < len(sql); i++ {
		ch := sql[i]
		switch {
		case ch == '\'':
			inLiteral = !inLiteral
			w.b.WriteByte(ch)
		case inLiteral || ch != '?':
			w.b.WriteByte(ch)
		case strings.HasPrefix(sql[i:], dynamicPlaceholder):
			if err := onDynamic(); err != nil {
				return err
			}
			i++
		default:
			onStatic()
		}
	}
	return nil
}

// ReplaceStaticPlaceholders numbers each `?` for drivers with ordinal placeholders.
// `??` is left for ExpandDynamicPlaceholders. Question marks inside string literals are kept.
func ReplaceStaticPlaceholders(sql string, prefix byte) string {
	if prefix == '?' || prefix == 0 {
		return sql
	}
	w := &placeholderWriter{prefix: prefix, next: 1}
	w.b.Grow(len(sql) + 8)
	_ = scanPlaceholders(sql, w, w.writeOne, func() error {
		w.b.WriteString(dynamicPlaceholder)
		return nil
	})
	return w.b.String()
}

// ExpandDynamicPlaceholders replaces the i-th `??` with counts[i] placeholders.
// Ordinal numbering continues from start. The number of `??` must match len(counts).
func ExpandDynamicPlaceholders(sql string, prefix byte, counts []int, start int) (string, error) {
	w := &placeholderWriter{prefix: prefix, next: start}
	w.b.Grow(len(sql) + 16*len(counts))
	used := 0
	err := scanPlaceholders(sql, w, func() { w.b.WriteByte('?') }, func() error {
		if used >= len(counts) {
			return fmt.Errorf("sqldb: more %q lists than counts (%d)", dynamicPlaceholder, len(counts))
		}
		w.writeList(counts[used])
		used++
		return nil
	})
	if err != nil {
		return "", err
	}
	if used < len(counts) {
		return "", fmt.Errorf("sqldb: %d counts for %d %q lists", len(counts), used, dynamicPlaceholder)
	}
	return w.b.String(), nil
}
