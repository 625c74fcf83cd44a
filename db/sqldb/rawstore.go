package sqldb

import (
	"fmt"
	"io/fs"
	"path"
	"strings"
)

// RawStore holds raw SQL statements keyed by "<group>.<name>".
type RawStore struct {
	stmts map[string]string
}

func NewRawStore() *RawStore {
	return &RawStore{stmts: make(map[string]string)}
}

func (s *RawStore) Set(key string, rawStmt string) {
	s.stmts[key] = rawStmt
}

func (s *RawStore) Get(key string) (string, bool) {
	stmt, exists := s.stmts[key]
	return stmt, exists
}

// MustGet panics when the statement is missing. Use it for statements shipped with the binary.
func (s *RawStore) MustGet(key string) string {
	stmt, ok := s.stmts[key]
	if !ok {
		panic(fmt.Sprintf("sqldb: raw statement %q not loaded", key))
	}
	return stmt
}

func (s *RawStore) Len() int {
	return len(s.stmts)
}

type StoreGroupedStmtKey struct {
	Group    string
	StmtName string
}

func (k StoreGroupedStmtKey) String() string {
	return k.Group + "." + k.StmtName
}

// Load reads the `sql` directory of fsys into the store under group.
// `name.<dbType>` files are dialect-specific and used as-is.
// `name.sql` files are standard SQL with `?` (static) and `??` (dynamic) placeholders;
// they are used only when no dialect file exists, with static placeholders converted to the driver's style.
func (s *RawStore) Load(fsys fs.FS, group string, dbType string, placeholderPrefix byte) (int, error) {
	files, err := fs.ReadDir(fsys, "sql")
	if err != nil {
		return 0, fmt.Errorf("failed to read embedded `sql` dir. %w", err)
	}
	dialect := make(map[string]bool)
	stmtCnt := 0
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		filename := f.Name()
		ext := path.Ext(filename)
		name := strings.TrimSuffix(filename, ext)
		ext = strings.TrimPrefix(ext, ".")
		if ext != dbType && ext != "sql" {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join("sql", filename))
		if err != nil {
			return stmtCnt, fmt.Errorf("failed to read %s: %w", filename, err)
		}
		key := StoreGroupedStmtKey{Group: group, StmtName: name}.String()
		switch {
		case ext == dbType:
			// exact matching file extension -> use it as-is for dialects
			if _, exists := s.Get(key); !exists {
				stmtCnt++
			}
			s.Set(key, string(data))
			dialect[key] = true
		case !dialect[key]:
			s.Set(key, ReplaceStaticPlaceholders(string(data), placeholderPrefix))
			stmtCnt++
		}
	}
	return stmtCnt, nil
}
