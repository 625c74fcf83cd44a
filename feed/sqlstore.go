package feed

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/zeptools/legalgram/db/sqldb"
)

//go:embed sql/*
var sqlFS embed.FS

const stmtGroup = "feed"

var migrations = []string{"schema_posts", "schema_comments", "schema_index_comments"}

type SQLStore struct {
	Client sqldb.Client
	Logger *zap.Logger
	stmts  *sqldb.RawStore
}

// Ensure SQLStore implements Store
var _ Store = (*SQLStore)(nil)

// NewSQLStore loads the statements for the client's driver.
func NewSQLStore(client sqldb.Client, logger *zap.Logger) (*SQLStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	stmts := sqldb.NewRawStore()
	n, err := stmts.Load(sqlFS, stmtGroup, client.GetConf().Type, client.PlaceholderPrefix())
	if err != nil {
		return nil, err
	}
	logger.Debug("feed statements loaded", zap.Int("count", n), zap.String("db_type", client.GetConf().Type))
	return &SQLStore{Client: client, Logger: logger, stmts: stmts}, nil
}

func (s *SQLStore) stmt(name string) string {
	return s.stmts.MustGet(sqldb.StoreGroupedStmtKey{Group: stmtGroup, StmtName: name}.String())
}

func (s *SQLStore) Migrate(ctx context.Context) error {
	for _, name := range migrations {
		stmt := stripSQLComments(s.stmt(name))
		if stmt == "" {
			continue
		}
		if _, err := s.Client.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("feed migrate %s: %w", name, err)
		}
	}
	return nil
}

func (s *SQLStore) InsertPost(ctx context.Context, p *Post) error {
	_, err := s.Client.Exec(ctx, s.stmt("insert_post"),
		p.ID, p.AuthorID, p.AuthorName, p.Body, p.MediaURL, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

func (s *SQLStore) Post(ctx context.Context, id string) (*Post, error) {
	p, err := sqldb.QueryItem[Post](ctx, s.Client, s.stmt("get_post"), id)
	if errors.Is(err, sqldb.ErrNoRows) {
		return nil, fmt.Errorf("post %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	return p, nil
}

func (s *SQLStore) Posts(ctx context.Context, opts ListOptions) ([]*Post, error) {
	opts, err := opts.normalize()
	if err != nil {
		return nil, err
	}
	stmt := strings.Replace(s.stmt("list_posts"), "/*ORDER_BY*/", sqldb.OrderByClause(sortOrders[opts.Sort]), 1)
	posts, err := sqldb.QueryItems[Post](ctx, s.Client, stmt, opts.Before, opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// InsertComment checks the post and inserts in one transaction, so a missing post is
// ErrNotFound on every driver, foreign keys enforced or not.
func (s *SQLStore) InsertComment(ctx context.Context, c *Comment) (err error) {
	tx, err := s.Client.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()
	var n int
	if err = tx.QueryRow(ctx, s.stmt("count_post"), c.PostID).Scan(&n); err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("post %s: %w", c.PostID, ErrNotFound)
	}
	if _, err = tx.Exec(ctx, s.stmt("insert_comment"),
		c.ID, c.PostID, c.AuthorID, c.AuthorName, c.Body, c.CreatedAt); err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

func (s *SQLStore) Comments(ctx context.Context, postID string) ([]*Comment, error) {
	comments, err := sqldb.QueryItems[Comment](ctx, s.Client, s.stmt("list_comments"), postID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// CommentCounts returns a count for every requested post, zero included.
func (s *SQLStore) CommentCounts(ctx context.Context, postIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(postIDs))
	if len(postIDs) == 0 {
		return counts, nil
	}
	stmt, err := sqldb.ExpandDynamicPlaceholders(s.stmt("comment_counts"), s.Client.PlaceholderPrefix(), []int{len(postIDs)}, 1)
	if err != nil {
		return nil, err
	}
	args := make([]any, len(postIDs))
	for i, id := range postIDs {
		args[i] = id
		counts[id] = 0
	}
	rows, err := sqldb.QueryItems[commentCount](ctx, s.Client, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("comment counts: %w", err)
	}
	for _, r := range rows {
		counts[r.PostID] = r.Count
	}
	return counts, nil
}
