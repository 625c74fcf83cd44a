package feed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zeptools/legalgram/db/sqldb"
)

var (
	ErrNotFound    = errors.New("feed: not found")
	ErrUnknownSort = errors.New("feed: unknown sort")
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Sort orders of a post listing.
const (
	SortNewest        = "newest"
	SortOldest        = "oldest"
	SortMostCommented = "most_commented"
)

var sortOrders = map[string][]sqldb.OrderBy{
	SortNewest: {
		{Column: sqldb.NewColumnOrPanic("p.created_at"), Desc: true},
		{Column: sqldb.NewColumnOrPanic("p.id"), Desc: true},
	},
	SortOldest: {
		{Column: sqldb.NewColumnOrPanic("p.created_at")},
		{Column: sqldb.NewColumnOrPanic("p.id")},
	},
	SortMostCommented: {
		{Column: sqldb.NewColumnOrPanic("comment_count"), Desc: true},
		{Column: sqldb.NewColumnOrPanic("p.created_at"), Desc: true},
	},
}

// ListOptions page through posts created strictly before Before (unix ms, 0 = now).
type ListOptions struct {
	Before int64
	Limit  int
	Sort   string
}

func (o ListOptions) normalize() (ListOptions, error) {
	if o.Sort == "" {
		o.Sort = SortNewest
	}
	if _, ok := sortOrders[o.Sort]; !ok {
		return o, fmt.Errorf("%w %q", ErrUnknownSort, o.Sort)
	}
	if o.Limit <= 0 {
		o.Limit = DefaultPageSize
	}
	o.Limit = min(o.Limit, MaxPageSize)
	if o.Before <= 0 {
		o.Before = 1<<63 - 1
	}
	return o, nil
}

// Store is the relational side of the feed.
type Store interface {
	Migrate(ctx context.Context) error
	InsertPost(ctx context.Context, p *Post) error
	Post(ctx context.Context, id string) (*Post, error)
	Posts(ctx context.Context, opts ListOptions) ([]*Post, error)
	InsertComment(ctx context.Context, c *Comment) error
	Comments(ctx context.Context, postID string) ([]*Comment, error)
	CommentCounts(ctx context.Context, postIDs []string) (map[string]int, error)
}

func stripSQLComments(stmt string) string {
	var b strings.Builder
	for line := range strings.Lines(stmt) {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		b.WriteString(line)
	}
	return strings.TrimSpace(b.String())
}
