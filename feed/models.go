package feed

import (
	"github.com/zeptools/legalgram/nullable"
)

// Post is a community feed entry. Timestamps are unix milliseconds.
type Post struct {
	ID            string          `json:"id"`
	AuthorID      string          `json:"author_id"`
	AuthorName    string          `json:"author_name"`
	Body          string          `json:"body"`
	MediaURL      nullable.String `json:"media_url"`
	CreatedAt     int64           `json:"created_at"`
	CommentCount  int             `json:"comment_count"`
	LastCommentAt nullable.Int    `json:"last_comment_at"`
}

func (p *Post) TargetFields() []any {
	return []any{
		&p.ID, &p.AuthorID, &p.AuthorName, &p.Body, &p.MediaURL, &p.CreatedAt,
		&p.CommentCount, &p.LastCommentAt,
	}
}

type Comment struct {
	ID         string `json:"id"`
	PostID     string `json:"post_id"`
	AuthorID   string `json:"author_id"`
	AuthorName string `json:"author_name"`
	Body       string `json:"body"`
	CreatedAt  int64  `json:"created_at"`
}

func (c *Comment) TargetFields() []any {
	return []any{&c.ID, &c.PostID, &c.AuthorID, &c.AuthorName, &c.Body, &c.CreatedAt}
}

type commentCount struct {
	PostID string
	Count  int
}

func (c *commentCount) TargetFields() []any {
	return []any{&c.PostID, &c.Count}
}

// Author identifies who writes a post or comment, taken from the verified bearer token.
type Author struct {
	ID   string
	Name string
}
