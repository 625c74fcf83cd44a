package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zeptools/legalgram/nullable"
	"github.com/zeptools/legalgram/storages/media"
)

const MaxBodyRunes = 5000

var (
	ErrEmptyBody   = errors.New("feed: empty body")
	ErrBodyTooLong = fmt.Errorf("feed: body longer than %d characters", MaxBodyRunes)
)

// MediaWarning is reported when a post was published without its attachment.
const MediaWarning = "media upload failed; the post was published without the attachment"

type CreatePostResult struct {
	Post    *Post  `json:"post"`
	Warning string `json:"warning,omitempty"`
}

// Service is the feed use-case layer over a Store, an optional media store and a Notifier.
type Service struct {
	Store    Store
	Media    media.Store // nil disables attachments
	Notifier Notifier
	Logger   *zap.Logger
	Clock    func() time.Time
	NewID    func() string
}

func NewService(store Store, mediaStore media.Store, notifier Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = NewBroadcaster(logger)
	}
	return &Service{
		Store:    store,
		Media:    mediaStore,
		Notifier: notifier,
		Logger:   logger,
		Clock:    time.Now,
		NewID:    uuid.NewString,
	}
}

func (s *Service) nowMillis() int64 {
	return s.Clock().UnixMilli()
}

func checkBody(body string) (string, error) {
	body = strings.TrimSpace(body)
	if utf8.RuneCountInString(body) > MaxBodyRunes {
		return "", ErrBodyTooLong
	}
	return body, nil
}

// CreatePost stores a post. A failed media upload does not fail the post; it is reported in Warning.
func (s *Service) CreatePost(ctx context.Context, author Author, body string, attachment io.Reader) (*CreatePostResult, error) {
	body, err := checkBody(body)
	if err != nil {
		return nil, err
	}
	if body == "" && attachment == nil {
		return nil, ErrEmptyBody
	}
	res := &CreatePostResult{}
	p := &Post{
		ID:         s.NewID(),
		AuthorID:   author.ID,
		AuthorName: author.Name,
		Body:       body,
		CreatedAt:  s.nowMillis(),
	}
	if attachment != nil {
		p.MediaURL, res.Warning = s.upload(ctx, attachment)
	}
	if p.Body == "" && p.MediaURL.IsNull() {
		return nil, ErrEmptyBody
	}
	if err = s.Store.InsertPost(ctx, p); err != nil {
		return nil, err
	}
	res.Post = p
	s.publish(ctx, Event{Type: EventPost, PostID: p.ID, ID: p.ID})
	return res, nil
}

func (s *Service) upload(ctx context.Context, r io.Reader) (nullable.String, string) {
	if s.Media == nil {
		return nullable.String{}, MediaWarning
	}
	obj, err := s.Media.Upload(ctx, r)
	if err != nil {
		s.Logger.Warn("feed media upload failed", zap.Error(err))
		return nullable.String{}, MediaWarning
	}
	return nullable.StringOf(s.Media.PublicURL(obj.Key)), ""
}

func (s *Service) publish(ctx context.Context, ev Event) {
	if err := s.Notifier.Publish(ctx, ev); err != nil {
		s.Logger.Warn("feed event not published", zap.String("type", ev.Type), zap.Error(err))
	}
}

func (s *Service) Post(ctx context.Context, id string) (*Post, error) {
	return s.Store.Post(ctx, id)
}

func (s *Service) Posts(ctx context.Context, opts ListOptions) ([]*Post, error) {
	posts, err := s.Store.Posts(ctx, opts)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []*Post{}
	}
	return posts, nil
}

func (s *Service) AddComment(ctx context.Context, author Author, postID string, body string) (*Comment, error) {
	body, err := checkBody(body)
	if err != nil {
		return nil, err
	}
	if body == "" {
		return nil, ErrEmptyBody
	}
	c := &Comment{
		ID:         s.NewID(),
		PostID:     postID,
		AuthorID:   author.ID,
		AuthorName: author.Name,
		Body:       body,
		CreatedAt:  s.nowMillis(),
	}
	if err = s.Store.InsertComment(ctx, c); err != nil {
		return nil, err
	}
	s.publish(ctx, Event{Type: EventComment, PostID: postID, ID: c.ID})
	return c, nil
}

func (s *Service) Comments(ctx context.Context, postID string) ([]*Comment, error) {
	if _, err := s.Store.Post(ctx, postID); err != nil {
		return nil, err
	}
	comments, err := s.Store.Comments(ctx, postID)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []*Comment{}
	}
	return comments, nil
}

func (s *Service) CommentCounts(ctx context.Context, postIDs []string) (map[string]int, error) {
	return s.Store.CommentCounts(ctx, postIDs)
}

func (s *Service) Subscribe(ctx context.Context) (<-chan Event, error) {
	return s.Notifier.Subscribe(ctx)
}
