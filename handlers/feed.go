package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zeptools/legalgram/feed"
	"github.com/zeptools/legalgram/requests"
	"github.com/zeptools/legalgram/responses"
	"github.com/zeptools/legalgram/storages/media"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func (a *App) maxUploadBytes() int64 {
	if a.MaxUploadBytes > 0 {
		return a.MaxUploadBytes
	}
	// room for the multipart envelope and the body text
	return media.DefaultMaxBytes + 1<<20
}

type postsPage struct {
	Posts []*feed.Post `json:"posts"`
	// NextBefore is the cursor of the following page, 0 when this page is the last one.
	NextBefore int64 `json:"next_before"`
}

func (a *App) listPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := feed.ListOptions{Sort: q.Get("sort")}
	var err error
	if v := q.Get("before"); v != "" {
		if opts.Before, err = strconv.ParseInt(v, 10, 64); err != nil {
			responses.WriteSimpleErrorJSON(w, http.StatusBadRequest, "before must be a unix millisecond timestamp")
			return
		}
	}
	if v := q.Get("limit"); v != "" {
		if opts.Limit, err = strconv.Atoi(v); err != nil {
			responses.WriteSimpleErrorJSON(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
	}
	posts, err := a.Feed.Posts(r.Context(), opts)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	page := postsPage{Posts: posts}
	limit := opts.Limit
	if limit <= 0 {
		limit = feed.DefaultPageSize
	}
	if len(posts) > 0 && len(posts) == min(limit, feed.MaxPageSize) {
		page.NextBefore = posts[len(posts)-1].CreatedAt
	}
	responses.EncodeWriteJSON(w, http.StatusOK, page)
}

type createPostRequest struct {
	Body string `json:"body"`
}

// createPost accepts a JSON body or a multipart form with a "body" value and an optional "media" file.
func (a *App) createPost(w http.ResponseWriter, r *http.Request) {
	author, _ := authorFromContext(r.Context())
	var (
		body       string
		attachment io.Reader
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, a.maxUploadBytes())
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				responses.WriteSimpleErrorJSON(w, http.StatusRequestEntityTooLarge, "request too large")
				return
			}
			a.writeError(w, r, fmt.Errorf("%w: %w", requests.ErrMalformedBody, err))
			return
		}
		defer r.MultipartForm.RemoveAll()
		body = r.FormValue("body")
		file, _, err := r.FormFile("media")
		switch {
		case err == nil:
			defer file.Close()
			attachment = file
		case !errors.Is(err, http.ErrMissingFile):
			a.writeError(w, r, fmt.Errorf("%w: %w", requests.ErrMalformedBody, err))
			return
		}
	} else {
		var req createPostRequest
		if err := requests.DecodeJSON(w, r, 0, &req); err != nil {
			a.writeError(w, r, err)
			return
		}
		body = req.Body
	}

	res, err := a.Feed.CreatePost(r.Context(), author, body, attachment)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.Metrics.FeedPostCreated(res.Warning != "")
	responses.EncodeWriteJSON(w, http.StatusCreated, res)
}

func (a *App) getPost(w http.ResponseWriter, r *http.Request) {
	post, err := a.Feed.Post(r.Context(), r.PathValue("id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	responses.EncodeWriteJSON(w, http.StatusOK, post)
}

func (a *App) listComments(w http.ResponseWriter, r *http.Request) {
	comments, err := a.Feed.Comments(r.Context(), r.PathValue("id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	responses.EncodeWriteJSON(w, http.StatusOK, map[string]any{"comments": comments})
}

type createCommentRequest struct {
	Body string `json:"body"`
}

func (a *App) createComment(w http.ResponseWriter, r *http.Request) {
	author, _ := authorFromContext(r.Context())
	var req createCommentRequest
	if err := requests.DecodeJSON(w, r, 0, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	comment, err := a.Feed.AddComment(r.Context(), author, r.PathValue("id"), req.Body)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	responses.EncodeWriteJSON(w, http.StatusCreated, comment)
}

// commentCounts answers ?ids=a,b,c with a map of post id to comment count.
func (a *App) commentCounts(w http.ResponseWriter, r *http.Request) {
	var ids []string
	for id := range strings.SplitSeq(r.URL.Query().Get("ids"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) > feed.MaxPageSize {
		responses.WriteSimpleErrorJSON(w, http.StatusBadRequest, fmt.Sprintf("at most %d ids", feed.MaxPageSize))
		return
	}
	counts, err := a.Feed.CommentCounts(r.Context(), ids)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	responses.EncodeWriteJSON(w, http.StatusOK, map[string]any{"counts": counts})
}

// feedStream pushes feed events to a websocket until either side goes away.
func (a *App) feedStream(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	events, err := a.Feed.Subscribe(ctx)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader already replied
		a.logger().Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	a.Metrics.FeedStreamOpened()
	defer a.Metrics.FeedStreamClosed()

	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		defer cancel()
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(streamPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					a.logger().Debug("feed stream closed", zap.Error(err))
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()
	defer func() {
		_ = conn.Close()
		<-readDone
	}()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(streamWriteWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				return
			}
		}
	}
}
