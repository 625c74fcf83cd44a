package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/zeptools/legalgram/apis/chat"
	"github.com/zeptools/legalgram/docs"
	"github.com/zeptools/legalgram/feed"
	"github.com/zeptools/legalgram/locks/keyonlylocks"
	"github.com/zeptools/legalgram/metrics"
	"github.com/zeptools/legalgram/routing"
	"github.com/zeptools/legalgram/sec"
	"github.com/zeptools/legalgram/throttle"
	"github.com/zeptools/legalgram/web/session"
)

// Throttle bucket groups used by the routes. Missing groups disable throttling for the route.
const (
	ThrottleGenerate = "generate"
	ThrottleFeed     = "feed"
	ThrottleChat     = "chat"
)

// App holds the dependencies of the HTTP API. Nil Sessions, Feed or Chat leave those routes out.
type App struct {
	Registry  *docs.Registry
	Generator *docs.Generator
	Sessions  *session.Manager
	Locks     *keyonlylocks.Set
	Feed      *feed.Service
	Chat      *chat.Service
	Verifier  *sec.TokenVerifier
	Throttle  *throttle.BucketStore[string]
	Metrics   *metrics.Metrics
	Logger    *zap.Logger

	// MediaHandler serves GET /media/{key} when set
	MediaHandler   http.Handler
	MaxUploadBytes int64
}

func (a *App) logger() *zap.Logger {
	if a.Logger == nil {
		return zap.NewNop()
	}
	return a.Logger
}

// Router builds the route table.
func (a *App) Router() http.Handler {
	if a.Locks == nil {
		a.Locks = &keyonlylocks.Set{}
	}
	router := routing.NewBaseRouter()

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	router.Handle("GET /metrics", a.Metrics.Handler())
	if a.MediaHandler != nil {
		router.Handle("GET /media/{key}", a.MediaHandler)
	}

	router.Group("/api/", func(api *routing.RouteGroup) {
		api.Group("documents", func(d *routing.RouteGroup) {
			d.HandleFunc("GET ", a.listDocuments)
			d.HandleFunc("GET /{type}", a.getDocument)
			d.HandleFunc("POST /{type}/pdf", a.generateDocument, a.throttled(ThrottleGenerate))
		})

		if a.Sessions != nil {
			api.Group("wizard", func(wz *routing.RouteGroup) {
				wz.HandleFunc("POST /{type}", a.startWizard)
				wz.HandleFunc("GET ", a.withWizard(false, a.getWizard))
				wz.HandleFunc("DELETE ", a.deleteWizard)
				wz.HandleFunc("PATCH /fields", a.withWizard(true, a.patchWizardFields))
				wz.HandleFunc("POST /next", a.withWizard(true, a.wizardNext))
				wz.HandleFunc("POST /back", a.withWizard(true, a.wizardBack))
				wz.HandleFunc("POST /goto/{step}", a.withWizard(true, a.wizardGoto))
				wz.HandleFunc("POST /pdf", a.withWizard(false, a.generateFromWizard), a.throttled(ThrottleGenerate))
			})
		}

		if a.Feed != nil {
			api.Group("feed/", func(f *routing.RouteGroup) {
				f.HandleFunc("GET posts", a.listPosts)
				f.HandleFunc("POST posts", a.createPost, a.authenticated(), a.throttled(ThrottleFeed))
				f.HandleFunc("GET posts/{id}", a.getPost)
				f.HandleFunc("GET posts/{id}/comments", a.listComments)
				f.HandleFunc("POST posts/{id}/comments", a.createComment, a.authenticated(), a.throttled(ThrottleFeed))
				f.HandleFunc("GET counts", a.commentCounts)
				f.HandleFunc("GET stream", a.feedStream)
			})
		}

		if a.Chat != nil {
			api.Group("chat/", func(c *routing.RouteGroup) {
				c.HandleFunc("POST sessions", a.chatInit, a.throttled(ThrottleChat))
				c.HandleFunc("POST sessions/{id}/messages", a.chatSend, a.throttled(ThrottleChat))
			})
		}
	})

	return routing.Chain(router, a.accessLog(), routing.RecoverWrapper(a.logger()))
}
