package conf

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/zeptools/legalgram/admin"
	"github.com/zeptools/legalgram/apis/chat"
	"github.com/zeptools/legalgram/db/kvdb"
	"github.com/zeptools/legalgram/db/kvdb/impls/redis"
	"github.com/zeptools/legalgram/db/sqldb"
	_ "github.com/zeptools/legalgram/db/sqldb/impls/mysql"
	_ "github.com/zeptools/legalgram/db/sqldb/impls/pgsql"
	_ "github.com/zeptools/legalgram/db/sqldb/impls/sqlite"
	"github.com/zeptools/legalgram/docs"
	"github.com/zeptools/legalgram/feed"
	"github.com/zeptools/legalgram/handlers"
	"github.com/zeptools/legalgram/locks/keyonlylocks"
	"github.com/zeptools/legalgram/metrics"
	"github.com/zeptools/legalgram/pdfs"
	"github.com/zeptools/legalgram/schedjobs"
	"github.com/zeptools/legalgram/sec"
	"github.com/zeptools/legalgram/storages"
	"github.com/zeptools/legalgram/storages/media"
	"github.com/zeptools/legalgram/svc"
	"github.com/zeptools/legalgram/throttle"
	"github.com/zeptools/legalgram/uds"
	"github.com/zeptools/legalgram/web"
	"github.com/zeptools/legalgram/web/session"
)

// Config file names under <AppRoot>/config/
const (
	CoreFile        = ".core.json"
	KVDBFile        = ".kv-databases.json"
	SQLDBFile       = ".sql-databases.json"
	WebSessionFile  = ".web-session.json"
	StoragesFile    = ".storages.json"
	ChatAPIFile     = ".chat-api.json"
	DefaultListen   = "127.0.0.1:8080"
	DefaultUDSPath  = "legalgram.sock"
	DefaultMediaURL = "/media"
)

type TemplatesConf struct {
	Dir   string `json:"dir"`   // extra template directory; relative paths are resolved against the app root
	Watch bool   `json:"watch"` // reload when a file in Dir changes
}

type PDFConf struct {
	Paper   string  `json:"paper"`  // letter, legal or a4
	Margin  float64 `json:"margin"` // points
	Creator string  `json:"creator"`
}

type AuthConf struct {
	JWKSDir  string `json:"jwks_dir"` // directory of <kid>_public.pem files
	Issuer   string `json:"issuer"`
	Audience string `json:"audience"`
}

// Core - common config, loaded from config/.core.json
type Core struct {
	AppName   string            `json:"app_name"`
	Listen    string            `json:"listen"`   // HTTP Server Listen IP:PORT Address
	Host      string            `json:"host"`     // HTTP Host. Can be used to generate public url endpoints
	UDSPath   string            `json:"uds_path"` // admin socket; relative paths are resolved against the app root
	FeedDB    string            `json:"feed_db"`  // name of the feed database in .sql-databases.json; "" disables the feed
	Templates TemplatesConf     `json:"templates"`
	PDF       PDFConf           `json:"pdf"`
	Auth      AuthConf          `json:"auth"`
	Throttle  throttle.Conf     `json:"throttle"`
	Jobs      map[string]string `json:"jobs"` // job id -> cron expression, overrides the default schedule

	AppRoot    string             `json:"-"` // Filled from compiled paths
	RootCtx    context.Context    `json:"-"` // Global Context with RootCancel
	RootCancel context.CancelFunc `json:"-"` // CancelFunc for RootCtx
	Logger     *zap.Logger        `json:"-"`
	Metrics    *metrics.Metrics   `json:"-"`

	Registry            *docs.Registry                `json:"-"` // PrepareTemplates
	TemplateWatcher     *docs.Watcher                 `json:"-"` // PrepareTemplates, when watching
	Generator           *docs.Generator               `json:"-"` // PrepareGenerator
	KVDBConf            kvdb.Conf                     `json:"-"` // PrepareKVDatabase
	BackendKVDBClient   kvdb.Client                   `json:"-"` // PrepareKVDatabase
	SQLDBConfs          map[string]*sqldb.Conf        `json:"-"` // PrepareSQLDatabases
	BackendSQLDBClients map[string]sqldb.Client       `json:"-"` // PrepareSQLDatabases
	WebSessionManager   *session.Manager              `json:"-"` // PrepareWebSessions
	SessionLocks        *keyonlylocks.Set             `json:"-"` // BaseInit
	StorageConf         storages.Conf                 `json:"-"` // PrepareStorages
	MediaStore          *media.FSStore                `json:"-"` // PrepareStorages
	Feed                *feed.Service                 `json:"-"` // PrepareFeed
	Chat                *chat.Service                 `json:"-"` // PrepareChat
	Verifier            *sec.TokenVerifier            `json:"-"` // PrepareVerifier
	ThrottleBucketStore *throttle.BucketStore[string] `json:"-"` // PrepareThrottleBucketStore
	JobScheduler        *schedjobs.Scheduler          `json:"-"` // PrepareJobScheduler
	UDSService          *uds.Service                  `json:"-"` // PrepareUDSService
	WebService          *web.Service                  `json:"-"` // PrepareWebService

	services []svc.Service // Services to Manage
	done     chan error
}

// BaseInit - 1st step for initialization
// 1. set AppRoot
// 2. load config/.core.json file
// 3. prepare base fields
// 4. Start ShutdownSignalListener
func (c *Core) BaseInit(appRoot string, rootCtx context.Context, rootCancel context.CancelFunc, logger *zap.Logger) error {
	c.AppRoot = appRoot
	if logger == nil {
		logger = zap.NewNop()
	}
	c.Logger = logger
	found, err := c.loadJSON(CoreFile, c)
	if err != nil {
		return err
	}
	if !found {
		c.Logger.Warn("no core config, using defaults", zap.String("file", c.configPath(CoreFile)))
	}
	if c.AppName == "" {
		c.AppName = "legalgram"
	}
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.UDSPath == "" {
		c.UDSPath = DefaultUDSPath
	}
	c.RootCtx = rootCtx
	c.RootCancel = rootCancel
	c.Metrics = metrics.New()
	c.SessionLocks = &keyonlylocks.Set{}
	c.startShutdownSignalListener()
	return nil
}

func (c *Core) configPath(name string) string {
	return filepath.Join(c.AppRoot, "config", name)
}

// resolve makes p absolute against the app root.
func (c *Core) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.AppRoot, p)
}

// loadJSON decodes config/<name> into dst. A missing file is not an error; found reports it.
func (c *Core) loadJSON(name string, dst any) (found bool, err error) {
	confBytes, err := os.ReadFile(c.configPath(name))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err = json.Unmarshal(confBytes, dst); err != nil {
		return true, fmt.Errorf("%s: %w", name, err)
	}
	return true, nil
}

func (c *Core) AddService(s svc.Service) {
	c.services = append(c.services, s)
	c.Logger.Info("adding service", zap.String("service", s.Name()), zap.Int("total", len(c.services)))
}

func (c *Core) StartServices() error {
	c.done = make(chan error, len(c.services))
	for _, s := range c.services {
		if err := s.Start(); err != nil {
			return fmt.Errorf("%s: %w", s.Name(), err)
		}
		go func(s svc.Service) {
			err := <-s.Done()
			c.done <- err
		}(s)
	}
	return nil
}

func (c *Core) WaitServicesDone() error {
	for range c.services {
		if err := <-c.done; err != nil {
			return err
		}
	}
	return nil
}

func (c *Core) StopServices() {
	for _, s := range c.services {
		s.Stop()
	}
}

var once sync.Once

func (c *Core) startShutdownSignalListener() {
	once.Do(func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			sig := <-sigs
			c.Logger.Info("got signal, shutting down", zap.String("signal", sig.String()), zap.String("app", c.AppName))
			c.RootCancel() // broadcast to all child services via Context.Done()
		}()
		c.Logger.Debug("shutdown signal listener started")
	})
}

// PrepareTemplates loads the built-in templates plus Templates.Dir and starts watching it when asked.
func (c *Core) PrepareTemplates() error {
	dir := c.resolve(c.Templates.Dir)
	registry, err := docs.NewRegistry(dir, c.Logger)
	if err != nil {
		return err
	}
	c.Registry = registry
	if c.Templates.Watch && dir != "" {
		c.TemplateWatcher = docs.NewWatcher(c.RootCtx, registry, c.Logger)
		c.TemplateWatcher.OnReload = c.Metrics.TemplatesReloaded
		c.AddService(c.TemplateWatcher)
	}
	return nil
}

func (c *Core) PrepareGenerator() error {
	g := &docs.Generator{Margin: c.PDF.Margin, Creator: c.PDF.Creator, Logger: c.Logger}
	if c.PDF.Paper != "" {
		paper, ok := pdfs.PaperSizeByName(c.PDF.Paper)
		if !ok {
			return fmt.Errorf("unknown paper size %q", c.PDF.Paper)
		}
		g.Paper = paper
	}
	if err := g.Validate(); err != nil {
		return err
	}
	if g.Creator == "" {
		g.Creator = c.AppName
	}
	c.Generator = g
	return nil
}

// PrepareKVDatabase connects the wizard session store. Without .kv-databases.json the wizard routes are off.
func (c *Core) PrepareKVDatabase() error {
	found, err := c.loadJSON(KVDBFile, &c.KVDBConf)
	if err != nil || !found {
		return err
	}
	switch c.KVDBConf.Type {
	case "redis":
		client := &redis.Client{Conf: &c.KVDBConf}
		if err = client.Init(); err != nil {
			return err
		}
		c.BackendKVDBClient = client
	default:
		return fmt.Errorf("unsupported key-value database type %q", c.KVDBConf.Type)
	}
	return nil
}

// PrepareSQLDatabases builds and inits every client in .sql-databases.json.
func (c *Core) PrepareSQLDatabases() error {
	c.SQLDBConfs = make(map[string]*sqldb.Conf)
	c.BackendSQLDBClients = make(map[string]sqldb.Client)
	if _, err := c.loadJSON(SQLDBFile, &c.SQLDBConfs); err != nil {
		return err
	}
	for dbName, sqlDBConf := range c.SQLDBConfs {
		if sqlDBConf.Type == "sqlite" && sqlDBConf.DSN == "" && sqlDBConf.DB != ":memory:" {
			sqlDBConf.DB = c.resolve(sqlDBConf.DB)
		}
		dbClient, err := sqldb.New(sqlDBConf)
		if err != nil {
			return fmt.Errorf("sql database %q: %w", dbName, err)
		}
		if err = dbClient.Init(); err != nil {
			return fmt.Errorf("sql database %q: %w", dbName, err)
		}
		c.BackendSQLDBClients[dbName] = dbClient
		c.Logger.Info("sql database ready", zap.String("name", dbName), zap.String("type", sqlDBConf.Type))
	}
	return nil
}

// PrepareWebSessions prepares WebSessionManager
// Prerequisite: BackendKVDBClient
func (c *Core) PrepareWebSessions() error {
	if c.BackendKVDBClient == nil {
		c.Logger.Warn("no key-value database, wizard sessions disabled")
		return nil
	}
	var conf session.Conf
	found, err := c.loadJSON(WebSessionFile, &conf)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%s is required with a key-value database", WebSessionFile)
	}
	if err = conf.Prepare(); err != nil {
		return err
	}
	c.WebSessionManager = session.NewManager(conf, c.AppName, c.BackendKVDBClient, c.Logger)
	return nil
}

func (c *Core) PrepareStorages() error {
	if _, err := c.loadJSON(StoragesFile, &c.StorageConf); err != nil {
		return err
	}
	mc := c.StorageConf.Media
	switch mc.Type {
	case "":
		return nil
	case "fs":
		if mc.BaseURL == "" {
			mc.BaseURL = DefaultMediaURL
		}
		store, err := media.NewFSStore(c.resolve(mc.Root), mc.BaseURL, mc.MaxBytes, c.Logger.Named("media"))
		if err != nil {
			return err
		}
		c.MediaStore = store
		return nil
	}
	return fmt.Errorf("unsupported media storage type %q", mc.Type)
}

// PrepareFeed migrates the feed schema on FeedDB and picks the realtime notifier.
// Prerequisite: BackendSQLDBClients, and MediaStore for attachments
func (c *Core) PrepareFeed(ctx context.Context) error {
	if c.FeedDB == "" {
		return nil
	}
	client, ok := c.BackendSQLDBClients[c.FeedDB]
	if !ok {
		return fmt.Errorf("feed database %q is not configured in %s", c.FeedDB, SQLDBFile)
	}
	logger := c.Logger.Named("feed")
	store, err := feed.NewSQLStore(client, logger)
	if err != nil {
		return err
	}
	if err = store.Migrate(ctx); err != nil {
		return fmt.Errorf("feed migrate: %w", err)
	}
	var mediaStore media.Store
	if c.MediaStore != nil {
		mediaStore = c.MediaStore
	}
	c.Feed = feed.NewService(store, mediaStore, feed.NewNotifier(c.RootCtx, client, logger), logger)
	return nil
}

func (c *Core) PrepareChat() error {
	conf := &chat.Conf{}
	found, err := c.loadJSON(ChatAPIFile, conf)
	if err != nil || !found {
		return err
	}
	if conf.Host == "" {
		return fmt.Errorf("%s: host is required", ChatAPIFile)
	}
	conf.Prepare()
	logger := c.Logger.Named("chat")
	c.Chat = chat.NewService(chat.NewClient(conf, logger), logger, c.Metrics)
	return nil
}

// PrepareVerifier loads the bearer token keys. Without Auth.JWKSDir feed writes answer 503.
func (c *Core) PrepareVerifier() error {
	if c.Auth.JWKSDir == "" {
		return nil
	}
	jwks, err := sec.LoadPublicPEMKeysAsJWKS(c.resolve(c.Auth.JWKSDir))
	if err != nil {
		return err
	}
	v, err := sec.NewTokenVerifier(jwks, c.Auth.Issuer, c.Auth.Audience)
	if err != nil {
		return err
	}
	c.Logger.Info("token verifier ready", zap.Int("keys", v.KeyCount()))
	c.Verifier = v
	return nil
}

func (c *Core) PrepareThrottleBucketStore() error {
	if len(c.Throttle.Groups) == 0 {
		return nil
	}
	cycle := time.Duration(max(c.Throttle.CleanupCycleSec, 60)) * time.Second
	olderThan := time.Duration(max(c.Throttle.CleanupOlderThanSec, 60)) * time.Second
	store := throttle.NewBucketStore[string](c.RootCtx, cycle, olderThan, c.Logger)
	for id, gc := range c.Throttle.Groups {
		bc, err := gc.BucketConf()
		if err != nil {
			return fmt.Errorf("throttle group %q: %w", id, err)
		}
		store.SetBucketGroup(id, bc)
	}
	c.ThrottleBucketStore = store
	c.AddService(store)
	return nil
}

// Default schedules of the housekeeping jobs, overridable by the `jobs` section.
const (
	WizardSessionsJobSpec = "* * * * *"
	MediaSweepJobSpec     = "17 * * * *"
)

// PrepareJobScheduler registers the housekeeping jobs of the prepared components.
func (c *Core) PrepareJobScheduler() error {
	s := schedjobs.NewScheduler(c.RootCtx, c.Logger)
	specs := map[string]string{}
	add := func(id, spec string, task func(context.Context) error) error {
		if custom, ok := c.Jobs[id]; ok {
			spec = custom
		}
		job, err := schedjobs.NewCronJob(id, spec, task)
		if err != nil {
			return fmt.Errorf("job %s: %w", id, err)
		}
		s.AddCronJob(job)
		specs[id] = job.Spec
		return nil
	}
	if c.WebSessionManager != nil {
		if err := add("wizard-sessions", WizardSessionsJobSpec, func(ctx context.Context) error {
			n, err := c.WebSessionManager.Count(ctx)
			if err != nil {
				return err
			}
			c.Metrics.SetWizardSessions(n)
			return nil
		}); err != nil {
			return err
		}
	}
	if c.MediaStore != nil {
		if err := add("media-sweep", MediaSweepJobSpec, func(context.Context) error {
			n, err := c.MediaStore.SweepTemp(time.Now(), time.Hour)
			if n > 0 {
				c.Logger.Info("removed stale media temp files", zap.Int("count", n))
			}
			return err
		}); err != nil {
			return err
		}
	}
	for id := range c.Jobs {
		if _, ok := specs[id]; !ok {
			c.Logger.Warn("schedule for an inactive job ignored", zap.String("job", id))
		}
	}
	c.Logger.Debug("jobs scheduled", zap.Any("jobs", specs))
	c.JobScheduler = s
	c.AddService(s)
	return nil
}

func (c *Core) PrepareUDSService() {
	cmds := admin.Commands(admin.Deps{
		Registry:  c.Registry,
		Sessions:  c.WebSessionManager,
		Locks:     c.SessionLocks,
		Throttle:  c.ThrottleBucketStore,
		Scheduler: c.JobScheduler,
		Metrics:   c.Metrics,
	})
	c.UDSService = uds.NewService(c.RootCtx, c.resolve(c.UDSPath), cmds, c.Logger)
	c.AddService(c.UDSService)
}

// App wires the HTTP handlers to the prepared components.
func (c *Core) App() *handlers.App {
	app := &handlers.App{
		Registry:  c.Registry,
		Generator: c.Generator,
		Sessions:  c.WebSessionManager,
		Locks:     c.SessionLocks,
		Feed:      c.Feed,
		Chat:      c.Chat,
		Verifier:  c.Verifier,
		Throttle:  c.ThrottleBucketStore,
		Metrics:   c.Metrics,
		Logger:    c.Logger,
	}
	if c.MediaStore != nil {
		app.MediaHandler = c.MediaStore
		app.MaxUploadBytes = c.MediaStore.MaxBytes + 1<<20
	}
	return app
}

func (c *Core) PrepareWebService(router http.Handler) {
	c.WebService = web.NewService(c.RootCtx, c.Listen, router, c.Logger)
	c.AddService(c.WebService)
}

// PrepareAll runs every Prepare step in dependency order.
func (c *Core) PrepareAll() error {
	steps := []struct {
		name string
		fn   func() error
	}{
		{"templates", c.PrepareTemplates},
		{"generator", c.PrepareGenerator},
		{"kv database", c.PrepareKVDatabase},
		{"sql databases", c.PrepareSQLDatabases},
		{"web sessions", c.PrepareWebSessions},
		{"storages", c.PrepareStorages},
		{"feed", func() error { return c.PrepareFeed(c.RootCtx) }},
		{"chat", c.PrepareChat},
		{"verifier", c.PrepareVerifier},
		{"throttle", c.PrepareThrottleBucketStore},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			return fmt.Errorf("prepare %s: %w", step.name, err)
		}
	}
	if err := c.PrepareJobScheduler(); err != nil {
		return fmt.Errorf("prepare jobs: %w", err)
	}
	c.PrepareUDSService()
	c.PrepareWebService(c.App().Router())
	return nil
}

func (c *Core) ResourceCleanUp() {
	c.Logger.Info("app resource cleaning up")
	if c.BackendKVDBClient != nil {
		if err := c.BackendKVDBClient.Close(); err != nil {
			c.Logger.Error("failed to close KV database client", zap.Error(err))
		}
	}
	for name, sqlDBClient := range c.BackendSQLDBClients {
		dbType := sqlDBClient.GetConf().Type
		if err := sqlDBClient.Close(); err != nil {
			c.Logger.Error("failed to close SQL DB client", zap.String("name", name), zap.String("type", dbType), zap.Error(err))
		} else {
			c.Logger.Info("SQL DB client closed", zap.String("name", name), zap.String("type", dbType))
		}
	}
	c.Logger.Info("app resource cleanup complete")
}
