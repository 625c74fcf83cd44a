package feed

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/zeptools/legalgram/db/sqldb"
)

// Event types
const (
	EventPost    = "post"
	EventComment = "comment"
)

// Event announces a new row. Subscribers fetch the row itself when they need it.
type Event struct {
	Type   string `json:"type"`
	PostID string `json:"post_id"`
	ID     string `json:"id"` // comment id for EventComment, post id otherwise
}

// Notifier fans feed events out to realtime subscribers.
type Notifier interface {
	Publish(ctx context.Context, ev Event) error
	// Subscribe delivers events until ctx is done, then closes the channel.
	Subscribe(ctx context.Context) (<-chan Event, error)
}

const subscriberBuffer = 16

// Broadcaster is the in-process Notifier. Slow subscribers miss events rather than block publishers.
type Broadcaster struct {
	Logger *zap.Logger
	mu     sync.Mutex
	subs   map[chan Event]struct{}
}

var _ Notifier = (*Broadcaster)(nil)

func NewBroadcaster(logger *zap.Logger) *Broadcaster {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broadcaster{Logger: logger, subs: make(map[chan Event]struct{})}
}

func (b *Broadcaster) Publish(_ context.Context, ev Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
			b.Logger.Warn("feed subscriber lagging, event dropped", zap.String("type", ev.Type), zap.String("id", ev.ID))
		}
	}
	return nil
}

func (b *Broadcaster) Subscribe(ctx context.Context) (<-chan Event, error) {
	ch := make(chan Event, subscriberBuffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, ch)
		b.mu.Unlock()
		close(ch)
	}()
	return ch, nil
}

func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// NotifyChannel is the Postgres LISTEN/NOTIFY channel of feed events.
const NotifyChannel = "legalgram_feed"

// DBNotifier relays events through the database so every service instance sees them.
type DBNotifier struct {
	Handle  sqldb.Handle
	Channel string
	Logger  *zap.Logger
}

var _ Notifier = (*DBNotifier)(nil)

func (n *DBNotifier) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return n.Handle.Notify(ctx, n.Channel, string(payload))
}

func (n *DBNotifier) Subscribe(ctx context.Context) (<-chan Event, error) {
	notifications, err := n.Handle.Listen(ctx, n.Channel)
	if err != nil {
		return nil, err
	}
	out := make(chan Event, subscriberBuffer)
	go func() {
		defer close(out)
		for nt := range notifications {
			var ev Event
			if err := json.Unmarshal([]byte(nt.Payload), &ev); err != nil {
				n.Logger.Warn("malformed feed notification", zap.Error(err))
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// NewNotifier picks LISTEN/NOTIFY when the driver supports it, the in-process broadcaster otherwise.
func NewNotifier(ctx context.Context, client sqldb.Client, logger *zap.Logger) Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	n := &DBNotifier{Handle: client, Channel: NotifyChannel, Logger: logger}
	probeCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if _, err := client.Listen(probeCtx, NotifyChannel); errors.Is(err, sqldb.ErrNotSupported) {
		logger.Info("feed realtime via in-process broadcaster", zap.String("db_type", client.GetConf().Type))
		return NewBroadcaster(logger)
	} else if err != nil {
		logger.Warn("feed listen probe failed, using in-process broadcaster", zap.Error(err))
		return NewBroadcaster(logger)
	}
	logger.Info("feed realtime via LISTEN/NOTIFY", zap.String("channel", NotifyChannel))
	return n
}
