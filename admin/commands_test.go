package admin

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeptools/legalgram/db/kvdb"
	"github.com/zeptools/legalgram/db/kvdb/impls/redis"
	"github.com/zeptools/legalgram/docs"
	"github.com/zeptools/legalgram/locks/keyonlylocks"
	"github.com/zeptools/legalgram/schedjobs"
	"github.com/zeptools/legalgram/throttle"
	"github.com/zeptools/legalgram/web/session"
)

func TestCommands_Registry(t *testing.T) {
	reg, err := docs.NewRegistry("", nil)
	require.NoError(t, err)
	cmds := Commands(Deps{Registry: reg})
	require.Contains(t, cmds, "doctypes")
	assert.NotContains(t, cmds, "sessions")

	buf := &bytes.Buffer{}
	require.NoError(t, cmds["doctypes"].Fn(context.Background(), nil, buf))
	assert.Contains(t, buf.String(), "TYPE")
	assert.Contains(t, buf.String(), "bill-of-sale")

	buf.Reset()
	require.NoError(t, cmds["reload"].Fn(context.Background(), nil, buf))
	assert.Equal(t, "reloaded "+strconv.Itoa(reg.Len())+" document types\n", buf.String())
}

func TestCommands_SessionsAndThrottle(t *testing.T) {
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	kv := &redis.Client{Conf: &kvdb.Conf{Type: "redis", Host: mr.Host(), Port: port}}
	require.NoError(t, kv.Init())
	t.Cleanup(func() { _ = kv.Close() })
	conf := session.Conf{EncryptionKey: "AAECAwQFBgcICQoLDA0ODxAREhMUFRYXGBkaGxwdHh8"}
	require.NoError(t, conf.Prepare())
	mgr := session.NewManager(conf, "lg", kv, nil)

	reg, err := docs.NewRegistry("", nil)
	require.NoError(t, err)
	def, err := reg.Get("bill-of-sale")
	require.NoError(t, err)
	for range 2 {
		_, err = mgr.Start(context.Background(), def.NewSession())
		require.NoError(t, err)
	}

	store := throttle.NewBucketStore[string](context.Background(), time.Hour, time.Hour, nil)
	store.SetBucketGroup("feed", &throttle.BucketConf{Burst: 1, Increment: 1, Period: time.Second})
	store.SetBucketGroup("chat", &throttle.BucketConf{Burst: 1, Increment: 1, Period: time.Second})
	store.Allow("feed", "10.0.0.1", time.Now())
	store.Allow("feed", "10.0.0.2", time.Now())

	cmds := Commands(Deps{Sessions: mgr, Throttle: store})
	buf := &bytes.Buffer{}
	require.NoError(t, cmds["sessions"].Fn(context.Background(), nil, buf))
	assert.Equal(t, "2 wizard sessions\n", buf.String())

	var locks keyonlylocks.Set
	release, ok := locks.TryLock("busy-session")
	require.True(t, ok)
	defer release()
	buf.Reset()
	require.NoError(t, Commands(Deps{Sessions: mgr, Locks: &locks})["sessions"].Fn(context.Background(), nil, buf))
	assert.Equal(t, "2 wizard sessions, 1 busy\n", buf.String())

	buf.Reset()
	require.NoError(t, cmds["throttle"].Fn(context.Background(), nil, buf))
	assert.Equal(t, "chat: 0 buckets\nfeed: 2 buckets\n", buf.String())
}

func TestCommands_Jobs(t *testing.T) {
	s := schedjobs.NewScheduler(context.Background(), nil)
	ran := 0
	s.AddCronJob(schedjobs.NewHourlyJob("media-sweep", 17, func(context.Context) error {
		ran++
		return nil
	}))
	s.AddCronJob(schedjobs.NewEveryMinuteJob("broken", func(context.Context) error {
		return errors.New("db down")
	}))
	cmds := Commands(Deps{Scheduler: s})

	buf := &bytes.Buffer{}
	require.NoError(t, cmds["jobs"].Fn(context.Background(), nil, buf))
	assert.Equal(t, "media-sweep\t17 * * * *\nbroken\t* * * * *\n", buf.String())

	buf.Reset()
	require.NoError(t, cmds["runjob"].Fn(context.Background(), []string{"media-sweep"}, buf))
	assert.Equal(t, 1, ran)
	assert.Contains(t, buf.String(), "media-sweep done in")

	assert.EqualError(t, cmds["runjob"].Fn(context.Background(), []string{"broken"}, buf), "db down")
	assert.ErrorIs(t, cmds["runjob"].Fn(context.Background(), nil, buf), errUsage)
	assert.Error(t, cmds["runjob"].Fn(context.Background(), []string{"nope"}, buf))
}
