package updatemanager

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netbirdio/updater/client/internal/updatemanager/testutil"
	"github.com/netbirdio/updater/client/internal/updatemanager/types"
)

func TestWatcher_NotifiesOnVersionChange(t *testing.T) {
	hub := testutil.NewHub(t, DefaultVersionPath, testutil.JSON(http.StatusOK, availableBody))
	m := newTestManager(t, hub.URL(), hub.Server.Client())

	var mu sync.Mutex
	var notified []string
	w := NewWatcher(m)
	w.SetOnUpdateListener(func(info types.VersionInfo) {
		mu.Lock()
		defer mu.Unlock()
		notified = append(notified, info.DisplayVersion)
	})

	w.StartWatch(context.Background(), 20*time.Millisecond)
	defer w.StopWatch()

	require.Eventually(t, func() bool {
		return hub.VersionCalls.Load() >= 3
	}, 5*time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []string{"2.0.0+42"}, notified)
	mu.Unlock()

	hub.SetResponder(testutil.JSON(http.StatusOK,
		`{"hasUpdate":true,"latestVersion":{"version":"2.0.1","build":43},"download":{"url":"/d/b.apk"}}`))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(notified) == 2
	}, 5*time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, "2.0.1+43", notified[1])
	mu.Unlock()
}

func TestWatcher_ConcurrentStartStop(t *testing.T) {
	hub := testutil.NewHub(t, DefaultVersionPath, testutil.JSON(http.StatusOK, availableBody))
	m := newTestManager(t, hub.URL(), hub.Server.Client())

	w := NewWatcher(m)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			w.StartWatch(context.Background(), time.Hour)
		}()
		go func() {
			defer wg.Done()
			w.StopWatch()
		}()
	}
	wg.Wait()

	w.StopWatch()
	w.watchLock.Lock()
	assert.Nil(t, w.cancel)
	w.watchLock.Unlock()

	w.StartWatch(context.Background(), time.Hour)
	w.StopWatch()
}

func TestWatcher_LateListenerGetsKnownUpdate(t *testing.T) {
	hub := testutil.NewHub(t, DefaultVersionPath, testutil.JSON(http.StatusOK, availableBody))
	m := newTestManager(t, hub.URL(), hub.Server.Client())

	w := NewWatcher(m)
	w.check(context.Background())

	var got types.VersionInfo
	w.SetOnUpdateListener(func(info types.VersionInfo) { got = info })
	assert.Equal(t, "2.0.0", got.Version)
}

func TestSameRelease(t *testing.T) {
	assert.True(t, sameRelease(types.VersionInfo{Version: "1.0", Build: 1}, types.VersionInfo{Version: "1.0.0", Build: 1}))
	assert.False(t, sameRelease(types.VersionInfo{Version: "1.0.0", Build: 1}, types.VersionInfo{Version: "1.0.0", Build: 2}))
	assert.True(t, sameRelease(types.VersionInfo{Version: "nightly", Build: 1}, types.VersionInfo{Version: "nightly", Build: 1}))
	assert.False(t, sameRelease(types.VersionInfo{Version: "nightly", Build: 1}, types.VersionInfo{Version: "beta", Build: 1}))
}
