package instance_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"mediavault/instance"
	"mediavault/vaulterr"
)

func newUnencryptedConfig(t *testing.T, lifetime time.Duration) instance.Config {
	t.Helper()
	return instance.Config{
		ID:              "demo",
		Name:            "demo bucket",
		Location:        t.TempDir(),
		SessionLifetime: lifetime,
	}
}

func TestLoginLazyLoadsAndMintsTokens(t *testing.T) {
	cfg := newUnencryptedConfig(t, time.Hour)
	mgr := instance.NewManager([]instance.Config{cfg}, zerolog.Nop())
	defer mgr.Close()

	res, err := mgr.Login(context.Background(), cfg.ID, "", "203.0.113.5")
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
	require.NotEmpty(t, res.ShareToken)
	require.NotEqual(t, res.Token, res.ShareToken)
	require.Zero(t, res.LastLoginBefore)
}

func TestLoginUnknownInstance(t *testing.T) {
	mgr := instance.NewManager(nil, zerolog.Nop())
	defer mgr.Close()

	_, err := mgr.Login(context.Background(), "missing", "", "203.0.113.5")
	require.True(t, vaulterr.Is(err, vaulterr.NotFound))
}

func TestResolveRoundTripAndIPMismatch(t *testing.T) {
	cfg := newUnencryptedConfig(t, time.Hour)
	mgr := instance.NewManager([]instance.Config{cfg}, zerolog.Nop())
	defer mgr.Close()

	res, err := mgr.Login(context.Background(), cfg.ID, "", "203.0.113.5")
	require.NoError(t, err)

	now := res.Now.Add(time.Second)
	session, err := mgr.Resolve(cfg.ID, res.Token, "203.0.113.5", now)
	require.NoError(t, err)
	require.False(t, session.ReadOnly)

	share, err := mgr.Resolve(cfg.ID, res.ShareToken, "203.0.113.5", now)
	require.NoError(t, err)
	require.True(t, share.ReadOnly)

	_, err = mgr.Resolve(cfg.ID, res.Token, "198.51.100.9", now)
	require.True(t, vaulterr.Is(err, vaulterr.InvalidAuthToken))
}

func TestResolveBeforeLoginHasNoSessionState(t *testing.T) {
	cfg := newUnencryptedConfig(t, time.Hour)
	mgr := instance.NewManager([]instance.Config{cfg}, zerolog.Nop())
	defer mgr.Close()

	_, err := mgr.Resolve(cfg.ID, "anything", "203.0.113.5", time.Now())
	require.True(t, vaulterr.Is(err, vaulterr.InvalidAuthToken))
}

func TestBFUBeforeFirstLogin(t *testing.T) {
	cfg := newUnencryptedConfig(t, time.Hour)
	mgr := instance.NewManager([]instance.Config{cfg}, zerolog.Nop())
	defer mgr.Close()

	inst, ok := mgr.Get(cfg.ID)
	require.True(t, ok)
	require.True(t, inst.BFU())

	_, err := mgr.Login(context.Background(), cfg.ID, "", "203.0.113.5")
	require.NoError(t, err)
	require.False(t, inst.BFU())
}

func TestRandomizeSecretNeverReachesBFU(t *testing.T) {
	cfg := newUnencryptedConfig(t, time.Hour)
	cfg.RandomizeSecret = true
	mgr := instance.NewManager([]instance.Config{cfg}, zerolog.Nop())
	defer mgr.Close()

	inst, ok := mgr.Get(cfg.ID)
	require.True(t, ok)
	require.False(t, inst.BFU())
}

func TestConcurrentLoginsAdvanceLastLoginMonotonically(t *testing.T) {
	cfg := newUnencryptedConfig(t, time.Hour)
	mgr := instance.NewManager([]instance.Config{cfg}, zerolog.Nop())
	defer mgr.Close()

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	results := make([]instance.LoginResult, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := mgr.Login(context.Background(), cfg.ID, "", "203.0.113.5")
			errs[i] = err
			results[i] = res
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	for _, res := range results {
		require.LessOrEqual(t, res.LastLoginBefore, res.Now.Unix())
	}
}

func TestUnloadAfterInactivityInvalidatesSession(t *testing.T) {
	cfg := newUnencryptedConfig(t, time.Hour)
	mgr := instance.NewManager([]instance.Config{cfg}, zerolog.Nop())
	defer mgr.Close()

	res, err := mgr.Login(context.Background(), cfg.ID, "", "203.0.113.5")
	require.NoError(t, err)

	inst, ok := mgr.Get(cfg.ID)
	require.True(t, ok)

	now := res.Now.Add(time.Minute)
	_, err = mgr.Resolve(cfg.ID, res.Token, "203.0.113.5", now)
	require.NoError(t, err, "not unloaded until a sweep runs")

	inst.Sweep(res.Now.Add(2 * time.Hour))
	_, err = mgr.Resolve(cfg.ID, res.Token, "203.0.113.5", now)
	require.True(t, vaulterr.Is(err, vaulterr.InvalidAuthToken))
	require.True(t, inst.BFU())
}
