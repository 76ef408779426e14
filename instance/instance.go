// Package instance implements per-bucket lazy load, login, secret caching,
// session issuance and inactivity-driven unload (§4.7).
package instance

import (
	"context"
	"crypto/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"mediavault/authtoken"
	"mediavault/bucket"
	"mediavault/vaulterr"
)

// Config is an instance's immutable configuration.
type Config struct {
	ID              string
	Name            string
	Location        string
	Hidden          bool
	SessionLifetime time.Duration
	RandomizeSecret bool
	BaseURL         string
}

// Instance is the per-bucket server-side state: immutable Config plus lazy
// bucket/token_secret slots guarded by an RWMutex, and atomic counters for
// login bookkeeping. Login holds the write lock while it lazily opens the
// bucket and runs its first GC, so concurrent logins load it only once;
// token minting happens after the lock is released.
type Instance struct {
	Config

	log zerolog.Logger

	mu          sync.RWMutex
	bucket      *bucket.Bucket
	tokenSecret *[32]byte

	sessionsCreated atomic.Int64
	lastLogin       atomic.Int64 // unix seconds, 0 = never
}

func newInstance(cfg Config, log zerolog.Logger) *Instance {
	return &Instance{Config: cfg, log: log}
}

// passwordProtectedLocked reports whether the loaded bucket is password
// protected. It does not open the bucket: an instance with no loaded bucket
// reports false. Must be called with i.mu held.
func (i *Instance) passwordProtectedLocked() bool {
	return i.bucket != nil && i.bucket.IsEncrypted()
}

// LoginResult is returned by Login.
type LoginResult struct {
	Token           string
	ShareToken      string
	Lifetime        time.Duration
	Now             time.Time
	LastLoginBefore int64
}

// Login implements §4.7's login sequence: lazily load the bucket (running
// GC once on first load), resolve the token secret, mint a primary and a
// shareable read-only token, and advance lastLogin monotonically.
func (i *Instance) Login(ctx context.Context, password, ip string) (LoginResult, error) {
	now := time.Now()

	i.mu.Lock()
	if i.bucket == nil {
		b, err := i.openBucket(ctx, password)
		if err != nil {
			i.mu.Unlock()
			return LoginResult{}, err
		}
		if err := b.DataSource().GC(ctx); err != nil {
			i.mu.Unlock()
			return LoginResult{}, err
		}
		i.bucket = b
	}
	b := i.bucket

	secret, err := i.resolveTokenSecretLocked(b, password)
	if err != nil {
		i.mu.Unlock()
		return LoginResult{}, err
	}
	i.mu.Unlock()

	token, err := authtoken.Mint(secret, ip, false, now, i.SessionLifetime)
	if err != nil {
		return LoginResult{}, err
	}
	shareToken, err := authtoken.Mint(secret, ip, true, now, i.SessionLifetime)
	if err != nil {
		return LoginResult{}, err
	}

	lastBefore := i.advanceLastLogin(now.Unix())
	i.sessionsCreated.Add(1)

	return LoginResult{
		Token: token, ShareToken: shareToken, Lifetime: i.SessionLifetime,
		Now: now, LastLoginBefore: lastBefore,
	}, nil
}

func (i *Instance) openBucket(ctx context.Context, password string) (*bucket.Bucket, error) {
	return bucket.Open(ctx, i.Location, password, i.log)
}

// resolveTokenSecretLocked computes or reuses the instance's token secret.
// Must be called with i.mu held for write.
func (i *Instance) resolveTokenSecretLocked(b *bucket.Bucket, password string) ([32]byte, error) {
	if i.tokenSecret != nil {
		return *i.tokenSecret, nil
	}

	if i.RandomizeSecret {
		var s [32]byte
		if _, err := rand.Read(s[:]); err != nil {
			return [32]byte{}, vaulterr.IO.Wrap(err)
		}
		i.tokenSecret = &s
		return s, nil
	}

	derived, ok, err := b.DataSource().ValidatePassword(password)
	if err != nil {
		return [32]byte{}, err
	}
	if !ok {
		return [32]byte{}, vaulterr.InvalidPassword.New("invalid password for instance %s", i.ID)
	}
	i.tokenSecret = &derived
	return derived, nil
}

// advanceLastLogin CAS-loops lastLogin forward to max(current, now),
// returning the value that was in place before the update, to preserve
// monotonicity under concurrent logins.
func (i *Instance) advanceLastLogin(now int64) int64 {
	for {
		old := i.lastLogin.Load()
		if now <= old {
			return old
		}
		if i.lastLogin.CompareAndSwap(old, now) {
			return old
		}
	}
}

// BFU reports whether the instance is in Before-First-Unlock state: no
// token secret cached and no randomized-secret escape hatch. No session may
// be materialized in this state.
func (i *Instance) BFU() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.tokenSecret == nil && !i.RandomizeSecret
}

// Session is produced from (token, ip) when verification succeeds and the
// bucket is loaded.
type Session struct {
	Bucket   *bucket.Bucket
	IP       string
	ReadOnly bool
	Token    string
}

// Resolve verifies token against the instance's current token secret and
// the requesting ip, returning a Session if the bucket is loaded and
// verification succeeds.
func (i *Instance) Resolve(token, ip string, now time.Time) (Session, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if i.tokenSecret == nil || i.bucket == nil {
		return Session{}, vaulterr.InvalidAuthToken.New("instance %s has no active session state", i.ID)
	}

	claims, err := authtoken.Verify(*i.tokenSecret, token, ip, now)
	if err != nil {
		return Session{}, err
	}

	return Session{Bucket: i.bucket, IP: ip, ReadOnly: claims.ReadOnly, Token: token}, nil
}

// Sweep clears bucket/token_secret/lastLogin/sessionsCreated if now has
// passed lastLogin + SessionLifetime, invalidating all outstanding tokens
// (they verify against a token secret that no longer exists) and closing
// the bucket's DB connections and file handles. Called by the manager's
// background watcher on every tick; exported so tests can force a sweep
// instead of waiting on the ticker.
func (i *Instance) Sweep(now time.Time) {
	i.mu.Lock()
	defer i.mu.Unlock()

	last := i.lastLogin.Load()
	if last == 0 {
		return
	}
	unloadAt := time.Unix(last, 0).Add(i.SessionLifetime)
	if now.Before(unloadAt) {
		return
	}

	i.closeBucketLocked()
	i.tokenSecret = nil
	i.lastLogin.Store(0)
	i.sessionsCreated.Store(0)
	i.log.Debug().Str("instance", i.ID).Msg("unloaded instance after inactivity")
}

// closeBucketLocked closes and nils the loaded bucket, if any. Must be
// called with i.mu held for write.
func (i *Instance) closeBucketLocked() {
	if i.bucket == nil {
		return
	}
	if err := i.bucket.Close(); err != nil {
		i.log.Warn().Err(err).Str("instance", i.ID).Msg("error closing bucket")
	}
	i.bucket = nil
}

// Close unloads the instance unconditionally, closing its bucket if one is
// loaded. Called by the manager on shutdown.
func (i *Instance) Close() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.closeBucketLocked()
}
