package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillswap/internal/engine"
	"skillswap/internal/models"
)

type recordingPersister struct {
	mu    sync.Mutex
	saved []engine.State
	block chan struct{}
}

func (p *recordingPersister) Save(_ context.Context, s engine.State) {
	if p.block != nil {
		<-p.block
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saved = append(p.saved, s)
}

func (p *recordingPersister) last() (engine.State, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.saved) == 0 {
		return engine.State{}, 0
	}
	return p.saved[len(p.saved)-1], len(p.saved)
}

func mustUser(t *testing.T, name, email string) models.User {
	t.Helper()
	u, err := models.NewUser(models.UserParams{Name: name, Email: email})
	require.NoError(t, err)
	return *u
}

func TestStore_DispatchPersistsLatestSnapshot(t *testing.T) {
	t.Parallel()

	p := &recordingPersister{}
	st := New(engine.Initial(), p)
	ctx := context.Background()

	a := mustUser(t, "A", "a@x.com")
	b := mustUser(t, "B", "b@x.com")
	_, changed := st.Dispatch(ctx, engine.AddUser{User: a})
	require.True(t, changed)
	st.Dispatch(ctx, engine.AddUser{User: b})

	require.NoError(t, st.Close(ctx))
	saved, n := p.last()
	require.GreaterOrEqual(t, n, 1)
	assert.Equal(t, st.Snapshot(), saved)
	assert.Len(t, saved.Users, 2)
}

func TestStore_RejectedIntentIsNotPersisted(t *testing.T) {
	t.Parallel()

	p := &recordingPersister{}
	st := New(engine.Initial(), p)
	ctx := context.Background()

	next, changed := st.Dispatch(ctx, engine.BanUser{UserID: "nobody"})
	assert.False(t, changed)
	assert.Equal(t, engine.Initial(), next)

	require.NoError(t, st.Close(ctx))
	_, n := p.last()
	assert.Zero(t, n)
}

func TestStore_EagerBanReconciliation(t *testing.T) {
	t.Parallel()

	u := mustUser(t, "U", "u@x.com")
	initial := engine.Initial()
	banned := u.Clone()
	banned.IsBanned = true
	initial.Users = []models.User{banned}
	stale := u.Clone()
	initial.Session = &stale

	st := New(initial, nil)
	var changes []Change
	st.Subscribe(func(c Change) { changes = append(changes, c) })

	// Any accepted intent is followed by reconciliation in the same dispatch.
	other := mustUser(t, "O", "o@x.com")
	next, changed := st.Dispatch(context.Background(), engine.AddUser{User: other})
	require.True(t, changed)
	assert.Nil(t, next.Session)
	require.Len(t, changes, 1)
	assert.True(t, changes[0].SessionCleared)
	require.NoError(t, st.Close(context.Background()))
}

func TestStore_ExplicitLogoutIsNotForced(t *testing.T) {
	t.Parallel()

	u := mustUser(t, "U", "u@x.com")
	st := New(engine.Initial(), nil)
	ctx := context.Background()
	st.Dispatch(ctx, engine.AddUser{User: u})
	st.Dispatch(ctx, engine.SetSession{User: &u})

	var got Change
	unsubscribe := st.Subscribe(func(c Change) { got = c })
	st.Dispatch(ctx, engine.SetSession{User: nil})
	assert.False(t, got.SessionCleared)
	assert.Equal(t, "set_session", got.Intent)

	unsubscribe()
	st.Dispatch(ctx, engine.SetSession{User: &u})
	assert.Nil(t, got.Current.Session)
	require.NoError(t, st.Close(ctx))
}

func TestStore_PersistenceCoalescesWhileBlocked(t *testing.T) {
	t.Parallel()

	p := &recordingPersister{block: make(chan struct{})}
	st := New(engine.Initial(), p)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		u := mustUser(t, "U", "u@x.com")
		st.Dispatch(ctx, engine.AddUser{User: u})
	}
	close(p.block)
	require.NoError(t, st.Close(ctx))

	saved, n := p.last()
	assert.LessOrEqual(t, n, 3)
	assert.Len(t, saved.Users, 20)
}

func TestStore_CloseHonoursContext(t *testing.T) {
	t.Parallel()

	p := &recordingPersister{block: make(chan struct{})}
	st := New(engine.Initial(), p)
	st.Dispatch(context.Background(), engine.AddUser{User: mustUser(t, "U", "u@x.com")})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, st.Close(ctx), context.DeadlineExceeded)
	close(p.block)
	require.NoError(t, st.Close(context.Background()))

	// Dispatch after Close still updates memory.
	_, changed := st.Dispatch(context.Background(), engine.AddUser{User: mustUser(t, "V", "v@x.com")})
	assert.True(t, changed)
	assert.Len(t, st.Snapshot().Users, 2)
}

func TestStore_ConcurrentDispatch(t *testing.T) {
	t.Parallel()

	st := New(engine.Initial(), &recordingPersister{})
	ctx := context.Background()

	users := make([]models.User, 50)
	for i := range users {
		users[i] = mustUser(t, "U", "u@x.com")
	}

	var wg sync.WaitGroup
	for _, u := range users {
		u := u
		wg.Add(1)
		go func() {
			defer wg.Done()
			st.Dispatch(ctx, engine.AddUser{User: u})
			st.Dispatch(ctx, engine.CheckBannedStatus{})
		}()
	}
	wg.Wait()
	assert.Len(t, st.Snapshot().Users, 50)
	require.NoError(t, st.Close(ctx))
}
