package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreGetSetDelete(t *testing.T) {
	st := NewStore()
	now := time.Now()

	assert.Nil(t, st.Get(10))

	sess := NewCadastro(10, now)
	st.Set(sess)
	require.NotNil(t, st.Get(10))
	assert.Equal(t, StageNome, st.Get(10).Stage)
	assert.Equal(t, 1, st.Len())

	st.Delete(10)
	assert.Nil(t, st.Get(10))
	assert.Equal(t, 0, st.Len())
}

func TestStoreReplacesExistingFlow(t *testing.T) {
	st := NewStore()
	now := time.Now()

	st.Set(NewCadastro(7, now))
	st.Set(NewLogin(7, now))

	got := st.Get(7)
	require.NotNil(t, got)
	assert.Equal(t, FlowLogin, got.Flow)
	assert.Equal(t, StageLoginEmail, got.Stage)
	assert.Equal(t, 1, st.Len())
}

func TestSweepEvictsOnlyIdleSessions(t *testing.T) {
	st := NewStore()
	now := time.Now()

	stale := NewCadastro(1, now.Add(-20*time.Minute))
	fresh := NewCadastro(2, now.Add(-5*time.Minute))
	st.Set(stale)
	st.Set(fresh)

	evicted := st.Sweep(now, 15*time.Minute)

	assert.ElementsMatch(t, []int64{1}, evicted)
	assert.Nil(t, st.Get(1))
	assert.NotNil(t, st.Get(2))
}

func TestSweepTouchedSessionSurvives(t *testing.T) {
	st := NewStore()
	now := time.Now()

	sess := NewCadastro(3, now.Add(-20*time.Minute))
	st.Set(sess)
	sess.Touch(now)

	evicted := st.Sweep(now, 15*time.Minute)
	assert.Empty(t, evicted)
	assert.NotNil(t, st.Get(3))
}

func TestAcquireSerializesSameChat(t *testing.T) {
	st := NewStore()

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		wg      sync.WaitGroup
	)

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := st.Acquire(42)
			defer release()

			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen, "same-chat events must not overlap")
}

func TestAuthRegistry(t *testing.T) {
	reg := NewAuthRegistry()

	assert.False(t, reg.Authenticated(5))

	reg.Login(5, 99)
	id, ok := reg.UserID(5)
	require.True(t, ok)
	assert.Equal(t, int64(99), id)
	assert.True(t, reg.Authenticated(5))

	assert.True(t, reg.Logout(5))
	assert.False(t, reg.Authenticated(5))
	assert.False(t, reg.Logout(5), "second logout is a no-op")
}
