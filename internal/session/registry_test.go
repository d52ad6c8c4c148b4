package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/battleship-go/internal/model"
	"github.com/mcoot/battleship-go/internal/testutil"
)

// fakeConn records notifications in memory
type fakeConn struct {
	mu       sync.Mutex
	received []model.Notification
	full     bool
	done     chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{done: make(chan struct{})}
}

func (c *fakeConn) Send(n model.Notification) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.full {
		return false
	}
	c.received = append(c.received, n)
	return true
}

func (c *fakeConn) Done() <-chan struct{} { return c.done }

func (c *fakeConn) close() { close(c.done) }

func (c *fakeConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.received)
}

type RegistrySuite struct {
	suite.Suite
	registry *Registry
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.registry = NewRegistry(testutil.NopLogger())
}

func (s *RegistrySuite) TestRegisterAndLookup() {
	conn := newFakeConn()
	prev := s.registry.Register("alice", conn)
	s.Nil(prev)

	got, ok := s.registry.Lookup("alice")
	s.True(ok)
	s.Same(conn, got)
	s.Equal(1, s.registry.Count())
}

func (s *RegistrySuite) TestLastRegistrationWins() {
	first, second := newFakeConn(), newFakeConn()
	s.registry.Register("alice", first)
	prev := s.registry.Register("alice", second)
	s.Same(first, prev)

	s.True(s.registry.Notify("alice", model.Notification{Event: model.EventPlayerJoined}))
	s.Equal(0, first.count())
	s.Equal(1, second.count())
	s.Equal(1, s.registry.Count())
}

func (s *RegistrySuite) TestNotifyWithoutSessionIsDropped() {
	s.False(s.registry.Notify("nobody", model.Notification{Event: model.EventGameEnded}))
}

func (s *RegistrySuite) TestNotifyClosedConnectionIsDroppedAndEvicted() {
	conn := newFakeConn()
	s.registry.Register("alice", conn)
	conn.close()

	s.False(s.registry.Notify("alice", model.Notification{Event: model.EventGameEnded}))
	s.Equal(0, conn.count())
	_, ok := s.registry.Lookup("alice")
	s.False(ok)
}

func (s *RegistrySuite) TestNotifyFullBufferIsDropped() {
	conn := newFakeConn()
	conn.full = true
	s.registry.Register("alice", conn)

	s.False(s.registry.Notify("alice", model.Notification{Event: model.EventAttackResult}))
	_, ok := s.registry.Lookup("alice")
	s.True(ok)
}

func (s *RegistrySuite) TestRemove() {
	s.registry.Register("alice", newFakeConn())
	s.registry.Remove("alice")
	_, ok := s.registry.Lookup("alice")
	s.False(ok)

	// Removing an absent player is a no-op
	s.registry.Remove("alice")
	s.Equal(0, s.registry.Count())
}

func (s *RegistrySuite) TestRemoveConnKeepsNewerSession() {
	old, current := newFakeConn(), newFakeConn()
	s.registry.Register("alice", old)
	s.registry.Register("alice", current)

	s.False(s.registry.RemoveConn("alice", old))
	got, ok := s.registry.Lookup("alice")
	s.True(ok)
	s.Same(current, got)

	s.True(s.registry.RemoveConn("alice", current))
	s.Equal(0, s.registry.Count())
}

func (s *RegistrySuite) TestConcurrentAccess() {
	const players = 50
	var wg sync.WaitGroup
	conns := make([]*fakeConn, players)
	for i := range players {
		conns[i] = newFakeConn()
	}

	for i := range players {
		wg.Add(3)
		pid := model.PlayerID(fmt.Sprintf("player-%d", i))
		go func() {
			defer wg.Done()
			s.registry.Register(pid, conns[i])
		}()
		go func() {
			defer wg.Done()
			s.registry.Notify(pid, model.Notification{Event: model.EventAttackResult})
		}()
		go func() {
			defer wg.Done()
			s.registry.Lookup(pid)
		}()
	}
	wg.Wait()

	s.Equal(players, s.registry.Count())
	for i := range players {
		s.True(s.registry.Notify(model.PlayerID(fmt.Sprintf("player-%d", i)), model.Notification{Event: model.EventGameOver}))
	}
}
