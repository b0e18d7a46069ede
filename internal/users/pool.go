// internal/users/pool.go
package users

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// ErrPoolExhausted is returned by Acquire when every user is already
// checked out. Callers must not wait for a release; scenarios run
// sequentially and an empty pool means the suite is misconfigured.
var ErrPoolExhausted = fmt.Errorf("user pool exhausted: all users are checked out")

// assignment records which scenario is holding a user.
type assignment struct {
	user   User
	heldBy string
}

// Pool hands out portal accounts to scenarios, one holder per user at a
// time. Acquire fails immediately when nothing is free.
type Pool struct {
	mu       sync.Mutex
	free     []User
	assigned map[string]assignment
	logger   *zap.Logger
}

// NewPool builds a pool over the loaded inventory.
func NewPool(inventory []User, logger *zap.Logger) *Pool {
	free := make([]User, len(inventory))
	copy(free, inventory)
	return &Pool{
		free:     free,
		assigned: make(map[string]assignment),
		logger:   logger.Named("user_pool"),
	}
}

// Acquire checks out the next free user for the named scenario. It never
// blocks: an empty pool returns ErrPoolExhausted at once.
func (p *Pool) Acquire(scenario string) (User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.free) == 0 {
		p.logger.Error("User pool exhausted.",
			zap.String("scenario", scenario),
			zap.Int("checked_out", len(p.assigned)))
		return User{}, ErrPoolExhausted
	}

	u := p.free[0]
	p.free = p.free[1:]
	p.assigned[u.ID] = assignment{user: u, heldBy: scenario}

	p.logger.Debug("User acquired.",
		zap.String("user_id", u.ID),
		zap.String("scenario", scenario),
		zap.Int("free", len(p.free)))
	return u, nil
}

// Release returns a user to the pool. Releasing an unassigned ID is a
// no-op; teardown paths may release twice.
func (p *Pool) Release(userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	a, ok := p.assigned[userID]
	if !ok {
		p.logger.Debug("Release of unassigned user ignored.", zap.String("user_id", userID))
		return
	}
	delete(p.assigned, userID)
	p.free = append(p.free, a.user)

	p.logger.Debug("User released.",
		zap.String("user_id", userID),
		zap.String("scenario", a.heldBy),
		zap.Int("free", len(p.free)))
}

// Available reports how many users are currently free.
func (p *Pool) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}

// Assignments returns a snapshot of current holders, sorted by user ID.
// Diagnostic output only.
func (p *Pool) Assignments() map[string]string {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make(map[string]string, len(p.assigned))
	for id, a := range p.assigned {
		out[id] = a.heldBy
	}
	return out
}

// IDs lists every user ID the pool was built with, free or assigned.
func (p *Pool) IDs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	ids := make([]string, 0, len(p.free)+len(p.assigned))
	for _, u := range p.free {
		ids = append(ids, u.ID)
	}
	for id := range p.assigned {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
