package executor

import (
	"sync"
	"time"

	"github.com/joeycumines/passgen/internal/intent"
	"github.com/joeycumines/passgen/internal/passing"
)

// Entry is the latest state recorded for one robot.
type Entry struct {
	RobotID uint
	Tactic  string
	// Ticks counts the intents produced for the robot. Intent is the latest,
	// recorded before it is handed to the Dispatcher.
	Ticks  uint64
	Intent intent.Intent
	// Pass and Score are the best pass seen by the tactic, if it reports one.
	Pass    passing.Pass
	Score   float64
	HasPass bool
	Updated time.Time
}

// Blackboard is a thread-safe store of the latest Entry per robot, shared
// between the tickers that write it and the Dispatcher reading it.
//
// The zero value is ready to use.
type Blackboard struct {
	mu   sync.RWMutex
	data map[uint]Entry
}

// Get returns the entry for robot id.
func (b *Blackboard) Get(id uint) (Entry, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	e, ok := b.data[id]
	return e, ok
}

// Set stores e under e.RobotID.
func (b *Blackboard) Set(e Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.data == nil {
		b.data = make(map[uint]Entry)
	}
	b.data[e.RobotID] = e
}

// Update applies fn to the entry for robot id, creating it if needed.
func (b *Blackboard) Update(id uint, fn func(*Entry)) Entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.data == nil {
		b.data = make(map[uint]Entry)
	}
	e, ok := b.data[id]
	if !ok {
		e.RobotID = id
	}
	fn(&e)
	e.RobotID = id
	b.data[id] = e
	return e
}
