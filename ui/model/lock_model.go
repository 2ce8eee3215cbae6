package model

import (
	"time"
)

// LockModel tracks how long the current target lock has lasted and the accumulated
// locked time. It is decoupled from the UI; presenters poll Values() and update views.
// The zero value is ready to use.
type LockModel struct {
	locked       bool
	lockStart    time.Time
	lastDuration time.Duration
	accumulated  time.Duration
	locks        int
}

// NewLockModel returns a pointer to a ready-to-use LockModel.
func NewLockModel() *LockModel { return &LockModel{} }

// OnTick updates the model from whether a target is currently selected.
func (m *LockModel) OnTick(locked bool, now time.Time) {
	if m == nil {
		return
	}
	if locked {
		if !m.locked {
			m.locked = true
			m.lockStart = now
			m.lastDuration = 0
			m.locks++
		}
		m.lastDuration = now.Sub(m.lockStart)
	} else if m.locked {
		m.lastDuration = now.Sub(m.lockStart)
		m.accumulated += m.lastDuration
		m.locked = false
	}
}

// Values returns the current (or last) lock duration and the total locked time,
// including an ongoing lock.
func (m *LockModel) Values() (current, total time.Duration) {
	if m == nil {
		return 0, 0
	}
	current = m.lastDuration
	total = m.accumulated
	if m.locked {
		total += current
	}
	return
}

// Locks returns how many distinct locks were observed.
func (m *LockModel) Locks() int {
	if m == nil {
		return 0
	}
	return m.locks
}
