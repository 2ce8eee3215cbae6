package presenter

import "time"

// Loop aggregates presenters and drives periodic updates on the UI thread.
//
// It calls Tick on the sub-presenters and invokes a scheduler callback. The zero
// value is usable (methods are nil-safe).
type Loop struct {
	Status   *StatusPresenter
	Focus    *FocusPresenter
	Schedule func()
}

func NewLoop(status *StatusPresenter, focus *FocusPresenter, schedule func()) *Loop {
	return &Loop{Status: status, Focus: focus, Schedule: schedule}
}

func (l *Loop) Tick() {
	if l == nil {
		return
	}
	now := time.Now()
	if l.Status != nil {
		l.Status.Tick(now)
	}
	if l.Focus != nil {
		l.Focus.Tick(now)
	}
	if l.Schedule != nil {
		l.Schedule()
	}
}
