package view

import (
	"fmt"
	"time"

	//lint:ignore ST1001 Dot import for concise Tk widget DSL.
	. "modernc.org/tk9.0"
)

// LockStats shows the current target lock and the accumulated locked time.
type LockStats interface {
	SetLock(current, total time.Duration)
}

type lockStats struct {
	currentLbl *LabelWidget
	totalLbl   *LabelWidget
}

// NewLockStats creates the two labels at (row, startCol) and (row, startCol+1).
// If parent is nil, labels are positioned relative to the App root.
func NewLockStats(parent *FrameWidget, row, startCol int) LockStats {
	s := &lockStats{currentLbl: Label(Width(16)), totalLbl: Label(Width(16))}
	for i, lbl := range []*LabelWidget{s.currentLbl, s.totalLbl} {
		if parent != nil {
			Grid(lbl, In(parent), Row(row), Column(startCol+i), Sticky("w"), Padx("0.2m"))
		} else {
			Grid(lbl, Row(row), Column(startCol+i), Sticky("w"), Padx("0.2m"))
		}
	}
	s.SetLock(0, 0)
	return s
}

// SetLock updates both labels.
func (s *lockStats) SetLock(current, total time.Duration) {
	if s == nil || s.currentLbl == nil {
		return
	}
	s.currentLbl.Configure(Txt("Lock: " + clock(current)))
	s.totalLbl.Configure(Txt("Locked: " + clock(total)))
}

func clock(d time.Duration) string {
	seconds := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
