package presenter

import (
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soocke/pixel-tracker-go/config"
	"github.com/soocke/pixel-tracker-go/domain/loop"
	"github.com/soocke/pixel-tracker-go/ui/model"
)

type fakeStatusView struct {
	fps      []string
	targets  []string
	capture  string
	infer    string
	backends int
	lockCur  time.Duration
	lockTot  time.Duration
}

func (v *fakeStatusView) SetFPS(text string)    { v.fps = append(v.fps, text) }
func (v *fakeStatusView) SetTarget(text string) { v.targets = append(v.targets, text) }
func (v *fakeStatusView) SetBackends(c, i string) {
	v.capture, v.infer = c, i
	v.backends++
}
func (v *fakeStatusView) SetLock(cur, total time.Duration) { v.lockCur, v.lockTot = cur, total }

var _ StatusView = (*fakeStatusView)(nil)

type fakeInfo struct{ capture, infer string }

func (i *fakeInfo) CaptureBackend() string   { return i.capture }
func (i *fakeInfo) InferenceBackend() string { return i.infer }

func TestPublisher_LatestWins(t *testing.T) {
	p := NewPublisher()
	_, ok := p.Drain()
	assert.False(t, ok)

	p.FPS(60)
	p.Overlay(loop.OverlayState{Box: image.Rect(0, 0, 10, 10), Confidence: 0.5})
	p.FPS(120)
	p.Target(3, 4)

	s, ok := p.Drain()
	require.True(t, ok)
	assert.Equal(t, 120.0, s.FPS)
	assert.True(t, s.HasTarget)
	assert.Equal(t, image.Pt(3, 4), s.Aim)
	assert.EqualValues(t, 4, s.Seq)

	_, ok = p.Drain()
	assert.False(t, ok, "nothing new since the last drain")

	p.ClearOverlay()
	s, ok = p.Drain()
	require.True(t, ok)
	assert.False(t, s.HasTarget)
	assert.Equal(t, 120.0, s.FPS, "clearing keeps unrelated fields")
}

func TestPublisher_NeverBlocksConcurrentWriters(t *testing.T) {
	p := NewPublisher()
	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				p.Target(i, i)
			}
		}()
	}
	wg.Wait()
	s, ok := p.Drain()
	require.True(t, ok)
	assert.EqualValues(t, 4000, s.Seq)
}

func TestStatusPresenter_Tick(t *testing.T) {
	pub := NewPublisher()
	view := &fakeStatusView{}
	info := &fakeInfo{capture: "dxgi", infer: "cuda"}
	p := NewStatusPresenter(pub, view, model.NewLockModel(), info)
	base := time.Unix(100, 0)

	pub.FPS(143.5)
	pub.Overlay(loop.OverlayState{Box: image.Rect(10, 20, 30, 40), Confidence: 0.875, ShowConfidence: true})
	p.Tick(base)
	assert.Equal(t, []string{"FPS: 143.50"}, view.fps)
	assert.Equal(t, []string{"Target: (20,30) 87.50%"}, view.targets)
	assert.Equal(t, "dxgi", view.capture)
	assert.Equal(t, "cuda", view.infer)

	p.Tick(base.Add(2 * time.Second))
	assert.Len(t, view.targets, 1, "no new status, no redraw")
	assert.Equal(t, 2*time.Second, view.lockCur)
	assert.Equal(t, 1, view.backends, "unchanged backends are not re-rendered")

	info.capture = "screenshot"
	pub.ClearOverlay()
	p.Tick(base.Add(3 * time.Second))
	assert.Equal(t, "Target: <searching>", view.targets[1])
	assert.Equal(t, 3*time.Second, view.lockTot)
	assert.Equal(t, "screenshot", view.capture)
	assert.Len(t, view.fps, 1, "fps unchanged")
}

func TestFormatFPS(t *testing.T) {
	assert.Equal(t, "FPS: --", FormatFPS(0))
	assert.Equal(t, "FPS: 60.00", FormatFPS(60))
}

type fakeToggleView struct{ states map[model.Feature]bool }

func (v *fakeToggleView) SetToggle(f model.Feature, on bool) { v.states[f] = on }

func TestTogglePresenter_FlipsAndPersists(t *testing.T) {
	store := config.NewStore(config.DefaultSnapshot())
	view := &fakeToggleView{states: map[model.Feature]bool{}}
	var saved []*config.Snapshot
	p := NewTogglePresenter(store, view, func(s *config.Snapshot) error {
		saved = append(saved, s)
		return nil
	}, nil)

	p.Sync()
	assert.Len(t, view.states, len(model.Features))
	assert.False(t, view.states[model.FeatureAimAssist])

	assert.True(t, p.Toggle(model.FeatureAimAssist))
	assert.True(t, store.Load().AimAssist)
	assert.True(t, view.states[model.FeatureAimAssist])
	require.Len(t, saved, 1)
	assert.True(t, saved[0].AimAssist)

	assert.True(t, p.Toggle(model.FeaturePredictions))
	assert.False(t, p.Toggle(model.FeatureAimAssist))
	assert.False(t, store.Load().AimAssist)
	assert.True(t, store.Load().Predictions)
}

func TestTogglePresenter_SaveErrorKeepsToggle(t *testing.T) {
	store := config.NewStore(config.DefaultSnapshot())
	p := NewTogglePresenter(store, nil, func(*config.Snapshot) error { return errors.New("disk full") }, nil)
	assert.True(t, p.Toggle(model.FeatureOverlay))
	assert.True(t, store.Load().ShowOverlay)
}

type fakeFocusView struct{ titles []string }

func (v *fakeFocusView) SetFocus(title string) { v.titles = append(v.titles, title) }

func TestFocusPresenter_ReportsChangesOnly(t *testing.T) {
	view := &fakeFocusView{}
	title := "Game"
	calls := 0
	p := NewFocusPresenter(view, nil, func() (string, error) { calls++; return title, nil })
	base := time.Unix(0, 0)

	p.Tick(base)
	p.Tick(base.Add(100 * time.Millisecond))
	assert.Equal(t, 1, calls, "polled at most once per interval")

	p.Tick(base.Add(300 * time.Millisecond))
	title = "Browser"
	p.Tick(base.Add(600 * time.Millisecond))
	title = ""
	p.Tick(base.Add(900 * time.Millisecond))
	assert.Equal(t, []string{"Game", "Browser", "<none>"}, view.titles)
}

func TestFocusPresenter_ErrorIsQuiet(t *testing.T) {
	view := &fakeFocusView{}
	p := NewFocusPresenter(view, nil, func() (string, error) { return "", errors.New("unsupported") })
	p.Tick(time.Unix(0, 0))
	assert.Empty(t, view.titles)
}

func TestLoop_TickIsNilSafe(t *testing.T) {
	var l *Loop
	assert.NotPanics(t, l.Tick)
	scheduled := 0
	l = NewLoop(nil, nil, func() { scheduled++ })
	l.Tick()
	assert.Equal(t, 1, scheduled)
}
