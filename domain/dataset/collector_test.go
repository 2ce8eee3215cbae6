package dataset

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soocke/pixel-tracker-go/domain/capture"
	"github.com/soocke/pixel-tracker-go/domain/tensor"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestCollector(t *testing.T) (*Collector, *clock, string) {
	dir := t.TempDir()
	c := NewCollector(dir, nil)
	clk := &clock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c.now = clk.now
	n := 0
	c.newID = func() string { n++; return "sample-" + string(rune('a'+n-1)) }
	return c, clk, dir
}

func frame(w, h int) *capture.Buffer {
	b := &capture.Buffer{Pix: make([]byte, w*h*4), Width: w, Height: h, Stride: w * 4, Format: capture.FormatBGRA}
	for i := 0; i < len(b.Pix); i += 4 {
		b.Pix[i], b.Pix[i+1], b.Pix[i+2], b.Pix[i+3] = 200, 100, 50, 255
	}
	return b
}

func TestLabel(t *testing.T) {
	d := tensor.Detection{X: 100, Y: 200, W: 40, H: 80}
	assert.Equal(t, "0 0.1875 0.375 0.0625 0.125", Label(d, 640, 640))
}

func TestCollector_SavesImageAndLabel(t *testing.T) {
	c, _, dir := newTestCollector(t)
	det := &tensor.Detection{X: 0, Y: 0, W: 8, H: 8}
	id, err := c.Save(frame(16, 16), det, Settings{CollectData: true, AutoLabel: true})
	require.NoError(t, err)
	require.Equal(t, "sample-a", id)

	img, err := imaging.Open(filepath.Join(dir, "images", id+".jpg"))
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())
	r, g, b, _ := color.NRGBAModel.Convert(img.At(8, 8)).(color.NRGBA).RGBA()
	assert.InDelta(t, 50, r>>8, 8, "red channel comes from BGRA byte 2")
	assert.InDelta(t, 100, g>>8, 8)
	assert.InDelta(t, 200, b>>8, 8)

	label, err := os.ReadFile(filepath.Join(dir, "labels", id+".txt"))
	require.NoError(t, err)
	assert.Equal(t, "0 0.25 0.25 0.5 0.5", string(label))
}

func TestCollector_RateLimited(t *testing.T) {
	c, clk, _ := newTestCollector(t)
	s := Settings{CollectData: true}
	id, _ := c.Save(frame(4, 4), nil, s)
	assert.NotEmpty(t, id)

	clk.t = clk.t.Add(499 * time.Millisecond)
	id, _ = c.Save(frame(4, 4), nil, s)
	assert.Empty(t, id)

	clk.t = clk.t.Add(time.Millisecond)
	id, _ = c.Save(frame(4, 4), nil, s)
	assert.NotEmpty(t, id)
	assert.EqualValues(t, 2, c.Saved())
}

func TestCollector_Suppressed(t *testing.T) {
	c, _, dir := newTestCollector(t)
	det := &tensor.Detection{W: 1, H: 1}

	id, _ := c.Save(frame(4, 4), det, Settings{CollectData: false})
	assert.Empty(t, id)
	id, _ = c.Save(frame(4, 4), det, Settings{CollectData: true, ConstantTracking: true})
	assert.Empty(t, id, "constant tracking suppresses collection")
	id, _ = c.Save(frame(4, 4), nil, Settings{CollectData: true, AutoLabel: true})
	assert.Empty(t, id, "unlabelled frames are skipped while auto-labelling")

	_, err := os.Stat(filepath.Join(dir, "images"))
	assert.True(t, os.IsNotExist(err), "directories are created on first save")
}

func TestCollector_NoLabelWithoutAutoLabel(t *testing.T) {
	c, _, dir := newTestCollector(t)
	id, err := c.Save(frame(4, 4), &tensor.Detection{W: 2, H: 2}, Settings{CollectData: true})
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "labels", id+".txt"))
	assert.True(t, os.IsNotExist(err))
}
