// Package dataset saves captured frames, optionally auto-labelled, for later training.
package dataset

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/soocke/pixel-tracker-go/domain/capture"
	"github.com/soocke/pixel-tracker-go/domain/tensor"
)

// MinInterval is the minimum spacing between two saved frames.
const MinInterval = 500 * time.Millisecond

// Settings are the per-cycle toggles that gate a save.
type Settings struct {
	CollectData      bool
	ConstantTracking bool
	AutoLabel        bool
}

// Collector writes <dir>/images/<id>.jpg and, when labelled, <dir>/labels/<id>.txt.
type Collector struct {
	dir    string
	logger *slog.Logger
	now    func() time.Time
	newID  func() string

	mu       sync.Mutex
	last     time.Time
	prepared bool
	saved    uint64
}

// NewCollector returns a collector rooted at dir.
func NewCollector(dir string, logger *slog.Logger) *Collector {
	if logger != nil {
		logger = logger.With("component", "dataset")
	}
	return &Collector{dir: dir, logger: logger, now: time.Now, newID: uuid.NewString}
}

// Save stores frame when collection is on and constant tracking is off, at most once
// per MinInterval. det is the selected detection in frame coordinates, or nil. A frame
// without a detection is only saved when auto-labelling is off. It returns the id of
// the saved sample, or "" when nothing was written.
func (c *Collector) Save(frame *capture.Buffer, det *tensor.Detection, s Settings) (string, error) {
	if !s.CollectData || s.ConstantTracking || frame == nil {
		return "", nil
	}
	if det == nil && s.AutoLabel {
		return "", nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if !c.last.IsZero() && now.Sub(c.last) < MinInterval {
		return "", nil
	}
	c.last = now

	if err := c.prepare(); err != nil {
		return "", err
	}
	id := c.newID()
	img := toNRGBA(frame)
	if err := imaging.Save(img, filepath.Join(c.dir, "images", id+".jpg"), imaging.JPEGQuality(90)); err != nil {
		return "", fmt.Errorf("save frame %s: %w", id, err)
	}
	if s.AutoLabel && det != nil {
		line := Label(*det, frame.Width, frame.Height)
		if err := os.WriteFile(filepath.Join(c.dir, "labels", id+".txt"), []byte(line), 0o644); err != nil {
			return "", fmt.Errorf("save label %s: %w", id, err)
		}
	}
	c.saved++
	if c.logger != nil {
		c.logger.Debug("dataset sample saved", "id", id, "labelled", s.AutoLabel && det != nil)
	}
	return id, nil
}

// Saved returns the number of samples written.
func (c *Collector) Saved() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saved
}

func (c *Collector) prepare() error {
	if c.prepared {
		return nil
	}
	for _, sub := range []string{"images", "labels"} {
		if err := os.MkdirAll(filepath.Join(c.dir, sub), 0o755); err != nil {
			return fmt.Errorf("create dataset dir: %w", err)
		}
	}
	c.prepared = true
	return nil
}

// Label formats a single-class label line "0 cx cy w h" normalized to the frame.
func Label(d tensor.Detection, frameW, frameH int) string {
	fw, fh := float64(frameW), float64(frameH)
	cx := (float64(d.X) + float64(d.W)/2) / fw
	cy := (float64(d.Y) + float64(d.H)/2) / fh
	w := float64(d.W) / fw
	h := float64(d.H) / fh
	return "0 " + ftoa(cx) + " " + ftoa(cy) + " " + ftoa(w) + " " + ftoa(h)
}

func ftoa(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// toNRGBA copies frame into an opaque image, reordering channels as needed.
func toNRGBA(b *capture.Buffer) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
	bpp := b.Format.BytesPerPixel()
	ri, bi := 2, 0
	if b.Format == capture.FormatRGBA {
		ri, bi = 0, 2
	}
	for y := 0; y < b.Height; y++ {
		src := b.Pix[y*b.Stride : y*b.Stride+b.Width*bpp]
		dst := img.Pix[y*img.Stride : y*img.Stride+b.Width*4]
		for x := 0; x < b.Width; x++ {
			p := src[x*bpp:]
			dst[x*4] = p[ri]
			dst[x*4+1] = p[1]
			dst[x*4+2] = p[bi]
			dst[x*4+3] = 0xFF
		}
	}
	return img
}
