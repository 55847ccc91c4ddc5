// 23 Aug 2025

// Package hist draws the histogram that goes with a binning. It is a
// picture for a person to look at, not a plotting library, so there
// is one layout and a few knobs.
package hist

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"

	"github.com/andrew-torda/matrix"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/huwl404/NiLab/pkg/binning"
	"github.com/huwl404/NiLab/pkg/common"
)

// Columns of the per-bin statistics
const (
	StatCount = iota
	StatMean
	StatMin
	StatMax
	nStat
)

// Stats puts the count, mean, min and max of each bucket in one row
// of a matrix. Empty buckets have zeroes.
func Stats(r *binning.Result) *matrix.FMatrix2d {
	st := matrix.NewFMatrix2d(len(r.Buckets), nStat)
	for i, b := range r.Buckets {
		row := st.Mat[i]
		if len(b.Entries) == 0 {
			continue
		}
		lo, hi, sum := math.Inf(1), math.Inf(-1), 0.0
		for _, e := range b.Entries {
			lo, hi = min(lo, e.Val), max(hi, e.Val)
			sum += e.Val
		}
		row[StatCount] = float32(len(b.Entries))
		row[StatMean] = float32(sum / float64(len(b.Entries)))
		row[StatMin] = float32(lo)
		row[StatMax] = float32(hi)
	}
	return st
}

// Opts controls the picture.
type Opts struct {
	Title  string
	XLabel string
	Width  int  // pixels, 0 for the default
	Height int  // pixels, 0 for the default
	Cuts   bool // mark the inner edges with dashed lines
}

const (
	dfltWidth  = 1200
	dfltHeight = 600
	dpi        = 72
	fontSize   = 12
	marginL    = 80
	marginR    = 30
	marginT    = 50
	marginB    = 90
)

var (
	barColour  = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	cutColour  = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
	gridColour = color.RGBA{R: 0xdd, G: 0xdd, B: 0xdd, A: 0xff}
)

// painter keeps the image and the text context together.
type painter struct {
	img  *image.RGBA
	ctx  *freetype.Context
	face font.Face
}

func newPainter(w, h int) (*painter, error) {
	f, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("loading font: %w", err)
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	ctx := freetype.NewContext()
	ctx.SetDPI(dpi)
	ctx.SetFont(f)
	ctx.SetFontSize(fontSize)
	ctx.SetClip(img.Bounds())
	ctx.SetDst(img)
	ctx.SetSrc(image.Black)
	face := truetype.NewFace(f, &truetype.Options{Size: fontSize, DPI: dpi})
	return &painter{img: img, ctx: ctx, face: face}, nil
}

// textWidth is how many pixels s takes.
func (p *painter) textWidth(s string) int {
	return font.MeasureString(p.face, s).Round()
}

// text puts s with its baseline at y, centred on x.
func (p *painter) text(s string, x, y int, c color.Color) error {
	p.ctx.SetSrc(image.NewUniform(c))
	_, err := p.ctx.DrawString(s, freetype.Pt(x-p.textWidth(s)/2, y))
	return err
}

func (p *painter) rect(x0, y0, x1, y1 int, c color.Color) {
	draw.Draw(p.img, image.Rect(x0, y0, x1, y1), image.NewUniform(c), image.Point{}, draw.Src)
}

func (p *painter) vline(x, y0, y1 int, c color.Color, dash int) {
	for y := y0; y < y1; y++ {
		if dash == 0 || (y/dash)%2 == 0 {
			p.img.Set(x, y, c)
		}
	}
}

func (p *painter) hline(x0, x1, y int, c color.Color) {
	for x := x0; x < x1; x++ {
		p.img.Set(x, y, c)
	}
}

// Draw makes the picture. Bars run between the bucket edges, so with
// equal count binning they have different widths.
func Draw(r *binning.Result, o Opts) (*image.RGBA, error) {
	if len(r.Buckets) == 0 || len(r.Edges) != len(r.Buckets)+1 {
		return nil, fmt.Errorf("histogram needs buckets and edges: %w", common.ErrInvalidParam)
	}
	w, h := o.Width, o.Height
	if w == 0 {
		w = dfltWidth
	}
	if h == 0 {
		h = dfltHeight
	}
	if w <= marginL+marginR || h <= marginT+marginB {
		return nil, fmt.Errorf("picture %dx%d is too small: %w", w, h, common.ErrInvalidParam)
	}
	p, err := newPainter(w, h)
	if err != nil {
		return nil, err
	}
	st := Stats(r)
	var maxCount float32 = 1
	for _, row := range st.Mat {
		maxCount = max(maxCount, row[StatCount])
	}

	x0, x1 := marginL, w-marginR
	y0, y1 := marginT, h-marginB // y1 is the axis
	lo, hi := r.Edges[0], r.Edges[len(r.Edges)-1]
	span := hi - lo
	if span <= 0 {
		span = 1
	}
	xpos := func(v float64) int { return x0 + int(float64(x1-x0)*(v-lo)/span+0.5) }
	ypos := func(n float32) int { return y1 - int(float32(y1-y0-fontSize-4)*n/maxCount+0.5) }

	for _, frac := range []float32{0.25, 0.5, 0.75, 1} {
		y := ypos(frac * maxCount)
		p.hline(x0, x1, y, gridColour)
		if err := p.text(fmt.Sprintf("%.0f", frac*maxCount), x0-25, y+fontSize/2, color.Black); err != nil {
			return nil, err
		}
	}
	for i := range r.Buckets {
		bx0, bx1 := xpos(r.Edges[i]), xpos(r.Edges[i+1])
		n := st.Mat[i][StatCount]
		top := ypos(n)
		if bx1 > bx0 {
			p.rect(bx0, top, bx1, y1, color.Black)
			if bx1-bx0 > 2 && y1-top > 1 {
				p.rect(bx0+1, top+1, bx1-1, y1, barColour)
			}
		}
		if err := p.text(fmt.Sprintf("%d", int(n)), (bx0+bx1)/2, top-3, color.Black); err != nil {
			return nil, err
		}
	}
	p.hline(x0, x1, y1, color.Black)
	p.vline(x0, y0, y1, color.Black, 0)

	// Edge values go under the axis. Alternate rows so they do not
	// run into each other when the bins are narrow.
	for i, v := range r.Edges {
		x := xpos(v)
		if o.Cuts && i > 0 && i < len(r.Edges)-1 {
			p.vline(x, y0, y1, cutColour, 6)
		}
		p.vline(x, y1, y1+4, color.Black, 0)
		y := y1 + 4 + fontSize + (i%2)*(fontSize+2)
		if err := p.text(fmt.Sprintf("%.6f", v), x, y, cutColour); err != nil {
			return nil, err
		}
	}
	if err := p.text(o.XLabel, (x0+x1)/2, h-15, color.Black); err != nil {
		return nil, err
	}
	if err := p.text(o.Title, w/2, marginT/2+fontSize/2, color.Black); err != nil {
		return nil, err
	}
	if err := p.text("Particle Count", marginL/2, marginT-10, color.Black); err != nil {
		return nil, err
	}
	return p.img, nil
}

// WritePNG draws the picture and saves it.
func WritePNG(fname string, r *binning.Result, o Opts) error {
	img, err := Draw(r, o)
	if err != nil {
		return err
	}
	fp, err := os.Create(fname)
	if err != nil {
		return err
	}
	if err := png.Encode(fp, img); err != nil {
		fp.Close()
		return fmt.Errorf("writing %s: %w", fname, err)
	}
	return fp.Close()
}
