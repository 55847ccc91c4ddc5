// 30 Sep 2025

// Package star2lst turns a RELION 3.1 particle STAR file into an
// EMAN2 list that Jalign can read.
package star2lst

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/huwl404/NiLab/pkg/common"
	"github.com/huwl404/NiLab/pkg/lst"
	"github.com/huwl404/NiLab/pkg/star"
)

// CmdFlag is the command line after parsing
type CmdFlag struct {
	Star string
	Lst  string // output, defaults to the star file's stem with .lst
}

// optics is what we need from one row of data_optics.
type optics struct {
	voltage, cs, ampcont, apix, box float64
}

var opticsCols = []string{
	"rlnVoltage", "rlnSphericalAberration", "rlnAmplitudeContrast",
	"rlnImagePixelSize", "rlnImageSize",
}

// rowReader reads numbers out of one table, complaining with the row
// number and column name.
type rowReader struct {
	b   *star.Block
	ndx map[string]int
}

func newRowReader(b *star.Block, cols ...string) (rowReader, error) {
	rr := rowReader{b: b, ndx: make(map[string]int, len(cols))}
	for _, c := range cols {
		i, err := b.Col(c)
		if err != nil {
			return rr, err
		}
		rr.ndx[c] = i
	}
	return rr, nil
}

func (rr rowReader) float(i int, col string) (float64, error) {
	s := rr.b.Rows[i][rr.ndx[col]]
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("block data_%s row %d: %s \"%s\" is not a number: %w", rr.b.Name, i+1, col, s, common.ErrMalformedRow)
	}
	return v, nil
}

func (rr rowReader) str(i int, col string) string { return rr.b.Rows[i][rr.ndx[col]] }

// readOptics collects the parameters for each optics group.
func readOptics(b *star.Block) (map[string]optics, error) {
	rr, err := newRowReader(b, append([]string{"rlnOpticsGroup"}, opticsCols...)...)
	if err != nil {
		return nil, err
	}
	ret := make(map[string]optics, b.NRow())
	for i := range b.Rows {
		var v [5]float64
		for j, c := range opticsCols {
			if v[j], err = rr.float(i, c); err != nil {
				return nil, err
			}
		}
		if v[3] <= 0 {
			return nil, fmt.Errorf("block data_%s row %d: pixel size %g: %w", b.Name, i+1, v[3], common.ErrInvalidParam)
		}
		ret[rr.str(i, "rlnOpticsGroup")] = optics{v[0], v[1], v[2], v[3], v[4]}
	}
	return ret, nil
}

// mod360 is x mod 360, never negative.
func mod360(x float64) float64 {
	x = math.Mod(x, 360)
	if x < 0 {
		x += 360
	}
	return x
}

// Euler changes RELION's ZYZ (rot, tilt, psi) to EMAN's (az, alt, phi).
func Euler(rot, tilt, psi float64) (az, alt, phi float64) {
	return mod360(rot + 90), tilt, mod360(psi - 90)
}

// Defocus turns RELION's defocus U, V in Angstrom and angle in degrees
// into EMAN's mean defocus and half difference in microns. EMAN wants
// the angle of the larger defocus.
func Defocus(dfu, dfv, ang float64) (defocus, dfdiff, dfang float64) {
	dfu, dfv = dfu/1e4, dfv/1e4
	defocus = (dfu + dfv) / 2
	dfdiff = math.Abs(dfu-dfv) / 2
	if dfu > dfv {
		ang = mod360(ang + 90)
	}
	return defocus, dfdiff, ang
}

// originKind says where a particle's shift comes from.
type originKind uint8

const (
	noOrigin originKind = iota
	angstOrigin
	pixelOrigin
)

func whichOrigin(b *star.Block) originKind {
	switch {
	case b.Has("rlnOriginXAngst") && b.Has("rlnOriginYAngst"):
		return angstOrigin
	case b.Has("rlnOriginX") && b.Has("rlnOriginY"):
		return pixelOrigin
	}
	return noOrigin
}

func f6(x float64) string { return strconv.FormatFloat(x, 'f', 6, 64) }

// Convert makes one list record per particle. Pixel origins are
// converted with the pixel size of the particle's own optics group.
func Convert(doc *star.Document, warn common.Warner) (*lst.Document, error) {
	ob, err := doc.Need("optics")
	if err != nil {
		return nil, err
	}
	groups, err := readOptics(ob)
	if err != nil {
		return nil, err
	}
	pb, err := doc.Need("particles")
	if err != nil {
		return nil, err
	}
	cols := []string{"rlnImageName", "rlnOpticsGroup", "rlnAngleRot", "rlnAngleTilt",
		"rlnAnglePsi", "rlnDefocusU", "rlnDefocusV", "rlnDefocusAngle"}
	okind := whichOrigin(pb)
	var ox, oy string
	switch okind {
	case angstOrigin:
		ox, oy = "rlnOriginXAngst", "rlnOriginYAngst"
	case pixelOrigin:
		ox, oy = "rlnOriginX", "rlnOriginY"
	default:
		warn("no origin columns in block data_%s, using (0,0)", pb.Name)
	}
	if okind != noOrigin {
		cols = append(cols, ox, oy)
	}
	rr, err := newRowReader(pb, cols...)
	if err != nil {
		return nil, err
	}
	out := &lst.Document{Header: []string{lst.Magic}, Recs: make([]lst.Record, 0, pb.NRow())}
	for i := range pb.Rows {
		ndx, path, err := lst.ParseTag(rr.str(i, "rlnImageName"))
		if err != nil {
			return nil, fmt.Errorf("block data_%s row %d: %w", pb.Name, i+1, err)
		}
		og := rr.str(i, "rlnOpticsGroup")
		opt, ok := groups[og]
		if !ok {
			return nil, fmt.Errorf("block data_%s row %d: optics group %s is not in data_%s: %w",
				pb.Name, i+1, og, ob.Name, common.ErrXrefMismatch)
		}
		var v [8]float64 // rot tilt psi dfu dfv dfang originx originy
		for j, c := range cols[2:] {
			if v[j], err = rr.float(i, c); err != nil {
				return nil, err
			}
		}
		if okind == pixelOrigin {
			v[6], v[7] = v[6]*opt.apix, v[7]*opt.apix
		}
		az, alt, phi := Euler(v[0], v[1], v[2])
		x := -v[6]/opt.apix + opt.box/2
		y := -v[7]/opt.apix + opt.box/2
		defocus, dfdiff, dfang := Defocus(v[3], v[4], v[5])
		out.Recs = append(out.Recs, lst.Record{Ndx: ndx, Path: path, Fields: []lst.Field{
			{Key: "euler", Val: strings.Join([]string{f6(alt), f6(az), f6(phi)}, ",")},
			{Key: "center", Val: f6(x) + "," + f6(y)},
			{Key: "voltage", Val: f6(opt.voltage)},
			{Key: "cs", Val: f6(opt.cs)},
			{Key: "apix", Val: f6(opt.apix)},
			{Key: "ampcont", Val: f6(opt.ampcont * 100)},
			{Key: "defocus", Val: f6(defocus)},
			{Key: "dfdiff", Val: f6(dfdiff)},
			{Key: "dfang", Val: f6(dfang)},
		}})
	}
	return out, nil
}

// DefaultOutput is the input's name, without directory, ending in .lst.
func DefaultOutput(starfile string) string {
	base := filepath.Base(starfile)
	for _, z := range []string{".gz", ".zst", ".xz"} {
		base = strings.TrimSuffix(base, z)
	}
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".lst"
}

// Mymain does the work after the command line has been parsed.
func Mymain(flags *CmdFlag) error {
	if flags.Star == "" {
		return fmt.Errorf("no star file given: %w", common.ErrInvalidParam)
	}
	lstfile := flags.Lst
	if lstfile == "" {
		lstfile = DefaultOutput(flags.Star)
	}
	fmt.Println("Reading STAR file:", flags.Star)
	fmt.Println("Generating LST file:", lstfile)
	doc, err := star.ReadFile(flags.Star, common.Warnf)
	if err != nil {
		return err
	}
	out, err := Convert(doc, common.Warnf)
	if err != nil {
		return fmt.Errorf("%s: %w", flags.Star, err)
	}
	if err := lst.WriteFile(lstfile, out); err != nil {
		return err
	}
	fmt.Printf("Wrote %d particles to %s\n", len(out.Recs), lstfile)
	return nil
}
