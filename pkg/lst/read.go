// 21 Aug 2025

package lst

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/huwl404/NiLab/pkg/common"
	"github.com/huwl404/NiLab/pkg/slurp"
)

const maxLineSz = 1024 * 1024

// Reader reads one list.
type Reader struct {
	scnr    *bufio.Scanner
	src     string
	warn    common.Warner
	skipped []error
}

// NewReader returns a reader for list text from r.
func NewReader(r io.Reader) *Reader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), maxLineSz)
	return &Reader{scnr: s}
}

// SetSrc gives a name for messages.
func (rdr *Reader) SetSrc(src string) { rdr.src = src }

// SetWarn sets a function to hear about skipped lines and tokens.
func (rdr *Reader) SetWarn(w common.Warner) { rdr.warn = w }

// Skipped returns the complaints, all *common.RowError.
func (rdr *Reader) Skipped() []error { return rdr.skipped }

func (rdr *Reader) skip(n int, line, desc string) {
	e := &common.RowError{Src: rdr.src, N: n, Line: line, Desc: desc}
	rdr.skipped = append(rdr.skipped, e)
	if rdr.warn != nil {
		rdr.warn("%v", e)
	}
}

// Read gets the whole list. Lines we cannot use are skipped with a
// warning. Only a failing reader gives an error.
func (rdr *Reader) Read() (*Document, error) {
	doc := new(Document)
	for n := 1; rdr.scnr.Scan(); n++ {
		raw := rdr.scnr.Text()
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if line[0] == '#' {
			doc.Header = append(doc.Header, strings.TrimRight(raw, " \t\r"))
			continue
		}
		if rec, ok := rdr.record(n, line); ok {
			doc.Recs = append(doc.Recs, rec)
		}
	}
	if err := rdr.scnr.Err(); err != nil {
		if rdr.src == "" {
			return nil, err
		}
		return nil, fmt.Errorf("reading %s: %w", rdr.src, err)
	}
	return doc, nil
}

// record breaks up one line.
func (rdr *Reader) record(n int, line string) (Record, bool) {
	t := strings.Fields(line)
	ndx, err := strconv.Atoi(t[0])
	if err != nil {
		rdr.skip(n, line, "first token is not an integer")
		return Record{}, false
	}
	if ndx < 0 {
		rdr.skip(n, line, "negative image number")
		return Record{}, false
	}
	if len(t) < 2 {
		rdr.skip(n, line, "no path after the image number")
		return Record{}, false
	}
	rec := Record{Ndx: ndx, Path: t[1]}
	for _, tok := range t[2:] {
		k, v, ok := strings.Cut(tok, "=")
		if !ok || k == "" {
			rdr.skip(n, line, "ignoring token \""+tok+"\" without key=")
			continue
		}
		rec.Fields = append(rec.Fields, Field{Key: k, Val: v})
	}
	return rec, true
}

// Parse reads a list from a string.
func Parse(s string) (*Document, error) {
	return NewReader(strings.NewReader(s)).Read()
}

// ReadFile reads a list file, possibly compressed. warn may be nil.
func ReadFile(fname string, warn common.Warner) (*Document, error) {
	var doc *Document
	err := slurp.File(fname, func(r io.Reader) error {
		rdr := NewReader(r)
		rdr.SetSrc(fname)
		rdr.SetWarn(warn)
		var err error
		doc, err = rdr.Read()
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}
