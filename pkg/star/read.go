// 20 Aug 2025

package star

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/huwl404/NiLab/pkg/common"
	"github.com/huwl404/NiLab/pkg/slurp"
)

const (
	cmmtChar  = '#'
	maxLineSz = 4 * 1024 * 1024 // a line longer than this is not a STAR file
)

// lineScanner is a wrapper around bufio.Scanner that jumps over blank
// lines and comments and removes leading and trailing white space.
// It counts lines so we can print the line number in error messages.
// Comment lines before the first block are given to hdr, since they
// have to be written back out.
type lineScanner struct {
	*bufio.Scanner
	line  string // current line, trimmed. Empty means end of input
	n     int    // line number
	ioErr error // set if the underlying reader failed
	hdr   func(string)
}

func newLineScanner(r io.Reader) lineScanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), maxLineSz)
	return lineScanner{Scanner: s}
}

// scan moves to the next interesting line. It returns false at the
// end of input or on an error.
func (s *lineScanner) scan() bool {
	for s.Scan() {
		s.n++
		t := strings.TrimSpace(s.Text())
		if len(t) == 0 {
			continue
		}
		if t[0] == cmmtChar {
			if s.hdr != nil {
				s.hdr(s.Text())
			}
			continue
		}
		s.line = t
		return true
	}
	s.line = ""
	s.ioErr = s.Err()
	return false
}

// hasPrefixFold is strings.HasPrefix, ignoring case.
func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func isData(s string) bool { return hasPrefixFold(s, "data_") }
func isLoop(s string) bool { return hasPrefixFold(s, "loop_") }

// isSpecial returns true if the line is not simply more of a table.
// Usually this means there is a new directive coming.
// End of input is also special, so a caller knows it has to stop.
func isSpecial(s string) bool {
	switch {
	case s == "":
		return true
	case s[0] == '_':
		return true
	case isLoop(s), isData(s):
		return true
	}
	return false
}

// colName takes a header line like "_rlnImageName #3" and gives back
// "rlnImageName".
func colName(s string) string {
	f := strings.Fields(s)[0]
	if i := strings.IndexByte(f, cmmtChar); i != -1 {
		f = f[:i]
	}
	return strings.TrimPrefix(f, "_")
}

// Reader holds the state while reading one STAR file.
type Reader struct {
	lineScanner
	src     string
	doc     *Document
	cur     *Block
	warn    common.Warner
	skipped []error
	err     error
}

// NewReader returns a reader for STAR text from r.
func NewReader(r io.Reader) *Reader {
	rdr := &Reader{lineScanner: newLineScanner(r), doc: new(Document)}
	rdr.hdr = func(s string) {
		if rdr.cur == nil {
			rdr.doc.Header = append(rdr.doc.Header, strings.TrimRight(s, " \t\r"))
		}
	}
	return rdr
}

// SetSrc gives a name, usually the file name, for messages.
func (rdr *Reader) SetSrc(src string) { rdr.src = src }

// SetWarn sets a function to be told about every skipped line.
// Without it, skipped lines are only collected.
func (rdr *Reader) SetWarn(w common.Warner) { rdr.warn = w }

// Skipped returns the lines that were skipped as malformed. They are
// all *common.RowError.
func (rdr *Reader) Skipped() []error { return rdr.skipped }

// fail stores a structural problem. We stop after the first.
func (rdr *Reader) fail(desc string) {
	if rdr.err == nil {
		rdr.err = &ReadError{Src: rdr.src, N: rdr.n, Line: rdr.line, Desc: desc}
	}
}

// skip notes a malformed line and carries on.
func (rdr *Reader) skip(desc string) {
	e := &common.RowError{Src: rdr.src, N: rdr.n, Line: rdr.line, Desc: desc}
	rdr.skipped = append(rdr.skipped, e)
	if rdr.warn != nil {
		rdr.warn("%v", e)
	}
}

// stateFn is the type of state function. It returns the next
// state function that should act on its input.
type stateFn func(*Reader) stateFn

// stateTop looks at the current line and decides where to go next.
func stateTop(rdr *Reader) stateFn {
	s := rdr.line
	switch {
	case s == "":
		return nil
	case isData(s):
		return stateData
	case rdr.cur == nil:
		rdr.fail("text before the first data_ line")
		return nil
	case isLoop(s):
		return stateLoop
	case s[0] == '_':
		return stateItem
	}
	rdr.skip(fmt.Sprintf("not a _key value line in block data_%s", rdr.cur.Name))
	rdr.scan()
	return stateTop
}

// stateData opens a new block. The name is whatever follows data_ up
// to the first white space, and may be empty.
func stateData(rdr *Reader) stateFn {
	name := strings.Fields(rdr.line)[0][len("data_"):]
	rdr.cur = &Block{Name: name}
	rdr.doc.Blocks = append(rdr.doc.Blocks, rdr.cur)
	rdr.scan()
	return stateTop
}

// stateLoop is where you are if you have a loop directive.
// A block holds one table or a set of items, never both.
func stateLoop(rdr *Reader) stateFn {
	if rdr.cur.Loop || len(rdr.cur.Items) > 0 {
		rdr.fail("second loop_ or loop_ after items in block data_" + rdr.cur.Name)
		return nil
	}
	rdr.cur.Loop = true
	rdr.scan()
	return stateLoopHdr
}

// stateLoopHdr collects the column names after a loop_.
func stateLoopHdr(rdr *Reader) stateFn {
	for rdr.line != "" && rdr.line[0] == '_' {
		rdr.cur.Cols = append(rdr.cur.Cols, colName(rdr.line))
		rdr.scan()
	}
	if len(rdr.cur.Cols) == 0 {
		if rdr.err == nil {
			rdr.err = &ColumnError{Block: rdr.cur.Name}
		}
		return nil
	}
	return stateLoopTable
}

// stateLoopTable reads rows until something special turns up.
// Rows with the wrong number of tokens are skipped.
func stateLoopTable(rdr *Reader) stateFn {
	ncol := len(rdr.cur.Cols)
	for !isSpecial(rdr.line) {
		t := strings.Fields(rdr.line)
		if len(t) != ncol {
			rdr.skip(fmt.Sprintf("%d tokens, but block data_%s has %d columns", len(t), rdr.cur.Name, ncol))
		} else {
			rdr.cur.Rows = append(rdr.cur.Rows, Row(t))
		}
		rdr.scan()
	}
	return stateTop
}

// stateItem gets a "_key value" line. The value is the rest of the
// line and may have spaces in it.
func stateItem(rdr *Reader) stateFn {
	if rdr.cur.Loop {
		rdr.fail("_key item after the loop_ in block data_" + rdr.cur.Name)
		return nil
	}
	key := strings.Fields(rdr.line)[0]
	val := strings.TrimSpace(rdr.line[len(key):])
	key = strings.TrimPrefix(key, "_")
	if _, dup := rdr.cur.Item(key); dup {
		rdr.skip("repeated key _" + key + " in block data_" + rdr.cur.Name)
	} else {
		rdr.cur.Items = append(rdr.cur.Items, Item{Key: key, Val: val})
	}
	rdr.scan()
	return stateTop
}

// Read parses the whole input.
func (rdr *Reader) Read() (*Document, error) {
	rdr.scan()
	for state := stateTop; state != nil && rdr.err == nil; {
		state = state(rdr)
	}
	// A failing reader hands over the partial line first, which can
	// stop us with a parse error before scan sees the failure.
	if rdr.ioErr == nil {
		rdr.ioErr = rdr.Scanner.Err()
	}
	if rdr.ioErr != nil {
		if rdr.src == "" {
			return nil, rdr.ioErr
		}
		return nil, fmt.Errorf("reading %s: %w", rdr.src, rdr.ioErr)
	}
	if rdr.err != nil {
		return nil, rdr.err
	}
	return rdr.doc, nil
}

// Parse reads a document from a string. Skipped lines are lost, so
// this is mostly for tests and small literals.
func Parse(s string) (*Document, error) {
	return NewReader(strings.NewReader(s)).Read()
}

// ReadFile reads a STAR file, possibly compressed. warn is told about
// skipped lines and may be nil.
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
