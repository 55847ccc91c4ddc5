// 26 Sep 2025

// Package renumber rewrites the numbers buried in names like
// "opticsGroup12" or "og_7". After deleting or splitting optics
// groups, the survivors are numbered from 1 again, in the order they
// first turn up, and the same mapping has to go to every block and
// file that refers to them.
package renumber

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/huwl404/NiLab/pkg/star"
)

const defaultWidth = 80

// digitRun finds the first run of ASCII digits. end is -1 if there is
// none.
func digitRun(s string) (start, end int) {
	start = -1
	for i := 0; i < len(s); i++ {
		isDigit := s[i] >= '0' && s[i] <= '9'
		switch {
		case isDigit && start == -1:
			start = i
		case !isDigit && start != -1:
			return start, i
		}
	}
	if start == -1 {
		return -1, -1
	}
	return start, len(s)
}

// ExtractID returns the number in the first run of digits in s. There
// is no ID if there are no digits, or far too many.
func ExtractID(s string) (int, bool) {
	start, end := digitRun(s)
	if end == -1 {
		return 0, false
	}
	n, err := strconv.Atoi(s[start:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// ReplaceID puts id in place of the first run of digits. Without
// digits, s comes back as it was.
func ReplaceID(s string, id int) string {
	start, end := digitRun(s)
	if end == -1 {
		return s
	}
	return s[:start] + strconv.Itoa(id) + s[end:]
}

// Mapping takes old IDs to 1..N.
type Mapping struct {
	olds []int // in order of first appearance
	m    map[int]int
}

// Build numbers the IDs found in values from 1, in the order they
// first appear. Values without an ID are ignored.
func Build(values []string, extract func(string) (int, bool)) *Mapping {
	mp := &Mapping{m: make(map[int]int)}
	for _, s := range values {
		old, ok := extract(s)
		if !ok {
			continue
		}
		if _, seen := mp.m[old]; !seen {
			mp.olds = append(mp.olds, old)
			mp.m[old] = len(mp.olds)
		}
	}
	return mp
}

// FromColumn builds a mapping from the names in one column of a table.
func FromColumn(b *star.Block, col string) (*Mapping, error) {
	vals, err := b.Column(col)
	if err != nil {
		return nil, err
	}
	return Build(vals, ExtractID), nil
}

// Get returns the new ID for an old one.
func (mp *Mapping) Get(old int) (int, bool) {
	n, ok := mp.m[old]
	return n, ok
}

// Len is the number of IDs.
func (mp *Mapping) Len() int { return len(mp.olds) }

// Olds gives the old IDs in the order they were numbered.
func (mp *Mapping) Olds() []int {
	ret := make([]int, len(mp.olds))
	copy(ret, mp.olds)
	return ret
}

// Name rewrites the ID inside a name. Names whose ID we do not know
// are left alone.
func (mp *Mapping) Name(s string) string {
	old, ok := ExtractID(s)
	if !ok {
		return s
	}
	n, ok := mp.m[old]
	if !ok {
		return s
	}
	return ReplaceID(s, n)
}

// Int rewrites a field that is nothing but an integer.
func (mp *Mapping) Int(s string) string {
	old, err := strconv.Atoi(s)
	if err != nil {
		return s
	}
	if n, ok := mp.m[old]; ok {
		return strconv.Itoa(n)
	}
	return s
}

// ApplyName returns a copy of the table with the names in col renumbered.
func ApplyName(b *star.Block, col string, mp *Mapping) (*star.Block, error) {
	return b.MapCol(col, mp.Name)
}

// ApplyInt returns a copy of the table with the integers in col renumbered.
func ApplyInt(b *star.Block, col string, mp *Mapping) (*star.Block, error) {
	return b.MapCol(col, mp.Int)
}

// Table prints the mapping as three lines, old IDs over a row of "|"
// over the new IDs, starting new groups of three lines so nothing is
// wider than width.
func (mp *Mapping) Table(w io.Writer, width int) error {
	if width <= 0 {
		width = defaultWidth
	}
	olds := make([]string, len(mp.olds))
	news := make([]string, len(mp.olds))
	colw := make([]int, len(mp.olds))
	for i, old := range mp.olds {
		olds[i] = strconv.Itoa(old)
		news[i] = strconv.Itoa(mp.m[old])
		colw[i] = max(len(olds[i]), len(news[i]))
	}
	pad := func(s []string, start, end int) string {
		t := make([]string, 0, end-start)
		for i := start; i < end; i++ {
			t = append(t, fmt.Sprintf("%*s", colw[i], s[i]))
		}
		return strings.Join(t, " ")
	}
	pipes := make([]string, len(mp.olds))
	for i := range pipes {
		pipes[i] = "|"
	}
	for start := 0; start < len(olds); {
		end, cur := start, 0
		for end < len(olds) {
			next := colw[end] + 1
			if cur+next > width && end > start {
				break
			}
			cur += next
			end++
		}
		_, err := fmt.Fprintf(w, "%s\n%s\n%s\n", pad(olds, start, end), pad(pipes, start, end), pad(news, start, end))
		if err != nil {
			return err
		}
		start = end
	}
	return nil
}

// TermWidth is the width of the terminal on stdout, or 80 if it is
// not a terminal.
func TermWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return defaultWidth
	}
	return w
}
