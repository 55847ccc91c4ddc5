// 21 Aug 2025

package lst

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/huwl404/NiLab/pkg/common"
)

// Write puts out the header and then one tab separated line per
// record. The first line is always #LST, and it appears only once.
func Write(w io.Writer, doc *Document) error {
	for _, r := range doc.Recs {
		if r.Ndx < 0 {
			return fmt.Errorf("record %d %s: negative image number: %w", r.Ndx, r.Path, common.ErrMalformedRow)
		}
	}
	bw := bufio.NewWriter(w)
	bw.WriteString(Magic + "\n")
	for _, h := range doc.Header {
		if strings.TrimSpace(h) == Magic {
			continue
		}
		bw.WriteString(h)
		bw.WriteByte('\n')
	}
	for _, r := range doc.Recs {
		bw.WriteString(strconv.Itoa(r.Ndx))
		bw.WriteByte('\t')
		bw.WriteString(r.Path)
		for _, f := range r.Fields {
			bw.WriteByte('\t')
			bw.WriteString(f.Key)
			bw.WriteByte('=')
			bw.WriteString(f.Val)
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// WriteFile writes a list to a file.
func WriteFile(fname string, doc *Document) error {
	fp, err := os.Create(fname)
	if err != nil {
		return err
	}
	if err := Write(fp, doc); err != nil {
		fp.Close()
		return fmt.Errorf("writing %s: %w", fname, err)
	}
	return fp.Close()
}
