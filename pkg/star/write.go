// 21 Aug 2025

package star

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/huwl404/NiLab/pkg/common"
)

// Write puts a document out in the layout RELION writes. Reading the
// result gives back the same document. A document that could not come
// back, say a row starting with "#" put straight into Rows, is refused
// before anything is written.
func Write(w io.Writer, doc *Document) error {
	if err := doc.check(); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	for _, h := range doc.Header {
		bw.WriteString(h)
		bw.WriteByte('\n')
	}
	if len(doc.Header) > 0 {
		bw.WriteByte('\n')
	}
	for _, b := range doc.Blocks {
		writeBlock(bw, b)
	}
	return bw.Flush()
}

// check looks at everything built by hand that the reader would see
// differently.
func (d *Document) check() error {
	for _, h := range d.Header {
		if t := strings.TrimSpace(h); t == "" || t[0] != cmmtChar || strings.ContainsAny(h, "\n\r") {
			return fmt.Errorf("header line \"%s\" is not a comment: %w", h, common.ErrMalformedRow)
		}
	}
	for _, b := range d.Blocks {
		if strings.ContainsAny(b.Name, white) {
			return fmt.Errorf("block name \"%s\" has white space: %w", b.Name, common.ErrMalformedRow)
		}
		if !b.Loop {
			for _, it := range b.Items {
				if err := new(Block).SetItem(it.Key, it.Val); err != nil {
					return fmt.Errorf("block data_%s: %w", b.Name, err)
				}
			}
			continue
		}
		if len(b.Items) > 0 {
			return fmt.Errorf("block data_%s has a loop and items: %w", b.Name, common.ErrMalformedRow)
		}
		if len(b.Cols) == 0 {
			return &ColumnError{Block: b.Name}
		}
		for _, c := range b.Cols {
			if c == "" || strings.ContainsAny(c, white) || strings.IndexByte(c, cmmtChar) != -1 {
				return fmt.Errorf("block data_%s: bad column name \"%s\": %w", b.Name, c, common.ErrMalformedRow)
			}
		}
		for _, r := range b.Rows {
			if err := b.checkRow(r); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeBlock(bw *bufio.Writer, b *Block) {
	fmt.Fprintf(bw, "data_%s\n\n", b.Name)
	if b.Loop {
		bw.WriteString("loop_\n")
		for i, c := range b.Cols {
			fmt.Fprintf(bw, "_%s #%d\n", c, i+1)
		}
		for _, r := range b.Rows {
			bw.WriteString(strings.Join(r, " "))
			bw.WriteByte('\n')
		}
	} else {
		for _, it := range b.Items {
			fmt.Fprintf(bw, "_%s %s\n", it.Key, it.Val)
		}
	}
	bw.WriteByte('\n')
}

// WriteFile writes a document to a file, replacing whatever was there.
func WriteFile(fname string, doc *Document) error {
	if err := doc.check(); err != nil {
		return fmt.Errorf("%s: %w", fname, err)
	}
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
