// 20 Aug 2025

package star

import (
	"fmt"
	"slices"
	"strings"

	"github.com/huwl404/NiLab/pkg/common"
)

// Row is one line of a loop table. It always has as many tokens as
// the table has columns.
type Row []string

func (r Row) clone() Row { return slices.Clone(r) }

// Item is one key/value line in a block without a loop.
type Item struct {
	Key string
	Val string
}

// Block is everything between one data_ line and the next. If Loop is
// set, Cols and Rows are the table. Otherwise Items holds the
// key/value pairs.
type Block struct {
	Name  string
	Loop  bool
	Cols  []string
	Rows  []Row
	Items []Item
}

// Document is a whole STAR file. Header holds any comment lines that
// came before the first block, like RELION's "# version 30001".
type Document struct {
	Header []string
	Blocks []*Block
}

// NewTable starts an empty loop block.
func NewTable(name string, cols ...string) *Block {
	c := make([]string, len(cols))
	for i, s := range cols {
		c[i] = trimCol(s)
	}
	return &Block{Name: name, Loop: true, Cols: c}
}

// NewScalar starts an empty block of key/value items.
func NewScalar(name string) *Block { return &Block{Name: name} }

// trimCol lets callers write "_rlnImageName" or "rlnImageName".
func trimCol(s string) string { return strings.TrimPrefix(s, "_") }

// NCol is the number of columns in a table
func (b *Block) NCol() int { return len(b.Cols) }

// NRow is the number of rows in a table
func (b *Block) NRow() int { return len(b.Rows) }

// Has says if a table has the named column.
func (b *Block) Has(col string) bool {
	_, err := b.Col(col)
	return err == nil
}

// Col returns the index of a column. A leading "_" on the name is
// ignored. Asking a non-loop block for a column is the same as asking
// for a column that is not there.
func (b *Block) Col(col string) (int, error) {
	col = trimCol(col)
	if b.Loop {
		if i := slices.Index(b.Cols, col); i != -1 {
			return i, nil
		}
	}
	return -1, &ColumnError{Block: b.Name, Col: col}
}

// Column returns a copy of all the values in one column.
func (b *Block) Column(col string) ([]string, error) {
	ic, err := b.Col(col)
	if err != nil {
		return nil, err
	}
	ret := make([]string, len(b.Rows))
	for i, r := range b.Rows {
		ret[i] = r[ic]
	}
	return ret, nil
}

// Value returns the entry in row i of a column.
func (b *Block) Value(i int, col string) (string, error) {
	ic, err := b.Col(col)
	if err != nil {
		return "", err
	}
	if i < 0 || i >= len(b.Rows) {
		return "", fmt.Errorf("row %d out of range, block data_%s has %d rows", i, b.Name, len(b.Rows))
	}
	return b.Rows[i][ic], nil
}

// checkRow makes sure a row fits in the table and would survive being
// written out and read back.
func (b *Block) checkRow(r Row) error {
	if !b.Loop {
		return fmt.Errorf("block data_%s is not a loop: %w", b.Name, common.ErrMalformedRow)
	}
	if len(r) != len(b.Cols) {
		return fmt.Errorf("block data_%s: row has %d tokens, table has %d columns: %w",
			b.Name, len(r), len(b.Cols), common.ErrMalformedRow)
	}
	for i, tok := range r {
		if err := checkToken(tok, i == 0); err != nil {
			return fmt.Errorf("block data_%s: %w", b.Name, err)
		}
	}
	return nil
}

const white = " \t\n\r\v\f"

// checkToken rejects tokens that would fall apart when the row is split
// on white space. The first token of a row must also not look like a
// comment, a column name, loop_ or data_.
func checkToken(tok string, first bool) error {
	if tok == "" || strings.ContainsAny(tok, white) {
		return fmt.Errorf("token \"%s\" is empty or has white space: %w", tok, common.ErrMalformedRow)
	}
	if first && (tok[0] == cmmtChar || isSpecial(tok)) {
		return fmt.Errorf("token \"%s\" cannot start a row: %w", tok, common.ErrMalformedRow)
	}
	return nil
}

// AddRow appends a row to a table. This does change the block, so it
// is for building new tables, not for editing ones read from a file.
func (b *Block) AddRow(r Row) error {
	if err := b.checkRow(r); err != nil {
		return err
	}
	b.Rows = append(b.Rows, r.clone())
	return nil
}

// Item returns the value for a key in a non-loop block.
func (b *Block) Item(key string) (string, bool) {
	key = trimCol(key)
	for _, it := range b.Items {
		if it.Key == key {
			return it.Val, true
		}
	}
	return "", false
}

// SetItem sets or adds a key/value pair. Like AddRow, it is for
// building blocks. The key is one token. The value may have spaces
// inside, but not at the ends, and must fit on one line.
func (b *Block) SetItem(key, val string) error {
	key = trimCol(key)
	if key == "" || strings.ContainsAny(key, white) {
		return fmt.Errorf("block data_%s: bad key \"%s\": %w", b.Name, key, common.ErrMalformedRow)
	}
	if strings.ContainsAny(val, "\n\r") || strings.TrimSpace(val) != val {
		return fmt.Errorf("block data_%s: value \"%s\" of _%s has line breaks or white space at the ends: %w",
			b.Name, val, key, common.ErrMalformedRow)
	}
	if b.Loop {
		return fmt.Errorf("block data_%s is a loop, cannot add _%s: %w", b.Name, key, common.ErrMalformedRow)
	}
	for i := range b.Items {
		if b.Items[i].Key == key {
			b.Items[i].Val = val
			return nil
		}
	}
	b.Items = append(b.Items, Item{Key: key, Val: val})
	return nil
}

// Clone gives a deep copy.
func (b *Block) Clone() *Block {
	c := &Block{Name: b.Name, Loop: b.Loop, Cols: slices.Clone(b.Cols)}
	if b.Rows != nil {
		c.Rows = make([]Row, len(b.Rows))
		for i, r := range b.Rows {
			c.Rows[i] = r.clone()
		}
	}
	c.Items = slices.Clone(b.Items)
	return c
}

// Rename gives a copy of the block with a new name.
func (b *Block) Rename(name string) *Block {
	c := b.Clone()
	c.Name = name
	return c
}

// Select returns a new table with the rows for which keep is true, in
// the original order.
func (b *Block) Select(keep func(i int, r Row) bool) *Block {
	c := &Block{Name: b.Name, Loop: b.Loop, Cols: slices.Clone(b.Cols)}
	for i, r := range b.Rows {
		if keep(i, r) {
			c.Rows = append(c.Rows, r.clone())
		}
	}
	return c
}

// WithRows returns a new table with the same columns and the given rows.
func (b *Block) WithRows(rows []Row) (*Block, error) {
	c := &Block{Name: b.Name, Loop: b.Loop, Cols: slices.Clone(b.Cols)}
	for _, r := range rows {
		if err := c.AddRow(r); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// MapCol returns a new table where every value in one column has been
// replaced by f(value).
func (b *Block) MapCol(col string, f func(string) string) (*Block, error) {
	ic, err := b.Col(col)
	if err != nil {
		return nil, err
	}
	c := b.Clone()
	for i, r := range c.Rows {
		s := f(r[ic])
		if err := checkToken(s, ic == 0); err != nil {
			return nil, fmt.Errorf("block data_%s row %d: %w", b.Name, i+1, err)
		}
		r[ic] = s
	}
	return c, nil
}

// Names gives the block names in order.
func (d *Document) Names() []string {
	ret := make([]string, len(d.Blocks))
	for i, b := range d.Blocks {
		ret[i] = b.Name
	}
	return ret
}

// Index returns the position of the first block with a name, or -1.
func (d *Document) Index(name string) int {
	return slices.IndexFunc(d.Blocks, func(b *Block) bool { return b.Name == name })
}

// Block returns the first block with a name, or nil.
func (d *Document) Block(name string) *Block {
	if i := d.Index(name); i != -1 {
		return d.Blocks[i]
	}
	return nil
}

// Need is like Block, but not finding the block is an error.
func (d *Document) Need(name string) (*Block, error) {
	if b := d.Block(name); b != nil {
		return b, nil
	}
	return nil, &BlockError{Block: name}
}

// Find returns the first loop block that has a column.
func (d *Document) Find(col string) (*Block, error) {
	for _, b := range d.Blocks {
		if b.Has(col) {
			return b, nil
		}
	}
	return nil, &ColumnError{Col: trimCol(col)}
}

// Append adds a block to the end of a document being built.
func (d *Document) Append(b *Block) { d.Blocks = append(d.Blocks, b) }

// Clone gives a deep copy.
func (d *Document) Clone() *Document {
	c := &Document{Header: slices.Clone(d.Header)}
	for _, b := range d.Blocks {
		c.Blocks = append(c.Blocks, b.Clone())
	}
	return c
}

// shallow copies the document, but shares the blocks. This is safe
// since nothing here changes a block after it has been read.
func (d *Document) shallow() *Document {
	return &Document{Header: slices.Clone(d.Header), Blocks: slices.Clone(d.Blocks)}
}

// Replace returns a new document where the block with the same name as
// b has been swapped for b. If there is no such block, b goes on the end.
func (d *Document) Replace(b *Block) *Document {
	c := d.shallow()
	if i := c.Index(b.Name); i != -1 {
		c.Blocks[i] = b
	} else {
		c.Blocks = append(c.Blocks, b)
	}
	return c
}

// Without returns a new document without the named blocks.
func (d *Document) Without(names ...string) *Document {
	c := d.shallow()
	c.Blocks = slices.DeleteFunc(c.Blocks, func(b *Block) bool {
		return slices.Contains(names, b.Name)
	})
	return c
}

// Keep returns a new document with only the blocks for which keep
// is true.
func (d *Document) Keep(keep func(b *Block) bool) *Document {
	c := d.shallow()
	c.Blocks = slices.DeleteFunc(c.Blocks, func(b *Block) bool { return !keep(b) })
	return c
}
