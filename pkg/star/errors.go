package star

import (
	"strconv"

	"github.com/huwl404/NiLab/pkg/common"
)

// ReadError is for a problem with the structure of the file. It
// stops the reading. It saves the line number and the line we
// were trying to read.
type ReadError struct {
	Src  string // file name, may be empty
	N    int    // line number
	Line string // the line that provoked the error
	Desc string
}

func (e *ReadError) Error() string {
	var errmsg string
	if e.Src != "" {
		errmsg = e.Src + ": "
	}
	if e.N != 0 {
		errmsg += "line " + strconv.Itoa(e.N) + ": "
	}
	errmsg += e.Desc
	if e.N != 0 && e.Line != "" {
		errmsg += "\nLine starting with\n" + common.FirstPart(e.Line)
	}
	return errmsg
}

// ColumnError says a column we need is not there. Block is empty
// if we looked through a whole document.
type ColumnError struct {
	Block string
	Col   string
}

func (e *ColumnError) Error() string {
	if e.Col == "" {
		return "no columns after loop_ in block data_" + e.Block
	}
	if e.Block == "" {
		return "column _" + e.Col + " not found in any loop"
	}
	return "column _" + e.Col + " not found in block data_" + e.Block
}

func (e *ColumnError) Unwrap() error { return common.ErrColumnNotFound }

// BlockError says a block we need is not there.
type BlockError struct {
	Block string
}

func (e *BlockError) Error() string { return "no block data_" + e.Block }

func (e *BlockError) Unwrap() error { return common.ErrBlockNotFound }
