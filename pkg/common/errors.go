package common

import (
	"errors"
	"strconv"
)

// The categories of failure. Everything we return wraps one of these,
// so callers can use errors.Is without caring about the details.
var (
	ErrMalformedRow   = errors.New("malformed row")
	ErrColumnNotFound = errors.New("column not found")
	ErrEmptyResult    = errors.New("empty result")
	ErrXrefMismatch   = errors.New("cross-reference mismatch")
	ErrInvalidParam   = errors.New("invalid parameters")
	ErrBlockNotFound  = errors.New("block not found")
)

const maxMsgLen = 70

// RowError is a complaint about one line of input. These are
// warnings. The line is skipped and we carry on.
type RowError struct {
	Src  string // file name, if we know it
	N    int    // line number, from 1
	Line string // the offending line
	Desc string
}

// FirstPart trims a string to something that fits in an error message.
func FirstPart(s string) string {
	if len(s) > maxMsgLen {
		return s[:maxMsgLen]
	}
	return s
}

func (e *RowError) Error() string {
	var msg string
	if e.Src != "" {
		msg = e.Src + " "
	}
	if e.N != 0 {
		msg += "line " + strconv.Itoa(e.N) + ": "
	}
	msg += e.Desc
	if e.Line != "" {
		msg += " (\"" + FirstPart(e.Line) + "\")"
	}
	return msg
}

func (e *RowError) Unwrap() error { return ErrMalformedRow }
