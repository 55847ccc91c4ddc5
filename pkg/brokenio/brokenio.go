// Package brokenio is a wrapper around an io.Reader that goes wrong
// on purpose. It is for checking that the readers notice when the
// input dies underneath them.
// Typical use:
//	r := brokenio.NewReader(strings.NewReader(s))
//	r.SetFailAfter(100)
// and then give r to the code being tested.
package brokenio

import (
	"errors"
	"io"
	"math/rand"
)

// ErrBroken is what we return when we decide to fail.
var ErrBroken = errors.New("brokenio: simulated read failure")

// Rdr is modelled on the Readers in the standard library, but with
// settings controlling when it breaks.
type Rdr struct {
	rdrOrig   io.Reader
	rnd       *rand.Rand
	failAfter int     // fail once this many bytes have gone through, if > 0
	probFail  float32 // chance of failing on any one call
	nCalled   int
	nByte     int
}

// NewReader returns a wrapper around rIn that behaves until told otherwise.
func NewReader(rIn io.Reader) *Rdr {
	return &Rdr{rdrOrig: rIn, rnd: rand.New(rand.NewSource(1637))}
}

// SetFailAfter makes the reader fail once n bytes have been delivered.
func (r *Rdr) SetFailAfter(n int) { r.failAfter = n }

// SetProbFail sets the probability of a failure on each call. It must
// be between zero and 1. We do not check.
func (r *Rdr) SetProbFail(prob float32) { r.probFail = prob }

// NByte says how much data has gone through.
func (r *Rdr) NByte() int { return r.nByte }

// Read passes on the original reader's data until it is time to break.
// The bytes that fit under the limit are delivered along with the error.
func (r *Rdr) Read(p []byte) (n int, err error) {
	if len(p) == 0 {
		return 0, nil
	}
	r.nCalled++
	if r.probFail > 0 && r.rnd.Float32() < r.probFail {
		return 0, ErrBroken
	}
	if r.failAfter > 0 {
		left := r.failAfter - r.nByte
		if left <= 0 {
			return 0, ErrBroken
		}
		if len(p) > left {
			p = p[:left]
		}
	}
	n, err = r.rdrOrig.Read(p)
	r.nByte += n
	return n, err
}
