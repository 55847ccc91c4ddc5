// 21 Aug 2025

// Package lst reads and writes EMAN2 .lst particle lists. Each line is
// an image number, the stack it lives in, and then any number of
// key=value fields, all separated by white space.
//
// EMAN2 counts images from 0 and RELION from 1. Tag does the
// conversion, so a record with index 41 in stack.mrcs is the RELION
// image 000042@stack.mrcs.
package lst

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/huwl404/NiLab/pkg/common"
)

// Magic is the first line of every file we write. Jalign will not
// read a list without it.
const Magic = "#LST"

// Field is one key=value token.
type Field struct {
	Key string
	Val string
}

func (f Field) String() string { return f.Key + "=" + f.Val }

// Record is one particle.
type Record struct {
	Ndx    int // 0-based image number in the stack
	Path   string
	Fields []Field
}

// Get returns the value of the first field called key.
func (r Record) Get(key string) (string, bool) {
	for _, f := range r.Fields {
		if f.Key == key {
			return f.Val, true
		}
	}
	return "", false
}

// Float returns a field as a number.
func (r Record) Float(key string) (float64, error) {
	s, ok := r.Get(key)
	if !ok {
		return 0, fmt.Errorf("no field %s= in record %s: %w", key, r.Tag(), common.ErrColumnNotFound)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("field %s=%s in record %s is not a number: %w", key, s, r.Tag(), common.ErrMalformedRow)
	}
	return v, nil
}

// Tag is the RELION image name of the record.
func (r Record) Tag() string { return Tag(r.Ndx, r.Path) }

// With returns a copy of the record with more fields on the end.
func (r Record) With(f ...Field) Record {
	fields := make([]Field, 0, len(r.Fields)+len(f))
	fields = append(fields, r.Fields...)
	fields = append(fields, f...)
	return Record{Ndx: r.Ndx, Path: r.Path, Fields: fields}
}

// Document is a whole list. Header has the comment lines as they were.
type Document struct {
	Header []string
	Recs   []Record
}

// Clone gives a deep copy.
func (d *Document) Clone() *Document {
	c := &Document{Header: slices.Clone(d.Header), Recs: make([]Record, len(d.Recs))}
	for i, r := range d.Recs {
		c.Recs[i] = r.With()
	}
	return c
}

// Subset returns a document with the same header and the records at
// the given positions, in the order given.
func (d *Document) Subset(ndx []int) *Document {
	c := &Document{Header: slices.Clone(d.Header), Recs: make([]Record, len(ndx))}
	for i, n := range ndx {
		c.Recs[i] = d.Recs[n].With()
	}
	return c
}

// Tag turns a 0-based EMAN2 index and path into a RELION image name.
func Tag(ndx int, path string) string {
	return fmt.Sprintf("%06d@%s", ndx+1, path)
}

// ParseTag splits a RELION image name like 000042@stack.mrcs and
// gives back the 0-based index.
func ParseTag(tag string) (int, string, error) {
	num, path, ok := strings.Cut(tag, "@")
	if !ok || path == "" {
		return 0, "", fmt.Errorf("image name \"%s\" is not number@path: %w", tag, common.ErrMalformedRow)
	}
	n, err := strconv.Atoi(num)
	if err != nil || n < 1 {
		return 0, "", fmt.Errorf("image name \"%s\" does not start with a number from 1: %w", tag, common.ErrMalformedRow)
	}
	return n - 1, path, nil
}
