// Package star reads and writes the STAR files that RELION and Warp
// use for particle and optics metadata.
//
// We only handle the part of the format these programs write.
// A line starting with data_ opens a block. A block is either a list
// of
//   _key value
// lines, or a loop_ followed by column names and then rows of
// whitespace separated tokens. The first character on the line is
// decisive, which keeps the reader simple. Quoted strings and
// multi-line ; fields are not understood.
//
// Column names are stored without the leading underscore and without
// the #n that RELION puts after them. They come back on output.
//
// Operations that change a document or block return a new one. The old
// one is left alone, so the same input can be split several ways.
package star
