// 9 Aug 2025
/*

divhist splits a RELION star file or an EMAN2 list into bins by the
value in one column, writes one file per bin and draws a histogram.

Usage:
 divhist -i file -c column [options]

Flags:
  -b N	Number of bins, default 10.
  --min X, --max X
	Only values in [X, Y] are binned. Without these, the range of the data.
  --samesize
	Bins hold the same number of particles. Without it, bins are the
	same width.
  --abs	Use the absolute value.
  --onlyhist
	Only write <prefix>_histogram.png.
  -o dir, -p prefix
	Output goes to dir/<prefix>_bin<i>.star (or .lst) and
	dir/<prefix>_histogram.png.

The type of input comes from the file name. If that does not help, we
look at the first line. Lists start with #LST. Files may be gzip, zstd
or xz compressed.

*/
package main
