// 20 Aug 2025
/*

lst2star keeps the particles of a RELION star file that are still in a
Jalign output list, and optionally only those where some field of the
list is above or below a threshold.

Usage:
 lst2star --lst out.lst --star particles.star [options]

Flags:
  --lst file
	The Jalign output. Each line points back to a line of the Jalign
	input by image number and path.
  --lst2 file
	The Jalign input. If given, line i of --lst is taken to be line i
	of --lst2 and the paths in --lst are not followed.
  --star file
	Particles to filter. Every table with an rlnImageName column is
	filtered, everything else is copied.
  -o, --output file
	Where the result goes. The default is the --lst name ending in .star.
  -c, --column name  -t, --threshold value  --mode gt|lt  --abs
	Filter on a field of --lst. A column needs a threshold.
  --greaterthan X  --lessthan Y
	Also cuts on --column. Given together, only values in (X, Y) are
	kept, e.g. --column score --greaterthan 0.02 --lessthan 0.08 --abs.
	All the cuts that are given have to pass.
  --partial
	Kept images that are not in the star file are normally an error.

Positions in an EMAN2 list count from 0 and RELION image names from 1,
so line 41 of stack.mrcs is 000042@stack.mrcs.

*/
package main
