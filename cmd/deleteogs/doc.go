// 27 Sep 2025
/*

deleteogs removes optics groups from matching_tomograms.star and
matching.star after WarpTools template matching, and numbers the groups
that are left from 1.

Usage:
 deleteogs -t matching_tomograms.star -m matching.star --og 3,5 [-o dir]

The groups to delete go in one comma separated list, --og 3,5, or
one per flag, --og 3 --og 5. A space separated list, --og 3 5, is not
accepted: the 5 is a stray argument and the command stops with a
usage error before touching any file.

Each input is first copied to <name>_full.star in dir and the copy is
checked with a BLAKE3 digest. The cleaned files go to dir under their
original names, so with the default dir "." the inputs are replaced.

*/
package main
