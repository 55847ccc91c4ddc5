// 26 Sep 2025
/*

splitmatch cuts matching_tomograms.star and matching.star from
WarpTools template matching into two halves, so each can be refined
separately.

Usage:
 splitmatch -t matching_tomograms.star -m matching.star [-d dose] [-o dir]

The first half gets the first ceil(N/2) tomograms. In each half the
optics groups are numbered from 1 again and the old and new numbers
are printed. The output names carry the old range,
like matching_OG1-4.star. Splitting matching_OG5-8.star gives
matching_OG5-6.star and matching_OG7-8.star. Each half also gets a
matching_optimisation_set_OG<s>-<e>.star.

With -d, every rlnTomoImportFractionalDose is set to dose with three
decimals. If anything changes, the original is kept as
<name>_original.star and the fixed whole file is written too.

*/
package main
