// 30 Sep 2025
/*

star2lst converts RELION 3.1 particles, with data_optics and
data_particles blocks, to a list Jalign can read.

Usage:
 star2lst particles.star [--lst out.lst]

Angles go from RELION's rot, tilt, psi to EMAN's az, alt, phi. Shifts
may be in Angstrom (rlnOriginXAngst) or, in older files, pixels
(rlnOriginX). With neither, particles are taken to be centred. Defocus
is written in microns and amplitude contrast in percent.

*/
package main
