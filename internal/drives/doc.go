// Package drives builds screening drives from a schedule. Each scheduled
// slot becomes a "Day/Time - Title" folder holding the feature film or the
// numbered member films of a shorts block, sponsor and trailer trees are
// mirrored alongside, and a roll call reconciles the schedule against the
// catalog so missing deliveries surface before anyone is standing in a
// projection booth.
package drives
