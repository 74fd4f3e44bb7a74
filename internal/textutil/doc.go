// Package textutil provides the string primitives shared by catalog matching
// and path construction: canonical key normalization, sequence similarity
// scoring, and filesystem-safe name sanitization.
package textutil
