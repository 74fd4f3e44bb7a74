// Package organize sorts loose deliveries from a staging directory into the
// catalog tree. Files are classified by name hints and extension, claimed by
// catalog titles via key containment with a fuzzy fallback, and moved or
// copied with stub sentinels and a replace-only-if-larger rule. It also
// rebuilds the festival aggregate folders of per-kind symlinks.
package organize
