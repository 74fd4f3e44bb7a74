// Package playlist assembles show running orders: house trailers, promos,
// the festival bumper, the sponsor loop, then the scheduled films with an
// optional gap slide between them, written out as extended M3U files of
// relative paths.
package playlist
