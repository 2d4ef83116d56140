// Package cache defines the disk-backed store holding one entry per font
// source as a sidecar pair: the downloaded payload and a .lastmod file with
// the freshness token saved byte-for-byte. Both files go through temp file +
// rename so an entry is either fully present or absent; a lone file reads as
// no entry. The loader depends on this package to decide whether conversion
// must re-run without duplicating filesystem logic.
package cache
