// Package catalog builds an in-memory snapshot of the on-disk asset tree:
// Features/<Title>/<AssetType>/ and Shorts/<Block>/<Title>/<AssetType>/.
// Every other stage resolves titles against this snapshot rather than
// touching the filesystem directly.
package catalog
