package catalog

import "matinee/internal/textutil"

// Kind identifies which bucket of the catalog tree an entry came from.
type Kind string

const (
	KindFeature Kind = "feature"
	KindShort   Kind = "short"
)

// AssetKind names an asset-type folder inside a title directory. The five
// reserved folder names cover everything matinee itself creates; scans carry
// unknown folder names through so hand-made groupings still show up.
type AssetKind string

const (
	AssetFilm     AssetKind = "Film"
	AssetTrailer  AssetKind = "Trailer"
	AssetStills   AssetKind = "Stills"
	AssetPosters  AssetKind = "Posters"
	AssetScreener AssetKind = "Screener"
)

var reservedAssetKinds = map[string]AssetKind{
	string(AssetFilm):     AssetFilm,
	string(AssetTrailer):  AssetTrailer,
	string(AssetStills):   AssetStills,
	string(AssetPosters):  AssetPosters,
	string(AssetScreener): AssetScreener,
}

// ReservedAssetKind reports whether name is one of the reserved asset-type
// folder names. Reserved names never become catalog entries of their own.
func ReservedAssetKind(name string) (AssetKind, bool) {
	kind, ok := reservedAssetKinds[name]
	return kind, ok
}

// Entry is one discovered title directory.
type Entry struct {
	// DisplayName is the folder name exactly as it appears on disk.
	DisplayName string
	// Key is the normalized comparison form of DisplayName.
	Key string
	// Kind records whether the entry lives under Features or Shorts.
	Kind Kind
	// Block is the shorts block folder name, empty for features.
	Block string
	// Path is the absolute path of the title directory.
	Path string
	// Assets maps asset-type folder names to the files directly inside them.
	Assets map[AssetKind][]string
}

// Catalog is an immutable snapshot of the on-disk asset tree. Entries are
// held sorted by normalized key so matching and tie-breaking are
// deterministic across runs regardless of filesystem iteration order.
type Catalog struct {
	entries []Entry
	index   map[string]int
}

// Entries returns the catalog entries in normalized-key order. The returned
// slice is shared; callers must not mutate it.
func (c *Catalog) Entries() []Entry {
	if c == nil {
		return nil
	}
	return c.entries
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Get returns the entry for a normalized key. When two folders normalize to
// the same key the entry that sorts first wins, matching the tie-break used
// during matching.
func (c *Catalog) Get(key string) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	i, ok := c.index[key]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Normalize exposes the key normalization used for catalog lookups.
func Normalize(title string) string {
	return textutil.NormalizeKey(title)
}
