package playlist

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"matinee/internal/catalog"
	"matinee/internal/config"
	"matinee/internal/drives"
	"matinee/internal/fetch"
	"matinee/internal/logging"
	"matinee/internal/reconcile"
	"matinee/internal/textutil"
)

// ambientExtensions covers the pre-show material the booth plays out.
// Encode-controlled house assets only ever arrive in these containers.
var ambientExtensions = map[string]bool{".mp4": true, ".mov": true}

// Entry is one playlist line.
type Entry struct {
	// Path is the absolute media path; Write relativizes it.
	Path  string
	Label string
}

// Playlist is an assembled running order for one show.
type Playlist struct {
	Name     string
	Entries  []Entry
	Warnings []string
}

func (p *Playlist) add(path, label string) {
	p.Entries = append(p.Entries, Entry{Path: path, Label: label})
}

func (p *Playlist) warnf(format string, args ...any) {
	p.Warnings = append(p.Warnings, fmt.Sprintf(format, args...))
}

// Write renders the playlist as extended M3U into dir, named after the
// show. Entry paths are written relative to dir so the playlist survives
// being copied onto a drive together with the assets.
func (p *Playlist) Write(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	for _, e := range p.Entries {
		rel, err := filepath.Rel(abs, e.Path)
		if err != nil {
			rel = e.Path
		}
		fmt.Fprintf(&b, "#EXTINF:-1,%s\n%s\n", e.Label, rel)
	}

	path := filepath.Join(abs, textutil.SafeFileName(p.Name)+".m3u8")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// Assembler builds show running orders from the catalog and schedule.
type Assembler struct {
	cfg    *config.Config
	logger *slog.Logger
}

// New builds an Assembler from configuration.
func New(cfg *config.Config, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Assembler{cfg: cfg, logger: logging.NewComponentLogger(logger, "playlist")}
}

// Assemble builds the running order for one scheduled slot: house trailers,
// promos, the bumper, the sponsor loop, then the films with the gap slide
// between them. Material that cannot be found is skipped with a warning,
// never fatally, so a playlist always comes out.
func (a *Assembler) Assemble(cat *catalog.Catalog, showing drives.Showing) *Playlist {
	name := showing.Title
	if showing.Day != "" && showing.Time != "" {
		name = fmt.Sprintf("%s %s - %s", showing.Day, showing.Time, showing.Title)
	}
	p := &Playlist{Name: name}

	a.addTree(p, "_Trailers")
	a.addTree(p, "Promos")
	a.addConfigured(p, a.cfg.Playlist.BumperFile, "bumper")
	a.addTree(p, "Sponsors")

	films := a.films(cat, showing, p)
	gap := a.resolve(a.cfg.Playlist.GapFile)
	if a.cfg.Playlist.GapFile != "" && gap == "" {
		p.warnf("gap file %s not found", a.cfg.Playlist.GapFile)
	}
	for i, film := range films {
		p.add(film.Path, film.Label)
		if gap != "" && i < len(films)-1 {
			p.add(gap, filepath.Base(gap))
		}
	}

	a.logger.Info("playlist assembled",
		logging.String(logging.FieldTitle, showing.Title),
		logging.Int("entries", len(p.Entries)),
		logging.Int("warnings", len(p.Warnings)))
	return p
}

// films resolves the scheduled films in play order.
func (a *Assembler) films(cat *catalog.Catalog, showing drives.Showing, p *Playlist) []Entry {
	if showing.Block() {
		members, matched := drives.BlockMembers(cat, showing.Title, a.cfg.Matching.ListThreshold)
		if len(members) == 0 {
			p.warnf("shorts block %q not found in catalog", showing.Title)
			return nil
		}
		if matched != showing.Title {
			a.logger.Info("fuzzy matched shorts block",
				logging.String(logging.FieldTitle, showing.Title),
				logging.String("block", matched))
		}
		var films []Entry
		for _, member := range members {
			src, ok := drives.FirstVideo(member, catalog.AssetFilm)
			if !ok {
				p.warnf("no film delivered for %q", member.DisplayName)
				continue
			}
			films = append(films, Entry{Path: src, Label: member.DisplayName})
		}
		return films
	}

	matcher := reconcile.NewMatcher(cat, reconcile.WithThreshold(a.cfg.Matching.AssetThreshold))
	entry, ok := drives.LookupTitle(cat, matcher, showing.Title)
	if !ok {
		p.warnf("no catalog title matched %q", showing.Title)
		return nil
	}
	src, ok := drives.FirstVideo(entry, catalog.AssetFilm, catalog.AssetScreener)
	if !ok {
		p.warnf("no film or screener delivered for %q", entry.DisplayName)
		return nil
	}
	return []Entry{{Path: src, Label: entry.DisplayName}}
}

// addTree appends every playable file of a catalog-root folder, in name
// order. Absent folders are normal.
func (a *Assembler) addTree(p *Playlist, dir string) {
	root := filepath.Join(a.cfg.Paths.CatalogDir, dir)
	items, err := os.ReadDir(root)
	if err != nil {
		a.logger.Debug("playlist tree absent", logging.String("dir", root))
		return
	}
	for _, item := range items {
		name := item.Name()
		if item.IsDir() || fetch.IsArtifact(name) || !ambientExtensions[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		p.add(filepath.Join(root, name), name)
	}
}

// addConfigured appends an optional single-file slot from configuration.
// Unset is silent; configured-but-missing warns.
func (a *Assembler) addConfigured(p *Playlist, configured, what string) {
	if strings.TrimSpace(configured) == "" {
		return
	}
	path := a.resolve(configured)
	if path == "" {
		p.warnf("%s file %s not found", what, configured)
		return
	}
	p.add(path, filepath.Base(path))
}

// resolve expands an optional config path against the catalog root and
// checks it exists. Empty means unset or missing.
func (a *Assembler) resolve(path string) string {
	if strings.TrimSpace(path) == "" {
		return ""
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(a.cfg.Paths.CatalogDir, path)
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
