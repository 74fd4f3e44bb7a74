package drives

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"

	"matinee/internal/catalog"
	"matinee/internal/config"
	"matinee/internal/fetch"
	"matinee/internal/fileutil"
	"matinee/internal/logging"
	"matinee/internal/reconcile"
	"matinee/internal/services"
	"matinee/internal/textutil"
)

// videoExtensions covers every container the projection machines accept.
var videoExtensions = map[string]bool{
	".mp4": true, ".mov": true, ".mkv": true, ".avi": true, ".wmv": true,
	".m4v": true, ".mpg": true, ".mpeg": true, ".webm": true,
}

// progressMinBytes keeps the bar away from trailer-sized files; only
// screener-sized copies are slow enough to need one.
const progressMinBytes = 100 << 20

// auxTrees are catalog-root folders mirrored onto every drive.
var auxTrees = []string{"Sponsors", "_Trailers"}

// Disposition is the terminal state of one planned drive copy.
type Disposition string

const (
	// DispositionCopied means the file landed on the drive.
	DispositionCopied Disposition = "copied"
	// DispositionOverwritten means a smaller stale copy was replaced.
	DispositionOverwritten Disposition = "overwritten"
	// DispositionSkipped means an equal-or-larger copy was already present.
	DispositionSkipped Disposition = "skipped"
	// DispositionMissing means no usable source file exists for the slot.
	DispositionMissing Disposition = "missing"
	// DispositionFailed means the copy itself went wrong.
	DispositionFailed Disposition = "failed"
)

// Action records one planned copy and how it ended.
type Action struct {
	Source      string
	Dest        string
	Title       string
	Disposition Disposition
	Detail      string
}

// Report summarizes one drive build.
type Report struct {
	DestRoot string
	Actions  []Action
	// AuxSkipped counts sponsor and trailer files that were already on the
	// drive; they are tallied rather than listed to keep reports readable.
	AuxSkipped int
	// RollCall reconciles every distinct scheduled feature title against
	// the catalog at the list threshold, so staff can see at a glance which
	// scheduled films have no delivered asset at all.
	RollCall []reconcile.Result
}

// Counts tallies actions by disposition.
func (r *Report) Counts() map[Disposition]int {
	counts := make(map[Disposition]int)
	for _, a := range r.Actions {
		counts[a.Disposition]++
	}
	return counts
}

// Builder assembles screening drives from a schedule and the catalog.
type Builder struct {
	cfg          *config.Config
	logger       *slog.Logger
	showProgress bool
}

// Option adjusts Builder construction.
type Option func(*Builder)

// WithProgress toggles per-file progress bars for large copies.
func WithProgress(enabled bool) Option {
	return func(b *Builder) {
		b.showProgress = enabled
	}
}

// New builds a drive Builder from configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Builder {
	if logger == nil {
		logger = logging.NewNop()
	}
	b := &Builder{cfg: cfg, logger: logging.NewComponentLogger(logger, "drives")}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build lays out destRoot for the given showings: sponsor and trailer trees
// first, then one "Day/Time - Title" folder per slot holding the feature
// film or the numbered films of a shorts block. Missing titles become
// report entries, never errors; only an unusable destination root is fatal.
func (b *Builder) Build(ctx context.Context, cat *catalog.Catalog, showings []Showing, destRoot string) (*Report, error) {
	if err := os.MkdirAll(destRoot, 0o755); err != nil {
		return nil, services.Wrap(services.ErrValidation, "drives", "prepare",
			fmt.Sprintf("drive root %s is not usable", destRoot), err)
	}

	report := &Report{DestRoot: destRoot}

	for _, tree := range auxTrees {
		if err := b.syncAux(ctx, tree, destRoot, report); err != nil {
			return report, err
		}
	}

	matcher := reconcile.NewMatcher(cat, reconcile.WithThreshold(b.cfg.Matching.AssetThreshold))
	for _, showing := range showings {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		showDir := filepath.Join(destRoot, showing.Folder())
		if err := os.MkdirAll(showDir, 0o755); err != nil {
			report.Actions = append(report.Actions, Action{
				Title:       showing.Title,
				Dest:        showDir,
				Disposition: DispositionFailed,
				Detail:      "create show folder: " + err.Error(),
			})
			continue
		}
		if showing.Block() {
			report.Actions = append(report.Actions, b.placeBlock(cat, showing, showDir)...)
		} else {
			report.Actions = append(report.Actions, b.placeFeature(cat, matcher, showing, showDir))
		}
	}

	report.RollCall = b.rollCall(cat, showings)

	counts := report.Counts()
	b.logger.Info("drive build complete",
		logging.String("root", destRoot),
		logging.Int("copied", counts[DispositionCopied]+counts[DispositionOverwritten]),
		logging.Int("skipped", counts[DispositionSkipped]+report.AuxSkipped),
		logging.Int("missing", counts[DispositionMissing]),
		logging.Int("failed", counts[DispositionFailed]))
	return report, nil
}

// placeFeature copies the film (or, failing that, the screener) for a
// single-film slot.
func (b *Builder) placeFeature(cat *catalog.Catalog, matcher *reconcile.Matcher, showing Showing, showDir string) Action {
	entry, ok := LookupTitle(cat, matcher, showing.Title)
	if !ok {
		b.logger.Warn("scheduled title not in catalog", logging.String(logging.FieldTitle, showing.Title))
		return Action{
			Title:       showing.Title,
			Disposition: DispositionMissing,
			Detail:      "no catalog title matched",
		}
	}
	src, ok := FirstVideo(entry, catalog.AssetFilm, catalog.AssetScreener)
	if !ok {
		b.logger.Warn("scheduled title has no film file", logging.String(logging.FieldTitle, entry.DisplayName))
		return Action{
			Title:       entry.DisplayName,
			Disposition: DispositionMissing,
			Detail:      "no film or screener delivered",
		}
	}
	return b.place(src, filepath.Join(showDir, filepath.Base(src)), entry.DisplayName)
}

// placeBlock copies every member film of a shorts block in running order,
// prefixed with its position so players sort them correctly.
func (b *Builder) placeBlock(cat *catalog.Catalog, showing Showing, showDir string) []Action {
	members, matched := BlockMembers(cat, showing.Title, b.cfg.Matching.ListThreshold)
	if len(members) == 0 {
		b.logger.Warn("shorts block not in catalog", logging.String(logging.FieldTitle, showing.Title))
		return []Action{{
			Title:       showing.Title,
			Disposition: DispositionMissing,
			Detail:      "shorts block not found in catalog",
		}}
	}
	if matched != showing.Title {
		b.logger.Info("fuzzy matched shorts block",
			logging.String(logging.FieldTitle, showing.Title),
			logging.String("block", matched))
	}

	actions := make([]Action, 0, len(members))
	for n, member := range members {
		src, ok := FirstVideo(member, catalog.AssetFilm)
		if !ok {
			actions = append(actions, Action{
				Title:       member.DisplayName,
				Disposition: DispositionMissing,
				Detail:      "no film delivered for block member",
			})
			continue
		}
		dest := filepath.Join(showDir, fmt.Sprintf("%d_%s", n+1, filepath.Base(src)))
		actions = append(actions, b.place(src, dest, member.DisplayName))
	}
	return actions
}

// place copies src to dest, honoring the overwrite-only-if-larger rule.
func (b *Builder) place(src, dest, title string) Action {
	action := Action{Source: src, Dest: dest, Title: title}

	srcInfo, err := os.Stat(src)
	if err != nil {
		action.Disposition = DispositionFailed
		action.Detail = "stat source: " + err.Error()
		return action
	}

	overwrite := false
	if existing, err := os.Stat(dest); err == nil {
		if srcInfo.Size() <= existing.Size() || !b.cfg.Drives.OverwriteLarger {
			action.Disposition = DispositionSkipped
			action.Detail = "already on drive"
			return action
		}
		overwrite = true
	}

	if err := b.copyFile(src, dest, srcInfo.Size()); err != nil {
		action.Disposition = DispositionFailed
		action.Detail = "copy: " + err.Error()
		return action
	}
	if overwrite {
		action.Disposition = DispositionOverwritten
		action.Detail = fmt.Sprintf("replaced smaller copy with %s", humanize.IBytes(uint64(srcInfo.Size())))
	} else {
		action.Disposition = DispositionCopied
		action.Detail = humanize.IBytes(uint64(srcInfo.Size()))
	}
	b.logger.Info("copied to drive",
		logging.String(logging.FieldTitle, title),
		logging.String("dest", dest),
		logging.String("size", humanize.IBytes(uint64(srcInfo.Size()))))
	return action
}

// syncAux mirrors one catalog-root tree (sponsors, trailers) onto the
// drive, copying only what is not there yet. A missing source tree is
// normal for small festivals.
func (b *Builder) syncAux(ctx context.Context, tree, destRoot string, report *Report) error {
	srcRoot := filepath.Join(b.cfg.Paths.CatalogDir, tree)
	info, err := os.Stat(srcRoot)
	if err != nil || !info.IsDir() {
		b.logger.Debug("no aux tree to mirror", logging.String("tree", tree))
		return nil
	}

	return filepath.WalkDir(srcRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			b.logger.Warn("walk error", logging.String("path", path), logging.Error(err))
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || fetch.IsArtifact(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(srcRoot, path)
		if err != nil {
			return nil
		}
		dest := filepath.Join(destRoot, tree, rel)
		if _, err := os.Stat(dest); err == nil {
			report.AuxSkipped++
			return nil
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			report.Actions = append(report.Actions, Action{
				Source: path, Dest: dest,
				Disposition: DispositionFailed,
				Detail:      "create folder: " + err.Error(),
			})
			return nil
		}
		size := int64(0)
		if info, err := d.Info(); err == nil {
			size = info.Size()
		}
		if err := b.copyFile(path, dest, size); err != nil {
			report.Actions = append(report.Actions, Action{
				Source: path, Dest: dest,
				Disposition: DispositionFailed,
				Detail:      "copy: " + err.Error(),
			})
			return nil
		}
		report.Actions = append(report.Actions, Action{
			Source: path, Dest: dest,
			Disposition: DispositionCopied,
			Detail:      humanize.IBytes(uint64(size)),
		})
		return nil
	})
}

// copyFile runs a verified copy, with a progress bar for large files on a
// TTY.
func (b *Builder) copyFile(src, dest string, size int64) error {
	if b.showProgress && size >= progressMinBytes {
		bar := progressbar.DefaultBytes(size, filepath.Base(src))
		err := fileutil.CopyFileVerifiedProgress(src, dest, bar)
		_ = bar.Finish()
		return err
	}
	return fileutil.CopyFileVerified(src, dest)
}

// rollCall reconciles every distinct feature title on the schedule against
// the catalog at the list threshold.
func (b *Builder) rollCall(cat *catalog.Catalog, showings []Showing) []reconcile.Result {
	matcher := reconcile.NewMatcher(cat, reconcile.WithThreshold(b.cfg.Matching.ListThreshold))
	var titles []string
	seen := make(map[string]bool)
	for _, showing := range showings {
		if showing.Block() || seen[showing.Title] {
			continue
		}
		seen[showing.Title] = true
		titles = append(titles, showing.Title)
	}
	return matcher.MatchAll(titles)
}

// LookupTitle resolves a schedule title to a catalog entry, exact key first
// then fuzzy through the matcher.
func LookupTitle(cat *catalog.Catalog, matcher *reconcile.Matcher, title string) (catalog.Entry, bool) {
	if entry, ok := cat.Get(catalog.Normalize(title)); ok {
		return entry, true
	}
	result := matcher.Match(title)
	if result.Matched() {
		return cat.Get(result.MatchedKey)
	}
	return catalog.Entry{}, false
}

// FirstVideo returns the first delivered video file among the given asset
// groups, in group order.
func FirstVideo(entry catalog.Entry, kinds ...catalog.AssetKind) (string, bool) {
	for _, kind := range kinds {
		for _, asset := range entry.Assets[kind] {
			name := filepath.Base(asset)
			if fetch.IsArtifact(name) {
				continue
			}
			if videoExtensions[strings.ToLower(filepath.Ext(name))] {
				return asset, true
			}
		}
	}
	return "", false
}

// BlockMembers returns the shorts entries of the named block in running
// order, with the on-disk block name that actually matched so callers can
// surface fuzzy resolutions. Running order is the on-disk folder order,
// which festival staff control with numeric prefixes.
func BlockMembers(cat *catalog.Catalog, title string, threshold float64) ([]catalog.Entry, string) {
	key := catalog.Normalize(title)
	matched := title
	members := collectBlock(cat, func(block string) bool {
		return catalog.Normalize(block) == key
	})

	if len(members) == 0 {
		best, bestScore := "", 0.0
		seen := make(map[string]bool)
		for _, entry := range cat.Entries() {
			if entry.Kind != catalog.KindShort || entry.Block == "" || seen[entry.Block] {
				continue
			}
			seen[entry.Block] = true
			if score := textutil.Ratio(key, catalog.Normalize(entry.Block)); score > bestScore {
				best, bestScore = entry.Block, score
			}
		}
		if best != "" && bestScore >= threshold {
			matched = best
			members = collectBlock(cat, func(block string) bool { return block == best })
		}
	}

	sort.Slice(members, func(i, j int) bool {
		return filepath.Base(members[i].Path) < filepath.Base(members[j].Path)
	})
	return members, matched
}

func collectBlock(cat *catalog.Catalog, match func(block string) bool) []catalog.Entry {
	var members []catalog.Entry
	for _, entry := range cat.Entries() {
		if entry.Kind == catalog.KindShort && match(entry.Block) {
			members = append(members, entry)
		}
	}
	return members
}

func safeName(s string) string {
	return textutil.SafeFileName(s)
}
