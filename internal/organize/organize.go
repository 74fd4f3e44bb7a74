package organize

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"matinee/internal/catalog"
	"matinee/internal/config"
	"matinee/internal/fetch"
	"matinee/internal/fileutil"
	"matinee/internal/logging"
	"matinee/internal/reconcile"
	"matinee/internal/services"
	"matinee/internal/textutil"
)

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".tif": true,
	".tiff": true, ".webp": true, ".heic": true, ".bmp": true, ".gif": true,
}

var videoExtensions = map[string]bool{
	".mp4": true, ".mov": true, ".m4v": true,
	".mkv": true, ".webm": true, ".avi": true,
}

// Disposition is the terminal state of one staging file.
type Disposition string

const (
	// DispositionMoved means the file was relocated into the tree.
	DispositionMoved Disposition = "moved"
	// DispositionCopied means the file was duplicated into the tree.
	DispositionCopied Disposition = "copied"
	// DispositionSkipped means an equal-or-larger target already exists.
	DispositionSkipped Disposition = "skipped"
	// DispositionUnmatched means no catalog title claims the file.
	DispositionUnmatched Disposition = "unmatched"
	// DispositionUnclassified means no asset kind could be derived.
	DispositionUnclassified Disposition = "unclassified"
	// DispositionFailed means the transfer itself went wrong.
	DispositionFailed Disposition = "failed"
)

// Action records what happened to one staging file.
type Action struct {
	Source      string
	Dest        string
	Title       string
	Kind        catalog.AssetKind
	Disposition Disposition
	Detail      string
}

// Summary aggregates one organize pass.
type Summary struct {
	Actions []Action
}

// Counts tallies actions by disposition.
func (s *Summary) Counts() map[Disposition]int {
	counts := make(map[Disposition]int)
	for _, a := range s.Actions {
		counts[a.Disposition]++
	}
	return counts
}

// Options controls how staging files enter the tree.
type Options struct {
	// CopyOnly duplicates files instead of moving them.
	CopyOnly bool
	// LeaveStubs drops a stub sentinel next to each source so the fetcher
	// treats the asset as already handled.
	LeaveStubs bool
}

// Organizer routes loose deliveries into the asset tree.
type Organizer struct {
	cfg    *config.Config
	logger *slog.Logger
}

// New builds an Organizer from configuration.
func New(cfg *config.Config, logger *slog.Logger) *Organizer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Organizer{cfg: cfg, logger: logging.NewComponentLogger(logger, "organize")}
}

// Run walks stagingDir and files every claimable delivery into the catalog
// tree. Files that match no title or no asset kind stay put and are
// reported, never treated as errors.
func (o *Organizer) Run(ctx context.Context, cat *catalog.Catalog, stagingDir string, opts Options) (*Summary, error) {
	info, err := os.Stat(stagingDir)
	if err != nil || !info.IsDir() {
		return nil, services.Wrap(services.ErrValidation, "organize", "stat staging",
			fmt.Sprintf("staging directory %s is not usable", stagingDir), err)
	}

	matcher := reconcile.NewMatcher(cat, reconcile.WithThreshold(o.cfg.Matching.AssetThreshold))

	summary := &Summary{}
	walkErr := filepath.WalkDir(stagingDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			o.logger.Warn("walk error", logging.String("path", path), logging.Error(err))
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || fetch.IsArtifact(d.Name()) {
			return nil
		}
		summary.Actions = append(summary.Actions, o.placeFile(cat, matcher, path, opts))
		return nil
	})
	if walkErr != nil {
		return summary, walkErr
	}

	counts := summary.Counts()
	o.logger.Info("organize complete",
		logging.Int("moved", counts[DispositionMoved]),
		logging.Int("copied", counts[DispositionCopied]),
		logging.Int("skipped", counts[DispositionSkipped]),
		logging.Int("unmatched", counts[DispositionUnmatched]),
		logging.Int("unclassified", counts[DispositionUnclassified]),
		logging.Int("failed", counts[DispositionFailed]))
	return summary, nil
}

func (o *Organizer) placeFile(cat *catalog.Catalog, matcher *reconcile.Matcher, path string, opts Options) Action {
	name := filepath.Base(path)
	action := Action{Source: path}

	kind, ok := ClassifyName(name)
	if !ok {
		action.Disposition = DispositionUnclassified
		action.Detail = "no asset kind derivable from name or extension"
		return action
	}
	action.Kind = kind

	entry, ok := resolveTitle(cat, matcher, name)
	if !ok {
		action.Disposition = DispositionUnmatched
		action.Detail = "no catalog title claims this file"
		return action
	}
	action.Title = entry.DisplayName

	destDir := filepath.Join(entry.Path, string(kind))
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		action.Disposition = DispositionFailed
		action.Detail = "create asset folder: " + err.Error()
		return action
	}
	dest := filepath.Join(destDir, name)
	action.Dest = dest

	if existing, err := os.Stat(dest); err == nil {
		src, srcErr := os.Stat(path)
		if srcErr != nil || src.Size() <= existing.Size() {
			action.Disposition = DispositionSkipped
			action.Detail = "target exists and is not smaller"
			return action
		}
	}

	if opts.CopyOnly {
		if err := fileutil.CopyFileVerified(path, dest); err != nil {
			action.Disposition = DispositionFailed
			action.Detail = "copy: " + err.Error()
			return action
		}
		action.Disposition = DispositionCopied
	} else {
		if err := fileutil.MoveFile(path, dest); err != nil {
			action.Disposition = DispositionFailed
			action.Detail = "move: " + err.Error()
			return action
		}
		action.Disposition = DispositionMoved
	}

	if opts.LeaveStubs {
		if err := touchStub(path + fetch.StubSuffix); err != nil {
			o.logger.Warn("stub sentinel failed", logging.String("path", path), logging.Error(err))
		}
	}

	o.logger.Info("filed delivery",
		logging.String(logging.FieldTitle, entry.DisplayName),
		logging.String("kind", string(kind)),
		logging.String("dest", dest))
	return action
}

// ClassifyName derives the asset kind for a file: name hints beat extension
// classes, matching the festival delivery conventions.
func ClassifyName(name string) (catalog.AssetKind, bool) {
	lower := strings.ToLower(name)
	ext := filepath.Ext(lower)
	switch {
	case strings.Contains(lower, "trailer"):
		return catalog.AssetTrailer, true
	case strings.Contains(lower, "poster"):
		return catalog.AssetPosters, true
	case strings.Contains(lower, "screener") || strings.Contains(lower, "screening"):
		return catalog.AssetScreener, true
	case imageExtensions[ext]:
		return catalog.AssetStills, true
	case videoExtensions[ext]:
		return catalog.AssetFilm, true
	default:
		return "", false
	}
}

// resolveTitle finds the catalog entry a file belongs to. Exact key
// containment wins (longest key first, so "the gala sequel" beats "the
// gala"); a fuzzy match against the whole stem is the fallback.
func resolveTitle(cat *catalog.Catalog, matcher *reconcile.Matcher, name string) (catalog.Entry, bool) {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	key := textutil.NormalizeKey(stem)

	var best catalog.Entry
	bestLen := 0
	for _, entry := range cat.Entries() {
		if entry.Key != "" && strings.Contains(key, entry.Key) && len(entry.Key) > bestLen {
			best = entry
			bestLen = len(entry.Key)
		}
	}
	if bestLen > 0 {
		return best, true
	}

	result := matcher.Match(stem)
	if result.Matched() {
		if entry, ok := cat.Get(result.MatchedKey); ok {
			return entry, true
		}
	}
	return catalog.Entry{}, false
}

func touchStub(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	return f.Close()
}
