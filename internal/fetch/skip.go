package fetch

import (
	"os"
	"path/filepath"
	"strings"
)

// StubSuffix marks a file as already processed and relocated by a later
// stage. A stub colocated with the destination suppresses re-download.
const StubSuffix = ".stub"

// IsArtifact reports whether a file name is download bookkeeping (stub
// sentinel, partial transfer, extractor state) rather than a delivered
// asset. Every stage that walks the asset tree uses this filter.
func IsArtifact(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, StubSuffix) ||
		strings.HasSuffix(lower, ".part") ||
		strings.HasSuffix(lower, ".ytdl")
}

type action int

const (
	actionFresh action = iota
	actionResume
	actionSkipStub
	actionSkipComplete
)

// plan is the pre-network decision for one job. The checks run in fixed
// order: stub, completed file, partial artifact, fresh download. Reordering
// them breaks the idempotency guarantees re-runs depend on.
type plan struct {
	action action
	// path is the stub, completed file, or partial artifact that decided
	// the action; empty for a fresh download.
	path string
	// offset is the byte position to resume from.
	offset int64
}

// planJob inspects the destination directory before any network call. The
// final extension is unknown until response headers arrive, so matching is
// by extension-stripped base name, case-insensitively.
func planJob(stem string, minComplete int64) (plan, error) {
	dir := filepath.Dir(stem)
	base := strings.ToLower(filepath.Base(stem))

	items, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return plan{action: actionFresh}, nil
		}
		return plan{}, err
	}

	var (
		completePath string
		completeSize int64 = -1
		partPath     string
		partSize     int64 = -1
	)
	for _, item := range items {
		if item.IsDir() {
			continue
		}
		name := item.Name()
		lower := strings.ToLower(name)
		if lower != base && !strings.HasPrefix(lower, base+".") {
			continue
		}

		if strings.HasSuffix(lower, StubSuffix) {
			return plan{action: actionSkipStub, path: filepath.Join(dir, name)}, nil
		}

		info, err := item.Info()
		if err != nil {
			continue
		}
		switch {
		case strings.HasSuffix(lower, ".part"):
			if info.Size() > partSize {
				partSize = info.Size()
				partPath = filepath.Join(dir, name)
			}
		case strings.HasSuffix(lower, ".ytdl"):
			// Extractor bookkeeping, neither complete nor resumable here.
		default:
			if info.Size() > completeSize {
				completeSize = info.Size()
				completePath = filepath.Join(dir, name)
			}
		}
	}

	if completePath != "" && completeSize >= minComplete {
		return plan{action: actionSkipComplete, path: completePath, offset: completeSize}, nil
	}
	if partPath != "" && partSize > 0 {
		return plan{action: actionResume, path: partPath, offset: partSize}, nil
	}
	return plan{action: actionFresh}, nil
}
