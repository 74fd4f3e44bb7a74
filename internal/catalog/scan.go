package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"matinee/internal/textutil"
)

const (
	featuresBucket = "Features"
	shortsBucket   = "Shorts"
)

// Scan walks the catalog root and returns a snapshot of every title
// directory. Features sit directly under Features/; shorts sit one block
// folder deeper under Shorts/<Block>/. A missing root or missing bucket
// yields an empty catalog, not an error: a festival that has not received
// anything yet is a normal state.
func Scan(root string) (*Catalog, error) {
	var entries []Entry

	featureEntries, err := scanBucket(filepath.Join(root, featuresBucket), KindFeature)
	if err != nil {
		return nil, fmt.Errorf("scan features: %w", err)
	}
	entries = append(entries, featureEntries...)

	blocks, err := listDirs(filepath.Join(root, shortsBucket))
	if err != nil {
		return nil, fmt.Errorf("scan shorts: %w", err)
	}
	for _, block := range blocks {
		blockEntries, err := scanBucket(block.path, KindShort)
		if err != nil {
			return nil, fmt.Errorf("scan shorts block %q: %w", block.name, err)
		}
		for i := range blockEntries {
			blockEntries[i].Block = block.name
		}
		entries = append(entries, blockEntries...)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Key != entries[j].Key {
			return entries[i].Key < entries[j].Key
		}
		return entries[i].DisplayName < entries[j].DisplayName
	})

	index := make(map[string]int, len(entries))
	for i, entry := range entries {
		if _, ok := index[entry.Key]; !ok {
			index[entry.Key] = i
		}
	}

	return &Catalog{entries: entries, index: index}, nil
}

func scanBucket(dir string, kind Kind) ([]Entry, error) {
	titleDirs, err := listDirs(dir)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(titleDirs))
	for _, title := range titleDirs {
		if _, reserved := ReservedAssetKind(title.name); reserved {
			continue
		}
		assets, err := scanAssets(title.path)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{
			DisplayName: title.name,
			Key:         textutil.NormalizeKey(title.name),
			Kind:        kind,
			Path:        title.path,
			Assets:      assets,
		})
	}
	return entries, nil
}

func scanAssets(titleDir string) (map[AssetKind][]string, error) {
	groups, err := listDirs(titleDir)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, nil
	}

	assets := make(map[AssetKind][]string, len(groups))
	for _, group := range groups {
		items, err := os.ReadDir(group.path)
		if err != nil {
			return nil, fmt.Errorf("read asset group %q: %w", group.path, err)
		}
		var files []string
		for _, item := range items {
			if item.IsDir() {
				continue
			}
			files = append(files, filepath.Join(group.path, item.Name()))
		}
		assets[AssetKind(group.name)] = files
	}
	return assets, nil
}

type dirRef struct {
	name string
	path string
}

func listDirs(dir string) ([]dirRef, error) {
	items, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read directory %q: %w", dir, err)
	}
	refs := make([]dirRef, 0, len(items))
	for _, item := range items {
		if !item.IsDir() {
			continue
		}
		refs = append(refs, dirRef{name: item.Name(), path: filepath.Join(dir, item.Name())})
	}
	return refs, nil
}
