package fetch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPlanJobOrder(t *testing.T) {
	const minComplete = 100

	tests := []struct {
		name  string
		files map[string]int // name -> size in bytes
		want  action
	}{
		{
			name:  "empty directory",
			files: map[string]int{},
			want:  actionFresh,
		},
		{
			name:  "stub wins over everything",
			files: map[string]int{"film_film.mp4.stub": 0, "film_film.mp4": 5000, "film_film.mp4.part": 50},
			want:  actionSkipStub,
		},
		{
			name:  "bare stub without media extension",
			files: map[string]int{"film_film.stub": 0},
			want:  actionSkipStub,
		},
		{
			name:  "stub match is case insensitive",
			files: map[string]int{"Film_Film.MP4.STUB": 0},
			want:  actionSkipStub,
		},
		{
			name:  "complete file above threshold",
			files: map[string]int{"film_film.mp4": 5000},
			want:  actionSkipComplete,
		},
		{
			name:  "undersized file does not count as complete",
			files: map[string]int{"film_film.mp4": 10},
			want:  actionFresh,
		},
		{
			name:  "partial artifact resumes",
			files: map[string]int{"film_film.mp4.part": 40},
			want:  actionResume,
		},
		{
			name:  "complete beats partial",
			files: map[string]int{"film_film.mp4": 5000, "film_film.mov.part": 40},
			want:  actionSkipComplete,
		},
		{
			name:  "unrelated files ignored",
			files: map[string]int{"other_film.mp4": 5000, "notes.txt": 10},
			want:  actionFresh,
		},
		{
			name:  "extractor bookkeeping ignored",
			files: map[string]int{"film_film.mp4.ytdl": 10},
			want:  actionFresh,
		},
		{
			name:  "empty partial starts fresh",
			files: map[string]int{"film_film.mp4.part": 0},
			want:  actionFresh,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, size := range tt.files {
				if err := os.WriteFile(filepath.Join(dir, name), []byte(strings.Repeat("x", size)), 0o644); err != nil {
					t.Fatal(err)
				}
			}

			got, err := planJob(filepath.Join(dir, "film_film"), minComplete)
			if err != nil {
				t.Fatalf("planJob returned error: %v", err)
			}
			if got.action != tt.want {
				t.Fatalf("planJob action = %d, want %d", got.action, tt.want)
			}
		})
	}
}

func TestPlanJobResumeOffset(t *testing.T) {
	dir := t.TempDir()
	part := filepath.Join(dir, "film_film.mp4.part")
	if err := os.WriteFile(part, []byte(strings.Repeat("x", 37)), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := planJob(filepath.Join(dir, "film_film"), 100)
	if err != nil {
		t.Fatalf("planJob returned error: %v", err)
	}
	if got.action != actionResume {
		t.Fatalf("expected resume, got %d", got.action)
	}
	if got.path != part {
		t.Fatalf("unexpected part path: %q", got.path)
	}
	if got.offset != 37 {
		t.Fatalf("unexpected offset: %d", got.offset)
	}
}

func TestPlanJobMissingDirectoryIsFresh(t *testing.T) {
	got, err := planJob(filepath.Join(t.TempDir(), "absent", "film_film"), 100)
	if err != nil {
		t.Fatalf("planJob returned error: %v", err)
	}
	if got.action != actionFresh {
		t.Fatalf("expected fresh, got %d", got.action)
	}
}
