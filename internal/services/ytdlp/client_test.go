package ytdlp

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewCLIWithBinary(t *testing.T) {
	cli := NewCLI(WithBinary("/opt/yt-dlp"))
	if cli.binary != "/opt/yt-dlp" {
		t.Fatalf("expected binary override to be applied, got %q", cli.binary)
	}
}

func TestDownloadRequiresURL(t *testing.T) {
	cli := NewCLI()
	if _, err := cli.Download(context.Background(), Request{OutputStem: "/tmp/x"}); err == nil {
		t.Fatal("expected error when url is empty")
	}
}

func TestDownloadRequiresOutputStem(t *testing.T) {
	cli := NewCLI()
	if _, err := cli.Download(context.Background(), Request{URL: "https://vimeo.com/1"}); err == nil {
		t.Fatal("expected error when output stem is empty")
	}
}

func TestDownloadBuildsExpectedArgs(t *testing.T) {
	var capturedArgs []string
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		capturedArgs = append([]string(nil), args...)
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "YTDLP_HELPER_MODE=success")
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})

	dir := t.TempDir()
	stem := filepath.Join(dir, "The Snare_film")
	if err := os.WriteFile(stem+".mp4", []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}

	req := Request{
		URL:                "https://vimeo.com/123",
		OutputStem:         stem,
		Password:           "snare2024",
		MaxHeight:          720,
		Retries:            2,
		CookieFile:         "/tmp/cookies.txt",
		CookiesFromBrowser: "firefox",
	}
	if _, err := NewCLI().Download(context.Background(), req); err != nil {
		t.Fatalf("Download returned error: %v", err)
	}

	joined := strings.Join(capturedArgs, " ")
	for _, want := range []string{
		"--no-playlist",
		"--retries 2",
		"bestvideo[height<=720]+bestaudio/best[height<=720]",
		"-o " + stem + ".%(ext)s",
		"--video-password snare2024",
		"--cookies /tmp/cookies.txt",
		"--cookies-from-browser firefox",
		"-- https://vimeo.com/123",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected args to contain %q, got %v", want, capturedArgs)
		}
	}
}

func TestDownloadSuccessReturnsLocatedFile(t *testing.T) {
	setHelperCommand(t, "success")

	dir := t.TempDir()
	stem := filepath.Join(dir, "clip")
	if err := os.WriteFile(stem+".webm", []byte("tiny"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(stem+".mp4", []byte("much larger merged output"), 0o644); err != nil {
		t.Fatal(err)
	}
	// In-progress artifacts never count as the final file.
	if err := os.WriteFile(stem+".mp4.part", []byte("partial"), 0o644); err != nil {
		t.Fatal(err)
	}

	path, err := NewCLI().Download(context.Background(), Request{URL: "https://vimeo.com/123", OutputStem: stem})
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	if path != stem+".mp4" {
		t.Fatalf("expected largest candidate, got %q", path)
	}
}

func TestDownloadSuccessWithoutFileFails(t *testing.T) {
	setHelperCommand(t, "success")

	stem := filepath.Join(t.TempDir(), "missing")
	_, err := NewCLI().Download(context.Background(), Request{URL: "https://vimeo.com/123", OutputStem: stem})
	if err == nil {
		t.Fatal("expected error when no output file exists")
	}
	if !strings.Contains(err.Error(), "no output file") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDownloadFailure(t *testing.T) {
	setHelperCommand(t, "failure")

	stem := filepath.Join(t.TempDir(), "clip")
	_, err := NewCLI().Download(context.Background(), Request{URL: "https://vimeo.com/123", OutputStem: stem})
	if err == nil {
		t.Fatal("expected download failure error")
	}
	if !strings.Contains(err.Error(), "yt-dlp failed") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func setHelperCommand(t *testing.T, mode string) {
	t.Helper()
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", fmt.Sprintf("YTDLP_HELPER_MODE=%s", mode))
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	switch os.Getenv("YTDLP_HELPER_MODE") {
	case "success":
		fmt.Println("[download] 100% of 10.00MiB")
		os.Exit(0)
	case "failure":
		fmt.Fprintln(os.Stderr, "ERROR: This video is password protected")
		os.Exit(1)
	default:
		os.Exit(0)
	}
}
