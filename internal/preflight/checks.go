package preflight

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"matinee/internal/sheet"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSheet verifies that the submissions sheet is reachable. Remote sheets
// are probed through their CSV export endpoint; a sign-in page in place of
// CSV means the sheet is not shared with link access.
func CheckSheet(ctx context.Context, source string) Result {
	const name = "Submissions sheet"

	source = strings.TrimSpace(source)
	if source == "" {
		return Result{Name: name, Detail: "missing url"}
	}

	export := sheet.ExportURL(source)
	if !strings.HasPrefix(export, "http://") && !strings.HasPrefix(export, "https://") {
		info, err := os.Stat(source)
		if err != nil {
			if os.IsNotExist(err) {
				return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", source)}
			}
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", source, err)}
		}
		if info.IsDir() {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", source)}
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (local file)", source)}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client := &http.Client{Timeout: 10 * time.Second}
	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, export, nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("reachability check failed (%v)", err)}
	}

	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("reachability check failed (%v)", err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return Result{Name: name, Detail: "access denied (share the sheet with link access)"}
	case resp.StatusCode >= 300:
		return Result{Name: name, Detail: fmt.Sprintf("export returned status %d", resp.StatusCode)}
	case strings.Contains(resp.Header.Get("Content-Type"), "html"):
		return Result{Name: name, Detail: "export returned a sign-in page (share the sheet with link access)"}
	}
	return Result{Name: name, Passed: true, Detail: "Reachable"}
}
