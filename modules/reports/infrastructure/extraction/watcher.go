package extraction

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
)

// Browser download managers write partial files under these suffixes; a
// download is complete only once they are gone.
var tempSuffixes = []string{".crdownload", ".tmp"}

const pollInterval = time.Second

// WaitForDownloads blocks until at least one new .csv appears in dir and no
// temporary download artifacts remain, or until the timeout converts the wait
// into an explicit failure. Returns the newly completed file names.
func WaitForDownloads(ctx context.Context, dir string, timeout time.Duration) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	initial, err := listNames(dir)
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		names, err := listNames(dir)
		if err != nil {
			return nil, err
		}

		var pending bool
		var completed []string
		for name := range names {
			if hasTempSuffix(name) {
				pending = true
				continue
			}
			if _, seen := initial[name]; !seen && strings.HasSuffix(name, ".csv") {
				completed = append(completed, name)
			}
		}
		if !pending && len(completed) > 0 {
			return completed, nil
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("extraction: no completed download in %s after %s", dir, timeout)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func listNames(dir string) (map[string]struct{}, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names[e.Name()] = struct{}{}
		}
	}
	return names, nil
}

func hasTempSuffix(name string) bool {
	for _, s := range tempSuffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}
