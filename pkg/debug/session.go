package debug

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// sessionLayout formats the minute a session starts in as ddmmyy-hhmm.
const sessionLayout = "020106-1504"

// OpenSessionLog creates dir if needed and opens a fresh log file named
// <ddmmyy-hhmm>-<n>.log, where n is one more than the highest session
// already logged under the same minute prefix.
func OpenSessionLog(dir string, now time.Time) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating log dir: %w", err)
	}

	prefix := now.Format(sessionLayout)
	n, err := nextSessionNumber(dir, prefix)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(dir, fmt.Sprintf("%s-%d.log", prefix, n))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening session log: %w", err)
	}
	return f, nil
}

func nextSessionNumber(dir, prefix string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("reading log dir: %w", err)
	}

	highest := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, prefix+"-") || !strings.HasSuffix(name, ".log") {
			continue
		}
		num := strings.TrimSuffix(strings.TrimPrefix(name, prefix+"-"), ".log")
		if n, err := strconv.Atoi(num); err == nil && n > highest {
			highest = n
		}
	}
	return highest + 1, nil
}
