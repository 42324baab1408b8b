package retention

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Target is a directory and the maximum age of the files kept in it.
type Target struct {
	Dir    string
	MaxAge time.Duration
}

// Report summarizes one sweep of a directory.
type Report struct {
	Dir     string
	Scanned int
	Removed int
	Failed  int
}

// Sweep removes every regular file in dir last modified more than maxAge ago.
func Sweep(dir string, maxAge time.Duration) Report {
	return SweepAt(dir, maxAge, time.Now())
}

// SweepAt is Sweep with an explicit reference time. Entries that are not
// regular files are skipped and a failed removal does not stop the sweep.
func SweepAt(dir string, maxAge time.Duration, now time.Time) Report {
	report := Report{Dir: dir}

	entries, err := os.ReadDir(dir)
	if err != nil {
		slog.Warn("retention sweep: cannot list directory", "dir", dir, "error", err)
		return report
	}

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		report.Scanned++

		info, err := entry.Info()
		if err != nil {
			// removed concurrently
			continue
		}
		if now.Sub(info.ModTime()) <= maxAge {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			report.Failed++
			slog.Warn("retention sweep: failed to delete file", "path", path, "error", err)
			continue
		}
		report.Removed++
		slog.Debug("retention sweep: deleted file", "path", path, "age", now.Sub(info.ModTime()).Round(time.Second))
	}

	if report.Removed > 0 || report.Failed > 0 {
		slog.Info("retention sweep finished",
			"dir", dir,
			"scanned", report.Scanned,
			"removed", report.Removed,
			"failed", report.Failed,
		)
	}
	return report
}

// SweepTargets sweeps each target in order.
func SweepTargets(targets ...Target) []Report {
	reports := make([]Report, 0, len(targets))
	for _, t := range targets {
		reports = append(reports, Sweep(t.Dir, t.MaxAge))
	}
	return reports
}
