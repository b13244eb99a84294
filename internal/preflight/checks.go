package preflight

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"redub/internal/config"
)

// minFreeBytes is the free space floor for the work directory. Intermediate
// WAV files for an hour of video run to several gigabytes.
const minFreeBytes = 2 << 30

// CheckDirectoryAccess verifies the work and log directories exist and are
// readable, writable, and traversable.
func CheckDirectoryAccess(cfg *config.Config) []Result {
	checks := []struct {
		name string
		path string
	}{
		{"Work directory", cfg.Paths.WorkDir},
		{"Log directory", cfg.Paths.LogDir},
	}

	results := make([]Result, 0, len(checks))
	for _, check := range checks {
		results = append(results, checkDirectory(check.name, check.path))
	}
	return results
}

func checkDirectory(name, path string) Result {
	result := Result{Name: name}
	if path == "" {
		result.Detail = "path not configured"
		return result
	}

	info, err := os.Stat(path)
	if err != nil {
		result.Detail = fmt.Sprintf("stat %s: %v", path, err)
		return result
	}
	if !info.IsDir() {
		result.Detail = fmt.Sprintf("%s is not a directory", path)
		return result
	}

	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		result.Detail = fmt.Sprintf("insufficient permissions on %s: %v", path, err)
		return result
	}

	result.Passed = true
	result.Detail = path
	return result
}

// CheckDiskSpace verifies the work directory filesystem has headroom for
// intermediate audio artifacts.
func CheckDiskSpace(cfg *config.Config) Result {
	result := Result{Name: "Disk space"}
	if cfg.Paths.WorkDir == "" {
		result.Detail = "work directory not configured"
		return result
	}

	var stat unix.Statfs_t
	if err := unix.Statfs(cfg.Paths.WorkDir, &stat); err != nil {
		result.Detail = fmt.Sprintf("statfs %s: %v", cfg.Paths.WorkDir, err)
		return result
	}

	free := stat.Bavail * uint64(stat.Bsize)
	result.Detail = fmt.Sprintf("%.1f GiB free", float64(free)/float64(1<<30))
	if free < minFreeBytes {
		result.Detail += fmt.Sprintf(" (need at least %d GiB)", minFreeBytes>>30)
		return result
	}

	result.Passed = true
	return result
}
