package index

import (
	"os"
	"path/filepath"
	"strings"

	"funls/internal/shared/util"
)

// EnvPathVar is the platform-delimited list of extra library directories,
// consulted only when the configuration enables it.
const EnvPathVar = "FUNPATH"

// libDirName is an optional workspace subdirectory that, when present, is
// consulted before user-configured search paths.
const libDirName = "lib"

// ComputeSearchRoots builds the ordered list of absolute directories used
// to derive module names: workspace root first, then the workspace lib/
// directory if it exists, then configured extra directories, then FUNPATH
// entries when enabled. Duplicates keep their first (highest-priority)
// position.
func ComputeSearchRoots(workspaceRoot string, extraPaths []string, useEnvPath bool) []string {
	candidates := make([]string, 0, 2+len(extraPaths))
	candidates = append(candidates, workspaceRoot)

	if workspaceRoot != "" {
		libDir := filepath.Join(workspaceRoot, libDirName)
		if info, err := os.Stat(libDir); err == nil && info.IsDir() {
			candidates = append(candidates, libDir)
		}
	}

	for _, p := range extraPaths {
		candidates = append(candidates, expandPath(p, workspaceRoot))
	}

	if useEnvPath {
		candidates = append(candidates, filepath.SplitList(os.Getenv(EnvPathVar))...)
	}

	return util.UniquePaths(candidates)
}

// expandPath resolves a configured directory: ~ expands against the user
// home, relative paths resolve against the workspace root.
func expandPath(path, workspaceRoot string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if path == "~" || strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		home, err := os.UserHomeDir()
		if err == nil && home != "" {
			return filepath.Join(home, path[1:])
		}
		return ""
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(workspaceRoot, path)
}
