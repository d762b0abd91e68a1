package tools

import (
	"os"
	"path/filepath"
	"strings"
)

// toolOutputLimit caps what a single tool hands back to the model.
const toolOutputLimit = 10_000

func truncate(s string) string {
	if len(s) <= toolOutputLimit {
		return s
	}
	return s[:toolOutputLimit] + "\n... (output truncated)"
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
