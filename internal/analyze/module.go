package analyze

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"
)

// FindModule walks up from start (a file or directory) looking for the
// enclosing go.mod, and returns the declared module path plus the module
// root directory. Not being inside a module is not an error: all three
// return values are then zero.
func FindModule(start string) (path, root string, err error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", "", fmt.Errorf("analyze: %w", err)
	}
	if info, statErr := os.Stat(abs); statErr == nil && !info.IsDir() {
		abs = filepath.Dir(abs)
	}

	for dir := abs; ; {
		data, readErr := os.ReadFile(filepath.Join(dir, "go.mod"))
		if readErr == nil {
			f, parseErr := modfile.Parse("go.mod", data, nil)
			if parseErr != nil {
				return "", "", fmt.Errorf("analyze: parse %s: %w",
					filepath.Join(dir, "go.mod"), parseErr)
			}
			if f.Module == nil {
				return "", dir, nil
			}
			return f.Module.Mod.Path, dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", "", nil
		}
		dir = parent
	}
}
