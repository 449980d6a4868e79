//go:build ORT

package provider

import (
	"os"
	"path/filepath"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/options"
)

func newHugotSession() (*hugot.Session, error) {
	var opts []options.WithOption
	if dir := onnxLibraryDir(); dir != "" {
		opts = append(opts, options.WithOnnxLibraryPath(dir))
	}
	return hugot.NewORTSession(opts...)
}

// onnxLibraryDir returns ORT_LIB_DIR, or a lib/ directory next to the
// executable or in the working directory. Empty means hugot's default.
func onnxLibraryDir() string {
	if dir := os.Getenv("ORT_LIB_DIR"); dir != "" {
		return dir
	}

	var roots []string
	if exe, err := os.Executable(); err == nil {
		roots = append(roots, filepath.Dir(exe))
	}
	if wd, err := os.Getwd(); err == nil {
		roots = append(roots, wd)
	}
	for _, root := range roots {
		lib := filepath.Join(root, "lib")
		if info, err := os.Stat(lib); err == nil && info.IsDir() {
			return lib
		}
	}
	return ""
}
