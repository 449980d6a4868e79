// Command download-model fetches the ONNX sentiment model used by the
// local classifier.
//
// With no argument the model is written under ~/.factual/models, where
// factual looks by default. Pass infrastructure/provider/models to stage it
// for a build with the embed_model tag.
//
// Usage: download-model [dest] [model]
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knights-analytics/hugot"

	"github.com/helixml/factual/internal/config"
)

const attempts = 4

func main() {
	dest := config.DefaultModelDir()
	if len(os.Args) > 1 {
		dest = os.Args[1]
	}
	model := config.DefaultSentimentModel
	if len(os.Args) > 2 {
		model = os.Args[2]
	}

	if err := os.MkdirAll(dest, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "create directory: %v\n", err)
		os.Exit(1)
	}

	if path, ok := present(dest, model); ok {
		fmt.Printf("Model already present at %s\n", path)
		return
	}

	fmt.Printf("Downloading %s to %s...\n", model, dest)

	opts := hugot.NewDownloadOptions()
	opts.OnnxFilePath = "model.onnx"

	var (
		modelPath string
		err       error
	)
	delay := 2 * time.Second
	for i := range attempts {
		if i > 0 {
			fmt.Fprintf(os.Stderr, "retry in %s: %v\n", delay, err)
			time.Sleep(delay)
			delay *= 2
		}
		if modelPath, err = hugot.DownloadModel(model, dest, opts); err == nil {
			break
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "download model: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Model ready at %s\n", modelPath)
}

// present reports whether a previous download left a tokenizer in dest.
// Models are stored under the repository name with "/" replaced by "_".
func present(dest, model string) (string, bool) {
	path := filepath.Join(dest, strings.ReplaceAll(model, "/", "_"))
	if _, err := os.Stat(filepath.Join(path, "tokenizer.json")); err != nil {
		return "", false
	}
	return path, true
}
