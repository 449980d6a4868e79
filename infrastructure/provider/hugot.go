package provider

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"

	"github.com/helixml/factual/domain/sentiment"
)

const hugotBatchMax = 10

// DefaultPositiveLabel is the positive class label of SST-2 style models.
const DefaultPositiveLabel = "POSITIVE"

// fallbackPositiveLabels are tried when the configured label is absent
// from a model's output.
var fallbackPositiveLabels = []string{"LABEL_1", "POS", "POSITIVE"}

// ortSingleton holds the process-wide ONNX Runtime session and pipeline.
// ORT only allows one active session per process. The mutex serializes
// both initialization and inference (ORT is not thread-safe).
var ortSingleton struct {
	session  *hugot.Session
	pipeline *pipelines.TextClassificationPipeline
	encoder  tokenEncoder
	mu       sync.Mutex
	ready    bool
}

// tokenEncoder splits text into model tokens with byte offsets into the
// input.
type tokenEncoder interface {
	EncodeSingle(input string, addSpecialTokensOpt ...bool) (*tokenizer.Encoding, error)
}

// specialTokens is the number of positions taken by [CLS] and [SEP].
const specialTokens = 2

// HugotSentiment classifies text with a local sequence classification
// model run through hugot.
//
// The model can come from two sources (checked in order):
//  1. Model files on disk: a subdirectory of modelDir containing tokenizer.json.
//  2. Statically embedded in the binary (build tag embed_model), extracted to
//     modelDir on first use.
type HugotSentiment struct {
	modelDir      string
	positiveLabel string
	maxLength     int
}

// HugotOption configures a HugotSentiment.
type HugotOption func(*HugotSentiment)

// WithPositiveLabel sets the label whose score is the positive probability.
func WithPositiveLabel(label string) HugotOption {
	return func(h *HugotSentiment) {
		if label != "" {
			h.positiveLabel = label
		}
	}
}

// WithHugotMaxLength caps the number of model tokens classified per text,
// special tokens included.
func WithHugotMaxLength(n int) HugotOption {
	return func(h *HugotSentiment) { h.maxLength = n }
}

// NewHugotSentiment creates a classifier that looks for model files in
// modelDir. The model is loaded lazily on first use.
func NewHugotSentiment(modelDir string, opts ...HugotOption) *HugotSentiment {
	h := &HugotSentiment{
		modelDir:      modelDir,
		positiveLabel: DefaultPositiveLabel,
		maxLength:     sentiment.DefaultMaxLength,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Available reports whether a usable model exists, either compiled into
// the binary or present on disk in modelDir.
func (h *HugotSentiment) Available() bool {
	if hasEmbeddedModel {
		return true
	}
	_, err := h.diskModelPath()
	return err == nil
}

// Warm loads the model ahead of the first request.
func (h *HugotSentiment) Warm() error {
	if err := h.initialize(); err != nil {
		return fmt.Errorf("%w: %w", sentiment.ErrUnavailable, err)
	}
	return nil
}

func (h *HugotSentiment) initialize() error {
	ortSingleton.mu.Lock()
	defer ortSingleton.mu.Unlock()

	if ortSingleton.ready {
		return nil
	}

	modelPath, err := h.resolveModelPath()
	if err != nil {
		return err
	}

	session, err := newHugotSession()
	if err != nil {
		return fmt.Errorf("create hugot session: %w", err)
	}

	config := hugot.TextClassificationConfig{
		ModelPath: modelPath,
		Name:      "sentiment",
		Options: []hugot.TextClassificationOption{
			pipelines.WithSoftmax(),
			pipelines.WithMultiLabel(),
		},
	}
	pipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		_ = session.Destroy()
		return fmt.Errorf("create text classification pipeline: %w", err)
	}

	// Without a readable tokenizer, texts are cut by words instead.
	if tk, tkErr := pretrained.FromFile(filepath.Join(modelPath, "tokenizer.json")); tkErr == nil {
		ortSingleton.encoder = tk
	}

	ortSingleton.session = session
	ortSingleton.pipeline = pipeline
	ortSingleton.ready = true
	return nil
}

// resolveModelPath prefers model files on disk and falls back to
// extracting the embedded model when one is compiled in.
func (h *HugotSentiment) resolveModelPath() (string, error) {
	if diskPath, err := h.diskModelPath(); err == nil {
		return diskPath, nil
	}

	if !hasEmbeddedModel {
		return "", fmt.Errorf("no model found in %s and no embedded model compiled in (run download-model or build with -tags embed_model)", h.modelDir)
	}

	if err := os.MkdirAll(h.modelDir, 0o755); err != nil {
		return "", fmt.Errorf("create model directory: %w", err)
	}

	return extractEmbeddedModel(embeddedModelFS, h.modelDir)
}

// diskModelPath looks for a subdirectory of modelDir containing
// tokenizer.json, or modelDir itself when it holds one.
func (h *HugotSentiment) diskModelPath() (string, error) {
	if _, err := os.Stat(filepath.Join(h.modelDir, "tokenizer.json")); err == nil {
		return h.modelDir, nil
	}
	entries, err := os.ReadDir(h.modelDir)
	if err != nil {
		return "", fmt.Errorf("read model directory %s: %w", h.modelDir, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		candidate := filepath.Join(h.modelDir, entry.Name())
		if _, statErr := os.Stat(filepath.Join(candidate, "tokenizer.json")); statErr == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no model subdirectory with tokenizer.json found in %s", h.modelDir)
}

// extractEmbeddedModel writes the embedded model files under targetDir and
// returns the model subdirectory.
func extractEmbeddedModel(embedded fs.FS, targetDir string) (string, error) {
	modelsFS, err := fs.Sub(embedded, "models")
	if err != nil {
		return "", fmt.Errorf("access embedded models: %w", err)
	}

	entries, err := fs.ReadDir(modelsFS, ".")
	if err != nil {
		return "", fmt.Errorf("read embedded models: %w", err)
	}

	var modelSubdir string
	for _, entry := range entries {
		if entry.IsDir() {
			modelSubdir = entry.Name()
			break
		}
	}
	if modelSubdir == "" {
		return "", fmt.Errorf("no model directory found in embedded models")
	}

	modelPath := filepath.Join(targetDir, modelSubdir)
	if _, statErr := os.Stat(filepath.Join(modelPath, "tokenizer.json")); statErr == nil {
		return modelPath, nil
	}

	modelFS, err := fs.Sub(modelsFS, modelSubdir)
	if err != nil {
		return "", fmt.Errorf("access model subdirectory: %w", err)
	}

	err = fs.WalkDir(modelFS, ".", func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		target := filepath.Join(modelPath, path)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, readErr := fs.ReadFile(modelFS, path)
		if readErr != nil {
			return fmt.Errorf("read embedded file %s: %w", path, readErr)
		}
		if mkdirErr := os.MkdirAll(filepath.Dir(target), 0o755); mkdirErr != nil {
			return fmt.Errorf("create directory for %s: %w", path, mkdirErr)
		}
		return os.WriteFile(target, data, 0o644)
	})
	if err != nil {
		return "", fmt.Errorf("extract embedded model: %w", err)
	}

	return modelPath, nil
}

// Positive implements sentiment.Classifier. Texts are truncated to the
// configured token count and classified in batches of at most ten.
func (h *HugotSentiment) Positive(ctx context.Context, texts []string) ([]float64, error) {
	if len(texts) == 0 {
		return []float64{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := h.initialize(); err != nil {
		return nil, fmt.Errorf("%w: initialize hugot: %w", sentiment.ErrUnavailable, err)
	}

	out := make([]float64, 0, len(texts))
	for start := 0; start < len(texts); start += hugotBatchMax {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+hugotBatchMax, len(texts))

		scores, err := h.classify(texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, scores...)
	}
	return out, nil
}

// truncateTokens returns the longest prefix of text that encodes to at most
// maxLength tokens once [CLS] and [SEP] are added. It falls back to word
// truncation when no encoder is loaded or encoding fails.
func truncateTokens(enc tokenEncoder, text string, maxLength int) string {
	if maxLength <= 0 {
		return text
	}
	if enc == nil {
		return sentiment.Truncate(text, maxLength)
	}
	keep := max(maxLength-specialTokens, 1)
	encoding, err := enc.EncodeSingle(text, false)
	if err != nil {
		return sentiment.Truncate(text, maxLength)
	}
	if len(encoding.Offsets) <= keep {
		return text
	}
	last := encoding.Offsets[keep-1]
	if len(last) != 2 || last[1] <= 0 || last[1] > len(text) {
		return sentiment.Truncate(text, maxLength)
	}
	return text[:last[1]]
}

func (h *HugotSentiment) classify(batch []string) ([]float64, error) {
	ortSingleton.mu.Lock()
	defer ortSingleton.mu.Unlock()

	truncated := make([]string, len(batch))
	for i, t := range batch {
		truncated[i] = truncateTokens(ortSingleton.encoder, t, h.maxLength)
	}

	result, err := ortSingleton.pipeline.RunPipeline(truncated)
	if err != nil {
		return nil, NewProviderError("classify", 0, "run text classification pipeline", err)
	}
	if len(result.ClassificationOutputs) != len(batch) {
		return nil, NewProviderError("classify", 0,
			fmt.Sprintf("got %d outputs for %d texts", len(result.ClassificationOutputs), len(batch)), nil)
	}

	scores := make([]float64, len(batch))
	for i, labels := range result.ClassificationOutputs {
		scores[i] = positiveScore(labels, h.positiveLabel)
	}
	return scores, nil
}

// positiveScore finds the positive label among the classifier outputs.
// When only the winning label is reported and it is not positive, the
// positive probability is its complement.
func positiveScore(outputs []pipelines.ClassificationOutput, positiveLabel string) float64 {
	labels := append([]string{positiveLabel}, fallbackPositiveLabels...)
	for _, want := range labels {
		for _, o := range outputs {
			if strings.EqualFold(o.Label, want) {
				return float64(o.Score)
			}
		}
	}
	if len(outputs) == 1 {
		return 1 - float64(outputs[0].Score)
	}
	return 0
}

// Close is a no-op. The ONNX Runtime session is process-global and is
// released when the process exits.
func (h *HugotSentiment) Close() error {
	return nil
}

var _ sentiment.Classifier = (*HugotSentiment)(nil)
