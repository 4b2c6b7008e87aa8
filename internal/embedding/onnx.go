//go:build cgo
// +build cgo

package embedding

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"sync"

	"github.com/hyperjump/gazo/pkg/utils"
	ort "github.com/yalue/onnxruntime_go"
)

// ONNXEmbedder runs a CLIP-style dual encoder with ONNX Runtime. It requires CGO
// and the onnxruntime shared library. The image and text encoders are separate
// model files that project into the same space.
type ONNXEmbedder struct {
	imageSession *ort.AdvancedSession
	textSession  *ort.AdvancedSession
	dimensions   int
	imageSize    int
	maxTokens    int
	model        string
	tokenizer    Tokenizer

	pixelTensor     *ort.Tensor[float32]
	imageOutTensor  *ort.Tensor[float32]
	inputIDsTensor  *ort.Tensor[int64]
	attnMaskTensor  *ort.Tensor[int64]
	textOutTensor   *ort.Tensor[float32]
	imageMu, textMu sync.Mutex
}

// NewONNXEmbedder creates an ONNX embedder. InitializeEnvironment is called if not already done.
func NewONNXEmbedder(cfg ONNXConfig) (*ONNXEmbedder, error) {
	cfg = cfg.withDefaults()
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", err)
	}

	e := &ONNXEmbedder{
		dimensions: cfg.Dimensions,
		imageSize:  cfg.ImageSize,
		maxTokens:  cfg.MaxTokens,
		model:      filepath.Base(cfg.ImageModelPath),
		tokenizer:  &SimpleTokenizer{},
	}
	if err := e.initImage(cfg.ImageModelPath); err != nil {
		_ = e.Close()
		return nil, err
	}
	if err := e.initText(cfg.TextModelPath); err != nil {
		_ = e.Close()
		return nil, err
	}
	return e, nil
}

func (e *ONNXEmbedder) initImage(modelPath string) error {
	var err error
	size := int64(e.imageSize)
	e.pixelTensor, err = ort.NewEmptyTensor[float32](ort.NewShape(1, 3, size, size))
	if err != nil {
		return fmt.Errorf("failed to create pixel_values tensor: %w", err)
	}
	e.imageOutTensor, err = ort.NewEmptyTensor[float32](ort.NewShape(1, int64(e.dimensions)))
	if err != nil {
		return fmt.Errorf("failed to create image output tensor: %w", err)
	}
	e.imageSession, err = ort.NewAdvancedSession(
		modelPath,
		[]string{"pixel_values"},
		[]string{"image_embeds"},
		[]ort.ArbitraryTensor{e.pixelTensor},
		[]ort.ArbitraryTensor{e.imageOutTensor},
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to create image encoder session: %w", err)
	}
	return nil
}

func (e *ONNXEmbedder) initText(modelPath string) error {
	var err error
	shape := ort.NewShape(1, int64(e.maxTokens))
	e.inputIDsTensor, err = ort.NewEmptyTensor[int64](shape)
	if err != nil {
		return fmt.Errorf("failed to create input_ids tensor: %w", err)
	}
	e.attnMaskTensor, err = ort.NewEmptyTensor[int64](shape)
	if err != nil {
		return fmt.Errorf("failed to create attention_mask tensor: %w", err)
	}
	e.textOutTensor, err = ort.NewEmptyTensor[float32](ort.NewShape(1, int64(e.dimensions)))
	if err != nil {
		return fmt.Errorf("failed to create text output tensor: %w", err)
	}
	e.textSession, err = ort.NewAdvancedSession(
		modelPath,
		[]string{"input_ids", "attention_mask"},
		[]string{"text_embeds"},
		[]ort.ArbitraryTensor{e.inputIDsTensor, e.attnMaskTensor},
		[]ort.ArbitraryTensor{e.textOutTensor},
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to create text encoder session: %w", err)
	}
	return nil
}

// EmbedImage encodes img with the image tower.
func (e *ONNXEmbedder) EmbedImage(ctx context.Context, img image.Image) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pixels := PixelValues(img, e.imageSize)

	e.imageMu.Lock()
	defer e.imageMu.Unlock()
	copy(e.pixelTensor.GetData(), pixels)
	if err := e.imageSession.Run(); err != nil {
		return nil, fmt.Errorf("image inference failed: %w", err)
	}
	return e.readOutput(e.imageOutTensor), nil
}

// EmbedText encodes text with the text tower.
func (e *ONNXEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	inputIDs, attentionMask := e.tokenizer.Tokenize(text, e.maxTokens)

	e.textMu.Lock()
	defer e.textMu.Unlock()
	copy(e.inputIDsTensor.GetData(), inputIDs)
	copy(e.attnMaskTensor.GetData(), attentionMask)
	if err := e.textSession.Run(); err != nil {
		return nil, fmt.Errorf("text inference failed: %w", err)
	}
	return e.readOutput(e.textOutTensor), nil
}

func (e *ONNXEmbedder) readOutput(t *ort.Tensor[float32]) []float32 {
	out := make([]float32, e.dimensions)
	copy(out, t.GetData())
	utils.NormalizeL2(out)
	return out
}

// Dimensions returns the embedding dimension.
func (e *ONNXEmbedder) Dimensions() int {
	return e.dimensions
}

// Model returns the image model file name.
func (e *ONNXEmbedder) Model() string {
	return e.model
}

// Close destroys the sessions and tensors.
func (e *ONNXEmbedder) Close() error {
	var err error
	if e.imageSession != nil {
		err = e.imageSession.Destroy()
		e.imageSession = nil
	}
	if e.textSession != nil {
		if textErr := e.textSession.Destroy(); err == nil {
			err = textErr
		}
		e.textSession = nil
	}
	destroy := func(t *ort.Tensor[float32]) {
		if t != nil {
			_ = t.Destroy()
		}
	}
	destroy(e.pixelTensor)
	destroy(e.imageOutTensor)
	destroy(e.textOutTensor)
	if e.inputIDsTensor != nil {
		_ = e.inputIDsTensor.Destroy()
	}
	if e.attnMaskTensor != nil {
		_ = e.attnMaskTensor.Destroy()
	}
	e.pixelTensor, e.imageOutTensor = nil, nil
	e.inputIDsTensor, e.attnMaskTensor, e.textOutTensor = nil, nil, nil
	return err
}
