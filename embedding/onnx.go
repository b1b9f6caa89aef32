package embedding

import (
	"context"
	"errors"
	"fmt"
	"log"

	"examguard/config"

	tokenizer "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	ort "github.com/yalue/onnxruntime_go"
)

// ONNXConfig locates a BERT-style model exported to ONNX together with its
// Hugging Face tokenizer.json.
type ONNXConfig struct {
	ModelPath     string
	TokenizerPath string
	// SharedLibraryPath points at libonnxruntime; empty uses the platform default.
	SharedLibraryPath string
	// ModelName is recorded in report metadata.
	ModelName string
	// MaxTokens truncates long inputs. Defaults to config.MaxSequenceTokens.
	MaxTokens int
}

// ONNXEncoder runs local transformer inference and returns last_hidden_state.
type ONNXEncoder struct {
	tokenizer *tokenizer.Tokenizer
	session   *ort.DynamicAdvancedSession
	model     string
	maxTokens int
}

func NewONNXEncoder(cfg ONNXConfig) (*ONNXEncoder, error) {
	if cfg.ModelPath == "" || cfg.TokenizerPath == "" {
		return nil, errors.New("onnx model path and tokenizer path are required")
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = config.MaxSequenceTokens
	}
	if cfg.ModelName == "" {
		cfg.ModelName = config.DefaultModelName
	}

	tok, err := pretrained.FromFile(cfg.TokenizerPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer: %w", err)
	}

	if cfg.SharedLibraryPath != "" {
		ort.SetSharedLibraryPath(cfg.SharedLibraryPath)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer opts.Destroy()

	if err := opts.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableAll); err != nil {
		return nil, fmt.Errorf("failed to set graph optimization: %w", err)
	}
	if err := opts.SetIntraOpNumThreads(0); err != nil {
		log.Printf("Warning: failed to set ONNX thread count: %v", err)
	}

	session, err := ort.NewDynamicAdvancedSession(
		cfg.ModelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"last_hidden_state"},
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &ONNXEncoder{
		tokenizer: tok,
		session:   session,
		model:     cfg.ModelName,
		maxTokens: cfg.MaxTokens,
	}, nil
}

func (e *ONNXEncoder) ModelName() string { return e.model }

func (e *ONNXEncoder) Encode(ctx context.Context, text string) (TokenStates, error) {
	if err := ctx.Err(); err != nil {
		return TokenStates{}, err
	}

	enc, err := e.tokenizer.EncodeSingle(text, true)
	if err != nil {
		return TokenStates{}, fmt.Errorf("tokenization failed: %w", err)
	}
	ids := enc.GetIds()
	mask := enc.GetAttentionMask()
	if len(ids) == 0 {
		return TokenStates{}, errNoTokens
	}
	ids, mask = truncateTokens(ids, mask, e.maxTokens)
	seqLen := len(ids)

	inputIDs := make([]int64, seqLen)
	attention := make([]int64, seqLen)
	tokenTypes := make([]int64, seqLen)
	for i := 0; i < seqLen; i++ {
		inputIDs[i] = int64(ids[i])
		if i < len(mask) {
			attention[i] = int64(mask[i])
		} else {
			attention[i] = 1
		}
	}

	shape := ort.NewShape(1, int64(seqLen))
	idsTensor, err := ort.NewTensor(shape, inputIDs)
	if err != nil {
		return TokenStates{}, fmt.Errorf("failed to create input_ids tensor: %w", err)
	}
	defer idsTensor.Destroy()

	maskTensor, err := ort.NewTensor(shape, attention)
	if err != nil {
		return TokenStates{}, fmt.Errorf("failed to create attention_mask tensor: %w", err)
	}
	defer maskTensor.Destroy()

	typesTensor, err := ort.NewTensor(shape, tokenTypes)
	if err != nil {
		return TokenStates{}, fmt.Errorf("failed to create token_type_ids tensor: %w", err)
	}
	defer typesTensor.Destroy()

	outputs := make([]ort.Value, 1)
	if err := e.session.Run([]ort.Value{idsTensor, maskTensor, typesTensor}, outputs); err != nil {
		return TokenStates{}, fmt.Errorf("inference failed: %w", err)
	}
	defer outputs[0].Destroy()

	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return TokenStates{}, errors.New("output tensor is not float32")
	}

	// [1, seq_len, hidden]
	outShape := out.GetShape()
	if len(outShape) != 3 {
		return TokenStates{}, fmt.Errorf("unexpected output shape %v", outShape)
	}
	tokens, hidden := int(outShape[1]), int(outShape[2])
	data := out.GetData()

	// Copy rows out before the tensor is destroyed.
	rows := make([][]float32, tokens)
	for i := 0; i < tokens; i++ {
		rows[i] = make([]float32, hidden)
		copy(rows[i], data[i*hidden:(i+1)*hidden])
	}
	validity := make([]int, tokens)
	for i := 0; i < tokens && i < len(attention); i++ {
		validity[i] = int(attention[i])
	}
	return TokenStates{Hidden: rows, Mask: validity}, nil
}

func (e *ONNXEncoder) Close() error {
	if e.session != nil {
		if err := e.session.Destroy(); err != nil {
			return err
		}
	}
	return ort.DestroyEnvironment()
}

// truncateTokens cuts an encoding with special tokens to limit ids while
// keeping its final token ([SEP]), as Hugging Face truncation does.
func truncateTokens(ids, mask []int, limit int) ([]int, []int) {
	if limit <= 0 || len(ids) <= limit {
		return ids, mask
	}
	if limit == 1 {
		return ids[:1], mask[:min(1, len(mask))]
	}
	outIDs := make([]int, 0, limit)
	outIDs = append(outIDs, ids[:limit-1]...)
	outIDs = append(outIDs, ids[len(ids)-1])

	if len(mask) < len(ids) {
		return outIDs, mask[:min(limit, len(mask))]
	}
	outMask := make([]int, 0, limit)
	outMask = append(outMask, mask[:limit-1]...)
	outMask = append(outMask, mask[len(mask)-1])
	return outIDs, outMask
}
