// Package codegen produces Python chart code from a compiled prompt using the
// OpenAI chat completions API.
package codegen

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"studio/internal/domain"
)

const systemPrompt = `You are a data visualization engineer. ` +
	`Write a complete, standalone Python script using pandas and matplotlib that renders the described chart. ` +
	`Read the uploaded file from its /mnt/data path, render exactly one figure, and save it as a PNG with plt.savefig. ` +
	`Reply with a single Python code block and nothing else.`

// previewLimit bounds how much of the uploaded file is inlined so the model
// can see column names and sample rows.
const previewLimit = 2048

var codeFencePattern = regexp.MustCompile("(?s)```(?:python)?\\s*\\n(.*?)```")

// Options configures the code generator.
type Options struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Generator turns chart prompts into executable Python scripts.
type Generator struct {
	model string
	opts  []option.RequestOption
}

// NewGenerator validates configuration and builds a generator.
func NewGenerator(cfg Options) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("codegen: openai api key is required")
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o"
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Generator{model: model, opts: opts}, nil
}

// GenerateChartCode asks the model for a Python script implementing the
// prompt. The uploaded file's name and a short content preview are attached
// so the generated code targets the right path and columns.
func (g *Generator) GenerateChartCode(ctx context.Context, prompt string, dataFile *domain.Upload) (string, error) {
	client := openai.NewClient(g.opts...)

	user := prompt
	if dataFile != nil {
		user = fmt.Sprintf("%s\n\nUploaded file: /mnt/data/%s\nFile preview:\n%s",
			prompt, dataFile.Name, filePreview(dataFile.Data))
	}
	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(user),
		},
	})
	if err != nil {
		return "", domain.WrapError(domain.ErrKindProviderSubmission, err, "codegen: chat completion")
	}
	if len(resp.Choices) == 0 {
		return "", domain.Errorf(domain.ErrKindProviderSubmission, "codegen: empty choices")
	}
	code := ExtractCode(resp.Choices[0].Message.Content)
	if strings.TrimSpace(code) == "" {
		return "", domain.Errorf(domain.ErrKindProviderSubmission, "codegen: response contained no code")
	}
	return code, nil
}

// ExtractCode pulls the script out of a fenced markdown block. Responses that
// are already bare code pass through unchanged.
func ExtractCode(content string) string {
	if m := codeFencePattern.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(content)
}

// filePreview keeps the first lines of a text upload. Binary spreadsheets
// truncate to nothing useful, so only printable prefixes are kept.
func filePreview(data []byte) string {
	if len(data) > previewLimit {
		data = data[:previewLimit]
	}
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return "(binary file, preview unavailable)"
	}
	return string(data)
}
