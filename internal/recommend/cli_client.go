package recommend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var ErrCLIResult = errors.New("claude CLI reported an error")

// CLIClient asks a local claude CLI for coaching tips. The tip request goes
// in on stdin; the CLI answers with one JSON result envelope.
type CLIClient struct {
	cliPath string
	model   string
}

func NewCLIClient(cliPath, model string) *CLIClient {
	return &CLIClient{cliPath: cliPath, model: model}
}

func (c *CLIClient) args(systemPrompt string) []string {
	args := []string{
		"--print",
		"--output-format", "json",
		"--system-prompt", systemPrompt,
		"--max-turns", "1",
	}
	if c.model != "" {
		args = append(args, "--model", c.model)
	}
	return args
}

func (c *CLIClient) Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	cmd := exec.CommandContext(ctx, c.cliPath, c.args(systemPrompt)...)
	cmd.Stdin = strings.NewReader(userPrompt)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("claude CLI error: %w\nstderr: %s", err, stderr.String())
	}
	return parseCLIResult(stdout.Bytes())
}

// cliResult is the envelope printed by --output-format json.
type cliResult struct {
	IsError bool   `json:"is_error"`
	Result  string `json:"result"`
	Usage   struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func parseCLIResult(out []byte) (*LLMResponse, error) {
	var res cliResult
	if err := json.Unmarshal(bytes.TrimSpace(out), &res); err != nil {
		return nil, fmt.Errorf("decode claude CLI output: %w", err)
	}
	if res.IsError {
		return nil, fmt.Errorf("%w: %s", ErrCLIResult, res.Result)
	}
	text := strings.TrimSpace(res.Result)
	if text == "" {
		return nil, fmt.Errorf("claude CLI returned empty response")
	}
	return &LLMResponse{
		Content:      text,
		PromptTokens: res.Usage.InputTokens,
		OutputTokens: res.Usage.OutputTokens,
	}, nil
}
