package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shortcut-sensei/backend/internal/config"
)

const (
	maxTipLength = 280
	coachTimeout = 20 * time.Second
)

var ErrInvalidTip = errors.New("invalid coach tip")

const coachSystemPrompt = `You are a friendly keyboard shortcut coach.
You receive a learner's level and a short list of shortcuts recommended to them.
Write ONE encouraging, practical tip (at most two sentences, under 280 characters)
that helps them practise the first recommendation today.

Respond with JSON only, no prose around it:
{"tip": "..."}`

// Coach asks an LLM for a one-line practice tip. A nil *Coach gives no tips.
type Coach struct {
	llm     LLMClient
	model   string
	timeout time.Duration
}

// NewCoach selects the LLM backend from cfg.CoachMode. It returns nil when
// coaching is off.
func NewCoach(cfg *config.Config) *Coach {
	switch cfg.CoachMode {
	case config.CoachCLI:
		log.Println("[coach] using Claude CLI")
		return NewCoachWithClient(NewCLIClient(cfg.ClaudeCLIPath, cfg.AnthropicModel), "claude-cli")
	case config.CoachMock:
		log.Println("[coach] using mock tips")
		return NewCoachWithClient(NewMockClient(), "mock")
	case config.CoachAPI:
		log.Println("[coach] using Anthropic API:", cfg.AnthropicModel)
		return NewCoachWithClient(NewAPIClient(cfg.AnthropicModel, cfg.AnthropicAPIKey), cfg.AnthropicModel)
	default:
		return nil
	}
}

func NewCoachWithClient(llm LLMClient, model string) *Coach {
	return &Coach{llm: llm, model: model, timeout: coachTimeout}
}

func (c *Coach) ModelName() string {
	if c == nil {
		return ""
	}
	return c.model
}

// Tip returns a practice tip for recs, or "" when the coach is disabled or
// the LLM fails.
func (c *Coach) Tip(ctx context.Context, p Profile, recs []Recommendation) string {
	if c == nil || len(recs) == 0 {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.llm.Generate(ctx, coachSystemPrompt, BuildTipPrompt(p, recs))
	if err != nil {
		log.Printf("[coach] generate tip: %v", err)
		return ""
	}
	tip, err := ParseTip(resp.Content)
	if err != nil {
		log.Printf("[coach] parse tip: %v", err)
		return ""
	}
	return tip
}

// BuildTipPrompt describes the learner and their recommendations.
func BuildTipPrompt(p Profile, recs []Recommendation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Learner level: %d (%s)\n", p.Level, SkillBand(p.Level))
	if p.CurrentApp != "" {
		fmt.Fprintf(&b, "Currently using: %s\n", p.CurrentApp)
	}
	b.WriteString("Recommended shortcuts:\n")
	for i, r := range recs {
		fmt.Fprintf(&b, "%d. %s in %s: %s (%s)\n",
			i+1, r.Shortcut.Combination, r.Shortcut.Application, r.Shortcut.Description, r.Reasoning)
	}
	return b.String()
}

// ParseTip extracts the tip from a JSON reply, tolerating code fences.
func ParseTip(content string) (string, error) {
	var reply struct {
		Tip string `json:"tip"`
	}
	if err := json.Unmarshal([]byte(stripCodeFences(content)), &reply); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidTip, err)
	}

	tip := strings.Join(strings.Fields(reply.Tip), " ")
	if tip == "" {
		return "", fmt.Errorf("%w: empty tip", ErrInvalidTip)
	}
	if n := utf8.RuneCountInString(tip); n > maxTipLength {
		return "", fmt.Errorf("%w: %d characters, max %d", ErrInvalidTip, n, maxTipLength)
	}
	return tip, nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimSpace(s)
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSpace(s)
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	}
	return s
}
