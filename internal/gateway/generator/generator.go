package generator

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"vigil/internal/config"
	"vigil/internal/logger"
	"vigil/internal/planner"
)

const systemPrompt = "You write short, factual market commentary posts. " +
	"One paragraph, no hashtags, no price predictions, no financial advice."

// Generator renders post text for a candidate. With no API key configured it
// runs in template-only mode, which keeps output deterministic for tests and
// air-gapped deployments.
type Generator struct {
	client    *ChatClient
	templates []string
}

func New(cfg config.GeneratorConfig, voice config.Voice) *Generator {
	g := &Generator{templates: voice.FallbackTemplates}
	if strings.TrimSpace(cfg.APIKey) != "" {
		g.client = &ChatClient{
			BaseURL: cfg.APIURL,
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		}
	}
	return g
}

func (g *Generator) Generate(ctx context.Context, item planner.Candidate) (string, error) {
	if g.client != nil {
		prompt := fmt.Sprintf("Write a post about this item.\nTitle: %s\nSource: %s\nSummary: %s",
			item.Title, item.Source, item.Body)
		text, err := g.client.CallWithMessages(ctx, systemPrompt, prompt)
		if err == nil && strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text), nil
		}
		if err != nil {
			logger.Warnf("chat backend failed, falling back to template: %v", err)
		}
	}
	return g.fromTemplate(item), nil
}

// fromTemplate picks a template by fingerprint hash so the same item always
// renders the same text.
func (g *Generator) fromTemplate(item planner.Candidate) string {
	templates := g.templates
	if len(templates) == 0 {
		templates = []string{"Watching the market: %s"}
	}
	h := fnv.New32a()
	h.Write([]byte(item.Fingerprint))
	tpl := templates[int(h.Sum32())%len(templates)]
	text := fmt.Sprintf(tpl, item.Title)
	if item.URL != "" {
		text += " " + item.URL
	}
	return text
}
