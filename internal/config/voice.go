package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Voice holds the agent's posting persona: disclaimer lines appended to a
// fraction of posts and the fallback templates used when no generation
// backend is configured.
type Voice struct {
	Disclaimers       []string `yaml:"disclaimers"`
	FallbackTemplates []string `yaml:"fallback_templates"`
}

// LoadVoice reads the voice file. A missing path yields the built-in voice
// rather than an error; posting should not depend on optional styling.
func LoadVoice(path string) (*Voice, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return defaultVoice(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultVoice(), nil
		}
		return nil, fmt.Errorf("read voice file failed: %w", err)
	}
	var v Voice
	if err := yaml.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("parse voice file failed (%s): %w", path, err)
	}
	v.normalize()
	if len(v.Disclaimers) == 0 {
		v.Disclaimers = defaultVoice().Disclaimers
	}
	if len(v.FallbackTemplates) == 0 {
		v.FallbackTemplates = defaultVoice().FallbackTemplates
	}
	return &v, nil
}

func (v *Voice) normalize() {
	v.Disclaimers = trimAll(v.Disclaimers)
	v.FallbackTemplates = trimAll(v.FallbackTemplates)
}

func trimAll(in []string) []string {
	out := in[:0]
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func defaultVoice() *Voice {
	return &Voice{
		Disclaimers: []string{
			"Not financial advice.",
			"Do your own research.",
		},
		FallbackTemplates: []string{
			"Watching the market: %s",
			"On the radar today: %s",
		},
	}
}
