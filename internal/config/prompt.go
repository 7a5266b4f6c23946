package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed prompt.yaml
var defaultPromptYAML []byte

// Prompt holds the completion parameters for chat turns. The defaults are
// embedded at build time; PROMPT_CONFIG_PATH points at an override file.
type Prompt struct {
	SystemPrompt string  `yaml:"system_prompt"`
	Temperature  float32 `yaml:"temperature"`
	MaxTokens    int     `yaml:"max_tokens"`
	HistoryLimit int     `yaml:"history_limit"`
}

// LoadPrompt parses the embedded prompt configuration, applying an override
// file when PROMPT_CONFIG_PATH is set.
func LoadPrompt() (*Prompt, error) {
	data := defaultPromptYAML
	if path := os.Getenv("PROMPT_CONFIG_PATH"); path != "" {
		override, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read prompt config %s: %w", path, err)
		}
		data = override
	}

	var p Prompt
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("unmarshal prompt config: %w", err)
	}

	if p.SystemPrompt == "" {
		return nil, fmt.Errorf("prompt config: system_prompt is required")
	}
	if p.HistoryLimit <= 0 {
		p.HistoryLimit = 5
	}
	if p.MaxTokens <= 0 {
		p.MaxTokens = 500
	}

	return &p, nil
}
