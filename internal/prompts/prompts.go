// Package prompts loads the YAML file that defines the two debating
// agents: their display names and system prompts, plus optional
// conversation setting overrides.
package prompts

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	apperrors "github.com/lhartley/sparring/internal/errors"
)

// Agent is one agent definition.
type Agent struct {
	Name         string `yaml:"name"`
	SystemPrompt string `yaml:"system_prompt"`
}

// Settings are optional per-file overrides of conversation config.
// Nil fields mean "no override".
type Settings struct {
	MaxTurns        *int `yaml:"max_turns"`
	TurnIntervalMs  *int `yaml:"turn_interval_ms"`
	TransitionTurns *int `yaml:"transition_turns"`
}

// File is the prompt file shape: an agents block with the supporter
// and challenger roles, plus optional settings.
type File struct {
	Agents struct {
		Supporter  Agent `yaml:"supporter"`
		Challenger Agent `yaml:"challenger"`
	} `yaml:"agents"`
	Settings Settings `yaml:"settings"`
}

const defaultSupporterPrompt = `You are %s, arguing in favor of the position under debate.
Make your case with concrete evidence and engage directly with your opponent's
latest points rather than repeating your own. Keep each response focused.
If you need current information, request a web search with [search: your query].
When you believe the debate has genuinely run its course and both sides have
said what matters, say so and append the marker <!-- END --> to your response.`

const defaultChallengerPrompt = `You are %s, arguing against the position under debate.
Probe the weakest parts of your opponent's argument with concrete counterexamples
and engage directly with their latest points rather than repeating your own.
Keep each response focused.
If you need current information, request a web search with [search: your query].
When you believe the debate has genuinely run its course and both sides have
said what matters, say so and append the marker <!-- END --> to your response.`

// Default returns the built-in agent definitions used when no prompt
// file is configured.
func Default() *File {
	f := &File{}
	f.Agents.Supporter = Agent{
		Name:         "Proponent",
		SystemPrompt: fmt.Sprintf(defaultSupporterPrompt, "Proponent"),
	}
	f.Agents.Challenger = Agent{
		Name:         "Challenger",
		SystemPrompt: fmt.Sprintf(defaultChallengerPrompt, "Challenger"),
	}
	return f
}

// Load reads and validates a prompt file. Unknown YAML keys are
// rejected so typos surface instead of silently falling back to
// defaults.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("prompts: read %s: %w", path, err)
	}

	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("prompts: parse %s: %w", path, err)
	}

	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("prompts: %s: %w", path, err)
	}
	return &f, nil
}

// Validate checks that both agents are fully defined.
func (f *File) Validate() error {
	for role, agent := range map[string]Agent{
		"supporter":  f.Agents.Supporter,
		"challenger": f.Agents.Challenger,
	} {
		if agent.Name == "" {
			return apperrors.NewValidationError("agent name must not be empty").
				WithField("agents." + role + ".name")
		}
		if agent.SystemPrompt == "" {
			return apperrors.NewValidationError("system prompt must not be empty").
				WithField("agents." + role + ".system_prompt")
		}
	}
	if f.Agents.Supporter.Name == f.Agents.Challenger.Name {
		return apperrors.NewValidationError("agent names must differ").
			WithField("agents").WithValue(f.Agents.Supporter.Name)
	}
	return nil
}
