package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"go.yaml.in/yaml/v3"

	"github.com/kbukum/llmflow/errors"
	"github.com/kbukum/llmflow/llm"
	"github.com/kbukum/llmflow/structured"
	"github.com/kbukum/llmflow/validation"
)

// Definition is a YAML-defined pipeline.
//
//	name: release-notes
//	max_tokens: 2000
//	stages:
//	  - name: classify
//	    kind: structured
//	    prompt: |
//	      Classify this change: {{ .Input }}
//	    schema:
//	      fields:
//	        - {name: type, type: enum, enum: [feature, fix, chore]}
//	  - name: notes
//	    depends_on: [classify]
//	    prompt: |
//	      Write notes for a {{ (index .Records "classify").type }}:
//	      {{ .Input | truncate 4000 }}
type Definition struct {
	Name        string     `yaml:"name" validate:"required"`
	Description string     `yaml:"description,omitempty"`
	Model       string     `yaml:"model,omitempty"`
	MaxTokens   int        `yaml:"max_tokens,omitempty" validate:"gte=0"`
	System      string     `yaml:"system,omitempty"`
	Params      []string   `yaml:"params,omitempty"`
	Stages      []StageDef `yaml:"stages" validate:"required,min=1,dive"`
}

// StageDef defines one stage of a Definition.
type StageDef struct {
	Name      string   `yaml:"name" validate:"required"`
	DependsOn []string `yaml:"depends_on,omitempty"`
	// Kind is "text" (default), "structured", or "streamed".
	Kind      string             `yaml:"kind,omitempty" validate:"omitempty,oneof=text structured streamed stream"`
	Model     string             `yaml:"model,omitempty"`
	MaxTokens int                `yaml:"max_tokens,omitempty" validate:"gte=0"`
	System    string             `yaml:"system,omitempty"`
	Prompt    string             `yaml:"prompt" validate:"required"`
	Schema    *structured.Schema `yaml:"schema,omitempty"`
}

// DefaultMaxTokens is used when neither the definition nor a stage sets
// max_tokens.
const DefaultMaxTokens = 2048

// ParseDefinition decodes and validates a YAML definition.
func ParseDefinition(data []byte) (*Definition, error) {
	var def Definition
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return nil, errors.Configuration("invalid pipeline definition").WithCause(err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// LoadDefinition reads a definition from a file.
func LoadDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Configuration(fmt.Sprintf("cannot read pipeline definition %s", path)).WithCause(err)
	}
	def, err := ParseDefinition(data)
	if err != nil {
		if appErr, ok := errors.AsAppError(err); ok {
			return nil, appErr.WithDetail("path", path)
		}
		return nil, err
	}
	return def, nil
}

// FindDefinition searches dirs for {name}.yaml or {name}.yml.
func FindDefinition(name string, dirs ...string) (*Definition, error) {
	for _, dir := range dirs {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, name+ext)
			if _, err := os.Stat(path); err == nil {
				return LoadDefinition(path)
			}
		}
	}
	return nil, errors.Configuration(fmt.Sprintf("pipeline %q not found in %v", name, dirs))
}

// Validate checks the definition: struct constraints, schema shape,
// template syntax, and stage ordering.
func (d *Definition) Validate() error {
	if err := validation.Validate(d); err != nil {
		return err
	}
	for _, s := range d.Stages {
		kind, _ := ParseKind(s.Kind)
		if kind == KindStructured {
			if s.Schema == nil || len(s.Schema.Fields) == 0 {
				return errors.Configuration(fmt.Sprintf("structured stage %q needs a schema", s.Name)).WithStage(s.Name)
			}
			if err := s.Schema.Check(); err != nil {
				return errors.Configuration(fmt.Sprintf("stage %q: invalid schema: %v", s.Name, err)).WithStage(s.Name)
			}
		}
		if _, err := parsePrompt(s.Name, s.Prompt); err != nil {
			return err
		}
	}
	return ValidateOrder(d.stubs())
}

// MissingParams returns the declared params that params does not set, in
// declaration order.
func (d *Definition) MissingParams(params map[string]string) []string {
	var missing []string
	for _, name := range d.Params {
		if strings.TrimSpace(params[name]) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

// stubs returns placeholder stages carrying only names and dependencies.
func (d *Definition) stubs() []Stage {
	out := make([]Stage, len(d.Stages))
	for i, s := range d.Stages {
		kind, _ := ParseKind(s.Kind)
		out[i] = Func(s.Name, kind, s.DependsOn, nil)
	}
	return out
}

// Build turns the definition into stages bound to client.
func (d *Definition) Build(client llm.Client) ([]Stage, error) {
	stages := make([]Stage, 0, len(d.Stages))
	for _, s := range d.Stages {
		tmpl, err := parsePrompt(s.Name, s.Prompt)
		if err != nil {
			return nil, err
		}
		cfg := StageConfig{
			Name:      s.Name,
			DependsOn: s.DependsOn,
			Client:    client,
			Prompt:    d.promptFunc(s, tmpl),
		}
		kind, ok := ParseKind(s.Kind)
		if !ok {
			return nil, errors.Configuration(fmt.Sprintf("stage %q has unknown kind %q", s.Name, s.Kind)).WithStage(s.Name)
		}
		switch kind {
		case KindStructured:
			if s.Schema == nil {
				return nil, errors.Configuration(fmt.Sprintf("structured stage %q needs a schema", s.Name)).WithStage(s.Name)
			}
			stages = append(stages, NewStructuredStage(cfg, *s.Schema))
		case KindStreamed:
			stages = append(stages, NewStreamStage(cfg))
		default:
			stages = append(stages, NewTextStage(cfg))
		}
	}
	return stages, nil
}

// PromptData is what a definition's prompt templates see.
type PromptData struct {
	// Input is the raw run input.
	Input string
	// Source identifies where the input came from.
	Source string
	// Param holds named run parameters.
	Param map[string]string
	// Deps maps each dependency to its text (records as indented JSON).
	Deps map[string]string
	// Records maps each structured dependency to its record.
	Records map[string]structured.Record
}

func (d *Definition) promptFunc(s StageDef, tmpl *template.Template) PromptFunc {
	model := s.Model
	if model == "" {
		model = d.Model
	}
	maxTokens := s.MaxTokens
	if maxTokens == 0 {
		maxTokens = d.MaxTokens
	}
	if maxTokens == 0 {
		maxTokens = DefaultMaxTokens
	}
	system := s.System
	if system == "" {
		system = d.System
	}

	return func(in Input, deps Deps) (llm.CompletionRequest, error) {
		data := PromptData{
			Input:   in.Text(),
			Source:  in.Source(),
			Param:   in.Params(),
			Deps:    make(map[string]string),
			Records: make(map[string]structured.Record),
		}
		for _, name := range deps.Names() {
			r, _ := deps.Get(name)
			data.Deps[name] = r.Text()
			if r.Kind() == KindStructured {
				data.Records[name] = r.Record()
			}
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return llm.CompletionRequest{}, errors.Configuration(
				fmt.Sprintf("stage %q: render prompt: %v", s.Name, err))
		}
		req := llm.UserPrompt(buf.String(), maxTokens)
		req.Model = model
		req.SystemPrompt = system
		return req, nil
	}
}

func parsePrompt(stage, text string) (*template.Template, error) {
	tmpl, err := template.New(stage).Option("missingkey=zero").Funcs(TemplateFuncs()).Parse(text)
	if err != nil {
		return nil, errors.Configuration(fmt.Sprintf("stage %q: invalid prompt template: %v", stage, err)).WithStage(stage)
	}
	return tmpl, nil
}

// TemplateFuncs are the helpers available in prompt templates.
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"truncate": Truncate,
		"upper":    strings.ToUpper,
		"lower":    strings.ToLower,
		"trim":     strings.TrimSpace,
		"join":     func(sep string, items []string) string { return strings.Join(items, sep) },
		"json": func(v any) (string, error) {
			data, err := json.MarshalIndent(v, "", "  ")
			return string(data), err
		},
	}
}

// Truncate keeps at most n bytes of s, cut back to a rune boundary.
func Truncate(n int, s string) string {
	if n < 0 || len(s) <= n {
		return s
	}
	for n > 0 && !utf8RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func utf8RuneStart(b byte) bool { return b&0xC0 != 0x80 }
