package pipeline

import "maps"

// Input is the raw material for one run. It is created once, before the
// first stage, and never modified.
type Input struct {
	text   string
	source string
	params map[string]string
}

// NewInput creates an Input. source identifies where the text came from
// (a path, "-", a URL). params are named values for prompt construction,
// such as the product name of a competitor analysis.
func NewInput(text, source string, params map[string]string) Input {
	return Input{text: text, source: source, params: maps.Clone(params)}
}

// Text returns the raw input text.
func (in Input) Text() string { return in.text }

// Source returns the input source identifier.
func (in Input) Source() string { return in.source }

// Param returns a named parameter, or "" when unset.
func (in Input) Param(name string) string { return in.params[name] }

// Params returns a copy of the named parameters.
func (in Input) Params() map[string]string { return maps.Clone(in.params) }
