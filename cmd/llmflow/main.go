// Command llmflow runs multi-stage LLM pipelines from the command line.
package main

import (
	"context"
	"os"

	_ "github.com/kbukum/llmflow/llm/anthropic"
	_ "github.com/kbukum/llmflow/llm/ollama"
)

func main() {
	c := newCLI(os.Stdin, os.Stdout, os.Stderr)
	os.Exit(c.execute(context.Background(), os.Args[1:]))
}
