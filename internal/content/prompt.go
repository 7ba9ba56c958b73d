package content

import (
	"fmt"
	"strings"
	"text/template"
)

// PromptSpec is an LLM prompt template. Text uses text/template syntax.
type PromptSpec struct {
	Name string
	Text string
}

// PromptVars are the values available to a PromptSpec.
type PromptVars struct {
	Topic string
}

// Render expands the template with vars.
func Render(spec PromptSpec, vars PromptVars) (string, error) {
	name := spec.Name
	if name == "" {
		name = "prompt"
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(spec.Text)
	if err != nil {
		return "", fmt.Errorf("parse prompt %s: %w", name, err)
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, vars); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}

	prompt := strings.TrimSpace(b.String())
	if prompt == "" {
		return "", fmt.Errorf("prompt %s rendered empty", name)
	}
	return prompt, nil
}
