package loop

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/tOgg1/afk/internal/config"
	"github.com/tOgg1/afk/internal/models"
)

// PromptContext is what a generator knows about the coming iteration.
type PromptContext struct {
	Iteration     int
	MaxIterations int
	Tasks         *models.TaskList
}

// PromptGenerator produces the literal prompt for one iteration. Returning a
// stop sentinel ends the session without starting the agent.
type PromptGenerator interface {
	Generate(ctx context.Context, pc PromptContext) (string, error)
}

// PromptFunc adapts a function to PromptGenerator.
type PromptFunc func(ctx context.Context, pc PromptContext) (string, error)

// Generate calls f.
func (f PromptFunc) Generate(ctx context.Context, pc PromptContext) (string, error) {
	return f(ctx, pc)
}

const defaultPromptTemplate = `# afk autonomous agent

You are an autonomous coding agent working on a software project.

## Your task

1. Read ` + "`{{.TasksFile}}`" + ` for the task list.
2. Work on the highest priority task where ` + "`passes`" + ` is false.
3. Implement it according to its acceptance criteria.
4. Run ` + "`afk verify`" + ` and fix failures until it passes.
5. Commit your changes, then set ` + "`passes: true`" + ` for the task in ` + "`{{.TasksFile}}`" + `.
6. If every task passes, print <promise>COMPLETE</promise>.
{{- if .ContextFiles}}

## Context files
{{range .ContextFiles}}
- ` + "`{{.}}`" + `
{{- end}}
{{- end}}

## Progress

- Iteration: {{.Iteration}}/{{.MaxIterations}}
- Completed: {{.Completed}}/{{.Total}} tasks
{{- with .Task}}

## Current task: {{.ID}} (priority {{.Priority}})

{{.Title}}

{{.Description}}
{{- if .AcceptanceCriteria}}

Acceptance criteria:
{{range .AcceptanceCriteria}}
- {{.}}
{{- end}}
{{- end}}
{{- end}}
{{- if .Gates}}

## Quality gates
{{range .Gates}}
- {{.Name}}: ` + "`{{.Command}}`" + `
{{- end}}
{{- end}}
`

type promptData struct {
	TasksFile     string
	ContextFiles  []string
	Iteration     int
	MaxIterations string
	Completed     int
	Total         int
	Task          *models.Task
	Gates         []config.Gate
}

// TemplatePrompt renders the built-in prompt, optionally replacing it with a
// template file.
type TemplatePrompt struct {
	Config  *config.Config
	WorkDir string
}

// NewTemplatePrompt returns the default generator.
func NewTemplatePrompt(cfg *config.Config, workDir string) *TemplatePrompt {
	return &TemplatePrompt{Config: cfg, WorkDir: workDir}
}

// Generate renders the prompt. It returns models.SentinelComplete when no task
// is pending and models.SentinelLimitReached when the iteration exceeds the cap.
func (p *TemplatePrompt) Generate(ctx context.Context, pc PromptContext) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if pc.MaxIterations > 0 && pc.Iteration > pc.MaxIterations {
		return models.SentinelLimitReached, nil
	}
	next, ok := pc.Tasks.Next()
	if !ok {
		return models.SentinelComplete, nil
	}

	text, err := p.template()
	if err != nil {
		return "", err
	}
	tmpl, err := template.New("prompt").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse prompt template: %w", err)
	}

	maxLabel := fmt.Sprintf("%d", pc.MaxIterations)
	if pc.MaxIterations >= models.UnboundedIterations {
		maxLabel = "∞"
	}
	data := promptData{
		TasksFile:     p.Config.Paths.TasksFile,
		ContextFiles:  p.Config.Prompt.ContextFiles,
		Iteration:     pc.Iteration,
		MaxIterations: maxLabel,
		Completed:     pc.Tasks.CompletedCount(),
		Total:         len(pc.Tasks.Tasks),
		Task:          &next,
		Gates:         p.Config.FeedbackLoops.Gates(),
	}

	var out strings.Builder
	if err := tmpl.Execute(&out, data); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return out.String(), nil
}

func (p *TemplatePrompt) template() (string, error) {
	path := strings.TrimSpace(p.Config.Prompt.File)
	if path == "" {
		return defaultPromptTemplate, nil
	}
	if !filepath.IsAbs(path) && p.WorkDir != "" {
		path = filepath.Join(p.WorkDir, path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read prompt template: %w", err)
	}
	return string(content), nil
}
