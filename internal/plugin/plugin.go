package plugin

import "rustex/internal/graph"

// Phase orders plugin execution. Enrich plugins run first and may annotate
// element metadata; Report plugins run after and only read.
type Phase string

const (
	PhaseEnrich Phase = "enrich"
	PhaseReport Phase = "report"
)

// Plugin is one analysis pass over the finished project model.
type Plugin interface {
	Name() string
	Phase() Phase
	Run(*Context) error
}

// Finding is one observation a plugin surfaces to the user.
type Finding struct {
	Plugin    string `json:"plugin"`
	Code      string `json:"code"`
	ElementID string `json:"element_id,omitempty"`
	Message   string `json:"message"`
}

// Context carries the project through a run and collects findings. The
// element Metadata maps are the only part of the model plugins may write.
type Context struct {
	Project *graph.Project

	current  string
	findings []Finding
}

// AddFinding records a finding attributed to the running plugin.
func (c *Context) AddFinding(code, elementID, message string) {
	c.findings = append(c.findings, Finding{
		Plugin:    c.current,
		Code:      code,
		ElementID: elementID,
		Message:   message,
	})
}

// Findings returns everything collected so far in emission order.
func (c *Context) Findings() []Finding { return c.findings }

// StageResult records one plugin execution.
type StageResult struct {
	Plugin   string
	Phase    Phase
	Findings int
	Err      error
}

// Runner executes plugins phase by phase, Enrich before Report, keeping
// registration order within a phase. A failing plugin is recorded in its
// StageResult and the run continues.
type Runner struct {
	plugins []Plugin
}

func NewRunner(plugins ...Plugin) *Runner {
	return &Runner{plugins: plugins}
}

// NewDefaultRunner wires the built-in plugins.
func NewDefaultRunner() *Runner {
	return NewRunner(NewHotspots(5), NewDeadCode(), NewDocCoverage())
}

func (r *Runner) Run(p *graph.Project) (*Context, []StageResult) {
	ctx := &Context{Project: p}
	var out []StageResult
	for _, phase := range []Phase{PhaseEnrich, PhaseReport} {
		for _, pl := range r.plugins {
			if pl.Phase() != phase {
				continue
			}
			before := len(ctx.findings)
			ctx.current = pl.Name()
			err := pl.Run(ctx)
			out = append(out, StageResult{
				Plugin:   pl.Name(),
				Phase:    phase,
				Findings: len(ctx.findings) - before,
				Err:      err,
			})
		}
	}
	ctx.current = ""
	return ctx, out
}
