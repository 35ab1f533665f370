package report

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/glamour"

	"github.com/kbukum/llmflow/errors"
	"github.com/kbukum/llmflow/pipeline"
)

const defaultWidth = 80

// Field is one "Label: VALUE" entry of the final status line.
type Field struct {
	Label string
	Value string
}

// StatusFunc derives the final status fields from a finished run.
type StatusFunc func(run *pipeline.Run) []Field

// Config configures a Printer.
type Config struct {
	// Title is printed in the opening and closing banners.
	Title string `yaml:"title" mapstructure:"title"`
	// Plain disables colors and markdown rendering.
	Plain bool `yaml:"plain" mapstructure:"plain"`
	// Width is the rule and word-wrap width. Defaults to 80.
	Width int `yaml:"width" mapstructure:"width" validate:"gte=0"`
	// Style is the glamour style: "auto", "dark", "light", or "notty".
	Style string `yaml:"style" mapstructure:"style"`
	// Preview prints the first Preview characters of the input before the
	// first stage. Zero disables it.
	Preview int `yaml:"preview" mapstructure:"preview"`
	// ShowTimings appends each stage's duration to its output.
	ShowTimings bool `yaml:"show_timings" mapstructure:"show_timings"`
}

// Printer renders a pipeline run to a console. It implements
// pipeline.Observer: each stage gets a numbered section header, text
// results are rendered as markdown, structured results as indented JSON,
// and streamed fragments are written as they arrive.
type Printer struct {
	out    io.Writer
	errOut io.Writer
	cfg    Config
	styles Styles
	md     *glamour.TermRenderer
	titles map[string]string
	status StatusFunc
	footer []string

	step int
}

// Option configures a Printer.
type Option func(*Printer)

// WithTitles sets section titles by stage name. Stages without an entry
// are titled from their name.
func WithTitles(titles map[string]string) Option {
	return func(p *Printer) { p.titles = titles }
}

// WithStatus sets the function that builds the final status fields.
func WithStatus(fn StatusFunc) Option {
	return func(p *Printer) { p.status = fn }
}

// WithFooter sets lines printed after a successful run.
func WithFooter(lines ...string) Option {
	return func(p *Printer) { p.footer = lines }
}

// WithErrorOutput sets where failures are written. Defaults to out.
func WithErrorOutput(w io.Writer) Option {
	return func(p *Printer) { p.errOut = w }
}

// New creates a Printer writing the report to out.
func New(out io.Writer, cfg Config, opts ...Option) (*Printer, error) {
	if cfg.Width <= 0 {
		cfg.Width = defaultWidth
	}
	p := &Printer{
		out:    out,
		errOut: out,
		cfg:    cfg,
		styles: PlainStyles(),
	}
	if !cfg.Plain {
		p.styles = NewStyles(out)
		md, err := newMarkdownRenderer(cfg)
		if err != nil {
			return nil, errors.Configuration("report: markdown renderer").WithCause(err)
		}
		p.md = md
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func newMarkdownRenderer(cfg Config) (*glamour.TermRenderer, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(cfg.Width)}
	switch cfg.Style {
	case "", "auto":
		opts = append(opts, glamour.WithAutoStyle())
	default:
		opts = append(opts, glamour.WithStandardStyle(cfg.Style))
	}
	return glamour.NewTermRenderer(opts...)
}

// RunStarted prints the opening banner and the optional input preview.
func (p *Printer) RunStarted(run *pipeline.Run) {
	p.step = 0
	p.banner(p.title(run))

	if p.cfg.Preview > 0 {
		text := run.Input.Text()
		preview := []rune(text)
		if len(preview) > p.cfg.Preview {
			text = string(preview[:p.cfg.Preview]) + "..."
		}
		fmt.Fprintf(p.out, "\n%s\n%s\n%s\n%s\n",
			p.styles.Label.Render("Input ("+run.Input.Source()+"):"),
			p.rule("-"), text, p.rule("-"))
	}
}

// StageStarted prints the numbered section header.
func (p *Printer) StageStarted(_ *pipeline.Run, stage pipeline.Stage) {
	p.step++
	header := fmt.Sprintf("STEP %d: %s", p.step, p.stageTitle(stage.Name()))
	fmt.Fprintf(p.out, "\n%s\n%s\n%s\n\n", p.rule("="), p.styles.Header.Render(header), p.rule("="))
	if stage.Kind() == pipeline.KindStreamed {
		fmt.Fprintln(p.out, p.styles.Muted.Render("Generating (streaming)..."))
		fmt.Fprintln(p.out)
	}
}

// Fragment writes a streamed fragment immediately.
func (p *Printer) Fragment(_ *pipeline.Run, _, fragment string) {
	_, _ = io.WriteString(p.out, fragment)
}

// StageCompleted prints the stage output. Streamed output has already
// been written fragment by fragment.
func (p *Printer) StageCompleted(_ *pipeline.Run, _ pipeline.Stage, result pipeline.Result, d time.Duration) {
	switch result.Kind() {
	case pipeline.KindStreamed:
		fmt.Fprintln(p.out)
	case pipeline.KindStructured:
		fmt.Fprintln(p.out, result.Record().JSON())
	default:
		fmt.Fprintln(p.out, p.markdown(result.Text()))
	}
	if p.cfg.ShowTimings {
		fmt.Fprintln(p.out, p.styles.Muted.Render(fmt.Sprintf("(%s)", d.Round(time.Millisecond))))
	}
}

// StageFailed prints the failure and, for schema violations, the raw
// response that could not be parsed.
func (p *Printer) StageFailed(_ *pipeline.Run, stage pipeline.Stage, err *errors.AppError, _ time.Duration) {
	if stage.Kind() == pipeline.KindStreamed {
		fmt.Fprintln(p.out)
	}
	fmt.Fprintln(p.errOut, p.styles.Error.Render("ERROR: ")+err.Error())
	if raw, ok := err.Details["raw_response"].(string); ok && raw != "" {
		fmt.Fprintf(p.errOut, "%s\n%s\n", p.styles.Label.Render("Raw response:"), raw)
	}
}

// RunFinished prints the closing banner and status line of a successful
// run, or the failing stage of a failed one.
func (p *Printer) RunFinished(run *pipeline.Run) {
	if !run.Succeeded() {
		where := "before the first stage"
		if run.FailedStage != "" {
			where = fmt.Sprintf("at stage %q", run.FailedStage)
		}
		fmt.Fprintf(p.errOut, "\n%s\n", p.styles.Error.Render(
			fmt.Sprintf("%s failed %s (%s)", p.title(run), where, run.FailureCode())))
		return
	}

	p.banner(p.title(run) + " COMPLETE")
	if p.status != nil {
		if fields := p.status(run); len(fields) > 0 {
			fmt.Fprintln(p.out)
			for _, f := range fields {
				fmt.Fprintf(p.out, "%s %s\n", p.styles.Label.Render(f.Label+":"), p.styles.Value.Render(f.Value))
			}
		}
	}
	if len(p.footer) > 0 {
		fmt.Fprintln(p.out)
		for _, line := range p.footer {
			fmt.Fprintln(p.out, line)
		}
	}
}

func (p *Printer) banner(text string) {
	line := p.rule("#")
	fmt.Fprintf(p.out, "\n%s\n%s\n%s\n", line, p.styles.Banner.Render("# "+text), line)
}

func (p *Printer) rule(ch string) string {
	return p.styles.Rule.Render(strings.Repeat(ch, p.cfg.Width))
}

func (p *Printer) markdown(text string) string {
	if p.md == nil {
		return text
	}
	out, err := p.md.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

func (p *Printer) title(run *pipeline.Run) string {
	if p.cfg.Title != "" {
		return strings.ToUpper(p.cfg.Title)
	}
	return strings.ToUpper(Title(run.Pipeline))
}

func (p *Printer) stageTitle(name string) string {
	if t, ok := p.titles[name]; ok {
		return t
	}
	return Title(name)
}

// Title turns a stage or pipeline name such as "seo_review" or
// "code-review" into "Seo Review" / "Code Review".
func Title(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool { return r == '_' || r == '-' || r == ' ' })
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// Upper returns a string field of a structured stage's record upper-cased,
// or "UNKNOWN" when the stage or field is absent.
func Upper(run *pipeline.Run, stage, field string) string {
	res, ok := run.State.Get(stage)
	if !ok || res.Kind() != pipeline.KindStructured {
		return "UNKNOWN"
	}
	v := res.Record().String(field)
	if v == "" {
		return "UNKNOWN"
	}
	return strings.ToUpper(v)
}

var _ pipeline.Observer = (*Printer)(nil)
