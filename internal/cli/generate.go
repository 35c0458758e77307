package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"infographic/internal/gateway/service/generation"
	"infographic/internal/llm"
	"infographic/internal/prompt"
	"infographic/internal/report"
	"infographic/internal/util/jsonutil"
)

type generateFlags struct {
	provider  string
	model     string
	language  string
	search    bool
	maxTokens int
	sections  int
	out       string
}

func newGenerateCmd(e *env) *cobra.Command {
	var f generateFlags
	cmd := &cobra.Command{
		Use:   "generate <topic>",
		Short: "Generate one report and print it as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.runGenerate(cmd, strings.Join(args, " "), f)
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&f.provider, "provider", "p", "", "provider id (default from config)")
	fl.StringVarP(&f.model, "model", "m", "", "model id (provider default when empty)")
	fl.StringVarP(&f.language, "language", "l", "en", "output language code")
	fl.BoolVar(&f.search, "search", false, "ground the report with web search when supported")
	fl.IntVar(&f.maxTokens, "max-tokens", 0, "output token budget; selects the reasoning model")
	fl.IntVar(&f.sections, "sections", prompt.DefaultSections, "number of sections")
	fl.StringVarP(&f.out, "out", "o", "", "write the report to this file instead of stdout")
	return cmd
}

func (e *env) runGenerate(cmd *cobra.Command, topic string, f generateFlags) error {
	cfg, log, err := e.load()
	if err != nil {
		return err
	}
	c, err := e.build(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer c.Close()

	req := generation.Request{
		Provider: f.provider,
		Topic:    topic,
		Options: llm.Options{
			Model:        f.model,
			Language:     prompt.ParseLanguage(f.language),
			EnableSearch: f.search,
			MaxTokens:    f.maxTokens,
			SectionCount: f.sections,
		},
	}

	p := newProgress(e.stderr)
	start := time.Now()
	res, err := c.Service.Generate(cmd.Context(), req, p.update)
	if err != nil {
		p.fail(err)
		return err
	}
	p.done(res, time.Since(start))

	raw, err := jsonutil.MarshalNoEscapeIndent(res.Report)
	if err != nil {
		return err
	}
	raw = append(raw, '\n')
	if f.out == "" {
		_, err = e.stdout.Write(raw)
		return err
	}
	if err := os.WriteFile(f.out, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", f.out, err)
	}
	return nil
}

// progress redraws one status line on a terminal and stays silent
// otherwise.
type progress struct {
	w        io.Writer
	tty      bool
	partials int
}

func newProgress(w io.Writer) *progress {
	return &progress{w: w, tty: isTTY(w)}
}

func (p *progress) update(r *report.Report) {
	p.partials++
	if !p.tty {
		return
	}
	fmt.Fprintf(p.w, "\r\033[K%s %s %s",
		styleWarn.Render("…"),
		styleDim.Render(fmt.Sprintf("%d sections", len(r.Sections))),
		truncate(r.Title, 60))
}

func (p *progress) done(res *generation.Result, elapsed time.Duration) {
	if !p.tty {
		return
	}
	note := fmt.Sprintf("%s/%s in %s", res.Provider, res.Model, elapsed.Round(100*time.Millisecond))
	if res.Cached {
		note += ", cached"
	}
	fmt.Fprintf(p.w, "\r\033[K%s %s %s\n", styleOK.Render("✓"), res.Report.Title, styleDim.Render("("+note+")"))
}

func (p *progress) fail(err error) {
	if !p.tty {
		return
	}
	fmt.Fprintf(p.w, "\r\033[K%s %s\n", styleErr.Render("✗ "+llm.ErrorKind(err)), err)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
