// Package report renders decision output for terminals.
package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/lox/flip7helper/internal/decision"
	"github.com/lox/flip7helper/internal/deck"
	"github.com/lox/flip7helper/internal/montecarlo"
	"github.com/lox/flip7helper/internal/round"
	"github.com/muesli/termenv"
)

// StandardDeckNote is shown when the engine attached no notes
const StandardDeckNote = "Using standard 94-card Flip 7 deck."

// Printer writes styled reports to a single writer
type Printer struct {
	w io.Writer

	header  lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	good    lipgloss.Style
	warn    lipgloss.Style
	bad     lipgloss.Style
	muted   lipgloss.Style
	verdict map[decision.Recommendation]lipgloss.Style
}

// NewPrinter creates a printer. With color false every style renders as
// plain text, which keeps piped output and tests stable.
func NewPrinter(w io.Writer, color bool) *Printer {
	r := lipgloss.NewRenderer(w)
	if !color {
		r.SetColorProfile(termenv.Ascii)
	}

	good := r.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	bad := r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warn := r.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)

	return &Printer{
		w:      w,
		header: r.NewStyle().Bold(true).Foreground(lipgloss.Color("15")),
		label:  r.NewStyle().Foreground(lipgloss.Color("12")),
		value:  r.NewStyle().Foreground(lipgloss.Color("14")),
		good:   good,
		warn:   warn,
		bad:    bad,
		muted:  r.NewStyle().Foreground(lipgloss.Color("8")),
		verdict: map[decision.Recommendation]lipgloss.Style{
			decision.Take:    good,
			decision.Stay:    bad,
			decision.Neutral: warn,
		},
	}
}

// Advice prints the report for one decision point. Flip-Three lines are
// shown when the player holds Flip Three or showFlipThree is set.
func (p *Printer) Advice(name string, state round.State, out decision.Output, showFlipThree bool) error {
	var b strings.Builder
	b.WriteString("\n")
	if name != "" {
		fmt.Fprintf(&b, "%s\n", p.header.Render(name))
	}

	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	row := func(k, v string) {
		fmt.Fprintf(tw, "%s\t%s\n", p.label.Render(k), v)
	}

	row("numbers", p.value.Render(state.Numbers.String()))
	bank := p.value.Render(fmt.Sprint(out.CurrentBank))
	if detail := bankDetail(state); detail != "" {
		bank += "  " + p.muted.Render(detail)
	}
	row("bank", bank)
	row("remaining", p.value.Render(fmt.Sprintf("%d cards", out.RemainingCards)))
	row("bust next", p.risk(out.BustProbabilityNext, out.Threshold))
	row("ev next", p.value.Render(fmt.Sprintf("%.2f", out.ExpectedValueNext)))
	if state.FlipThreeActive || showFlipThree {
		row("bust flip 3", p.risk(out.BustProbabilityFlipThree, out.Threshold))
		row("ev flip 3", p.value.Render(fmt.Sprintf("%.2f", out.ExpectedValueFlipThree)))
	}
	row("threshold", p.value.Render(Percent(out.Threshold)))
	row("gain", p.value.Render(fmt.Sprintf("%+.2f", out.MarginalGain)))
	rec := out.Recommendation()
	row("advice", p.verdict[rec].Render(rec.String()))
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(out.Notes) == 0 {
		fmt.Fprintf(&b, "%s\n", p.muted.Render(StandardDeckNote))
	}
	for _, n := range out.Notes {
		fmt.Fprintf(&b, "%s %s\n", p.warn.Render("note:"), n)
	}

	_, err := io.WriteString(p.w, b.String())
	return err
}

// Simulation prints the engine's estimates next to sampled results
func (p *Printer) Simulation(out decision.Output, res montecarlo.Result) error {
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\n",
		p.header.Render("measure"),
		p.header.Render("engine"),
		p.header.Render("sampled"))

	rows := []struct {
		name            string
		engine, sampled string
	}{
		{"bust next", Percent(out.BustProbabilityNext), Percent(res.BustNext)},
		{"ev next", fmt.Sprintf("%.2f", out.ExpectedValueNext), withMargin(res.MeanBankNext, res.StdErrBankNext)},
		{"bust flip 3", Percent(out.BustProbabilityFlipThree), Percent(res.BustFlipThree)},
		{"ev flip 3", fmt.Sprintf("%.2f", out.ExpectedValueFlipThree), withMargin(res.MeanBankFlipThree, res.StdErrBankFlipThree)},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.label.Render(r.name), p.value.Render(r.engine), p.value.Render(r.sampled))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(p.w, "%s\n", p.muted.Render(fmt.Sprintf("%d samples", res.Samples)))
	return err
}

// Deck prints the remaining count of every label
func (p *Printer) Deck(remaining deck.Composition) error {
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\n",
		p.header.Render("card"),
		p.header.Render("left"),
		p.header.Render("odds"))

	standard := deck.Standard()
	for _, l := range deck.AllLabels() {
		n := remaining.Count(l)
		style := p.value
		switch {
		case n == 0:
			style = p.muted
		case n < standard.Count(l):
			style = p.warn
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n",
			p.label.Render(l.String()),
			style.Render(fmt.Sprintf("%d/%d", n, standard.Count(l))),
			style.Render(Percent(remaining.ProbabilityOf(l))))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(p.w, "%s\n", p.muted.Render(fmt.Sprintf("%d of %d cards left", remaining.Total(), deck.StandardTotal)))
	return err
}

// risk colours a probability against the break-even threshold
func (p *Printer) risk(prob, threshold float64) string {
	s := Percent(prob)
	switch {
	case prob > threshold:
		return p.bad.Render(s)
	case prob > threshold*0.8:
		return p.warn.Render(s)
	default:
		return p.good.Render(s)
	}
}

// withMargin formats a sampled mean with its 95% margin when known
func withMargin(mean, stdErr float64) string {
	if stdErr <= 0 {
		return fmt.Sprintf("%.2f", mean)
	}
	return fmt.Sprintf("%.2f ±%.2f", mean, 1.96*stdErr)
}

// Percent formats a probability with one decimal place
func Percent(x float64) string {
	return fmt.Sprintf("%.1f%%", 100*x)
}

func bankDetail(s round.State) string {
	var parts []string
	if s.MultiplierX2 {
		parts = append(parts, "x2")
	}
	if s.AddPoints != 0 {
		parts = append(parts, fmt.Sprintf("%+d", s.AddPoints))
	}
	if s.HasSecondChance {
		parts = append(parts, "second chance")
	}
	if s.HasFlipSeven() {
		parts = append(parts, "flip 7")
	}
	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
