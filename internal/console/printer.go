// Package console prints run results, job tables and failures for humans.
package console

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"fraudml/internal/evaluation"
	"fraudml/internal/jobs"
	"fraudml/internal/pipeline"
)

type Printer struct {
	out io.Writer

	green  func(a ...any) string
	red    func(a ...any) string
	yellow func(a ...any) string
	cyan   func(a ...any) string
	blue   func(a ...any) string
}

func NewPrinter(out io.Writer) *Printer {
	return &Printer{
		out:    out,
		green:  color.New(color.FgGreen).SprintFunc(),
		red:    color.New(color.FgRed).SprintFunc(),
		yellow: color.New(color.FgYellow).SprintFunc(),
		cyan:   color.New(color.FgCyan).SprintFunc(),
		blue:   color.New(color.FgBlue).SprintFunc(),
	}
}

func (p *Printer) Result(r *pipeline.Result) {
	fmt.Fprintf(p.out, "\n%s %s\n", p.green("✓"), p.blue(r.Input))
	fmt.Fprintln(p.out, strings.Repeat("═", 60))
	fmt.Fprintf(p.out, "Run ID:      %s\n", r.RunID)
	fmt.Fprintf(p.out, "Target:      %s (%s)\n", r.Target, r.Task)
	fmt.Fprintf(p.out, "Algorithm:   %s\n", r.Model.GetName())
	fmt.Fprintf(p.out, "Rows:        %d train / %d test\n", r.TrainRows, r.TestRows)

	if m := r.Metrics.Classification; m != nil {
		fmt.Fprintln(p.out)
		fmt.Fprint(p.out, m.FormatMetrics())
		p.Confusion(m, r.ClassLabels())
	}
	if m := r.Metrics.Regression; m != nil {
		fmt.Fprintln(p.out)
		fmt.Fprint(p.out, m.FormatMetrics())
	}

	if cv := r.CrossVal; cv != nil {
		fmt.Fprintf(p.out, "CV %s:      %.4f ± %.4f (%d folds)\n", cv.Metric, cv.Mean, cv.Std, len(cv.Scores))
	}

	fmt.Fprintf(p.out, "\nPredictions: %s\n", r.Output)
	fmt.Fprintf(p.out, "Metrics:     %s\n", r.Summary)
	for _, artifact := range r.Artifacts {
		fmt.Fprintf(p.out, "Figure:      %s\n", artifact)
	}
}

// Confusion prints the matrix with actual classes as rows. Correct counts are
// green, misclassifications red.
func (p *Printer) Confusion(m *evaluation.ClassificationMetrics, names map[int]string) {
	label := func(class int) string {
		name, ok := names[class]
		if !ok {
			name = fmt.Sprintf("C%d", class)
		}
		if runes := []rune(name); len(runes) > 8 {
			name = string(runes[:8])
		}
		return name
	}

	fmt.Fprintln(p.out, p.cyan("\nConfusion Matrix:"))
	fmt.Fprintln(p.out, "(Rows = Actual, Columns = Predicted)")
	fmt.Fprintf(p.out, "%-10s", "")
	for _, class := range m.Classes {
		fmt.Fprintf(p.out, "%-10s", label(class))
	}
	fmt.Fprintln(p.out)

	for i, actual := range m.Classes {
		fmt.Fprintf(p.out, "%-10s", label(actual))
		for j := range m.Classes {
			count := m.ConfusionMatrix[i][j]
			cell := fmt.Sprintf("%-10d", count)
			switch {
			case i == j:
				cell = p.green(cell)
			case count > 0:
				cell = p.red(cell)
			}
			fmt.Fprint(p.out, cell)
		}
		fmt.Fprintln(p.out)
	}
}

func (p *Printer) Failure(input string, err error) {
	var se *pipeline.StageError
	if errors.As(err, &se) {
		fmt.Fprintf(p.out, "%s %s: %s at %s: %v\n", p.red("✗"), input, se.Class, se.Stage, se.Err)
		return
	}
	fmt.Fprintf(p.out, "%s %s: %v\n", p.red("✗"), input, err)
}

// Jobs prints one line per run, in the order the runs were started.
func (p *Printer) Jobs(m *jobs.Manager) {
	list := m.ListJobs()
	if len(list) == 0 {
		fmt.Fprintln(p.out, "No runs recorded")
		return
	}

	fmt.Fprintln(p.out, p.cyan("\nRuns:"))
	fmt.Fprintln(p.out, strings.Repeat("-", 96))
	fmt.Fprintf(p.out, "%-36s  %-10s %-10s %-10s %s\n", "Run ID", "Status", "Stage", "Duration", "Input")
	fmt.Fprintln(p.out, strings.Repeat("-", 96))

	for _, job := range list {
		statusColor := p.yellow
		switch job.GetStatus() {
		case jobs.JobCompleted:
			statusColor = p.green
		case jobs.JobFailed:
			statusColor = p.red
		case jobs.JobRunning:
			statusColor = p.cyan
		}
		fmt.Fprintf(p.out, "%-36s  %-10s %-10s %-10s %s\n",
			job.ID, statusColor(string(job.GetStatus())), job.GetStage(),
			job.Duration().Round(time.Millisecond), job.Input)
	}

	counts := m.Counts()
	fmt.Fprintf(p.out, "\n%d completed, %d failed\n", counts[jobs.JobCompleted], counts[jobs.JobFailed])
}

// Records prints CSV-shaped records as an aligned table.
func (p *Printer) Records(records [][]string) {
	if len(records) == 0 {
		return
	}

	widths := make([]int, len(records[0]))
	for _, row := range records {
		for j, cell := range row {
			if j < len(widths) && len(cell) > widths[j] {
				widths[j] = len(cell)
			}
		}
	}

	for i, row := range records {
		for j, cell := range row {
			if j >= len(widths) {
				break
			}
			padded := fmt.Sprintf("%-*s  ", widths[j], cell)
			if i == 0 {
				padded = p.cyan(padded)
			}
			fmt.Fprint(p.out, padded)
		}
		fmt.Fprintln(p.out)
	}
}
