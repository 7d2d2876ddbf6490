package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/fyrsmithlabs/stagehand/internal/agents"
)

const separatorWidth = 40

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12"))

	okStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("10"))

	failedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("9"))

	agentStyle = lipgloss.NewStyle().
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// Console renders a stage report for humans.
type Console struct {
	out io.Writer
}

// NewConsole creates a console emitter. A nil writer defaults to
// stdout.
func NewConsole(out io.Writer) *Console {
	if out == nil {
		out = os.Stdout
	}
	return &Console{out: out}
}

func (c *Console) Emit(_ context.Context, rep *StageReport) error {
	var b strings.Builder

	ok, failed := rep.Counts()
	b.WriteString(titleStyle.Render(fmt.Sprintf("Stage %s", rep.Stage)))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  run %s  %s  %d ok / %d failed",
		rep.RunID, rep.Duration().Round(time.Millisecond), ok, failed)))
	b.WriteString("\n\n")

	for i, res := range rep.Results {
		if i > 0 {
			b.WriteString(separatorStyle.Render(strings.Repeat("-", separatorWidth)))
			b.WriteString("\n")
		}
		writeResult(&b, res)
	}

	_, err := io.WriteString(c.out, b.String())
	return err
}

func writeResult(b *strings.Builder, res agents.Result) {
	badge := okStyle.Render("ok    ")
	if res.Status == agents.StatusFailed {
		badge = failedStyle.Render("failed")
	}
	b.WriteString(fmt.Sprintf("%s %s %s\n",
		badge,
		agentStyle.Render(res.AgentID),
		dimStyle.Render(time.Duration(res.Duration).Round(time.Millisecond).String())))

	if res.Status == agents.StatusFailed {
		b.WriteString(fmt.Sprintf("       %s\n\n", res.Error))
		return
	}

	b.WriteString(renderFindings(res.Findings))
	b.WriteString("\n")
}

// renderFindings pretty-prints the findings payload. Findings are
// plain structs; JSON is the one rendering every agent shares.
func renderFindings(findings any) string {
	if findings == nil {
		return ""
	}
	raw, err := json.MarshalIndent(findings, "       ", "  ")
	if err != nil {
		return fmt.Sprintf("       %v\n", findings)
	}
	return fmt.Sprintf("       %s\n", raw)
}

var _ Emitter = (*Console)(nil)
