package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/ytget/ytmux/internal/model"
)

var (
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccent))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorError))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorOK))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorMuted))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorAccent)).MarginTop(1)
	failedPrefix = "Failed"
)

// Reporter prints status messages and progress for one process.
// It is safe to call from the pipeline worker goroutine.
type Reporter struct {
	mu          sync.Mutex
	out         io.Writer
	interactive bool
	bar         progress.Model
	barVisible  bool
	lastStep    int
}

// NewReporter creates a reporter writing to out. Interactive reporters redraw a
// progress bar in place; others print a line every PlainProgressStep percent.
func NewReporter(out io.Writer, interactive bool) *Reporter {
	return &Reporter{
		out:         out,
		interactive: interactive,
		bar:         progress.New(progress.WithDefaultGradient(), progress.WithWidth(ProgressBarWidth)),
		lastStep:    -1,
	}
}

// NewConsoleReporter creates a reporter on stdout, interactive when stdout is a terminal
func NewConsoleReporter() *Reporter {
	return NewReporter(os.Stdout, term.IsTerminal(int(os.Stdout.Fd())))
}

// Status prints one status line
func (r *Reporter) Status(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.endBar()
	r.lastStep = -1

	style := statusStyle
	if strings.HasPrefix(msg, failedPrefix) {
		style = errorStyle
	}
	fmt.Fprintln(r.out, style.Render(IconArrow+" "+msg))
}

// Progress renders a fraction in [0,1]
func (r *Reporter) Progress(fraction float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.interactive {
		fmt.Fprint(r.out, "\r"+r.bar.ViewAs(fraction))
		r.barVisible = true
		return
	}

	percent := int(fraction * 100)
	step := percent / PlainProgressStep
	if step <= r.lastStep {
		return
	}
	r.lastStep = step
	fmt.Fprintln(r.out, mutedStyle.Render(fmt.Sprintf(ProgressLabelFormat, step*PlainProgressStep)))
}

// Summary prints the per-item outcome of a run
func (r *Reporter) Summary(c *model.Collection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.endBar()
	if len(c.Items) == 0 {
		return
	}

	fmt.Fprintln(r.out, headerStyle.Render(SummaryHeader))
	for _, item := range c.Items {
		fmt.Fprintln(r.out, FormatItem(item))
	}
}

// FormatItem renders one collection item as a single line
func FormatItem(item *model.CollectionItem) string {
	title := item.Title
	if title == "" {
		title = item.URL
	}

	if item.State != model.RunStateDone {
		detail := item.Error
		if detail == "" {
			detail = DashPlaceholder
		}
		return errorStyle.Render(IconError+" "+title) + MiddleDotSeparator + mutedStyle.Render(detail)
	}

	line := okStyle.Render(IconDone+" "+title) + MiddleDotSeparator + mutedStyle.Render(item.OutputPath)
	if item.CaptionPath != "" {
		line += MiddleDotSeparator + mutedStyle.Render(IconCaption+" "+item.CaptionPath)
	}
	return line
}

func (r *Reporter) endBar() {
	if r.barVisible {
		fmt.Fprintln(r.out)
		r.barVisible = false
	}
}
