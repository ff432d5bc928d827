package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
)

// StatusTracker keeps track of generation progress
type StatusTracker struct {
	Total     int
	Processed int
	Skipped   int
	Written   int
	StartTime time.Time
}

// NewStatusTracker creates a new status tracker for total entities
func NewStatusTracker(total int) *StatusTracker {
	return &StatusTracker{
		Total:     total,
		StartTime: time.Now(),
	}
}

// IncrementGenerated records an entity whose copies were all written
func (st *StatusTracker) IncrementGenerated(copies int) {
	st.Processed++
	st.Written += copies
}

// IncrementSkipped records a skipped entity
func (st *StatusTracker) IncrementSkipped() {
	st.Processed++
	st.Skipped++
}

// GetProgressBar returns a formatted progress bar over all entities
func (st *StatusTracker) GetProgressBar() string {
	const width = 20
	filled := 0
	if st.Total > 0 {
		filled = st.Processed * width / st.Total
	}
	if filled > width {
		filled = width
	}

	bar := strings.Repeat(ProgressBar, filled) +
		strings.Repeat(ProgressEmpty, width-filled)

	return fmt.Sprintf("[%s] %d/%d", bar, st.Processed, st.Total)
}

// GetElapsedTime returns the elapsed time since tracking started
func (st *StatusTracker) GetElapsedTime() time.Duration {
	return time.Since(st.StartTime)
}

// GetRate returns the average number of entities processed per minute
func (st *StatusTracker) GetRate() float64 {
	elapsed := st.GetElapsedTime().Minutes()
	if elapsed == 0 {
		return 0
	}
	return float64(st.Processed) / elapsed
}

// PrintProgress prints the current progress status on one line
func (st *StatusTracker) PrintProgress() {
	printf(false, "\r%s %s | Files: %d | Skipped: %d",
		Green("[GENERATING]"),
		st.GetProgressBar(),
		st.Written,
		st.Skipped)
}

// SummaryTable renders the final counters as a table
func (st *StatusTracker) SummaryTable() string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Metric", "Value"})
	tw.AppendRows([]table.Row{
		{"Entities processed", st.Processed},
		{"Entities skipped", st.Skipped},
		{"Files written", st.Written},
		{"Elapsed", st.GetElapsedTime().Round(time.Millisecond).String()},
	})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

// PrintSummary prints the final counters
func (st *StatusTracker) PrintSummary() {
	printf(false, "\n%s\n", st.SummaryTable())
}
