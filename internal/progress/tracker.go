package progress

import (
	"fmt"
	"io"
	"os"
	"time"
)

// Tracker interface defines methods for tracking operation progress
type Tracker interface {
	Start(operation string) *Operation
	Update(current, total int64)
	Complete()
	Error(err error)
}

// Operation represents a tracked operation
type Operation struct {
	Name         string
	StartTime    time.Time
	Status       string
	LastUpdate   time.Time
	LastCurrent  int64
	LastTotal    int64
	ProgressRate float64 // items per second
	RateHistory  []float64
	EstimatedETA time.Time
}

const (
	rateHistorySize = 10 // Keep last 10 rate measurements for averaging
)

func newOperation(name string) *Operation {
	now := time.Now()
	return &Operation{
		Name:        name,
		StartTime:   now,
		LastUpdate:  now,
		Status:      "in_progress",
		RateHistory: make([]float64, 0, rateHistorySize),
	}
}

// record updates the moving average rate and the ETA.
func (op *Operation) record(current, total int64, now time.Time) {
	if op.LastCurrent > 0 {
		if dt := now.Sub(op.LastUpdate).Seconds(); dt > 0 {
			rate := float64(current-op.LastCurrent) / dt
			if len(op.RateHistory) >= rateHistorySize {
				op.RateHistory = op.RateHistory[1:]
			}
			op.RateHistory = append(op.RateHistory, rate)

			var sum float64
			for _, r := range op.RateHistory {
				sum += r
			}
			op.ProgressRate = sum / float64(len(op.RateHistory))

			if op.ProgressRate > 0 {
				remaining := float64(total-current) / op.ProgressRate
				op.EstimatedETA = now.Add(time.Duration(remaining * float64(time.Second)))
			}
		}
	}
	op.LastUpdate = now
	op.LastCurrent = current
	op.LastTotal = total
}

// DefaultTracker records progress without printing anything.
type DefaultTracker struct {
	CurrentOperation *Operation
}

// Start begins tracking a new operation
func (t *DefaultTracker) Start(operation string) *Operation {
	t.CurrentOperation = newOperation(operation)
	return t.CurrentOperation
}

// Update updates the progress of the current operation
func (t *DefaultTracker) Update(current, total int64) {
	if t.CurrentOperation == nil {
		return
	}
	t.CurrentOperation.record(current, total, time.Now())
}

// Complete marks the operation as completed
func (t *DefaultTracker) Complete() {
	if t.CurrentOperation != nil {
		t.CurrentOperation.Status = "completed"
	}
}

// Error marks the operation as failed with an error
func (t *DefaultTracker) Error(err error) {
	if t.CurrentOperation != nil {
		t.CurrentOperation.Status = "failed"
	}
}

// ConsoleTracker prints progress lines to a writer.
type ConsoleTracker struct {
	out              io.Writer
	currentOperation *Operation
}

// NewConsoleTracker creates a tracker writing to w, or stderr when w is nil.
func NewConsoleTracker(w io.Writer) *ConsoleTracker {
	if w == nil {
		w = os.Stderr
	}
	return &ConsoleTracker{out: w}
}

// Start begins tracking a new operation
func (t *ConsoleTracker) Start(operation string) *Operation {
	t.currentOperation = newOperation(operation)
	fmt.Fprintf(t.out, "Starting: %s\n", operation)
	return t.currentOperation
}

// Update prints the files done so far and the estimated time left.
func (t *ConsoleTracker) Update(current, total int64) {
	op := t.currentOperation
	if op == nil {
		return
	}
	op.record(current, total, time.Now())

	etaStr := "calculating..."
	if !op.EstimatedETA.IsZero() {
		remaining := time.Until(op.EstimatedETA).Round(time.Second)
		if remaining > 0 {
			etaStr = remaining.String()
		} else {
			etaStr = "almost done"
		}
	}

	if total > 0 {
		fmt.Fprintf(t.out, "\r%s: %d/%d (%.0f%%, %.1f/sec, ETA: %s)",
			op.Name, current, total, float64(current)/float64(total)*100, op.ProgressRate, etaStr)
		return
	}
	fmt.Fprintf(t.out, "\r%s: %d", op.Name, current)
}

// Complete marks the current operation as completed
func (t *ConsoleTracker) Complete() {
	if t.currentOperation == nil {
		return
	}
	duration := time.Since(t.currentOperation.StartTime).Round(time.Millisecond)
	fmt.Fprintf(t.out, "\nCompleted: %s (took %v)\n", t.currentOperation.Name, duration)
	t.currentOperation = nil
}

// Error marks the current operation as failed
func (t *ConsoleTracker) Error(err error) {
	if t.currentOperation == nil {
		return
	}
	fmt.Fprintf(t.out, "\nError: %s - %v\n", t.currentOperation.Name, err)
	t.currentOperation = nil
}
