// Package log carries the console progress indicators used by long-running
// evaluation commands.
package log

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ProgressIndicator provides visual feedback for long-running operations
// such as sampling a light curve over many epochs.
type ProgressIndicator struct {
	mu           sync.Mutex
	name         string
	total        int
	current      int
	startTime    time.Time
	spinner      *Spinner
	showSpinner  bool
	showProgress bool
	showETA      bool
}

// Spinner provides rotating visual feedback.
type Spinner struct {
	mu       sync.Mutex
	chars    []string
	current  int
	interval time.Duration
	stop     chan bool
	running  bool
}

// ProgressConfig configures progress indicator behavior.
type ProgressConfig struct {
	ShowSpinner  bool
	ShowProgress bool
	ShowETA      bool
	SpinnerStyle SpinnerStyle
}

// SpinnerStyle selects a spinner animation.
type SpinnerStyle string

const (
	SpinnerDots SpinnerStyle = "dots"
	SpinnerLine SpinnerStyle = "line"
)

// NewProgressIndicator creates a progress indicator over total items.
func NewProgressIndicator(name string, total int, config ProgressConfig) *ProgressIndicator {
	pi := &ProgressIndicator{
		name:         name,
		total:        total,
		startTime:    time.Now(),
		showSpinner:  config.ShowSpinner,
		showProgress: config.ShowProgress,
		showETA:      config.ShowETA,
	}
	if config.ShowSpinner {
		pi.spinner = NewSpinner(config.SpinnerStyle)
		pi.spinner.Start()
	}
	return pi
}

// NewSpinner creates a spinner with the given style.
func NewSpinner(style SpinnerStyle) *Spinner {
	s := &Spinner{
		interval: 100 * time.Millisecond,
		stop:     make(chan bool, 1),
	}
	switch style {
	case SpinnerLine:
		s.chars = []string{"-", "\\", "|", "/"}
	default:
		s.chars = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	}
	return s
}

// Start begins the spinner animation.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	go s.spin()
}

// Stop terminates the spinner animation.
func (s *Spinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	s.stop <- true
}

func (s *Spinner) spin() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			s.current = (s.current + 1) % len(s.chars)
			s.mu.Unlock()
		}
	}
}

// Current returns the current spinner character.
func (s *Spinner) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chars[s.current]
}

// Increment advances progress by one step.
func (pi *ProgressIndicator) Increment() {
	pi.mu.Lock()
	defer pi.mu.Unlock()
	pi.current++
	if pi.showProgress || pi.showETA {
		pi.print("")
	}
}

// Update sets the current progress value.
func (pi *ProgressIndicator) Update(current int) {
	pi.mu.Lock()
	defer pi.mu.Unlock()
	pi.current = current
	if pi.showProgress || pi.showETA {
		pi.print("")
	}
}

// UpdateWithMessage sets progress and displays a custom message.
func (pi *ProgressIndicator) UpdateWithMessage(current int, message string) {
	pi.mu.Lock()
	defer pi.mu.Unlock()
	pi.current = current
	if pi.visible() {
		pi.print(message)
	}
}

func (pi *ProgressIndicator) visible() bool {
	return pi.showSpinner || pi.showProgress || pi.showETA
}

// Finish completes the progress indicator.
func (pi *ProgressIndicator) Finish() {
	pi.mu.Lock()
	defer pi.mu.Unlock()
	if pi.spinner != nil {
		pi.spinner.Stop()
	}
	if !pi.visible() {
		return
	}
	duration := time.Since(pi.startTime)
	fmt.Printf("\r✅ %s completed (%d items, %v)\n", pi.name, pi.total, duration.Round(time.Millisecond))
}

// FinishWithMessage completes the progress indicator with a custom message.
func (pi *ProgressIndicator) FinishWithMessage(message string) {
	pi.mu.Lock()
	defer pi.mu.Unlock()
	if pi.spinner != nil {
		pi.spinner.Stop()
	}
	if !pi.visible() {
		return
	}
	duration := time.Since(pi.startTime)
	fmt.Printf("\r✅ %s: %s (%v)\n", pi.name, message, duration.Round(time.Millisecond))
}

// Fail marks the progress as failed.
func (pi *ProgressIndicator) Fail(reason string) {
	pi.mu.Lock()
	defer pi.mu.Unlock()
	if pi.spinner != nil {
		pi.spinner.Stop()
	}
	if !pi.visible() {
		return
	}
	duration := time.Since(pi.startTime)
	fmt.Printf("\r❌ %s failed: %s (%v)\n", pi.name, reason, duration.Round(time.Millisecond))
}

func (pi *ProgressIndicator) print(message string) {
	var output strings.Builder
	output.WriteString("\r\033[K")

	if pi.spinner != nil && pi.showSpinner {
		output.WriteString(pi.spinner.Current())
		output.WriteString(" ")
	}
	output.WriteString(pi.name)

	if pi.showProgress && pi.total > 0 {
		const barWidth = 20
		filled := barWidth * pi.current / pi.total
		output.WriteString(" [")
		output.WriteString(strings.Repeat("█", filled))
		output.WriteString(strings.Repeat("░", barWidth-filled))
		percentage := float64(pi.current) / float64(pi.total) * 100
		output.WriteString(fmt.Sprintf("] %d/%d (%.1f%%)", pi.current, pi.total, percentage))
	} else if pi.total > 0 {
		output.WriteString(fmt.Sprintf(" (%d/%d)", pi.current, pi.total))
	}

	if pi.showETA && pi.total > 0 && pi.current > 0 {
		elapsed := time.Since(pi.startTime)
		rate := float64(pi.current) / elapsed.Seconds()
		eta := time.Duration(float64(pi.total-pi.current)/rate) * time.Second
		if eta > time.Hour {
			output.WriteString(fmt.Sprintf(" ETA: %v", eta.Round(time.Minute)))
		} else {
			output.WriteString(fmt.Sprintf(" ETA: %v", eta.Round(time.Second)))
		}
	}

	if message != "" {
		output.WriteString(" - ")
		output.WriteString(message)
	}
	fmt.Print(output.String())
}

// StepLogger provides step-by-step progress logging for evaluation
// pipelines.
type StepLogger struct {
	steps     []string
	current   int
	stepStart time.Time
	startTime time.Time
	progress  *ProgressIndicator
}

// NewStepLogger creates a step logger over a fixed pipeline.
func NewStepLogger(name string, steps []string, config ProgressConfig) *StepLogger {
	return &StepLogger{
		steps:     steps,
		current:   -1,
		startTime: time.Now(),
		progress:  NewProgressIndicator(name, len(steps), config),
	}
}

// StartStep begins the named pipeline step.
func (sl *StepLogger) StartStep(stepName string) {
	index := -1
	for i, step := range sl.steps {
		if step == stepName {
			index = i
			break
		}
	}
	if index == -1 {
		log.Warn().Str("step", stepName).Msg("Unknown pipeline step")
		return
	}

	sl.current = index
	sl.stepStart = time.Now()
	sl.progress.UpdateWithMessage(index+1, stepName)

	log.Info().
		Str("step", stepName).
		Int("step_number", index+1).
		Int("total_steps", len(sl.steps)).
		Msg("Starting pipeline step")
}

// CompleteStep marks the current step as completed.
func (sl *StepLogger) CompleteStep() {
	if sl.current < 0 {
		return
	}
	log.Info().
		Str("step", sl.steps[sl.current]).
		Dur("duration", time.Since(sl.stepStart)).
		Msg("Pipeline step completed")
}

// Finish completes the step logger. Steps are closed individually with
// CompleteStep.
func (sl *StepLogger) Finish() {
	sl.progress.FinishWithMessage(fmt.Sprintf("All %d steps completed", len(sl.steps)))
	log.Info().
		Dur("total_duration", time.Since(sl.startTime)).
		Msg("Pipeline completed")
}

// Fail marks the step logger as failed.
func (sl *StepLogger) Fail(reason string) {
	sl.progress.Fail(reason)
	log.Error().
		Str("failed_step", sl.currentStepName()).
		Int("completed_steps", sl.current).
		Int("total_steps", len(sl.steps)).
		Str("reason", reason).
		Msg("Pipeline failed")
}

func (sl *StepLogger) currentStepName() string {
	if sl.current >= 0 && sl.current < len(sl.steps) {
		return sl.steps[sl.current]
	}
	return "unknown"
}

// QuietProgressConfig returns a configuration that suppresses console
// output, for scripted runs.
func QuietProgressConfig() ProgressConfig {
	return ProgressConfig{}
}

// DefaultProgressConfig returns the interactive configuration.
func DefaultProgressConfig() ProgressConfig {
	return ProgressConfig{
		ShowSpinner:  true,
		ShowProgress: true,
		ShowETA:      true,
		SpinnerStyle: SpinnerDots,
	}
}
