package log

import (
	"time"

	"github.com/rs/zerolog/log"
)

// StepLogger reports progress through a fixed, named sequence of
// startup steps, logging structured start/complete/fail events and,
// when the sequence finishes, a total duration followed by one timing
// line per step.
type StepLogger struct {
	name        string
	steps       []string
	currentStep int
	startTime   time.Time
	stepStart   time.Time
	stepTimes   []time.Duration
}

// NewStepLogger creates a step logger for the named sequence of steps.
func NewStepLogger(name string, steps []string) *StepLogger {
	return &StepLogger{
		name:        name,
		steps:       steps,
		currentStep: -1,
		startTime:   time.Now(),
		stepTimes:   make([]time.Duration, len(steps)),
	}
}

// StartStep begins the named step.
func (sl *StepLogger) StartStep(stepName string) {
	stepIndex := -1
	for i, step := range sl.steps {
		if step == stepName {
			stepIndex = i
			break
		}
	}

	if stepIndex == -1 {
		log.Warn().Str("step", stepName).Msg("unknown pipeline step")
		return
	}

	sl.currentStep = stepIndex
	sl.stepStart = time.Now()

	log.Info().
		Str("step", stepName).
		Int("step_number", stepIndex+1).
		Int("total_steps", len(sl.steps)).
		Msg("starting pipeline step")
}

// CompleteStep marks the current step as completed.
func (sl *StepLogger) CompleteStep() {
	if sl.currentStep < 0 {
		return
	}

	duration := time.Since(sl.stepStart)
	sl.stepTimes[sl.currentStep] = duration

	log.Info().
		Str("step", sl.steps[sl.currentStep]).
		Dur("duration", duration).
		Msg("pipeline step completed")
}

// Finish completes the step logger and prints a timing summary.
func (sl *StepLogger) Finish() {
	totalDuration := time.Since(sl.startTime)

	log.Info().
		Str("pipeline", sl.name).
		Dur("total_duration", totalDuration).
		Msg("pipeline completed")

	for i, step := range sl.steps {
		log.Info().
			Str("step", step).
			Dur("duration", sl.stepTimes[i]).
			Msgf("  %d. %s", i+1, step)
	}
}

// Fail marks the step logger as failed at the current step.
func (sl *StepLogger) Fail(reason string) {
	log.Error().
		Str("pipeline", sl.name).
		Str("failed_step", sl.getCurrentStepName()).
		Int("completed_steps", sl.currentStep).
		Int("total_steps", len(sl.steps)).
		Str("reason", reason).
		Msg("pipeline failed")
}

func (sl *StepLogger) getCurrentStepName() string {
	if sl.currentStep >= 0 && sl.currentStep < len(sl.steps) {
		return sl.steps[sl.currentStep]
	}
	return "unknown"
}
