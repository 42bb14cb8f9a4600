// Package flow implements the form state machine: the step engine that
// advances a session through its schema, and the finalizer that persists and
// fans out a completed application.
package flow

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/itsmetohirr/JobFormBot/internal/models"
	"github.com/itsmetohirr/JobFormBot/internal/schema"
)

// Result is the outcome of handling one inbound input.
type Result struct {
	// Prompt is the message to send back: the next step's prompt on
	// acceptance, or the current prompt (with an optional error line) on
	// rejection. Unset when Finalize is true.
	Prompt models.Prompt
	// Finalize signals that the terminal step was accepted and the caller
	// must invoke the finalizer with the still-populated session.
	Finalize bool
}

// Engine drives one Flow. It is pure synchronous logic over session data
// plus a schema lookup; it never performs I/O.
type Engine struct {
	flow *schema.Flow
}

// NewEngine creates a step engine for the given flow.
func NewEngine(flow *schema.Flow) *Engine {
	slog.Debug("Engine created", "flow", flow.Name, "steps", len(flow.Steps))
	return &Engine{flow: flow}
}

// Flow returns the schema the engine drives.
func (e *Engine) Flow() *schema.Flow {
	return e.flow
}

// Start resets the session to the first step, discarding any partial
// progress, and returns the first prompt. Restart semantics are abandon and
// restart, never resume.
func (e *Engine) Start(session *models.ApplicationSession) models.Prompt {
	session.Reset(e.flow.First())
	slog.Info("Engine form started", "chat_id", session.ChatID, "flow", e.flow.Name, "step", session.CurrentStep)
	step, _ := e.flow.Step(session.CurrentStep)
	return step.Prompt(session.Answers)
}

// HandleInput validates the input against the session's current step. On
// rejection the session is untouched and the current prompt is re-sent; on
// acceptance the answer is recorded and the session advances, or the
// finalize signal is returned at the terminal step.
func (e *Engine) HandleInput(session *models.ApplicationSession, in models.Input) (Result, error) {
	if !session.Active() {
		slog.Debug("Engine input with no active form", "chat_id", session.ChatID)
		return Result{}, models.ErrNoActiveForm
	}

	step, ok := e.flow.Step(session.CurrentStep)
	if !ok {
		slog.Error("Engine session references unknown step", "chat_id", session.ChatID, "step", session.CurrentStep)
		return Result{}, fmt.Errorf("%w: %s", models.ErrUnknownStep, session.CurrentStep)
	}

	value, err := step.Accept(in, session.Answers)
	if err != nil {
		var rej *models.Rejection
		if errors.As(err, &rej) {
			slog.Debug("Engine input rejected", "chat_id", session.ChatID, "step", step.ID, "kind", in.Kind)
			return Result{Prompt: repromptFor(step, session.Answers, rej)}, nil
		}
		return Result{}, err
	}

	session.Answers[step.ID] = value
	next := e.flow.NextAfter(step, value)
	if next == schema.Finalize {
		slog.Info("Engine reached terminal step", "chat_id", session.ChatID, "step", step.ID)
		return Result{Finalize: true}, nil
	}

	session.CurrentStep = next
	nextStep, ok := e.flow.Step(next)
	if !ok {
		slog.Error("Engine transition to unknown step", "chat_id", session.ChatID, "from", step.ID, "to", next)
		return Result{}, fmt.Errorf("%w: %s", models.ErrUnknownStep, next)
	}
	slog.Debug("Engine step advanced", "chat_id", session.ChatID, "from", step.ID, "to", next)
	return Result{Prompt: nextStep.Prompt(session.Answers)}, nil
}

// repromptFor re-renders the current step's prompt, prepending the
// rejection hint as an error line when one is set.
func repromptFor(step *schema.StepDefinition, answers map[models.StepID]string, rej *models.Rejection) models.Prompt {
	prompt := step.Prompt(answers)
	if rej.Hint != "" {
		prompt.Text = rej.Hint + "\n\n" + prompt.Text
	}
	return prompt
}
