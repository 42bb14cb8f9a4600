// Package schema declares form flows as pure data: ordered step definitions
// with their prompts, accept predicates, and transitions. The step engine in
// internal/flow is schema-agnostic and drives any Flow declared here.
package schema

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/itsmetohirr/JobFormBot/internal/models"
)

// Finalize is the sentinel transition target meaning "proceed to finalize".
const Finalize models.StepID = "__finalize__"

// AcceptFunc validates and normalizes raw input for one step. It returns the
// normalized value to store, or a *models.Rejection when the current prompt
// should be re-sent without mutating the session.
type AcceptFunc func(in models.Input, answers map[models.StepID]string) (string, error)

// PromptFunc renders the prompt shown when a step is entered. Most steps
// ignore the accumulated answers; the confirmation step renders them.
type PromptFunc func(answers map[models.StepID]string) models.Prompt

// StepDefinition is one question of a flow.
type StepDefinition struct {
	ID     models.StepID
	Label  string
	Prompt PromptFunc
	Accept AcceptFunc
	// Next is the fixed transition target; Finalize marks the terminal step.
	Next models.StepID
	// NextFunc, when set, overrides Next based on the normalized value.
	NextFunc func(value string) models.StepID
	// Transient steps (the confirmation step) are excluded from the record.
	Transient bool
	// Media marks the step whose answer is a photo storage reference.
	Media bool
}

// Flow is one deployment variant of the intake form.
type Flow struct {
	Name    string
	Welcome string
	Steps   []StepDefinition

	byID map[models.StepID]*StepDefinition
}

// NewFlow builds a Flow and indexes its steps. It panics on duplicate or
// missing step ids since flows are static program data.
func NewFlow(name, welcome string, steps []StepDefinition) *Flow {
	f := &Flow{Name: name, Welcome: welcome, Steps: steps, byID: make(map[models.StepID]*StepDefinition, len(steps))}
	for i := range f.Steps {
		s := &f.Steps[i]
		if s.ID == models.StepInactive {
			panic(fmt.Sprintf("flow %s: step %d has empty id", name, i))
		}
		if _, dup := f.byID[s.ID]; dup {
			panic(fmt.Sprintf("flow %s: duplicate step id %s", name, s.ID))
		}
		f.byID[s.ID] = s
	}
	for _, s := range f.Steps {
		if s.Next != Finalize {
			if _, ok := f.byID[s.Next]; !ok && s.NextFunc == nil {
				panic(fmt.Sprintf("flow %s: step %s transitions to unknown step %s", name, s.ID, s.Next))
			}
		}
	}
	slog.Debug("schema flow constructed", "flow", name, "steps", len(steps))
	return f
}

// First returns the entry step id reached after the start signal.
func (f *Flow) First() models.StepID {
	return f.Steps[0].ID
}

// Step looks up a step definition by id.
func (f *Flow) Step(id models.StepID) (*StepDefinition, bool) {
	s, ok := f.byID[id]
	return s, ok
}

// NextAfter computes the transition target of a step given its accepted
// normalized value.
func (f *Flow) NextAfter(step *StepDefinition, value string) models.StepID {
	if step.NextFunc != nil {
		return step.NextFunc(value)
	}
	return step.Next
}

// BuildRecord assembles the immutable application record from a completed
// session, in schema declaration order. Unanswered steps render as empty
// strings so the column count stays stable.
func (f *Flow) BuildRecord(s *models.ApplicationSession, submitter models.Submitter, now time.Time) models.ApplicationRecord {
	rec := models.ApplicationRecord{
		SubmittedAt: now,
		Submitter:   submitter,
	}
	for _, step := range f.Steps {
		if step.Transient {
			continue
		}
		value := s.Answers[step.ID]
		rec.Fields = append(rec.Fields, models.RecordField{Label: step.Label, Value: value})
		if step.Media {
			rec.PhotoRef = value
		}
	}
	return rec
}
