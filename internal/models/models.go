// Package models defines the core data structures for JobFormBot.
//
// It includes the tagged input union delivered by the chat transport, the
// per-conversation application session, and the finalized application record,
// which are shared across modules.
package models

import (
	"errors"
	"strconv"
	"time"
)

// TimestampLayout is the spreadsheet timestamp format for submission times.
const TimestampLayout = "2006-01-02 15:04:05"

// Error variables for better error handling and testability
var (
	ErrNoActiveForm = errors.New("no active form session")
	ErrUnknownStep  = errors.New("unknown form step")
)

// InputKind identifies which payload of an Input is populated.
type InputKind string

const (
	// InputKindNone indicates an update carrying no usable payload.
	InputKindNone InputKind = "none"
	// InputKindText indicates a plain text message.
	InputKindText InputKind = "text"
	// InputKindContact indicates a shared contact payload.
	InputKindContact InputKind = "contact"
	// InputKindPhoto indicates an attached photo.
	InputKindPhoto InputKind = "photo"
)

// Input is the tagged union of payloads the transport can deliver to a step.
// Exactly one payload field is meaningful, selected by Kind.
type Input struct {
	Kind InputKind
	// Text holds the message text for InputKindText.
	Text string
	// Phone holds the phone number extracted from a shared contact.
	Phone string
	// PhotoRef holds the storage reference of the highest-resolution photo variant.
	PhotoRef string
}

// TextInput builds a text-kind Input.
func TextInput(text string) Input {
	return Input{Kind: InputKindText, Text: text}
}

// ContactInput builds a contact-kind Input carrying a phone number.
func ContactInput(phone string) Input {
	return Input{Kind: InputKindContact, Phone: phone}
}

// PhotoInput builds a photo-kind Input carrying a storage reference.
func PhotoInput(ref string) Input {
	return Input{Kind: InputKindPhoto, PhotoRef: ref}
}

// NoInput builds an empty Input.
func NoInput() Input {
	return Input{Kind: InputKindNone}
}

// Rejection is returned by a step's accept predicate when the input is not
// usable. Hint, when non-empty, is appended to the re-sent prompt.
type Rejection struct {
	Hint string
}

// Error implements the error interface.
func (r *Rejection) Error() string {
	if r.Hint == "" {
		return "input rejected"
	}
	return "input rejected: " + r.Hint
}

// StepID identifies one step of a form flow and doubles as the key the
// normalized answer is stored under.
type StepID string

// StepInactive is the current-step marker of a conversation with no form in
// progress.
const StepInactive StepID = ""

// ApplicationSession holds the per-conversation form progress: the step
// awaiting an answer and the answers accumulated so far.
//
// A session is owned by exactly one conversation and is not safe for
// concurrent mutation; the transport must serialize updates per chat.
type ApplicationSession struct {
	ChatID      int64             `json:"chat_id"`
	CurrentStep StepID            `json:"current_step"`
	Answers     map[StepID]string `json:"answers"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// NewSession creates an inactive session for the given conversation.
func NewSession(chatID int64) *ApplicationSession {
	return &ApplicationSession{
		ChatID:      chatID,
		CurrentStep: StepInactive,
		Answers:     make(map[StepID]string),
	}
}

// Active reports whether a form is in progress.
func (s *ApplicationSession) Active() bool {
	return s.CurrentStep != StepInactive
}

// Reset discards any accumulated answers and positions the session at the
// given first step. This is the abandon-and-restart semantics of the start
// signal.
func (s *ApplicationSession) Reset(first StepID) {
	s.CurrentStep = first
	s.Answers = make(map[StepID]string)
	s.UpdatedAt = time.Now()
}

// Clear empties the session and marks it inactive.
func (s *ApplicationSession) Clear() {
	s.CurrentStep = StepInactive
	s.Answers = make(map[StepID]string)
	s.UpdatedAt = time.Now()
}

// Submitter identifies the person who completed the form.
type Submitter struct {
	ID       int64
	Username string
}

// RecordField is one labeled answer of a finalized application.
type RecordField struct {
	Label string
	Value string
}

// ApplicationRecord is the immutable snapshot built at finalization and used
// for persistence and notification. Fields follow schema declaration order;
// unanswered steps carry an empty string so the column count stays stable.
type ApplicationRecord struct {
	SubmittedAt time.Time
	Submitter   Submitter
	Fields      []RecordField
	// PhotoRef is the storage reference of an attached photo, empty when the
	// flow has no photo step or none was provided.
	PhotoRef string
}

// Columns renders the record as the ordered spreadsheet row: UTC timestamp,
// submitter id, submitter handle, then one column per schema step.
func (r *ApplicationRecord) Columns() []string {
	cols := make([]string, 0, len(r.Fields)+3)
	cols = append(cols, r.SubmittedAt.UTC().Format(TimestampLayout))
	cols = append(cols, formatInt64(r.Submitter.ID))
	cols = append(cols, r.Submitter.Username)
	for _, f := range r.Fields {
		cols = append(cols, f.Value)
	}
	return cols
}

// formatInt64 renders the submitter id, keeping the column empty when the
// identity is unknown.
func formatInt64(v int64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatInt(v, 10)
}

// ButtonKind distinguishes plain reply buttons from inline callback buttons.
type ButtonKind string

const (
	// ButtonKindReply is a plain keyboard button whose text is sent back.
	ButtonKindReply ButtonKind = "reply"
	// ButtonKindCallback is an inline button that sends its Data value.
	ButtonKindCallback ButtonKind = "callback"
)

// Button is one keyboard button descriptor.
type Button struct {
	Text string
	// Data is the callback payload for inline buttons; ignored for reply buttons.
	Data string
}

// Keyboard describes the keyboard accompanying a prompt. The transport is
// responsible for rendering it with platform-native markup.
type Keyboard struct {
	// Inline selects inline (callback) buttons instead of a reply keyboard.
	Inline bool
	// OneTime hides a reply keyboard after first use.
	OneTime bool
	// Remove removes any previously shown reply keyboard.
	Remove bool
	// Placeholder is the input field hint for reply keyboards.
	Placeholder string
	Rows        [][]Button
}

// RemoveKeyboard is the keyboard descriptor that clears any visible keyboard.
func RemoveKeyboard() *Keyboard {
	return &Keyboard{Remove: true}
}

// Prompt is the message sent when a step is entered or re-entered.
type Prompt struct {
	Text     string
	Keyboard *Keyboard
}
