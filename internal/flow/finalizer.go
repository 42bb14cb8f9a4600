package flow

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/itsmetohirr/JobFormBot/internal/models"
	"github.com/itsmetohirr/JobFormBot/internal/schema"
	"github.com/itsmetohirr/JobFormBot/internal/session"
)

// Submitter-facing terminal messages; exactly one is sent per finalization.
const (
	MsgSubmitSuccess  = "✅ Tabriklayman!\n\n— Arizangiz muvaffaqiyatli qabul qilindi. Yuborgan anketangiz bilan albatta tanishamiz va sizga aloqaga chiqamiz!"
	MsgSubmitDegraded = "Arizangiz qabul qilindi, ammo saqlashda xatolik yuz berdi. Administrator xabardor qilindi."
)

// Administrator status lines carried in every notification.
const (
	statusSaved  = "Saved to sheet"
	statusFailed = "FAILED to save to sheet"
)

// CaptionLimit is the maximum summary length, in characters, sent as a photo
// caption; longer summaries are delivered as a placeholder caption plus a
// separate text message.
const CaptionLimit = 1024

// Sink appends one finalized application row to durable storage.
type Sink interface {
	Append(ctx context.Context, values []string) error
}

// Notifier delivers an administrator notification over one channel.
type Notifier interface {
	SendText(ctx context.Context, recipient string, text string) error
	SendPhoto(ctx context.Context, recipient string, photoRef string, caption string) error
}

// Recipient is one configured administrator delivery target.
type Recipient struct {
	ID      string
	Channel Notifier
}

// Outcome reports what a finalization attempt achieved.
type Outcome struct {
	// Persisted is false when the sink append failed; the submission is
	// still confirmed to the submitter with the degraded message.
	Persisted bool
	// SubmitterMessage is the terminal message to send to the submitter.
	SubmitterMessage string
	// Notified counts recipients that received their notification.
	Notified int
}

// Finalizer assembles the application record, persists it, notifies the
// administrator recipients, and clears the session. Sink and notifier
// failures are contained here; the conversation flow never crashes on them.
type Finalizer struct {
	flow       *schema.Flow
	sink       Sink
	sessions   session.Store
	recipients []Recipient

	// now is a test seam; defaults to time.Now.
	now func() time.Time
}

// NewFinalizer creates a finalizer for the given flow and collaborators.
func NewFinalizer(flow *schema.Flow, sink Sink, sessions session.Store, recipients []Recipient) *Finalizer {
	slog.Debug("Finalizer created", "flow", flow.Name, "recipients", len(recipients))
	return &Finalizer{
		flow:       flow,
		sink:       sink,
		sessions:   sessions,
		recipients: recipients,
		now:        time.Now,
	}
}

// Finalize builds the record from the session, appends it to the sink,
// notifies every recipient independently of the sink outcome and of each
// other, then clears the session unconditionally.
//
// A session that was already cleared (a duplicate terminal trigger) is a
// no-op: no second row is appended and no notifications are re-sent.
func (f *Finalizer) Finalize(ctx context.Context, sess *models.ApplicationSession, submitter models.Submitter) (Outcome, error) {
	if !sess.Active() {
		slog.Debug("Finalizer called on inactive session, skipping", "chat_id", sess.ChatID)
		return Outcome{}, models.ErrNoActiveForm
	}

	record := f.flow.BuildRecord(sess, submitter, f.now())

	persisted := true
	if err := f.sink.Append(ctx, record.Columns()); err != nil {
		persisted = false
		slog.Error("Finalizer sink append failed", "error", err, "chat_id", sess.ChatID)
	} else {
		slog.Info("Finalizer record persisted", "chat_id", sess.ChatID, "columns", len(record.Columns()))
	}

	outcome := Outcome{Persisted: persisted, SubmitterMessage: MsgSubmitSuccess}
	if !persisted {
		outcome.SubmitterMessage = MsgSubmitDegraded
	}

	summary := AdminSummary(&record, persisted)
	for _, r := range f.recipients {
		if err := f.deliver(ctx, r, &record, summary); err != nil {
			slog.Error("Finalizer notification failed", "error", err, "recipient", r.ID, "chat_id", sess.ChatID)
			continue
		}
		outcome.Notified++
	}
	slog.Info("Finalizer notifications done", "chat_id", sess.ChatID, "delivered", outcome.Notified, "configured", len(f.recipients))

	sess.Clear()
	if err := f.sessions.Clear(sess.ChatID); err != nil {
		slog.Error("Finalizer session store clear failed", "error", err, "chat_id", sess.ChatID)
	}

	return outcome, nil
}

// deliver sends one recipient's notification, attaching the photo when the
// record carries one. Summaries longer than the caption limit go out as a
// placeholder caption followed by the full text.
func (f *Finalizer) deliver(ctx context.Context, r Recipient, record *models.ApplicationRecord, summary string) error {
	if record.PhotoRef == "" {
		return r.Channel.SendText(ctx, r.ID, summary)
	}
	if utf8.RuneCountInString(summary) <= CaptionLimit {
		return r.Channel.SendPhoto(ctx, r.ID, record.PhotoRef, summary)
	}
	if err := r.Channel.SendPhoto(ctx, r.ID, record.PhotoRef, "Yangi anketa keldi (to'liq matn quyida)"); err != nil {
		return err
	}
	return r.Channel.SendText(ctx, r.ID, summary)
}

// AdminSummary formats the administrator notification text for a record,
// including the explicit persistence status line.
func AdminSummary(record *models.ApplicationRecord, persisted bool) string {
	username := "(no username)"
	if record.Submitter.Username != "" {
		username = "@" + record.Submitter.Username
	}
	status := statusSaved
	if !persisted {
		status = statusFailed
	}

	var b strings.Builder
	b.WriteString("Yangi anketa keldi:\n")
	b.WriteString("Time (UTC): " + record.SubmittedAt.UTC().Format(models.TimestampLayout) + "\n")
	b.WriteString("User ID: " + record.Columns()[1] + "\n")
	b.WriteString("Username: " + username + "\n")
	for _, field := range record.Fields {
		b.WriteString(field.Label + ": " + field.Value + "\n")
	}
	b.WriteString("Status: " + status)
	return b.String()
}
