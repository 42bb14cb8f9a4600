package schema

import (
	"strings"
	"time"

	"github.com/itsmetohirr/JobFormBot/internal/models"
)

// DateFormats is the ordered list of accepted birthdate input patterns; the
// first successful parse wins.
var DateFormats = []string{
	"2006-01-02",
	"02.01.2006",
	"02/01/2006",
	"02-01-2006",
}

// CanonicalDateFormat is the normalized output format for date answers.
const CanonicalDateFormat = "2006-01-02"

// Canonical yes/no tokens stored for affirmative/negative answers.
const (
	AnswerYes = "Ha"
	AnswerNo  = "Yo'q"
)

// apostropheReplacer folds the Unicode apostrophe variants Telegram clients
// produce (modifier letter turned comma, right single quote, modifier letter
// apostrophe, grave accent) into the ASCII apostrophe.
var apostropheReplacer = strings.NewReplacer("ʻ", "'", "‘", "'", "’", "'", "ʼ", "'", "`", "'")

// keycap and circled-digit aliases for the enumerated choice step.
var digitAliases = map[string]string{
	"1️⃣": "1", "2️⃣": "2", "3️⃣": "3",
	"4️⃣": "4", "5️⃣": "5",
	"①": "1", "②": "2", "③": "3", "④": "4", "⑤": "5",
}

// textOf extracts trimmed text from a text-kind input, rejecting every other
// input kind.
func textOf(in models.Input) (string, bool) {
	if in.Kind != models.InputKindText {
		return "", false
	}
	return strings.TrimSpace(in.Text), true
}

// NonEmptyText accepts any non-blank free-text answer and stores it trimmed.
func NonEmptyText() AcceptFunc {
	return func(in models.Input, _ map[models.StepID]string) (string, error) {
		text, ok := textOf(in)
		if !ok || text == "" {
			return "", &models.Rejection{}
		}
		return text, nil
	}
}

// MinLengthText accepts free text of at least min characters (runes).
func MinLengthText(min int) AcceptFunc {
	return func(in models.Input, _ map[models.StepID]string) (string, error) {
		text, ok := textOf(in)
		if !ok || len([]rune(text)) < min {
			return "", &models.Rejection{}
		}
		return text, nil
	}
}

// YesNo strictly canonicalizes an affirmative/negative answer. Matching is
// case-insensitive and tolerant of the apostrophe variants in "Yo'q"; any
// other input is rejected and the prompt re-sent.
func YesNo() AcceptFunc {
	return func(in models.Input, _ map[models.StepID]string) (string, error) {
		text, ok := textOf(in)
		if !ok {
			return "", &models.Rejection{}
		}
		folded := strings.ToLower(apostropheReplacer.Replace(text))
		switch folded {
		case "ha", "xa":
			return AnswerYes, nil
		case "yo'q", "yoq":
			return AnswerNo, nil
		}
		return "", &models.Rejection{}
	}
}

// DigitChoice accepts an enumerated choice between min and max inclusive.
// Plain digits and their keycap/circled glyph variants map to the canonical
// digit string; anything else is stored verbatim rather than rejected,
// matching the original keyboard behavior.
func DigitChoice(min, max int) AcceptFunc {
	return func(in models.Input, _ map[models.StepID]string) (string, error) {
		text, ok := textOf(in)
		if !ok || text == "" {
			return "", &models.Rejection{}
		}
		candidate := text
		if alias, found := digitAliases[candidate]; found {
			candidate = alias
		}
		if len(candidate) == 1 && candidate[0] >= '0'+byte(min) && candidate[0] <= '0'+byte(max) {
			return candidate, nil
		}
		return text, nil
	}
}

// Date tries the accepted date patterns in order and normalizes the first
// match to the canonical format. Unparseable input is rejected with an error
// hint appended to the re-sent prompt.
func Date(hint string) AcceptFunc {
	return func(in models.Input, _ map[models.StepID]string) (string, error) {
		text, ok := textOf(in)
		if !ok || text == "" {
			return "", &models.Rejection{}
		}
		for _, layout := range DateFormats {
			if t, err := time.Parse(layout, text); err == nil {
				return t.Format(CanonicalDateFormat), nil
			}
		}
		return "", &models.Rejection{Hint: hint}
	}
}

// PhoneOrContact accepts either a shared contact payload (the phone number
// field is extracted) or a free-text fallback; both normalize to a plain
// string.
func PhoneOrContact() AcceptFunc {
	return func(in models.Input, _ map[models.StepID]string) (string, error) {
		switch in.Kind {
		case models.InputKindContact:
			phone := strings.TrimSpace(in.Phone)
			if phone == "" {
				return "", &models.Rejection{}
			}
			return phone, nil
		case models.InputKindText:
			text := strings.TrimSpace(in.Text)
			if text == "" {
				return "", &models.Rejection{}
			}
			return text, nil
		}
		return "", &models.Rejection{}
	}
}

// OptionalPhoto accepts an attached photo's storage reference and degrades
// to an empty reference on any other input, so the step never blocks
// progression.
func OptionalPhoto() AcceptFunc {
	return func(in models.Input, _ map[models.StepID]string) (string, error) {
		if in.Kind == models.InputKindPhoto {
			return in.PhotoRef, nil
		}
		return "", nil
	}
}

// Confirm accepts the confirmation button press (or typing the button text)
// and rejects everything else so the summary is re-shown.
func Confirm(accepted ...string) AcceptFunc {
	return func(in models.Input, _ map[models.StepID]string) (string, error) {
		text, ok := textOf(in)
		if !ok {
			return "", &models.Rejection{}
		}
		folded := strings.ToLower(text)
		for _, want := range accepted {
			if folded == strings.ToLower(want) {
				return want, nil
			}
		}
		return "", &models.Rejection{}
	}
}
