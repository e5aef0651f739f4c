package payment

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Dan9191/payplanner/internal/models"
)

const (
	// SystemActor signs notes written by the engine itself
	SystemActor = "System"

	MaxNoteLines = 200
	// MaxNoteChars caps AuditNotes in runes. The cap is soft for a single
	// newest note longer than the cap, which is kept whole.
	MaxNoteChars = 4000
)

var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// FormatNote builds a single audit line. Line breaks become spaces, other
// whitespace is kept as written.
func FormatNote(message string, now time.Time, actor string) string {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		actor = SystemActor
	}
	message = lineBreaks.Replace(message)
	return fmt.Sprintf("• %s (%s) — %s: %s", now.Format("2006-01-02"), now.Format("15:04"), actor, message)
}

// AppendNote adds a stamped line to AuditNotes and trims the oldest lines
// once the notes exceed MaxNoteLines or MaxNoteChars. The newest line is
// always kept whole.
func AppendNote(p models.PaymentRecord, message string, now time.Time, actor string) models.PaymentRecord {
	if strings.TrimSpace(message) == "" {
		return p
	}

	var lines []string
	if p.AuditNotes != "" {
		lines = strings.Split(p.AuditNotes, "\n")
	}
	lines = append(lines, FormatNote(message, now, actor))

	if len(lines) > MaxNoteLines {
		lines = lines[len(lines)-MaxNoteLines:]
	}

	size := utf8.RuneCountInString(strings.Join(lines, "\n"))
	for size > MaxNoteChars && len(lines) > 1 {
		size -= utf8.RuneCountInString(lines[0]) + 1
		lines = lines[1:]
	}

	p.AuditNotes = strings.Join(lines, "\n")
	return p
}
