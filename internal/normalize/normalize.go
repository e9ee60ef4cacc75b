// Package normalize turns a raw subject/body pair into the single analysis
// string the rest of the pipeline works on.
package normalize

import (
	"strings"

	"github.com/wealthdesk/stmtparse/internal/model"
)

// Text produces the NormalizedText for an email: subject and body are
// lower-cased, whitespace is collapsed, and the "subject:"/"body:" markers
// are kept so downstream logs can trace where evidence came from. Empty
// inputs produce an empty result, never an error.
func Text(subject, body string) model.NormalizedText {
	subject = collapse(subject)
	body = collapse(body)

	if subject == "" && body == "" {
		return model.NormalizedText("")
	}

	var b strings.Builder
	b.Grow(len(subject) + len(body) + (len("subject: ") + len("\nbody: ")))
	b.WriteString("subject: ")
	b.WriteString(strings.ToLower(subject))
	b.WriteString("\nbody: ")
	b.WriteString(strings.ToLower(body))

	return model.NormalizedText(b.String())
}

// collapse trims and folds runs of whitespace into single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
