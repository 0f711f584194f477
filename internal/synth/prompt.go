package synth

import (
	"strings"
	"text/template"
)

var promptTemplate = template.Must(template.New("merge").Parse(`You are a professional proofreader.

Below are two OCR transcriptions of the same document produced by different engines.
Version A comes from a stronger, slower engine. Version B comes from a faster, weaker engine.

Compare the two texts carefully and produce the single most accurate and fluent final version.
Combine the strengths of both and correct any errors either one contains (misspellings, missing characters, formatting mistakes).

**Output only the final proofread text, with no explanation, heading, or preamble.**

--- Version A ({{.PrimaryLabel}}) ---
{{.Primary}}

--- Version B ({{.SecondaryLabel}}) ---
{{.Secondary}}

--- Final proofread version ---
`))

// BuildPrompt returns the reconciliation prompt for two candidate texts.
func BuildPrompt(primaryLabel, primary, secondaryLabel, secondary string) string {
	var sb strings.Builder
	// The template is static and the data is plain strings, so Execute
	// cannot fail.
	_ = promptTemplate.Execute(&sb, struct {
		PrimaryLabel, Primary, SecondaryLabel, Secondary string
	}{primaryLabel, primary, secondaryLabel, secondary})
	return sb.String()
}
