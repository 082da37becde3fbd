package studio

import (
	"strings"

	"brushup/internal/record"
)

// Classify resolves a submission's mode. A submission with at least one
// attachment is an edit regardless of text; text only is a generate; neither
// means there is nothing to do and ok is false.
func Classify(text string, attachmentCount int) (mode record.Mode, ok bool) {
	hasText := strings.TrimSpace(text) != ""
	if attachmentCount > 0 {
		return record.ModeEdit, true
	}
	if hasText {
		return record.ModeGenerate, true
	}
	return "", false
}

// EffectivePrompt builds the instruction actually dispatched. Edits always
// lead with the fixed template, with user text appended as labeled additional
// instructions; generates use the user's text verbatim, or the template alone
// when the text is empty. The result is never empty.
func EffectivePrompt(template, userText string, mode record.Mode) string {
	userText = strings.TrimSpace(userText)
	if mode == record.ModeEdit {
		if userText == "" {
			return template
		}
		return template + " Additional instructions: " + userText
	}
	if userText == "" {
		return template
	}
	return userText
}
