package ai

import "fmt"

// CleanSystemPrompt is the post-processing pass applied to every generated
// summary before it is rolled up.
const CleanSystemPrompt = "Keep only the essential points of the text."

// SummarizeSystemPrompt returns the summarization instruction for the given
// detail level.
func SummarizeSystemPrompt(detailLevel string) string {
	switch detailLevel {
	case "low":
		return "Extract the main ideas from the dialogue. Be as brief as possible, a few sentences at most."
	case "high":
		return "Extract the main ideas from the dialogue. Preserve details, decisions, and who said what."
	}
	return "Extract the main ideas from the dialogue."
}

// StyleSystemPrompt returns the instruction for re-styling a stored summary
// into the given role.
func StyleSystemPrompt(role string) string {
	return fmt.Sprintf("Rewrite the text in the style of: %s. Keep the content unchanged.", role)
}
