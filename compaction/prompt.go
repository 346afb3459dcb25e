package compaction

import "strings"

// SummarySystemPrompt is the system prompt of every summarization request.
const SummarySystemPrompt = "You summarize tool execution history for an agent runtime checkpoint. " +
	"Be concise and factual. Keep only outcomes, key findings, file paths, commands, errors, " +
	"and unresolved items needed for the next tool steps."

// SummaryHeader marks the summary block appended to the system prompt.
const SummaryHeader = "Compressed tool execution history (system-generated):"

// BuildSummaryPrompt creates the user message for summarization. With a
// previous summary the model is asked to merge the new rounds into it.
func BuildSummaryPrompt(serializedRounds, previousSummary string) string {
	previous := strings.TrimSpace(previousSummary)
	if previous == "" {
		return "Summarize these tool execution rounds for continuity in the next LLM call.\n" +
			"Output short bullets with:\n" +
			"- important outcomes and discoveries\n" +
			"- files/commands/errors encountered\n" +
			"- open items or next actions\n\n" +
			"<tool-rounds>\n" + serializedRounds + "\n</tool-rounds>"
	}
	return "Update the existing tool-history summary with these NEW rounds.\n" +
		"Keep prior key facts and add new outcomes, files, commands, errors, and unresolved items.\n\n" +
		"<previous-summary>\n" + previous + "\n</previous-summary>\n\n" +
		"<new-tool-rounds>\n" + serializedRounds + "\n</new-tool-rounds>"
}

// ApplySummaryToSystemPrompt appends summary under SummaryHeader, keeping
// systemPrompt unchanged above it.
func ApplySummaryToSystemPrompt(systemPrompt, summary string) string {
	block := SummaryHeader + "\n" + summary
	if systemPrompt == "" {
		return block
	}
	return systemPrompt + "\n\n" + block
}
