package engine

import (
	"fmt"
	"strings"

	"github.com/promptforge/promptforge/internal/config"
	"github.com/promptforge/promptforge/pkg/ragstore"
)

// System instructions per prompt mode. The mode chooses the persona wrapped
// around the retrieved context; the context and history block below is the
// same for all modes.
const (
	engineerInstruction = `ROLE: You are an expert Prompt Engineer and Research Assistant.
TASK: The user will provide a goal or a rough question. You must rewrite this into a highly effective, detailed, and structured prompt that will get the best possible results from a Large Language Model.
GUIDELINES:
1. Do not just repeat the user's input.
2. Add specific instructions for formatting.
3. If the user mentions "Knowledge Base", explicitly instruct the model to "Search the vector database thoroughly".
4. Use advanced prompting techniques like Chain of Thought.
INPUT: {user_input}
OUTPUT: [Only the optimized prompt]`

	criticInstruction = `ROLE: You are a Critical Reviewer.
TASK: Analyze the user's request and the provided context. Identify gaps, vague terms, or potential misunderstandings.
GUIDELINES:
1. Be constructive but strict.
2. Point out what is missing from the user's request.
3. Suggest specific improvements.
INPUT: {user_input}
OUTPUT: [Critique and Suggestions]`

	directInstruction = `ROLE: You are a Knowledge Base Assistant.
TASK: Answer the user's question directly using ONLY the provided context.
GUIDELINES:
1. Do not hallucinate. If the answer isn't in the context, say so.
2. Cite the specific documents (e.g., [Source: filename]) when making claims.
INPUT: {user_input}
OUTPUT: [Direct Answer]`
)

// emptyContextNotice stands in for the context block when retrieval found
// nothing, so the model knows the knowledge base had no match rather than
// receiving a silently empty section.
const emptyContextNotice = "No specific documents found in knowledge base."

// systemInstruction returns the persona instruction for mode. Unrecognised
// modes fall back to [config.ModeEngineer].
func systemInstruction(mode config.PromptMode) string {
	switch mode {
	case config.ModeCritic:
		return criticInstruction
	case config.ModeDirect:
		return directInstruction
	default:
		return engineerInstruction
	}
}

// buildUserPrompt assembles the context, history, and query into the user
// message sent to the model.
func buildUserPrompt(contextText, historyText, query string) string {
	if contextText == "" {
		contextText = emptyContextNotice
	}
	return fmt.Sprintf(`Context from Knowledge Base:
%s

Chat History:
%s

User Input: %s`, contextText, historyText, query)
}

// formatHistory renders turns oldest-first as alternating User/AI lines.
// turns arrive newest-first from the chat store.
func formatHistory(turns []ragstore.ChatTurn) string {
	var b strings.Builder
	for i := len(turns) - 1; i >= 0; i-- {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "User: %s\nAI: %s", turns[i].UserMessage, turns[i].AIMessage)
	}
	return b.String()
}

// uniqueSources extracts the distinct metadata source labels from results,
// in first-seen order. Documents without a source are labelled "Unknown".
func uniqueSources(results []ragstore.SearchResult) []string {
	seen := make(map[string]bool, len(results))
	sources := make([]string, 0, len(results))
	for _, r := range results {
		source := "Unknown"
		if s, ok := r.Metadata["source"].(string); ok && s != "" {
			source = s
		}
		if !seen[source] {
			seen[source] = true
			sources = append(sources, source)
		}
	}
	return sources
}
