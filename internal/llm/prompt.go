package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/ragcore/internal/model"
)

// DefaultSystemPrompt instructs the model to answer only from the numbered sources.
const DefaultSystemPrompt = "You answer questions using only the user's notes provided as numbered sources. " +
	"Cite every statement with the source markers it relies on, e.g. [N1]. " +
	"If the sources do not contain the answer, say so."

// maxSnippetChars bounds each source in the prompt.
const maxSnippetChars = 1200

// BuildAnswerPrompt constructs the user prompt with numbered sources.
// Sources are numbered in the order given, matching their citation IDs.
func BuildAnswerPrompt(question string, sources []model.Citation) string {
	var b strings.Builder

	b.WriteString("Sources:\n")
	if len(sources) == 0 {
		b.WriteString("(No sources available)\n")
	}
	for _, src := range sources {
		snippet := strings.TrimSpace(src.Snippet)
		if len(snippet) > maxSnippetChars {
			snippet = snippet[:maxSnippetChars] + "..."
		}
		fmt.Fprintf(&b, "[%s] %s\n\n", src.CID, snippet)
	}

	b.WriteString(`
RULES:
1. Only cite the source markers listed above.
2. Put the marker right after the sentence it supports.
3. Do not invent facts that no source states.

Question: `)
	b.WriteString(strings.TrimSpace(question))
	b.WriteString("\n")
	return b.String()
}

// AllowedCitations returns the citation IDs of sources.
func AllowedCitations(sources []model.Citation) []string {
	ids := make([]string, len(sources))
	for i, src := range sources {
		ids[i] = src.CID
	}
	return ids
}

func citedIDs(text string) []string {
	return model.FindCitationIDs(text)
}
