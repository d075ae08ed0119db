package llm

import (
	"fmt"
	"strings"

	"github.com/velaphi/legal-assist/internal/domain"
)

// Prompt construction is pure string building; it never fails. Credential
// checks belong to the caller.

const (
	contextBanner = "--- APPROVED REFERENCE CONTEXT ---"
	contextFooter = "--- END REFERENCE CONTEXT ---"

	// NoContextSentinel is the fixed context block used when the agent has no
	// approved knowledge entries.
	NoContextSentinel = "No approved reference context is available. Answer from general knowledge of South African law and say so when a source would be needed."
)

var systemInstructions = map[string]string{
	domain.AgentPOPIA: `You are a POPIA specialist assistant for South African law.
You help users understand the Protection of Personal Information Act (Act 4 of 2013): what counts as personal information, the conditions for lawful processing, data subject rights, and the obligations of responsible parties.
Cite the Act with section numbers where you can. You provide legal information, not legal advice; recommend a qualified professional for specific matters.`,

	domain.AgentRental: `You are a rental-law specialist assistant for South African law.
You help users with rental housing agreements and disputes under the Rental Housing Act (Act 50 of 1999): notice periods, deposits, maintenance obligations, unfair practices, and lease terms.
Cite the Act with section numbers where you can. You provide legal information, not legal advice; recommend a qualified professional for specific matters.`,

	domain.AgentConsumer: `You are a consumer-protection specialist assistant for South African law.
You help users understand their rights under the Consumer Protection Act (Act 68 of 2008): returns and refunds, defective goods, unfair contract terms, and direct marketing.
Cite the Act with section numbers where you can. You provide legal information, not legal advice; recommend a qualified professional for specific matters.`,

	domain.AgentGeneral: `You are a general legal triage assistant for South African law.
You answer general legal queries and, where a question fits a specialist area (data privacy, rental housing, consumer protection), you point the user to the matching specialist agent.
You provide legal information, not legal advice; recommend a qualified professional for specific matters.`,
}

// SystemInstruction returns the fixed per-agent system instruction. Unknown
// agent ids get the general triage instruction.
func SystemInstruction(agentID string) string {
	if s, ok := systemInstructions[agentID]; ok {
		return s
	}
	return systemInstructions[domain.AgentGeneral]
}

// BuildChatPrompt composes the chat request: system instruction, rendered
// knowledge context, then the user question.
func BuildChatPrompt(question, agentID string, entries []domain.KnowledgeEntry) Request {
	return Request{
		System: SystemInstruction(agentID),
		Prompt: fmt.Sprintf("%s\n\nUser Question: %s", RenderContext(entries), question),
	}
}

// RenderContext renders approved knowledge entries as a banner-delimited
// context block, or the fixed sentinel when there are none.
func RenderContext(entries []domain.KnowledgeEntry) string {
	if len(entries) == 0 {
		return NoContextSentinel
	}

	var b strings.Builder
	b.WriteString(contextBanner)
	for i, entry := range entries {
		b.WriteString("\n\n")
		b.WriteString(renderEntry(i+1, entry))
	}
	b.WriteString("\n\n")
	b.WriteString(contextFooter)
	return b.String()
}

func renderEntry(n int, entry domain.KnowledgeEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Source %d (from %s):\n", n, entry.URL)
	fmt.Fprintf(&b, "Summary: %s\n", entry.Content.Summary)
	fmt.Fprintf(&b, "Key Concepts: %s\n", strings.Join(entry.Content.KeyConcepts, ", "))
	b.WriteString("Relevant Clauses:")
	for _, clause := range entry.Content.RelevantClauses {
		fmt.Fprintf(&b, "\n- %s: %s", clause.Title, clause.Text)
	}
	return b.String()
}

// IngestionSchema is the fixed output schema for knowledge ingestion. The
// provider enforces it as structured output.
func IngestionSchema() *Schema {
	return &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"summary": {
				Type:        TypeString,
				Description: "Concise summary of the source document",
			},
			"key_concepts": {
				Type:        TypeArray,
				Description: "Ordered list of the key legal concepts covered",
				Items:       &Schema{Type: TypeString},
			},
			"relevant_clauses": {
				Type:        TypeArray,
				Description: "Notable provisions extracted from the source",
				Items: &Schema{
					Type: TypeObject,
					Properties: map[string]*Schema{
						"title": {Type: TypeString},
						"text":  {Type: TypeString},
					},
					Required: []string{"title", "text"},
				},
			},
		},
		Required: []string{"summary", "key_concepts", "relevant_clauses"},
	}
}

// BuildIngestionPrompt composes the structured-extraction request for a
// source locator. The source is not fetched; the model reconstructs the
// likely content of the named legal document from its own knowledge.
func BuildIngestionPrompt(source string) Request {
	return Request{
		System: "You are a legal-document analyst for South African law. You produce structured, faithful summaries of legal sources.",
		Prompt: fmt.Sprintf(`Analyze the legal document identified by: %s

Based on the identifier, determine which South African legal document or resource this refers to and summarize its content. Return JSON with:
- summary: a concise summary of the document
- key_concepts: the key legal concepts it covers, in order of importance
- relevant_clauses: notable provisions, each with a short title and the provision text`, source),
		Schema: IngestionSchema(),
	}
}

// BuildExportPrompt composes the transcript-reformatting request. Format is
// "letter" or "email"; output is free text, not schema-constrained.
func BuildExportPrompt(transcript, format, agentName string) Request {
	doc := "formal letter"
	if format == "email" {
		doc = "professional email"
	}
	return Request{
		System: "You are a legal writing assistant. You turn consultation transcripts into polished documents.",
		Prompt: fmt.Sprintf(`The following is a transcript of a consultation with the %s.

%s

Rewrite it as a %s that summarizes the legal points discussed and the advice given. Address it from the user's perspective. Output only the %s text.`, agentName, transcript, doc, doc),
	}
}
