package prompt

import (
	"fmt"
	"sort"
	"strings"

	"rfpgen/internal/models"
)

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SimilarityThreshold is re-applied here even when the retriever already
// filtered: sub-threshold content must never leak into a prompt.
const SimilarityThreshold = 0.90

// MaxPromptMatches caps how many retrieved matches a generation prompt
// embeds, keeping the strongest ones.
const MaxPromptMatches = 3

const generationSystemTemplate = `You are a senior RFP specialist with over 15 years of experience in wealth management software.
Your expertise lies in crafting precise, impactful, and business-aligned responses to RFP requirements.

CONTEXT:
- Domain: Wealth Management Software.
- Requirement Category: %s.
- Current Requirement: %s.
- Audience: Business professionals and wealth management decision-makers.

TASK:
Develop a high-quality response to the current RFP requirement. Use ONLY the provided previous responses as source material, prioritizing content from responses with higher similarity scores.

GUIDELINES:
1. Response Style: professional, clear, and concise. Focus on business benefits, practical applications, and value propositions. The response must be complete and submission-ready.
2. Content Rules: incorporate ONLY content from the provided previous responses. Prioritize responses with higher similarity scores. Maintain a word count of approximately 200 words. MANDATORY: for every claim or feature mentioned, reference the specific source with descriptive context and similarity percentage, including customer names only when available from the source data.
3. Response Structure: open with the most relevant capability, support it with specific examples or benefits, and close with a tailored value proposition.
4. Critical Constraints: do NOT include any meta-text or commentary. Do NOT infer or add content beyond the provided source material. Do NOT include speculative or ambiguous language. STRICT SOURCING: every factual claim must be traceable to a specific source; if no source supports a claim, omit it.`

const generationValidation = `Review and validate the draft response based on these criteria:
1. Content is derived solely from the provided previous responses.
2. The response is up to 200 words in length.
3. The tone is professional and business-focused.
4. No meta-text, assumptions, or speculative language is present.
5. The response delivers a clear, specific value proposition for the requirement.
6. SOURCE VALIDATION: every factual claim includes a reference to its specific source with descriptive title and similarity percentage (90% or higher).
7. HALLUCINATION CHECK: no content exists that cannot be traced back to the provided sources.

If any criteria are unmet, revise the response accordingly. Pay special attention to criteria 6 and 7.`

// BuildGenerationPrompt constructs the system/user/validation turn sequence
// for first-draft generation. Matches below the threshold are dropped here
// regardless of upstream filtering, and at most MaxPromptMatches of the
// highest-scoring matches are embedded.
func BuildGenerationPrompt(requirementText, category string, matches []models.SimilarityMatch) []Message {
	eligible := make([]models.SimilarityMatch, 0, len(matches))
	for _, m := range matches {
		if m.SimilarityScore >= SimilarityThreshold {
			eligible = append(eligible, m)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].SimilarityScore > eligible[j].SimilarityScore
	})
	if len(eligible) > MaxPromptMatches {
		eligible = eligible[:MaxPromptMatches]
	}

	var examples strings.Builder
	for i, m := range eligible {
		title := ShortTitle(m.RequirementText)
		suffix := ""
		if m.Customer != "" {
			suffix = " for " + m.Customer
		}
		fmt.Fprintf(&examples, "Source %d: %s%s (Similarity: %.0f%%)\n", i+1, title, suffix, m.SimilarityScore*100)
		fmt.Fprintf(&examples, "Original Requirement: %s\n", m.RequirementText)
		fmt.Fprintf(&examples, "Previous Response: %s\n", m.ResponseText)
		if m.Customer != "" {
			fmt.Fprintf(&examples, "Customer/Client: %s\n", m.Customer)
		}
		examples.WriteString("\n")
	}
	if len(eligible) == 0 {
		examples.WriteString("No previous responses passed the similarity threshold. State only what can be said without source material, or state that no precedent exists.\n")
	}

	userContent := fmt.Sprintf(`You have the following previous responses with similarity scores to evaluate:

Previous Responses and Scores:
%s
Instructions:
1. CRITICAL: use ONLY responses with 90%% or higher similarity scores.
2. Analyze the responses, prioritizing those with higher scores for relevance.
3. Draft a response that meets all guidelines and rules outlined in the system message.
4. CRITICAL: for every feature, capability, or claim you mention, cite the specific source with its descriptive title and similarity percentage, including customer names only when available from the source data.
5. If you cannot find supporting content in the sources for a claim, do NOT include that claim.

Current Requirement: %s.`, examples.String(), requirementText)

	return []Message{
		{Role: RoleSystem, Content: fmt.Sprintf(generationSystemTemplate, category, requirementText)},
		{Role: RoleUser, Content: userContent},
		{Role: RoleUser, Content: generationValidation},
	}
}

const synthesisSystemTemplate = `You are a senior RFP specialist acting as an editor.

OBJECTIVE:
Synthesize multiple response versions into one optimal response that directly addresses the requirement: %s

SYNTHESIS RULES:
1. Merge overlapping points to eliminate redundancy.
2. Resolve contradictions by prioritizing the most specific or impactful information.
3. Maintain consistent terminology and preserve specific metrics or numbers.
4. Do NOT include content beyond the provided source responses.
5. Single cohesive response, approximately 200 words, ready for direct submission.
6. Exclude meta-commentary, introductory phrases, and any reference to the synthesis process or source responses.`

const synthesisValidation = `FINAL CHECKS:
1. Does the response directly and fully address the requirement?
2. Is all information sourced exclusively from the provided responses?
3. Is the response approximately 200 words in length?
4. Is the language clear, professional, and free of unnecessary jargon?
5. Is the response ready for direct submission without additional editing?

If any check fails, revise the response accordingly.`

// BuildSynthesisPrompt constructs the editor prompt over the successful
// provider outputs. Every output passed in is embedded verbatim; callers
// must not pass failed or empty outputs.
func BuildSynthesisPrompt(requirementText string, outputs map[string]string) []Message {
	names := make([]string, 0, len(outputs))
	for name, text := range outputs {
		if strings.TrimSpace(text) == "" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var sources strings.Builder
	for i, name := range names {
		fmt.Fprintf(&sources, "RESPONSE FROM MODEL %d (%s):\n%s\n\n", i+1, strings.ToUpper(name), outputs[name])
	}

	userContent := fmt.Sprintf(`I need you to synthesize the best possible RFP response by analyzing and combining elements from these responses to the following requirement:

REQUIREMENT: %s

%sFirst review all responses to identify key themes, unique value points, and overlapping content. Then create a single synthesized response that incorporates the best elements from all available responses and forms a comprehensive answer to the requirement. The synthesized response must stand alone as a complete, professional RFP response.`, requirementText, sources.String())

	return []Message{
		{Role: RoleSystem, Content: fmt.Sprintf(synthesisSystemTemplate, requirementText)},
		{Role: RoleUser, Content: userContent},
		{Role: RoleUser, Content: synthesisValidation},
	}
}

// ShortTitle is the descriptive source label: roughly the first five words
// of the match's requirement text.
func ShortTitle(requirementText string) string {
	words := strings.Fields(requirementText)
	if len(words) <= 5 {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:5], " ") + "..."
}
