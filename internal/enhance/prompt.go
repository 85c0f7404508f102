package enhance

import "strings"

// Style selects the instruction wording for an enhancement prompt.
type Style string

const (
	StyleDefault  Style = "default"
	StyleClarity  Style = "clarity"
	StyleConcise  Style = "concise"
	StyleExpand   Style = "expand"
	StyleCustom   Style = "custom"
	StyleTemplate Style = "template"
)

// PlaceholderToken marks where custom and template prompts want the
// note text substituted.
const PlaceholderToken = "{text}"

// structuralDirective keeps the model from flattening the note's
// markup, so diffing the enhancement against the original stays
// meaningful.
const structuralDirective = "Preserve all existing structural markup exactly: " +
	"keep headings, lists, quotes, and code fences where they are."

// BuildPrompt is a pure function producing the generation instruction
// for a note. Custom and template styles substitute PlaceholderToken in
// the user prompt when present, otherwise the user instruction is
// prepended to the text. Every style except custom appends the
// structural directive.
func BuildPrompt(style Style, userPrompt, text string) string {
	var sb strings.Builder

	switch style {
	case StyleClarity:
		sb.WriteString("Rewrite the following note to improve clarity and readability. ")
		sb.WriteString("Keep every fact; do not add new information.")
		sb.WriteString("\n")
		sb.WriteString(structuralDirective)
		sb.WriteString("\n\n")
		sb.WriteString(text)

	case StyleConcise:
		sb.WriteString("Rewrite the following note to be as concise as possible without losing information.")
		sb.WriteString("\n")
		sb.WriteString(structuralDirective)
		sb.WriteString("\n\n")
		sb.WriteString(text)

	case StyleExpand:
		sb.WriteString("Expand the following note with relevant detail and explanation, staying on topic.")
		sb.WriteString("\n")
		sb.WriteString(structuralDirective)
		sb.WriteString("\n\n")
		sb.WriteString(text)

	case StyleCustom:
		sb.WriteString(applyUserPrompt(userPrompt, text))

	case StyleTemplate:
		sb.WriteString(applyUserPrompt(userPrompt, text))
		sb.WriteString("\n\n")
		sb.WriteString(structuralDirective)

	default:
		sb.WriteString("Improve the following note.")
		sb.WriteString("\n")
		sb.WriteString(structuralDirective)
		sb.WriteString("\n\n")
		sb.WriteString(text)
	}

	return sb.String()
}

func applyUserPrompt(userPrompt, text string) string {
	if strings.Contains(userPrompt, PlaceholderToken) {
		return strings.ReplaceAll(userPrompt, PlaceholderToken, text)
	}
	return userPrompt + "\n\n" + text
}

// BuildContextPrompt augments a base prompt with researched context:
// the collated web content summary and the question/answer pairs
// gathered for the note's entities. Pure, like BuildPrompt.
func BuildContextPrompt(base, research string, answers map[string]string, questions []string) string {
	if research == "" && len(answers) == 0 {
		return base
	}

	var sb strings.Builder
	sb.WriteString(base)
	sb.WriteString("\n\nUse the following background where it helps, without quoting it verbatim:")

	// questions preserves synthesis order; answers alone would iterate
	// the map randomly.
	for _, q := range questions {
		if a, ok := answers[q]; ok && a != "" {
			sb.WriteString("\n- ")
			sb.WriteString(q)
			sb.WriteString(" ")
			sb.WriteString(a)
		}
	}
	if research != "" {
		sb.WriteString("\n\nBackground notes:\n")
		sb.WriteString(research)
	}
	return sb.String()
}

// BuildRefinementPrompt layers user feedback over the previous result.
func BuildRefinementPrompt(original, previous, feedback string) string {
	var sb strings.Builder
	sb.WriteString("Revise the enhanced note below according to the feedback.\n")
	sb.WriteString(structuralDirective)
	sb.WriteString("\n\nFeedback: ")
	if strings.TrimSpace(feedback) == "" {
		sb.WriteString("improve the previous attempt.")
	} else {
		sb.WriteString(feedback)
	}
	sb.WriteString("\n\nOriginal note:\n")
	sb.WriteString(original)
	sb.WriteString("\n\nPrevious enhancement:\n")
	sb.WriteString(previous)
	return sb.String()
}
