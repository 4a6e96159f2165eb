package conversation

import (
	"regexp"
	"strings"
)

// Category is one of the nine fixed labels describing the purpose of a
// user request. The taxonomy is closed: classifier output that does not
// normalize to one of these labels falls back to CategoryDefault.
type Category string

const (
	CategoryInformationSeeking Category = "Information Seeking & Summarization"
	CategoryIdeaGeneration     Category = "Idea Generation / Brainstorming"
	CategoryIdeaRefinement     Category = "Idea Refinement / Elaboration"
	CategoryDataAnalysis       Category = "Data & Content Analysis"
	CategoryLearning           Category = "Learning & Conceptual Understanding"
	CategoryWriting            Category = "Writing & Communication Assistance"
	CategoryProblemSolving     Category = "Problem Solving & Decision Support"
	CategoryAutomation         Category = "Automation & Technical Support"
	CategoryVerification       Category = "Accuracy Verification & Source Checking"
)

// CategoryDefault is the most generic label. It is used when
// classification fails or returns something outside the taxonomy.
const CategoryDefault = CategoryInformationSeeking

// Categories lists the taxonomy in its canonical order.
var Categories = []Category{
	CategoryInformationSeeking,
	CategoryIdeaGeneration,
	CategoryIdeaRefinement,
	CategoryDataAnalysis,
	CategoryLearning,
	CategoryWriting,
	CategoryProblemSolving,
	CategoryAutomation,
	CategoryVerification,
}

var categoryByKey = func() map[string]Category {
	m := make(map[string]Category, len(Categories))
	for _, c := range Categories {
		m[categoryKey(string(c))] = c
	}
	return m
}()

// numberedPrefix matches leading list numbering such as "3. " or "3) ".
var numberedPrefix = regexp.MustCompile(`^\s*\d+[.)]\s*`)

// NormalizeCategory maps raw classifier output onto the fixed taxonomy.
// Model output often carries numbering or quoting artifacts
// (`3. "Data & Content Analysis"`); those are stripped before matching.
// Unrecognized output maps to CategoryDefault, never to a new label.
func NormalizeCategory(raw string) Category {
	s := numberedPrefix.ReplaceAllString(strings.TrimSpace(raw), "")
	s = strings.Trim(s, `"'“”`)
	if c, ok := categoryByKey[categoryKey(s)]; ok {
		return c
	}
	return CategoryDefault
}

// categoryKey folds case and whitespace so that minor formatting drift in
// model output still matches.
func categoryKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
