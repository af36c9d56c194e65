package catalog

import (
	"bytes"
	"fmt"
	"strings"
)

// Rubric expands one question's classification instructions into the prompt
// sent to the answer classifier. The raw answer travels separately as the
// call's input payload.
type Rubric struct {
	Key string
	// ValueField names the extraction slot the model should fill
	// (extracted_number, extracted_months, extracted_score) or is empty
	// for plain yes/no rubrics.
	ValueField string
	rules      []string
	guidance   []string
}

const commonHeader = "You are a social-isolation assessment specialist evaluating one answer " +
	"from a structured interview. Always keep a warm, professional tone. When you ask a " +
	"clarification question, begin with a short empathetic phrase such as " +
	"\"Thank you for sharing that.\" and gently request the missing detail."

// Prompt renders the rubric for a concrete question text.
func (r Rubric) Prompt(questionText string) string {
	var buf bytes.Buffer
	writeSection(&buf, "PURPOSE", commonHeader)
	writeSection(&buf, "QUESTION", questionText)
	writeSection(&buf, "RULES", formatList(r.rules))
	writeSection(&buf, "GUIDANCE", formatList(r.guidance))
	writeSection(&buf, "OUTPUT", formatList(outputFields(r)))
	writeSection(&buf, "OUTPUT_FORMAT", "Respond with a single JSON object and nothing else.")
	return strings.TrimSpace(buf.String()) + "\n"
}

func outputFields(r Rubric) []string {
	fields := []string{
		"status (string, required): one of positive | negative | clarification_needed",
		fmt.Sprintf("result (string, optional): %s_positive or %s_negative", r.Key, r.Key),
	}
	if r.ValueField != "" {
		fields = append(fields,
			fmt.Sprintf("%s (integer, optional): the extracted value", r.ValueField),
			"extracted_value (integer, optional): same value, canonical slot",
		)
	}
	fields = append(fields,
		"clarification_question (string, required when status is clarification_needed)",
		"rationale (string, optional): one short sentence explaining the judgement",
	)
	return fields
}

func formatList(items []string) string {
	var buf strings.Builder
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		fmt.Fprintf(&buf, "- %s\n", item)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func writeSection(buf *bytes.Buffer, title, body string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	buf.WriteString("[")
	buf.WriteString(title)
	buf.WriteString("]\n")
	buf.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		buf.WriteString("\n")
	}
	buf.WriteString("\n")
}

var rubrics = map[string]Rubric{
	"A1": {
		Key: "A1",
		rules: []string{
			"'yes' or an equivalent answer means status positive",
			"'no' or an equivalent answer means status negative",
			"vague or unclear answers mean status clarification_needed",
		},
		guidance: []string{
			"When the answer is ambiguous, produce a concrete re-ask in clarification_question.",
		},
	},
	"A2": {
		Key:        "A2",
		ValueField: "extracted_number",
		rules: []string{
			"fewer than 4 outings per week means status positive",
			"4 or more outings per week means status negative",
			"only when no number can be read at all, use clarification_needed",
		},
		guidance: []string{
			"Any number the subject mentions ('10 times', 'about 10', 'on average 10') is the weekly outing count; extract it and compare against 4.",
			"Examples: '10 times' -> 10, negative; '3 times' -> 3, positive; 'no idea' -> clarification_needed.",
		},
	},
	"A3": {
		Key:        "A3",
		ValueField: "extracted_months",
		rules: []string{
			"a duration of 6 months or longer means status positive",
			"shorter than 6 months means status negative",
			"an unclear duration means status clarification_needed",
		},
		guidance: []string{
			"Convert the answer to months ('one year' -> 12) before comparing.",
			"When unclear, ask for a concrete duration in the clarification question.",
		},
	},
	"B1": {
		Key:        "B1",
		ValueField: "extracted_number",
		rules: []string{
			"zero people with meaningful interaction means status positive",
			"one or more people means status negative",
			"an unclear count means status clarification_needed",
		},
		guidance: []string{
			"Exclude family and people the subject lives with.",
			"Exclude online-only relationships.",
			"Exclude one-way service contacts such as shop staff or doctors.",
			"Exclude plain greetings or attending a class without real exchange.",
		},
	},
	"B2": {
		Key:        "B2",
		ValueField: "extracted_months",
		rules: []string{
			"a duration of 3 months or longer means status positive",
			"shorter than 3 months means status negative",
			"a vague duration, or one that needs guessing, means status clarification_needed",
		},
		guidance: []string{
			"Convert to months ('one year' -> 12, '90 days' -> 3) and record the result.",
			"When re-asking, request an explicit duration.",
		},
	},
	"C1": {
		Key:        "C1",
		ValueField: "extracted_number",
		rules: []string{
			"zero people to rely on means status positive",
			"one or more people means status negative",
			"an unclear count means status clarification_needed",
		},
		guidance: []string{
			"Exclude family, people the subject lives with, and online-only relationships.",
			"Non-numeric answers should still be interpreted as zero or one-plus where possible.",
			"When unclear, ask specifically who the subject could rely on.",
		},
	},
	"C2": {
		Key:        "C2",
		ValueField: "extracted_months",
		rules: []string{
			"a duration of 3 months or longer means status positive",
			"shorter than 3 months means status negative",
			"a vague duration means status clarification_needed",
		},
		guidance: []string{
			"Convert the answer to months and record it.",
		},
	},
	"D1": {
		Key:        "D1",
		ValueField: "extracted_score",
		rules: []string{
			"explicit emotional distress or a score of 5 or higher means status positive",
			"no distress, or a score of 4 or lower, means status negative",
			"unclear distress or a missing score means status clarification_needed",
		},
		guidance: []string{
			"Record any mentioned score as an integer between 1 and 10.",
			"If distress is mentioned without a score, re-ask with empathy and explicitly name the 1-to-10 range.",
			"A clear statement of no distress counts as 0.",
		},
	},
	"D1_duration": {
		Key:        "D1_duration",
		ValueField: "extracted_months",
		rules: []string{
			"a duration of 3 months or longer means status positive",
			"shorter than 3 months means status negative",
			"a vague duration means status clarification_needed",
		},
	},
	"D2": {
		Key:        "D2",
		ValueField: "extracted_score",
		rules: []string{
			"stated functional impairment or a score of 5 or higher means status positive",
			"no impact, or a score of 4 or lower, means status negative",
			"a missing score or unclear impact means status clarification_needed",
		},
		guidance: []string{
			"Record any mentioned score as an integer between 1 and 10.",
			"If impairment is stated without a score, ask for an explicit score.",
			"A clear statement of no impairment counts as 0.",
		},
	},
	"D2_duration": {
		Key:        "D2_duration",
		ValueField: "extracted_months",
		rules: []string{
			"a duration of 3 months or longer means status positive",
			"shorter than 3 months means status negative",
			"a vague duration means status clarification_needed",
		},
	},
}

// LookupRubric returns the rubric registered for key.
func LookupRubric(key string) (Rubric, bool) {
	r, ok := rubrics[key]
	return r, ok
}
