// Package report renders analyzed cases for human consumption: a markdown
// report, its HTML form, and a printable PDF.
package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sravan953/saul/internal/analysis"
	"github.com/sravan953/saul/internal/atomize"
)

// BuildMarkdown composes the case report. atom may be nil when stage 2 has
// not run for the case yet.
func BuildMarkdown(caseID string, a *analysis.Analysis, atom *atomize.AtomizedCaseOutput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Case Analysis Report\n\n")
	fmt.Fprintf(&b, "- Case ID: %s\n", caseID)
	if atom != nil {
		fmt.Fprintf(&b, "- Case type: `%s`\n", atom.CaseType)
	} else {
		fmt.Fprintf(&b, "- Case type: not classified\n")
	}
	fmt.Fprintf(&b, "- Date: %s\n\n", time.Now().Format(time.RFC3339))

	appendList(&b, "Facts", a.Facts)
	appendList(&b, "Legal Issues", a.Issues)
	appendList(&b, "Reasonings", a.Reasonings)

	fmt.Fprintf(&b, "## Outcome\n\n%s\n\n", sanitizeLine(a.Outcomes))

	if atom != nil {
		fmt.Fprintf(&b, "## Classification\n\n")
		fmt.Fprintf(&b, "- Outcome category: %s\n", sanitizeLine(atom.OutcomeCategory))
		fmt.Fprintf(&b, "- Outcome details: %s\n\n", sanitizeLine(atom.OutcomeDetails))
		switch atom.CaseType {
		case atomize.CaseTypeCriminal:
			appendCriminal(&b, atom.Criminal)
		case atomize.CaseTypeCivil:
			appendCivil(&b, atom.Civil)
		}
		fmt.Fprintf(&b, "## Appendix\n\n### Atomized Output (JSON)\n\n```json\n%s\n```\n", prettyJSON(atom))
	}
	return b.String()
}

func appendCriminal(b *strings.Builder, c *atomize.CriminalCase) {
	fmt.Fprintf(b, "### Criminal Case\n\n")
	fmt.Fprintf(b, "- Severity: `%s`\n", c.Severity)
	fmt.Fprintf(b, "- Charges: %s\n", joinOrDash(c.Charges))
	if c.Weapon != nil && strings.TrimSpace(*c.Weapon) != "" {
		fmt.Fprintf(b, "- Weapon: %s\n", sanitizeLine(*c.Weapon))
	}
	fmt.Fprintf(b, "- Victim count: %d\n", c.VictimCount)
	fmt.Fprintf(b, "- Evidence types: %s\n", joinOrDash(c.EvidenceTypes))
	fmt.Fprintf(b, "- Aggravating factors: %s\n", joinOrDash(c.AggravatingFactors))
	fmt.Fprintf(b, "- Prior record severity: `%s`\n\n", c.PriorRecordSeverity)
}

func appendCivil(b *strings.Builder, c *atomize.CivilCase) {
	fmt.Fprintf(b, "### Civil Case\n\n")
	fmt.Fprintf(b, "- Cause of action: %s\n", sanitizeLine(c.CauseOfAction))
	fmt.Fprintf(b, "- Duty of care source: %s\n", sanitizeLine(c.DutyOfCareSource))
	fmt.Fprintf(b, "- Breach: %s\n", sanitizeLine(c.BreachDescription))
	fmt.Fprintf(b, "- Causation score: %.2f\n", c.CausationScore)
	fmt.Fprintf(b, "- Damages amount: %.2f\n", c.DamagesAmount)
	fmt.Fprintf(b, "- Settled: %v\n\n", c.Settlement)
}

func appendList(b *strings.Builder, title string, items []string) {
	fmt.Fprintf(b, "## %s\n\n", title)
	if len(items) == 0 {
		fmt.Fprintf(b, "- none identified\n")
	}
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", sanitizeLine(item))
	}
	b.WriteString("\n")
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, "; ")
}

func prettyJSON(v any) string {
	blob, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(blob)
}

func sanitizeLine(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
	if s == "" {
		return "-"
	}
	return s
}
