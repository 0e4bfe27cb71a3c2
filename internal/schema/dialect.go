package schema

import (
	"regexp"
	"strings"

	"github.com/omopkit/omopload/pkg/omopload"
)

// dialectPattern matches keywords that belong to other warehouse dialects
// (Redshift distribution and encoding clauses). Their presence means the DDL
// was generated for the wrong target and PostgreSQL would either reject the
// statement or silently ignore the clause.
var dialectPattern = regexp.MustCompile(`(?i)\b(DISTKEY|SORTKEY|DISTSTYLE|ENCODE)\b`)

// ScanDialect checks raw, pre-render DDL sources for foreign-dialect
// keywords so findings carry original file positions. Every occurrence is
// reported; validation treats any finding as fatal at end of run.
func ScanDialect(assets []omopload.SchemaAsset) []omopload.DialectFinding {
	var findings []omopload.DialectFinding
	for _, asset := range assets {
		for i, line := range strings.Split(asset.Content, "\n") {
			for _, match := range dialectPattern.FindAllString(line, -1) {
				findings = append(findings, omopload.DialectFinding{
					Keyword: match,
					File:    asset.Name,
					Line:    i + 1,
				})
			}
		}
	}
	return findings
}
