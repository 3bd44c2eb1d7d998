package migration

import "strings"

// StatementSeparator terminates every statement in a migration body.
const StatementSeparator = ";"

// Statement is the trimmed, non-empty text of one executable unit.
type Statement string

// Split cuts content into statements on StatementSeparator, trimming each
// fragment and dropping the empty ones. Order is preserved.
//
// The split is purely lexical: a ';' inside a quoted literal or a comment
// ends the statement there.
func Split(content string) []Statement {
	var statements []Statement
	for _, fragment := range strings.Split(content, StatementSeparator) {
		fragment = strings.TrimSpace(fragment)
		if fragment == "" {
			continue
		}
		statements = append(statements, Statement(fragment))
	}
	return statements
}
