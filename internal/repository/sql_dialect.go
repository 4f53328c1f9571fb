package repository

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// phoneSeparators are stripped when matching phone numbers on SQLite
var phoneSeparators = []string{" ", "-", "(", ")", ".", "+", "/"}

// dbDialectName returns the dialect name, sqlite when unknown
func dbDialectName(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return "sqlite"
	}
	name := strings.ToLower(strings.TrimSpace(db.Dialector.Name()))
	if name == "" {
		return "sqlite"
	}
	return name
}

// digitsOnlyExpr strips non-digit characters from a column
func digitsOnlyExpr(db *gorm.DB, column string) string {
	return digitsOnlyExprByDialect(dbDialectName(db), column)
}

func digitsOnlyExprByDialect(dialect, column string) string {
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "postgres", "postgresql":
		return fmt.Sprintf("regexp_replace(%s, '[^0-9]', '', 'g')", column)
	default:
		// SQLite has no regexp_replace, peel the usual separators instead
		expr := column
		for _, sep := range phoneSeparators {
			expr = fmt.Sprintf("REPLACE(%s, '%s', '')", expr, sep)
		}
		return expr
	}
}

// DigitsOnly keeps the ASCII digits of s
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
