package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/minorm/internal/schema"
)

// Lint codes (W100-W199). A record with findings still compiles; the codes
// flag declarations that will fail or misbehave at statement time.
const (
	// WarnNoKey: the record has no Id field, so update and delete are refused.
	WarnNoKey = "W101"
	// WarnKeyNotText: Id is not Text, so inserted keys are never generated.
	WarnKeyNotText = "W102"
	// WarnReservedWord: the name is an SQL keyword and needs quoting the
	// statement builder does not do.
	WarnReservedWord = "W103"
	// WarnDuplicateRecord: two records map to the same table.
	WarnDuplicateRecord = "W104"
)

// ValidationError is one lint finding.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// reservedWords holds keywords that SQLite or DuckDB reject as bare
// identifiers, restricted to ones that plausibly appear as type or field names.
var reservedWords = map[string]bool{
	"ALL": true, "AND": true, "AS": true, "BY": true, "CASE": true,
	"CHECK": true, "COLUMN": true, "CREATE": true, "DEFAULT": true,
	"DELETE": true, "DISTINCT": true, "DROP": true, "ELSE": true, "END": true,
	"FROM": true, "GROUP": true, "IN": true, "INDEX": true, "INSERT": true,
	"INTO": true, "IS": true, "JOIN": true, "KEY": true, "LIMIT": true,
	"NOT": true, "NULL": true, "ON": true, "OR": true, "ORDER": true,
	"PRIMARY": true, "REFERENCES": true, "SELECT": true, "SET": true,
	"TABLE": true, "THEN": true, "TO": true, "UNION": true, "UNIQUE": true,
	"UPDATE": true, "USER": true, "USING": true, "VALUES": true, "WHEN": true,
	"WHERE": true, "WITH": true,
}

// Validate lints compiled records.
// Returns all findings (does not fail-fast), in record order.
func Validate(descs []*schema.Descriptor[schema.Record]) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]string, len(descs))

	for _, d := range descs {
		folded := strings.ToLower(d.Name())
		if prev, dup := seen[folded]; dup {
			errs = append(errs, ValidationError{
				Field:   d.Name(),
				Message: fmt.Sprintf("table name collides with record %q", prev),
				Code:    WarnDuplicateRecord,
			})
		} else {
			seen[folded] = d.Name()
		}
		errs = append(errs, validateRecord(d)...)
	}
	return errs
}

func validateRecord(d *schema.Descriptor[schema.Record]) []ValidationError {
	var errs []ValidationError

	if reservedWords[strings.ToUpper(d.Name())] {
		errs = append(errs, ValidationError{
			Field:   d.Name(),
			Message: "table name is an SQL keyword on some engines",
			Code:    WarnReservedWord,
		})
	}

	key, ok := d.Key()
	switch {
	case !ok:
		errs = append(errs, ValidationError{
			Field:   d.Name(),
			Message: fmt.Sprintf("no %q field; update and delete will be refused", schema.KeyFieldName),
			Code:    WarnNoKey,
		})
	case key.Kind != schema.Text:
		errs = append(errs, ValidationError{
			Field:   d.Name() + "." + key.Name,
			Message: fmt.Sprintf("key is %s; generated keys need text", key.Kind),
			Code:    WarnKeyNotText,
		})
	}

	for _, f := range d.Fields() {
		if reservedWords[strings.ToUpper(f.Name)] {
			errs = append(errs, ValidationError{
				Field:   d.Name() + "." + f.Name,
				Message: "field name is an SQL keyword",
				Code:    WarnReservedWord,
			})
		}
	}
	return errs
}
