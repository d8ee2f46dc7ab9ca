package schema

import "regexp"

// MaxIdentifierLength is the PostgreSQL identifier length limit (NAMEDATALEN-1).
const MaxIdentifierLength = 63

var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_$]*$`)

// ValidateIdentifier checks that name is usable as a PostgreSQL identifier
// and as a path segment of the generated file tree. field names the thing
// being validated and appears in the error.
func ValidateIdentifier(field, name string) error {
	if name == "" {
		return &ValidationError{Field: field, Value: name, Reason: "must not be empty"}
	}
	if len(name) > MaxIdentifierLength {
		return &ValidationError{Field: field, Value: name, Reason: "exceeds 63 characters"}
	}
	if !identifierPattern.MatchString(name) {
		return &ValidationError{Field: field, Value: name, Reason: "must start with a letter or underscore and contain only letters, digits, underscores, or $"}
	}
	return nil
}

// ValidateTableName checks a table name.
func ValidateTableName(name string) error {
	return ValidateIdentifier("table", name)
}

// ValidateColumnName checks a column name.
func ValidateColumnName(name string) error {
	return ValidateIdentifier("column", name)
}
