package detect

import (
	"fmt"
	"strings"

	"github.com/webcodedsoft/pgrestify-sub004/internal/schema"
)

// sensitiveColumnHints flag columns whose changes should be audited.
var sensitiveColumnHints = []string{"password", "email", "phone", "ssn", "credit_card"}

// validatedColumnHints flag columns that benefit from a format/range check.
var validatedColumnHints = []string{"email", "phone", "amount", "price", "cost", "balance"}

// auditTableHints flag tables whose rows belong to identifiable people.
var auditTableHints = []string{"user", "account"}

// securityTableHints flag tables whose access should be monitored.
var securityTableHints = []string{"admin", "config", "setting"}

// AnalyzeTableForTriggers evaluates every trigger rule against the table and
// returns all matches. The rules are independent: a table can collect zero
// suggestions or several, and the simple updated_at rule fires alongside the
// full timestamp-management rule when both timestamps exist.
func AnalyzeTableForTriggers(table string, columns []schema.Column) []schema.TriggerSuggestion {
	var suggestions []schema.TriggerSuggestion

	has := func(name string) bool {
		for _, c := range columns {
			if c.Name == name {
				return true
			}
		}
		return false
	}
	anyColumnContains := func(hints []string) (string, bool) {
		for _, c := range columns {
			lower := strings.ToLower(c.Name)
			for _, hint := range hints {
				if strings.Contains(lower, hint) {
					return c.Name, true
				}
			}
		}
		return "", false
	}

	if has("updated_at") {
		suggestions = append(suggestions, schema.TriggerSuggestion{
			Name:        table + "_set_updated_at",
			Type:        schema.TriggerTimestamp,
			Description: "Refreshes updated_at on every UPDATE",
			Reason:      "updated_at column present",
		})
	}

	if has("created_at") && has("updated_at") {
		suggestions = append(suggestions, schema.TriggerSuggestion{
			Name:        table + "_timestamp_management",
			Type:        schema.TriggerTimestamp,
			Description: "Sets created_at on INSERT and updated_at on UPDATE, rejecting client-supplied values",
			Reason:      "both created_at and updated_at columns present",
		})
	}

	auditReason := ""
	if has("user_id") {
		auditReason = "user_id column present"
	} else if col, ok := anyColumnContains(sensitiveColumnHints); ok {
		auditReason = fmt.Sprintf("sensitive column %q present", col)
	} else if hint, ok := nameContainsAny(table, auditTableHints); ok {
		auditReason = fmt.Sprintf("table name contains %q", hint)
	}
	if auditReason != "" {
		suggestions = append(suggestions, schema.TriggerSuggestion{
			Name:        table + "_audit_trail",
			Type:        schema.TriggerAudit,
			Description: "Records INSERT/UPDATE/DELETE with actor and changed columns",
			Reason:      auditReason,
		})
	}

	if col, ok := anyColumnContains(validatedColumnHints); ok {
		suggestions = append(suggestions, schema.TriggerSuggestion{
			Name:        table + "_validation",
			Type:        schema.TriggerValidation,
			Description: "Validates formats and value ranges before writes",
			Reason:      fmt.Sprintf("column %q needs format/range validation", col),
		})
	}

	if hint, ok := nameContainsAny(table, securityTableHints); ok {
		suggestions = append(suggestions, schema.TriggerSuggestion{
			Name:        table + "_security_monitor",
			Type:        schema.TriggerSecurity,
			Description: "Logs every write to this table for security review",
			Reason:      fmt.Sprintf("table name contains %q", hint),
		})
	}

	if has("deleted_at") {
		suggestions = append(suggestions, schema.TriggerSuggestion{
			Name:        table + "_soft_delete_protection",
			Type:        schema.TriggerSoftDelete,
			Description: "Converts DELETE into setting deleted_at and blocks updates to removed rows",
			Reason:      "deleted_at column present",
		})
	}

	return suggestions
}
