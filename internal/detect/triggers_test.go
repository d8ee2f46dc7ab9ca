package detect

import (
	"testing"

	"github.com/webcodedsoft/pgrestify-sub004/internal/schema"
)

func suggestionNames(suggestions []schema.TriggerSuggestion) map[string]schema.TriggerType {
	names := make(map[string]schema.TriggerType, len(suggestions))
	for _, s := range suggestions {
		names[s.Name] = s.Type
	}
	return names
}

func TestAnalyzeTableForTriggers(t *testing.T) {
	t.Run("timestamps and soft delete", func(t *testing.T) {
		columns := []schema.Column{
			{Name: "created_at", Type: "timestamptz"},
			{Name: "updated_at", Type: "timestamptz"},
			{Name: "deleted_at", Type: "timestamptz", Nullable: true},
		}
		names := suggestionNames(AnalyzeTableForTriggers("documents", columns))

		if _, ok := names["documents_timestamp_management"]; !ok {
			t.Errorf("expected timestamp_management suggestion, got %v", names)
		}
		if _, ok := names["documents_soft_delete_protection"]; !ok {
			t.Errorf("expected soft_delete_protection suggestion, got %v", names)
		}
		// The simple updated_at rule fires alongside the full one.
		if _, ok := names["documents_set_updated_at"]; !ok {
			t.Errorf("expected set_updated_at suggestion, got %v", names)
		}
	})

	t.Run("audit from user_id", func(t *testing.T) {
		names := suggestionNames(AnalyzeTableForTriggers("orders", []schema.Column{{Name: "user_id", Type: "uuid"}}))
		if typ, ok := names["orders_audit_trail"]; !ok || typ != schema.TriggerAudit {
			t.Errorf("expected audit suggestion, got %v", names)
		}
	})

	t.Run("audit from sensitive column", func(t *testing.T) {
		names := suggestionNames(AnalyzeTableForTriggers("vault", []schema.Column{{Name: "credit_card_last4", Type: "text"}}))
		if _, ok := names["vault_audit_trail"]; !ok {
			t.Errorf("expected audit suggestion for sensitive column, got %v", names)
		}
	})

	t.Run("audit from table name", func(t *testing.T) {
		names := suggestionNames(AnalyzeTableForTriggers("accounts", []schema.Column{{Name: "id", Type: "uuid"}}))
		if _, ok := names["accounts_audit_trail"]; !ok {
			t.Errorf("expected audit suggestion for accounts table, got %v", names)
		}
	})

	t.Run("validation from money column", func(t *testing.T) {
		names := suggestionNames(AnalyzeTableForTriggers("orders", []schema.Column{{Name: "total_price", Type: "numeric"}}))
		if typ, ok := names["orders_validation"]; !ok || typ != schema.TriggerValidation {
			t.Errorf("expected validation suggestion, got %v", names)
		}
	})

	t.Run("security monitor for config tables", func(t *testing.T) {
		names := suggestionNames(AnalyzeTableForTriggers("app_config", []schema.Column{{Name: "key", Type: "text"}}))
		if typ, ok := names["app_config_security_monitor"]; !ok || typ != schema.TriggerSecurity {
			t.Errorf("expected security suggestion, got %v", names)
		}
	})

	t.Run("plain table gets nothing", func(t *testing.T) {
		suggestions := AnalyzeTableForTriggers("readings", []schema.Column{{Name: "id", Type: "bigint"}, {Name: "value", Type: "numeric"}})
		if len(suggestions) != 0 {
			t.Errorf("expected no suggestions, got %v", suggestions)
		}
	})

	t.Run("rules accumulate", func(t *testing.T) {
		columns := []schema.Column{
			{Name: "user_id", Type: "uuid"},
			{Name: "email", Type: "text"},
			{Name: "created_at", Type: "timestamptz"},
			{Name: "updated_at", Type: "timestamptz"},
			{Name: "deleted_at", Type: "timestamptz", Nullable: true},
		}
		suggestions := AnalyzeTableForTriggers("user_profiles", columns)
		if len(suggestions) != 5 {
			t.Errorf("expected 5 suggestions (set_updated_at, timestamp_management, audit, validation, soft_delete), got %d: %v",
				len(suggestions), suggestionNames(suggestions))
		}
	})
}
