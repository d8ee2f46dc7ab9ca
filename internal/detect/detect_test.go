package detect

import (
	"strings"
	"testing"

	"github.com/webcodedsoft/pgrestify-sub004/internal/schema"
)

func TestDetectPolicyPattern(t *testing.T) {
	tests := []struct {
		name      string
		table     string
		columns   []schema.Column
		ownership map[string]string
		override  Override
		wantKind  schema.PatternKind
		wantOwner string
	}{
		{
			name:      "owner column wins",
			table:     "orders",
			columns:   []schema.Column{{Name: "user_id", Type: "uuid"}},
			wantKind:  schema.PatternUserSpecific,
			wantOwner: "user_id",
		},
		{
			name:      "first owner column in table order wins",
			table:     "posts",
			columns:   []schema.Column{{Name: "created_by", Type: "integer"}, {Name: "owner_id", Type: "uuid"}},
			wantKind:  schema.PatternUserSpecific,
			wantOwner: "created_by",
		},
		{
			name:     "owner column with wrong type is skipped",
			table:    "events",
			columns:  []schema.Column{{Name: "user_id", Type: "text"}},
			wantKind: schema.PatternCustom,
		},
		{
			name:      "ownership analysis beats column scan",
			table:     "invoices",
			columns:   []schema.Column{{Name: "created_by", Type: "uuid"}},
			ownership: map[string]string{"invoices": "customer_id"},
			wantKind:  schema.PatternUserSpecific,
			wantOwner: "customer_id",
		},
		{
			name:      "explicit override beats everything",
			table:     "invoices",
			columns:   []schema.Column{{Name: "user_id", Type: "uuid"}},
			ownership: map[string]string{"invoices": "customer_id"},
			override:  Override{Pattern: schema.PatternPublicRead},
			wantKind:  schema.PatternPublicRead,
		},
		{
			name:      "owner column override implies user specific",
			table:     "invoices",
			override:  Override{OwnerColumn: "tenant_id"},
			wantKind:  schema.PatternUserSpecific,
			wantOwner: "tenant_id",
		},
		{
			name:     "admin table name",
			table:    "admin_settings",
			columns:  []schema.Column{{Name: "id", Type: "integer"}, {Name: "value", Type: "jsonb"}},
			wantKind: schema.PatternAdminOnly,
		},
		{
			name:     "system table name",
			table:    "system_flags",
			wantKind: schema.PatternAdminOnly,
		},
		{
			name:     "lookup table name",
			table:    "product_categories",
			columns:  []schema.Column{{Name: "id", Type: "integer"}, {Name: "label", Type: "text"}},
			wantKind: schema.PatternPublicRead,
		},
		{
			name:     "currency lookup",
			table:    "currencies",
			wantKind: schema.PatternPublicRead,
		},
		{
			name:     "pluralized lookup name",
			table:    "countries",
			wantKind: schema.PatternPublicRead,
		},
		{
			name:     "no signal falls back to custom",
			table:    "measurements",
			columns:  []schema.Column{{Name: "id", Type: "bigint"}, {Name: "reading", Type: "numeric"}},
			wantKind: schema.PatternCustom,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectPolicyPattern(tt.table, tt.columns, tt.ownership, tt.override)
			if got.Kind != tt.wantKind {
				t.Errorf("kind = %q, want %q (reason: %s)", got.Kind, tt.wantKind, got.Reason)
			}
			if got.OwnerColumn != tt.wantOwner {
				t.Errorf("owner column = %q, want %q", got.OwnerColumn, tt.wantOwner)
			}
			if got.Reason == "" {
				t.Error("reason must never be empty")
			}
		})
	}
}

func TestDetectPolicyPatternReasons(t *testing.T) {
	t.Run("admin reason names the classification", func(t *testing.T) {
		got := DetectPolicyPattern("admin_settings", nil, nil, Override{})
		if !strings.Contains(got.Reason, "Administrative/configuration table") {
			t.Errorf("reason = %q, want mention of Administrative/configuration table", got.Reason)
		}
	})

	t.Run("explicit override reason", func(t *testing.T) {
		got := DetectPolicyPattern("orders", nil, nil, Override{Pattern: schema.PatternAdminOnly})
		if got.Reason != "explicit" {
			t.Errorf("reason = %q, want explicit", got.Reason)
		}
	})

	t.Run("custom fallback names the default", func(t *testing.T) {
		got := DetectPolicyPattern("measurements", nil, nil, Override{})
		if !strings.Contains(got.Reason, "default for user-data table") {
			t.Errorf("reason = %q, want mention of the user-data default", got.Reason)
		}
	})
}

func TestDetectPolicyPatternDeterminism(t *testing.T) {
	columns := []schema.Column{{Name: "user_id", Type: "uuid"}}
	first := DetectPolicyPattern("orders", columns, nil, Override{})
	for i := 0; i < 10; i++ {
		again := DetectPolicyPattern("orders", columns, nil, Override{})
		if again != first {
			t.Fatalf("detection not deterministic: %+v vs %+v", again, first)
		}
	}
	if first.Kind != schema.PatternUserSpecific || first.OwnerColumn != "user_id" {
		t.Errorf("orders with user_id uuid should be user_specific/user_id, got %+v", first)
	}
}
