package merge

import (
	"fmt"
	"strings"
	"testing"

	"github.com/webcodedsoft/pgrestify-sub004/internal/schema"
)

func policyFrag(name, table, cond string) schema.Fragment {
	return schema.Fragment{
		Key: name,
		Text: fmt.Sprintf("-- Generated policy: %s\nCREATE POLICY %q ON %q\nFOR SELECT TO web_user\nUSING (%s);",
			name, name, table, cond),
	}
}

func indexFrag(name, table, column string) schema.Fragment {
	return schema.Fragment{
		Key:  name,
		Text: fmt.Sprintf("-- Lookup index\nCREATE INDEX IF NOT EXISTS %q ON %q (%q);", name, table, column),
	}
}

func artifact(frags ...schema.Fragment) schema.GeneratedArtifact {
	return schema.GeneratedArtifact{Fragments: frags}
}

func keysOf(text string) map[string]int {
	counts := map[string]int{}
	for _, k := range ExtractIdentityKeys(text) {
		counts[k]++
	}
	return counts
}

func TestMergeIntoEmptyFile(t *testing.T) {
	art := artifact(policyFrag("orders_select_own", "orders", "user_id = current_user_id()"))
	header := "-- header\n\n"

	res := Merge("", art, ModeMerge, header)

	if !strings.HasPrefix(res.Text, header) {
		t.Errorf("result should start with the header, got:\n%s", res.Text)
	}
	if res.Added != 1 || res.Replaced != 0 {
		t.Errorf("Added = %d, Replaced = %d, want 1, 0", res.Added, res.Replaced)
	}
	if res.Degraded {
		t.Error("empty file should never degrade")
	}
}

func TestMergeReplaceDiscardsExisting(t *testing.T) {
	existing := Merge("", artifact(
		policyFrag("old_one", "orders", "true"),
		policyFrag("old_two", "orders", "true"),
		indexFrag("idx_orders_user_id", "orders", "user_id"),
	), ModeReplace, "").Text

	art := artifact(policyFrag("new_one", "orders", "false"))
	res := Merge(existing, art, ModeReplace, "")

	got := keysOf(res.Text)
	if len(got) != 1 || got["new_one"] != 1 {
		t.Errorf("replace should keep exactly the new keys, got %v", got)
	}
	for _, old := range []string{"old_one", "old_two", "idx_orders_user_id"} {
		if got[old] != 0 {
			t.Errorf("replace should discard %q", old)
		}
	}
}

func TestMergeUnionNewWins(t *testing.T) {
	existing := Merge("", artifact(
		policyFrag("a", "orders", "true"),
		policyFrag("b", "orders", "old_condition"),
	), ModeMerge, "-- provenance\n\n").Text

	res := Merge(existing, artifact(
		policyFrag("b", "orders", "new_condition"),
		policyFrag("c", "orders", "true"),
	), ModeMerge, "")

	got := keysOf(res.Text)
	for _, k := range []string{"a", "b", "c"} {
		if got[k] != 1 {
			t.Errorf("key %q count = %d, want 1 (all keys: %v)", k, got[k], got)
		}
	}
	if strings.Contains(res.Text, "old_condition") {
		t.Error("old definition of b should be removed")
	}
	if !strings.Contains(res.Text, "new_condition") {
		t.Error("new definition of b should be present")
	}
	if res.Added != 1 || res.Replaced != 1 {
		t.Errorf("Added = %d, Replaced = %d, want 1, 1", res.Added, res.Replaced)
	}
}

func TestMergeIdempotent(t *testing.T) {
	art := artifact(
		policyFrag("orders_select_own", "orders", "user_id = sub()"),
		policyFrag("orders_insert_own", "orders", "user_id = sub()"),
		indexFrag("idx_orders_user_id", "orders", "user_id"),
	)
	header := "-- Generated by pgrestify\n-- Date: 2026-01-01\n\n"

	first := Merge("", art, ModeMerge, header)
	second := Merge(first.Text, art, ModeMerge, header)

	if second.Text != first.Text {
		t.Errorf("second merge run should be byte-identical\nfirst:\n%s\nsecond:\n%s", first.Text, second.Text)
	}
	if second.Added != 0 {
		t.Errorf("second run Added = %d, want 0", second.Added)
	}
	if second.Replaced != len(art.Fragments) {
		t.Errorf("second run Replaced = %d, want %d", second.Replaced, len(art.Fragments))
	}
}

func TestMergeDropsReplacedObjectComments(t *testing.T) {
	art := artifact(policyFrag("p1", "orders", "true"))
	header := "-- Generated by pgrestify\n\n"

	text := Merge("", art, ModeMerge, header).Text
	text = Merge(text, art, ModeMerge, header).Text
	text = Merge(text, art, ModeMerge, header).Text

	if n := strings.Count(text, "-- Generated policy: p1"); n != 1 {
		t.Errorf("replaced object's leading comment appears %d times, want 1:\n%s", n, text)
	}
	if n := strings.Count(text, "-- Generated by pgrestify"); n != 1 {
		t.Errorf("header appears %d times, want 1:\n%s", n, text)
	}
}

func TestMergeNeverDuplicatesKeys(t *testing.T) {
	base := artifact(
		policyFrag("p1", "users", "true"),
		indexFrag("idx_users_email", "users", "email"),
	)
	overlap := artifact(
		indexFrag("idx_users_email", "users", "email"),
		policyFrag("p2", "users", "true"),
	)

	text := Merge("", base, ModeMerge, "").Text
	text = Merge(text, overlap, ModeMerge, "").Text
	text = Merge(text, overlap, ModeMerge, "").Text

	for key, n := range keysOf(text) {
		if n != 1 {
			t.Errorf("key %q appears %d times, want 1", key, n)
		}
	}
}

func TestMergePreservesHandWrittenObjects(t *testing.T) {
	existing := "-- hand written\nCREATE POLICY hand_rolled ON orders FOR ALL USING (true);\n"

	res := Merge(existing, artifact(policyFrag("generated", "orders", "true")), ModeMerge, "")

	got := keysOf(res.Text)
	if got["hand_rolled"] != 1 || got["generated"] != 1 {
		t.Errorf("merge should keep hand-written objects, got %v", got)
	}
	if res.Degraded {
		t.Error("identifiable hand-written objects should not degrade the merge")
	}
}

func TestMergeDegradesOnUnparseableFile(t *testing.T) {
	existing := "DO $$ BEGIN\n  GRANT SELECT ON orders TO web_user;\nEND $$;\n"

	res := Merge(existing, artifact(policyFrag("p1", "orders", "true")), ModeMerge, "")

	if !res.Degraded {
		t.Fatal("unidentifiable statements should force a degraded append")
	}
	if !strings.HasPrefix(res.Text, strings.TrimRight(existing, "\n")) {
		t.Error("degraded merge should keep the existing file as an opaque prefix")
	}
	if !strings.Contains(res.Text, `CREATE POLICY "p1"`) {
		t.Error("degraded merge should still append the new artifact")
	}
}

func TestMergeCommentOnlyFileIsNotDegraded(t *testing.T) {
	existing := "-- notes from a review\n-- nothing executable here\n"

	res := Merge(existing, artifact(policyFrag("p1", "orders", "true")), ModeMerge, "")

	if res.Degraded {
		t.Error("a comment-only file has no objects to lose, not a parse failure")
	}
	if !strings.Contains(res.Text, "notes from a review") {
		t.Error("existing commentary should be preserved")
	}
}

func TestReplaceNamed(t *testing.T) {
	existing := Merge("", artifact(
		policyFrag("keep_me", "orders", "true"),
		policyFrag("replace_me", "orders", "old_condition"),
	), ModeMerge, "").Text

	res, err := ReplaceNamed(existing, "policy", "replace_me",
		policyFrag("replace_me", "orders", "new_condition"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := keysOf(res.Text)
	if got["keep_me"] != 1 || got["replace_me"] != 1 {
		t.Errorf("keys after named replace = %v", got)
	}
	if strings.Contains(res.Text, "old_condition") {
		t.Error("old definition should be gone")
	}
	if res.Replaced != 1 {
		t.Errorf("Replaced = %d, want 1", res.Replaced)
	}
}

func TestReplaceNamedNotFound(t *testing.T) {
	existing := Merge("", artifact(policyFrag("only_policy", "orders", "true")), ModeMerge, "").Text

	_, err := ReplaceNamed(existing, "policy", "missing", policyFrag("missing", "orders", "true"))
	if err == nil {
		t.Fatal("expected ObjectNotFoundError")
	}
	if !schema.IsObjectNotFoundErr(err) {
		t.Fatalf("error should be an ObjectNotFoundError, got %T: %v", err, err)
	}
	if !strings.Contains(err.Error(), "only_policy") {
		t.Errorf("error should list the known objects, got: %v", err)
	}
}

func TestExtractIdentityKeys(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "policy",
			text: "CREATE POLICY orders_select ON orders FOR SELECT USING (true);",
			want: []string{"orders_select"},
		},
		{
			name: "quoted policy",
			text: `CREATE POLICY "odd name" ON orders FOR SELECT USING (true);`,
			want: []string{"odd name"},
		},
		{
			name: "index variants",
			text: "CREATE UNIQUE INDEX idx_a ON t (a);\nCREATE INDEX IF NOT EXISTS idx_b ON t (b);",
			want: []string{"idx_a", "idx_b"},
		},
		{
			name: "trigger and function",
			text: "CREATE OR REPLACE FUNCTION set_updated_at() RETURNS trigger AS $$\nBEGIN\n    RETURN NEW;\nEND;\n$$ LANGUAGE plpgsql;\n\nCREATE TRIGGER orders_updated\nBEFORE UPDATE ON orders\nFOR EACH ROW EXECUTE FUNCTION set_updated_at();",
			want: []string{"set_updated_at", "orders_updated"},
		},
		{
			name: "enable rls alias",
			text: "ALTER TABLE orders ENABLE ROW LEVEL SECURITY;",
			want: []string{"orders_enable_rls"},
		},
		{
			name: "indented statements inside bodies are skipped",
			text: "CREATE OR REPLACE FUNCTION f() RETURNS void AS $$\nBEGIN\n    CREATE INDEX hidden ON t (a);\nEND;\n$$ LANGUAGE plpgsql;",
			want: []string{"f"},
		},
		{
			name: "no objects",
			text: "-- just a comment\n",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractIdentityKeys(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("ExtractIdentityKeys() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("key[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
