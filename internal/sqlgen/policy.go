package sqlgen

import (
	"fmt"

	"github.com/lib/pq"

	"github.com/webcodedsoft/pgrestify-sub004/internal/schema"
)

// PostgREST role names the generated policies grant access to. The roles
// themselves are created by the roles.sql artifact.
const (
	RoleAnon  = "web_anon"
	RoleUser  = "web_user"
	RoleAdmin = "web_admin"
)

// GeneratePolicies renders the row-level security artifact for one table.
// The first fragment enables RLS (skipped when introspection reports it
// already enabled); the rest are the policies the detected pattern calls for.
func GeneratePolicies(table schema.TableSchema, decision schema.PatternDecision) schema.GeneratedArtifact {
	var fragments []schema.Fragment

	if !table.RLSEnabled {
		fragments = append(fragments, enableRLSFragment(table.Name))
	}

	switch decision.Kind {
	case schema.PatternUserSpecific:
		if decision.OwnerColumn == "" {
			// Explicitly requested user_specific without an owner column:
			// there is nothing to filter on, so lock the table down until
			// the user supplies a condition.
			fragments = append(fragments, lockedPolicyFragment(table.Name, decision))
			break
		}
		fragments = append(fragments, ownerPolicyFragments(table, decision)...)
	case schema.PatternPublicRead:
		fragments = append(fragments, publicReadFragments(table.Name, decision)...)
	case schema.PatternAdminOnly:
		fragments = append(fragments, adminOnlyFragment(table.Name, decision))
	default:
		fragments = append(fragments, lockedPolicyFragment(table.Name, decision))
	}

	return schema.GeneratedArtifact{Fragments: fragments}
}

// RegeneratePolicy renders a single policy for the named-update path. When
// the name matches one of the pattern's standard policies that definition is
// used; any other name regenerates as a FOR ALL policy with the pattern's
// condition.
func RegeneratePolicy(table schema.TableSchema, decision schema.PatternDecision, name string) schema.Fragment {
	full := GeneratePolicies(table, decision)
	if frag, ok := full.Fragment(name); ok {
		return frag
	}

	using, check := patternCondition(table, decision)
	role := RoleUser
	if decision.Kind == schema.PatternAdminOnly {
		role = RoleAdmin
	}
	text := sqlf(`
		-- Generated policy: %s access on %s (pattern: %s)
		CREATE POLICY %s ON %s
		FOR ALL TO %s
		USING (%s)
		WITH CHECK (%s);`,
		name, quoted(table.Name), decision.Kind,
		quoted(name), quoted(table.Name),
		role, using, check,
	)
	return schema.Fragment{Key: name, Text: text}
}

func enableRLSFragment(table string) schema.Fragment {
	return schema.Fragment{
		Key: table + "_enable_rls",
		Text: sqlf(`
			-- Enable row level security on %s
			ALTER TABLE %s ENABLE ROW LEVEL SECURITY;`,
			quoted(table), quoted(table)),
	}
}

// ownerPolicyFragments renders the four per-command owner policies used by
// the user_specific pattern.
func ownerPolicyFragments(table schema.TableSchema, decision schema.PatternDecision) []schema.Fragment {
	cond := ownerCondition(table, decision.OwnerColumn)
	tbl := quoted(table.Name)
	owner := decision.OwnerColumn

	selectName := policyName(table.Name, "select_own")
	insertName := policyName(table.Name, "insert_own")
	updateName := policyName(table.Name, "update_own")
	deleteName := policyName(table.Name, "delete_own")

	return []schema.Fragment{
		{
			Key: selectName,
			Text: sqlf(`
				-- Generated policy: owners read their own rows in %s (owner column: %s)
				CREATE POLICY %s ON %s
				FOR SELECT TO %s
				USING (%s);`,
				tbl, owner, quoted(selectName), tbl, RoleUser, cond),
		},
		{
			Key: insertName,
			Text: sqlf(`
				-- Generated policy: owners insert rows they own in %s (owner column: %s)
				CREATE POLICY %s ON %s
				FOR INSERT TO %s
				WITH CHECK (%s);`,
				tbl, owner, quoted(insertName), tbl, RoleUser, cond),
		},
		{
			Key: updateName,
			Text: sqlf(`
				-- Generated policy: owners update their own rows in %s (owner column: %s)
				CREATE POLICY %s ON %s
				FOR UPDATE TO %s
				USING (%s)
				WITH CHECK (%s);`,
				tbl, owner, quoted(updateName), tbl, RoleUser, cond, cond),
		},
		{
			Key: deleteName,
			Text: sqlf(`
				-- Generated policy: owners delete their own rows in %s (owner column: %s)
				CREATE POLICY %s ON %s
				FOR DELETE TO %s
				USING (%s);`,
				tbl, owner, quoted(deleteName), tbl, RoleUser, cond),
		},
	}
}

func publicReadFragments(table string, decision schema.PatternDecision) []schema.Fragment {
	tbl := quoted(table)
	selectName := policyName(table, "public_select")
	writeName := policyName(table, "admin_write")
	return []schema.Fragment{
		{
			Key: selectName,
			Text: sqlf(`
				-- Generated policy: anonymous read access on %s (%s)
				CREATE POLICY %s ON %s
				FOR SELECT TO %s, %s
				USING (true);`,
				tbl, decision.Reason,
				quoted(selectName), tbl, RoleAnon, RoleUser),
		},
		{
			Key: writeName,
			Text: sqlf(`
				-- Generated policy: writes restricted to administrators on %s
				CREATE POLICY %s ON %s
				FOR ALL TO %s
				USING (true)
				WITH CHECK (true);`,
				tbl,
				quoted(writeName), tbl, RoleAdmin),
		},
	}
}

func adminOnlyFragment(table string, decision schema.PatternDecision) schema.Fragment {
	name := policyName(table, "admin_all")
	return schema.Fragment{
		Key: name,
		Text: sqlf(`
			-- Generated policy: administrator-only access on %s (%s)
			CREATE POLICY %s ON %s
			FOR ALL TO %s
			USING (true)
			WITH CHECK (true);`,
			quoted(table), decision.Reason,
			quoted(name), quoted(table), RoleAdmin),
	}
}

// lockedPolicyFragment denies all access until the user replaces the
// condition. Emitted for the custom pattern and for user_specific with no
// owner column, so a generated policy never silently allows everything.
func lockedPolicyFragment(table string, decision schema.PatternDecision) schema.Fragment {
	name := policyName(table, "custom_access")
	return schema.Fragment{
		Key: name,
		Text: sqlf(`
			-- Generated policy: locked placeholder on %s (%s)
			-- TODO: replace USING (false) with this table's real access condition
			CREATE POLICY %s ON %s
			FOR ALL TO %s
			USING (false)
			WITH CHECK (false);`,
			quoted(table), decision.Reason,
			quoted(name), quoted(table), RoleUser),
	}
}

// patternCondition returns the USING and WITH CHECK expressions for a
// pattern, used when regenerating a policy by name.
func patternCondition(table schema.TableSchema, decision schema.PatternDecision) (using, check string) {
	switch decision.Kind {
	case schema.PatternUserSpecific:
		if decision.OwnerColumn == "" {
			return "false", "false"
		}
		cond := ownerCondition(table, decision.OwnerColumn)
		return cond, cond
	case schema.PatternPublicRead, schema.PatternAdminOnly:
		return "true", "true"
	default:
		return "false", "false"
	}
}

// ownerCondition compares the owner column against the authenticated subject
// from the PostgREST JWT, cast to the column's type. Uncast text comparison
// is used when the column type is not an id type.
func ownerCondition(table schema.TableSchema, ownerColumn string) string {
	subject := "current_setting('request.jwt.claims', true)::json->>'sub'"
	typ := "uuid"
	if col, ok := table.Column(ownerColumn); ok {
		switch {
		case schema.IsIntegerType(col.Type):
			typ = "bigint"
		case schema.IsUUIDType(col.Type):
			typ = "uuid"
		default:
			return fmt.Sprintf("%s = %s", quoted(ownerColumn), subject)
		}
	}
	return fmt.Sprintf("%s = (%s)::%s", quoted(ownerColumn), subject, typ)
}

// policyName builds <table>_<suffix> clamped to the identifier limit.
func policyName(table, suffix string) string {
	name := table + "_" + suffix
	if len(name) > schema.MaxIdentifierLength {
		name = name[:schema.MaxIdentifierLength]
	}
	return name
}

// quoted double-quotes an identifier for SQL output.
func quoted(name string) string {
	return pq.QuoteIdentifier(name)
}
