package sqlgen

import (
	"strings"

	"github.com/webcodedsoft/pgrestify-sub004/internal/schema"
)

// GenerateFunction renders a standalone SQL function template of the given
// kind. The function is schema-wide (not owned by a table) and lands in
// sql/schemas/functions.sql.
func GenerateFunction(name string, kind schema.FunctionKind) schema.GeneratedArtifact {
	var buf strings.Builder
	buf.WriteString("-- Generated ")
	buf.WriteString(string(kind))
	buf.WriteString(" function ")
	buf.WriteString(quoted(name))
	buf.WriteString("\n")

	switch kind {
	case schema.FunctionAuth:
		buf.WriteString("-- Returns the authenticated user id from the PostgREST JWT, NULL when anonymous\n")
		buf.WriteString("CREATE OR REPLACE FUNCTION ")
		buf.WriteString(quoted(name))
		buf.WriteString(`() RETURNS uuid AS $$
    SELECT nullif(current_setting('request.jwt.claims', true)::json->>'sub', '')::uuid;
$$ LANGUAGE sql STABLE;`)
	case schema.FunctionCRUD:
		buf.WriteString("-- RPC endpoint template; exposed by PostgREST as POST /rpc/")
		buf.WriteString(name)
		buf.WriteString("\nCREATE OR REPLACE FUNCTION ")
		buf.WriteString(quoted(name))
		buf.WriteString(`(p_payload jsonb) RETURNS jsonb AS $$
BEGIN
    -- TODO: replace with the table-specific insert/update/delete logic
    RETURN p_payload;
END;
$$ LANGUAGE plpgsql;`)
	case schema.FunctionUtility:
		buf.WriteString("-- Pure helper usable in generated columns and indexes\n")
		buf.WriteString("CREATE OR REPLACE FUNCTION ")
		buf.WriteString(quoted(name))
		buf.WriteString(`(p_input text) RETURNS text AS $$
    SELECT trim(both '-' from regexp_replace(lower(coalesce(p_input, '')), '[^a-z0-9]+', '-', 'g'));
$$ LANGUAGE sql IMMUTABLE;`)
	default:
		buf.WriteString("CREATE OR REPLACE FUNCTION ")
		buf.WriteString(quoted(name))
		buf.WriteString(`() RETURNS void AS $$
BEGIN
    -- TODO: implement ` + name + `
    RETURN;
END;
$$ LANGUAGE plpgsql;`)
	}

	return schema.GeneratedArtifact{Fragments: []schema.Fragment{{Key: name, Text: buf.String()}}}
}
