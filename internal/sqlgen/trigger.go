package sqlgen

import (
	"fmt"
	"strings"

	"github.com/webcodedsoft/pgrestify-sub004/internal/schema"
)

// GenerateTriggers renders the trigger artifact for a table: for every
// suggestion one trigger function fragment followed by the trigger itself.
// Function and trigger are separate fragments so each can be replaced by
// name independently.
func GenerateTriggers(table schema.TableSchema, suggestions []schema.TriggerSuggestion) schema.GeneratedArtifact {
	var fragments []schema.Fragment
	for _, s := range suggestions {
		fn := triggerFunctionName(s.Name)
		fragments = append(fragments,
			triggerFunctionFragment(table, s, fn),
			triggerFragment(table.Name, s, fn),
		)
	}
	return schema.GeneratedArtifact{Fragments: fragments}
}

func triggerFunctionFragment(table schema.TableSchema, s schema.TriggerSuggestion, fn string) schema.Fragment {
	var buf strings.Builder
	buf.WriteString("-- Generated trigger function for ")
	buf.WriteString(quoted(table.Name))
	buf.WriteString(": ")
	buf.WriteString(s.Description)
	buf.WriteString("\n-- Reason: ")
	buf.WriteString(s.Reason)
	buf.WriteString("\nCREATE OR REPLACE FUNCTION ")
	buf.WriteString(quoted(fn))
	buf.WriteString("() RETURNS trigger AS $$\n")
	buf.WriteString(triggerBody(table, s))
	buf.WriteString("\n$$ LANGUAGE plpgsql;")
	return schema.Fragment{Key: fn, Text: buf.String()}
}

func triggerFragment(table string, s schema.TriggerSuggestion, fn string) schema.Fragment {
	text := sqlf(`
		-- Generated trigger: %s
		CREATE OR REPLACE TRIGGER %s
		%s ON %s
		FOR EACH ROW EXECUTE FUNCTION %s();`,
		s.Description,
		quoted(s.Name),
		triggerTiming(s),
		quoted(table),
		quoted(fn),
	)
	return schema.Fragment{Key: s.Name, Text: text}
}

func triggerTiming(s schema.TriggerSuggestion) string {
	switch s.Type {
	case schema.TriggerTimestamp:
		if strings.HasSuffix(s.Name, "_timestamp_management") {
			return "BEFORE INSERT OR UPDATE"
		}
		return "BEFORE UPDATE"
	case schema.TriggerAudit, schema.TriggerSecurity:
		return "AFTER INSERT OR UPDATE OR DELETE"
	case schema.TriggerValidation:
		return "BEFORE INSERT OR UPDATE"
	case schema.TriggerSoftDelete:
		return "BEFORE DELETE"
	}
	return "BEFORE INSERT OR UPDATE"
}

func triggerBody(table schema.TableSchema, s schema.TriggerSuggestion) string {
	switch s.Type {
	case schema.TriggerTimestamp:
		if strings.HasSuffix(s.Name, "_timestamp_management") {
			return `BEGIN
    IF TG_OP = 'INSERT' THEN
        NEW.created_at := now();
        NEW.updated_at := now();
    ELSE
        NEW.created_at := OLD.created_at;
        NEW.updated_at := now();
    END IF;
    RETURN NEW;
END;`
		}
		return `BEGIN
    NEW.updated_at := now();
    RETURN NEW;
END;`
	case schema.TriggerAudit:
		return `DECLARE
    v_actor text := coalesce(current_setting('request.jwt.claims', true)::json->>'sub', 'anonymous');
BEGIN
    RAISE LOG 'audit %.%: % by %', TG_TABLE_SCHEMA, TG_TABLE_NAME, TG_OP, v_actor;
    IF TG_OP = 'DELETE' THEN
        RETURN OLD;
    END IF;
    RETURN NEW;
END;`
	case schema.TriggerValidation:
		return validationBody(table)
	case schema.TriggerSecurity:
		return `BEGIN
    RAISE LOG 'security: % on %.% by role % (subject %)', TG_OP, TG_TABLE_SCHEMA, TG_TABLE_NAME, current_user,
        coalesce(current_setting('request.jwt.claims', true)::json->>'sub', 'anonymous');
    IF TG_OP = 'DELETE' THEN
        RETURN OLD;
    END IF;
    RETURN NEW;
END;`
	case schema.TriggerSoftDelete:
		return fmt.Sprintf(`BEGIN
    IF OLD.deleted_at IS NULL THEN
        UPDATE %s SET deleted_at = now() WHERE id = OLD.id;
        RETURN NULL;
    END IF;
    RETURN OLD;
END;`, quoted(table.Name))
	}
	return `BEGIN
    RETURN NEW;
END;`
}

// validationBody emits a format or range check for every column the
// validation rule matched. Checks are skipped for columns the table does not
// have, so the body stays aligned with the introspected schema.
func validationBody(table schema.TableSchema) string {
	var checks []string
	for _, c := range table.Columns {
		lower := strings.ToLower(c.Name)
		col := quoted(c.Name)
		switch {
		case strings.Contains(lower, "email"):
			checks = append(checks, fmt.Sprintf(`    IF NEW.%s IS NOT NULL AND NEW.%s !~ '^[^@[:space:]]+@[^@[:space:]]+\.[^@[:space:]]+$' THEN
        RAISE EXCEPTION 'invalid email in %s: %%', NEW.%s;
    END IF;`, col, col, c.Name, col))
		case strings.Contains(lower, "phone"):
			checks = append(checks, fmt.Sprintf(`    IF NEW.%s IS NOT NULL AND NEW.%s !~ '^\+?[0-9 ().-]{7,}$' THEN
        RAISE EXCEPTION 'invalid phone number in %s: %%', NEW.%s;
    END IF;`, col, col, c.Name, col))
		case strings.Contains(lower, "amount"), strings.Contains(lower, "price"),
			strings.Contains(lower, "cost"), strings.Contains(lower, "balance"):
			checks = append(checks, fmt.Sprintf(`    IF NEW.%s < 0 THEN
        RAISE EXCEPTION '%s must not be negative, got %%', NEW.%s;
    END IF;`, col, c.Name, col))
		}
	}
	if len(checks) == 0 {
		checks = append(checks, "    -- Add column checks here")
	}
	return "BEGIN\n" + strings.Join(checks, "\n") + "\n    RETURN NEW;\nEND;"
}

// triggerFunctionName derives the function name from the trigger name,
// leaving room for the suffix inside the identifier limit.
func triggerFunctionName(trigger string) string {
	const suffix = "_fn"
	max := schema.MaxIdentifierLength - len(suffix)
	if len(trigger) > max {
		trigger = trigger[:max]
	}
	return trigger + suffix
}
