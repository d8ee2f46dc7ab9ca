package sqlgen

import "github.com/webcodedsoft/pgrestify-sub004/internal/schema"

// GenerateRoles renders the sql/roles.sql starter: the PostgREST connection
// role plus the three application roles the generated policies reference.
// Role names are the identity keys, so rerunning never duplicates a role.
func GenerateRoles() schema.GeneratedArtifact {
	return schema.GeneratedArtifact{Fragments: []schema.Fragment{
		{
			Key: "authenticator",
			Text: sqlf(`
				-- Connection role PostgREST logs in as, then switches to a request role
				-- Set a real password before applying this file
				CREATE ROLE authenticator NOINHERIT LOGIN PASSWORD 'change_me';`),
		},
		{
			Key: RoleAnon,
			Text: sqlf(`
				-- Request role for unauthenticated requests
				CREATE ROLE %s NOLOGIN;
				GRANT USAGE ON SCHEMA public TO %s;
				GRANT %s TO authenticator;`,
				RoleAnon, RoleAnon, RoleAnon),
		},
		{
			Key: RoleUser,
			Text: sqlf(`
				-- Request role for authenticated requests
				CREATE ROLE %s NOLOGIN;
				GRANT USAGE ON SCHEMA public TO %s;
				GRANT SELECT, INSERT, UPDATE, DELETE ON ALL TABLES IN SCHEMA public TO %s;
				GRANT %s TO authenticator;`,
				RoleUser, RoleUser, RoleUser, RoleUser),
		},
		{
			Key: RoleAdmin,
			Text: sqlf(`
				-- Request role for administrative requests
				CREATE ROLE %s NOLOGIN;
				GRANT USAGE ON SCHEMA public TO %s;
				GRANT ALL ON ALL TABLES IN SCHEMA public TO %s;
				GRANT %s TO authenticator;`,
				RoleAdmin, RoleAdmin, RoleAdmin, RoleAdmin),
		},
	}}
}
