// Package main provides the pgrestify CLI for generating PostgREST database
// artifacts.
//
// The CLI supports:
//   - generate: Produce RLS policies, functions, and roles for a table or schema
//   - features: Trigger and index generation, suggestion, and analysis
//   - validate: Check the generated SQL tree for duplicate or unparseable objects
//   - doctor: Run health checks on the project and database
//   - init: Scaffold a new pgrestify project
//
// Commands that introspect a live schema need DATABASE_URL or a database
// section in pgrestify.yaml; without one they fall back to template mode and
// emit commented placeholders to fill in by hand.
//
// Usage:
//
//	pgrestify [flags] <command>
package main

func main() {
	Execute()
}
