// Package params parses DDL template parameters.
//
// Parameters arrive from three sources, merged in ascending precedence:
// omopload.yaml params, --params-file .env files, and --param key=value
// flags. The merged map is substituted into the DDL templates while the
// schema is applied, so a single set of CDM definitions can target
// different schema names, tablespaces, or vocabulary versions.
//
// ParseKeyValuePairs handles the CLI form, ParseEnvFile the .env file
// form. Both are safe for concurrent use.
package params
