package cdm

// Table describes one CDM table: its name, its staging file flavor, and the
// tables that must be loaded before it.
type Table struct {
	// Name is the lower-case SQL table name
	Name string

	// DependsOn lists prerequisite table names. Edges express load-order
	// tiers, not the full foreign-key closure: referential integrity is
	// suspended per file during loading, so a table only depends on the
	// tiers whose absence would make its rows meaningless.
	DependsOn []string

	// Vocabulary marks tables staged under the vocab/ directory as
	// tab-delimited, headerless files named in upper case. Everything else
	// is staged per dataset as comma-delimited files with a header row.
	Vocabulary bool
}

// registry declares every CDM table in a valid load order: prerequisites
// always precede dependents. The computed order in graph.go follows this
// declaration order wherever the edges leave a choice.
var registry = []Table{
	// Vocabulary reference tables
	{Name: "vocabulary", Vocabulary: true},
	{Name: "domain", Vocabulary: true},
	{Name: "concept_class", Vocabulary: true},
	{Name: "relationship", Vocabulary: true},

	// Concept and the tables keyed by it
	{Name: "concept", DependsOn: []string{"vocabulary", "domain", "concept_class"}, Vocabulary: true},
	{Name: "concept_relationship", DependsOn: []string{"concept", "relationship"}, Vocabulary: true},
	{Name: "concept_synonym", DependsOn: []string{"concept"}, Vocabulary: true},
	{Name: "concept_ancestor", DependsOn: []string{"concept"}, Vocabulary: true},
	{Name: "source_to_concept_map", DependsOn: []string{"concept", "vocabulary"}, Vocabulary: true},
	{Name: "drug_strength", DependsOn: []string{"concept"}, Vocabulary: true},

	// Patient root
	{Name: "person", DependsOn: []string{"concept"}},

	// Clinical events
	{Name: "observation_period", DependsOn: []string{"person"}},
	{Name: "visit_occurrence", DependsOn: []string{"person", "concept"}},
	{Name: "visit_detail", DependsOn: []string{"person", "concept", "visit_occurrence"}},
	{Name: "condition_occurrence", DependsOn: []string{"person", "concept"}},
	{Name: "drug_exposure", DependsOn: []string{"person", "concept"}},
	{Name: "procedure_occurrence", DependsOn: []string{"person", "concept"}},
	{Name: "device_exposure", DependsOn: []string{"person", "concept"}},
	{Name: "measurement", DependsOn: []string{"person", "concept"}},
	{Name: "observation", DependsOn: []string{"person", "concept"}},
	{Name: "death", DependsOn: []string{"person"}},
	{Name: "note", DependsOn: []string{"person"}},
	{Name: "note_nlp", DependsOn: []string{"note"}},
	{Name: "specimen", DependsOn: []string{"person", "concept"}},
	{Name: "fact_relationship", DependsOn: []string{"concept"}},

	// Health system
	{Name: "location"},
	{Name: "care_site", DependsOn: []string{"location"}},
	{Name: "provider", DependsOn: []string{"care_site"}},

	// Health economics
	{Name: "payer_plan_period", DependsOn: []string{"person"}},
	{Name: "cost", DependsOn: []string{"person"}},

	// Derived eras
	{Name: "drug_era", DependsOn: []string{"person", "concept"}},
	{Name: "dose_era", DependsOn: []string{"person", "concept"}},
	{Name: "condition_era", DependsOn: []string{"person", "concept"}},

	// Cohorts
	{Name: "cohort_definition", DependsOn: []string{"concept"}},
	{Name: "attribute_definition", DependsOn: []string{"concept"}},
	{Name: "cohort", DependsOn: []string{"cohort_definition"}},
	{Name: "cohort_attribute", DependsOn: []string{"cohort_definition", "attribute_definition"}},

	// Source bookkeeping
	{Name: "metadata", DependsOn: []string{"concept"}},
	{Name: "cdm_source"},
}

// Tables returns the full registry in declaration order.
// The returned slice is a copy; callers may not mutate the registry.
func Tables() []Table {
	out := make([]Table, len(registry))
	copy(out, registry)
	return out
}

// TableNames returns every table name in declaration order.
func TableNames() []string {
	names := make([]string, len(registry))
	for i, t := range registry {
		names[i] = t.Name
	}
	return names
}

// Lookup returns the registry entry for a table name.
func Lookup(name string) (Table, bool) {
	for _, t := range registry {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// ExpectedTableCount is what the post-load existence check asserts.
func ExpectedTableCount() int {
	return len(registry)
}

// KeyTables are the representative tables whose row counts are verified
// after loading. An empty key table is a warning; the run verdict only
// requires concept and person to be nonzero.
func KeyTables() []string {
	return []string{"concept", "person", "observation_period", "condition_occurrence", "drug_exposure"}
}

// PrimaryKeyCheckTables are the representative tables whose primary-key
// constraints are spot-checked after loading.
func PrimaryKeyCheckTables() []string {
	return []string{"person", "concept", "observation_period"}
}
