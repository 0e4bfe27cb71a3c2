package cdm

import "fmt"

// ValidationResult contains the outcome of dependency graph validation.
// If Valid is false, Errors contains human-readable error messages.
type ValidationResult struct {
	Valid  bool
	Errors []string
}

// AddError appends an error message to the validation result and marks it as invalid.
func (v *ValidationResult) AddError(format string, args ...interface{}) {
	v.Valid = false
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

// HasErrors returns true if the validation result contains errors.
func (v *ValidationResult) HasErrors() bool {
	return len(v.Errors) > 0
}

// ErrorString returns all validation errors joined with semicolons.
// Returns empty string if no errors.
func (v *ValidationResult) ErrorString() string {
	if len(v.Errors) == 0 {
		return ""
	}
	result := v.Errors[0]
	for i := 1; i < len(v.Errors); i++ {
		result += "; " + v.Errors[i]
	}
	return result
}

// ValidateGraph checks the registry for duplicate names, references to
// undeclared tables, and cycles.
func ValidateGraph() ValidationResult {
	return validateTables(registry)
}

func validateTables(tables []Table) ValidationResult {
	result := ValidationResult{Valid: true}

	seen := make(map[string]bool, len(tables))
	for _, t := range tables {
		if t.Name == "" {
			result.AddError("table with empty name")
			continue
		}
		if seen[t.Name] {
			result.AddError("duplicate table %q", t.Name)
		}
		seen[t.Name] = true
	}

	for _, t := range tables {
		for _, dep := range t.DependsOn {
			if !seen[dep] {
				result.AddError("table %q depends on undeclared table %q", t.Name, dep)
			}
			if dep == t.Name {
				result.AddError("table %q depends on itself", t.Name)
			}
		}
	}

	if result.Valid {
		if _, err := orderTables(tables); err != nil {
			result.AddError("%v", err)
		}
	}

	return result
}

// LoadOrder computes the table order for the bulk load: a topological order
// over the prerequisite edges. Where the edges leave a choice, declaration
// order decides, so the result is stable across runs.
func LoadOrder() ([]Table, error) {
	if vr := ValidateGraph(); vr.HasErrors() {
		return nil, fmt.Errorf("invalid table registry: %s", vr.ErrorString())
	}
	return orderTables(registry)
}

// orderTables is Kahn's algorithm with the ready set drained in declaration
// order: among tables whose prerequisites are satisfied, the earliest
// declared loads first.
func orderTables(tables []Table) ([]Table, error) {
	remaining := make(map[string]int, len(tables))
	dependents := make(map[string][]int, len(tables))
	for i, t := range tables {
		remaining[t.Name] = len(t.DependsOn)
		for _, dep := range t.DependsOn {
			dependents[dep] = append(dependents[dep], i)
		}
	}

	done := make(map[string]bool, len(tables))
	order := make([]Table, 0, len(tables))

	for len(order) < len(tables) {
		// Pick the earliest-declared ready table.
		next := -1
		for i, t := range tables {
			if done[t.Name] || remaining[t.Name] != 0 {
				continue
			}
			next = i
			break
		}
		if next == -1 {
			var stuck []string
			for _, t := range tables {
				if !done[t.Name] {
					stuck = append(stuck, t.Name)
				}
			}
			return nil, fmt.Errorf("dependency cycle among tables: %v", stuck)
		}

		picked := tables[next]
		done[picked.Name] = true
		order = append(order, picked)
		for _, di := range dependents[picked.Name] {
			remaining[tables[di].Name]--
		}
	}

	return order, nil
}
