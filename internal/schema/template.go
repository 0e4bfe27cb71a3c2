package schema

import (
	"fmt"
	"sort"
	"strings"
)

// SchemaPlaceholder is the token substituted with the target namespace in
// every DDL asset.
const SchemaPlaceholder = "@cdmDatabaseSchema"

// Placeholder is one @token occurrence in a DDL template.
type Placeholder struct {
	Name   string // token without the leading '@'
	Line   int    // 1-based
	Column int    // 1-based, position of the '@'
}

// FindPlaceholders scans template text for @token occurrences. Tokens start
// with a letter or underscore and continue with letters, digits, and
// underscores; a lone '@' is not a placeholder.
func FindPlaceholders(content string) []Placeholder {
	var found []Placeholder
	line, column := 1, 1
	for i := 0; i < len(content); i++ {
		ch := content[i]
		if ch == '\n' {
			line++
			column = 1
			continue
		}
		if ch == '@' && i+1 < len(content) && isTokenStart(content[i+1]) {
			end := i + 1
			for end < len(content) && isTokenContinue(content[end]) {
				end++
			}
			found = append(found, Placeholder{
				Name:   content[i+1 : end],
				Line:   line,
				Column: column,
			})
			column += end - i
			i = end - 1
			continue
		}
		column++
	}
	return found
}

func isTokenStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isTokenContinue(ch byte) bool {
	return isTokenStart(ch) || (ch >= '0' && ch <= '9')
}

// Render substitutes the schema placeholder and any extra parameters into a
// DDL template. It is a pure function of its inputs: no filesystem, no
// database. Any placeholder left unbound after substitution is an error,
// reported with its line and column so the asset can be fixed.
func Render(name, content, schemaName string, parameters map[string]string) (string, error) {
	bindings := map[string]string{
		strings.TrimPrefix(SchemaPlaceholder, "@"): schemaName,
	}
	for key, value := range parameters {
		bindings[strings.TrimPrefix(key, "@")] = value
	}

	// Longest token first so a binding never clobbers a longer token it
	// prefixes.
	tokens := make([]string, 0, len(bindings))
	for token := range bindings {
		tokens = append(tokens, token)
	}
	sort.Slice(tokens, func(i, j int) bool { return len(tokens[i]) > len(tokens[j]) })

	rendered := content
	for _, token := range tokens {
		rendered = replaceToken(rendered, token, bindings[token])
	}

	if unbound := FindPlaceholders(rendered); len(unbound) > 0 {
		var parts []string
		for _, p := range unbound {
			parts = append(parts, fmt.Sprintf("@%s at %s:%d:%d", p.Name, name, p.Line, p.Column))
		}
		return "", fmt.Errorf("unbound placeholders: %s", strings.Join(parts, ", "))
	}
	return rendered, nil
}

// replaceToken substitutes @token occurrences where the token ends at a
// non-token character. Plain strings.ReplaceAll would corrupt a longer
// token sharing the same prefix.
func replaceToken(content, token, value string) string {
	var b strings.Builder
	b.Grow(len(content))
	needle := "@" + token
	for {
		i := strings.Index(content, needle)
		if i == -1 {
			b.WriteString(content)
			return b.String()
		}
		end := i + len(needle)
		if end < len(content) && isTokenContinue(content[end]) {
			// Prefix of a longer token, leave it for its own binding.
			b.WriteString(content[:end])
			content = content[end:]
			continue
		}
		b.WriteString(content[:i])
		b.WriteString(value)
		content = content[end:]
	}
}
