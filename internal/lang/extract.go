package lang

import (
	"regexp"
	"strings"
)

// indentUnit is the column width of one indent level. Spaces count 1, tabs
// count 4, and the total is divided by the unit with ties rounding up.
const indentUnit = 4

// Recognition rules, in precedence order. Each line is matched against these
// top to bottom; class and fun declarations stop further processing, the
// assignment rules below them are mutually exclusive except that an
// object-literal start also records the variable and its first keys.
var (
	classRe       = regexp.MustCompile(`^\s*class\s+([A-Za-z_][A-Za-z0-9_]*)`)
	funRe         = regexp.MustCompile(`^\s*(?:async\s+)?fun\s+([A-Za-z_][A-Za-z0-9_]*)`)
	ctorAssignRe  = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_]*)\s*=\s*([A-Za-z_][A-Za-z0-9_]*)\s*\(`)
	objectStartRe = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_]*)\s*=\s*\{`)
	assignRe      = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_]*)\s*=`)
	bareKeyRe     = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_]*)\s*:`)
	quotedKeyRe   = regexp.MustCompile(`"([^"]*)"\s*:`)
	quotedSpanRe  = regexp.MustCompile(`"[^"]*"`)
)

type classScope struct {
	name   string
	indent int
}

// activeObject tracks an object-literal assignment whose keys may span
// multiple lines.
type activeObject struct {
	name   string
	indent int
}

// Extract builds the symbol table for one file. It is a best-effort
// heuristic: lines that match no rule contribute nothing, and there is no
// error signal for malformed input.
func Extract(text string) *SymbolTable {
	table := NewSymbolTable()

	var stack []classScope
	var object *activeObject
	inBlock := false

	for _, raw := range strings.Split(text, "\n") {
		line, next := StripComments(raw, inBlock)
		inBlock = next
		if strings.TrimSpace(line) == "" {
			continue
		}

		indent := indentLevel(line)

		// Dedent closes class scopes at or below the new depth.
		for len(stack) > 0 && stack[len(stack)-1].indent >= indent {
			stack = stack[:len(stack)-1]
		}

		// A qualifying dedent closes the active object unless the line is
		// itself a new object-literal start.
		if object != nil && indent <= object.indent && !objectStartRe.MatchString(line) {
			object = nil
		}

		if m := classRe.FindStringSubmatch(line); m != nil {
			table.Classes[m[1]] = true
			stack = append(stack, classScope{name: m[1], indent: indent})
			continue
		}

		if m := funRe.FindStringSubmatch(line); m != nil {
			if len(stack) > 0 {
				table.addMethod(stack[len(stack)-1].name, m[1])
			} else {
				table.Functions[m[1]] = true
			}
			continue
		}

		// A new literal start takes over from any still-active object, so it
		// is matched before key collection.
		if m := objectStartRe.FindStringSubmatch(line); m != nil {
			name := m[1]
			if indent == 0 {
				table.Variables[name] = true
			}
			object = &activeObject{name: name, indent: indent}
			collectKeys(table, name, line)
			if strings.Contains(line, "}") {
				object = nil
			}
			continue
		}

		if object != nil {
			collectKeys(table, object.name, line)
			if strings.Contains(line, "}") {
				object = nil
			}
			continue
		}

		if indent == 0 {
			if m := ctorAssignRe.FindStringSubmatch(line); m != nil {
				table.VariableTypes[m[1]] = m[2]
				continue
			}
			if m := assignRe.FindStringSubmatch(line); m != nil {
				table.Variables[m[1]] = true
			}
		}
	}

	return table
}

// collectKeys records every bare-identifier and quoted-string key followed
// by a colon on the line.
func collectKeys(table *SymbolTable, object, line string) {
	for _, m := range quotedKeyRe.FindAllStringSubmatch(line, -1) {
		if m[1] != "" {
			table.addProperty(object, m[1])
		}
	}
	// Blank out quoted spans so their contents are not matched as bare keys.
	masked := quotedSpanRe.ReplaceAllStringFunc(line, func(s string) string {
		return strings.Repeat(" ", len(s))
	})
	for _, m := range bareKeyRe.FindAllStringSubmatch(masked, -1) {
		table.addProperty(object, m[1])
	}
}

// indentLevel measures leading whitespace up to the first non-whitespace
// character and converts it to a discrete level.
func indentLevel(line string) int {
	width := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case ' ':
			width++
		case '\t':
			width += indentUnit
		default:
			return roundIndent(width)
		}
	}
	return roundIndent(width)
}

func roundIndent(width int) int {
	// Nearest level, ties round up.
	return (width + indentUnit/2) / indentUnit
}
