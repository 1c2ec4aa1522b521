package lang

import "strings"

// Comment markers: a single # opens a line comment, ## toggles block-comment
// mode. The ## check runs first so it is never misread as a line comment.
const (
	lineCommentMarker  = '#'
	blockCommentMarker = "##"
	stringQuote        = '"'
	escapeChar         = '\\'
)

// StripComments removes comment text from a single line and reports whether
// block-comment mode is open after the line. The inBlock flag must be
// threaded across lines in file order; the scanner carries no other state
// between calls and never looks ahead past the current line.
//
// String contents are preserved in the output so that downstream key
// extraction on object literals still sees quoted keys.
func StripComments(line string, inBlock bool) (string, bool) {
	var out strings.Builder
	out.Grow(len(line))

	inString := false
	escaped := false

	for i := 0; i < len(line); i++ {
		ch := line[i]

		if inBlock {
			if ch == lineCommentMarker && i+1 < len(line) && line[i+1] == lineCommentMarker {
				inBlock = false
				i++
			}
			continue
		}

		if escaped {
			// The escape consumed this character: no toggling effect.
			escaped = false
			out.WriteByte(ch)
			continue
		}

		if ch == escapeChar {
			escaped = true
			out.WriteByte(ch)
			continue
		}

		if ch == stringQuote {
			inString = !inString
			out.WriteByte(ch)
			continue
		}

		if !inString && ch == lineCommentMarker {
			if i+1 < len(line) && line[i+1] == lineCommentMarker {
				inBlock = true
				i++
				continue
			}
			// Line comment: discard the rest of the line.
			break
		}

		out.WriteByte(ch)
	}

	return out.String(), inBlock
}
