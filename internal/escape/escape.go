// Package escape rewrites host-style variable references ($NAME) found in
// configured values into the placeholder form consumed by compose rendering.
package escape

import "strings"

// Fragment is either literal text or a captured variable name.
type Fragment struct {
	Text string
	Var  bool
}

func isNameChar(c rune) bool {
	return (c >= '0' && c <= '9') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= 'a' && c <= 'z') ||
		c == '_'
}

// Split scans s once, left to right, and returns its literal and variable
// fragments in order. An unescaped '$' starts a capture that runs over
// [0-9A-Za-z_]; a backslash escapes the next character and is dropped when
// that character is '$'.
func Split(s string) []Fragment {
	var (
		out       []Fragment
		lit       strings.Builder
		name      strings.Builder
		capturing bool
		escaped   bool
	)
	flushLit := func() {
		if lit.Len() > 0 {
			out = append(out, Fragment{Text: lit.String()})
			lit.Reset()
		}
	}
	flushVar := func() {
		flushLit()
		out = append(out, Fragment{Text: name.String(), Var: true})
		name.Reset()
		capturing = false
	}

	for _, c := range s {
		if capturing {
			if isNameChar(c) {
				name.WriteRune(c)
				continue
			}
			flushVar()
		}
		if escaped {
			escaped = false
			if c != '$' {
				lit.WriteRune('\\')
			}
			lit.WriteRune(c)
			continue
		}
		switch c {
		case '\\':
			escaped = true
		case '$':
			capturing = true
		default:
			lit.WriteRune(c)
		}
	}

	if capturing {
		flushVar()
	}
	if escaped {
		lit.WriteRune('\\')
	}
	flushLit()
	return out
}

// String turns every $NAME reference in s into {NAME}. A '$' with no name
// characters after it becomes {}.
func String(s string) string {
	var b strings.Builder
	for _, f := range Split(s) {
		if f.Var {
			b.WriteString("{" + f.Text + "}")
			continue
		}
		b.WriteString(f.Text)
	}
	return b.String()
}

// Escape applies String to string values; anything else is returned as is.
func Escape(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	return String(s)
}

// Interpolate renders s for the compose file: variables become ${NAME} and
// literal dollars are doubled so the orchestrator leaves them alone. A '$'
// without a name is kept as a literal dollar.
func Interpolate(s string) string {
	var b strings.Builder
	for _, f := range Split(s) {
		switch {
		case f.Var && f.Text == "":
			b.WriteString("$$")
			continue
		case f.Var:
			b.WriteString("${" + f.Text + "}")
			continue
		}
		b.WriteString(strings.ReplaceAll(f.Text, "$", "$$"))
	}
	return b.String()
}
