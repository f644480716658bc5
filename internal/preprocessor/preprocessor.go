// Package preprocessor implements the text-level macro pass (spec.md
// §4.K, component L): directive scanning, object/function-like macro
// expansion, and the built-in __DATE__/__TIME__/__FILE__/__LINE__/
// __VERSION__ macros. It runs before the (external) lexer/parser ever
// sees the source, exactly as the original C++ core's preprocessor
// stage does.
package preprocessor

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"
)

// maxExpansionDepth caps recursive macro expansion, per spec.md §4.K
// ("reject runaway recursive expansion past a depth of 100").
const maxExpansionDepth = 100

// Macro is one #define's definition: object-like if Params is nil,
// function-like otherwise.
type Macro struct {
	Name   string
	Params []string
	Body   string
}

// Preprocessor owns the macro table and conditional-compilation stack.
type Preprocessor struct {
	macros map[string]*Macro
	file   string

	// condStack tracks, for each nested #if/#ifdef block, whether its
	// branch is currently active and whether any branch in the chain has
	// already fired (for #elif/#else).
	condStack []condFrame
}

type condFrame struct {
	active    bool
	satisfied bool
}

// New builds a Preprocessor seeded with the built-in macros spec.md §4.K
// names: __FILE__, __LINE__ are expanded per-occurrence (they are not
// fixed at construction time); __DATE__/__TIME__/__VERSION__ are stamped
// once from now, matching the original's "fixed per translation unit"
// behavior.
func New(file, version string, now time.Time) *Preprocessor {
	p := &Preprocessor{macros: make(map[string]*Macro), file: file}
	date := strftime.Format("%b %d %Y", now)
	timeOfDay := strftime.Format("%H:%M:%S", now)
	p.macros["__DATE__"] = &Macro{Name: "__DATE__", Body: `"` + date + `"`}
	p.macros["__TIME__"] = &Macro{Name: "__TIME__", Body: `"` + timeOfDay + `"`}
	p.macros["__VERSION__"] = &Macro{Name: "__VERSION__", Body: `"` + version + `"`}
	return p
}

// NewAt is the test-friendly constructor: pass a preformatted date/time
// pair directly rather than routing through strftime, so tests don't
// depend on wall-clock time.
func NewAt(file, version, date, timeOfDay string) *Preprocessor {
	p := &Preprocessor{macros: make(map[string]*Macro), file: file}
	p.macros["__DATE__"] = &Macro{Name: "__DATE__", Body: `"` + date + `"`}
	p.macros["__TIME__"] = &Macro{Name: "__TIME__", Body: `"` + timeOfDay + `"`}
	p.macros["__VERSION__"] = &Macro{Name: "__VERSION__", Body: `"` + version + `"`}
	return p
}

// Define registers an object-like or function-like macro. Redefinition
// with a different body is rejected, per spec.md §4.K.
func (p *Preprocessor) Define(name string, params []string, body string) error {
	if existing, ok := p.macros[name]; ok && existing.Body != body {
		return fmt.Errorf("%q redefined with a different expansion", name)
	}
	p.macros[name] = &Macro{Name: name, Params: params, Body: body}
	return nil
}

// Undef removes a macro definition; undefining a name that was never
// defined is a no-op (spec.md §4.K).
func (p *Preprocessor) Undef(name string) { delete(p.macros, name) }

// IsDefined reports whether name has a current #define, for #ifdef/
// #ifndef evaluation.
func (p *Preprocessor) IsDefined(name string) bool {
	_, ok := p.macros[name]
	return ok
}

// Process runs the directive scanner and macro expander over src,
// line by line, and returns the expanded text. `#`/`##` operators are
// explicitly unsupported (SPEC_FULL.md §5 decision): encountering one
// inside a macro body is reported as an error rather than given new
// semantics.
func (p *Preprocessor) Process(src string) (string, error) {
	lines := strings.Split(src, "\n")
	var out []string
	for lineNo, raw := range lines {
		line := raw
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			handled, err := p.handleDirective(trimmed, lineNo+1)
			if err != nil {
				return "", err
			}
			if handled {
				continue
			}
		}
		if !p.activeBranch() {
			continue
		}
		expanded, err := p.expandLine(line, lineNo+1)
		if err != nil {
			return "", err
		}
		out = append(out, expanded)
	}
	return strings.Join(out, "\n"), nil
}

func (p *Preprocessor) activeBranch() bool {
	for _, f := range p.condStack {
		if !f.active {
			return false
		}
	}
	return true
}

func (p *Preprocessor) handleDirective(line string, lineNo int) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true, nil
	}
	directive := strings.TrimPrefix(fields[0], "#")
	rest := strings.TrimSpace(strings.TrimPrefix(line, fields[0]))

	switch directive {
	case "define":
		return true, p.handleDefine(rest)
	case "undef":
		p.Undef(rest)
		return true, nil
	case "ifdef":
		p.condStack = append(p.condStack, condFrame{active: p.IsDefined(rest) && p.activeBranch(), satisfied: p.IsDefined(rest)})
		return true, nil
	case "ifndef":
		cond := !p.IsDefined(rest)
		p.condStack = append(p.condStack, condFrame{active: cond && p.activeBranch(), satisfied: cond})
		return true, nil
	case "if":
		cond := p.evalCondition(rest)
		p.condStack = append(p.condStack, condFrame{active: cond && p.activeBranch(), satisfied: cond})
		return true, nil
	case "elif":
		if len(p.condStack) == 0 {
			return true, fmt.Errorf("line %d: #elif without matching #if", lineNo)
		}
		top := &p.condStack[len(p.condStack)-1]
		cond := !top.satisfied && p.evalCondition(rest)
		top.active = cond
		if cond {
			top.satisfied = true
		}
		return true, nil
	case "else":
		if len(p.condStack) == 0 {
			return true, fmt.Errorf("line %d: #else without matching #if", lineNo)
		}
		top := &p.condStack[len(p.condStack)-1]
		top.active = !top.satisfied
		top.satisfied = true
		return true, nil
	case "endif":
		if len(p.condStack) == 0 {
			return true, fmt.Errorf("line %d: #endif without matching #if", lineNo)
		}
		p.condStack = p.condStack[:len(p.condStack)-1]
		return true, nil
	case "error":
		if p.activeBranch() {
			return true, fmt.Errorf("line %d: #error %s", lineNo, rest)
		}
		return true, nil
	case "warning":
		return true, nil
	default:
		return false, nil
	}
}

func (p *Preprocessor) handleDefine(rest string) error {
	name := rest
	var params []string
	body := ""
	if idx := strings.IndexAny(rest, " \t("); idx >= 0 {
		name = rest[:idx]
		remainder := strings.TrimSpace(rest[idx:])
		if strings.HasPrefix(remainder, "(") {
			close := strings.Index(remainder, ")")
			if close < 0 {
				return fmt.Errorf("unterminated parameter list in #define %s", name)
			}
			paramList := remainder[1:close]
			if strings.TrimSpace(paramList) != "" {
				for _, par := range strings.Split(paramList, ",") {
					params = append(params, strings.TrimSpace(par))
				}
			}
			body = strings.TrimSpace(remainder[close+1:])
		} else {
			body = remainder
		}
	}
	if strings.Contains(body, "#") {
		return fmt.Errorf("macro %q uses unsupported '#'/'##' operator", name)
	}
	return p.Define(name, params, body)
}

// evalCondition handles the small subset of #if expressions this core
// needs: `defined(NAME)` / `defined NAME`, integer literals (true if
// non-zero), and bare macro names (true if the body is a non-zero
// integer, or a non-empty non-integer). Comparison and logical operators
// are not evaluated; any other expression is false.
func (p *Preprocessor) evalCondition(expr string) bool {
	expr = strings.TrimSpace(expr)
	if strings.HasPrefix(expr, "defined(") && strings.HasSuffix(expr, ")") {
		name := strings.TrimSpace(expr[len("defined(") : len(expr)-1])
		return p.IsDefined(name)
	}
	if strings.HasPrefix(expr, "defined ") {
		return p.IsDefined(strings.TrimSpace(expr[len("defined "):]))
	}
	if n, err := strconv.ParseInt(expr, 10, 64); err == nil {
		return n != 0
	}
	if m, ok := p.macros[expr]; ok {
		if n, err := strconv.ParseInt(strings.TrimSpace(m.Body), 10, 64); err == nil {
			return n != 0
		}
		return m.Body != ""
	}
	return false
}

// expandLine performs macro substitution across a single line, honoring
// string-literal boundaries (macros are never expanded inside a quoted
// string, per spec.md §4.K "string-literal-safe rewriting") and the
// recursion depth cap.
func (p *Preprocessor) expandLine(line string, lineNo int) (string, error) {
	return p.expand(line, lineNo, 0)
}

func (p *Preprocessor) expand(line string, lineNo, depth int) (string, error) {
	if depth > maxExpansionDepth {
		return "", fmt.Errorf("line %d: macro expansion exceeded depth %d", lineNo, maxExpansionDepth)
	}
	var out strings.Builder
	i := 0
	changed := false
	for i < len(line) {
		c := line[i]
		if c == '"' {
			end := closingQuote(line, i+1)
			out.WriteString(line[i : end+1])
			i = end + 1
			continue
		}
		if isIdentStart(c) {
			j := i + 1
			for j < len(line) && isIdentPart(line[j]) {
				j++
			}
			name := line[i:j]
			switch name {
			case "__LINE__":
				out.WriteString(strconv.Itoa(lineNo))
				changed = true
				i = j
				continue
			case "__FILE__":
				out.WriteString(`"` + p.file + `"`)
				changed = true
				i = j
				continue
			}
			if m, ok := p.macros[name]; ok {
				if m.Params == nil {
					out.WriteString(m.Body)
					changed = true
					i = j
					continue
				}
				if j < len(line) && line[j] == '(' {
					close, args := scanArgs(line, j)
					if close < 0 {
						return "", fmt.Errorf("line %d: unterminated invocation of macro %q", lineNo, name)
					}
					out.WriteString(substituteParams(m, args))
					changed = true
					i = close + 1
					continue
				}
			}
			out.WriteString(name)
			i = j
			continue
		}
		out.WriteByte(c)
		i++
	}
	result := out.String()
	if changed {
		return p.expand(result, lineNo, depth+1)
	}
	return result, nil
}

func closingQuote(s string, from int) int {
	for i := from; i < len(s); i++ {
		if s[i] == '\\' {
			i++
			continue
		}
		if s[i] == '"' {
			return i
		}
	}
	return len(s) - 1
}

func scanArgs(s string, openParen int) (closeParen int, args []string) {
	depth := 0
	start := openParen + 1
	for i := openParen; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				args = append(args, strings.TrimSpace(s[start:i]))
				return i, args
			}
		case ',':
			if depth == 1 {
				args = append(args, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return -1, nil
}

func substituteParams(m *Macro, args []string) string {
	body := m.Body
	for i, param := range m.Params {
		val := ""
		if i < len(args) {
			val = args[i]
		}
		body = replaceIdent(body, param, val)
	}
	return body
}

// replaceIdent substitutes whole-identifier occurrences of name in s,
// leaving identifiers that merely contain name as a substring untouched.
func replaceIdent(s, name, val string) string {
	var out strings.Builder
	i := 0
	for i < len(s) {
		if isIdentStart(s[i]) {
			j := i + 1
			for j < len(s) && isIdentPart(s[j]) {
				j++
			}
			if s[i:j] == name {
				out.WriteString(val)
			} else {
				out.WriteString(s[i:j])
			}
			i = j
			continue
		}
		out.WriteByte(s[i])
		i++
	}
	return out.String()
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
