// SPDX-License-Identifier: MPL-2.0

package builtin

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrUnsupportedScript is returned for sed scripts using commands other than s.
	ErrUnsupportedScript = errors.New("unsupported sed script")
	// ErrBackReference is returned for patterns using \1..\9, which RE2 cannot match.
	ErrBackReference = errors.New("back-references in patterns are not supported")
)

type (
	// sedCommand is a stream editor restricted to the substitute command.
	// Patterns are POSIX basic regular expressions (extended with -E/-r) and
	// are translated to Go's RE2 syntax before compiling.
	sedCommand struct {
		name  string
		flags []FlagInfo
	}

	substitution struct {
		re     *regexp.Regexp
		repl   []replPart
		global bool
		// nth is the 1-based occurrence to start replacing at.
		nth int
	}

	// replPart is either a literal (group < 0) or a submatch reference.
	replPart struct {
		literal string
		group   int
	}

	sedOptions struct {
		inPlace  bool
		suffix   string
		extended bool
		scripts  []string
		files    []string
	}
)

func newSedCommand() *sedCommand {
	return &sedCommand{
		name: "sed",
		flags: []FlagInfo{
			{Name: "i", Description: "edit files in place (optional backup SUFFIX attached: -i.bak)"},
			{Name: "e", Description: "add the script to the commands to be executed", TakesValue: true},
			{Name: "E", Description: "use extended regular expressions"},
			{Name: "r", Description: "use extended regular expressions"},
		},
	}
}

// Name returns the command name.
func (c *sedCommand) Name() string { return c.name }

// SupportedFlags returns the flags supported by this command.
func (c *sedCommand) SupportedFlags() []FlagInfo { return c.flags }

// Run executes the sed command.
// Usage: sed [-E] [-i[SUFFIX]] [-e SCRIPT]... [SCRIPT] [FILE]...
func (c *sedCommand) Run(ctx context.Context, args []string) error {
	hc := GetHandlerContext(ctx)

	opts, err := parseSedArgs(args[1:])
	if err != nil {
		return wrapError(c.name, err)
	}

	subs, err := parseSedScript(strings.Join(opts.scripts, "\n"), opts.extended)
	if err != nil {
		return wrapError(c.name, err)
	}

	if len(opts.files) == 0 {
		if opts.inPlace {
			return wrapError(c.name, errors.New("no input files"))
		}
		if hc.Stdin == nil {
			return wrapError(c.name, errors.New("no input"))
		}
		return wrapError(c.name, sedStream(hc.Stdin, hc.Stdout, subs))
	}

	for _, name := range opts.files {
		path := hc.resolve(name)
		data, err := os.ReadFile(path)
		if err != nil {
			return wrapError(c.name, err)
		}
		out := applySubstitutions(string(data), subs)

		if !opts.inPlace {
			if _, err := io.WriteString(hc.Stdout, out); err != nil {
				return wrapError(c.name, err)
			}
			continue
		}

		info, err := os.Stat(path)
		if err != nil {
			return wrapError(c.name, err)
		}
		if opts.suffix != "" {
			if err := os.WriteFile(path+opts.suffix, data, info.Mode().Perm()); err != nil {
				return wrapError(c.name, err)
			}
		}
		if err := os.WriteFile(path, []byte(out), info.Mode().Perm()); err != nil {
			return wrapError(c.name, err)
		}
	}
	return nil
}

func parseSedArgs(args []string) (*sedOptions, error) {
	opts := &sedOptions{}
	var operands []string

loop:
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			operands = append(operands, args[i+1:]...)
			break loop
		case arg == "-e" || arg == "--expression":
			if i+1 >= len(args) {
				return nil, errors.New("option requires an argument -- 'e'")
			}
			opts.scripts = append(opts.scripts, args[i+1])
			i++
		case strings.HasPrefix(arg, "-e"):
			opts.scripts = append(opts.scripts, arg[2:])
		case arg == "--in-place":
			opts.inPlace = true
		case strings.HasPrefix(arg, "-i"):
			opts.inPlace = true
			opts.suffix = arg[2:]
		case arg == "-E" || arg == "-r" || arg == "--regexp-extended":
			opts.extended = true
		case len(arg) > 1 && arg[0] == '-':
			return nil, fmt.Errorf("unsupported flag %s", arg)
		default:
			operands = append(operands, arg)
		}
	}

	if len(opts.scripts) == 0 {
		if len(operands) == 0 {
			return nil, errors.New("no script specified")
		}
		opts.scripts = []string{operands[0]}
		operands = operands[1:]
	}
	opts.files = operands
	return opts, nil
}

func sedStream(r io.Reader, w io.Writer, subs []*substitution) error {
	data, err := io.ReadAll(bufio.NewReader(r))
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, applySubstitutions(string(data), subs))
	return err
}

// applySubstitutions runs every substitution over each line of text.
func applySubstitutions(text string, subs []*substitution) string {
	if text == "" {
		return text
	}
	trailing := strings.HasSuffix(text, "\n")
	if trailing {
		text = text[:len(text)-1]
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		for _, s := range subs {
			line = s.apply(line)
		}
		lines[i] = line
	}
	out := strings.Join(lines, "\n")
	if trailing {
		out += "\n"
	}
	return out
}

func (s *substitution) apply(line string) string {
	matches := s.re.FindAllStringSubmatchIndex(line, -1)
	if len(matches) == 0 {
		return line
	}

	var b strings.Builder
	last := 0
	for n, m := range matches {
		occurrence := n + 1
		if occurrence < s.nth {
			continue
		}
		b.WriteString(line[last:m[0]])
		for _, p := range s.repl {
			if p.group < 0 {
				b.WriteString(p.literal)
				continue
			}
			if start, end := m[2*p.group], m[2*p.group+1]; start >= 0 {
				b.WriteString(line[start:end])
			}
		}
		last = m[1]
		if !s.global {
			break
		}
	}
	b.WriteString(line[last:])
	return b.String()
}

// parseSedScript parses one or more s commands separated by ';' or newlines.
func parseSedScript(script string, extended bool) ([]*substitution, error) {
	var subs []*substitution
	i := 0
	for i < len(script) {
		switch script[i] {
		case ' ', '\t', '\n', ';':
			i++
			continue
		case 's':
		default:
			return nil, fmt.Errorf("%w: unknown command %q", ErrUnsupportedScript, script[i])
		}

		if i+1 >= len(script) || script[i+1] == '\\' || script[i+1] == '\n' {
			return nil, fmt.Errorf("%w: unterminated `s' command", ErrUnsupportedScript)
		}
		delim := script[i+1]
		i += 2

		pattern, next, err := readSedPart(script, i, delim, true)
		if err != nil {
			return nil, err
		}
		replacement, next, err := readSedPart(script, next, delim, false)
		if err != nil {
			return nil, err
		}

		sub := &substitution{nth: 1}
		caseInsensitive := false
		i = next
	flags:
		for i < len(script) {
			c := script[i]
			switch {
			case c == 'g':
				sub.global = true
			case c == 'i' || c == 'I':
				caseInsensitive = true
			case c >= '0' && c <= '9':
				j := i
				for j < len(script) && script[j] >= '0' && script[j] <= '9' {
					j++
				}
				n, err := strconv.Atoi(script[i:j])
				if err != nil || n == 0 {
					return nil, fmt.Errorf("%w: number option to `s' command may not be zero", ErrUnsupportedScript)
				}
				sub.nth = n
				i = j
				continue
			case c == ';' || c == '\n' || c == ' ' || c == '\t':
				break flags
			default:
				return nil, fmt.Errorf("%w: unknown option to `s' %q", ErrUnsupportedScript, c)
			}
			i++
		}

		expr, err := translateRegexp(pattern, extended)
		if err != nil {
			return nil, err
		}
		if caseInsensitive {
			expr = "(?i)" + expr
		}
		sub.re, err = regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		// POSIX matching picks the longest alternative at the leftmost position.
		sub.re.Longest()
		sub.repl = parseReplacement(replacement)
		for _, p := range sub.repl {
			if p.group > sub.re.NumSubexp() {
				return nil, fmt.Errorf("invalid reference \\%d on `s' command's RHS", p.group)
			}
		}
		subs = append(subs, sub)
	}

	if len(subs) == 0 {
		return nil, fmt.Errorf("%w: empty script", ErrUnsupportedScript)
	}
	return subs, nil
}

// readSedPart reads up to the next unescaped delim. An escaped delimiter
// becomes the bare character, except in patterns where the character is a
// regexp metacharacter and must stay quoted.
func readSedPart(script string, i int, delim byte, pattern bool) (string, int, error) {
	var b strings.Builder
	for i < len(script) {
		c := script[i]
		switch {
		case c == delim:
			return b.String(), i + 1, nil
		case c == '\\' && i+1 < len(script):
			n := script[i+1]
			if n == delim && !(pattern && strings.IndexByte(`.[]*^$\`, n) >= 0) {
				b.WriteByte(n)
			} else {
				b.WriteByte(c)
				b.WriteByte(n)
			}
			i += 2
			continue
		case c == '\n':
			return "", 0, fmt.Errorf("%w: unterminated `s' command", ErrUnsupportedScript)
		}
		b.WriteByte(c)
		i++
	}
	return "", 0, fmt.Errorf("%w: unterminated `s' command", ErrUnsupportedScript)
}

// parseReplacement splits a replacement into literals and submatch
// references: \N is group N, & is the whole match, \& a literal ampersand.
func parseReplacement(r string) []replPart {
	var parts []replPart
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			parts = append(parts, replPart{literal: lit.String(), group: -1})
			lit.Reset()
		}
	}

	for i := 0; i < len(r); i++ {
		c := r[i]
		switch {
		case c == '\\' && i+1 < len(r):
			i++
			n := r[i]
			switch {
			case n >= '0' && n <= '9':
				flush()
				parts = append(parts, replPart{group: int(n - '0')})
			case n == 'n':
				lit.WriteByte('\n')
			case n == 't':
				lit.WriteByte('\t')
			default:
				lit.WriteByte(n)
			}
		case c == '&':
			flush()
			parts = append(parts, replPart{group: 0})
		default:
			lit.WriteByte(c)
		}
	}
	flush()
	return parts
}

// translateRegexp converts a POSIX BRE (or ERE when extended is set) into RE2 syntax.
func translateRegexp(p string, extended bool) (string, error) {
	var b strings.Builder
	// atomStart is true where a '*' is literal and '^' is an anchor.
	atomStart := true

	for i := 0; i < len(p); i++ {
		c := p[i]
		switch {
		case c == '[':
			j, err := copyBracket(&b, p, i)
			if err != nil {
				return "", err
			}
			i = j
			atomStart = false
			continue

		case c == '\\':
			if i+1 >= len(p) {
				return "", errors.New("trailing backslash")
			}
			i++
			n := p[i]
			switch {
			case n >= '1' && n <= '9':
				return "", ErrBackReference
			case n == '<' || n == '>':
				b.WriteString(`\b`)
			case n == 'n':
				b.WriteString(`\n`)
			case n == 't':
				b.WriteString(`\t`)
			case strings.IndexByte("wWsSbB", n) >= 0:
				b.WriteByte('\\')
				b.WriteByte(n)
			case !extended && strings.IndexByte("(|", n) >= 0:
				b.WriteByte(n)
				atomStart = true
				continue
			case !extended && strings.IndexByte(")}{+?", n) >= 0:
				b.WriteByte(n)
			default:
				b.WriteString(regexp.QuoteMeta(string(n)))
			}
			atomStart = false
			continue

		case extended:
			b.WriteByte(c)
			atomStart = c == '(' || c == '|' || (c == '^' && atomStart)
			continue

		case strings.IndexByte("()|{}+?", c) >= 0:
			b.WriteByte('\\')
			b.WriteByte(c)

		case c == '*' && atomStart:
			b.WriteString(`\*`)

		case c == '^':
			if atomStart {
				b.WriteByte('^')
				continue
			}
			b.WriteString(`\^`)

		case c == '$':
			rest := p[i+1:]
			if rest == "" || strings.HasPrefix(rest, `\)`) || strings.HasPrefix(rest, `\|`) {
				b.WriteByte('$')
			} else {
				b.WriteString(`\$`)
			}

		default:
			b.WriteByte(c)
		}
		atomStart = false
	}
	return b.String(), nil
}

// copyBracket writes the bracket expression starting at p[i] and returns the
// index of its closing ']'. Backslashes are literal inside POSIX brackets.
func copyBracket(b *strings.Builder, p string, i int) (int, error) {
	b.WriteByte('[')
	j := i + 1
	if j < len(p) && p[j] == '^' {
		b.WriteByte('^')
		j++
	}
	if j < len(p) && p[j] == ']' {
		b.WriteString(`\]`)
		j++
	}
	for j < len(p) {
		c := p[j]
		switch {
		case c == '[' && j+1 < len(p) && p[j+1] == ':':
			end := strings.Index(p[j+2:], ":]")
			if end < 0 {
				return 0, errors.New("unterminated character class")
			}
			b.WriteString(p[j : j+2+end+2])
			j += 2 + end + 2
			continue
		case c == ']':
			b.WriteByte(']')
			return j, nil
		case c == '\\':
			b.WriteString(`\\`)
		case c == '[':
			b.WriteString(`\[`)
		default:
			b.WriteByte(c)
		}
		j++
	}
	return 0, errors.New("unterminated address regex")
}
