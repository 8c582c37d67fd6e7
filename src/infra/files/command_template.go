package files

import (
	"errors"
	"fmt"
	"strings"

	"github.com/contre95/lyricbar/src/music"
	"github.com/gosimple/unidecode"
)

// ErrTemplate is returned for malformed templates and failed expansions.
var ErrTemplate = errors.New("invalid command template")

// arity bounds per function; max < 0 means unbounded.
var functions = map[string]struct{ min, max int }{
	"asciify": {1, -1},
	"quote":   {1, -1},
	"if":      {2, 3},
}

type node interface {
	render(e *evaluation) string
}

type textNode string

type fieldNode string

type funcNode struct {
	name string
	args [][]node
}

type evaluation struct {
	meta  music.MetadataSource
	track *music.Track
}

func (n textNode) render(*evaluation) string { return string(n) }

func (n fieldNode) render(e *evaluation) string {
	if n == "path" {
		return e.track.Path
	}
	val, _ := e.meta.FindMeta(e.track, string(n))
	return val
}

func (n funcNode) render(e *evaluation) string {
	switch n.name {
	case "asciify":
		return unidecode.Unidecode(renderArgs(n.args, e))
	case "quote":
		return shellQuote(renderArgs(n.args, e))
	case "if":
		// %if{condition,true_value,false_value}
		condition := renderSeq(n.args[0], e)
		if condition != "" && condition != "0" && condition != "false" {
			return renderSeq(n.args[1], e)
		}
		if len(n.args) > 2 {
			return renderSeq(n.args[2], e)
		}
		return ""
	default:
		return ""
	}
}

func renderSeq(seq []node, e *evaluation) string {
	var b strings.Builder
	for _, n := range seq {
		b.WriteString(n.render(e))
	}
	return b.String()
}

// renderArgs renders single-argument functions whose text contained commas.
func renderArgs(args [][]node, e *evaluation) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = renderSeq(arg, e)
	}
	return strings.Join(parts, ",")
}

// shellQuote wraps s in single quotes for /bin/sh.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// CommandTemplate is a compiled lyrics command. Placeholders like $artist
// expand to the track's metadata field of that exact name and $path to the
// file path; $$ is a literal dollar sign. Functions are %asciify{...},
// %quote{...} and %if{cond,then,else}.
type CommandTemplate struct {
	source string
	nodes  []node
	meta   music.MetadataSource
}

// CommandTemplateCompiler compiles command templates evaluated against a host's metadata.
type CommandTemplateCompiler struct {
	meta music.MetadataSource
}

// NewCommandTemplateCompiler creates a compiler reading fields through meta.
func NewCommandTemplateCompiler(meta music.MetadataSource) *CommandTemplateCompiler {
	return &CommandTemplateCompiler{meta: meta}
}

// Compile parses template.
func (c *CommandTemplateCompiler) Compile(template string) (music.CompiledTemplate, error) {
	if strings.TrimSpace(template) == "" {
		return nil, fmt.Errorf("%w: empty template", ErrTemplate)
	}
	p := &parser{src: template}
	args, err := p.parse(false)
	if err != nil {
		return nil, err
	}
	return &CommandTemplate{source: template, nodes: args[0], meta: c.meta}, nil
}

// Evaluate expands the template for track. Metadata is read under the host's
// metadata lock, which is released before returning.
func (t *CommandTemplate) Evaluate(track *music.Track) (string, error) {
	if track == nil {
		return "", fmt.Errorf("%w: no track to expand against", ErrTemplate)
	}

	t.meta.LockMeta()
	out := renderSeq(t.nodes, &evaluation{meta: t.meta, track: track})
	t.meta.UnlockMeta()

	if strings.ContainsRune(out, 0) {
		return "", fmt.Errorf("%w: expansion contains a NUL byte", ErrTemplate)
	}
	return out, nil
}

func (t *CommandTemplate) String() string {
	return t.source
}

type parser struct {
	src string
	pos int
}

// parse reads nodes until the end of input or, inside a function, until the
// closing brace. Top-level commas inside a function separate arguments.
func (p *parser) parse(inFunc bool) ([][]node, error) {
	start := p.pos
	args := [][]node{nil}
	var text strings.Builder
	flush := func() {
		if text.Len() > 0 {
			args[len(args)-1] = append(args[len(args)-1], textNode(text.String()))
			text.Reset()
		}
	}

	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == '$':
			if p.peek(1) == '$' {
				text.WriteByte('$')
				p.pos += 2
				continue
			}
			name := p.word(p.pos + 1)
			if name == "" {
				text.WriteByte(c)
				p.pos++
				continue
			}
			flush()
			args[len(args)-1] = append(args[len(args)-1], fieldNode(name))
			p.pos += 1 + len(name)
		case c == '%':
			name := p.word(p.pos + 1)
			if name == "" || p.peek(1+len(name)) != '{' {
				text.WriteByte(c)
				p.pos++
				continue
			}
			arity, ok := functions[name]
			if !ok {
				return nil, fmt.Errorf("%w: unknown function %%%s at offset %d", ErrTemplate, name, p.pos)
			}
			at := p.pos
			p.pos += len(name) + 2
			fargs, err := p.parse(true)
			if err != nil {
				return nil, err
			}
			if len(fargs) < arity.min || (arity.max >= 0 && len(fargs) > arity.max) {
				return nil, fmt.Errorf("%w: %%%s takes %d to %d arguments, got %d at offset %d", ErrTemplate, name, arity.min, arity.max, len(fargs), at)
			}
			flush()
			args[len(args)-1] = append(args[len(args)-1], funcNode{name: name, args: fargs})
		case c == '}' && inFunc:
			flush()
			p.pos++
			return args, nil
		case c == ',' && inFunc:
			flush()
			args = append(args, nil)
			p.pos++
		default:
			text.WriteByte(c)
			p.pos++
		}
	}

	if inFunc {
		return nil, fmt.Errorf("%w: unterminated function call starting at offset %d", ErrTemplate, start)
	}
	flush()
	return args, nil
}

func (p *parser) peek(offset int) byte {
	if p.pos+offset < len(p.src) {
		return p.src[p.pos+offset]
	}
	return 0
}

// word returns the run of [A-Za-z0-9_] starting at i.
func (p *parser) word(i int) string {
	j := i
	for j < len(p.src) {
		c := p.src[j]
		if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			j++
			continue
		}
		break
	}
	return p.src[i:j]
}
