package shell

import "strings"

// redirect captures a trailing "> file" or ">> file" on a command line.
type redirect struct {
	Path   string
	Append bool
}

const (
	scanPlain = iota
	scanSingle
	scanDouble
)

// parseLine splits a command line into arguments. Single quotes are
// literal, double quotes allow backslash escapes, and a bare backslash
// escapes the next rune. A trailing "> file" or ">> file" is peeled off
// into redir. ok is false on unterminated quotes or escapes, a
// redirection with no target, or a redirection that is not last.
func parseLine(line string) (args []string, redir redirect, ok bool) {
	var (
		cur     strings.Builder
		quoted  bool
		state   = scanPlain
		escaped bool
		ops     []int
	)

	flush := func() {
		if quoted || cur.Len() > 0 {
			args = append(args, cur.String())
			cur.Reset()
			quoted = false
		}
	}

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if escaped {
			cur.WriteRune(r)
			escaped = false
			continue
		}

		switch state {
		case scanSingle:
			if r == '\'' {
				state = scanPlain
				quoted = true
				continue
			}
			cur.WriteRune(r)

		case scanDouble:
			switch r {
			case '"':
				state = scanPlain
				quoted = true
			case '\\':
				escaped = true
			default:
				cur.WriteRune(r)
			}

		default:
			switch r {
			case ' ', '\t':
				flush()
			case '\'':
				state = scanSingle
			case '"':
				state = scanDouble
			case '\\':
				escaped = true
			case '>':
				flush()
				op := ">"
				if i+1 < len(runes) && runes[i+1] == '>' {
					op = ">>"
					i++
				}
				ops = append(ops, len(args))
				args = append(args, op)
			default:
				cur.WriteRune(r)
			}
		}
	}
	if state != scanPlain || escaped {
		return nil, redirect{}, false
	}
	flush()

	if len(ops) == 0 {
		return args, redirect{}, true
	}
	if len(ops) > 1 || ops[0] != len(args)-2 {
		return nil, redirect{}, false
	}
	redir = redirect{Path: args[len(args)-1], Append: args[ops[0]] == ">>"}
	return args[:len(args)-2], redir, true
}
