package rules

import (
	"regexp"
	"strings"
)

// instruction is one logical Dockerfile line: the directive keyword in upper
// case and the raw remainder of the line. Heredoc bodies belong to the
// instruction that opened them and are appended to Args, one line each.
type instruction struct {
	Keyword string
	Args    string
}

// heredocMarker matches <<WORD, <<-WORD and their quoted forms, but not the
// shell here-string <<<.
var heredocMarker = regexp.MustCompile(`(?:^|[^<])<<-?["']?([A-Za-z_][A-Za-z0-9_]*)["']?`)

var heredocKeywords = map[string]bool{"RUN": true, "COPY": true, "ADD": true}

// instructions splits text into logical instructions. Lines ending in a
// backslash are joined with the next one. Comment lines and blank lines
// are dropped, including inside a continuation. Heredoc bodies are kept
// verbatim up to their terminator. No further parsing happens.
func instructions(text string) []instruction {
	var (
		out        []instruction
		pending    strings.Builder
		terminator []string
	)
	flush := func() {
		line := strings.TrimSpace(pending.String())
		pending.Reset()
		if line == "" {
			return
		}
		kw, args := line, ""
		if i := strings.IndexAny(line, " \t"); i >= 0 {
			kw, args = line[:i], line[i+1:]
		}
		kw = strings.ToUpper(kw)
		out = append(out, instruction{Keyword: kw, Args: strings.TrimSpace(args)})
		if !heredocKeywords[kw] {
			return
		}
		for _, m := range heredocMarker.FindAllStringSubmatch(args, -1) {
			terminator = append(terminator, m[1])
		}
	}

	for _, raw := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line := strings.TrimSpace(raw)
		if len(terminator) > 0 {
			if line == terminator[0] {
				terminator = terminator[1:]
				continue
			}
			last := &out[len(out)-1]
			last.Args += "\n" + raw
			continue
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasSuffix(line, "\\") {
			pending.WriteString(strings.TrimSuffix(line, "\\"))
			pending.WriteByte(' ')
			continue
		}
		pending.WriteString(line)
		flush()
	}
	flush()
	return out
}

func hasDirective(ins []instruction, keywords ...string) bool {
	for _, in := range ins {
		for _, kw := range keywords {
			if in.Keyword == kw {
				return true
			}
		}
	}
	return false
}

func argsOf(ins []instruction, keyword string) []string {
	var out []string
	for _, in := range ins {
		if in.Keyword == keyword {
			out = append(out, in.Args)
		}
	}
	return out
}
