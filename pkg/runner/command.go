package runner

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownCommand is returned for a verb the runner does not understand.
var ErrUnknownCommand = errors.New("unknown command")

// Verbs understood by the runner.
const (
	VerbLook        = "look"
	VerbMove        = "move"
	VerbTalk        = "talk"
	VerbInvestigate = "investigate"
	VerbWait        = "wait"
	VerbAccuse      = "accuse"
	VerbClues       = "clues"
	VerbHelp        = "help"
	VerbQuit        = "quit"
)

var aliases = map[string]string{
	"l":      VerbLook,
	"go":     VerbMove,
	"ask":    VerbTalk,
	"say":    VerbTalk,
	"search": VerbInvestigate,
	"i":      VerbInvestigate,
	"w":      VerbWait,
	"?":      VerbHelp,
	"exit":   VerbQuit,
	"q":      VerbQuit,
}

// Command is a parsed input line.
type Command struct {
	Verb   string
	Target string
	Text   string
}

// ParseCommand splits line into a verb, a target and free text. names are
// the characters that may be addressed; since names contain spaces,
// "talk Dr. Evelyn Hart Where were you?" is split on the longest matching name.
func ParseCommand(line string, names []string) (Command, error) {
	line = strings.TrimSpace(line)
	verb, rest, _ := strings.Cut(line, " ")
	verb = strings.ToLower(verb)
	if v, ok := aliases[verb]; ok {
		verb = v
	}
	rest = strings.TrimSpace(rest)

	switch verb {
	case VerbLook, VerbInvestigate, VerbWait, VerbClues, VerbHelp, VerbQuit:
		return Command{Verb: verb}, nil
	case VerbMove:
		rest = strings.TrimSpace(strings.TrimPrefix(strings.ToLower(rest), "to "))
		if rest == "" {
			return Command{}, fmt.Errorf("usage: move <location>")
		}
		return Command{Verb: verb, Target: rest}, nil
	case VerbTalk, VerbAccuse:
		target, text := splitName(rest, names)
		if target == "" {
			return Command{}, fmt.Errorf("usage: %s <name> [text]", verb)
		}
		return Command{Verb: verb, Target: target, Text: text}, nil
	default:
		return Command{}, fmt.Errorf("%w %q, type help", ErrUnknownCommand, verb)
	}
}

func splitName(s string, names []string) (string, string) {
	s = strings.TrimSpace(strings.TrimPrefix(s, "to "))
	sorted := append([]string(nil), names...)
	sort.Slice(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	lower := strings.ToLower(s)
	for _, name := range sorted {
		n := strings.ToLower(name)
		if !strings.HasPrefix(lower, n) {
			continue
		}
		tail := s[len(n):]
		if tail == "" || strings.ContainsRune(" :,", rune(tail[0])) {
			return name, trimText(tail)
		}
	}

	if before, after, ok := strings.Cut(s, ":"); ok {
		return strings.TrimSpace(before), trimText(after)
	}
	target, text, _ := strings.Cut(s, " ")
	return target, trimText(text)
}

func trimText(s string) string {
	return strings.TrimSpace(strings.TrimLeft(s, " :,"))
}
