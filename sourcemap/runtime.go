package sourcemap

import (
	"fmt"
	"regexp"
	"strconv"
)

// frameRe matches generated-file frames in a stack trace or diagnostic,
// e.g. "player_paw.go:42".
var frameRe = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_]*)\.go:(\d+)`)

// lineHintRe matches "line N" hints embedded in a message.
var lineHintRe = regexp.MustCompile(`\bline (\d+)\b`)

// TranslateFailure re-presents a runtime failure in authored-script
// terms. It scans the stack for the innermost frame belonging to a
// compiled script, interpolates the authored line, and restores renamed
// identifiers in the message. Returns false when no frame maps.
func TranslateFailure(sm *SourceMap, msg, stack string) (string, bool) {
	for _, match := range frameRe.FindAllStringSubmatch(stack, -1) {
		script, ok := sm.Scripts[match[1]]
		if !ok {
			continue
		}
		genLine, err := strconv.Atoi(match[2])
		if err != nil {
			continue
		}
		restored := script.ConvertMessage(msg)
		if srcLine, ok := script.FindSourceLine(genLine); ok {
			return fmt.Sprintf("%s:%d: %s", script.Src, srcLine, restored), true
		}
		return fmt.Sprintf("%s: %s", script.Src, restored), true
	}

	// No usable stack frame; fall back to a "line N" hint in the
	// message itself when exactly one script is mapped.
	if len(sm.Scripts) == 1 {
		for _, script := range sm.Scripts {
			if m := lineHintRe.FindStringSubmatch(msg); m != nil {
				if genLine, err := strconv.Atoi(m[1]); err == nil {
					if srcLine, ok := script.FindSourceLine(genLine); ok {
						restored := lineHintRe.ReplaceAllString(script.ConvertMessage(msg), "line "+strconv.Itoa(srcLine))
						return fmt.Sprintf("%s: %s", script.Src, restored), true
					}
				}
			}
		}
	}
	return "", false
}
