package data

import (
	"strings"
)

type modeToken struct {
	set     bool
	char    byte
	param   string
	missing bool
}

// parseModeString splits "+ov-b a b mask" into single changes. Characters
// before the first + or - are ignored, and takesParam decides which
// characters consume the next parameter.
func parseModeString(modes string, takesParam func(c byte, set bool) bool) []modeToken {
	fields := strings.Fields(modes)
	if len(fields) == 0 {
		return nil
	}

	params := fields[1:]
	var tokens []modeToken
	dir := -1
	for i := 0; i < len(fields[0]); i++ {
		c := fields[0][i]
		switch c {
		case '+':
			dir = 1
			continue
		case '-':
			dir = 0
			continue
		}
		if dir == -1 {
			continue
		}

		tok := modeToken{set: dir == 1, char: c}
		if takesParam(c, tok.set) {
			if len(params) > 0 {
				tok.param, params = params[0], params[1:]
			} else {
				tok.missing = true
			}
		}
		tokens = append(tokens, tok)
	}
	return tokens
}
