package irc

import "strings"

// rfc1459 treats []\~ as the upper case forms of {}|^.
var rfc1459 = strings.NewReplacer("[", "{", "]", "}", "\\", "|", "~", "^")

// Fold lower cases a nick or channel name using rfc1459 case mapping so it
// can be used as a directory key.
func Fold(name string) string {
	return rfc1459.Replace(strings.ToLower(name))
}

// EqualFold compares two names under rfc1459 case mapping.
func EqualFold(a, b string) bool {
	return Fold(a) == Fold(b)
}

// IsChannel checks the first character against the usual channel prefixes.
func IsChannel(name string) bool {
	return len(name) > 0 && strings.IndexByte("#&+!", name[0]) >= 0
}

// IsID is true for names that start with a digit, which is how UIDs and SIDs
// are told apart from nicks and server names.
func IsID(name string) bool {
	return len(name) > 0 && name[0] >= '0' && name[0] <= '9'
}
