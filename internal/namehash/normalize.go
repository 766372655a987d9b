package namehash

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize lowercases a user-supplied name and puts it in Unicode NFC,
// so visually identical input hashes to the same node.
func Normalize(name string) string {
	return norm.NFC.String(strings.ToLower(strings.TrimSpace(name)))
}

// WithTLD appends the default TLD to a bare label. Names that already
// carry a dot are returned unchanged.
func WithTLD(name string) string {
	if name == "" || strings.Contains(name, ".") {
		return name
	}
	return name + "." + DefaultTLD
}
