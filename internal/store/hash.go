package store

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
)

// ComputeSignatureHash computes a deterministic hash from a declaration's
// semantic identity: full name, kind, access, rendered type and modifiers.
// Location changes do NOT affect the hash.
func ComputeSignatureHash(fullName, kind, access, typeExpr string, modifiers []string) string {
	h := sha256.New()
	fmt.Fprintf(h, "name:%s\n", fullName)
	fmt.Fprintf(h, "kind:%s\n", kind)
	fmt.Fprintf(h, "access:%s\n", access)
	fmt.Fprintf(h, "type:%s\n", typeExpr)

	sorted := make([]string, len(modifiers))
	copy(sorted, modifiers)
	sort.Strings(sorted)
	fmt.Fprintf(h, "modifiers:%s\n", strings.Join(sorted, ","))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// ComputeFileHash hashes file content for the files table.
func ComputeFileHash(content []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(content))
}
