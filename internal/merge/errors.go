package merge

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/jward/cppdecl/internal/decl"
)

var (
	// ErrStructural reports an input forest that breaks the declaration
	// model, such as two different non-overloadable declarations of one name
	// under the same namespace. It always aborts a merge.
	ErrStructural = errors.New("structural precondition violated")

	// ErrUnresolved reports a class reference whose identity key has no
	// canonical class. It aborts a merge only under PolicyFail.
	ErrUnresolved = errors.New("unresolved class reference")
)

func structuralf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrStructural}, args...)...)
}

// UnresolvedPolicy decides what happens when a class reference cannot be
// mapped onto a canonical class.
type UnresolvedPolicy int

const (
	// PolicyWarn logs the reference, records it and leaves it untouched.
	PolicyWarn UnresolvedPolicy = iota
	// PolicyFail aborts the merge.
	PolicyFail
)

func (p UnresolvedPolicy) String() string {
	switch p {
	case PolicyWarn:
		return "warn"
	case PolicyFail:
		return "fail"
	}
	return fmt.Sprintf("UnresolvedPolicy(%d)", int(p))
}

// ParsePolicy accepts "warn" or "fail". The empty string means PolicyWarn.
func ParsePolicy(s string) (UnresolvedPolicy, error) {
	switch s {
	case "", "warn":
		return PolicyWarn, nil
	case "fail":
		return PolicyFail, nil
	}
	return PolicyWarn, fmt.Errorf("merge: unknown unresolved policy %q (want warn or fail)", s)
}

// Unresolved describes one class reference that could not be mapped.
type Unresolved struct {
	Name    string
	Key     decl.Key
	Context string
}

// Options configure the hierarchy and relink passes.
type Options struct {
	Policy UnresolvedPolicy
	Logger *log.Logger
}

func (o Options) logger() *log.Logger {
	if o.Logger == nil {
		return log.New(io.Discard, "", 0)
	}
	return o.Logger
}

// report applies the policy to u. A non-nil return aborts the caller.
func (o Options) report(u Unresolved, list *[]Unresolved) error {
	*list = append(*list, u)
	if o.Policy == PolicyFail {
		return fmt.Errorf("%w: '%s' (%s) referenced from %s", ErrUnresolved, u.Name, u.Key, u.Context)
	}
	o.logger().Printf("warning: unable to find actual class definition '%s' referenced from %s; "+
		"the class changed between translation units. Names starting with '__vmi_class_type_info_pseudo' can be ignored",
		u.Name, u.Context)
	return nil
}
