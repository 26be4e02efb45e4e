package version

import (
	"strings"

	"github.com/pkg/errors"
)

// Relation constrains how an installed version must compare to a required
// version.
type Relation int

const (
	// EQ requires the installed version to equal the required version.
	EQ Relation = iota
	// GT requires the installed version to be strictly newer.
	GT
	// GE requires the installed version to be at least as new.
	GE
	// LT requires the installed version to be strictly older.
	LT
	// LE requires the installed version to be at most as new.
	LE
)

func (r Relation) String() string {
	switch r {
	case EQ:
		return "="
	case GT:
		return ">"
	case GE:
		return ">="
	case LT:
		return "<"
	case LE:
		return "<="
	default:
		return "?"
	}
}

// operators lists surface tokens in match priority order: the earliest
// match in this slice consumes the split point in a dependency token, so
// two-character operators that share a prefix with a one-character one
// (">=" vs ">") must be tried first.
var operators = []struct {
	token string
	rel   Relation
}{
	{"@", EQ},
	{">=", GE},
	{"<=", LE},
	{"=", EQ},
	{">", GT},
	{"<", LT},
}

// Dependency is a named constraint on an installed package's version.
type Dependency struct {
	Name     string
	Relation Relation
	Version  Version
}

func (d Dependency) String() string {
	if d.Relation == GT && len(d.Version) == 1 && d.Version[0] == 0 {
		return d.Name
	}
	return d.Name + d.Relation.String() + d.Version.String()
}

// ParseDep parses a single dependency token. Recognized suffix operators
// are tried in the order declared by operators; if none match, the whole
// token is treated as a bare package name, equivalent to (name, GT, [0]).
func ParseDep(token string) (Dependency, error) {
	for _, op := range operators {
		if idx := strings.Index(token, op.token); idx > 0 {
			name := token[:idx]
			vs := token[idx+len(op.token):]
			v, err := Parse(vs)
			if err != nil {
				return Dependency{}, errors.Wrapf(err, "invalid dependency %q", token)
			}
			return Dependency{Name: name, Relation: op.rel, Version: v}, nil
		}
	}

	if token == "" {
		return Dependency{}, errors.New("invalid dependency: empty token")
	}

	return Dependency{Name: token, Relation: GT, Version: Version{0}}, nil
}

// AggregateError collects one error per malformed token encountered while
// parsing a dependency string.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// ParseDeps splits s on whitespace and parses each token as a dependency.
// All per-token errors are accumulated and returned together rather than
// failing on the first one.
func ParseDeps(s string) ([]Dependency, error) {
	fields := strings.Fields(s)
	deps := make([]Dependency, 0, len(fields))
	var agg AggregateError

	for _, f := range fields {
		d, err := ParseDep(f)
		if err != nil {
			agg.Errors = append(agg.Errors, err)
			continue
		}
		deps = append(deps, d)
	}

	if len(agg.Errors) > 0 {
		return nil, &agg
	}
	return deps, nil
}

// FormatDeps renders deps back into the whitespace-separated form ParseDeps
// accepts.
func FormatDeps(deps []Dependency) string {
	parts := make([]string, len(deps))
	for i, d := range deps {
		parts[i] = d.String()
	}
	return strings.Join(parts, " ")
}

// Satisfies reports whether existing, as the installed version of a
// package, satisfies a dependency requiring required under rel.
//
//	compare(required,existing)   EQ    GE    LE    GT    LT
//	 0                            T     T     T     F     F
//	 1 (existing older)           F     F     T     F     T
//	-1 (existing newer)           F     T     F     T     F
func Satisfies(required, existing Version, rel Relation) bool {
	switch c := Compare(required, existing); c {
	case 0:
		return rel == EQ || rel == GE || rel == LE
	case 1:
		return rel == LE || rel == LT
	case -1:
		return rel == GE || rel == GT
	default:
		return false
	}
}
