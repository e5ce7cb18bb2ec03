package types

import "fmt"

// NonExhaustiveError reports a case expression whose arms do not cover
// every value of the scrutinee's type, with a witness pattern that is not
// matched by any arm (spec.md Sec. 4.3 point 6).
type NonExhaustiveError struct {
	Pos     string
	Witness string
}

func (e *NonExhaustiveError) Error() string {
	return fmt.Sprintf("%s: non-exhaustive match, e.g. %s not covered", e.Pos, e.Witness)
}

// RedundantMatchError reports a match arm that can never fire because
// earlier arms already cover every value it would match. Open Question
// (a) in spec.md Sec. 9 is resolved (DESIGN.md) as a hard error;
// NonExhaustiveError is a warning unless StrictMatch is set.
type RedundantMatchError struct {
	Pos string
}

func (e *RedundantMatchError) Error() string {
	return fmt.Sprintf("%s: redundant match arm", e.Pos)
}
