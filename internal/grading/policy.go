package grading

import (
	"fmt"
	"strings"
)

// EmptyCategoryPolicy decides how a weighted category without scored work affects the
// course grade.
type EmptyCategoryPolicy string

const (
	// EmptyCategoryExclude leaves the category out of numerator and denominator.
	EmptyCategoryExclude EmptyCategoryPolicy = "exclude"
	// EmptyCategoryAsZero counts the category as 0% at full weight when it has at least
	// one counted assignment.
	EmptyCategoryAsZero EmptyCategoryPolicy = "zero"
)

// UngradedPolicy decides how counted assignments without a score are treated.
type UngradedPolicy string

const (
	// UngradedIgnore leaves ungraded assignments out of the computation.
	UngradedIgnore UngradedPolicy = "ignore"
	// UngradedAsZero counts ungraded assignments as zero points earned.
	UngradedAsZero UngradedPolicy = "zero"
)

// Policy bundles the configurable aggregation rules.
type Policy struct {
	EmptyCategory EmptyCategoryPolicy
	Ungraded      UngradedPolicy
}

// DefaultPolicy excludes empty categories and ignores ungraded assignments.
func DefaultPolicy() Policy {
	return Policy{EmptyCategory: EmptyCategoryExclude, Ungraded: UngradedIgnore}
}

// ParsePolicy builds a policy from configuration strings. Empty values select defaults.
func ParsePolicy(emptyCategory, ungraded string) (Policy, error) {
	p := DefaultPolicy()
	switch strings.ToLower(strings.TrimSpace(emptyCategory)) {
	case "":
	case string(EmptyCategoryExclude):
		p.EmptyCategory = EmptyCategoryExclude
	case string(EmptyCategoryAsZero):
		p.EmptyCategory = EmptyCategoryAsZero
	default:
		return p, fmt.Errorf("unknown empty category policy %q", emptyCategory)
	}
	switch strings.ToLower(strings.TrimSpace(ungraded)) {
	case "":
	case string(UngradedIgnore):
		p.Ungraded = UngradedIgnore
	case string(UngradedAsZero):
		p.Ungraded = UngradedAsZero
	default:
		return p, fmt.Errorf("unknown ungraded policy %q", ungraded)
	}
	return p, nil
}
