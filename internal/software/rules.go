package software

import (
	"fmt"
	"regexp"
)

// RuleSpec is an uncompiled pattern for one status. The pattern must expose
// two capture groups: package name, then version.
type RuleSpec struct {
	Status  Status
	Pattern string
}

type rule struct {
	status Status
	expr   *regexp.Regexp
}

// RuleSet holds the compiled patterns of one deployment tool. It is immutable
// once built and safe to share between goroutines.
type RuleSet struct {
	tool     string
	byStatus map[Status][]*regexp.Regexp
}

// CompileRules compiles specs into a RuleSet. A pattern that does not compile
// is left out and its error returned; the remaining patterns still work.
func CompileRules(tool string, specs []RuleSpec) (RuleSet, []error) {
	rs := RuleSet{tool: tool, byStatus: make(map[Status][]*regexp.Regexp)}
	var errs []error
	for i, spec := range specs {
		if spec.Status == StatusUnknown {
			errs = append(errs, fmt.Errorf("%s rule %d: status must be set", tool, i))
			continue
		}
		expr, err := regexp.Compile(spec.Pattern)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s rule %d (%s): compile %q: %w", tool, i, spec.Status, spec.Pattern, err))
			continue
		}
		rs.byStatus[spec.Status] = append(rs.byStatus[spec.Status], expr)
	}
	return rs, errs
}

// Tool returns the deployment tool name the rules were built for.
func (rs RuleSet) Tool() string {
	return rs.tool
}

// Empty reports whether no pattern survived compilation. An empty RuleSet
// never matches anything.
func (rs RuleSet) Empty() bool {
	return rs.Len() == 0
}

// Len returns the number of compiled patterns.
func (rs RuleSet) Len() int {
	n := 0
	for _, exprs := range rs.byStatus {
		n += len(exprs)
	}
	return n
}

func (rs RuleSet) patterns(status Status) []*regexp.Regexp {
	return rs.byStatus[status]
}
