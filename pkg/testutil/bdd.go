package testutil

import "testing"

// Step is one stage of a scenario test.
type Step struct {
	name string
	run  func(t *testing.T)
}

func Given(desc string, fn func(t *testing.T)) Step { return Step{name: "Given " + desc, run: fn} }
func When(desc string, fn func(t *testing.T)) Step  { return Step{name: "When " + desc, run: fn} }
func Then(desc string, fn func(t *testing.T)) Step  { return Step{name: "Then " + desc, run: fn} }
func And(desc string, fn func(t *testing.T)) Step   { return Step{name: "And " + desc, run: fn} }

// Scenario runs steps in order as subtests. Steps share state through the
// enclosing closure, so a failed step skips the rest instead of letting them
// run against a broken precondition.
func Scenario(t *testing.T, steps ...Step) {
	t.Helper()
	for i, step := range steps {
		if !t.Run(step.name, step.run) {
			for _, skipped := range steps[i+1:] {
				t.Run(skipped.name, func(t *testing.T) { t.Skip("earlier step failed") })
			}
			return
		}
	}
}
