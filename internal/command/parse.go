package command

import (
	"strings"

	"github.com/ajitpratap0/framekit/pkg/errors"
)

// Step is one parsed pipeline step
type Step struct {
	Op   Op
	Args []string
}

// String renders the step as it would appear in a pipeline
func (s Step) String() string {
	if len(s.Args) == 0 {
		return s.Op.String()
	}
	return s.Op.String() + " " + strings.Join(s.Args, " ")
}

// Parse splits pipeline on '|' and each step on whitespace. Every step name is
// resolved and its argument count checked before anything runs, so a typo in
// the last step fails the whole pipeline up front. Empty steps are ignored.
func Parse(pipeline string) ([]Step, error) {
	var steps []Step
	for i, raw := range strings.Split(pipeline, "|") {
		fields := strings.Fields(raw)
		if len(fields) == 0 {
			continue
		}

		op, err := Lookup(fields[0])
		if err != nil {
			return nil, err
		}

		args := fields[1:]
		s := opTable[op]
		if len(args) < s.minArgs || len(args) > s.maxArgs {
			return nil, errors.Newf(errors.ErrorTypeValidation, "%s: wrong number of arguments, usage: %s", s.name, s.usage).
				WithDetail("step", i+1).
				WithDetail("args", len(args))
		}
		steps = append(steps, Step{Op: op, Args: args})
	}
	return steps, nil
}

// NeedsInput reports whether steps expect an initial frame, which is the case
// unless the first step loads one itself.
func NeedsInput(steps []Step) bool {
	return len(steps) == 0 || steps[0].Op != OpLoad
}
