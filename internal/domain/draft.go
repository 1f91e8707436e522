package domain

import "strings"

// ActivityNames returns every activity name in the draft, in day order.
func (d Draft) ActivityNames() []string {
	var names []string
	for _, day := range d.Days {
		for _, act := range day.Activities {
			if act.Name != "" {
				names = append(names, act.Name)
			}
		}
	}
	return names
}

// ActivityCount returns the total number of activities across all days.
func (d Draft) ActivityCount() int {
	n := 0
	for _, day := range d.Days {
		n += len(day.Activities)
	}
	return n
}

// clone returns a deep copy of the draft so revisions never touch the
// original.
func (d Draft) clone() Draft {
	out := d
	out.Days = make([]DayPlan, len(d.Days))
	for i, day := range d.Days {
		out.Days[i] = day
		out.Days[i].Activities = make([]Activity, len(day.Activities))
		copy(out.Days[i].Activities, day.Activities)
	}
	return out
}

// WithReplacement returns a copy of the draft with the named activity on the
// given day swapped for repl, marked revised. The receiver is never mutated.
// The bool reports whether the target activity was found.
func (d Draft) WithReplacement(day int, name string, repl Activity) (Draft, bool) {
	out := d.clone()
	for i, dp := range out.Days {
		if dp.Day != day {
			continue
		}
		for j, act := range dp.Activities {
			if !strings.EqualFold(act.Name, name) {
				continue
			}
			repl.Revised = true
			out.Days[i].Activities[j] = repl
			return out, true
		}
	}
	return out, false
}
