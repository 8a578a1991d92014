package scheduler

// Report is the suite-level summary: every package in exactly one of
// built, failed, or blocked. Blocked packages were never attempted
// because a dependency failed before their turn, and are deliberately
// not counted as failures.
type Report struct {
	Built   []string
	Failed  []string
	Blocked []string
	// Units holds the full result for every package that was attempted.
	Units     map[string]UnitResult
	Cancelled bool
}

// Success reports whether every package built.
func (r *Report) Success() bool {
	return !r.Cancelled && len(r.Failed) == 0 && len(r.Blocked) == 0
}

// TotalRemediations sums remediation attempts across all attempted units.
func (r *Report) TotalRemediations() int {
	total := 0
	for _, u := range r.Units {
		total += u.RemediationAttempts
	}
	return total
}
