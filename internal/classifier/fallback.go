package classifier

// IntentUnclassified is the sentinel stored when routing fell back to the
// default department.
const IntentUnclassified = "UNCLASSIFIED"

// FallbackPolicy maps classification failure to a deterministic default
// department. It is pure and total so retries and tests are reproducible.
type FallbackPolicy struct {
	DepartmentEmail string
	DepartmentName  string
}

// Route returns the fixed default routing for any complaint text.
func (p FallbackPolicy) Route(_ string) Routing {
	return Routing{
		DepartmentEmail: p.DepartmentEmail,
		DepartmentName:  p.DepartmentName,
		Intent:          IntentUnclassified,
	}
}
