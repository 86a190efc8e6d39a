package analysis

// FieldPolicy names the analyzer a schema field should use, per the field
// policy table: exact-match fields must not be stemmed or synonym-expanded,
// since a path or filename search means what it says.
type FieldPolicy struct {
	Stop    bool
	Synonym bool
	Stem    bool
}

// AnalyzerFor returns the registered analyzer name implementing policy.
func (p FieldPolicy) AnalyzerFor() string {
	switch {
	case p.Stem:
		return ContentAnalyzerName
	case p.Synonym:
		return CategoryAnalyzerName
	default:
		return ExactAnalyzerName
	}
}

// Field policies, keyed by schema field name.
var (
	PolicyContent     = FieldPolicy{Stop: true, Synonym: true, Stem: true}
	PolicyDescription = FieldPolicy{Stop: true, Synonym: true, Stem: true}
	PolicyCategory    = FieldPolicy{Stop: false, Synonym: true, Stem: false}
	PolicyExact       = FieldPolicy{Stop: false, Synonym: false, Stem: false}
)
