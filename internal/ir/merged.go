package ir

// MergedEntry is one per-(library, arch) input of a merged report.
type MergedEntry struct {
	LibName     string
	Arch        string
	Status      CompatibilityStatus
	Path        string
	Fingerprint string
}

// MergedReport aggregates many diff reports into one release verdict.
type MergedReport struct {
	// Status is the union of every input's status bits.
	Status CompatibilityStatus

	// Severity is the worst input severity.
	Severity Severity

	Reports []MergedEntry
}
