package ntfslive

// WellKnownArtifact names one forensically significant NTFS path that
// is ordinarily denied by the OS file API while the owning process or
// the OS itself holds it open. This is the supplemented feature from
// SPEC_FULL.md §6, grounded directly in spec.md's own S1/S2 scenarios
// (the locked registry hive and the sparse USN journal).
type WellKnownArtifact struct {
	Name string
	Path string
	// Sparse indicates the artifact is expected to be a sparse file
	// (e.g. the USN journal's $J stream) so callers know to check
	// FileRecord.IsSparse() rather than treat a short read as an error.
	Sparse bool
}

// WellKnownArtifacts returns the catalogue of paths `ntfscp
// extract-hive` draws from.
func WellKnownArtifacts() []WellKnownArtifact {
	return []WellKnownArtifact{
		{Name: "SAM", Path: `Windows\System32\config\SAM`},
		{Name: "SECURITY", Path: `Windows\System32\config\SECURITY`},
		{Name: "SOFTWARE", Path: `Windows\System32\config\SOFTWARE`},
		{Name: "SYSTEM", Path: `Windows\System32\config\SYSTEM`},
		{Name: "DEFAULT", Path: `Windows\System32\config\DEFAULT`},
		{Name: "MFT", Path: `$MFT`},
		{Name: "LogFile", Path: `$LogFile`},
		{Name: "UsnJournal", Path: `$Extend\$UsnJrnl:$J`, Sparse: true},
	}
}
