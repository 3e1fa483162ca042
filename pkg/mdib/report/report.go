// Package report turns committed MDIB diffs into report bodies of fixed
// shapes (§4.3): one per BICEPS report family, each identified by a
// distinct action. Builders here are pure — they have no knowledge of SOAP,
// subscriptions, or transport; pkg/subscription and pkg/periodic consume
// their output.
package report

import "github.com/marmos91/sdcgo/pkg/mdib"

// DescriptionPart is one entry of a DescriptionModificationReport: a
// changed descriptor, tagged with how it changed, carrying its related
// state(s) at the time of the change.
type DescriptionPart struct {
	ModificationType mdib.ModificationType
	Descriptor       *mdib.Descriptor
	State            *mdib.State
	States           []*mdib.State // populated instead of State for context descriptors
}

// PeriodicEntry is one queued snapshot a periodic report aggregates,
// preserving the MdibVersion it was captured at (§4.6).
type PeriodicEntry struct {
	VersionGroup mdib.MdibVersionGroup
	States       []*mdib.State
}

// OperationInvokedBody is the payload of an OperationInvokedReport (§4.7).
type OperationInvokedBody struct {
	TransactionId          int64
	OperationHandleRef      mdib.Handle
	InvocationState         mdib.InvocationState
	InvocationError         mdib.InvocationError
	InvocationErrorMessage string
	InvocationSource        string
}

// Report is one emitted report: either an episodic/periodic state report
// for a single family, a DescriptionModificationReport, a WaveformStream,
// or an OperationInvokedReport.
type Report struct {
	Family       mdib.ReportFamily
	VersionGroup mdib.MdibVersionGroup
	Periodic     bool

	// Episodic state reports (Metric/Alert/Component/Context/Operational).
	States []*mdib.State

	// DescriptionModificationReport.
	DescriptionParts []DescriptionPart

	// Periodic variants: aggregated queue drain, each entry tagged with
	// its original MdibVersion.
	PeriodicEntries []PeriodicEntry

	// OperationInvokedReport.
	OperationInvoked *OperationInvokedBody
}

// ActionName returns the symbolic action identifying this report's shape,
// e.g. "EpisodicMetricReport" or "PeriodicAlertReport". The SOAP layer
// maps this to the profile's concrete action URI.
func (r *Report) ActionName() string {
	if r.OperationInvoked != nil {
		return "OperationInvokedReport"
	}
	if r.Family == mdib.ReportFamilyDescription {
		return "DescriptionModificationReport"
	}
	if r.Family == mdib.ReportFamilyWaveform {
		return "WaveformStream"
	}
	prefix := "Episodic"
	if r.Periodic {
		prefix = "Periodic"
	}
	return prefix + r.Family.String() + "Report"
}

// IsEmpty reports whether the report carries no content and should not be
// emitted (a truly empty transaction is a no-op per §8).
func (r *Report) IsEmpty() bool {
	return len(r.States) == 0 && len(r.DescriptionParts) == 0 &&
		len(r.PeriodicEntries) == 0 && r.OperationInvoked == nil
}

// BuildEpisodic constructs an episodic state report for the given family.
func BuildEpisodic(family mdib.ReportFamily, vg mdib.MdibVersionGroup, states []*mdib.State) *Report {
	return &Report{Family: family, VersionGroup: vg, States: states}
}

// BuildWaveform constructs a WaveformStream body.
func BuildWaveform(vg mdib.MdibVersionGroup, states []*mdib.State) *Report {
	return &Report{Family: mdib.ReportFamilyWaveform, VersionGroup: vg, States: states}
}

// BuildDescriptionModification constructs a DescriptionModificationReport.
func BuildDescriptionModification(vg mdib.MdibVersionGroup, parts []DescriptionPart) *Report {
	return &Report{Family: mdib.ReportFamilyDescription, VersionGroup: vg, DescriptionParts: parts}
}

// BuildPeriodic constructs a periodic variant of family from a drained
// queue of entries, preserving entry boundaries and their original
// versions (§4.6 step 3).
func BuildPeriodic(family mdib.ReportFamily, vg mdib.MdibVersionGroup, entries []PeriodicEntry) *Report {
	return &Report{Family: family, VersionGroup: vg, Periodic: true, PeriodicEntries: entries}
}

// BuildOperationInvoked constructs an OperationInvokedReport.
func BuildOperationInvoked(vg mdib.MdibVersionGroup, body OperationInvokedBody) *Report {
	return &Report{Family: mdib.ReportFamilyOperationInvoked, VersionGroup: vg, OperationInvoked: &body}
}
