package mdib

import "time"

// MetricQuality captures the validity/determination facets BICEPS attaches
// to every metric value.
type MetricQuality struct {
	Validity string // Vld, Vldated, NA, Oflw, Uflw, Qst, Calib, Inv
}

// NumericMetricStateData holds the runtime fields of a numeric metric.
type NumericMetricStateData struct {
	Value            *float64
	Quality          MetricQuality
	DeterminationTime time.Time
}

// StringMetricStateData holds the runtime fields of a string or
// enum-string metric.
type StringMetricStateData struct {
	Value             *string
	Quality           MetricQuality
	DeterminationTime time.Time
}

// Sample is one value in a real-time sample array.
type Sample struct {
	Value float64
}

// RealTimeSampleArrayMetricStateData holds the runtime fields of a waveform
// metric: a batch of samples sharing one DeterminationTime and the sample
// period recorded on the descriptor.
type RealTimeSampleArrayMetricStateData struct {
	Samples           []Sample
	Quality           MetricQuality
	DeterminationTime time.Time
}

// AlertSystemStateData holds the runtime fields of an alert system.
type AlertSystemStateData struct {
	SystemSignalActivation string // On, Off, Psd
	LastSelfCheck          time.Time
	SelfCheckCount         int
}

// AlertConditionStateData holds the runtime fields of an alert condition or
// limit alert condition.
type AlertConditionStateData struct {
	ActivationState string // On, Off, Psd
	Presence        bool
	ActualPriority  *string
	Rank            *int
}

// AlertSignalStateData holds the runtime fields of an alert signal.
type AlertSignalStateData struct {
	ActivationState string // On, Off, Psd, Latch
	Presence        string // On, Off, Latch, Ack
	Location        string // Loc, Rem
	Slot            *int
}

// ComponentStateData holds the runtime fields shared by component state
// subtypes (battery, clock, system-context, sco, vmd/channel/mds activation).
type ComponentStateData struct {
	ActivationState    string // On, NotRdy, StndBy, Off, Shtdn, Fail
	OperatingHours     *int
	CapacityRemaining  *float64 // battery
	BatteryVoltage     *float64
	RemainingBatteryTime *time.Duration
}

// ContextStateData holds the runtime fields shared by context state
// subtypes beyond the common multi-state association header.
type ContextStateData struct {
	Identification []Coding
	Validator      []Coding
}

// OperationStateData holds the runtime fields of an operation.
type OperationStateData struct {
	OperatingMode string // En, Dis, NA
}

// State is the runtime-values counterpart of a Descriptor. A single-state
// entity (metric/alert/component/operation) carries exactly one; a
// context descriptor addresses zero or more by their own Handle.
type State struct {
	// Handle is set only for multi-states (context states); empty for
	// single-states, which are addressed solely by DescriptorHandle.
	Handle Handle

	DescriptorHandle  Handle
	DescriptorVersion Version
	StateVersion      Version
	NodeType          NodeType

	// Context-state association lifetime; zero-valued for single-states.
	ContextAssociation   ContextAssociation
	BindingMdibVersion   Version
	UnbindingMdibVersion Version

	NumericMetric   *NumericMetricStateData
	StringMetric    *StringMetricStateData
	Waveform        *RealTimeSampleArrayMetricStateData
	AlertSystem     *AlertSystemStateData
	AlertCondition  *AlertConditionStateData
	AlertSignal     *AlertSignalStateData
	Component       *ComponentStateData
	Context         *ContextStateData
	Operation       *OperationStateData
}

// IsMultiState reports whether this state belongs to a context descriptor
// and therefore carries its own Handle distinct from DescriptorHandle.
func (s *State) IsMultiState() bool {
	return s.NodeType.IsContext()
}

// Clone returns a deep-enough copy so mutating the result never reaches
// back into the entity table's stored copy.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	c := *s
	if s.NumericMetric != nil {
		d := *s.NumericMetric
		if s.NumericMetric.Value != nil {
			v := *s.NumericMetric.Value
			d.Value = &v
		}
		c.NumericMetric = &d
	}
	if s.StringMetric != nil {
		d := *s.StringMetric
		if s.StringMetric.Value != nil {
			v := *s.StringMetric.Value
			d.Value = &v
		}
		c.StringMetric = &d
	}
	if s.Waveform != nil {
		d := *s.Waveform
		d.Samples = append([]Sample(nil), s.Waveform.Samples...)
		c.Waveform = &d
	}
	if s.AlertSystem != nil {
		d := *s.AlertSystem
		c.AlertSystem = &d
	}
	if s.AlertCondition != nil {
		d := *s.AlertCondition
		c.AlertCondition = &d
	}
	if s.AlertSignal != nil {
		d := *s.AlertSignal
		c.AlertSignal = &d
	}
	if s.Component != nil {
		d := *s.Component
		c.Component = &d
	}
	if s.Context != nil {
		d := *s.Context
		d.Identification = append([]Coding(nil), s.Context.Identification...)
		d.Validator = append([]Coding(nil), s.Context.Validator...)
		c.Context = &d
	}
	if s.Operation != nil {
		d := *s.Operation
		c.Operation = &d
	}
	return &c
}

// Equal reports whether two states describe the same observable values,
// ignoring StateVersion. Used by the consumer mirror's version-gate to
// decide whether a same-version report is a harmless duplicate or a
// provider-contract violation (§4.8).
func (s *State) Equal(o *State) bool {
	if s == nil || o == nil {
		return s == o
	}
	a, b := *s, *o
	a.StateVersion, b.StateVersion = 0, 0
	return equalStateData(&a, &b)
}

func equalStateData(a, b *State) bool {
	if a.Handle != b.Handle || a.DescriptorHandle != b.DescriptorHandle || a.DescriptorVersion != b.DescriptorVersion {
		return false
	}
	if a.NodeType != b.NodeType {
		return false
	}
	if a.ContextAssociation != b.ContextAssociation ||
		a.BindingMdibVersion != b.BindingMdibVersion || a.UnbindingMdibVersion != b.UnbindingMdibVersion {
		return false
	}
	if a.NumericMetric != nil || b.NumericMetric != nil {
		if a.NumericMetric == nil || b.NumericMetric == nil {
			return false
		}
		if !floatPtrEqual(a.NumericMetric.Value, b.NumericMetric.Value) {
			return false
		}
		if a.NumericMetric.Quality != b.NumericMetric.Quality {
			return false
		}
		if !a.NumericMetric.DeterminationTime.Equal(b.NumericMetric.DeterminationTime) {
			return false
		}
	}
	if a.StringMetric != nil || b.StringMetric != nil {
		if a.StringMetric == nil || b.StringMetric == nil {
			return false
		}
		if !stringPtrEqual(a.StringMetric.Value, b.StringMetric.Value) {
			return false
		}
		if a.StringMetric.Quality != b.StringMetric.Quality {
			return false
		}
		if !a.StringMetric.DeterminationTime.Equal(b.StringMetric.DeterminationTime) {
			return false
		}
	}
	if a.Waveform != nil || b.Waveform != nil {
		if a.Waveform == nil || b.Waveform == nil {
			return false
		}
		if a.Waveform.Quality != b.Waveform.Quality {
			return false
		}
		if !a.Waveform.DeterminationTime.Equal(b.Waveform.DeterminationTime) {
			return false
		}
		if len(a.Waveform.Samples) != len(b.Waveform.Samples) {
			return false
		}
		for i := range a.Waveform.Samples {
			if a.Waveform.Samples[i] != b.Waveform.Samples[i] {
				return false
			}
		}
	}
	if a.AlertSystem != nil || b.AlertSystem != nil {
		if a.AlertSystem == nil || b.AlertSystem == nil {
			return false
		}
		if a.AlertSystem.SystemSignalActivation != b.AlertSystem.SystemSignalActivation ||
			a.AlertSystem.SelfCheckCount != b.AlertSystem.SelfCheckCount ||
			!a.AlertSystem.LastSelfCheck.Equal(b.AlertSystem.LastSelfCheck) {
			return false
		}
	}
	if a.AlertCondition != nil || b.AlertCondition != nil {
		if a.AlertCondition == nil || b.AlertCondition == nil {
			return false
		}
		if a.AlertCondition.Presence != b.AlertCondition.Presence ||
			a.AlertCondition.ActivationState != b.AlertCondition.ActivationState {
			return false
		}
		if !stringPtrEqual(a.AlertCondition.ActualPriority, b.AlertCondition.ActualPriority) {
			return false
		}
		if !intPtrEqual(a.AlertCondition.Rank, b.AlertCondition.Rank) {
			return false
		}
	}
	if a.AlertSignal != nil || b.AlertSignal != nil {
		if a.AlertSignal == nil || b.AlertSignal == nil {
			return false
		}
		if a.AlertSignal.ActivationState != b.AlertSignal.ActivationState ||
			a.AlertSignal.Presence != b.AlertSignal.Presence ||
			a.AlertSignal.Location != b.AlertSignal.Location {
			return false
		}
		if !intPtrEqual(a.AlertSignal.Slot, b.AlertSignal.Slot) {
			return false
		}
	}
	if a.Component != nil || b.Component != nil {
		if a.Component == nil || b.Component == nil {
			return false
		}
		if a.Component.ActivationState != b.Component.ActivationState {
			return false
		}
		if !intPtrEqual(a.Component.OperatingHours, b.Component.OperatingHours) {
			return false
		}
		if !floatPtrEqual(a.Component.CapacityRemaining, b.Component.CapacityRemaining) {
			return false
		}
		if !floatPtrEqual(a.Component.BatteryVoltage, b.Component.BatteryVoltage) {
			return false
		}
		if !durationPtrEqual(a.Component.RemainingBatteryTime, b.Component.RemainingBatteryTime) {
			return false
		}
	}
	if a.Context != nil || b.Context != nil {
		if a.Context == nil || b.Context == nil {
			return false
		}
		if !codingsEqual(a.Context.Identification, b.Context.Identification) {
			return false
		}
		if !codingsEqual(a.Context.Validator, b.Context.Validator) {
			return false
		}
	}
	if a.Operation != nil || b.Operation != nil {
		if a.Operation == nil || b.Operation == nil {
			return false
		}
		if a.Operation.OperatingMode != b.Operation.OperatingMode {
			return false
		}
	}
	return true
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func stringPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func durationPtrEqual(a, b *time.Duration) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func codingsEqual(a, b []Coding) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
