package mdib

import "time"

// RetrievabilityMode is how a descriptor's state may be obtained, per §3.
type RetrievabilityMode int

const (
	RetrievabilityEpisodic RetrievabilityMode = iota
	RetrievabilityPeriodic
	RetrievabilityGet
)

// Retrievability is one retrievability hint attached to a descriptor; a
// descriptor may carry several (e.g. both episodic and periodic).
type Retrievability struct {
	Mode   RetrievabilityMode
	Period time.Duration // meaningful only when Mode == RetrievabilityPeriodic
}

// MetricDescriptorData holds the fields specific to the metric descriptor
// subtypes (numeric, string, enum-string, real-time-sample-array).
type MetricDescriptorData struct {
	Unit               Coding
	MetricCategory     string // Msrmt, Clc, Set, Preset, RcmmdSet, Unspec
	MetricAvailability string // Cont, Intr

	// NumericMetric
	Resolution *float64

	// EnumStringMetric
	AllowedValues []string

	// RealTimeSampleArrayMetric
	SamplePeriod     time.Duration
	ExpectedValueRange *string
}

// AlertDescriptorData holds the fields specific to the alert descriptor
// subtypes (system, condition, signal, limit-condition).
type AlertDescriptorData struct {
	Priority                       string // Lo, Me, Hi, None
	DefaultConditionGenerationDelay time.Duration

	// AlertConditionDescriptor / LimitAlertConditionDescriptor
	Kind    string // Phy, Tec, Oth
	Sources []Handle

	// LimitAlertConditionDescriptor
	AutoLimitSupported bool

	// AlertSignalDescriptor
	SignalDelegationSupported bool
}

// ComponentDescriptorData holds the fields specific to the component
// descriptor subtypes (battery, clock, system-context, sco).
type ComponentDescriptorData struct {
	// BatteryDescriptor
	CapacityFullCharge *float64
	CapacityVoltage    *float64

	// ClockDescriptor
	TimeResolution *time.Duration
	TimeProtocol   []Coding
}

// ContextDescriptorData holds the fields specific to the context descriptor
// subtypes; currently the BICEPS context subtypes carry no fields beyond the
// shared descriptor header.
type ContextDescriptorData struct{}

// OperationDescriptorData holds the fields specific to the operation
// descriptor subtypes (set-value, set-string, set-metric-state,
// set-alert-state, set-component-state, set-context-state, activate).
type OperationDescriptorData struct {
	OperationTarget  Handle
	MaxTimeToFinish  time.Duration
	Retriggerable    bool
	AccessLevel      string // Usr, Bicr, Csup, Sreq, Oth
}

// Descriptor is a schema node in the MDIB tree. It is modeled as a single
// struct carrying a shared header plus at most one populated variant-data
// pointer, selected by NodeType; this is the closed tagged-union the entity
// table's NODETYPE index discriminates on.
type Descriptor struct {
	Handle            Handle
	ParentHandle      Handle // empty for Mds roots
	NodeType          NodeType
	DescriptorVersion Version
	Type              *Coding
	Source            []Handle
	ConditionSignaled *Handle
	Retrievability    []Retrievability

	Metric    *MetricDescriptorData
	Alert     *AlertDescriptorData
	Component *ComponentDescriptorData
	Context   *ContextDescriptorData
	Operation *OperationDescriptorData
}

// Clone returns a deep-enough copy safe to hand to a caller without letting
// them mutate the entity table's copy through shared pointers.
func (d *Descriptor) Clone() *Descriptor {
	if d == nil {
		return nil
	}
	c := *d
	if d.Type != nil {
		t := *d.Type
		c.Type = &t
	}
	if d.ConditionSignaled != nil {
		h := *d.ConditionSignaled
		c.ConditionSignaled = &h
	}
	c.Source = append([]Handle(nil), d.Source...)
	c.Retrievability = append([]Retrievability(nil), d.Retrievability...)
	if d.Metric != nil {
		m := *d.Metric
		m.AllowedValues = append([]string(nil), d.Metric.AllowedValues...)
		c.Metric = &m
	}
	if d.Alert != nil {
		a := *d.Alert
		a.Sources = append([]Handle(nil), d.Alert.Sources...)
		c.Alert = &a
	}
	if d.Component != nil {
		comp := *d.Component
		comp.TimeProtocol = append([]Coding(nil), d.Component.TimeProtocol...)
		c.Component = &comp
	}
	if d.Context != nil {
		ctx := *d.Context
		c.Context = &ctx
	}
	if d.Operation != nil {
		op := *d.Operation
		c.Operation = &op
	}
	return &c
}

// PeriodsFor returns the configured periodic retrievability intervals for
// this descriptor, in the order they were declared.
func (d *Descriptor) PeriodsFor() []time.Duration {
	var periods []time.Duration
	for _, r := range d.Retrievability {
		if r.Mode == RetrievabilityPeriodic {
			periods = append(periods, r.Period)
		}
	}
	return periods
}
