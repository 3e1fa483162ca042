// Package mdib implements the versioned in-memory graph of descriptors and
// states that make up a device's Medical Device Information Base: the entity
// table, the transaction manager that groups mutations into atomic version
// bumps, and the report bodies a transaction commit emits.
package mdib

import "fmt"

// Handle is an opaque non-empty string, unique within an MDIB across both
// descriptors and context states.
type Handle string

// Version is a monotone non-decreasing counter scoped to a single entity.
type Version uint64

// InstanceId disambiguates MDIBs sharing a SequenceId across provider
// restarts on the same host; nil when the provider does not set one.
type InstanceId = *uint32

// MdibVersionGroup is the triple that accompanies every report and every
// GetMdib response, identifying the exact MDIB snapshot a message describes.
type MdibVersionGroup struct {
	MdibVersion Version
	SequenceId  string
	InstanceId  InstanceId
}

// Coding is a coded value (code + optional coding system) used for
// descriptor Type attributes and code-path lookups.
type Coding struct {
	Code          string
	CodingSystem  string
	CodingVersion string
}

// Equal reports whether two codings denote the same coded value.
func (c Coding) Equal(o Coding) bool {
	return c.Code == o.Code && c.CodingSystem == o.CodingSystem && c.CodingVersion == o.CodingVersion
}

// NodeType discriminates descriptor (and, transitively, state) subtypes. It
// is the tag recovered from an inbound xsi:type attribute and the
// discriminator the entity table indexes by.
type NodeType int

const (
	NodeTypeUnspecified NodeType = iota

	NodeTypeMds
	NodeTypeVmd
	NodeTypeChannel

	NodeTypeNumericMetric
	NodeTypeStringMetric
	NodeTypeEnumStringMetric
	NodeTypeRealTimeSampleArrayMetric

	NodeTypeAlertSystem
	NodeTypeAlertCondition
	NodeTypeAlertSignal
	NodeTypeLimitAlertCondition

	NodeTypeBattery
	NodeTypeClock
	NodeTypeSystemContext
	NodeTypeSco

	NodeTypePatientContext
	NodeTypeLocationContext
	NodeTypeEnsembleContext
	NodeTypeWorkflowContext
	NodeTypeOperatorContext
	NodeTypeMeansContext

	NodeTypeSetValueOperation
	NodeTypeSetStringOperation
	NodeTypeSetMetricStateOperation
	NodeTypeSetAlertStateOperation
	NodeTypeSetComponentStateOperation
	NodeTypeSetContextStateOperation
	NodeTypeActivateOperation
)

var nodeTypeNames = map[NodeType]string{
	NodeTypeMds:                         "Mds",
	NodeTypeVmd:                         "Vmd",
	NodeTypeChannel:                     "Channel",
	NodeTypeNumericMetric:               "NumericMetric",
	NodeTypeStringMetric:                "StringMetric",
	NodeTypeEnumStringMetric:            "EnumStringMetric",
	NodeTypeRealTimeSampleArrayMetric:   "RealTimeSampleArrayMetric",
	NodeTypeAlertSystem:                 "AlertSystem",
	NodeTypeAlertCondition:              "AlertCondition",
	NodeTypeAlertSignal:                 "AlertSignal",
	NodeTypeLimitAlertCondition:         "LimitAlertCondition",
	NodeTypeBattery:                     "Battery",
	NodeTypeClock:                       "Clock",
	NodeTypeSystemContext:               "SystemContext",
	NodeTypeSco:                         "Sco",
	NodeTypePatientContext:              "PatientContext",
	NodeTypeLocationContext:             "LocationContext",
	NodeTypeEnsembleContext:             "EnsembleContext",
	NodeTypeWorkflowContext:             "WorkflowContext",
	NodeTypeOperatorContext:             "OperatorContext",
	NodeTypeMeansContext:                "MeansContext",
	NodeTypeSetValueOperation:           "SetValueOperation",
	NodeTypeSetStringOperation:          "SetStringOperation",
	NodeTypeSetMetricStateOperation:     "SetMetricStateOperation",
	NodeTypeSetAlertStateOperation:      "SetAlertStateOperation",
	NodeTypeSetComponentStateOperation:  "SetComponentStateOperation",
	NodeTypeSetContextStateOperation:    "SetContextStateOperation",
	NodeTypeActivateOperation:           "ActivateOperation",
}

// String returns the BICEPS QName local part for the node type.
func (n NodeType) String() string {
	if name, ok := nodeTypeNames[n]; ok {
		return name
	}
	return fmt.Sprintf("Unspecified(%d)", int(n))
}

// IsContext reports whether the node type is one of the context descriptor
// subtypes, which carry multi-state rather than single-state.
func (n NodeType) IsContext() bool {
	switch n {
	case NodeTypePatientContext, NodeTypeLocationContext, NodeTypeEnsembleContext,
		NodeTypeWorkflowContext, NodeTypeOperatorContext, NodeTypeMeansContext:
		return true
	default:
		return false
	}
}

// IsOperation reports whether the node type is one of the operation
// descriptor subtypes hosted under an Sco.
func (n NodeType) IsOperation() bool {
	switch n {
	case NodeTypeSetValueOperation, NodeTypeSetStringOperation, NodeTypeSetMetricStateOperation,
		NodeTypeSetAlertStateOperation, NodeTypeSetComponentStateOperation,
		NodeTypeSetContextStateOperation, NodeTypeActivateOperation:
		return true
	default:
		return false
	}
}

// ContextAssociation is the lifetime state of a context (multi-)state.
type ContextAssociation int

const (
	ContextAssociationNo ContextAssociation = iota
	ContextAssociationPre
	ContextAssociationAssoc
	ContextAssociationDis
)

func (c ContextAssociation) String() string {
	switch c {
	case ContextAssociationNo:
		return "No"
	case ContextAssociationPre:
		return "Pre"
	case ContextAssociationAssoc:
		return "Assoc"
	case ContextAssociationDis:
		return "Dis"
	default:
		return "Unknown"
	}
}

// ModificationType tags a ReportPart of a DescriptionModificationReport.
type ModificationType int

const (
	ModificationCrt ModificationType = iota
	ModificationUpt
	ModificationDel
)

func (m ModificationType) String() string {
	switch m {
	case ModificationCrt:
		return "Crt"
	case ModificationUpt:
		return "Upt"
	case ModificationDel:
		return "Del"
	default:
		return "Unknown"
	}
}

// ReportFamily identifies which grouping a committed state change is
// reported under.
type ReportFamily int

const (
	ReportFamilyMetric ReportFamily = iota
	ReportFamilyAlert
	ReportFamilyComponent
	ReportFamilyContext
	ReportFamilyOperational
	ReportFamilyWaveform
	ReportFamilyDescription
	ReportFamilyOperationInvoked
)

func (f ReportFamily) String() string {
	switch f {
	case ReportFamilyMetric:
		return "Metric"
	case ReportFamilyAlert:
		return "Alert"
	case ReportFamilyComponent:
		return "Component"
	case ReportFamilyContext:
		return "Context"
	case ReportFamilyOperational:
		return "Operational"
	case ReportFamilyWaveform:
		return "Waveform"
	case ReportFamilyDescription:
		return "Description"
	case ReportFamilyOperationInvoked:
		return "OperationInvoked"
	default:
		return "Unknown"
	}
}

// ParseReportFamily resolves a config-file family name (as used in
// PeriodicConfig.Periods) back to its ReportFamily constant.
func ParseReportFamily(name string) (ReportFamily, bool) {
	switch name {
	case "Metric":
		return ReportFamilyMetric, true
	case "Alert":
		return ReportFamilyAlert, true
	case "Component":
		return ReportFamilyComponent, true
	case "Context":
		return ReportFamilyContext, true
	case "Operational":
		return ReportFamilyOperational, true
	case "Waveform":
		return ReportFamilyWaveform, true
	case "Description":
		return ReportFamilyDescription, true
	case "OperationInvoked":
		return ReportFamilyOperationInvoked, true
	default:
		return 0, false
	}
}

// ReportFamilyOf returns the report family a state of the given node type is
// grouped and delivered under.
func ReportFamilyOf(n NodeType) ReportFamily {
	switch {
	case n == NodeTypeRealTimeSampleArrayMetric:
		return ReportFamilyWaveform
	case n == NodeTypeNumericMetric || n == NodeTypeStringMetric || n == NodeTypeEnumStringMetric:
		return ReportFamilyMetric
	case n == NodeTypeAlertSystem || n == NodeTypeAlertCondition || n == NodeTypeAlertSignal || n == NodeTypeLimitAlertCondition:
		return ReportFamilyAlert
	case n == NodeTypeMds || n == NodeTypeVmd || n == NodeTypeChannel || n == NodeTypeBattery ||
		n == NodeTypeClock || n == NodeTypeSystemContext || n == NodeTypeSco:
		return ReportFamilyComponent
	case n.IsContext():
		return ReportFamilyContext
	case n.IsOperation():
		return ReportFamilyOperational
	default:
		return ReportFamilyComponent
	}
}

// InvocationState is the lifecycle stage of an asynchronous operation
// invocation, reported on each OperationInvokedReport.
type InvocationState int

const (
	InvocationWait InvocationState = iota
	InvocationStart
	InvocationFin
	InvocationFinMod
	InvocationCnclld
	InvocationCnclldMan
	InvocationFail
)

func (s InvocationState) String() string {
	switch s {
	case InvocationWait:
		return "Wait"
	case InvocationStart:
		return "Start"
	case InvocationFin:
		return "Fin"
	case InvocationFinMod:
		return "FinMod"
	case InvocationCnclld:
		return "Cnclld"
	case InvocationCnclldMan:
		return "CnclldMan"
	case InvocationFail:
		return "Fail"
	default:
		return "Unknown"
	}
}

// InvocationError classifies why an invocation reached InvocationFail.
type InvocationError int

const (
	InvocationErrorNone InvocationError = iota
	InvocationErrorUnspecified
	InvocationErrorUnknownOperation
	InvocationErrorInvalidValue
	InvocationErrorOther
)

func (e InvocationError) String() string {
	switch e {
	case InvocationErrorNone:
		return "None"
	case InvocationErrorUnspecified:
		return "Unspecified"
	case InvocationErrorUnknownOperation:
		return "UnknownOperation"
	case InvocationErrorInvalidValue:
		return "InvalidValue"
	case InvocationErrorOther:
		return "Oth"
	default:
		return "Unknown"
	}
}

// InvocationSource is fixed to the AnonymousSdcParticipant profile identifier
// on every OperationInvokedReport this stack emits.
const InvocationSource = "AnonymousSdcParticipant"

// Index names one of the secondary indices the entity table maintains
// alongside its primary by-handle index (§4.1).
type Index int

const (
	// IndexParentHandle looks up children of a descriptor.
	IndexParentHandle Index = iota
	// IndexNodeType looks up every entity of a given NodeType.
	IndexNodeType
	// IndexConditionSignaled looks up alert signals by the condition
	// handle they signal.
	IndexConditionSignaled
	// IndexSource looks up metrics/alert conditions by a source
	// component handle.
	IndexSource
	// IndexContextStateHandle looks up the owning context descriptor of
	// a context state by the state's own Handle.
	IndexContextStateHandle
)
