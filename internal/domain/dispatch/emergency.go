package dispatch

import "time"

// EmergencyType categorizes a reported incident.
type EmergencyType string

// Supported emergency types.
const (
	EmergencyMedical         EmergencyType = "MEDICAL"
	EmergencyFire            EmergencyType = "FIRE"
	EmergencyPolice          EmergencyType = "POLICE"
	EmergencyNaturalDisaster EmergencyType = "NATURAL_DISASTER"
	EmergencyAccident        EmergencyType = "ACCIDENT"
)

// Valid reports whether the value is a known emergency type.
func (t EmergencyType) Valid() bool {
	switch t {
	case EmergencyMedical, EmergencyFire, EmergencyPolice, EmergencyNaturalDisaster, EmergencyAccident:
		return true
	default:
		return false
	}
}

// EmergencyStatus tracks an emergency through its lifecycle.
type EmergencyStatus string

// Emergency lifecycle statuses.
const (
	StatusReported   EmergencyStatus = "REPORTED"
	StatusAssigned   EmergencyStatus = "ASSIGNED"
	StatusInProgress EmergencyStatus = "IN_PROGRESS"
	StatusResolved   EmergencyStatus = "RESOLVED"
	StatusCancelled  EmergencyStatus = "CANCELLED"
)

// Valid reports whether the value is a known emergency status.
func (s EmergencyStatus) Valid() bool {
	switch s {
	case StatusReported, StatusAssigned, StatusInProgress, StatusResolved, StatusCancelled:
		return true
	default:
		return false
	}
}

// Priority bounds for emergency reports.
const (
	// MinPriority is the lowest accepted urgency.
	MinPriority = 1
	// MaxPriority is the highest accepted urgency.
	MaxPriority = 5
)

// Emergency is a reported incident tracked through its status lifecycle.
// Records are append-only: they are mutated by transitions but never deleted.
type Emergency struct {
	// ID is the dense, monotonically increasing identifier starting at 1.
	ID uint64 `json:"id"`
	// ReportedBy is the identity that reported the incident.
	ReportedBy string `json:"reported_by"`
	// Description is the free-form incident summary.
	Description string `json:"description"`
	// Location describes where the incident is happening.
	Location string `json:"location"`
	// Type categorizes the incident.
	Type EmergencyType `json:"type"`
	// Status is the current lifecycle state.
	Status EmergencyStatus `json:"status"`
	// Priority is the urgency on the MinPriority..MaxPriority scale.
	Priority int `json:"priority"`
	// ReportedAt is the wall-clock time of the report.
	ReportedAt time.Time `json:"reported_at"`
	// Responders lists assigned responder identities in assignment order.
	Responders []string `json:"responders"`
	// ResourcesAllocated is the cumulative quantity ever allocated to the incident.
	ResourcesAllocated uint64 `json:"resources_allocated"`
}

// Clone returns a deep copy of the emergency to avoid leaking internal references.
func (e *Emergency) Clone() *Emergency {
	if e == nil {
		return nil
	}

	cloned := *e
	cloned.Responders = append([]string(nil), e.Responders...)

	return &cloned
}

// EmergencyReport is the input for reporting a new emergency.
type EmergencyReport struct {
	// Description is the free-form incident summary.
	Description string `json:"description"`
	// Location describes where the incident is happening.
	Location string `json:"location"`
	// Type categorizes the incident.
	Type EmergencyType `json:"type"`
	// Priority is the urgency on the MinPriority..MaxPriority scale.
	Priority int `json:"priority"`
}
