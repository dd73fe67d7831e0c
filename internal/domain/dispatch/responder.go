package dispatch

// ResponderType categorizes a registered responder.
type ResponderType string

// Supported responder types.
const (
	ResponderMedical        ResponderType = "MEDICAL"
	ResponderFireDepartment ResponderType = "FIRE_DEPARTMENT"
	ResponderPolice         ResponderType = "POLICE"
	ResponderRescueTeam     ResponderType = "RESCUE_TEAM"
	ResponderVolunteer      ResponderType = "VOLUNTEER"
)

// Valid reports whether the value is a known responder type.
func (t ResponderType) Valid() bool {
	switch t {
	case ResponderMedical, ResponderFireDepartment, ResponderPolice, ResponderRescueTeam, ResponderVolunteer:
		return true
	default:
		return false
	}
}

// DefaultRating is the rating assigned to newly registered responders.
const DefaultRating = 100

// Responder is a registered actor capable of being assigned to emergencies.
// A responder is either active and available, or active and unavailable;
// deactivation is not exposed.
type Responder struct {
	// ID is the responder identity. Identities register at most once.
	ID string `json:"id"`
	// Name is the display name.
	Name string `json:"name"`
	// Type categorizes the responder.
	Type ResponderType `json:"type"`
	// Active is true for every registered responder.
	Active bool `json:"active"`
	// Available is false while the responder is assigned to an emergency.
	Available bool `json:"available"`
	// Location is the responder's current location.
	Location string `json:"location"`
	// EmergenciesHandled counts emergencies the responder helped resolve.
	EmergenciesHandled uint64 `json:"emergencies_handled"`
	// Rating is the responder score in 0..100.
	Rating int `json:"rating"`
}

// Clone returns a copy of the responder.
func (r *Responder) Clone() *Responder {
	if r == nil {
		return nil
	}

	cloned := *r

	return &cloned
}

// ResponderRegistration is the input for registering a responder.
type ResponderRegistration struct {
	// ID is the responder identity to register.
	ID string `json:"id"`
	// Name is the display name.
	Name string `json:"name"`
	// Type categorizes the responder.
	Type ResponderType `json:"type"`
	// Location is the responder's current location.
	Location string `json:"location"`
}
