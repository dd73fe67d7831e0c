package dispatch

import (
	"fmt"
	"slices"
	"time"
)

// Coordinator owns the shared dispatch state: the three entity collections
// and the set of authorized personnel. Every mutation validates all
// preconditions before touching state, so a returned error guarantees no
// partial effects.
type Coordinator struct {
	// admin is the root identity. It is always authorized and cannot be removed.
	admin string
	// now supplies wall-clock time for new reports.
	now func() time.Time

	// emergencies is indexed by id-1; ids are dense and start at 1.
	emergencies []*Emergency
	// resources is indexed by id-1; ids are dense and start at 1.
	resources []*Resource
	// responders is keyed by responder identity.
	responders map[string]*Responder
	// authorized holds identities permitted to perform privileged operations.
	authorized map[string]struct{}
}

// Option configures coordinator behaviour.
type Option func(*Coordinator)

// WithClock overrides the wall-clock source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates an empty coordinator rooted at the given admin identity.
func New(admin string, opts ...Option) (*Coordinator, error) {
	if admin == "" {
		return nil, fmt.Errorf("admin identity is required: %w", ErrInvalidInput)
	}

	c := &Coordinator{
		admin:      admin,
		now:        time.Now,
		responders: make(map[string]*Responder),
		authorized: make(map[string]struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Admin returns the root identity.
func (c *Coordinator) Admin() string {
	return c.admin
}

// IsAuthorized reports whether the identity may perform privileged operations.
// The admin identity is always authorized.
func (c *Coordinator) IsAuthorized(identity string) bool {
	if identity == c.admin {
		return true
	}

	_, ok := c.authorized[identity]

	return ok
}

// Authorize adds the identity to the authorized personnel set. Only the admin
// may call it; adding an existing member is a no-op.
func (c *Coordinator) Authorize(caller, identity string) error {
	if caller != c.admin {
		return fmt.Errorf("only admin %q may authorize personnel: %w", c.admin, ErrUnauthorized)
	}

	if identity == "" {
		return fmt.Errorf("identity is required: %w", ErrInvalidInput)
	}

	c.authorized[identity] = struct{}{}

	return nil
}

// ReportEmergency records a new emergency with status REPORTED and returns a
// copy of the stored record. Reporting is open: any identity may call it.
func (c *Coordinator) ReportEmergency(reporter string, report EmergencyReport) (*Emergency, error) {
	if report.Description == "" {
		return nil, fmt.Errorf("description is required: %w", ErrInvalidInput)
	}

	if report.Location == "" {
		return nil, fmt.Errorf("location is required: %w", ErrInvalidInput)
	}

	if !report.Type.Valid() {
		return nil, fmt.Errorf("unknown emergency type %q: %w", report.Type, ErrInvalidInput)
	}

	if report.Priority < MinPriority || report.Priority > MaxPriority {
		return nil, fmt.Errorf("priority %d is out of range [%d,%d]: %w",
			report.Priority, MinPriority, MaxPriority, ErrInvalidInput)
	}

	emergency := &Emergency{
		ID:          uint64(len(c.emergencies)) + 1,
		ReportedBy:  reporter,
		Description: report.Description,
		Location:    report.Location,
		Type:        report.Type,
		Status:      StatusReported,
		Priority:    report.Priority,
		ReportedAt:  c.now(),
	}
	c.emergencies = append(c.emergencies, emergency)

	return emergency.Clone(), nil
}

// AssignResponders appends the batch of responders to the emergency and marks
// each unavailable; the emergency transitions REPORTED -> ASSIGNED. The call
// is all-or-nothing: if any candidate is unknown, inactive or unavailable,
// nothing is assigned. An identity repeated within the batch fails the call
// the same way, since the first occurrence claims its availability.
func (c *Coordinator) AssignResponders(caller string, emergencyID uint64, responderIDs []string) (*Emergency, error) {
	if !c.IsAuthorized(caller) {
		return nil, fmt.Errorf("caller %q is not authorized personnel: %w", caller, ErrUnauthorized)
	}

	emergency, err := c.emergency(emergencyID)
	if err != nil {
		return nil, err
	}

	if emergency.Status != StatusReported {
		return nil, fmt.Errorf("emergency %d has status %s, expected %s: %w",
			emergencyID, emergency.Status, StatusReported, ErrInvalidState)
	}

	if len(responderIDs) == 0 {
		return nil, fmt.Errorf("at least one responder is required: %w", ErrInvalidInput)
	}

	// Validation pass over the whole batch before any mutation.
	claimed := make(map[string]struct{}, len(responderIDs))

	for _, id := range responderIDs {
		responder, ok := c.responders[id]
		if !ok || !responder.Active || !responder.Available {
			return nil, fmt.Errorf("responder %q: %w", id, ErrResponderUnavailable)
		}

		if _, dup := claimed[id]; dup {
			return nil, fmt.Errorf("responder %q listed twice in one assignment: %w", id, ErrResponderUnavailable)
		}

		claimed[id] = struct{}{}
	}

	for _, id := range responderIDs {
		c.responders[id].Available = false
		emergency.Responders = append(emergency.Responders, id)
	}

	emergency.Status = StatusAssigned

	return emergency.Clone(), nil
}

// AllocateResources moves quantity units from the resource to the emergency's
// cumulative allocation. The emergency must be ASSIGNED or IN_PROGRESS; when
// the resource's remaining quantity reaches zero it becomes unavailable.
func (c *Coordinator) AllocateResources(
	caller string,
	emergencyID, resourceID, quantity uint64,
) (*Emergency, *Resource, error) {
	if !c.IsAuthorized(caller) {
		return nil, nil, fmt.Errorf("caller %q is not authorized personnel: %w", caller, ErrUnauthorized)
	}

	emergency, err := c.emergency(emergencyID)
	if err != nil {
		return nil, nil, err
	}

	if emergency.Status != StatusAssigned && emergency.Status != StatusInProgress {
		return nil, nil, fmt.Errorf("emergency %d has status %s, expected %s or %s: %w",
			emergencyID, emergency.Status, StatusAssigned, StatusInProgress, ErrInvalidState)
	}

	if quantity == 0 {
		return nil, nil, fmt.Errorf("quantity must be positive: %w", ErrInvalidInput)
	}

	resource, err := c.resource(resourceID)
	if err != nil {
		return nil, nil, err
	}

	if !resource.Available || resource.Quantity < quantity {
		return nil, nil, fmt.Errorf("resource %d has %d remaining, requested %d: %w",
			resourceID, resource.Quantity, quantity, ErrInsufficientResource)
	}

	resource.Quantity -= quantity
	if resource.Quantity == 0 {
		resource.Available = false
	}

	emergency.ResourcesAllocated += quantity

	return emergency.Clone(), resource.Clone(), nil
}

// UpdateEmergencyStatus sets the emergency status on behalf of an assigned
// active responder. Transitions are deliberately unvalidated beyond the
// assignment check; resolving an emergency frees all assigned responders and
// credits their handled counts exactly once.
func (c *Coordinator) UpdateEmergencyStatus(
	caller string,
	emergencyID uint64,
	status EmergencyStatus,
) (*Emergency, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("unknown status %q: %w", status, ErrInvalidInput)
	}

	emergency, err := c.emergency(emergencyID)
	if err != nil {
		return nil, err
	}

	responder, ok := c.responders[caller]
	if !ok || !responder.Active || !slices.Contains(emergency.Responders, caller) {
		return nil, fmt.Errorf("caller %q is not assigned to emergency %d: %w", caller, emergencyID, ErrNotAssigned)
	}

	previous := emergency.Status
	emergency.Status = status

	// The only path returning responders to the available pool. Guarded on
	// the transition so repeated resolves cannot double-credit.
	if status == StatusResolved && previous != StatusResolved {
		for _, id := range emergency.Responders {
			assigned := c.responders[id]
			assigned.Available = true
			assigned.EmergenciesHandled++
		}
	}

	return emergency.Clone(), nil
}

// RegisterResponder creates a responder record for the identity. Registering
// an identity that is already active fails with ErrAlreadyRegistered.
func (c *Coordinator) RegisterResponder(caller string, registration ResponderRegistration) (*Responder, error) {
	if !c.IsAuthorized(caller) {
		return nil, fmt.Errorf("caller %q is not authorized personnel: %w", caller, ErrUnauthorized)
	}

	if registration.ID == "" {
		return nil, fmt.Errorf("responder identity is required: %w", ErrInvalidInput)
	}

	if registration.Name == "" {
		return nil, fmt.Errorf("responder name is required: %w", ErrInvalidInput)
	}

	if !registration.Type.Valid() {
		return nil, fmt.Errorf("unknown responder type %q: %w", registration.Type, ErrInvalidInput)
	}

	if existing, ok := c.responders[registration.ID]; ok && existing.Active {
		return nil, fmt.Errorf("responder %q: %w", registration.ID, ErrAlreadyRegistered)
	}

	responder := &Responder{
		ID:        registration.ID,
		Name:      registration.Name,
		Type:      registration.Type,
		Active:    true,
		Available: true,
		Location:  registration.Location,
		Rating:    DefaultRating,
	}
	c.responders[registration.ID] = responder

	return responder.Clone(), nil
}

// AddResource registers a new allocatable resource and returns a copy of the
// stored record with its assigned id.
func (c *Coordinator) AddResource(caller, name string, quantity uint64, location string) (*Resource, error) {
	if !c.IsAuthorized(caller) {
		return nil, fmt.Errorf("caller %q is not authorized personnel: %w", caller, ErrUnauthorized)
	}

	if name == "" {
		return nil, fmt.Errorf("resource name is required: %w", ErrInvalidInput)
	}

	if quantity == 0 {
		return nil, fmt.Errorf("quantity must be positive: %w", ErrInvalidInput)
	}

	resource := &Resource{
		ID:        uint64(len(c.resources)) + 1,
		Name:      name,
		Quantity:  quantity,
		Location:  location,
		Available: true,
	}
	c.resources = append(c.resources, resource)

	return resource.Clone(), nil
}

// Emergency returns a copy of the emergency record.
func (c *Coordinator) Emergency(id uint64) (*Emergency, error) {
	emergency, err := c.emergency(id)
	if err != nil {
		return nil, err
	}

	return emergency.Clone(), nil
}

// Responder returns a copy of the responder record. Unregistered identities
// yield a zero-value record rather than an error.
func (c *Coordinator) Responder(identity string) *Responder {
	responder, ok := c.responders[identity]
	if !ok {
		return new(Responder)
	}

	return responder.Clone()
}

// Resource returns a copy of the resource record.
func (c *Coordinator) Resource(id uint64) (*Resource, error) {
	resource, err := c.resource(id)
	if err != nil {
		return nil, err
	}

	return resource.Clone(), nil
}

// AssignedResponders returns the emergency's assigned responder identities in
// assignment order.
func (c *Coordinator) AssignedResponders(id uint64) ([]string, error) {
	emergency, err := c.emergency(id)
	if err != nil {
		return nil, err
	}

	return append([]string(nil), emergency.Responders...), nil
}

// emergency resolves an id to the stored record; id 0 is never valid.
func (c *Coordinator) emergency(id uint64) (*Emergency, error) {
	if id == 0 || id > uint64(len(c.emergencies)) {
		return nil, fmt.Errorf("emergency %d: %w", id, ErrNotFound)
	}

	return c.emergencies[id-1], nil
}

// resource resolves an id to the stored record; id 0 is never valid.
func (c *Coordinator) resource(id uint64) (*Resource, error) {
	if id == 0 || id > uint64(len(c.resources)) {
		return nil, fmt.Errorf("resource %d: %w", id, ErrNotFound)
	}

	return c.resources[id-1], nil
}
