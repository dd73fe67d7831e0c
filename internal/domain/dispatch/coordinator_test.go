package dispatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testAdmin = "admin@hq"

// newTestCoordinator builds a coordinator with a fixed clock for deterministic timestamps.
func newTestCoordinator(t *testing.T) *Coordinator {
	t.Helper()

	c, err := New(testAdmin, WithClock(func() time.Time {
		return time.Unix(1700000000, 0).UTC()
	}))
	require.NoError(t, err)

	return c
}

// registerTestResponder registers a responder through the admin identity.
func registerTestResponder(t *testing.T, c *Coordinator, id string) {
	t.Helper()

	_, err := c.RegisterResponder(testAdmin, ResponderRegistration{
		ID:       id,
		Name:     "Responder " + id,
		Type:     ResponderMedical,
		Location: "Station 1",
	})
	require.NoError(t, err)
}

// reportTestEmergency reports a valid emergency and returns its id.
func reportTestEmergency(t *testing.T, c *Coordinator) uint64 {
	t.Helper()

	emergency, err := c.ReportEmergency("citizen-1", EmergencyReport{
		Description: "Apartment fire",
		Location:    "12 Main St",
		Type:        EmergencyFire,
		Priority:    4,
	})
	require.NoError(t, err)

	return emergency.ID
}

// TestNew_RequiresAdmin verifies the admin identity is mandatory.
func TestNew_RequiresAdmin(t *testing.T) {
	t.Parallel()

	_, err := New("")
	require.ErrorIs(t, err, ErrInvalidInput)
}

// TestReportEmergency_Validation rejects empty fields and out-of-range priority.
func TestReportEmergency_Validation(t *testing.T) {
	t.Parallel()

	c := newTestCoordinator(t)

	cases := map[string]EmergencyReport{
		"empty description": {Location: "12 Main St", Type: EmergencyFire, Priority: 3},
		"empty location":    {Description: "Fire", Type: EmergencyFire, Priority: 3},
		"unknown type":      {Description: "Fire", Location: "12 Main St", Type: "EARTHQUAKE", Priority: 3},
		"priority too low":  {Description: "Fire", Location: "12 Main St", Type: EmergencyFire, Priority: 0},
		"priority too high": {Description: "Fire", Location: "12 Main St", Type: EmergencyFire, Priority: 6},
	}

	for name, report := range cases {
		_, err := c.ReportEmergency("citizen-1", report)
		require.ErrorIs(t, err, ErrInvalidInput, name)
	}
}

// TestReportEmergency_SequentialIDs verifies ids are dense, start at 1 and
// every stored record begins as REPORTED with the report timestamp.
func TestReportEmergency_SequentialIDs(t *testing.T) {
	t.Parallel()

	c := newTestCoordinator(t)

	for want := uint64(1); want <= 5; want++ {
		emergency, err := c.ReportEmergency("citizen-1", EmergencyReport{
			Description: "Incident",
			Location:    "Somewhere",
			Type:        EmergencyAccident,
			Priority:    2,
		})

		require.NoError(t, err)
		require.Equal(t, want, emergency.ID)
		require.Equal(t, StatusReported, emergency.Status)
		require.Equal(t, time.Unix(1700000000, 0).UTC(), emergency.ReportedAt)
		require.Empty(t, emergency.Responders)
		require.Zero(t, emergency.ResourcesAllocated)
	}
}

// TestAuthorize verifies only the admin may grant access and grants are idempotent.
func TestAuthorize(t *testing.T) {
	t.Parallel()

	c := newTestCoordinator(t)

	require.True(t, c.IsAuthorized(testAdmin))
	require.False(t, c.IsAuthorized("coordinator-1"))

	// Non-admin caller, even an authorized one, cannot grant.
	require.NoError(t, c.Authorize(testAdmin, "coordinator-1"))

	err := c.Authorize("coordinator-1", "coordinator-2")
	require.ErrorIs(t, err, ErrUnauthorized)

	// Empty identity.
	err = c.Authorize(testAdmin, "")
	require.ErrorIs(t, err, ErrInvalidInput)

	// Idempotent.
	require.NoError(t, c.Authorize(testAdmin, "coordinator-1"))
	require.True(t, c.IsAuthorized("coordinator-1"))
}

// TestRegisterResponder covers authorization, validation, defaults and re-registration.
func TestRegisterResponder(t *testing.T) {
	t.Parallel()

	c := newTestCoordinator(t)

	registration := ResponderRegistration{
		ID:       "medic-1",
		Name:     "Unit 7",
		Type:     ResponderMedical,
		Location: "Station 1",
	}

	// Unauthorized caller.
	_, err := c.RegisterResponder("stranger", registration)
	require.ErrorIs(t, err, ErrUnauthorized)

	// Invalid inputs.
	_, err = c.RegisterResponder(testAdmin, ResponderRegistration{Name: "x", Type: ResponderMedical})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = c.RegisterResponder(testAdmin, ResponderRegistration{ID: "medic-1", Type: ResponderMedical})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = c.RegisterResponder(testAdmin, ResponderRegistration{ID: "medic-1", Name: "x", Type: "PLUMBER"})
	require.ErrorIs(t, err, ErrInvalidInput)

	// Successful registration gets defaults.
	responder, err := c.RegisterResponder(testAdmin, registration)
	require.NoError(t, err)
	require.True(t, responder.Active)
	require.True(t, responder.Available)
	require.Equal(t, DefaultRating, responder.Rating)
	require.Zero(t, responder.EmergenciesHandled)

	// Re-registration while active is rejected.
	_, err = c.RegisterResponder(testAdmin, registration)
	require.ErrorIs(t, err, ErrAlreadyRegistered)
}

// TestAssignResponders_AllOrNothing verifies a single bad candidate rejects the
// whole batch with no state change.
func TestAssignResponders_AllOrNothing(t *testing.T) {
	t.Parallel()

	c := newTestCoordinator(t)
	registerTestResponder(t, c, "medic-1")
	registerTestResponder(t, c, "medic-2")
	emergencyID := reportTestEmergency(t, c)

	// "ghost" is unregistered, so nothing may be committed.
	_, err := c.AssignResponders(testAdmin, emergencyID, []string{"medic-1", "ghost", "medic-2"})
	require.ErrorIs(t, err, ErrResponderUnavailable)

	emergency, err := c.Emergency(emergencyID)
	require.NoError(t, err)
	require.Equal(t, StatusReported, emergency.Status)
	require.Empty(t, emergency.Responders)
	require.True(t, c.Responder("medic-1").Available)
	require.True(t, c.Responder("medic-2").Available)
}

// TestAssignResponders_DuplicateInBatch rejects the same identity listed twice in one call.
func TestAssignResponders_DuplicateInBatch(t *testing.T) {
	t.Parallel()

	c := newTestCoordinator(t)
	registerTestResponder(t, c, "medic-1")
	emergencyID := reportTestEmergency(t, c)

	_, err := c.AssignResponders(testAdmin, emergencyID, []string{"medic-1", "medic-1"})
	require.ErrorIs(t, err, ErrResponderUnavailable)

	emergency, err := c.Emergency(emergencyID)
	require.NoError(t, err)
	require.Empty(t, emergency.Responders)
	require.True(t, c.Responder("medic-1").Available)
}

// TestAssignResponders covers authorization, status and success effects.
func TestAssignResponders(t *testing.T) {
	t.Parallel()

	c := newTestCoordinator(t)
	registerTestResponder(t, c, "medic-1")
	registerTestResponder(t, c, "medic-2")
	emergencyID := reportTestEmergency(t, c)

	// Unauthorized caller.
	_, err := c.AssignResponders("stranger", emergencyID, []string{"medic-1"})
	require.ErrorIs(t, err, ErrUnauthorized)

	// Unknown emergency.
	_, err = c.AssignResponders(testAdmin, 99, []string{"medic-1"})
	require.ErrorIs(t, err, ErrNotFound)

	// Empty batch.
	_, err = c.AssignResponders(testAdmin, emergencyID, nil)
	require.ErrorIs(t, err, ErrInvalidInput)

	// Success: responders appended in order and marked unavailable.
	emergency, err := c.AssignResponders(testAdmin, emergencyID, []string{"medic-1", "medic-2"})
	require.NoError(t, err)
	require.Equal(t, StatusAssigned, emergency.Status)
	require.Equal(t, []string{"medic-1", "medic-2"}, emergency.Responders)
	require.False(t, c.Responder("medic-1").Available)
	require.False(t, c.Responder("medic-2").Available)

	// Emergency is no longer REPORTED, further assignment is rejected.
	registerTestResponder(t, c, "medic-3")

	_, err = c.AssignResponders(testAdmin, emergencyID, []string{"medic-3"})
	require.ErrorIs(t, err, ErrInvalidState)
}

// TestAllocateResources covers preconditions, depletion and the cumulative sum invariant.
func TestAllocateResources(t *testing.T) {
	t.Parallel()

	c := newTestCoordinator(t)
	registerTestResponder(t, c, "medic-1")
	emergencyID := reportTestEmergency(t, c)

	resource, err := c.AddResource(testAdmin, "Ambulance", 3, "Depot A")
	require.NoError(t, err)
	require.Equal(t, uint64(1), resource.ID)

	// Emergency still REPORTED.
	_, _, err = c.AllocateResources(testAdmin, emergencyID, resource.ID, 1)
	require.ErrorIs(t, err, ErrInvalidState)

	_, err = c.AssignResponders(testAdmin, emergencyID, []string{"medic-1"})
	require.NoError(t, err)

	// Unauthorized caller.
	_, _, err = c.AllocateResources("stranger", emergencyID, resource.ID, 1)
	require.ErrorIs(t, err, ErrUnauthorized)

	// Zero quantity.
	_, _, err = c.AllocateResources(testAdmin, emergencyID, resource.ID, 0)
	require.ErrorIs(t, err, ErrInvalidInput)

	// Unknown resource.
	_, _, err = c.AllocateResources(testAdmin, emergencyID, 42, 1)
	require.ErrorIs(t, err, ErrNotFound)

	// More than remaining.
	_, _, err = c.AllocateResources(testAdmin, emergencyID, resource.ID, 4)
	require.ErrorIs(t, err, ErrInsufficientResource)

	// Two allocations: cumulative sum matches.
	emergency, updated, err := c.AllocateResources(testAdmin, emergencyID, resource.ID, 2)
	require.NoError(t, err)
	require.Equal(t, uint64(2), emergency.ResourcesAllocated)
	require.Equal(t, uint64(1), updated.Quantity)
	require.True(t, updated.Available)

	emergency, updated, err = c.AllocateResources(testAdmin, emergencyID, resource.ID, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(3), emergency.ResourcesAllocated)
	require.Zero(t, updated.Quantity)
	require.False(t, updated.Available)

	// Depleted: further allocation fails.
	_, _, err = c.AllocateResources(testAdmin, emergencyID, resource.ID, 1)
	require.ErrorIs(t, err, ErrInsufficientResource)
}

// TestAddResource_Validation rejects unauthorized callers and invalid inputs.
func TestAddResource_Validation(t *testing.T) {
	t.Parallel()

	c := newTestCoordinator(t)

	_, err := c.AddResource("stranger", "Ambulance", 1, "Depot A")
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = c.AddResource(testAdmin, "", 1, "Depot A")
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = c.AddResource(testAdmin, "Ambulance", 0, "Depot A")
	require.ErrorIs(t, err, ErrInvalidInput)

	// Dense ids from 1.
	first, err := c.AddResource(testAdmin, "Ambulance", 2, "Depot A")
	require.NoError(t, err)
	require.Equal(t, uint64(1), first.ID)

	second, err := c.AddResource(testAdmin, "Water truck", 5, "Depot B")
	require.NoError(t, err)
	require.Equal(t, uint64(2), second.ID)
}

// TestUpdateEmergencyStatus_NotAssigned rejects callers outside the assigned list.
func TestUpdateEmergencyStatus_NotAssigned(t *testing.T) {
	t.Parallel()

	c := newTestCoordinator(t)
	registerTestResponder(t, c, "medic-1")
	registerTestResponder(t, c, "medic-2")
	emergencyID := reportTestEmergency(t, c)

	_, err := c.AssignResponders(testAdmin, emergencyID, []string{"medic-1"})
	require.NoError(t, err)

	// Registered but not assigned.
	_, err = c.UpdateEmergencyStatus("medic-2", emergencyID, StatusInProgress)
	require.ErrorIs(t, err, ErrNotAssigned)

	// Unregistered identity, including the admin.
	_, err = c.UpdateEmergencyStatus(testAdmin, emergencyID, StatusInProgress)
	require.ErrorIs(t, err, ErrNotAssigned)

	// Unknown status.
	_, err = c.UpdateEmergencyStatus("medic-1", emergencyID, "DONE")
	require.ErrorIs(t, err, ErrInvalidInput)
}

// TestUpdateEmergencyStatus_Permissive allows any valid status value,
// including backwards moves, for an assigned responder.
func TestUpdateEmergencyStatus_Permissive(t *testing.T) {
	t.Parallel()

	c := newTestCoordinator(t)
	registerTestResponder(t, c, "medic-1")
	emergencyID := reportTestEmergency(t, c)

	_, err := c.AssignResponders(testAdmin, emergencyID, []string{"medic-1"})
	require.NoError(t, err)

	// Backwards move is accepted.
	emergency, err := c.UpdateEmergencyStatus("medic-1", emergencyID, StatusReported)
	require.NoError(t, err)
	require.Equal(t, StatusReported, emergency.Status)

	emergency, err = c.UpdateEmergencyStatus("medic-1", emergencyID, StatusCancelled)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, emergency.Status)
}

// TestUpdateEmergencyStatus_Resolve verifies resolving frees every assigned
// responder and credits handled counts exactly once.
func TestUpdateEmergencyStatus_Resolve(t *testing.T) {
	t.Parallel()

	c := newTestCoordinator(t)
	registerTestResponder(t, c, "medic-1")
	registerTestResponder(t, c, "medic-2")
	emergencyID := reportTestEmergency(t, c)

	_, err := c.AssignResponders(testAdmin, emergencyID, []string{"medic-1", "medic-2"})
	require.NoError(t, err)

	// Any one assigned responder may resolve.
	emergency, err := c.UpdateEmergencyStatus("medic-2", emergencyID, StatusResolved)
	require.NoError(t, err)
	require.Equal(t, StatusResolved, emergency.Status)

	for _, id := range []string{"medic-1", "medic-2"} {
		responder := c.Responder(id)
		require.True(t, responder.Available, id)
		require.Equal(t, uint64(1), responder.EmergenciesHandled, id)
	}

	// Resolving again does not double-credit.
	_, err = c.UpdateEmergencyStatus("medic-1", emergencyID, StatusResolved)
	require.NoError(t, err)
	require.Equal(t, uint64(1), c.Responder("medic-1").EmergenciesHandled)
}

// TestQueries covers id-range checks and the zero-value responder lookup.
func TestQueries(t *testing.T) {
	t.Parallel()

	c := newTestCoordinator(t)

	// Id 0 is never valid.
	_, err := c.Emergency(0)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = c.Resource(0)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = c.AssignedResponders(1)
	require.ErrorIs(t, err, ErrNotFound)

	// Unregistered responder yields a zero-value record, not an error.
	responder := c.Responder("ghost")
	require.NotNil(t, responder)
	require.Empty(t, responder.ID)
	require.False(t, responder.Active)

	emergencyID := reportTestEmergency(t, c)

	assigned, err := c.AssignedResponders(emergencyID)
	require.NoError(t, err)
	require.Empty(t, assigned)
}

// TestQueries_ReturnCopies ensures lookups never leak internal state.
func TestQueries_ReturnCopies(t *testing.T) {
	t.Parallel()

	c := newTestCoordinator(t)
	registerTestResponder(t, c, "medic-1")
	emergencyID := reportTestEmergency(t, c)

	_, err := c.AssignResponders(testAdmin, emergencyID, []string{"medic-1"})
	require.NoError(t, err)

	emergency, err := c.Emergency(emergencyID)
	require.NoError(t, err)

	emergency.Responders[0] = "tampered"
	emergency.Status = StatusCancelled

	fresh, err := c.Emergency(emergencyID)
	require.NoError(t, err)
	require.Equal(t, []string{"medic-1"}, fresh.Responders)
	require.Equal(t, StatusAssigned, fresh.Status)

	responder := c.Responder("medic-1")
	responder.Rating = 0
	require.Equal(t, DefaultRating, c.Responder("medic-1").Rating)
}

// TestEndToEndScenario walks the full register-report-assign-allocate-resolve flow.
func TestEndToEndScenario(t *testing.T) {
	t.Parallel()

	c := newTestCoordinator(t)

	_, err := c.RegisterResponder(testAdmin, ResponderRegistration{
		ID:       "medic-1",
		Name:     "Unit 7",
		Type:     ResponderMedical,
		Location: "Station 1",
	})
	require.NoError(t, err)

	emergency, err := c.ReportEmergency("citizen-1", EmergencyReport{
		Description: "Cardiac arrest",
		Location:    "34 Oak Ave",
		Type:        EmergencyMedical,
		Priority:    5,
	})
	require.NoError(t, err)
	require.Equal(t, uint64(1), emergency.ID)
	require.Equal(t, StatusReported, emergency.Status)

	emergency, err = c.AssignResponders(testAdmin, emergency.ID, []string{"medic-1"})
	require.NoError(t, err)
	require.Equal(t, StatusAssigned, emergency.Status)
	require.False(t, c.Responder("medic-1").Available)

	resource, err := c.AddResource(testAdmin, "Ambulance", 2, "Depot A")
	require.NoError(t, err)
	require.Equal(t, uint64(1), resource.ID)

	emergency, resource, err = c.AllocateResources(testAdmin, emergency.ID, resource.ID, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(1), resource.Quantity)
	require.Equal(t, uint64(1), emergency.ResourcesAllocated)

	emergency, err = c.UpdateEmergencyStatus("medic-1", emergency.ID, StatusResolved)
	require.NoError(t, err)
	require.Equal(t, StatusResolved, emergency.Status)

	responder := c.Responder("medic-1")
	require.True(t, responder.Available)
	require.Equal(t, uint64(1), responder.EmergenciesHandled)
}
