package server

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/oshokin/emergency-dispatch/internal/domain/dispatch"
	"github.com/oshokin/emergency-dispatch/internal/events"
	"github.com/oshokin/emergency-dispatch/internal/logger"
	repo "github.com/oshokin/emergency-dispatch/internal/repository/state"
)

// service encapsulates the coordinator business logic and persistence
// orchestration. It is unexported to keep the transport decoupled from the
// implementation.
//
// A single write lock around every mutation provides the serializable,
// single-writer-per-call boundary the coordinator requires: each call sees a
// consistent snapshot and commits atomically or not at all.
type service struct {
	// repo handles persistent storage of coordinator snapshots.
	repo repo.Repository
	// coordinator is the in-memory aggregate owning all dispatch state.
	coordinator *dispatch.Coordinator
	// events is the append-only notification stream.
	events *events.Log
	// lastSaved is the most recently persisted snapshot, used to roll the
	// aggregate back when a save fails.
	lastSaved *dispatch.Snapshot
	// opts are re-applied when the coordinator is rebuilt from a snapshot.
	opts []dispatch.Option
	// mu serializes mutations; reads share the lock.
	mu sync.RWMutex
}

// newService creates a service backed by the provided repository, restoring
// persisted state when available and starting fresh otherwise.
func newService(ctx context.Context, repository repo.Repository, admin string, opts ...dispatch.Option) (*service, error) {
	s := &service{
		repo:   repository,
		events: events.NewLog(),
		opts:   opts,
	}

	if repository == nil {
		coordinator, err := dispatch.New(admin, opts...)
		if err != nil {
			return nil, err
		}

		s.coordinator = coordinator

		return s, nil
	}

	snapshot, err := repository.Load(ctx)
	switch {
	case err == nil:
		coordinator, restoreErr := dispatch.FromSnapshot(snapshot, opts...)
		if restoreErr != nil {
			return nil, fmt.Errorf("restore state: %w", restoreErr)
		}

		if admin != "" && snapshot.Admin != admin {
			logger.WarnKV(ctx, "Configured admin differs from persisted state, keeping persisted admin",
				"configured", admin, "persisted", snapshot.Admin)
		}

		s.coordinator = coordinator
		s.lastSaved = snapshot
	case errors.Is(err, repo.ErrNotFound):
		coordinator, newErr := dispatch.New(admin, opts...)
		if newErr != nil {
			return nil, newErr
		}

		s.coordinator = coordinator
	default:
		return nil, fmt.Errorf("load state: %w", err)
	}

	return s, nil
}

// commit persists the current aggregate state. On failure the aggregate is
// rolled back to the last persisted snapshot so the caller observes no
// partial effects.
func (s *service) commit(ctx context.Context) error {
	snapshot := s.coordinator.Snapshot()

	if s.repo != nil {
		if err := s.repo.Save(ctx, snapshot); err != nil {
			logger.ErrorKV(ctx, "Failed to persist coordinator state", "error", err)

			s.rollback(ctx)

			return fmt.Errorf("persist state: %w", err)
		}
	}

	s.lastSaved = snapshot

	return nil
}

// rollback rebuilds the aggregate from the last persisted snapshot.
func (s *service) rollback(ctx context.Context) {
	if s.lastSaved == nil {
		coordinator, err := dispatch.New(s.coordinator.Admin(), s.opts...)
		if err == nil {
			s.coordinator = coordinator
		}

		return
	}

	coordinator, err := dispatch.FromSnapshot(s.lastSaved, s.opts...)
	if err != nil {
		logger.ErrorKV(ctx, "Failed to roll back coordinator state", "error", err)

		return
	}

	s.coordinator = coordinator
}

// ReportEmergency records a new emergency and emits EmergencyReported.
func (s *service) ReportEmergency(
	ctx context.Context,
	reporter string,
	report dispatch.EmergencyReport,
) (*dispatch.Emergency, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	emergency, err := s.coordinator.ReportEmergency(reporter, report)
	if err != nil {
		return nil, err
	}

	if err := s.commit(ctx); err != nil {
		return nil, err
	}

	s.events.Append(events.Event{
		Type:        events.TypeEmergencyReported,
		Actor:       reporter,
		EmergencyID: emergency.ID,
	})

	logger.InfoKV(ctx, "Emergency reported",
		"emergency_id", emergency.ID, "type", emergency.Type, "priority", emergency.Priority, "reporter", reporter)

	return emergency, nil
}

// AssignResponders assigns the batch to the emergency, emitting one
// ResponderAssigned per responder plus a StatusUpdated notification.
func (s *service) AssignResponders(
	ctx context.Context,
	caller string,
	emergencyID uint64,
	responderIDs []string,
) (*dispatch.Emergency, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	emergency, err := s.coordinator.AssignResponders(caller, emergencyID, responderIDs)
	if err != nil {
		return nil, err
	}

	if err := s.commit(ctx); err != nil {
		return nil, err
	}

	for _, id := range responderIDs {
		s.events.Append(events.Event{
			Type:        events.TypeResponderAssigned,
			Actor:       caller,
			EmergencyID: emergencyID,
			ResponderID: id,
		})
	}

	s.events.Append(events.Event{
		Type:        events.TypeStatusUpdated,
		Actor:       caller,
		EmergencyID: emergencyID,
		Status:      string(emergency.Status),
	})

	logger.InfoKV(ctx, "Responders assigned",
		"emergency_id", emergencyID, "responders", responderIDs, "caller", caller)

	return emergency, nil
}

// AllocateResources allocates quantity units of the resource to the emergency
// and emits ResourceAllocated.
func (s *service) AllocateResources(
	ctx context.Context,
	caller string,
	emergencyID, resourceID, quantity uint64,
) (*dispatch.Emergency, *dispatch.Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	emergency, resource, err := s.coordinator.AllocateResources(caller, emergencyID, resourceID, quantity)
	if err != nil {
		return nil, nil, err
	}

	if err := s.commit(ctx); err != nil {
		return nil, nil, err
	}

	s.events.Append(events.Event{
		Type:        events.TypeResourceAllocated,
		Actor:       caller,
		EmergencyID: emergencyID,
		ResourceID:  resourceID,
		Quantity:    quantity,
	})

	logger.InfoKV(ctx, "Resources allocated",
		"emergency_id", emergencyID, "resource_id", resourceID, "quantity", quantity, "caller", caller)

	return emergency, resource, nil
}

// UpdateEmergencyStatus applies a responder-driven status change and emits
// StatusUpdated.
func (s *service) UpdateEmergencyStatus(
	ctx context.Context,
	caller string,
	emergencyID uint64,
	status dispatch.EmergencyStatus,
) (*dispatch.Emergency, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	emergency, err := s.coordinator.UpdateEmergencyStatus(caller, emergencyID, status)
	if err != nil {
		return nil, err
	}

	if err := s.commit(ctx); err != nil {
		return nil, err
	}

	s.events.Append(events.Event{
		Type:        events.TypeStatusUpdated,
		Actor:       caller,
		EmergencyID: emergencyID,
		Status:      string(emergency.Status),
	})

	logger.InfoKV(ctx, "Emergency status updated",
		"emergency_id", emergencyID, "status", emergency.Status, "caller", caller)

	return emergency, nil
}

// RegisterResponder creates a responder record and emits ResponderRegistered.
func (s *service) RegisterResponder(
	ctx context.Context,
	caller string,
	registration dispatch.ResponderRegistration,
) (*dispatch.Responder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	responder, err := s.coordinator.RegisterResponder(caller, registration)
	if err != nil {
		return nil, err
	}

	if err := s.commit(ctx); err != nil {
		return nil, err
	}

	s.events.Append(events.Event{
		Type:        events.TypeResponderRegistered,
		Actor:       caller,
		ResponderID: responder.ID,
	})

	logger.InfoKV(ctx, "Responder registered",
		"responder_id", responder.ID, "type", responder.Type, "caller", caller)

	return responder, nil
}

// AddResource registers a new resource and emits ResourceAdded.
func (s *service) AddResource(
	ctx context.Context,
	caller, name string,
	quantity uint64,
	location string,
) (*dispatch.Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resource, err := s.coordinator.AddResource(caller, name, quantity, location)
	if err != nil {
		return nil, err
	}

	if err := s.commit(ctx); err != nil {
		return nil, err
	}

	s.events.Append(events.Event{
		Type:       events.TypeResourceAdded,
		Actor:      caller,
		ResourceID: resource.ID,
		Quantity:   resource.Quantity,
	})

	logger.InfoKV(ctx, "Resource added",
		"resource_id", resource.ID, "name", resource.Name, "quantity", resource.Quantity, "caller", caller)

	return resource, nil
}

// AuthorizePersonnel grants the identity coordination rights and emits
// PersonnelAuthorized.
func (s *service) AuthorizePersonnel(ctx context.Context, caller, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.coordinator.Authorize(caller, identity); err != nil {
		return err
	}

	if err := s.commit(ctx); err != nil {
		return err
	}

	s.events.Append(events.Event{
		Type:     events.TypePersonnelAuthorized,
		Actor:    caller,
		Identity: identity,
	})

	logger.InfoKV(ctx, "Personnel authorized", "identity", identity, "caller", caller)

	return nil
}

// Emergency returns a copy of the emergency record.
func (s *service) Emergency(_ context.Context, id uint64) (*dispatch.Emergency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.coordinator.Emergency(id)
}

// Responder returns a copy of the responder record; unregistered identities
// yield a zero-value record.
func (s *service) Responder(_ context.Context, identity string) *dispatch.Responder {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.coordinator.Responder(identity)
}

// Resource returns a copy of the resource record.
func (s *service) Resource(_ context.Context, id uint64) (*dispatch.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.coordinator.Resource(id)
}

// AssignedResponders returns the emergency's assigned responder identities.
func (s *service) AssignedResponders(_ context.Context, id uint64) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.coordinator.AssignedResponders(id)
}

// Events returns the most recent notifications, up to limit.
func (s *service) Events(_ context.Context, limit int) []events.Event {
	return s.events.Tail(limit)
}

// IsAuthorized reports whether identity may coordinate dispatch operations.
func (s *service) IsAuthorized(_ context.Context, identity string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.coordinator.IsAuthorized(identity)
}

// SubscribeEvents registers a live notification subscription with the given
// channel capacity. The returned cancel func releases the subscription.
func (s *service) SubscribeEvents(_ context.Context, buffer int) (<-chan events.Event, func()) {
	return s.events.Subscribe(buffer)
}
