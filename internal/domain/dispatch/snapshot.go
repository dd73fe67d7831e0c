package dispatch

import (
	"fmt"
	"sort"
)

// Snapshot is the serializable projection of the full coordinator state.
// It is what the repository persists and what the service restores on a
// failed commit.
type Snapshot struct {
	// Admin is the root identity.
	Admin string `json:"admin"`
	// Authorized lists authorized personnel identities, sorted.
	Authorized []string `json:"authorized"`
	// Emergencies holds every emergency record in id order.
	Emergencies []*Emergency `json:"emergencies"`
	// Responders holds every responder record, sorted by identity.
	Responders []*Responder `json:"responders"`
	// Resources holds every resource record in id order.
	Resources []*Resource `json:"resources"`
}

// Snapshot returns a deep copy of the coordinator state with deterministic
// ordering, suitable for persistence.
func (c *Coordinator) Snapshot() *Snapshot {
	s := &Snapshot{
		Admin:       c.admin,
		Authorized:  make([]string, 0, len(c.authorized)),
		Emergencies: make([]*Emergency, 0, len(c.emergencies)),
		Responders:  make([]*Responder, 0, len(c.responders)),
		Resources:   make([]*Resource, 0, len(c.resources)),
	}

	for identity := range c.authorized {
		s.Authorized = append(s.Authorized, identity)
	}

	sort.Strings(s.Authorized)

	for _, emergency := range c.emergencies {
		s.Emergencies = append(s.Emergencies, emergency.Clone())
	}

	for _, responder := range c.responders {
		s.Responders = append(s.Responders, responder.Clone())
	}

	sort.Slice(s.Responders, func(i, j int) bool {
		return s.Responders[i].ID < s.Responders[j].ID
	})

	for _, resource := range c.resources {
		s.Resources = append(s.Resources, resource.Clone())
	}

	return s
}

// FromSnapshot rebuilds a coordinator from a persisted snapshot.
func FromSnapshot(s *Snapshot, opts ...Option) (*Coordinator, error) {
	if s == nil {
		return nil, fmt.Errorf("snapshot is required: %w", ErrInvalidInput)
	}

	c, err := New(s.Admin, opts...)
	if err != nil {
		return nil, err
	}

	for _, identity := range s.Authorized {
		c.authorized[identity] = struct{}{}
	}

	for i, emergency := range s.Emergencies {
		if emergency.ID != uint64(i)+1 {
			return nil, fmt.Errorf("emergency ids are not dense at index %d: %w", i, ErrInvalidInput)
		}

		c.emergencies = append(c.emergencies, emergency.Clone())
	}

	for _, responder := range s.Responders {
		if responder.ID == "" {
			return nil, fmt.Errorf("responder with empty identity: %w", ErrInvalidInput)
		}

		c.responders[responder.ID] = responder.Clone()
	}

	for i, resource := range s.Resources {
		if resource.ID != uint64(i)+1 {
			return nil, fmt.Errorf("resource ids are not dense at index %d: %w", i, ErrInvalidInput)
		}

		c.resources = append(c.resources, resource.Clone())
	}

	return c, nil
}
