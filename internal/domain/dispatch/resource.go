package dispatch

// Resource is a finite, allocatable quantity of material tied to a location.
// Quantity only decreases via allocation; resources are never deleted or
// replenished.
type Resource struct {
	// ID is the dense, monotonically increasing identifier starting at 1.
	ID uint64 `json:"id"`
	// Name identifies the material, e.g. "Ambulance".
	Name string `json:"name"`
	// Quantity is the remaining allocatable amount.
	Quantity uint64 `json:"quantity"`
	// Location describes where the resource is staged.
	Location string `json:"location"`
	// Available flips to false once Quantity reaches zero.
	Available bool `json:"available"`
}

// Clone returns a copy of the resource.
func (r *Resource) Clone() *Resource {
	if r == nil {
		return nil
	}

	cloned := *r

	return &cloned
}
