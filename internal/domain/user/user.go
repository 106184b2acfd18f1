package user

// Identity is the already-authenticated caller of a core operation.
type Identity struct {
	UserID string
	Role   Role
}

// Summary is the public projection of a user attached to trips and bookings.
type Summary struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Rating      float64 `json:"rating"`
	VehicleInfo *string `json:"vehicle_info,omitempty"`
}
