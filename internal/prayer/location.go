package prayer

// Location is a place prayer times can be computed or looked up for.
type Location struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	CountryCode string  `json:"country_code,omitempty"`
	CountryName string  `json:"country_name,omitempty"`
	// HasFixedSchedule marks locations that use a stored time-table instead
	// of the astronomical solve.
	HasFixedSchedule bool `json:"has_fixed_schedule"`
	// ParentID names the location whose table is used. Ignored unless
	// HasFixedSchedule is set.
	ParentID *int `json:"parent_id,omitempty"`
}

// ScheduleID returns the id whose fixed table applies to this location.
func (l Location) ScheduleID() int {
	if l.HasFixedSchedule && l.ParentID != nil {
		return *l.ParentID
	}
	return l.ID
}
