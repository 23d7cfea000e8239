package schedule

import "time"

// DSTDetector reports whether daylight saving time is in effect at ref.
type DSTDetector interface {
	IsActive(ref time.Time) bool
}

// LocalDST detects daylight saving from the rules of a single time zone,
// time.Local when Location is nil. It compares the offset at ref with the
// offsets on 15 January and 15 July of ref's year; the smaller of those two
// is standard time. Zones without a seasonal change never report DST.
//
// The zone is the process's, not the queried location's, so results for a
// location in another zone follow the caller's calendar.
type LocalDST struct {
	Location *time.Location
}

// IsActive implements DSTDetector.
func (d LocalDST) IsActive(ref time.Time) bool {
	loc := d.Location
	if loc == nil {
		loc = time.Local
	}
	ref = ref.In(loc)

	_, jan := time.Date(ref.Year(), time.January, 15, 12, 0, 0, 0, loc).Zone()
	_, jul := time.Date(ref.Year(), time.July, 15, 12, 0, 0, 0, loc).Zone()
	if jan == jul {
		return false
	}

	standard := min(jan, jul)
	_, current := ref.Zone()
	return current > standard
}

// NoDST never reports daylight saving.
type NoDST struct{}

// IsActive implements DSTDetector.
func (NoDST) IsActive(time.Time) bool { return false }
