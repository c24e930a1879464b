package attendance

import "time"

type WorkMode string

const (
	WorkFromOffice WorkMode = "WFO"
	WorkFromHome   WorkMode = "WFH"
)

type Entry struct {
	Id       int
	InternId int
	// Date is the calendar day worked (UTC midnight).
	Date       time.Time
	WorkMode   WorkMode
	RecordedAt time.Time
}

type LeaveStatus string

const (
	LeavePending  LeaveStatus = "PENDING"
	LeaveApproved LeaveStatus = "APPROVED"
	LeaveRejected LeaveStatus = "REJECTED"
)

// Leave is a leave request spanning StartDate..EndDate, both inclusive.
type Leave struct {
	Id        int
	InternId  int
	StartDate time.Time
	EndDate   time.Time
	Status    LeaveStatus
}

// Internship is the lifecycle of an intern. Attendance outside of it is not counted.
// A nil EndDate means the internship is ongoing.
type Internship struct {
	InternId  int
	StartDate time.Time
	EndDate   *time.Time
}

// window returns the half-open day range [from, to) covered by the internship, capped at openEnd
// while the internship is ongoing.
func (i Internship) window(openEnd time.Time) (time.Time, time.Time) {
	if i.EndDate == nil {
		return truncateToDay(i.StartDate), openEnd
	}
	return truncateToDay(i.StartDate), truncateToDay(*i.EndDate).AddDate(0, 0, 1)
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
