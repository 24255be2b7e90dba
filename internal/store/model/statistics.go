package model

type Statistics struct {
	MissionsByStatus      map[MissionStatus]int64
	PendingContactRelease int64
	HiddenEvaluations     int64
	RemindersByStatus     map[ReminderStatus]int64
	ReclamationsByStatus  map[ReclamationStatus]int64
}
