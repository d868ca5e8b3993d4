package queue

import (
	"time"

	"docqueue/models"
)

// DateOf formats a timestamp as the YYYY-MM-DD key used for day-wise
// serial scoping.
func DateOf(t time.Time) string {
	return t.Format("2006-01-02")
}

// RolloverDay applies the day-wise reset rule: when the stored date is
// stale, the "issued today" counter restarts while history and the
// serving position survive.
func RolloverDay(q *models.Queue, today string) bool {
	if q.CurrentDate == today {
		return false
	}
	q.CurrentDate = today
	q.TotalPatientsJoined = 0
	return true
}

// joinedTodayCount recomputes the number of serials issued today from
// history. This filter, not TotalPatientsJoined, is the source of truth
// for serial assignment; the counter is a cached denormalization of it.
func joinedTodayCount(q *models.Queue, today string) int {
	count := 0
	for i := range q.PatientHistory {
		if DateOf(q.PatientHistory[i].JoinedAt) == today {
			count++
		}
	}
	return count
}

// Join issues the next serial of the day and appends the visitor to
// history. Unlike the other transitions it fails loudly: callers need
// to distinguish "queue ended" from "limit reached" to show the right
// message.
func Join(q *models.Queue, name, mobile string, age int, now time.Time) (int, error) {
	if q.Status == models.StatusEnded || q.Status == models.StatusCompleted {
		return 0, ErrQueueEnded
	}

	today := DateOf(now)
	RolloverDay(q, today)

	serial := joinedTodayCount(q, today) + 1
	if q.SerialLimit > 0 && serial > q.SerialLimit {
		return 0, ErrLimitReached
	}

	q.PatientHistory = append(q.PatientHistory, models.PatientEntry{
		SerialNumber: serial,
		PatientName:  name,
		Mobile:       mobile,
		Age:          age,
		JoinedAt:     now,
		Status:       models.PatientPresent,
	})
	q.TotalPatientsJoined = serial
	return serial, nil
}
