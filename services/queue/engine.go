package queue

import (
	"fmt"
	"math"
	"time"

	"docqueue/models"
)

// State transitions over a single queue record. Every function here
// mutates the record in memory and reports whether anything changed;
// loading and persisting the record is the service's job. Preconditions
// that fail produce a no-op, not an error — Join is the one exception
// and lives in join.go.
//
// Legal flow: idle → active → {paused ⇄ active, ended};
// ended → active|idle (resume) or completed (archive, terminal);
// reset → idle from anywhere but completed.

// callNextScanSlack bounds the absent-skipping scan past the last
// issued serial, so corrupt history can never loop forever.
const callNextScanSlack = 10

// terminal reports whether the record can no longer be mutated.
func terminal(q *models.Queue) bool {
	return q.Status == models.StatusCompleted
}

// Start opens an idle queue and begins serving serial 1.
func Start(q *models.Queue, now time.Time) bool {
	if q.Status != models.StatusIdle {
		return false
	}
	q.Status = models.StatusActive
	q.CurrentNumber = 1
	q.QueueStartTime = &now
	q.CurrentPatientStartTime = &now
	if q.CurrentNumber > q.TotalPatientsJoined {
		q.TotalPatientsJoined = q.CurrentNumber
	}
	return true
}

// Pause halts calling without touching the running service timer. The
// current visitor's clock keeps running against wall time.
func Pause(q *models.Queue) bool {
	if terminal(q) || q.Status == models.StatusPaused {
		return false
	}
	q.Status = models.StatusPaused
	return true
}

// Resume reactivates a paused queue.
func Resume(q *models.Queue) bool {
	if q.Status != models.StatusPaused {
		return false
	}
	q.Status = models.StatusActive
	return true
}

// End stops issuing new serials. Existing visitors can still be called
// or managed from the panel.
func End(q *models.Queue) bool {
	if terminal(q) || q.Status == models.StatusEnded {
		return false
	}
	q.Status = models.StatusEnded
	return true
}

// ResumeAfterEnd reopens an ended queue: back to active if it had ever
// started, otherwise back to idle.
func ResumeAfterEnd(q *models.Queue) bool {
	if q.Status != models.StatusEnded {
		return false
	}
	if q.QueueStartTime != nil {
		q.Status = models.StatusActive
	} else {
		q.Status = models.StatusIdle
	}
	return true
}

// Archive closes an ended queue for good. Completed is terminal; no
// operation mutates the record afterwards.
func Archive(q *models.Queue) bool {
	if q.Status != models.StatusEnded {
		return false
	}
	q.Status = models.StatusCompleted
	return true
}

// Reset wipes serial counters and history and returns the queue to
// idle. Destructive and irreversible; the facade must confirm first.
func Reset(q *models.Queue) bool {
	if terminal(q) {
		return false
	}
	q.Status = models.StatusIdle
	q.CurrentNumber = 0
	q.TotalPatientsJoined = 0
	q.PatientHistory = []models.PatientEntry{}
	q.CurrentPatientStartTime = nil
	return true
}

// CallNext closes out the visitor being served (if any) and advances to
// the next callable serial, skipping absentees. Returns whether the
// record changed and whether a missing history entry had to be
// fabricated during completion.
func CallNext(q *models.Queue, now time.Time) (changed bool, recovered bool) {
	if terminal(q) {
		return false, false
	}
	if q.CurrentPatientStartTime != nil {
		recovered = CompleteCurrent(q, now)
		changed = true
	}

	next := nextCallableSerial(q)
	if next == 0 {
		// Every serial within the scan window is absent; stay put.
		return changed, recovered
	}

	q.CurrentNumber = next
	q.CurrentPatientStartTime = &now
	if q.CurrentNumber > q.TotalPatientsJoined {
		q.TotalPatientsJoined = q.CurrentNumber
	}
	return true, recovered
}

// nextCallableSerial scans forward from the serial after the current
// one and returns the first that is not marked absent, or 0 when the
// whole window is absent.
func nextCallableSerial(q *models.Queue) int {
	ceiling := q.TotalPatientsJoined + callNextScanSlack
	for serial := q.CurrentNumber + 1; serial <= ceiling; serial++ {
		entry := q.EntryBySerial(serial)
		if entry == nil || !entry.IsAbsent() {
			return serial
		}
	}
	return 0
}

// CompleteCurrent finalizes the record of the visitor being served:
// stamps timestamps, computes the clamped service duration, refreshes
// the stored rolling average and clears the service timer. When the
// expected history entry is missing it fabricates a placeholder rather
// than failing, and reports that via the return value so callers can
// log the corruption.
func CompleteCurrent(q *models.Queue, now time.Time) (recovered bool) {
	if q.CurrentPatientStartTime == nil {
		return false
	}
	startedAt := *q.CurrentPatientStartTime
	duration := math.Max(0, now.Sub(startedAt).Minutes())

	entry := q.EntryBySerial(q.CurrentNumber)
	if entry == nil {
		q.PatientHistory = append(q.PatientHistory, models.PatientEntry{
			SerialNumber: q.CurrentNumber,
			PatientName:  fmt.Sprintf("Patient #%d", q.CurrentNumber),
			JoinedAt:     startedAt,
		})
		entry = &q.PatientHistory[len(q.PatientHistory)-1]
		recovered = true
	}

	entry.StartedAt = &startedAt
	entry.CompletedAt = &now
	entry.ServiceDuration = &duration
	entry.Status = models.PatientCompleted

	// Refresh the stored average so it survives as the cold-start seed
	// even if history is later reset.
	if durations := completedDurations(q); len(durations) > 0 {
		var total float64
		for _, d := range durations {
			total += d
		}
		q.AvgTimePerPatient = round2(total / float64(len(durations)))
	}

	q.CurrentPatientStartTime = nil
	return recovered
}

// MarkAbsent flags a serial as absent. Absent visitors are skipped by
// CallNext and excluded from wait-time head counts until re-added.
func MarkAbsent(q *models.Queue, serial int) bool {
	if terminal(q) {
		return false
	}
	entry := q.EntryBySerial(serial)
	if entry == nil {
		return false
	}
	entry.Status = models.PatientAbsent
	return true
}

// ReAddAbsent restores an absent visitor to the live line at their
// original position. OriginalSerial survives repeated re-adds.
func ReAddAbsent(q *models.Queue, serial int, now time.Time) bool {
	if terminal(q) {
		return false
	}
	entry := q.EntryBySerial(serial)
	if entry == nil || !entry.IsAbsent() {
		return false
	}
	entry.Status = models.PatientPresent
	entry.ReAddedAt = &now
	if entry.OriginalSerial == 0 {
		entry.OriginalSerial = entry.SerialNumber
	}
	return true
}
