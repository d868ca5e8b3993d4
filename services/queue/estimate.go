package queue

import (
	"math"
	"sort"
	"time"

	"docqueue/models"
)

// Wait-time estimation. Everything here is a pure function of the queue
// record and a caller-supplied clock; the engine never reads time itself.
//
// The canonical signal is the mean service duration of completed visits.
// Median and the live elapsed time of the visitor being served are used
// to damp outliers (one 20-minute visit in a 2-minute clinic must not
// wreck every estimate).

// completedDurations returns service durations for entries that have
// been fully served: completed, with a valid non-negative duration, and
// logically passed (serial below the one currently being served).
func completedDurations(q *models.Queue) []float64 {
	durations := make([]float64, 0, len(q.PatientHistory))
	for i := range q.PatientHistory {
		p := &q.PatientHistory[i]
		if p.SerialNumber >= q.CurrentNumber {
			continue
		}
		if p.CompletedAt == nil || p.ServiceDuration == nil || *p.ServiceDuration < 0 {
			continue
		}
		durations = append(durations, *p.ServiceDuration)
	}
	return durations
}

// AverageServiceTime returns the mean completed service time in
// minutes, rounded to 2 decimals. With no completions it falls back to
// the stored per-queue average, then to the cold-start default.
func AverageServiceTime(q *models.Queue) float64 {
	durations := completedDurations(q)
	if len(durations) == 0 {
		if q.AvgTimePerPatient > 0 {
			return q.AvgTimePerPatient
		}
		return models.DefaultAvgTime
	}
	var total float64
	for _, d := range durations {
		total += d
	}
	return round2(total / float64(len(durations)))
}

// MedianServiceTime returns the median completed service time, with the
// same fallback chain as AverageServiceTime.
func MedianServiceTime(q *models.Queue) float64 {
	durations := completedDurations(q)
	if len(durations) == 0 {
		if q.AvgTimePerPatient > 0 {
			return q.AvgTimePerPatient
		}
		return models.DefaultAvgTime
	}
	sort.Float64s(durations)
	mid := len(durations) / 2
	if len(durations)%2 == 0 {
		return round2((durations[mid-1] + durations[mid]) / 2)
	}
	return round2(durations[mid])
}

// CurrentPatientRemaining predicts how many more minutes the visitor
// being served right now will take. Returns 0 unless the queue is
// active with a running service timer.
func CurrentPatientRemaining(q *models.Queue, now time.Time) float64 {
	if q.Status != models.StatusActive || q.CurrentPatientStartTime == nil {
		return 0
	}
	elapsed := now.Sub(*q.CurrentPatientStartTime).Minutes()
	avg := AverageServiceTime(q)
	med := MedianServiceTime(q)

	if elapsed > avg*2 {
		// Severe outlier: the visit has already blown past anything the
		// history predicts, so the elapsed time itself is the best signal.
		predicted := elapsed * 1.1
		return math.Max(0, predicted-elapsed)
	}
	if elapsed > avg {
		predicted := math.Max(med, elapsed*1.2)
		return math.Max(0, predicted-elapsed)
	}
	return math.Max(0, avg-elapsed)
}

// SmartAverage blends mean, median and the live elapsed time of the
// current visit into a single per-visitor estimate.
func SmartAverage(q *models.Queue, now time.Time) float64 {
	avg := AverageServiceTime(q)

	if q.CurrentPatientStartTime != nil {
		elapsed := now.Sub(*q.CurrentPatientStartTime).Minutes()
		if elapsed > avg {
			return math.Max(avg, elapsed)
		}
	}

	// With enough data, prefer the median unless it diverges so far from
	// the mean that the distribution itself looks skewed.
	if completionCount(q) >= 3 {
		med := MedianServiceTime(q)
		if math.Abs(med-avg) <= avg*0.5 {
			return med
		}
	}
	return avg
}

// WaitTime estimates minutes until the given serial is called, using
// the plain average only. The visitor currently being served is always
// excluded from the head count, clock or not. Use WaitTimeAt when a
// clock is available.
func WaitTime(q *models.Queue, serial int) int {
	if q.Status == models.StatusIdle || serial <= q.CurrentNumber {
		return 0
	}
	othersAhead := maxInt(0, serial-q.CurrentNumber-1)
	estimated := float64(othersAhead) * AverageServiceTime(q)
	return maxInt(1, int(math.Round(estimated)))
}

// WaitTimeAt estimates minutes until the given serial is called,
// accounting for the visitor currently being served. Never returns 0
// for a serial that has not been reached yet.
func WaitTimeAt(q *models.Queue, serial int, now time.Time) int {
	if q.Status == models.StatusIdle || serial <= q.CurrentNumber {
		return 0
	}
	ahead := serial - q.CurrentNumber

	var currentRemaining float64
	if q.CurrentPatientStartTime != nil && ahead > 0 {
		currentRemaining = CurrentPatientRemaining(q, now)
	}

	othersAhead := maxInt(0, ahead-1)
	estimated := currentRemaining + float64(othersAhead)*SmartAverage(q, now)
	return maxInt(1, int(math.Round(estimated)))
}

func completionCount(q *models.Queue) int {
	count := 0
	for i := range q.PatientHistory {
		if q.PatientHistory[i].CompletedAt != nil {
			count++
		}
	}
	return count
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
