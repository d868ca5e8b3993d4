package models

import "time"

// Queue statuses. A queue is created idle, runs through active/paused,
// and finishes as ended. Archive moves an ended queue to completed,
// which is terminal.
const (
	StatusIdle      = "idle"
	StatusActive    = "active"
	StatusPaused    = "paused"
	StatusEnded     = "ended"
	StatusCompleted = "completed"
)

// Session types partition a doctor's day; informational only.
const (
	SessionMorning = "morning"
	SessionEvening = "evening"
)

// Patient entry statuses. An empty Status is treated as present.
const (
	PatientPresent   = "present"
	PatientAbsent    = "absent"
	PatientCompleted = "completed"
)

// DefaultAvgTime is the cold-start estimate in minutes, used before any
// completions exist and before the stored average has a positive value.
const DefaultAvgTime = 5

// Queue is one doctor-session record: status, serial counters and the
// full visitor history. It is persisted as a whole document; every
// update replaces the entire record.
type Queue struct {
	ID                      string         `json:"id" bson:"id"`
	DoctorName              string         `json:"doctorName" bson:"doctorName"`
	SecretCode              string         `json:"secretCode" bson:"secretCode"`
	SessionType             string         `json:"sessionType" bson:"sessionType"`
	Status                  string         `json:"status" bson:"status"`
	CurrentNumber           int            `json:"currentNumber" bson:"currentNumber"`
	TotalPatientsJoined     int            `json:"totalPatientsJoined" bson:"totalPatientsJoined"`
	CurrentDate             string         `json:"currentDate" bson:"currentDate"` // YYYY-MM-DD, doctor-local
	SerialLimit             int            `json:"serialLimit,omitempty" bson:"serialLimit,omitempty"` // 0 = unlimited
	AvgTimePerPatient       float64        `json:"avgTimePerPatient" bson:"avgTimePerPatient"`
	CurrentPatientStartTime *time.Time     `json:"currentPatientStartTime" bson:"currentPatientStartTime"`
	QueueStartTime          *time.Time     `json:"queueStartTime" bson:"queueStartTime"`
	PatientHistory          []PatientEntry `json:"patientHistory" bson:"patientHistory"`
	CreatedAt               time.Time      `json:"createdAt" bson:"createdAt"`
	LastUpdated             time.Time      `json:"lastUpdated" bson:"lastUpdated"`
}

// PatientEntry is one issued serial. Entries are appended on join and
// mutated in place on completion, absence or re-add; they are never
// reordered or individually deleted.
type PatientEntry struct {
	SerialNumber    int        `json:"serialNumber" bson:"serialNumber"`
	PatientName     string     `json:"patientName" bson:"patientName"`
	Mobile          string     `json:"mobile,omitempty" bson:"mobile,omitempty"`
	Age             int        `json:"age,omitempty" bson:"age,omitempty"`
	JoinedAt        time.Time  `json:"joinedAt" bson:"joinedAt"`
	StartedAt       *time.Time `json:"startedAt" bson:"startedAt"`
	CompletedAt     *time.Time `json:"completedAt" bson:"completedAt"`
	ServiceDuration *float64   `json:"serviceDuration" bson:"serviceDuration"` // minutes
	Status          string     `json:"status,omitempty" bson:"status,omitempty"`
	ReAddedAt       *time.Time `json:"reAddedAt,omitempty" bson:"reAddedAt,omitempty"`
	OriginalSerial  int        `json:"originalSerial,omitempty" bson:"originalSerial,omitempty"`
}

// IsAbsent reports whether the visitor is currently marked absent.
func (p *PatientEntry) IsAbsent() bool {
	return p.Status == PatientAbsent
}

// Normalize backfills fields that older records may be missing, so the
// rest of the code never has to guard against them.
func (q *Queue) Normalize(today string) {
	if q.PatientHistory == nil {
		q.PatientHistory = []PatientEntry{}
	}
	if q.TotalPatientsJoined == 0 && q.CurrentNumber > 0 {
		q.TotalPatientsJoined = q.CurrentNumber
	}
	if q.AvgTimePerPatient <= 0 {
		q.AvgTimePerPatient = DefaultAvgTime
	}
	if q.SessionType == "" {
		q.SessionType = SessionMorning
	}
	if q.CurrentDate == "" {
		q.CurrentDate = today
	}
}

// EntryBySerial returns a pointer into PatientHistory for the given
// serial, or nil when no such entry exists. Serials restart each day,
// so the scan runs newest-first to land on today's entry.
func (q *Queue) EntryBySerial(serial int) *PatientEntry {
	for i := len(q.PatientHistory) - 1; i >= 0; i-- {
		if q.PatientHistory[i].SerialNumber == serial {
			return &q.PatientHistory[i]
		}
	}
	return nil
}
