package queue

import (
	"context"

	"docqueue/models"
)

// Notifier is the injectable change-notification port. After every
// successful write the queue id is published; observers re-fetch the
// whole record rather than receiving a diff. Delivery is at-least-once
// and unordered.
type Notifier interface {
	Publish(queueID string)
	Subscribe(handler func(queueID string)) (unsubscribe func())
}

// CreateQueueInput carries the fields a doctor supplies when opening a
// new queue. SessionType may be empty, in which case it is inferred
// from the doctor's other queues today (a second queue defaults to the
// opposite session).
type CreateQueueInput struct {
	DoctorName        string  `json:"doctorName"`
	SessionType       string  `json:"sessionType"`
	CodePrefix        string  `json:"codePrefix"`
	AvgTimePerPatient float64 `json:"avgTimePerPatient"`
	SerialLimit       int     `json:"serialLimit"`
}

// JoinInput carries a visitor's details when taking a serial.
type JoinInput struct {
	PatientName string `json:"patientName"`
	Mobile      string `json:"mobile"`
	Age         int    `json:"age"`
}

// JoinResult is returned to the visitor after a successful join.
type JoinResult struct {
	SerialNumber int    `json:"serialNumber"`
	PatientName  string `json:"patientName"`
	WaitMinutes  int    `json:"waitMinutes"`
}

// PatientStatus is the visitor-facing view of one serial.
type PatientStatus struct {
	Entry         models.PatientEntry `json:"entry"`
	CurrentNumber int                 `json:"currentNumber"`
	QueueStatus   string              `json:"queueStatus"`
	WaitMinutes   int                 `json:"waitMinutes"`
}

// QueueService is the public operation surface over the queue state
// engine. Every mutating operation is one read-modify-write of the
// whole record followed by a change notification.
type QueueService interface {
	CreateQueue(ctx context.Context, input CreateQueueInput) (*models.Queue, error)
	GetQueue(ctx context.Context, id string) (*models.Queue, error)
	DeleteQueue(ctx context.Context, id string) error
	ListQueues(ctx context.Context) ([]models.Queue, error)
	DoctorNames(ctx context.Context) ([]string, error)
	VerifySecret(ctx context.Context, id, secretCode string) error

	Join(ctx context.Context, id string, input JoinInput) (*JoinResult, error)
	GetPatientStatus(ctx context.Context, id string, serial int) (*PatientStatus, error)
	WaitTime(ctx context.Context, id string, serial int) (int, error)

	Start(ctx context.Context, id string) (*models.Queue, error)
	Pause(ctx context.Context, id string) (*models.Queue, error)
	Resume(ctx context.Context, id string) (*models.Queue, error)
	End(ctx context.Context, id string) (*models.Queue, error)
	ResumeAfterEnd(ctx context.Context, id string) (*models.Queue, error)
	Archive(ctx context.Context, id string) (*models.Queue, error)
	Reset(ctx context.Context, id string) (*models.Queue, error)
	CallNext(ctx context.Context, id string) (*models.Queue, error)
	MarkAbsent(ctx context.Context, id string, serial int) (*models.Queue, error)
	ReAddAbsent(ctx context.Context, id string, serial int) (*models.Queue, error)
}
