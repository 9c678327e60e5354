package tasks

import (
	"encoding/json"

	"tutordesk/models"

	"github.com/hibiken/asynq"
)

const TypeAuditRecord = "audit:record"

// QueueAudit is the asynq queue audit tasks are enqueued on.
const QueueAudit = "audit"

func NewAuditTask(event models.AuditEvent) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(event)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeAuditRecord, b)
	opts := []asynq.Option{
		asynq.Queue(QueueAudit),
		asynq.MaxRetry(5),
		asynq.TaskID(event.ID),
	}
	return task, opts, nil
}

// ParseAuditTask decodes the payload built by NewAuditTask.
func ParseAuditTask(task *asynq.Task) (models.AuditEvent, error) {
	var event models.AuditEvent
	err := json.Unmarshal(task.Payload(), &event)
	return event, err
}
