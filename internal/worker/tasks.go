// Package worker delivers staged outbox notifications through asynq. The API
// process only writes outbox rows; this package owns claiming, queueing and
// the actual gateway and SMTP calls.
package worker

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskOutboxDeliver = "notification.outbox.deliver"

type OutboxDeliverPayload struct {
	OutboxID string `json:"outboxId"`
}

func NewOutboxDeliverTask(payload OutboxDeliverPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOutboxDeliver, data), nil
}

func ParseOutboxDeliverPayload(task *asynq.Task) (OutboxDeliverPayload, error) {
	var payload OutboxDeliverPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return OutboxDeliverPayload{}, err
	}
	return payload, nil
}
