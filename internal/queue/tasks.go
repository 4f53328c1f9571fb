package queue

import (
	"encoding/json"

	"github.com/denver-kabob/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderMaterialize retries a webhook that could not persist its order
	TaskOrderMaterialize = constants.TaskOrderMaterialize
	// TaskOrderNotify pushes an order event to live dashboards
	TaskOrderNotify = constants.TaskOrderNotify
)

// OrderMaterializePayload carries the verified checkout metadata
type OrderMaterializePayload struct {
	SessionID string            `json:"session_id"`
	Metadata  map[string]string `json:"metadata"`
}

// OrderNotifyPayload names an order and the event to publish
type OrderNotifyPayload struct {
	OrderID string `json:"order_id"`
	Event   string `json:"event"`
}

// NewOrderMaterializeTask builds the retry task
func NewOrderMaterializeTask(payload OrderMaterializePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderMaterialize, body), nil
}

// NewOrderNotifyTask builds the notification task
func NewOrderNotifyTask(payload OrderNotifyPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderNotify, body), nil
}
