package queue

import (
	"encoding/json"
	"testing"

	"github.com/denver-kabob/internal/config"
)

func TestDisabledClientDropsTasks(t *testing.T) {
	client, err := NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if client.Enabled() {
		t.Fatalf("client should be disabled")
	}
	if err := client.EnqueueOrderNotify(OrderNotifyPayload{OrderID: "o1", Event: "order_created"}); err != nil {
		t.Fatalf("disabled enqueue should be a no-op: %v", err)
	}
	if err := client.EnqueueOrderMaterialize(OrderMaterializePayload{SessionID: "cs_1"}, 0); err != nil {
		t.Fatalf("disabled enqueue should be a no-op: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestNewOrderMaterializeTask(t *testing.T) {
	task, err := NewOrderMaterializeTask(OrderMaterializePayload{
		SessionID: "cs_1",
		Metadata:  map[string]string{"customer_name": "Ada Lovelace"},
	})
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if task.Type() != TaskOrderMaterialize {
		t.Fatalf("type = %s", task.Type())
	}
	var payload OrderMaterializePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.SessionID != "cs_1" || payload.Metadata["customer_name"] != "Ada Lovelace" {
		t.Fatalf("payload = %+v", payload)
	}
}

func TestBuildServerConfigDefaults(t *testing.T) {
	opt, cfg := BuildServerConfig(&config.QueueConfig{Host: " redis ", Port: 6380, DB: 2})
	if opt.Addr != "redis:6380" || opt.DB != 2 {
		t.Fatalf("redis opt = %+v", opt)
	}
	if cfg.Concurrency != 10 || cfg.Queues[CriticalQueue] == 0 {
		t.Fatalf("server cfg = %+v", cfg)
	}
}
