package queue

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/denver-kabob/internal/config"
	"github.com/denver-kabob/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue notifications
	DefaultQueue = constants.QueueDefault
	// CriticalQueue order persistence retries
	CriticalQueue = constants.QueueCritical

	materializeMaxRetry = 10
	materializeTimeout  = 30 * time.Second
	notifyMaxRetry      = 3
)

// Client wraps the asynq client; a disabled client drops every task
type Client struct {
	client  *asynq.Client
	enabled bool
}

// NewClient builds a client from config
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{enabled: false}, nil
	}
	return &Client{
		client:  asynq.NewClient(buildRedisOpt(cfg)),
		enabled: true,
	}, nil
}

// Enabled reports whether tasks are actually enqueued
func (c *Client) Enabled() bool {
	return c != nil && c.enabled && c.client != nil
}

// Close releases the connection
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueOrderMaterialize schedules a materialization retry. The session id is
// the task id, so a second failure for the same session does not stack.
func (c *Client) EnqueueOrderMaterialize(payload OrderMaterializePayload, delay time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewOrderMaterializeTask(payload)
	if err != nil {
		return err
	}
	_, err = c.client.Enqueue(task,
		asynq.Queue(CriticalQueue),
		asynq.MaxRetry(materializeMaxRetry),
		asynq.Timeout(materializeTimeout),
		asynq.ProcessIn(delay),
		asynq.TaskID("materialize:"+payload.SessionID),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}

// EnqueueOrderNotify schedules a live dashboard push
func (c *Client) EnqueueOrderNotify(payload OrderNotifyPayload) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewOrderNotifyTask(payload)
	if err != nil {
		return err
	}
	_, err = c.client.Enqueue(task, asynq.Queue(DefaultQueue), asynq.MaxRetry(notifyMaxRetry))
	return err
}

// BuildServerConfig derives the worker server settings
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	opt := buildRedisOpt(cfg)
	concurrency := 10
	if cfg != nil && cfg.Concurrency > 0 {
		concurrency = cfg.Concurrency
	}
	queues := map[string]int{CriticalQueue: 6, DefaultQueue: 3}
	if cfg != nil && len(cfg.Queues) > 0 {
		queues = cfg.Queues
	}
	return opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      queues,
	}
}

func buildRedisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	host := "127.0.0.1"
	port := 6379
	password := ""
	db := 0
	if cfg != nil {
		if strings.TrimSpace(cfg.Host) != "" {
			host = strings.TrimSpace(cfg.Host)
		}
		if cfg.Port > 0 {
			port = cfg.Port
		}
		password = cfg.Password
		db = cfg.DB
	}
	return asynq.RedisClientOpt{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	}
}
