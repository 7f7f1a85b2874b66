package jobs

import (
	"encoding/json"
	"strings"

	"github.com/hibiken/asynq"
)

const (
	// QueueLedger carries every ledger background task.
	QueueLedger = "ledger"
	// TaskGLIntegrity scans the general ledger for unbalanced entries.
	TaskGLIntegrity = "ledger:gl_integrity"
	// TaskIdempotencyPrune expires old idempotency keys.
	TaskIdempotencyPrune = "ledger:idempotency_prune"
)

// GLIntegrityPayload scopes an integrity scan. A zero CompanyID scans every company.
type GLIntegrityPayload struct {
	CompanyID int64 `json:"company_id,omitempty"`
}

// NewGLIntegrityTask constructs an Asynq task for the ledger integrity scan.
func NewGLIntegrityTask(companyID int64) (*asynq.Task, error) {
	data, err := json.Marshal(GLIntegrityPayload{CompanyID: companyID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGLIntegrity, data), nil
}

// NewIdempotencyPruneTask constructs the prune task. It carries no payload.
func NewIdempotencyPruneTask() *asynq.Task {
	return asynq.NewTask(TaskIdempotencyPrune, nil)
}

// RedisOpt converts REDIS_ADDR, either host:port or a redis:// URL, into asynq options.
func RedisOpt(addr string) (asynq.RedisConnOpt, error) {
	if strings.Contains(addr, "://") {
		return asynq.ParseRedisURI(addr)
	}
	return asynq.RedisClientOpt{Addr: addr}, nil
}
