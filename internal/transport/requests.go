package transport

import (
	"sync/atomic"
	"time"

	"github.com/joshp123/outputgen/internal/rpc"
	"github.com/joshp123/outputgen/internal/runtime"
)

// RequestManager issues request ids and tracks requests awaiting a reply.
// Ids are session scoped: a new manager starts counting at 1 again.
type RequestManager struct {
	counter  atomic.Int64
	registry *runtime.PendingRegistry[int64, rpc.Pending]
}

func NewRequestManager(closedErr error) *RequestManager {
	return &RequestManager{registry: runtime.NewPendingRegistry[int64, rpc.Pending](closedErr)}
}

// Open assigns the next id to method and records it as pending.
func (manager *RequestManager) Open(method string, params any) (rpc.Pending, error) {
	pending := rpc.Pending{
		ID:     manager.counter.Add(1),
		Method: method,
		Params: params,
		SentAt: time.Now(),
	}
	if err := manager.registry.Register(pending.ID, pending); err != nil {
		return rpc.Pending{}, err
	}
	return pending, nil
}

func (manager *RequestManager) Resolve(id int64) (rpc.Pending, bool) {
	return manager.registry.Take(id)
}

func (manager *RequestManager) Drop(id int64) {
	manager.registry.Drop(id)
}

func (manager *RequestManager) Outstanding() int {
	return manager.registry.Len()
}

// LastID is the most recently issued id, 0 before the first request.
func (manager *RequestManager) LastID() int64 {
	return manager.counter.Load()
}

func (manager *RequestManager) Close() []rpc.Pending {
	return manager.registry.Close()
}
