package transport

import (
	"time"

	"github.com/joshp123/outputgen/internal/rpc"
	"github.com/joshp123/outputgen/internal/runtime"
)

// inbox buffers decoded frames between the socket reader and the waiters.
type inbox struct {
	queue *runtime.Queue[rpc.Frame]
}

func newInbox() *inbox {
	return &inbox{queue: runtime.NewQueue[rpc.Frame]()}
}

func (box *inbox) push(frame rpc.Frame) bool {
	return box.queue.Push(frame)
}

func (box *inbox) next(timeout time.Duration) (rpc.Frame, bool) {
	return box.queue.PopWithin(timeout)
}

// drain pops everything already buffered without waiting.
func (box *inbox) drain() []rpc.Frame {
	var frames []rpc.Frame
	for {
		frame, ok := box.queue.TryPop()
		if !ok {
			return frames
		}
		frames = append(frames, frame)
	}
}

func (box *inbox) close() {
	box.queue.Close()
}

func (box *inbox) closed() bool {
	return box.queue.Closed()
}
