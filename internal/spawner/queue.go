package spawner

import "sync"

const (
	queueOccupancyMetricKey = "spawner_placement_queue_occupancy"
	queueOverflowMetricKey  = "spawner_placement_queue_overflow_total"
)

// Metrics receives queue and scanner counters.
type Metrics interface {
	Add(key string, delta uint64)
	Store(key string, value uint64)
}

// PlacementQueue stores pending placement requests in a fixed-size ring. It
// is safe for concurrent producers and a single consumer.
type PlacementQueue struct {
	mu      sync.Mutex
	data    []PlacementRequest
	head    int
	tail    int
	count   int
	metrics Metrics
}

// NewPlacementQueue constructs a queue with the provided capacity.
func NewPlacementQueue(capacity int, metrics Metrics) *PlacementQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &PlacementQueue{
		data:    make([]PlacementRequest, capacity),
		metrics: metrics,
	}
}

// Capacity reports the maximum number of pending requests.
func (q *PlacementQueue) Capacity() int {
	if q == nil {
		return 0
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.data)
}

// Push appends a request, returning false if the queue is full.
func (q *PlacementQueue) Push(req PlacementRequest) bool {
	if q == nil {
		return false
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.count == len(q.data) {
		if q.metrics != nil {
			q.metrics.Add(queueOverflowMetricKey, 1)
		}
		return false
	}
	q.data[q.tail] = req
	q.tail = (q.tail + 1) % len(q.data)
	q.count++
	q.storeOccupancyLocked()
	return true
}

// Poll removes and returns the oldest request.
func (q *PlacementQueue) Poll() (PlacementRequest, bool) {
	if q == nil {
		return PlacementRequest{}, false
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.count == 0 {
		return PlacementRequest{}, false
	}
	req := q.data[q.head]
	q.data[q.head] = PlacementRequest{}
	q.head = (q.head + 1) % len(q.data)
	q.count--
	q.storeOccupancyLocked()
	return req, true
}

// Drain returns every pending request in FIFO order and empties the queue.
func (q *PlacementQueue) Drain() []PlacementRequest {
	if q == nil {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.count == 0 {
		return nil
	}
	requests := make([]PlacementRequest, q.count)
	for i := 0; i < q.count; i++ {
		requests[i] = q.data[(q.head+i)%len(q.data)]
	}
	q.head = 0
	q.tail = 0
	q.count = 0
	q.storeOccupancyLocked()
	return requests
}

// Len reports the number of pending requests.
func (q *PlacementQueue) Len() int {
	if q == nil {
		return 0
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

func (q *PlacementQueue) storeOccupancyLocked() {
	if q.metrics == nil {
		return
	}
	q.metrics.Store(queueOccupancyMetricKey, uint64(q.count))
}
