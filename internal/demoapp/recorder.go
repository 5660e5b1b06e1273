package demoapp

import (
	"net/http"
	"sync"
	"time"
)

// Request is one recorded incoming request.
type Request struct {
	Method string
	Path   string
	Status int
	At     time.Time
}

// RequestRecorder keeps the most recent requests in a fixed size ring.
type RequestRecorder struct {
	buffer     []Request
	size       uint64
	capacity   uint64
	writeIndex uint64
	mu         sync.RWMutex
}

// NewRequestRecorder creates a recorder holding up to capacity requests.
func NewRequestRecorder(capacity uint64) *RequestRecorder {
	if capacity == 0 {
		panic("capacity must be greater than 0")
	}
	return &RequestRecorder{
		buffer:   make([]Request, capacity),
		capacity: capacity,
	}
}

// Add records a request, overwriting the oldest one when full.
func (r *RequestRecorder) Add(req Request) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buffer[r.writeIndex%r.capacity] = req
	r.writeIndex++
	if r.size < r.capacity {
		r.size++
	}
}

// Recent returns up to n most recent requests, oldest first.
func (r *RequestRecorder) Recent(n uint64) []Request {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := min(n, r.size)
	result := make([]Request, count)
	start := r.writeIndex - count
	for i := uint64(0); i < count; i++ {
		result[i] = r.buffer[(start+i)%r.capacity]
	}
	return result
}

// Count returns how many recorded requests match method and path.
func (r *RequestRecorder) Count(method, path string) int {
	n := 0
	for _, req := range r.Recent(r.Capacity()) {
		if req.Method == method && req.Path == path {
			n++
		}
	}
	return n
}

// Size returns the number of recorded requests.
func (r *RequestRecorder) Size() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size
}

// Capacity returns the maximum number of recorded requests.
func (r *RequestRecorder) Capacity() uint64 {
	return r.capacity
}

// Middleware records every request passing through next.
func (r *RequestRecorder) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, req)
		r.Add(Request{
			Method: req.Method,
			Path:   req.URL.Path,
			Status: sw.status,
			At:     time.Now(),
		})
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
