package logger

import (
	"encoding/json"
	"sync"
	"time"
)

// LogEntry represents a single log entry in the buffer
type LogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     string                 `json:"level"`
	Logger    string                 `json:"logger,omitempty"`
	Message   string                 `json:"msg"`
	Fields    map[string]interface{} `json:"-"`
}

// LogBuffer keeps the most recent entries of a JSON log stream. It is a
// zapcore.WriteSyncer, so it can be passed to New as a sink for a UI that
// cannot share the terminal with the console core.
type LogBuffer struct {
	mu           sync.Mutex
	ringBuffer   []LogEntry
	maxSize      int
	currentIndex int
	wrapped      bool

	totalEntries   uint64
	droppedEntries uint64
	malformed      uint64
}

// NewLogBuffer creates a new log buffer with the specified size
func NewLogBuffer(maxSize int) *LogBuffer {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &LogBuffer{
		ringBuffer: make([]LogEntry, maxSize),
		maxSize:    maxSize,
	}
}

// Write parses one JSON encoded entry. zap calls it once per entry.
func (lb *LogBuffer) Write(p []byte) (int, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(p, &raw); err != nil {
		lb.mu.Lock()
		lb.malformed++
		lb.mu.Unlock()
		// Never fail the logger because of the buffer.
		return len(p), nil
	}

	entry := LogEntry{Fields: make(map[string]interface{})}
	for k, v := range raw {
		switch k {
		case "timestamp":
			if s, ok := v.(string); ok {
				entry.Timestamp, _ = time.Parse("2006-01-02T15:04:05.000Z0700", s)
			}
		case "level":
			entry.Level, _ = v.(string)
		case "logger":
			entry.Logger, _ = v.(string)
		case "msg":
			entry.Message, _ = v.(string)
		case "caller", "stacktrace":
		default:
			entry.Fields[k] = v
		}
	}
	lb.Add(entry)
	return len(p), nil
}

// Sync implements zapcore.WriteSyncer.
func (lb *LogBuffer) Sync() error {
	return nil
}

// Add adds a new log entry to the buffer, overwriting the oldest when full.
func (lb *LogBuffer) Add(entry LogEntry) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	if lb.wrapped {
		lb.droppedEntries++
	}
	lb.ringBuffer[lb.currentIndex] = entry
	lb.currentIndex = (lb.currentIndex + 1) % lb.maxSize
	if lb.currentIndex == 0 {
		lb.wrapped = true
	}
	lb.totalEntries++
}

// GetRecentLogs returns up to limit of the most recent entries, oldest first.
// A limit of zero or less returns everything buffered.
func (lb *LogBuffer) GetRecentLogs(limit int) []LogEntry {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	count := lb.currentIndex
	start := 0
	if lb.wrapped {
		count = lb.maxSize
		start = lb.currentIndex
	}
	if limit > 0 && limit < count {
		start += count - limit
		count = limit
	}

	logs := make([]LogEntry, 0, count)
	for i := 0; i < count; i++ {
		logs = append(logs, lb.ringBuffer[(start+i)%lb.maxSize])
	}
	return logs
}

// GetStats returns buffer statistics
func (lb *LogBuffer) GetStats() (total, dropped, malformed uint64) {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return lb.totalEntries, lb.droppedEntries, lb.malformed
}
