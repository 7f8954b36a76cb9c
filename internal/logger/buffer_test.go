package logger

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLogBufferConcurrentAccess(t *testing.T) {
	buffer := NewLogBuffer(100)

	var wg sync.WaitGroup
	numGoroutines := 10
	logsPerGoroutine := 100

	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < logsPerGoroutine; j++ {
				buffer.Add(LogEntry{
					Level:   "INFO",
					Message: fmt.Sprintf("Log from goroutine %d, iteration %d", id, j),
				})
			}
		}(i)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			_ = buffer.GetRecentLogs(10)
		}
	}()
	wg.Wait()

	total, dropped, malformed := buffer.GetStats()
	assert.Equal(t, uint64(numGoroutines*logsPerGoroutine), total)
	assert.Equal(t, total-100, dropped)
	assert.Zero(t, malformed)
	assert.Len(t, buffer.GetRecentLogs(0), 100)
}

func TestLogBufferOrder(t *testing.T) {
	buffer := NewLogBuffer(3)
	for i := 0; i < 5; i++ {
		buffer.Add(LogEntry{Message: fmt.Sprint(i)})
	}

	var got []string
	for _, e := range buffer.GetRecentLogs(0) {
		got = append(got, e.Message)
	}
	assert.Equal(t, []string{"2", "3", "4"}, got)

	last := buffer.GetRecentLogs(2)
	require.Len(t, last, 2)
	assert.Equal(t, "3", last[0].Message)
	assert.Equal(t, "4", last[1].Message)
}

func TestLogBufferPartial(t *testing.T) {
	buffer := NewLogBuffer(10)
	buffer.Add(LogEntry{Message: "a"})
	buffer.Add(LogEntry{Message: "b"})

	logs := buffer.GetRecentLogs(5)
	require.Len(t, logs, 2)
	assert.Equal(t, "a", logs[0].Message)
	assert.Equal(t, "b", logs[1].Message)
}

func TestLogBufferAsSink(t *testing.T) {
	buffer := NewLogBuffer(10)
	log, err := New(&Config{Level: "debug", Quiet: true}, buffer)
	require.NoError(t, err)

	log.Named("launchpad").Info("Trade executed", zap.String("side", "buy"), zap.Uint64("sol_amount", 27960))

	logs := buffer.GetRecentLogs(0)
	require.Len(t, logs, 1)
	assert.Equal(t, "Trade executed", logs[0].Message)
	assert.Equal(t, "INFO", logs[0].Level)
	assert.Equal(t, "launchpad", logs[0].Logger)
	assert.Equal(t, "buy", logs[0].Fields["side"])
	assert.EqualValues(t, 27960, logs[0].Fields["sol_amount"])
	assert.False(t, logs[0].Timestamp.IsZero())
}

func TestLogBufferMalformed(t *testing.T) {
	buffer := NewLogBuffer(10)
	n, err := buffer.Write([]byte("not json"))
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	_, _, malformed := buffer.GetStats()
	assert.Equal(t, uint64(1), malformed)
	assert.Empty(t, buffer.GetRecentLogs(0))
}
