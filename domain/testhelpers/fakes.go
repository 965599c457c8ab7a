package testhelpers

import (
	"fmt"
	"sync"
	"time"

	"jackpot/domain/entities"

	"github.com/stretchr/testify/mock"
)

// FakeClock is a settable clock
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock creates a clock frozen at now
func NewFakeClock(now time.Time) *FakeClock {
	return &FakeClock{now: now}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance moves the clock forward by d
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// ScriptedRandomSource replays a fixed sequence of values
type ScriptedRandomSource struct {
	mu     sync.Mutex
	values []uint64
}

// NewScriptedRandomSource creates a source returning values in order
func NewScriptedRandomSource(values ...uint64) *ScriptedRandomSource {
	return &ScriptedRandomSource{values: values}
}

// Push appends more values to replay
func (s *ScriptedRandomSource) Push(values ...uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = append(s.values, values...)
}

func (s *ScriptedRandomSource) NextUint(limit uint64) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.values) == 0 {
		return 0, fmt.Errorf("scripted random source exhausted")
	}
	v := s.values[0]
	s.values = s.values[1:]
	return v, nil
}

// MockLedgerMetrics is a mock implementation of LedgerMetrics
type MockLedgerMetrics struct {
	mock.Mock
}

func (m *MockLedgerMetrics) RecordOperation(operation string, err error) {
	m.Called(operation, err)
}

func (m *MockLedgerMetrics) RecordBalanceTransaction(transactionType entities.TransactionType, amount int64) {
	m.Called(transactionType, amount)
}

func (m *MockLedgerMetrics) RecordTicketSold(price int64) {
	m.Called(price)
}

func (m *MockLedgerMetrics) RecordDraw(closed bool, winners int) {
	m.Called(closed, winners)
}
