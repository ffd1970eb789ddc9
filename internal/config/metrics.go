package config

import (
	"sync"
	"time"
)

// ServerMetrics holds in-process counters for the chat server
type ServerMetrics struct {
	TotalJoins      int64     `json:"total_joins"`
	TotalHeartbeats int64     `json:"total_heartbeats"`
	TotalMessages   int64     `json:"total_messages"`
	TotalEdits      int64     `json:"total_edits"`
	TotalDeletes    int64     `json:"total_deletes"`
	TotalEvictions  int64     `json:"total_evictions"`
	TotalSweeps     int64     `json:"total_sweeps"`
	FailedSweeps    int64     `json:"failed_sweeps"`
	StartTime       time.Time `json:"start_time"`
	LastMessageTime time.Time `json:"last_message_time"`
	LastSweepTime   time.Time `json:"last_sweep_time"`
	Uptime          string    `json:"uptime"`
	mutex           sync.RWMutex
}

// NewServerMetrics creates new server metrics
func NewServerMetrics() *ServerMetrics {
	return &ServerMetrics{
		StartTime: time.Now(),
	}
}

// IncrementJoins increments join count
func (sm *ServerMetrics) IncrementJoins() {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()
	sm.TotalJoins++
}

// IncrementHeartbeats increments heartbeat count
func (sm *ServerMetrics) IncrementHeartbeats() {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()
	sm.TotalHeartbeats++
}

// IncrementMessages increments message count
func (sm *ServerMetrics) IncrementMessages() {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()
	sm.TotalMessages++
	sm.LastMessageTime = time.Now()
}

// IncrementEdits increments edit count
func (sm *ServerMetrics) IncrementEdits() {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()
	sm.TotalEdits++
}

// IncrementDeletes increments delete count
func (sm *ServerMetrics) IncrementDeletes() {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()
	sm.TotalDeletes++
}

// RecordSweep records the outcome of one sweep cycle
func (sm *ServerMetrics) RecordSweep(evicted int, failed bool) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()
	sm.TotalSweeps++
	sm.TotalEvictions += int64(evicted)
	if failed {
		sm.FailedSweeps++
	}
	sm.LastSweepTime = time.Now()
}

// GetMetrics returns a copy of the current metrics
func (sm *ServerMetrics) GetMetrics() *ServerMetrics {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()

	return &ServerMetrics{
		TotalJoins:      sm.TotalJoins,
		TotalHeartbeats: sm.TotalHeartbeats,
		TotalMessages:   sm.TotalMessages,
		TotalEdits:      sm.TotalEdits,
		TotalDeletes:    sm.TotalDeletes,
		TotalEvictions:  sm.TotalEvictions,
		TotalSweeps:     sm.TotalSweeps,
		FailedSweeps:    sm.FailedSweeps,
		StartTime:       sm.StartTime,
		LastMessageTime: sm.LastMessageTime,
		LastSweepTime:   sm.LastSweepTime,
		Uptime:          time.Since(sm.StartTime).Round(time.Second).String(),
	}
}
