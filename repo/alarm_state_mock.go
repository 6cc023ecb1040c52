package repo

import (
	"context"
	"path"
	"sync"
)

type AlarmStateMock struct {
	mu     sync.Mutex
	States map[string]string
}

func NewAlarmStateMockRepo() *AlarmStateMock {
	return &AlarmStateMock{States: make(map[string]string)}
}

func (r *AlarmStateMock) Set(_ context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.States[key] = value
	return nil
}

func (r *AlarmStateMock) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.States, key)
	return nil
}

func (r *AlarmStateMock) Scan(_ context.Context, match string) (map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	states := make(map[string]string)
	for key, val := range r.States {
		if ok, err := path.Match(match, key); err != nil {
			return nil, err
		} else if ok {
			states[key] = val
		}
	}
	return states, nil
}
