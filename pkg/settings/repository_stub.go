package settings

import (
	"context"
	"sync"

	"github.com/internly/internly/pkg/allowance"
)

type RepositoryStub struct {
	mu    sync.RWMutex
	rules *allowance.Rules
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{}
}

func (r *RepositoryStub) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = nil
}

func (r *RepositoryStub) GetRules(ctx context.Context) (allowance.Rules, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.rules == nil {
		return allowance.Rules{}, ErrSettingsNotFound
	}
	return *r.rules, nil
}

func (r *RepositoryStub) StoreRules(ctx context.Context, rules allowance.Rules) (allowance.Rules, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = &rules
	return rules, nil
}
