package allowance

import (
	"context"
	"sort"
	"sync"
	"time"
)

// RepositoryStub is an in-memory Repository for service tests. It is safe for concurrent use.
type RepositoryStub struct {
	mu      sync.Mutex
	txMu    sync.Mutex
	claims  map[ClaimId]Claim
	wallets map[int]Wallet
	locks   map[int]SyncLock

	// BeforeListClaims, when set, runs before ListClaims reads any data.
	BeforeListClaims func()
	ListClaimsErr    error
	PutWalletErr     error
	SaveClaimErr     error

	PutWalletCalls int
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{
		claims:  make(map[ClaimId]Claim),
		wallets: make(map[int]Wallet),
		locks:   make(map[int]SyncLock),
	}
}

func (r *RepositoryStub) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.claims = make(map[ClaimId]Claim)
	r.wallets = make(map[int]Wallet)
	r.locks = make(map[int]SyncLock)
	r.BeforeListClaims = nil
	r.ListClaimsErr = nil
	r.PutWalletErr = nil
	r.SaveClaimErr = nil
	r.PutWalletCalls = 0
}

// SetClaim stores a claim as-is, bypassing every guard.
func (r *RepositoryStub) SetClaim(claim Claim) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.claims[claim.Id()] = claim
}

func (r *RepositoryStub) SetLock(lock SyncLock) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locks[lock.InternId] = lock
}

func (r *RepositoryStub) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	r.mu.Lock()
	originalClaims := make(map[ClaimId]Claim, len(r.claims))
	for k, v := range r.claims {
		originalClaims[k] = v
	}
	r.mu.Unlock()

	if err := fn(r); err != nil {
		r.mu.Lock()
		r.claims = originalClaims
		r.mu.Unlock()
		return err
	}
	return nil
}

func (r *RepositoryStub) GetClaim(ctx context.Context, id ClaimId) (Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	claim, ok := r.claims[id]
	if !ok {
		return Claim{}, ErrClaimNotFound
	}
	return claim, nil
}

func (r *RepositoryStub) ListClaims(ctx context.Context, internId int) ([]Claim, error) {
	if r.BeforeListClaims != nil {
		r.BeforeListClaims()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ListClaimsErr != nil {
		return nil, r.ListClaimsErr
	}
	claims := make([]Claim, 0, len(r.claims))
	for _, claim := range r.claims {
		if claim.InternId == internId {
			claims = append(claims, claim)
		}
	}
	sort.Slice(claims, func(i, j int) bool {
		return claims[i].PeriodKey < claims[j].PeriodKey
	})
	return claims, nil
}

func (r *RepositoryStub) CreateClaim(ctx context.Context, claim Claim) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.claims[claim.Id()]; ok {
		return nil
	}
	claim.Status = StatusPending
	claim.UpdatedAt = time.Now()
	r.claims[claim.Id()] = claim
	return nil
}

func (r *RepositoryStub) SaveClaim(ctx context.Context, claim Claim) (Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.SaveClaimErr != nil {
		return Claim{}, r.SaveClaimErr
	}
	stored, ok := r.claims[claim.Id()]
	if !ok {
		return Claim{}, ErrClaimNotFound
	}
	if stored.IsPaid() {
		return Claim{}, ErrImmutableClaim
	}
	stored.Breakdown = claim.Breakdown
	stored.ComputedAmount = claim.ComputedAmount
	stored.ResolvedAmount = claim.ResolvedAmount
	stored.UpdatedAt = time.Now()
	r.claims[claim.Id()] = stored
	return stored, nil
}

func (r *RepositoryStub) UpsertAdjustment(ctx context.Context, id ClaimId, actor Actor, adjustment Adjustment) (Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	claim, ok := r.claims[id]
	if !ok {
		return Claim{}, ErrClaimNotFound
	}
	if claim.IsPaid() {
		return Claim{}, ErrImmutableClaim
	}
	claim = claim.WithAdjustment(actor, adjustment)
	claim.UpdatedAt = time.Now()
	r.claims[id] = claim
	return claim, nil
}

func (r *RepositoryStub) Approve(ctx context.Context, id ClaimId) (Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	claim, ok := r.claims[id]
	if !ok {
		return Claim{}, ErrClaimNotFound
	}
	if claim.IsPaid() {
		return Claim{}, ErrImmutableClaim
	}
	claim.Status = StatusApproved
	r.claims[id] = claim
	return claim, nil
}

func (r *RepositoryStub) MarkPaid(ctx context.Context, id ClaimId, paymentDate time.Time) (Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	claim, ok := r.claims[id]
	if !ok {
		return Claim{}, ErrClaimNotFound
	}
	if claim.IsPaid() {
		return Claim{}, ErrImmutableClaim
	}
	claim.Status = StatusPaid
	claim.PaymentDate = &paymentDate
	r.claims[id] = claim
	return claim, nil
}

func (r *RepositoryStub) GetWallet(ctx context.Context, internId int) (Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wallet, ok := r.wallets[internId]
	if !ok {
		return Wallet{}, ErrWalletNotFound
	}
	return wallet, nil
}

func (r *RepositoryStub) PutWallet(ctx context.Context, wallet Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.PutWalletCalls++
	if r.PutWalletErr != nil {
		return r.PutWalletErr
	}
	r.wallets[wallet.InternId] = wallet
	return nil
}

func (r *RepositoryStub) TryAcquireLock(ctx context.Context, internId int, runId string, startedAt time.Time, staleBefore time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if lock, ok := r.locks[internId]; ok && lock.Status == SyncRunning {
		if staleBefore.IsZero() || !lock.StartedAt.Before(staleBefore) {
			return false, nil
		}
	}
	r.locks[internId] = SyncLock{
		InternId:  internId,
		RunId:     runId,
		Status:    SyncRunning,
		StartedAt: startedAt,
	}
	return true, nil
}

func (r *RepositoryStub) ReleaseLock(ctx context.Context, internId int, runId string, status SyncStatus, errorMessage *string, finishedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[internId]
	if !ok || lock.RunId != runId {
		return nil
	}
	lock.Status = status
	lock.ErrorMessage = errorMessage
	lock.FinishedAt = &finishedAt
	r.locks[internId] = lock
	return nil
}

func (r *RepositoryStub) GetLock(ctx context.Context, internId int) (SyncLock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[internId]
	if !ok {
		return SyncLock{}, ErrSyncLockNotFound
	}
	return lock, nil
}

func (r *RepositoryStub) ForceReleaseLock(ctx context.Context, internId int, errorMessage string, finishedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[internId]
	if !ok || lock.Status != SyncRunning {
		return false, nil
	}
	lock.Status = SyncError
	lock.ErrorMessage = &errorMessage
	lock.FinishedAt = &finishedAt
	r.locks[internId] = lock
	return true, nil
}
