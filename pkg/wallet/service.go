package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/internly/internly/internal/utils"
	"github.com/internly/internly/pkg/allowance"
	log "github.com/sirupsen/logrus"
)

var ErrNoRunningSync = errors.New("no running wallet sync")

type Service interface {
	// Sync rebuilds the intern's wallet from all claims. When another sync is running it returns
	// immediately with AlreadyRunning set.
	Sync(ctx context.Context, internId int) (SyncResult, error)
	GetWallet(ctx context.Context, internId int) (allowance.Wallet, error)
	GetSyncLock(ctx context.Context, internId int) (allowance.SyncLock, error)
	// ReleaseStuckSync moves a RUNNING lock to ERROR so a new sync can start.
	ReleaseStuckSync(ctx context.Context, internId int) error
}

// Store is the part of the claim store used by wallet sync.
type Store interface {
	ListClaims(ctx context.Context, internId int) ([]allowance.Claim, error)
	GetWallet(ctx context.Context, internId int) (allowance.Wallet, error)
	PutWallet(ctx context.Context, wallet allowance.Wallet) error
	TryAcquireLock(ctx context.Context, internId int, runId string, startedAt time.Time, staleBefore time.Time) (bool, error)
	ReleaseLock(ctx context.Context, internId int, runId string, status allowance.SyncStatus, errorMessage *string, finishedAt time.Time) error
	GetLock(ctx context.Context, internId int) (allowance.SyncLock, error)
	ForceReleaseLock(ctx context.Context, internId int, errorMessage string, finishedAt time.Time) (bool, error)
}

type SyncRecorder interface {
	ObserveSync(outcome string, duration time.Duration)
}

const (
	OutcomeDone           = "done"
	OutcomeError          = "error"
	OutcomeAlreadyRunning = "already_running"
)

type ServiceImpl struct {
	store    Store
	clock    utils.Clock
	recorder SyncRecorder
	// staleAfter lets a new run take over a RUNNING lock older than this. Zero keeps locks until released.
	staleAfter time.Duration
}

func NewService(store Store, clock utils.Clock, recorder SyncRecorder, staleAfter time.Duration) *ServiceImpl {
	return &ServiceImpl{store: store, clock: clock, recorder: recorder, staleAfter: staleAfter}
}

func (s *ServiceImpl) Sync(ctx context.Context, internId int) (SyncResult, error) {
	runId := uuid.NewString()
	startedAt := s.clock.Now()
	var staleBefore time.Time
	if s.staleAfter > 0 {
		staleBefore = startedAt.Add(-s.staleAfter)
	}

	acquired, err := s.store.TryAcquireLock(ctx, internId, runId, startedAt, staleBefore)
	if err != nil {
		return SyncResult{}, fmt.Errorf("failed to acquire wallet sync lock: %w", err)
	}
	if !acquired {
		log.Infof("wallet sync for intern %d already running", internId)
		s.observe(OutcomeAlreadyRunning, 0)
		return SyncResult{AlreadyRunning: true}, nil
	}
	log.Debugf("wallet sync %s for intern %d started", runId, internId)

	wallet, runErr := s.rebuild(ctx, internId)

	// the lock must be finished even when the caller went away
	releaseCtx := context.WithoutCancel(ctx)
	finishedAt := s.clock.Now()
	if runErr != nil {
		message := runErr.Error()
		if err := s.store.ReleaseLock(releaseCtx, internId, runId, allowance.SyncError, &message, finishedAt); err != nil {
			log.Errorf("failed to record wallet sync error for intern %d: %v", internId, err)
			runErr = errors.Join(runErr, err)
		}
		log.Errorf("wallet sync %s for intern %d failed: %v", runId, internId, runErr)
		s.observe(OutcomeError, finishedAt.Sub(startedAt))
		return SyncResult{}, fmt.Errorf("%w: %w", allowance.ErrSyncFailed, runErr)
	}

	if err := s.store.ReleaseLock(releaseCtx, internId, runId, allowance.SyncDone, nil, finishedAt); err != nil {
		s.observe(OutcomeError, finishedAt.Sub(startedAt))
		return SyncResult{}, fmt.Errorf("wallet stored but sync lock not released: %w", err)
	}
	log.Infof("wallet sync %s for intern %d done: %d claims, resolved total %s",
		runId, internId, wallet.ClaimCount, wallet.TotalResolvedAmount)
	s.observe(OutcomeDone, finishedAt.Sub(startedAt))
	return SyncResult{Wallet: wallet}, nil
}

// rebuild reads every claim and writes the folded wallet. Nothing is written unless folding succeeded.
func (s *ServiceImpl) rebuild(ctx context.Context, internId int) (wallet allowance.Wallet, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("wallet sync panic: %v", r)
		}
	}()

	claims, err := s.store.ListClaims(ctx, internId)
	if err != nil {
		return allowance.Wallet{}, fmt.Errorf("failed to list claims: %w", err)
	}
	wallet = Fold(internId, claims, s.clock.Now())
	if err := s.store.PutWallet(ctx, wallet); err != nil {
		return allowance.Wallet{}, fmt.Errorf("failed to store wallet: %w", err)
	}
	return wallet, nil
}

func (s *ServiceImpl) GetWallet(ctx context.Context, internId int) (allowance.Wallet, error) {
	return s.store.GetWallet(ctx, internId)
}

func (s *ServiceImpl) GetSyncLock(ctx context.Context, internId int) (allowance.SyncLock, error) {
	return s.store.GetLock(ctx, internId)
}

func (s *ServiceImpl) ReleaseStuckSync(ctx context.Context, internId int) error {
	released, err := s.store.ForceReleaseLock(ctx, internId, "released manually by administrator", s.clock.Now())
	if err != nil {
		return err
	}
	if !released {
		return ErrNoRunningSync
	}
	log.Warnf("wallet sync lock of intern %d released manually", internId)
	return nil
}

func (s *ServiceImpl) observe(outcome string, duration time.Duration) {
	if s.recorder != nil {
		s.recorder.ObserveSync(outcome, duration)
	}
}
