package allowance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Repository is the claim store: per-period claims, the lifetime wallet and the wallet sync lock.
type Repository interface {
	WithTransaction(ctx context.Context, fn func(repo Repository) error) error
	GetClaim(ctx context.Context, id ClaimId) (Claim, error)
	ListClaims(ctx context.Context, internId int) ([]Claim, error)
	// CreateClaim inserts the claim unless one already exists for its period.
	CreateClaim(ctx context.Context, claim Claim) error
	// SaveClaim writes the breakdown and amounts of an existing claim. Adjustments and status are not written.
	// Fails with ErrImmutableClaim when the stored claim is PAID.
	SaveClaim(ctx context.Context, claim Claim) (Claim, error)
	// UpsertAdjustment replaces the actor's adjustment slot and returns the updated claim.
	UpsertAdjustment(ctx context.Context, id ClaimId, actor Actor, adjustment Adjustment) (Claim, error)
	Approve(ctx context.Context, id ClaimId) (Claim, error)
	MarkPaid(ctx context.Context, id ClaimId, paymentDate time.Time) (Claim, error)

	GetWallet(ctx context.Context, internId int) (Wallet, error)
	PutWallet(ctx context.Context, wallet Wallet) error

	// TryAcquireLock atomically sets the intern's lock to RUNNING unless another run holds it.
	// A RUNNING lock started before staleBefore is taken over; a zero staleBefore never takes over.
	TryAcquireLock(ctx context.Context, internId int, runId string, startedAt time.Time, staleBefore time.Time) (bool, error)
	// ReleaseLock finishes the run identified by runId with DONE or ERROR.
	ReleaseLock(ctx context.Context, internId int, runId string, status SyncStatus, errorMessage *string, finishedAt time.Time) error
	GetLock(ctx context.Context, internId int) (SyncLock, error)
	// ForceReleaseLock moves a RUNNING lock to ERROR regardless of its owner. Returns false when no lock was running.
	ForceReleaseLock(ctx context.Context, internId int, errorMessage string, finishedAt time.Time) (bool, error)
}

type repositoryImpl struct {
	db *pgxpool.Pool
	tx pgx.Tx
}

func NewRepo(db *pgxpool.Pool) Repository {
	return &repositoryImpl{db: db}
}

// getQueryer returns the appropriate database interface for queries (either tx or db)
func (r *repositoryImpl) getQueryer() interface {
	Exec(ctx context.Context, query string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, query string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, query string, args ...interface{}) pgx.Row
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *repositoryImpl) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return storeError("begin transaction", err)
	}
	defer func() {
		// The Rollback will be a no-op if the transaction was already committed
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			log.Errorf("rollback error: %v", rbErr)
		}
	}()

	txRepo := &repositoryImpl{db: r.db, tx: tx}
	if err := fn(txRepo); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return storeError("commit transaction", err)
	}
	return nil
}

const claimColumns = `
	intern_id,
	period_key,
	wfo_days,
	wfh_days,
	leave_days,
	computed_amount,
	resolved_amount,
	supervisor_amount,
	supervisor_note,
	supervisor_actor_id,
	supervisor_adjusted_at,
	admin_amount,
	admin_note,
	admin_actor_id,
	admin_adjusted_at,
	status,
	payment_date,
	updated_at`

func (r *repositoryImpl) GetClaim(ctx context.Context, id ClaimId) (Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM allowance_claim WHERE intern_id = $1 AND period_key = $2`
	if r.tx != nil {
		// inside a transaction the row stays locked until commit so concurrent writers serialize
		query += ` FOR UPDATE`
	}
	claim, err := scanClaim(r.getQueryer().QueryRow(ctx, query, id.InternId, string(id.PeriodKey)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Claim{}, ErrClaimNotFound
		}
		return Claim{}, storeError("get claim "+id.String(), err)
	}
	return claim, nil
}

func (r *repositoryImpl) ListClaims(ctx context.Context, internId int) ([]Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM allowance_claim WHERE intern_id = $1 ORDER BY period_key`
	rows, err := r.getQueryer().Query(ctx, query, internId)
	if err != nil {
		return nil, storeError("list claims", err)
	}
	defer rows.Close()

	claims := make([]Claim, 0, 12)
	for rows.Next() {
		claim, err := scanClaim(rows)
		if err != nil {
			return nil, storeError("scan claim", err)
		}
		claims = append(claims, claim)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate claims", err)
	}
	return claims, nil
}

func (r *repositoryImpl) CreateClaim(ctx context.Context, claim Claim) error {
	query := `INSERT INTO allowance_claim (
                             intern_id,
                             period_key,
                             wfo_days,
                             wfh_days,
                             leave_days,
                             computed_amount,
                             resolved_amount,
                             status
			  ) VALUES ($1, $2, $3, $4, $5, $6, $7, 'PENDING')
			  ON CONFLICT (intern_id, period_key) DO NOTHING`
	_, err := r.getQueryer().Exec(ctx, query,
		claim.InternId,
		string(claim.PeriodKey),
		claim.Breakdown.Wfo,
		claim.Breakdown.Wfh,
		claim.Breakdown.Leaves,
		claim.ComputedAmount,
		claim.ResolvedAmount,
	)
	if err != nil {
		return storeError("create claim "+claim.Id().String(), err)
	}
	return nil
}

func (r *repositoryImpl) SaveClaim(ctx context.Context, claim Claim) (Claim, error) {
	query := `UPDATE allowance_claim SET
                             wfo_days = $1,
                             wfh_days = $2,
                             leave_days = $3,
                             computed_amount = $4,
                             resolved_amount = $5,
                             updated_at = now()
			  WHERE intern_id = $6 AND period_key = $7 AND status <> 'PAID'
			  RETURNING ` + claimColumns
	saved, err := scanClaim(r.getQueryer().QueryRow(ctx, query,
		claim.Breakdown.Wfo,
		claim.Breakdown.Wfh,
		claim.Breakdown.Leaves,
		claim.ComputedAmount,
		claim.ResolvedAmount,
		claim.InternId,
		string(claim.PeriodKey),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Claim{}, r.explainMissedUpdate(ctx, claim.Id())
		}
		return Claim{}, storeError("save claim "+claim.Id().String(), err)
	}
	return saved, nil
}

func (r *repositoryImpl) UpsertAdjustment(ctx context.Context, id ClaimId, actor Actor, adjustment Adjustment) (Claim, error) {
	// column prefix comes from the Actor constant, never from user input
	prefix := "supervisor"
	if actor == Admin {
		prefix = "admin"
	}
	query := fmt.Sprintf(`UPDATE allowance_claim SET
                                %[1]s_amount = $1,
                                %[1]s_note = $2,
                                %[1]s_actor_id = $3,
                                %[1]s_adjusted_at = $4,
                                updated_at = now()
			  WHERE intern_id = $5 AND period_key = $6 AND status <> 'PAID'
			  RETURNING `+claimColumns, prefix)
	claim, err := scanClaim(r.getQueryer().QueryRow(ctx, query,
		adjustment.Amount,
		adjustment.Note,
		adjustment.ActorId,
		adjustment.AdjustedAt,
		id.InternId,
		string(id.PeriodKey),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Claim{}, r.explainMissedUpdate(ctx, id)
		}
		return Claim{}, storeError("upsert adjustment "+id.String(), err)
	}
	return claim, nil
}

func (r *repositoryImpl) Approve(ctx context.Context, id ClaimId) (Claim, error) {
	query := `UPDATE allowance_claim SET status = 'APPROVED', updated_at = now()
			  WHERE intern_id = $1 AND period_key = $2 AND status = 'PENDING'
			  RETURNING ` + claimColumns
	claim, err := scanClaim(r.getQueryer().QueryRow(ctx, query, id.InternId, string(id.PeriodKey)))
	if err == nil {
		return claim, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Claim{}, storeError("approve claim "+id.String(), err)
	}

	existing, err := r.GetClaim(ctx, id)
	if err != nil {
		return Claim{}, err
	}
	if existing.IsPaid() {
		return Claim{}, ErrImmutableClaim
	}
	// already approved
	return existing, nil
}

func (r *repositoryImpl) MarkPaid(ctx context.Context, id ClaimId, paymentDate time.Time) (Claim, error) {
	query := `UPDATE allowance_claim SET status = 'PAID', payment_date = $1, updated_at = now()
			  WHERE intern_id = $2 AND period_key = $3 AND status <> 'PAID'
			  RETURNING ` + claimColumns
	claim, err := scanClaim(r.getQueryer().QueryRow(ctx, query, paymentDate, id.InternId, string(id.PeriodKey)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Claim{}, r.explainMissedUpdate(ctx, id)
		}
		return Claim{}, storeError("mark claim paid "+id.String(), err)
	}
	return claim, nil
}

// explainMissedUpdate tells apart a PAID claim from a missing one after a guarded UPDATE matched no row.
func (r *repositoryImpl) explainMissedUpdate(ctx context.Context, id ClaimId) error {
	var status string
	err := r.getQueryer().QueryRow(ctx,
		`SELECT status FROM allowance_claim WHERE intern_id = $1 AND period_key = $2`,
		id.InternId, string(id.PeriodKey),
	).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrClaimNotFound
		}
		return storeError("get claim status "+id.String(), err)
	}
	if ClaimStatus(status) == StatusPaid {
		return ErrImmutableClaim
	}
	return fmt.Errorf("claim %s was not updated in status %s", id, status)
}

func (r *repositoryImpl) GetWallet(ctx context.Context, internId int) (Wallet, error) {
	query := `SELECT
    			intern_id,
    			total_computed_amount,
    			total_resolved_amount,
    			total_paid_amount,
    			total_pending_amount,
    			total_wfo_days,
    			total_wfh_days,
    			total_leave_days,
    			claim_count,
    			synced_at
			  FROM allowance_wallet WHERE intern_id = $1`
	var wallet Wallet
	err := r.getQueryer().QueryRow(ctx, query, internId).Scan(
		&wallet.InternId,
		&wallet.TotalComputedAmount,
		&wallet.TotalResolvedAmount,
		&wallet.TotalPaidAmount,
		&wallet.TotalPendingAmount,
		&wallet.TotalBreakdown.Wfo,
		&wallet.TotalBreakdown.Wfh,
		&wallet.TotalBreakdown.Leaves,
		&wallet.ClaimCount,
		&wallet.SyncedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, ErrWalletNotFound
		}
		return Wallet{}, storeError("get wallet", err)
	}
	return wallet, nil
}

func (r *repositoryImpl) PutWallet(ctx context.Context, wallet Wallet) error {
	query := `INSERT INTO allowance_wallet (
                              intern_id,
                              total_computed_amount,
                              total_resolved_amount,
                              total_paid_amount,
                              total_pending_amount,
                              total_wfo_days,
                              total_wfh_days,
                              total_leave_days,
                              claim_count,
                              synced_at
			  ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			  ON CONFLICT (intern_id) DO UPDATE SET
                              total_computed_amount = EXCLUDED.total_computed_amount,
                              total_resolved_amount = EXCLUDED.total_resolved_amount,
                              total_paid_amount = EXCLUDED.total_paid_amount,
                              total_pending_amount = EXCLUDED.total_pending_amount,
                              total_wfo_days = EXCLUDED.total_wfo_days,
                              total_wfh_days = EXCLUDED.total_wfh_days,
                              total_leave_days = EXCLUDED.total_leave_days,
                              claim_count = EXCLUDED.claim_count,
                              synced_at = EXCLUDED.synced_at`
	_, err := r.getQueryer().Exec(ctx, query,
		wallet.InternId,
		wallet.TotalComputedAmount,
		wallet.TotalResolvedAmount,
		wallet.TotalPaidAmount,
		wallet.TotalPendingAmount,
		wallet.TotalBreakdown.Wfo,
		wallet.TotalBreakdown.Wfh,
		wallet.TotalBreakdown.Leaves,
		wallet.ClaimCount,
		wallet.SyncedAt,
	)
	if err != nil {
		return storeError("put wallet", err)
	}
	return nil
}

func (r *repositoryImpl) TryAcquireLock(ctx context.Context, internId int, runId string, startedAt time.Time, staleBefore time.Time) (bool, error) {
	// Single conditional write: the row is inserted, or taken over only when it is not RUNNING
	// (or RUNNING but older than staleBefore). Concurrent callers serialize on the row.
	query := `INSERT INTO wallet_sync_lock (intern_id, run_id, status, started_at, finished_at, error_message)
			  VALUES ($1, $2, 'RUNNING', $3, NULL, NULL)
			  ON CONFLICT (intern_id) DO UPDATE SET
                              run_id = EXCLUDED.run_id,
                              status = 'RUNNING',
                              started_at = EXCLUDED.started_at,
                              finished_at = NULL,
                              error_message = NULL
			  WHERE wallet_sync_lock.status <> 'RUNNING'
			     OR ($4 AND wallet_sync_lock.started_at < $5)
			  RETURNING run_id`
	var acquiredRunId string
	err := r.getQueryer().QueryRow(ctx, query, internId, runId, startedAt, !staleBefore.IsZero(), staleBefore).Scan(&acquiredRunId)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, storeError("acquire sync lock", err)
	}
	return acquiredRunId == runId, nil
}

func (r *repositoryImpl) ReleaseLock(ctx context.Context, internId int, runId string, status SyncStatus, errorMessage *string, finishedAt time.Time) error {
	query := `UPDATE wallet_sync_lock SET status = $1, error_message = $2, finished_at = $3
			  WHERE intern_id = $4 AND run_id = $5`
	result, err := r.getQueryer().Exec(ctx, query, string(status), errorMessage, finishedAt, internId, runId)
	if err != nil {
		return storeError("release sync lock", err)
	}
	if result.RowsAffected() == 0 {
		log.Warnf("sync lock of intern %d is no longer owned by run %s", internId, runId)
	}
	return nil
}

func (r *repositoryImpl) GetLock(ctx context.Context, internId int) (SyncLock, error) {
	query := `SELECT intern_id, run_id, status, started_at, finished_at, error_message
			  FROM wallet_sync_lock WHERE intern_id = $1`
	var lock SyncLock
	var status string
	err := r.getQueryer().QueryRow(ctx, query, internId).Scan(
		&lock.InternId,
		&lock.RunId,
		&status,
		&lock.StartedAt,
		&lock.FinishedAt,
		&lock.ErrorMessage,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SyncLock{}, ErrSyncLockNotFound
		}
		return SyncLock{}, storeError("get sync lock", err)
	}
	lock.Status = SyncStatus(status)
	return lock, nil
}

func (r *repositoryImpl) ForceReleaseLock(ctx context.Context, internId int, errorMessage string, finishedAt time.Time) (bool, error) {
	query := `UPDATE wallet_sync_lock SET status = 'ERROR', error_message = $1, finished_at = $2
			  WHERE intern_id = $3 AND status = 'RUNNING'`
	result, err := r.getQueryer().Exec(ctx, query, errorMessage, finishedAt, internId)
	if err != nil {
		return false, storeError("force release sync lock", err)
	}
	return result.RowsAffected() > 0, nil
}

func scanClaim(row pgx.Row) (Claim, error) {
	var claim Claim
	var periodKey, status string
	var supervisor, admin adjustmentColumns
	err := row.Scan(
		&claim.InternId,
		&periodKey,
		&claim.Breakdown.Wfo,
		&claim.Breakdown.Wfh,
		&claim.Breakdown.Leaves,
		&claim.ComputedAmount,
		&claim.ResolvedAmount,
		&supervisor.amount,
		&supervisor.note,
		&supervisor.actorId,
		&supervisor.adjustedAt,
		&admin.amount,
		&admin.note,
		&admin.actorId,
		&admin.adjustedAt,
		&status,
		&claim.PaymentDate,
		&claim.UpdatedAt,
	)
	if err != nil {
		return Claim{}, err
	}
	claim.PeriodKey = PeriodKey(periodKey)
	claim.Status = ClaimStatus(status)
	claim.SupervisorAdjustment = supervisor.toAdjustment()
	claim.AdminAdjustment = admin.toAdjustment()
	return claim, nil
}

type adjustmentColumns struct {
	amount     decimal.NullDecimal
	note       *string
	actorId    *int
	adjustedAt *time.Time
}

func (c adjustmentColumns) toAdjustment() *Adjustment {
	if !c.amount.Valid || c.adjustedAt == nil {
		return nil
	}
	adjustment := &Adjustment{
		Amount:     c.amount.Decimal,
		AdjustedAt: *c.adjustedAt,
	}
	if c.note != nil {
		adjustment.Note = *c.note
	}
	if c.actorId != nil {
		adjustment.ActorId = *c.actorId
	}
	return adjustment
}

func storeError(op string, err error) error {
	wrapped := fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
	log.Error(wrapped)
	return wrapped
}
