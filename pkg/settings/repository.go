package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/internly/internly/pkg/allowance"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrSettingsNotFound = errors.New("allowance settings not configured")

type Repository interface {
	GetRules(ctx context.Context) (allowance.Rules, error)
	StoreRules(ctx context.Context, rules allowance.Rules) (allowance.Rules, error)
}

type repositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) GetRules(ctx context.Context) (allowance.Rules, error) {
	query := `SELECT payout_frequency, wfo_rate, wfh_rate, apply_tax, tax_percent FROM allowance_settings WHERE id = 1`
	rules, err := scanRules(r.db.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return allowance.Rules{}, ErrSettingsNotFound
		}
		err := fmt.Errorf("%w: could not read allowance settings: %w", allowance.ErrStoreUnavailable, err)
		log.Error(err)
		return allowance.Rules{}, err
	}
	return rules, nil
}

func (r *repositoryImpl) StoreRules(ctx context.Context, rules allowance.Rules) (allowance.Rules, error) {
	query := `INSERT INTO allowance_settings (id, payout_frequency, wfo_rate, wfh_rate, apply_tax, tax_percent)
			  VALUES (1, $1, $2, $3, $4, $5)
			  ON CONFLICT (id) DO UPDATE SET
				  payout_frequency = EXCLUDED.payout_frequency,
				  wfo_rate = EXCLUDED.wfo_rate,
				  wfh_rate = EXCLUDED.wfh_rate,
				  apply_tax = EXCLUDED.apply_tax,
				  tax_percent = EXCLUDED.tax_percent
			  RETURNING payout_frequency, wfo_rate, wfh_rate, apply_tax, tax_percent`
	stored, err := scanRules(r.db.QueryRow(ctx, query,
		string(rules.PayoutFrequency), rules.WfoRate, rules.WfhRate, rules.ApplyTax, rules.TaxPercent))
	if err != nil {
		err := fmt.Errorf("%w: could not store allowance settings: %w", allowance.ErrStoreUnavailable, err)
		log.Error(err)
		return allowance.Rules{}, err
	}
	return stored, nil
}

func scanRules(row pgx.Row) (allowance.Rules, error) {
	var rules allowance.Rules
	var frequency string
	err := row.Scan(&frequency, &rules.WfoRate, &rules.WfhRate, &rules.ApplyTax, &rules.TaxPercent)
	if err != nil {
		return allowance.Rules{}, err
	}
	rules.PayoutFrequency = allowance.PayoutFrequency(frequency)
	return rules, nil
}
