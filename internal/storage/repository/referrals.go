package repository

import (
	"context"
	"fmt"

	"github.com/idleforest/idleforest/internal/models"
	"github.com/idleforest/idleforest/internal/storage"
)

// GetReferralCode возвращает реферальный код пользователя.
func (s *Storage) GetReferralCode(ctx context.Context, userID string) (*models.ReferralCode, error) {
	const op = "storage.GetReferralCode"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var rc models.ReferralCode
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, user_id, code, uses, created_at FROM referral_codes WHERE user_id = $1`, userID).
		Scan(&rc.ID, &rc.UserID, &rc.Code, &rc.Uses, &rc.CreatedAt)
	if err != nil {
		return nil, mapError(op, err)
	}
	return &rc, nil
}

// CreateReferralCode сохраняет новый код пользователя.
// Конфликт по пользователю или по коду возвращает storage.ErrAlreadyExists.
func (s *Storage) CreateReferralCode(ctx context.Context, userID, code string) (*models.ReferralCode, error) {
	const op = "storage.CreateReferralCode"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var rc models.ReferralCode
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO referral_codes (user_id, code, uses)
		 VALUES ($1, $2, 0)
		 RETURNING id, user_id, code, uses, created_at`, userID, code).
		Scan(&rc.ID, &rc.UserID, &rc.Code, &rc.Uses, &rc.CreatedAt)
	if err != nil {
		return nil, mapError(op, err)
	}
	return &rc, nil
}

// GetReferralStats возвращает статистику приглашений пользователя.
func (s *Storage) GetReferralStats(ctx context.Context, userID string) (*models.ReferralStats, error) {
	const op = "storage.GetReferralStats"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var st models.ReferralStats
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, user_id, total_referrals, total_points, total_earnings,
		        pending_earnings, donated_amount, created_at
		 FROM referral_stats WHERE user_id = $1`, userID).
		Scan(&st.ID, &st.UserID, &st.TotalReferrals, &st.TotalPoints, &st.TotalEarnings,
			&st.PendingEarnings, &st.DonatedAmount, &st.CreatedAt)
	if err != nil {
		return nil, mapError(op, err)
	}
	return &st, nil
}

// RedeemReferral засчитывает приглашение владельцу кода.
// Каждый приглашённый пользователь засчитывается не более одного раза:
// повторный вызов возвращает false без изменений.
func (s *Storage) RedeemReferral(ctx context.Context, code, referredUserID string, points int64) (bool, error) {
	const op = "storage.RedeemReferral"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	defer rollback(tx)

	var ownerID string
	err = tx.QueryRowContext(ctx,
		`SELECT user_id FROM referral_codes WHERE code = $1 FOR UPDATE`, code).Scan(&ownerID)
	if err != nil {
		return false, mapError(op, err)
	}
	if ownerID == referredUserID {
		return false, fmt.Errorf("%s: %w", op, storage.ErrInvalidReferral)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO referral_redemptions (referred_user_id, code)
		 VALUES ($1, $2)
		 ON CONFLICT (referred_user_id) DO NOTHING`, referredUserID, code)
	if err != nil {
		return false, mapError(op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return false, nil
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE referral_codes SET uses = uses + 1 WHERE code = $1`, code); err != nil {
		return false, mapError(op, err)
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO referral_stats (user_id, total_referrals, total_points)
		 VALUES ($1, 1, $2)
		 ON CONFLICT (user_id) DO UPDATE
		 SET total_referrals = referral_stats.total_referrals + 1,
		     total_points = referral_stats.total_points + EXCLUDED.total_points`,
		ownerID, points); err != nil {
		return false, mapError(op, err)
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}
