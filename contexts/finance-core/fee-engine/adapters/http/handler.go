package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"agora/contexts/finance-core/fee-engine/application"
	"agora/contexts/finance-core/fee-engine/domain/entities"
	httptransport "agora/contexts/finance-core/fee-engine/transport/http"
)

type Handler struct {
	Fees   application.Service
	Logger *slog.Logger
}

func (h Handler) InitializePoolHandler(ctx context.Context, req httptransport.InitializePoolRequest) (httptransport.FeePoolResponse, error) {
	pool, err := h.Fees.InitializeFeePool(ctx, req.Authority)
	if err != nil {
		return httptransport.FeePoolResponse{}, err
	}
	return toPoolResponse(pool), nil
}

func (h Handler) GetPoolHandler(ctx context.Context) (httptransport.FeePoolResponse, error) {
	pool, err := h.Fees.GetPool(ctx)
	if err != nil {
		return httptransport.FeePoolResponse{}, err
	}
	return toPoolResponse(pool), nil
}

func (h Handler) DistributeHandler(ctx context.Context) (httptransport.FeePoolResponse, error) {
	pool, err := h.Fees.DistributeDailyFees(ctx)
	if err != nil {
		return httptransport.FeePoolResponse{}, err
	}
	return toPoolResponse(pool), nil
}

func (h Handler) ClaimRewardHandler(ctx context.Context, userID string, idempotencyKey string) (httptransport.RewardResponse, error) {
	record, err := h.Fees.ClaimReward(ctx, idempotencyKey, userID)
	if err != nil {
		return httptransport.RewardResponse{}, err
	}
	return toRewardResponse(record), nil
}

func (h Handler) GetRewardHandler(ctx context.Context, userID string) (httptransport.RewardResponse, error) {
	record, err := h.Fees.GetReward(ctx, userID)
	if err != nil {
		return httptransport.RewardResponse{}, err
	}
	return toRewardResponse(record), nil
}

func (h Handler) WithdrawFeesHandler(ctx context.Context, callerID string, req httptransport.WithdrawFeesRequest) (httptransport.FeePoolResponse, error) {
	pool, err := h.Fees.WithdrawFees(ctx, callerID, req.Amount)
	if err != nil {
		return httptransport.FeePoolResponse{}, err
	}
	return toPoolResponse(pool), nil
}

func (h Handler) UpdateAuthorityHandler(ctx context.Context, callerID string, req httptransport.UpdateAuthorityRequest) (httptransport.FeePoolResponse, error) {
	pool, err := h.Fees.UpdateFeePoolAuthority(ctx, callerID, req.NewAuthority)
	if err != nil {
		return httptransport.FeePoolResponse{}, err
	}
	return toPoolResponse(pool), nil
}

func (h Handler) FeeScheduleHandler(ctx context.Context) httptransport.FeeScheduleResponse {
	entries := h.Fees.GetFeeSchedule(ctx)
	items := make([]httptransport.FeeScheduleEntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, httptransport.FeeScheduleEntryResponse{
			Tier:          entry.Tier,
			MinReputation: entry.MinReputation,
			FeeLamports:   entry.FeeLamports,
		})
	}
	return httptransport.FeeScheduleResponse{Items: items}
}

func toPoolResponse(pool entities.FeePool) httptransport.FeePoolResponse {
	resp := httptransport.FeePoolResponse{
		PoolID:            pool.PoolID,
		Authority:         pool.Authority,
		TotalCollected:    pool.TotalCollected,
		Balance:           pool.Balance,
		DailyDistribution: pool.DailyDistribution,
	}
	if pool.LastDistribution != nil {
		resp.LastDistribution = pool.LastDistribution.Format(time.RFC3339)
	}
	return resp
}

func toRewardResponse(record entities.RewardRecord) httptransport.RewardResponse {
	resp := httptransport.RewardResponse{
		UserID:       record.UserID,
		TotalClaimed: record.TotalClaimed,
	}
	if record.LastClaimed != nil {
		resp.LastClaimed = record.LastClaimed.Format(time.RFC3339)
	}
	return resp
}
