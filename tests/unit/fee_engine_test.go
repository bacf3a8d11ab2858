package unit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	feeengine "agora/contexts/finance-core/fee-engine"
	"agora/contexts/finance-core/fee-engine/domain/entities"
	domainerrors "agora/contexts/finance-core/fee-engine/domain/errors"
)

func TestInitializeFeePoolOnce(t *testing.T) {
	module := feeengine.NewInMemoryModule(nil)

	pool, err := module.Service.InitializeFeePool(context.Background(), "treasury")
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if pool.Authority != "treasury" || pool.Balance != 0 {
		t.Fatalf("unexpected pool: %+v", pool)
	}

	if _, err := module.Service.InitializeFeePool(context.Background(), "other"); !errors.Is(err, domainerrors.ErrPoolAlreadyInitialized) {
		t.Fatalf("expected second init rejection, got %v", err)
	}
}

func TestCollectFeeAccruesPoolAndCommunity(t *testing.T) {
	module := feeengine.NewInMemoryModule(nil)

	if err := module.Service.CollectFee(context.Background(), "payer", "community-1", "poll-1", 10_000_000); !errors.Is(err, domainerrors.ErrPoolNotInitialized) {
		t.Fatalf("expected uninitialized pool rejection, got %v", err)
	}

	if _, err := module.Service.InitializeFeePool(context.Background(), "treasury"); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := module.Service.CollectFee(context.Background(), "payer", "community-1", "poll-1", 10_000_000); err != nil {
		t.Fatalf("collect: %v", err)
	}
	if err := module.Service.CollectFee(context.Background(), "payer", "community-1", "poll-2", 5_000_000); err != nil {
		t.Fatalf("collect second: %v", err)
	}

	pool, err := module.Service.GetPool(context.Background())
	if err != nil {
		t.Fatalf("get pool: %v", err)
	}
	if pool.TotalCollected != 15_000_000 || pool.Balance != 15_000_000 {
		t.Fatalf("unexpected pool totals: %+v", pool)
	}
	if got := module.Store.CommunityFee("community-1"); got != 15_000_000 {
		t.Fatalf("expected community accrual 15000000, got %d", got)
	}
}

func TestDistributeDailyFeesGates(t *testing.T) {
	module := feeengine.NewInMemoryModule(nil)
	if _, err := module.Service.InitializeFeePool(context.Background(), "treasury"); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	if _, err := module.Service.DistributeDailyFees(context.Background()); !errors.Is(err, domainerrors.ErrNoFundsToDistribute) {
		t.Fatalf("expected empty pool rejection, got %v", err)
	}

	if err := module.Service.CollectFee(context.Background(), "payer", "community-1", "poll-1", 100_000_000); err != nil {
		t.Fatalf("collect: %v", err)
	}
	pool, err := module.Service.DistributeDailyFees(context.Background())
	if err != nil {
		t.Fatalf("distribute: %v", err)
	}
	if pool.DailyDistribution != 5_000_000 {
		t.Fatalf("expected 5 percent tranche, got %d", pool.DailyDistribution)
	}

	if _, err := module.Service.DistributeDailyFees(context.Background()); !errors.Is(err, domainerrors.ErrDistributionNotReady) {
		t.Fatalf("expected interval gate, got %v", err)
	}

	module.Store.NowFunc = func() time.Time {
		return time.Now().Add(entities.DistributionInterval + time.Hour)
	}
	if _, err := module.Service.DistributeDailyFees(context.Background()); err != nil {
		t.Fatalf("distribute after interval: %v", err)
	}
}

func TestClaimRewardEligibilityAndEpochGate(t *testing.T) {
	module := feeengine.NewInMemoryModule(nil)
	module.Store.SetReputation("low", 99)
	module.Store.SetReputation("claimant", 600)
	if _, err := module.Service.InitializeFeePool(context.Background(), "treasury"); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := module.Service.CollectFee(context.Background(), "payer", "community-1", "poll-1", 100_000_000); err != nil {
		t.Fatalf("collect: %v", err)
	}

	if _, err := module.Service.ClaimReward(context.Background(), "claim-low", "low"); !errors.Is(err, domainerrors.ErrNotEligibleForReward) {
		t.Fatalf("expected reputation gate, got %v", err)
	}
	if _, err := module.Service.ClaimReward(context.Background(), "claim-early", "claimant"); !errors.Is(err, domainerrors.ErrNoDistributionYet) {
		t.Fatalf("expected pre-distribution rejection, got %v", err)
	}

	if _, err := module.Service.DistributeDailyFees(context.Background()); err != nil {
		t.Fatalf("distribute: %v", err)
	}

	record, err := module.Service.ClaimReward(context.Background(), "claim-1", "claimant")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	// 3 percent band of the 5,000,000 tranche.
	if record.TotalClaimed != 150_000 {
		t.Fatalf("expected payout 150000, got %d", record.TotalClaimed)
	}

	if _, err := module.Service.ClaimReward(context.Background(), "claim-2", "claimant"); !errors.Is(err, domainerrors.ErrAlreadyClaimedToday) {
		t.Fatalf("expected same-epoch rejection, got %v", err)
	}

	pool, err := module.Service.GetPool(context.Background())
	if err != nil {
		t.Fatalf("get pool: %v", err)
	}
	if pool.Balance != 100_000_000-150_000 {
		t.Fatalf("expected debited balance, got %d", pool.Balance)
	}
}

func TestWithdrawFeesIsAuthorityOnly(t *testing.T) {
	module := feeengine.NewInMemoryModule(nil)
	if _, err := module.Service.InitializeFeePool(context.Background(), "treasury"); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := module.Service.CollectFee(context.Background(), "payer", "community-1", "poll-1", 1_000_000); err != nil {
		t.Fatalf("collect: %v", err)
	}

	if _, err := module.Service.WithdrawFees(context.Background(), "stranger", 500_000); !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected authority rejection, got %v", err)
	}
	if _, err := module.Service.WithdrawFees(context.Background(), "treasury", 2_000_000); !errors.Is(err, domainerrors.ErrInsufficientFunds) {
		t.Fatalf("expected balance rejection, got %v", err)
	}

	pool, err := module.Service.WithdrawFees(context.Background(), "treasury", 500_000)
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if pool.Balance != 500_000 {
		t.Fatalf("expected remaining 500000, got %d", pool.Balance)
	}

	handed, err := module.Service.UpdateFeePoolAuthority(context.Background(), "treasury", "successor")
	if err != nil || handed.Authority != "successor" {
		t.Fatalf("expected authority handover, got %+v err %v", handed, err)
	}
	if _, err := module.Service.WithdrawFees(context.Background(), "treasury", 100_000); !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected old authority rejection, got %v", err)
	}
}

func TestConcurrentWithdrawalsDebitAtomically(t *testing.T) {
	module := feeengine.NewInMemoryModule(nil)
	if _, err := module.Service.InitializeFeePool(context.Background(), "treasury"); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := module.Service.CollectFee(context.Background(), "payer", "community-1", "poll-1", 1_000_000); err != nil {
		t.Fatalf("collect: %v", err)
	}

	// Two 600k withdrawals against a 1M balance. The check and debit share
	// one atomic step, so exactly one can go through.
	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = module.Service.WithdrawFees(context.Background(), "treasury", 600_000)
		}(i)
	}
	wg.Wait()

	rejected := 0
	for _, err := range results {
		if err == nil {
			continue
		}
		if !errors.Is(err, domainerrors.ErrInsufficientFunds) {
			t.Fatalf("unexpected withdrawal error: %v", err)
		}
		rejected++
	}
	if rejected != 1 {
		t.Fatalf("expected exactly one rejected withdrawal, got %d", rejected)
	}

	pool, err := module.Service.GetPool(context.Background())
	if err != nil {
		t.Fatalf("get pool: %v", err)
	}
	if pool.Balance != 400_000 {
		t.Fatalf("expected remaining 400000, got %d", pool.Balance)
	}
}
