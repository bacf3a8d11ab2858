package httpadapter

import (
	"context"
	"log/slog"

	"agora/contexts/identity-access/user-ledger/application"
	"agora/contexts/identity-access/user-ledger/domain/entities"
	httptransport "agora/contexts/identity-access/user-ledger/transport/http"
)

type Handler struct {
	Users  application.Service
	Logger *slog.Logger
}

func (h Handler) RegisterUserHandler(
	ctx context.Context,
	idempotencyKey string,
	req httptransport.RegisterUserRequest,
) (httptransport.UserResponse, error) {
	user, err := h.Users.RegisterUser(ctx, idempotencyKey, application.RegisterUserInput{
		Wallet:      req.Wallet,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		return httptransport.UserResponse{}, err
	}
	return toUserResponse(user), nil
}

func (h Handler) GetUserHandler(ctx context.Context, userID string) (httptransport.UserResponse, error) {
	user, err := h.Users.GetUser(ctx, userID)
	if err != nil {
		return httptransport.UserResponse{}, err
	}
	return toUserResponse(user), nil
}

func (h Handler) GetUserByWalletHandler(ctx context.Context, wallet string) (httptransport.UserResponse, error) {
	user, err := h.Users.GetUserByWallet(ctx, wallet)
	if err != nil {
		return httptransport.UserResponse{}, err
	}
	return toUserResponse(user), nil
}

func toUserResponse(user entities.User) httptransport.UserResponse {
	tier := entities.TierForReputation(user.ReputationPoints)
	return httptransport.UserResponse{
		UserID:            user.UserID,
		Wallet:            user.Wallet,
		DisplayName:       user.DisplayName,
		ReputationPoints:  user.ReputationPoints,
		Level:             user.Level,
		VotingWeight:      user.VotingWeight,
		TotalVotesCast:    user.TotalVotesCast,
		TotalVotesCreated: user.TotalVotesCreated,
		FeeTier:           string(tier),
		FeeLamports:       tier.Lamports(),
	}
}
