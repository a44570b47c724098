package unitofwork

import (
	"context"

	"subtrackr-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	MembershipRepository() contract.MembershipRepository
	SubscriptionRepository() contract.SubscriptionRepository
	TransactionRepository() contract.TransactionRepository
	ProviderRepository() contract.ProviderRepository
	CancellationRepository() contract.CancellationRepository
}
