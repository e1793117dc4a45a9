package core

import "time"

type Services struct {
	User     *UserService
	APIKey   *APIKeyService
	Usage    *UsageService
	FineTune *FineTuneService
}

func NewServices(db DB, usageCacheTTL time.Duration) *Services {
	return &Services{
		User:     NewUserService(db),
		APIKey:   NewAPIKeyService(db),
		Usage:    NewUsageService(db, usageCacheTTL),
		FineTune: NewFineTuneService(db),
	}
}
