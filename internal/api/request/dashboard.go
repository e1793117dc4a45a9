package request

// CreateUser holds the request body for registering a dashboard user.
type CreateUser struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,min=1,max=255"`
	Password string `json:"password" validate:"required,min=8"`
}

// CreateAPIKey holds the request body for creating an API key.
type CreateAPIKey struct {
	Name      string `json:"name" validate:"required,min=1,max=255"`
	RateLimit int    `json:"rate_limit,omitempty" validate:"omitempty,min=1"`
}

// UpdateAPIKey holds the request body for activating or deactivating a key.
type UpdateAPIKey struct {
	IsActive *bool `json:"is_active" validate:"required"`
}
