package service

// Dependencies holds all external service dependencies that actions can use.
// Components receive this struct and can access only the services they need.
type Dependencies struct {
	RewardIssuer       RewardIssuer
	CompletionRecorder CompletionRecorder
	RetryCredits       RetryCreditStore
}

// NewDependencies creates a new dependencies container.
// Services can be nil if not needed - components should handle nil gracefully.
func NewDependencies() *Dependencies {
	return &Dependencies{}
}

// WithRewardIssuer sets the reward issuer service
func (d *Dependencies) WithRewardIssuer(service RewardIssuer) *Dependencies {
	d.RewardIssuer = service
	return d
}

// WithCompletionRecorder sets the completion recorder service
func (d *Dependencies) WithCompletionRecorder(service CompletionRecorder) *Dependencies {
	d.CompletionRecorder = service
	return d
}

// WithRetryCredits sets the retry credit store
func (d *Dependencies) WithRetryCredits(service RetryCreditStore) *Dependencies {
	d.RetryCredits = service
	return d
}
