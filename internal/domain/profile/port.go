package profile

import "context"

// Repository port for the profile collaborator. Get returns (nil, nil) when
// the user has no profile yet.
type Repository interface {
	Get(ctx context.Context, userID string) (*Profile, error)
	Save(ctx context.Context, p *Profile) error
}
