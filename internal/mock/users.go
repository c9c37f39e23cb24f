package mock

import (
	"context"
	"sync"

	"github.com/fhuszti/levigram-go/internal/model"
)

// UsersAPI implements port.UsersAPI and port.PushAPI for tests.
type UsersAPI struct {
	mu sync.Mutex

	// stored values
	MeUser  model.User
	Session model.Session

	// captured inputs
	Updated       map[string]model.ProfilePayload
	Signups       []model.SignupInput
	Resets        []model.PasswordReset
	Subscriptions []model.PushSubscription

	// errors
	LoginErr  error
	SignupErr error
	MeErr     error
	UpdateErr error
	ResetErr  error
	PushErr   error

	// call flags
	MeCalled bool
}

func (m *UsersAPI) Login(ctx context.Context, in model.Credentials) (model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoginErr != nil {
		return model.Session{}, m.LoginErr
	}
	return m.Session, nil
}

func (m *UsersAPI) Signup(ctx context.Context, in model.SignupInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Signups = append(m.Signups, in)
	return m.SignupErr
}

func (m *UsersAPI) Me(ctx context.Context) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MeCalled = true
	if m.MeErr != nil {
		return model.User{}, m.MeErr
	}
	return m.MeUser, nil
}

func (m *UsersAPI) UpdateProfile(ctx context.Context, userID string, in model.ProfilePayload) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Updated == nil {
		m.Updated = map[string]model.ProfilePayload{}
	}
	m.Updated[userID] = in
	if m.UpdateErr != nil {
		return model.User{}, m.UpdateErr
	}
	return model.User{ID: userID, Username: in.Username, ProfilePicture: in.ProfilePicture}, nil
}

func (m *UsersAPI) ResetPassword(ctx context.Context, in model.PasswordReset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Resets = append(m.Resets, in)
	return m.ResetErr
}

func (m *UsersAPI) SubscribePush(ctx context.Context, sub model.PushSubscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Subscriptions = append(m.Subscriptions, sub)
	return m.PushErr
}
