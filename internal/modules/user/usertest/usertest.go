// Package usertest provides in-memory doubles for the user module's
// collaborators.
package usertest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/delordemm1/cryptjournal-api/internal/modules/user"
)

// Repository is an in-memory user.Repository. It enforces unique emails and
// redeems reset tokens atomically, like the Postgres implementation.
type Repository struct {
	mu    sync.Mutex
	users map[string]*user.User

	// Err, when set, is returned by every method.
	Err error
}

var _ user.Repository = (*Repository)(nil)

// NewRepository returns an empty repository.
func NewRepository() *Repository {
	return &Repository{users: make(map[string]*user.User)}
}

func clone(u *user.User) *user.User {
	cp := *u
	if u.ResetPasswordToken != nil {
		t := *u.ResetPasswordToken
		cp.ResetPasswordToken = &t
	}
	if u.ResetPasswordExpires != nil {
		e := *u.ResetPasswordExpires
		cp.ResetPasswordExpires = &e
	}
	return &cp
}

func (r *Repository) byEmail(email string) *user.User {
	for _, u := range r.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

func (r *Repository) Create(ctx context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if r.byEmail(u.Email) != nil {
		return user.ErrEmailExists
	}
	r.users[u.ID] = clone(u)
	return nil
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	if u := r.byEmail(email); u != nil {
		return clone(u), nil
	}
	return nil, user.ErrNotFound
}

func (r *Repository) FindByID(ctx context.Context, id string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	if u, ok := r.users[id]; ok {
		return clone(u), nil
	}
	return nil, user.ErrNotFound
}

func (r *Repository) UpdateProfile(ctx context.Context, id string, in user.UpdateProfileInput) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	u, ok := r.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	if in.Email != nil && *in.Email != u.Email {
		if r.byEmail(*in.Email) != nil {
			return nil, user.ErrEmailExists
		}
		u.Email = *in.Email
	}
	if in.FirstName != nil {
		u.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		u.LastName = *in.LastName
	}
	if in.PhoneNumber != nil {
		u.PhoneNumber = *in.PhoneNumber
	}
	if in.MFAEnabled != nil {
		u.MFAEnabled = *in.MFAEnabled
	}
	return clone(u), nil
}

func (r *Repository) TouchLastLogon(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	u, ok := r.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.LastLogon = at
	return nil
}

func (r *Repository) SetPasswordResetToken(ctx context.Context, userID, token string, expires time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	u, ok := r.users[userID]
	if !ok {
		return user.ErrNotFound
	}
	u.ResetPasswordToken = &token
	u.ResetPasswordExpires = &expires
	return nil
}

func (r *Repository) FindByPasswordResetToken(ctx context.Context, token string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	for _, u := range r.users {
		if u.ResetPasswordToken != nil && *u.ResetPasswordToken == token {
			return clone(u), nil
		}
	}
	return nil, user.ErrNotFound
}

func (r *Repository) RedeemPasswordResetToken(ctx context.Context, token, newPasswordHash string, now time.Time) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	for _, u := range r.users {
		if u.ResetPasswordToken != nil && *u.ResetPasswordToken == token && u.HasActiveResetToken(now) {
			u.PasswordHash = newPasswordHash
			u.ResetPasswordToken = nil
			u.ResetPasswordExpires = nil
			return clone(u), nil
		}
	}
	return nil, user.ErrNotFound
}

// Count returns the number of users with email.
func (r *Repository) Count(email string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, u := range r.users {
		if u.Email == email {
			n++
		}
	}
	return n
}

// Get returns a copy of the stored user with email, or nil.
func (r *Repository) Get(email string) *user.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u := r.byEmail(email); u != nil {
		return clone(u)
	}
	return nil
}

// Expire moves the reset token expiry of the user with email to at.
func (r *Repository) Expire(email string, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u := r.byEmail(email); u != nil && u.ResetPasswordExpires != nil {
		u.ResetPasswordExpires = &at
	}
}

// Delete removes the user with id.
func (r *Repository) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
}

// Link is one recorded reset link dispatch.
type Link struct {
	Email string
	URL   string
}

// Dispatcher records reset links instead of delivering them.
type Dispatcher struct {
	mu    sync.Mutex
	links []Link

	// Err, when set, is returned after recording the call.
	Err error
	// Block, when set, makes the dispatcher wait for ctx to end.
	Block bool
}

var _ user.ResetLinkDispatcher = (*Dispatcher)(nil)

func (d *Dispatcher) SendPasswordResetLink(ctx context.Context, email, link string) error {
	d.mu.Lock()
	d.links = append(d.links, Link{Email: email, URL: link})
	err, block := d.Err, d.Block
	d.mu.Unlock()

	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

// Links returns the recorded dispatches.
func (d *Dispatcher) Links() []Link {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Link(nil), d.links...)
}

// Last returns the most recent dispatch.
func (d *Dispatcher) Last() (Link, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.links) == 0 {
		return Link{}, errors.New("no reset link dispatched")
	}
	return d.links[len(d.links)-1], nil
}
