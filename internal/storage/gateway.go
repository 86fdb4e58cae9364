// Package storage is the persistence gateway used by the gamification engines.
// Values are opaque JSON documents addressed by scope and key.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/shortcut-sensei/backend/internal/identity"
)

type Scope string

const (
	// ScopeDevice is synchronous and available without a signed-in user.
	ScopeDevice Scope = "device"
	// ScopeUser belongs to the current user and is empty while signed out.
	ScopeUser Scope = "user"
)

// DeviceOwner is the owner name used for device-scoped documents.
const DeviceOwner = "device"

var ErrUnknownScope = errors.New("unknown storage scope")

// Gateway is the abstract key-value store the engines persist through.
// Get returns nil, nil when nothing is stored under key.
type Gateway interface {
	Get(ctx context.Context, scope Scope, key string) (json.RawMessage, error)
	Set(ctx context.Context, scope Scope, key string, value json.RawMessage) error
}

// Backend stores documents by owner and key.
type Backend interface {
	Load(ctx context.Context, owner, key string) ([]byte, error)
	Save(ctx context.Context, owner, key string, value []byte) error
}

// UserOwner is the owner name for a user's documents.
func UserOwner(userID int64) string {
	return "user:" + strconv.FormatInt(userID, 10)
}

// Router sends device-scoped calls to one backend and user-scoped calls to
// another, keyed by the identity's current user.
type Router struct {
	device Backend
	user   Backend
	ident  identity.Provider
}

func NewRouter(device, user Backend, ident identity.Provider) *Router {
	return &Router{device: device, user: user, ident: ident}
}

func (r *Router) Get(ctx context.Context, scope Scope, key string) (json.RawMessage, error) {
	owner, ok, err := r.owner(scope)
	if err != nil || !ok {
		return nil, err
	}
	b, err := r.backend(scope).Load(ctx, owner, key)
	if err != nil {
		return nil, fmt.Errorf("load %s/%s: %w", scope, key, err)
	}
	if b == nil {
		return nil, nil
	}
	return json.RawMessage(b), nil
}

func (r *Router) Set(ctx context.Context, scope Scope, key string, value json.RawMessage) error {
	owner, ok, err := r.owner(scope)
	if err != nil || !ok {
		return err
	}
	if err := r.backend(scope).Save(ctx, owner, key, value); err != nil {
		return fmt.Errorf("save %s/%s: %w", scope, key, err)
	}
	return nil
}

// owner reports ok=false for user scope with nobody signed in.
func (r *Router) owner(scope Scope) (string, bool, error) {
	switch scope {
	case ScopeDevice:
		return DeviceOwner, true, nil
	case ScopeUser:
		if r.ident == nil {
			return "", false, nil
		}
		id, ok := r.ident.CurrentUserID()
		if !ok {
			return "", false, nil
		}
		return UserOwner(id), true, nil
	default:
		return "", false, fmt.Errorf("%w: %q", ErrUnknownScope, scope)
	}
}

func (r *Router) backend(scope Scope) Backend {
	if scope == ScopeDevice {
		return r.device
	}
	return r.user
}

// GetJSON decodes the document under key into v. found is false when the key
// is absent or the scope is unavailable.
func GetJSON(ctx context.Context, gw Gateway, scope Scope, key string, v any) (bool, error) {
	raw, err := gw.Get(ctx, scope, key)
	if err != nil {
		return false, err
	}
	if raw == nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decode %s/%s: %w", scope, key, err)
	}
	return true, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, gw Gateway, scope Scope, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", scope, key, err)
	}
	return gw.Set(ctx, scope, key, b)
}
