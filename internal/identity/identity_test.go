package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionNotifiesOnlyOnChange(t *testing.T) {
	s := NewSession()

	var calls []int64
	s.OnChange(func(id int64, signedIn bool) {
		if signedIn {
			calls = append(calls, id)
		} else {
			calls = append(calls, -1)
		}
	})

	s.SignIn(7)
	s.SignIn(7)
	s.SignIn(9)
	s.SignOut()
	s.SignOut()

	assert.Equal(t, []int64{7, 9, -1}, calls)

	id, ok := s.CurrentUserID()
	assert.False(t, ok)
	assert.Zero(t, id)
}

func TestSessionUnsubscribe(t *testing.T) {
	s := NewSignedIn(3)

	count := 0
	unsubscribe := s.OnChange(func(int64, bool) { count++ })
	s.SignOut()
	unsubscribe()
	s.SignIn(4)

	assert.Equal(t, 1, count)
	id, ok := s.CurrentUserID()
	assert.True(t, ok)
	assert.Equal(t, int64(4), id)
}
