package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"

	tele "gopkg.in/telebot.v4"
)

type accessContext struct {
	tele.Context
	sender *tele.User
}

func (c *accessContext) Sender() *tele.User { return c.sender }

func TestAdminOnlyMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		adminID    int64
		sender     *tele.User
		wantNext   bool
		wantReject bool
	}{
		{"admin passes", 10, &tele.User{ID: 10}, true, false},
		{"other user rejected", 10, &tele.User{ID: 424242}, false, true},
		{"unset admin rejects everyone", 0, &tele.User{ID: 424242}, false, true},
		{"missing sender rejected", 10, nil, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var nextCalled, rejectCalled bool
			h := AdminOnlyMiddleware(AdminOptions{
				AdminID: tt.adminID,
				OnReject: func(c tele.Context) error {
					rejectCalled = true
					return nil
				},
			})(func(c tele.Context) error {
				nextCalled = true
				return nil
			})

			err := h(&accessContext{sender: tt.sender})

			assert.NoError(t, err)
			assert.Equal(t, tt.wantNext, nextCalled, "next handler")
			assert.Equal(t, tt.wantReject, rejectCalled, "reject handler")
		})
	}
}

func TestAdminOnlyMiddlewareDefaultReject(t *testing.T) {
	var nextCalled bool
	h := AdminOnlyMiddleware(AdminOptions{AdminID: 0})(func(c tele.Context) error {
		nextCalled = true
		return nil
	})

	err := h(&accessContext{sender: &tele.User{ID: 7}})

	assert.NoError(t, err)
	assert.False(t, nextCalled)
}
