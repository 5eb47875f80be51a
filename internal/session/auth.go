package session

import "sync"

// AuthRegistry tracks which chats are currently authenticated, mapping chat
// ID to the persisted user ID. Like the session store it is memory only.
type AuthRegistry struct {
	mu    sync.RWMutex
	users map[int64]int64
}

// NewAuthRegistry returns an empty registry.
func NewAuthRegistry() *AuthRegistry {
	return &AuthRegistry{users: make(map[int64]int64)}
}

// Login marks a chat as authenticated for the given user.
func (r *AuthRegistry) Login(chatID, usuarioID int64) {
	r.mu.Lock()
	r.users[chatID] = usuarioID
	r.mu.Unlock()
}

// Logout clears the chat's authentication, reporting whether it was set.
func (r *AuthRegistry) Logout(chatID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.users[chatID]
	delete(r.users, chatID)
	return ok
}

// UserID returns the authenticated user for the chat, if any.
func (r *AuthRegistry) UserID(chatID int64) (int64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.users[chatID]
	return id, ok
}

// Authenticated reports whether the chat has a logged-in user.
func (r *AuthRegistry) Authenticated(chatID int64) bool {
	_, ok := r.UserID(chatID)
	return ok
}
