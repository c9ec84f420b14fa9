package shared

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// FlashMessage is a one-time notice shown on the next rendered console page.
type FlashMessage struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Hash fields of a stored session. Free-form values are prefixed.
const (
	fieldSubject = "subject"
	fieldFlashes = "flashes"
	valuePrefix  = "v:"
)

// SessionManager keeps console sessions as Redis hashes. The cookie carries the
// session id plus an HMAC of it, so forged ids never reach Redis. Every commit
// slides the expiry forward.
type SessionManager struct {
	client     *redis.Client
	cookieName string
	ttl        time.Duration
	secure     bool
	secret     []byte
}

// Session is the per-request view of one stored session.
type Session struct {
	ID        string
	values    map[string]string
	subject   string
	flashes   []FlashMessage
	previous  string
	isNew     bool
	dirty     bool
	destroyed bool
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(client *redis.Client, cookieName string, secret string, ttl time.Duration, secure bool) *SessionManager {
	return &SessionManager{
		client:     client,
		cookieName: cookieName,
		ttl:        ttl,
		secure:     secure,
		secret:     []byte(secret),
	}
}

// Load returns the session named by the request cookie, or a fresh one when the
// cookie is absent, forged or expired.
func (sm *SessionManager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(sm.cookieName)
	if err != nil {
		return sm.newSession(), nil
	}
	id, ok := sm.verify(cookie.Value)
	if !ok {
		return sm.newSession(), nil
	}
	fields, err := sm.client.HGetAll(ctx, sm.key(id)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return sm.newSession(), nil
	}

	sess := &Session{ID: id, values: make(map[string]string, len(fields))}
	for name, value := range fields {
		switch {
		case name == fieldSubject:
			sess.subject = value
		case name == fieldFlashes:
			if err := json.Unmarshal([]byte(value), &sess.flashes); err != nil {
				return nil, err
			}
		case strings.HasPrefix(name, valuePrefix):
			sess.values[strings.TrimPrefix(name, valuePrefix)] = value
		}
	}
	return sess, nil
}

// Commit persists a changed session, refreshes its expiry and writes the cookie.
func (sm *SessionManager) Commit(ctx context.Context, w http.ResponseWriter, r *http.Request, sess *Session) error {
	if sess == nil {
		return nil
	}

	if sess.destroyed {
		keys := []string{sm.key(sess.ID)}
		if sess.previous != "" {
			keys = append(keys, sm.key(sess.previous))
		}
		if err := sm.client.Del(ctx, keys...).Err(); err != nil {
			return err
		}
		http.SetCookie(w, sm.cookie("", -1))
		return nil
	}

	key := sm.key(sess.ID)
	_, err := sm.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if sess.previous != "" {
			pipe.Del(ctx, sm.key(sess.previous))
		}
		if sess.dirty || sess.isNew {
			fields, err := sess.fields()
			if err != nil {
				return err
			}
			pipe.Del(ctx, key)
			pipe.HSet(ctx, key, fields)
		}
		pipe.Expire(ctx, key, sm.ttl)
		return nil
	})
	if err != nil {
		return err
	}
	sess.previous = ""
	sess.dirty, sess.isNew = false, false

	http.SetCookie(w, sm.cookie(sm.CookieValue(sess), int(sm.ttl/time.Second)))
	return nil
}

// Destroy marks the session for deletion on commit.
func (sm *SessionManager) Destroy(sess *Session) {
	if sess == nil {
		return
	}
	sess.destroyed = true
}

// Regenerate issues a fresh identifier for sess, dropping the old one on commit.
// Call it whenever the privilege level of the session changes.
func (sm *SessionManager) Regenerate(sess *Session) {
	if sess == nil {
		return
	}
	if !sess.isNew {
		sess.previous = sess.ID
	}
	sess.ID = uuid.NewString()
	sess.dirty = true
}

// CookieName returns the cookie identifier used for sessions.
func (sm *SessionManager) CookieName() string {
	return sm.cookieName
}

// CookieValue is the signed cookie content naming sess.
func (sm *SessionManager) CookieValue(sess *Session) string {
	return sess.ID + "." + sm.mac(sess.ID)
}

func (sm *SessionManager) verify(value string) (string, bool) {
	i := strings.LastIndexByte(value, '.')
	if i <= 0 {
		return "", false
	}
	id, sig := value[:i], value[i+1:]
	if !hmac.Equal([]byte(sig), []byte(sm.mac(id))) {
		return "", false
	}
	return id, true
}

func (sm *SessionManager) mac(id string) string {
	h := hmac.New(sha256.New, sm.secret)
	_, _ = h.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

func (sm *SessionManager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     sm.cookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (sm *SessionManager) key(id string) string {
	return "etalase:session:" + id
}

func (sm *SessionManager) newSession() *Session {
	return &Session{
		ID:     uuid.NewString(),
		values: make(map[string]string),
		isNew:  true,
		dirty:  true,
	}
}

// Set stores a key-value pair.
func (s *Session) Set(key, value string) {
	if s.values == nil {
		s.values = make(map[string]string)
	}
	s.values[key] = value
	s.dirty = true
}

// Get retrieves a value.
func (s *Session) Get(key string) string {
	return s.values[key]
}

// Delete removes a value.
func (s *Session) Delete(key string) {
	if _, ok := s.values[key]; !ok {
		return
	}
	delete(s.values, key)
	s.dirty = true
}

// SetUser binds the session to the auth provider's subject id.
func (s *Session) SetUser(id string) {
	s.subject = id
	s.dirty = true
}

// User returns the bound subject id, empty when signed out.
func (s *Session) User() string {
	return s.subject
}

// AddFlash queues a flash message.
func (s *Session) AddFlash(msg FlashMessage) {
	s.flashes = append(s.flashes, msg)
	s.dirty = true
}

// PopFlash retrieves and clears the oldest flash message.
func (s *Session) PopFlash() *FlashMessage {
	if s == nil || len(s.flashes) == 0 {
		return nil
	}
	msg := s.flashes[0]
	s.flashes = s.flashes[1:]
	s.dirty = true
	return &msg
}

// fields always includes the subject so HSET never runs without arguments.
func (s *Session) fields() (map[string]any, error) {
	out := make(map[string]any, len(s.values)+2)
	out[fieldSubject] = s.subject
	for k, v := range s.values {
		out[valuePrefix+k] = v
	}
	if len(s.flashes) > 0 {
		data, err := json.Marshal(s.flashes)
		if err != nil {
			return nil, err
		}
		out[fieldFlashes] = string(data)
	}
	return out, nil
}
