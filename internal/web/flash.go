package web

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

const flashCookie = "estudio_flash"

var errBadSignature = errors.New("flash cookie signature mismatch")

type FlashKind string

const (
	FlashSuccess FlashKind = "success"
	FlashError   FlashKind = "error"
	FlashInfo    FlashKind = "info"
)

type Flash struct {
	Kind    FlashKind `json:"k"`
	Message string    `json:"m"`
}

func Success(msg string) Flash { return Flash{Kind: FlashSuccess, Message: msg} }
func Failure(msg string) Flash { return Flash{Kind: FlashError, Message: msg} }
func Info(msg string) Flash    { return Flash{Kind: FlashInfo, Message: msg} }

// FlashStore keeps one-shot notices in an HMAC-signed cookie.
type FlashStore struct {
	secret []byte
}

func NewFlashStore(secret string) *FlashStore {
	return &FlashStore{secret: []byte(secret)}
}

func (s *FlashStore) Set(w http.ResponseWriter, flashes []Flash) {
	if len(flashes) == 0 {
		return
	}
	payload, err := json.Marshal(flashes)
	if err != nil {
		return
	}
	value := base64.RawURLEncoding.EncodeToString(payload) + "." + s.sign(payload)
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Pop returns the pending notices and clears the cookie. A tampered cookie
// is dropped silently.
func (s *FlashStore) Pop(w http.ResponseWriter, r *http.Request) []Flash {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Path: "/", MaxAge: -1, HttpOnly: true})

	flashes, err := s.decode(c.Value)
	if err != nil {
		return nil
	}
	return flashes
}

func (s *FlashStore) decode(value string) ([]Flash, error) {
	body, sig, ok := strings.Cut(value, ".")
	if !ok {
		return nil, errBadSignature
	}
	payload, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return nil, err
	}
	if !hmac.Equal([]byte(sig), []byte(s.sign(payload))) {
		return nil, errBadSignature
	}
	var flashes []Flash
	if err := json.Unmarshal(payload, &flashes); err != nil {
		return nil, err
	}
	return flashes, nil
}

func (s *FlashStore) sign(payload []byte) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(payload)
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
