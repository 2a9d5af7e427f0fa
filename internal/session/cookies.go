package session

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"voltbridge/internal/core"
)

const (
	accessSuffix  = "_access_token"
	refreshSuffix = "_refresh_token"
	devicesSuffix = "_device_ids"

	// DefaultAccessMaxAge is used when a vendor omits expires_in
	DefaultAccessMaxAge = 86400 * time.Second

	cookiePath = "/"
)

// CookieStore is a Store bound to a single request/response pair. Values
// are encrypted with the shared Codec and written as HTTP-only cookies,
// one set per vendor: the access token carries a max-age derived from the
// vendor expiry, the refresh token and device-id list are session-scoped.
type CookieStore struct {
	w      http.ResponseWriter
	r      *http.Request
	codec  *Codec
	secure bool
}

// NewCookieStore creates a cookie-backed store for one request
func NewCookieStore(w http.ResponseWriter, r *http.Request, codec *Codec, secure bool) *CookieStore {
	return &CookieStore{w: w, r: r, codec: codec, secure: secure}
}

// Get reads a vendor's credential from the request cookies. A credential
// is absent when neither token cookie is present or decryptable. A
// malformed device-id list degrades to an empty list, not a failure.
func (s *CookieStore) Get(vendor string) (*core.Credential, bool) {
	access := s.readCookie(vendor + accessSuffix)
	refresh := s.readCookie(vendor + refreshSuffix)

	if access == "" && refresh == "" {
		return nil, false
	}

	cred := &core.Credential{
		AccessToken:  access,
		RefreshToken: refresh,
	}

	if raw := s.readCookie(vendor + devicesSuffix); raw != "" {
		var ids []string
		if err := json.Unmarshal([]byte(raw), &ids); err == nil {
			cred.DeviceIDs = ids
		}
	}

	return cred, true
}

// Set writes a vendor's credential as encrypted cookies
func (s *CookieStore) Set(vendor string, cred *core.Credential) error {
	maxAge := int(DefaultAccessMaxAge.Seconds())
	if !cred.ExpiresAt.IsZero() {
		if until := time.Until(cred.ExpiresAt); until > 0 {
			maxAge = int(until.Seconds())
		}
	}

	if err := s.writeCookie(vendor+accessSuffix, cred.AccessToken, maxAge); err != nil {
		return fmt.Errorf("failed to write access token cookie: %w", err)
	}

	// Session-scoped: no explicit expiry beyond the browser session
	if err := s.writeCookie(vendor+refreshSuffix, cred.RefreshToken, 0); err != nil {
		return fmt.Errorf("failed to write refresh token cookie: %w", err)
	}

	if len(cred.DeviceIDs) > 0 {
		encoded, err := json.Marshal(cred.DeviceIDs)
		if err != nil {
			return fmt.Errorf("failed to encode device ID list: %w", err)
		}
		if err := s.writeCookie(vendor+devicesSuffix, string(encoded), 0); err != nil {
			return fmt.Errorf("failed to write device ID cookie: %w", err)
		}
	} else {
		s.deleteCookie(vendor + devicesSuffix)
	}

	return nil
}

// Clear deletes all cookies for a vendor
func (s *CookieStore) Clear(vendor string) {
	s.deleteCookie(vendor + accessSuffix)
	s.deleteCookie(vendor + refreshSuffix)
	s.deleteCookie(vendor + devicesSuffix)
}

func (s *CookieStore) readCookie(name string) string {
	cookie, err := s.r.Cookie(name)
	if err != nil {
		return ""
	}

	value, err := s.codec.Decrypt(cookie.Value)
	if err != nil {
		return ""
	}
	return value
}

func (s *CookieStore) writeCookie(name, value string, maxAge int) error {
	if value == "" {
		s.deleteCookie(name)
		return nil
	}

	encrypted, err := s.codec.Encrypt(value)
	if err != nil {
		return err
	}

	http.SetCookie(s.w, &http.Cookie{
		Name:     name,
		Value:    encrypted,
		Path:     cookiePath,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *CookieStore) deleteCookie(name string) {
	http.SetCookie(s.w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     cookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Ensure implementation satisfies the interface
var _ Store = (*CookieStore)(nil)
