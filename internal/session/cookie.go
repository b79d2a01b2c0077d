package session

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

func CreateCookie(name, value, path string, expires time.Time, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func DeleteCookie(name, path string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Backend produces the Storage for one request.
type Backend interface {
	Bind(c echo.Context) Storage
}

// CookieBackend stores every credential field in its own cookie.
type CookieBackend struct {
	TTL    time.Duration
	Secure bool
	Prefix string
}

func (b CookieBackend) Bind(c echo.Context) Storage {
	return &cookieStorage{c: c, b: b, written: make(map[string]*string)}
}

type cookieStorage struct {
	c echo.Context
	b CookieBackend
	// writes made during this request, so a read after Set sees the new value
	written map[string]*string
}

func (s *cookieStorage) name(key string) string { return s.b.Prefix + key }

func (s *cookieStorage) Get(_ context.Context, key string) (string, error) {
	if v, ok := s.written[key]; ok {
		if v == nil {
			return "", nil
		}
		return *v, nil
	}
	ck, err := s.c.Cookie(s.name(key))
	if err != nil {
		return "", nil
	}
	return ck.Value, nil
}

func (s *cookieStorage) Set(_ context.Context, key, value string) error {
	s.c.SetCookie(CreateCookie(s.name(key), value, "/", time.Now().Add(s.b.TTL), s.b.Secure))
	s.written[key] = &value
	return nil
}

func (s *cookieStorage) Remove(_ context.Context, key string) error {
	s.c.SetCookie(DeleteCookie(s.name(key), "/", s.b.Secure))
	s.written[key] = nil
	return nil
}
