package handoff

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/SuedeSignup/internal/pkg/session"
)

// SessionKV stores values in the visitor's fiber session.
type SessionKV struct {
	c *fiber.Ctx
}

func NewSessionKV(c *fiber.Ctx) *SessionKV {
	return &SessionKV{c: c}
}

func (kv *SessionKV) Get(key string) ([]byte, error) {
	value := session.GetSessionValue(kv.c, key)
	if value == "" {
		return nil, nil
	}
	return []byte(value), nil
}

func (kv *SessionKV) Set(key string, value []byte) error {
	return session.SetSessionValue(kv.c, key, string(value))
}

func (kv *SessionKV) Delete(key string) error {
	return session.DeleteSessionValue(kv.c, key)
}
