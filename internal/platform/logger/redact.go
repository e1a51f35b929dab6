package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

const redacted = "[REDACTED]"

// redactor scrubs credentials from structured fields and, when enabled,
// replaces customer addresses with a short salted hash. A nil redactor
// passes fields through.
type redactor struct {
	hashAddresses bool
	salt          string
}

func redactorFromEnv() *redactor {
	switch strings.TrimSpace(strings.ToLower(os.Getenv("LOG_REDACTION_ENABLED"))) {
	case "0", "false", "no", "off":
		return nil
	}
	r := &redactor{salt: strings.TrimSpace(os.Getenv("LOG_HASH_SALT"))}
	switch strings.TrimSpace(strings.ToLower(os.Getenv("LOG_HASH_ADDRESSES"))) {
	case "1", "true", "yes", "on":
		r.hashAddresses = true
	}
	return r
}

func (r *redactor) scrub(kv []interface{}) []interface{} {
	if r == nil || len(kv) == 0 {
		return kv
	}
	out := make([]interface{}, 0, len(kv))
	for i := 0; i < len(kv); i += 2 {
		if i == len(kv)-1 {
			out = append(out, kv[i])
			break
		}
		key := toString(kv[i])
		out = append(out, key, r.value(normalizeKey(key), kv[i+1]))
	}
	return out
}

func (r *redactor) value(key string, val interface{}) interface{} {
	switch {
	case isSecretKey(key):
		return redacted
	case r.hashAddresses && isAddressKey(key):
		return r.hashAddress(toString(val))
	}
	switch v := val.(type) {
	case string:
		if looksLikeJWT(v) {
			return redacted
		}
		return v
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, inner := range v {
			out[k] = r.value(normalizeKey(k), inner)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, inner := range v {
			out[i] = r.value("", inner)
		}
		return out
	default:
		return val
	}
}

// hashAddress keeps the channel prefix ("whatsapp:") readable so log
// searches can still split traffic by channel.
func (r *redactor) hashAddress(addr string) string {
	if addr == "" {
		return ""
	}
	prefix := ""
	if i := strings.Index(addr, ":"); i > 0 {
		prefix, addr = addr[:i+1], addr[i+1:]
	}
	h := sha256.New()
	_, _ = h.Write([]byte(r.salt))
	_, _ = h.Write([]byte(addr))
	return prefix + "hash:" + hex.EncodeToString(h.Sum(nil))[:12]
}

func normalizeKey(k string) string {
	return strings.ToLower(strings.TrimSpace(k))
}

func isSecretKey(key string) bool {
	for _, marker := range []string{"token", "authorization", "password", "secret", "api_key", "apikey", "jwe"} {
		if strings.Contains(key, marker) {
			return true
		}
	}
	return false
}

func isAddressKey(key string) bool {
	switch key {
	case "to", "customer", "customer_address", "customeraddress", "address":
		return true
	}
	return false
}

func looksLikeJWT(s string) bool {
	parts := strings.Split(s, ".")
	return (len(parts) == 3 || len(parts) == 5) && len(parts[0]) > 10 && len(parts[1]) > 10
}

func toString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
