package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/judgenot0/judge-checker/structs"
)

type VerdictData struct {
	ID         string  `json:"id"`
	Checker    string  `json:"checker"`
	Verdict    string  `json:"verdict"`
	DurationMs float64 `json:"duration_ms"`
	Timestamp  int64   `json:"timestamp"`
}

type VerdictPayload struct {
	Data        *VerdictData `json:"payload"`
	AccessToken string       `json:"access_token,omitempty"`
}

// GenerateToken wraps a verdict for publishing. With a non-empty secret the
// payload carries a hex HMAC-SHA256 over the JSON encoding of its data.
func GenerateToken(verdict *structs.Verdict, secret string) (*VerdictPayload, error) {
	if verdict == nil {
		return nil, errors.New("verdict is nil")
	}

	data := &VerdictData{
		Checker:    verdict.Checker,
		Verdict:    verdict.Result,
		DurationMs: float64(verdict.Duration) / float64(time.Millisecond),
		Timestamp:  time.Now().Unix(),
	}
	if verdict.Request != nil {
		data.ID = verdict.Request.ID
	}

	payload := &VerdictPayload{Data: data}
	if secret == "" {
		return payload, nil
	}

	token, err := sign(data, secret)
	if err != nil {
		return nil, err
	}
	payload.AccessToken = token
	return payload, nil
}

// VerifyToken reports whether payload was signed with secret.
func VerifyToken(payload *VerdictPayload, secret string) bool {
	if payload == nil || payload.Data == nil || payload.AccessToken == "" {
		return false
	}
	expected, err := sign(payload.Data, secret)
	if err != nil {
		return false
	}
	return hmac.Equal([]byte(expected), []byte(payload.AccessToken))
}

func sign(data *VerdictData, secret string) (string, error) {
	message, err := json.Marshal(data)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal verdict")
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(message)
	return hex.EncodeToString(mac.Sum(nil)), nil
}
