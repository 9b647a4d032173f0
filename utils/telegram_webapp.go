package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInitDataHash    = errors.New("invalid initData hash")
	ErrInitDataExpired = errors.New("initData auth date too old")
)

type WebAppUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

// WebAppData is the verified payload a Mini App receives from Telegram.
type WebAppData struct {
	User       WebAppUser
	StartParam string
	AuthDate   time.Time
}

// ValidateWebAppData checks the initData signature against the bot token and
// returns the signed user. A zero maxAge disables the freshness check.
func ValidateWebAppData(initData, botToken string, maxAge time.Duration) (*WebAppData, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, err
	}

	hash := values.Get("hash")
	if hash == "" {
		return nil, ErrInitDataHash
	}
	values.Del("hash")

	expected := signWebAppValues(values, botToken)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(hash))) {
		return nil, ErrInitDataHash
	}

	authUnix, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("auth_date: %w", err)
	}
	authDate := time.Unix(authUnix, 0)
	if maxAge > 0 && time.Since(authDate) > maxAge {
		return nil, ErrInitDataExpired
	}

	var user WebAppUser
	if err := json.Unmarshal([]byte(values.Get("user")), &user); err != nil {
		return nil, fmt.Errorf("user: %w", err)
	}
	if user.ID <= 0 {
		return nil, errors.New("initData has no user id")
	}

	return &WebAppData{User: user, StartParam: values.Get("start_param"), AuthDate: authDate}, nil
}

// SignWebAppData produces initData the way Telegram does. Used by tests and the
// local development client.
func SignWebAppData(values url.Values, botToken string) string {
	out := url.Values{}
	for k, v := range values {
		out[k] = v
	}
	out.Del("hash")
	out.Set("hash", signWebAppValues(out, botToken))
	return out.Encode()
}

func signWebAppValues(values url.Values, botToken string) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		if k == "hash" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var dataCheck []string
	for _, k := range keys {
		for _, v := range values[k] {
			dataCheck = append(dataCheck, fmt.Sprintf("%s=%s", k, v))
		}
	}
	dataCheckString := strings.Join(dataCheck, "\n")

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))
	secretKey := secret.Sum(nil)

	h := hmac.New(sha256.New, secretKey)
	h.Write([]byte(dataCheckString))
	return hex.EncodeToString(h.Sum(nil))
}
