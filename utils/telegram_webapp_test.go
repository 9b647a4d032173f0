package utils

import (
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBotToken = "123456:TEST-token"

func initValues(authDate time.Time) url.Values {
	v := url.Values{}
	v.Set("auth_date", strconv.FormatInt(authDate.Unix(), 10))
	v.Set("query_id", "AAHdF6IQAAAAAN0XohDhrOrc")
	v.Set("user", `{"id":2001,"first_name":"Alice","last_name":"","username":"alice"}`)
	v.Set("start_param", "ref_ABCD1234")
	return v
}

func TestValidateWebAppData(t *testing.T) {
	initData := SignWebAppData(initValues(time.Now()), testBotToken)

	data, err := ValidateWebAppData(initData, testBotToken, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2001), data.User.ID)
	assert.Equal(t, "alice", data.User.Username)
	assert.Equal(t, "ref_ABCD1234", data.StartParam)
}

func TestValidateWebAppDataRejectsTampering(t *testing.T) {
	initData := SignWebAppData(initValues(time.Now()), testBotToken)

	_, err := ValidateWebAppData(initData, "654321:OTHER", time.Hour)
	assert.ErrorIs(t, err, ErrInitDataHash)

	parsed, err := url.ParseQuery(initData)
	require.NoError(t, err)
	parsed.Set("user", `{"id":1,"first_name":"Mallory"}`)
	_, err = ValidateWebAppData(parsed.Encode(), testBotToken, time.Hour)
	assert.ErrorIs(t, err, ErrInitDataHash)

	parsed.Del("hash")
	_, err = ValidateWebAppData(parsed.Encode(), testBotToken, time.Hour)
	assert.ErrorIs(t, err, ErrInitDataHash)
}

func TestValidateWebAppDataExpiry(t *testing.T) {
	initData := SignWebAppData(initValues(time.Now().Add(-48*time.Hour)), testBotToken)

	_, err := ValidateWebAppData(initData, testBotToken, 24*time.Hour)
	assert.ErrorIs(t, err, ErrInitDataExpired)

	_, err = ValidateWebAppData(initData, testBotToken, 0)
	assert.NoError(t, err)
}
