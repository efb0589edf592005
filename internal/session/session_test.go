package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-while/go-guweb/internal/models"
)

func alice() *models.SessionUser {
	return &models.SessionUser{ID: 3, Name: "Alice", Priv: models.Normal | models.Verified}
}

func TestEncodeDecode(t *testing.T) {
	m := NewManager("secret", time.Hour, false)
	s := &Session{User: alice()}
	s.SetFlash(FlashSuccess, "Hey! Welcome back Alice!")

	value, err := m.Encode(s)
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)

	got, err := m.Decode(value)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, alice(), got.User)
	assert.Equal(t, &Flash{Status: FlashSuccess, Msg: "Hey! Welcome back Alice!"}, got.PopFlash())
	assert.Nil(t, got.PopFlash(), "flash is one-shot")
}

func TestDecodeRejectsTamperingAndExpiry(t *testing.T) {
	m := NewManager("secret", time.Hour, false)
	value, err := m.Encode(&Session{User: alice()})
	require.NoError(t, err)

	_, err = NewManager("other", time.Hour, false).Decode(value)
	assert.Error(t, err)

	_, err = m.Decode(value[:len(value)-2] + "xx")
	assert.Error(t, err)

	later := NewManager("secret", time.Hour, false)
	later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = later.Decode(value)
	assert.Error(t, err)
}

func TestLoadSave(t *testing.T) {
	m := NewManager("secret", time.Hour, false)

	// no cookie -> anonymous
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	s := m.Load(r)
	assert.False(t, s.Authenticated())

	s.User = alice()
	w := httptest.NewRecorder()
	require.NoError(t, m.Save(w, r, s))
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, 3600, cookies[0].MaxAge)

	r2 := httptest.NewRequest(http.MethodGet, "/", nil)
	r2.AddCookie(cookies[0])
	loaded := m.Load(r2)
	require.True(t, loaded.Authenticated())
	assert.Equal(t, "Alice", loaded.User.Name)

	// logging out clears the cookie
	loaded.User = nil
	w2 := httptest.NewRecorder()
	require.NoError(t, m.Save(w2, r2, loaded))
	cleared := w2.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, -1, cleared[0].MaxAge)
}

func TestLoadGarbageCookie(t *testing.T) {
	m := NewManager("secret", time.Hour, true)
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: CookieName, Value: "garbage"})
	s := m.Load(r)
	assert.False(t, s.Authenticated())
	assert.Nil(t, s.Flash)
}
