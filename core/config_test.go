package core

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func setEnv(t *testing.T, key, val string) {
	prev, ok := os.LookupEnv(key)
	_ = os.Setenv(key, val)
	t.Cleanup(func() {
		if ok {
			_ = os.Setenv(key, prev)
		} else {
			_ = os.Unsetenv(key)
		}
	})
}

func TestNewConfig(t *testing.T) {
	setEnv(t, "ENV", "test")
	setEnv(t, "TEST_APPNAME", "Kelasi")
	setEnv(t, "TEST_LOCALE", " EN ")
	setEnv(t, "TEST_CURRENCY", " usd ")
	setEnv(t, "TEST_STORAGE", StorageMemory)
	setEnv(t, "TEST_SERVER_ADDRESS", ":9000")
	setEnv(t, "TEST_SERVER_SHUTDOWNTIMEOUT", "10s")
	setEnv(t, "TEST_DATABASE_NAME", "kelasi")
	setEnv(t, "TEST_DEFAULTFROMEMAIL", "Kelasi <noreply@kelasi.cd>")

	conf := NewConfig()
	assert.Equal(t, "test", conf.Env)
	assert.True(t, conf.TestMode)
	assert.Equal(t, "Kelasi", conf.AppName)
	assert.Equal(t, "en", conf.Locale)
	assert.Equal(t, "USD", conf.Currency)
	assert.Equal(t, StorageMemory, conf.Storage)
	assert.Equal(t, ":9000", conf.Server.Address)
	assert.Equal(t, 10*time.Second, conf.Server.ShutdownTimeout)
	assert.Equal(t, 7*24*time.Hour, conf.Server.JWTExpirationDelta)
	assert.Equal(t, "postgres://ecolage@localhost:5432/kelasi", conf.Database.String())
	assert.Equal(t, "noreply@kelasi.cd", conf.DefaultFromEmail().Address)
	assert.Equal(t, "Kelasi", conf.DefaultFromEmail().Name)
}

func TestConfig_DefaultFromEmail(t *testing.T) {
	conf := &Config{AppName: "Ecolage", defaultFromEmail: "noreply@localhost"}
	assert.Equal(t, "noreply@localhost", conf.DefaultFromEmail().Address)

	conf.defaultFromEmail = "lol"
	assert.Equal(t, "Ecolage", conf.DefaultFromEmail().Name)
	assert.Equal(t, "lol", conf.DefaultFromEmail().Address)
}

func TestCleanString(t *testing.T) {
	assert.Equal(t, "Awa Kabila", CleanString("  Awa Kabila\t"))
	assert.Equal(t, "awa@test.cd", CleanString(" AWA@Test.cd ", true))
	assert.Equal(t, "", CleanString("   "))
}
