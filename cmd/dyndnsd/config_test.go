package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("GANDI_API_KEY", "sekrit")
	t.Setenv("DOMAIN_FQDN", "example.com.")
	t.Setenv("DOMAIN_DYNAMIC_ITEMS", "home,vpn")
	t.Setenv("DOMAIN_IP", "203.0.113.5")

	conf, err := loadConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, "sekrit", conf.APIKey)
	assert.Equal(t, "example.com.", conf.DomainFQDN)
	assert.Equal(t, []string{"home", "vpn"}, conf.Records)
	assert.Equal(t, "203.0.113.5", conf.StaticIP)
}

func TestLoadConfigFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("GANDI_API_KEY", "sekrit")
	t.Setenv("DOMAIN_FQDN", "example.com.")
	t.Setenv("DOMAIN_DYNAMIC_ITEMS", "home")

	conf, err := loadConfig([]string{
		"--domain", "example.org.",
		"--records", "office,lab",
		"--interval", "5m",
	})
	require.NoError(t, err)
	assert.Equal(t, "example.org.", conf.DomainFQDN)
	assert.Equal(t, []string{"office", "lab"}, conf.Records)
	assert.Equal(t, 5*time.Minute, conf.Interval)
}

func TestLoadConfigFromYAMLFile(t *testing.T) {
	t.Setenv("GANDI_API_KEY", "")
	t.Setenv("DOMAIN_FQDN", "")
	t.Setenv("DOMAIN_DYNAMIC_ITEMS", "")

	path := filepath.Join(t.TempDir(), "dyndnsd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api_key: from-file
domain_fqdn: example.net.
records: [home]
`), 0600))

	conf, err := loadConfig([]string{"--config", path})
	require.NoError(t, err)
	assert.Equal(t, "from-file", conf.APIKey)
	assert.Equal(t, "example.net.", conf.DomainFQDN)
	assert.Equal(t, []string{"home"}, conf.Records)
}

func TestLoadConfigValidation(t *testing.T) {
	t.Setenv("GANDI_API_KEY", "sekrit")
	t.Setenv("DOMAIN_FQDN", "")
	t.Setenv("DOMAIN_DYNAMIC_ITEMS", "")
	t.Setenv("DOMAIN_IP", "")

	cases := []struct {
		name string
		args []string
	}{
		{"missing domain", []string{"--records", "home"}},
		{"domain without trailing dot", []string{"--domain", "example.com", "--records", "home"}},
		{"missing records", []string{"--domain", "example.com."}},
		{"record with dot", []string{"--domain", "example.com.", "--records", "home.lan"}},
		{"invalid static ip", []string{"--domain", "example.com.", "--records", "home", "--ip", "not-an-ip"}},
		{"ipv6 static ip", []string{"--domain", "example.com.", "--records", "home", "--ip", "2001:db8::1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := loadConfig(tc.args)
			require.Error(t, err)
			var ce configError
			assert.True(t, errors.As(err, &ce), "expected a configError, got %T", err)
		})
	}
}
