package main

import (
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mstoykov/envconfig"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// appConfig is assembled from three layers in increasing precedence:
// environment variables, an optional YAML config file, and command-line
// flags.
type appConfig struct {
	APIKey     string   `yaml:"api_key" envconfig:"GANDI_API_KEY"`
	DomainFQDN string   `yaml:"domain_fqdn" envconfig:"DOMAIN_FQDN"`
	Records    []string `yaml:"records" envconfig:"DOMAIN_DYNAMIC_ITEMS"`
	StaticIP   string   `yaml:"static_ip" envconfig:"DOMAIN_IP"`

	KeyFile string `yaml:"key_file" ignored:"true"`
	Verbose bool   `yaml:"verbose" ignored:"true"`

	// Interval is flag-only: yaml.v3 has no native duration decoding and a
	// one-shot run is the normal mode anyway.
	Interval time.Duration `yaml:"-" ignored:"true"`
}

// configError marks a missing or invalid configuration value; it is fatal
// before any network call is made.
type configError string

func (e configError) Error() string { return string(e) }

func loadConfig(args []string) (appConfig, error) {
	conf := appConfig{
		KeyFile: filepath.Join(os.Getenv("HOME"), ".gandi"),
	}
	if err := envconfig.Process("", &conf); err != nil {
		return conf, configError(fmt.Sprintf("reading environment: %s", err))
	}

	flags := pflag.NewFlagSet("dyndnsd", pflag.ContinueOnError)
	configFile := flags.String("config", "", "path to a YAML config file")
	domain := flags.String("domain", "", "dot-terminated domain whose records are kept in sync")
	records := flags.StringSlice("records", nil, "record names to keep in sync")
	ip := flags.String("ip", "", "static IPv4 address to set, skipping discovery")
	keyFile := flags.String("key-file", "", "path to the Gandi API key file")
	interval := flags.Duration("interval", 0, "duration between passes; 0 runs once and exits")
	verbose := flags.BoolP("verbose", "v", false, "enable debug logging")
	if err := flags.Parse(args); err != nil {
		return conf, configError(err.Error())
	}

	if *configFile != "" {
		raw, err := os.ReadFile(*configFile)
		if err != nil {
			return conf, configError(fmt.Sprintf("reading config file: %s", err))
		}
		if err := yaml.Unmarshal(raw, &conf); err != nil {
			return conf, configError(fmt.Sprintf("parsing config file %s: %s", *configFile, err))
		}
	}

	if *domain != "" {
		conf.DomainFQDN = *domain
	}
	if len(*records) > 0 {
		conf.Records = *records
	}
	if *ip != "" {
		conf.StaticIP = *ip
	}
	if *keyFile != "" {
		conf.KeyFile = *keyFile
	}
	if flags.Changed("interval") {
		conf.Interval = *interval
	}
	if *verbose {
		conf.Verbose = true
	}

	return conf, conf.validate()
}

func (c appConfig) validate() error {
	if c.DomainFQDN == "" {
		return configError("domain_fqdn is required (DOMAIN_FQDN or --domain)")
	}
	if !strings.HasSuffix(c.DomainFQDN, ".") {
		return configError(fmt.Sprintf("domain_fqdn %q does not end with '.'", c.DomainFQDN))
	}
	if len(c.Records) == 0 {
		return configError("at least one record name is required (DOMAIN_DYNAMIC_ITEMS or --records)")
	}
	for _, r := range c.Records {
		if r == "" || strings.Contains(r, ".") {
			return configError(fmt.Sprintf("record name %q must be a bare label without dots", r))
		}
	}
	if c.StaticIP != "" {
		a, err := netip.ParseAddr(c.StaticIP)
		if err != nil {
			return configError(fmt.Sprintf("static IP %q is not a valid address: %s", c.StaticIP, err))
		}
		if !a.Unmap().Is4() {
			return configError(fmt.Sprintf("static IP %q is not IPv4", c.StaticIP))
		}
	}
	return nil
}
