package main

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"os"
	"syscall"

	"github.com/arvhar/dyndns"
	"github.com/rs/zerolog"
	"golang.org/x/term"
)

var logger zerolog.Logger

func main() {
	logger = zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.InfoLevel)
	if err := run(os.Args[1:]); err != nil {
		logger.Error().Err(err).Msg("run failed")
		os.Exit(1)
	}
}

func run(args []string) error {
	conf, err := loadConfig(args)
	if err != nil {
		return err
	}
	if conf.Verbose {
		logger = logger.Level(zerolog.DebugLevel)
	}
	logger.Debug().
		Str("domain", conf.DomainFQDN).
		Strs("records", conf.Records).
		Dur("interval", conf.Interval).
		Msg("config is valid")

	key := conf.APIKey
	if key == "" {
		key, err = keyFromFile(conf.KeyFile)
		if err != nil {
			return err
		}
	}

	options := []dyndns.Option{
		dyndns.UsingGandi(key),
		dyndns.WithLogger(logger),
	}
	if conf.StaticIP != "" {
		logger.Info().Str("ip", conf.StaticIP).Msg("using given IP address")
		resolver, err := dyndns.FromString(conf.StaticIP)
		if err != nil {
			return err
		}
		options = append(options, dyndns.UsingResolver(resolver))
	}

	client, err := dyndns.New(conf.DomainFQDN, conf.Records, options...)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if conf.Interval > 0 {
		logger.Info().Dur("interval", conf.Interval).Msg("running as daemon")
		client.RunDaemon(ctx, conf.Interval)
		return nil
	}
	return client.Run(ctx)
}

// keyFromFile reads the API key from path, running first-time setup when the
// file does not exist yet.
func keyFromFile(path string) (string, error) {
	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		logger.Info().Str("path", path).Msg("key file does not exist")
		if err := runSetup(path); err != nil {
			return "", fmt.Errorf("setup: %w", err)
		}
	}
	if err := verifyPermissions(path); err != nil {
		return "", err
	}
	return readKey(path)
}

func runSetup(path string) error {
	if !term.IsTerminal(int(syscall.Stdin)) {
		return fmt.Errorf("no API key configured and stdin is not a terminal - set GANDI_API_KEY or create %q", path)
	}
	fmt.Printf("Enter Gandi API Key: \n")
	bytekey, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return fmt.Errorf("error reading from stdin: %w", err)
	}

	logger.Debug().Str("path", path).Msg("creating key file")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("unable to create \"%s\": %w", path, err)
	}
	defer f.Close()
	fmt.Fprintln(f, string(bytekey))
	logger.Info().Str("path", path).Msg("key written")
	return nil
}

func readKey(path string) (key string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("error reading key: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	keyb, _, err := r.ReadLine()
	if err != nil {
		return "", fmt.Errorf("error reading line: %w", err)
	}
	return string(keyb), nil
}

func verifyPermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("error checking keyfile permissions: %w", err)
	}

	if perms := info.Mode().Perm(); perms != 0600 {
		return fmt.Errorf("invalid permissions for \"%s\": %w", path, permissionError(perms))
	}
	return nil
}

type permissionError fs.FileMode

func (pe permissionError) Error() string {
	return fmt.Sprintf("expected file permissions \"-rw-------\"; found \"%s\"", fs.FileMode(pe))
}
