package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"log/syslog"
	"os"
	"os/signal"

	"github.com/firefart/dmarcrecords/internal/config"
	"github.com/firefart/dmarcrecords/internal/dmarc"
	"github.com/firefart/dmarcrecords/internal/dns"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
)

type app struct {
	logger *slog.Logger
	sysLog io.WriteCloser
	dns    dmarc.Resolver
	config *config.Configuration
	out    io.Writer
}

func main() {
	debug := flag.Bool("debug", false, "Print debug output")
	configFile := flag.String("config", "", "Config File to use")
	format := flag.String("format", "", "Output format (text, json or xml), overrides the config file")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [options] report-file\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := newLogger(*debug)

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	settings, err := loadConfig(*configFile, *format)
	if err != nil {
		logger.Error("invalid configuration", slog.String("config", *configFile), slog.String("err", err.Error()))
		os.Exit(1)
	}

	// trap Ctrl+C and call cancel on the context
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, logger, settings, flag.Arg(0)); err != nil {
		logger.Error("error", slog.String("err", err.Error()))
		cancel()
		os.Exit(1)
	}
}

func newLogger(debug bool) *slog.Logger {
	opts := log.Options{
		ReportTimestamp: true,
		Level:           log.InfoLevel,
	}
	if debug {
		opts.Level = log.DebugLevel
	}
	// machine readable logs when we are not attached to a terminal
	if !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		opts.Formatter = log.LogfmtFormatter
	}
	return slog.New(log.NewWithOptions(os.Stderr, opts))
}

func loadConfig(configFile, format string) (*config.Configuration, error) {
	settings := config.Default()
	if configFile != "" {
		c, err := config.GetConfig(settings, configFile)
		if err != nil {
			return nil, err
		}
		settings = *c
	}
	if format != "" {
		settings.Format = format
		if err := settings.Validate(); err != nil {
			return nil, err
		}
	}
	return &settings, nil
}

func run(ctx context.Context, logger *slog.Logger, settings *config.Configuration, filename string) error {
	a := app{
		logger: logger,
		config: settings,
		out:    os.Stdout,
	}

	if settings.SyslogServer != "" {
		sysLog, err := syslog.Dial(settings.SyslogProtocol, settings.SyslogServer,
			syslog.LOG_WARNING|syslog.LOG_DAEMON, settings.SyslogTag)
		if err != nil {
			return fmt.Errorf("could not connect to syslog server %s: %w", settings.SyslogServer, err)
		}
		defer sysLog.Close()
		a.sysLog = sysLog
	}

	if settings.ResolveDNS {
		a.dns = dns.NewCachedDNSResolver(ctx, settings.DnsServer, settings.DnsConnectTimeout.Duration,
			settings.DnsTimeout.Duration, settings.DnsCacheTimeout.Duration, logger)
	}

	content, err := os.ReadFile(filename) // nolint: gosec
	if err != nil {
		return fmt.Errorf("could not read %s: %w", filename, err)
	}

	return a.processReport(ctx, filename, content)
}

func (a *app) processReport(ctx context.Context, filename string, content []byte) error {
	a.logger.Info("processing report", slog.String("file", filename), slog.Int("size", len(content)))
	xmlFilename, records, err := dmarc.ReadReport(ctx, filename, content)
	if err != nil {
		var malformedErr *dmarc.MalformedXMLError
		var coercionErr *dmarc.FieldCoercionError
		switch {
		case errors.As(err, &malformedErr):
			a.logger.Debug("malformed report", slog.Int64("offset", malformedErr.Offset))
		case errors.As(err, &coercionErr):
			a.logger.Debug("invalid field value", slog.String("field", coercionErr.Field), slog.String("text", coercionErr.Text))
		}
		return fmt.Errorf("could not read file %s: %w", filename, err)
	}
	a.logger.Info("parsed report", slog.String("file", xmlFilename), slog.Int("records", len(records)))

	if a.config.Format == "text" {
		if err := dmarc.WriteText(a.out, records); err != nil {
			return fmt.Errorf("could not write output: %w", err)
		}
		return nil
	}

	opts := dmarc.EntryOptions{
		Filename:      xmlFilename,
		Resolver:      a.dns,
		EventID:       a.config.EventID,
		EventCategory: a.config.EventCategory,
	}

	var r [][]byte
	switch a.config.Format {
	case "xml":
		r, err = dmarc.ConvertToXML(records, opts)
		if err != nil {
			return fmt.Errorf("could not convert XML: %w", err)
		}
	case "json":
		r, err = dmarc.ConvertToJSON(records, opts)
		if err != nil {
			return fmt.Errorf("could not convert JSON: %w", err)
		}
	default:
		return fmt.Errorf("invalid format %s", a.config.Format)
	}

	for _, entry := range r {
		if _, err := fmt.Fprintln(a.out, string(entry)); err != nil {
			return fmt.Errorf("could not write output: %w", err)
		}

		// hint: we can't check the number returned here because
		// it's just the len of the input, so pretty useless
		if a.sysLog != nil {
			if _, err := a.sysLog.Write(entry); err != nil {
				return fmt.Errorf("could not send syslog entry: %w", err)
			}
			a.logger.Debug("wrote message to syslog")
		}
	}

	return nil
}
