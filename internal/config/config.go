package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
)

type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		var err error
		d.Duration, err = time.ParseDuration(value)
		if err != nil {
			return err
		}
		return nil
	default:
		return errors.New("invalid duration")
	}
}

type Configuration struct {
	Format            string   `json:"format" validate:"oneof=text json xml"`
	SyslogServer      string   `json:"syslogServer"`
	SyslogProtocol    string   `json:"syslogProtocol" validate:"omitempty,oneof=tcp udp unix unixgram"`
	SyslogTag         string   `json:"syslogTag" validate:"required_with=SyslogServer"`
	ResolveDNS        bool     `json:"resolveDNS"`
	DnsServer         string   `json:"dnsServer" validate:"omitempty,hostname_port"`
	DnsConnectTimeout Duration `json:"dnsConnectTimeout" validate:"gt=0"`
	DnsTimeout        Duration `json:"dnsTimeout" validate:"gt=0"`
	DnsCacheTimeout   Duration `json:"dnsCacheTimeout" validate:"gte=0"`
	EventID           string   `json:"eventID"`
	EventCategory     string   `json:"eventCategory"`
}

// Default returns the settings used when no config file is supplied
func Default() Configuration {
	return Configuration{
		Format:         "text",
		SyslogProtocol: "tcp",
		SyslogTag:      "dmarc",
		DnsConnectTimeout: Duration{
			Duration: 1 * time.Second,
		},
		DnsTimeout: Duration{
			Duration: 10 * time.Second,
		},
		DnsCacheTimeout: Duration{
			Duration: 1 * time.Hour,
		},
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// validate Duration fields like a plain time.Duration
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(Duration); ok {
			return d.Duration
		}
		return nil
	}, Duration{})
	return v
}

// Validate checks the configuration and returns all problems at once
func (c *Configuration) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	var result *multierror.Error
	for _, fe := range validationErrors {
		result = multierror.Append(result, fmt.Errorf("invalid value %v for %s: failed on %q", fe.Value(), fe.Field(), fe.Tag()))
	}
	return result.ErrorOrNil()
}

func GetConfig(defaults Configuration, f string) (*Configuration, error) {
	if f == "" {
		return nil, fmt.Errorf("please provide a valid config file")
	}

	b, err := os.ReadFile(f) // nolint: gosec
	if err != nil {
		return nil, err
	}
	reader := bytes.NewReader(b)

	decoder := json.NewDecoder(reader)
	if err = decoder.Decode(&defaults); err != nil {
		return nil, err
	}

	if err := defaults.Validate(); err != nil {
		return nil, err
	}

	return &defaults, nil
}
