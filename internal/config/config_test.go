package config

import (
	"encoding/json"
	"path"
	"strings"
	"testing"
	"time"
)

func TestGetConfig(t *testing.T) {
	c, err := GetConfig(Default(), path.Join("..", "..", "testdata", "test.json"))
	if err != nil {
		t.Fatalf("got error when reading config file: %v", err)
	}
	if c == nil {
		t.Fatal("got a nil config object")
	}
	if c.Format != "json" {
		t.Fatalf("wrong format %q", c.Format)
	}
	if c.DnsTimeout.Duration != 5*time.Second {
		t.Fatalf("wrong dns timeout %s", c.DnsTimeout)
	}
	// not set in the file so the default must survive
	if c.DnsCacheTimeout.Duration != 1*time.Hour {
		t.Fatalf("default cache timeout was overwritten: %s", c.DnsCacheTimeout)
	}
}

func TestGetConfigErrors(t *testing.T) {
	_, err := GetConfig(Default(), "")
	if err == nil {
		t.Fatal("expected error on empty filename")
	}
	_, err = GetConfig(Default(), "this_does_not_exist")
	if err == nil {
		t.Fatal("expected error on invalid file")
	}
}

func TestGetConfigInvalid(t *testing.T) {
	_, err := GetConfig(Default(), path.Join("..", "..", "testdata", "invalid.json"))
	if err == nil {
		t.Fatal("expected error when reading config file but got none")
	}
}

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("default config is invalid: %v", err)
	}
}

func TestValidateReportsAllErrors(t *testing.T) {
	c := Default()
	c.Format = "yaml"
	c.DnsTimeout = Duration{}
	c.DnsServer = "not a server"

	err := c.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, field := range []string{"Format", "DnsTimeout", "DnsServer"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error does not mention %s: %v", field, err)
		}
	}
}

func TestDurationUnmarshal(t *testing.T) {
	var d Duration
	if err := json.Unmarshal([]byte(`"1m30s"`), &d); err != nil {
		t.Fatalf("could not unmarshal string duration: %v", err)
	}
	if d.Duration != 90*time.Second {
		t.Fatalf("wrong duration %s", d)
	}
	if err := json.Unmarshal([]byte(`1000`), &d); err != nil {
		t.Fatalf("could not unmarshal numeric duration: %v", err)
	}
	if d.Duration != 1000*time.Nanosecond {
		t.Fatalf("wrong duration %s", d)
	}
	if err := json.Unmarshal([]byte(`true`), &d); err == nil {
		t.Fatal("expected error on boolean duration")
	}
}
