package config

import (
	"strings"
	"testing"
)

func TestValidate_ValidConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	err := Validate(cfg)
	if err != nil {
		t.Errorf("Expected valid config to pass validation, got error: %v", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Level = "INVALID"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for invalid log level")
	}
	if !strings.Contains(err.Error(), "oneof") {
		t.Errorf("Expected 'oneof' validation error, got: %v", err)
	}
}

func TestValidate_InvalidLogFormat(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Format = "xml"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for invalid log format")
	}
}

func TestValidate_InvalidServerPort(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Server.Port = 70000 // Out of range

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for port out of range")
	}
	if !strings.Contains(err.Error(), "max") {
		t.Errorf("Expected 'max' validation error, got: %v", err)
	}
}

func TestValidate_MissingRoot(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Server.Root = ""

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for missing served root")
	}
	errStr := strings.ToLower(err.Error())
	if !strings.Contains(errStr, "server") || !strings.Contains(errStr, "root") {
		t.Errorf("Expected error about server root, got: %v", err)
	}
}

func TestValidate_InvalidMode(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Server.Mode = "threaded"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for invalid dispatch mode")
	}
}

func TestValidate_InvalidContentTypes(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Server.ContentTypes = "strict"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for invalid content-type policy")
	}
}

func TestValidate_InvalidCounterPolicy(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Counter.Policy = "atomic"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for invalid counter policy")
	}
	if !strings.Contains(err.Error(), "oneof") {
		t.Errorf("Expected 'oneof' validation error, got: %v", err)
	}
}

func TestValidate_NegativeRateLimitWindow(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.RateLimit.Window = -1

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for negative rate-limit window")
	}
}

func TestValidate_ReportsAllFailures(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Level = "LOUD"
	cfg.Server.Mode = "threaded"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation errors")
	}
	errStr := strings.ToLower(err.Error())
	if !strings.Contains(errStr, "logging.level") {
		t.Errorf("Expected error to mention logging.level, got: %v", err)
	}
	if !strings.Contains(errStr, "server.mode") {
		t.Errorf("Expected error to mention server.mode, got: %v", err)
	}
}
