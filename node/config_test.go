package node

import (
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	if c.Name != "evalchain" {
		t.Errorf("name = %q", c.Name)
	}
	if c.EventBuffer <= 0 {
		t.Errorf("event buffer = %d, want positive", c.EventBuffer)
	}
	// Admin is deliberately unset: defaults alone must not validate.
	if err := c.Validate(); err == nil {
		t.Error("default config validated without an admin address")
	}
}

func TestConfigValidate(t *testing.T) {
	valid := DefaultConfig()
	valid.Admin = "0xadadadadadadadadadadadadadadadadadadadad"

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"empty name", func(c *Config) { c.Name = "" }, "name"},
		{"missing admin", func(c *Config) { c.Admin = "" }, "admin"},
		{"zero admin", func(c *Config) { c.Admin = "0x0000000000000000000000000000000000000000" }, "admin"},
		{"garbage admin", func(c *Config) { c.Admin = "zzzz" }, "admin"},
		{"negative buffer", func(c *Config) { c.EventBuffer = -1 }, "buffer"},
		{"unknown log format", func(c *Config) { c.LogFormat = "xml" }, "log format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestAdminAddress(t *testing.T) {
	c := Config{Admin: "0x0000000000000000000000000000000000000001"}
	if c.AdminAddress().IsZero() {
		t.Error("valid admin parsed as zero")
	}
	c.Admin = "not-hex"
	if !c.AdminAddress().IsZero() {
		t.Errorf("garbage admin parsed as %s", c.AdminAddress())
	}
}
