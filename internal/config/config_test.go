package config_test

import (
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/lc/pubip/internal/config"
)

type ConfigTestSuite struct {
	suite.Suite
	fs       mockFS
	provider config.Provider
}

type mockFS struct {
	files map[string]string
}

func (m mockFS) Stat(path string) (os.FileInfo, error) {
	if _, ok := m.files[path]; !ok {
		return nil, os.ErrNotExist
	}
	return nil, nil
}

func (m mockFS) MkdirAll(_ string, _ os.FileMode) error {
	return nil
}

func (m mockFS) Open(path string) (*os.File, error) {
	content, ok := m.files[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	tmp, err := os.CreateTemp("", "mock-*") // caller cleans up in t.Cleanup
	if err != nil {
		return nil, err
	}
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return nil, err
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, err
	}
	return tmp, nil
}

func (m mockFS) WriteFile(path string, content []byte, _ os.FileMode) error {
	m.files[path] = string(content)
	return nil
}

func (s *ConfigTestSuite) SetupTest() {
	s.fs = mockFS{
		files: make(map[string]string),
	}
	s.provider = config.NewWithPath(s.fs, "test/config.yaml")
}

func (s *ConfigTestSuite) TestLoadDefaultWhenNoFile() {
	// When loading configuration with no file present
	cfg, err := s.provider.Load()

	// Then default configuration should be returned
	s.Require().NoError(err)
	s.Equal(config.DefaultSocketPath, cfg.Socket.Path)
	s.Equal(config.DefaultLookupTimeout, cfg.Lookup.Timeout)
	s.False(cfg.Lookup.OnlyHTTPS)
	s.Empty(cfg.Lookup.FallbackURLs)
}

func (s *ConfigTestSuite) TestLoadValidConfig() {
	// Given a valid config file
	s.fs.files["test/config.yaml"] = `
socket:
  path: /custom/socket
lookup:
  timeout: 10s
  only_https: true
  fallback_urls:
    - https://ifconfig.co/ip
`
	// When loading configuration
	cfg, err := s.provider.Load()

	// Then custom values should be loaded
	s.Require().NoError(err)
	s.Equal("/custom/socket", cfg.Socket.Path)
	s.Equal(10*time.Second, cfg.Lookup.Timeout)
	s.True(cfg.Lookup.OnlyHTTPS)
	s.Equal([]string{"https://ifconfig.co/ip"}, cfg.Lookup.FallbackURLs)
}

func (s *ConfigTestSuite) TestValidation() {
	testCases := []struct {
		name        string
		config      config.Config
		expectedErr string
	}{
		// Socket Path Validation
		{
			name: "empty socket path",
			config: config.Config{
				Socket: config.SocketConfig{Path: ""},
				Lookup: config.LookupConfig{Timeout: 5 * time.Second},
			},
			expectedErr: "socket path cannot be empty",
		},
		{
			name: "socket path only whitespace",
			config: config.Config{
				Socket: config.SocketConfig{Path: "   \t\n"},
				Lookup: config.LookupConfig{Timeout: 5 * time.Second},
			},
			expectedErr: "socket path cannot be empty",
		},

		// Timeout Validation
		{
			name: "timeout zero",
			config: config.Config{
				Socket: config.SocketConfig{Path: "/tmp/socket"},
				Lookup: config.LookupConfig{Timeout: 0},
			},
			expectedErr: "lookup timeout must be at least 100ms",
		},
		{
			name: "timeout negative",
			config: config.Config{
				Socket: config.SocketConfig{Path: "/tmp/socket"},
				Lookup: config.LookupConfig{Timeout: -time.Second},
			},
			expectedErr: "lookup timeout must be at least 100ms",
		},
		{
			name: "timeout too short",
			config: config.Config{
				Socket: config.SocketConfig{Path: "/tmp/socket"},
				Lookup: config.LookupConfig{Timeout: 50 * time.Millisecond},
			},
			expectedErr: "lookup timeout must be at least 100ms",
		},
		{
			name: "timeout exactly 100ms",
			config: config.Config{
				Socket: config.SocketConfig{Path: "/tmp/socket"},
				Lookup: config.LookupConfig{Timeout: 100 * time.Millisecond},
			},
			expectedErr: "",
		},

		// Fallback URL Validation
		{
			name: "fallback url not https",
			config: config.Config{
				Socket: config.SocketConfig{Path: "/tmp/socket"},
				Lookup: config.LookupConfig{
					Timeout:      5 * time.Second,
					FallbackURLs: []string{"http://ifconfig.co/ip"},
				},
			},
			expectedErr: "must be a valid https url",
		},
		{
			name: "fallback url garbage",
			config: config.Config{
				Socket: config.SocketConfig{Path: "/tmp/socket"},
				Lookup: config.LookupConfig{
					Timeout:      5 * time.Second,
					FallbackURLs: []string{"not a url"},
				},
			},
			expectedErr: "must be a valid https url",
		},
		{
			name: "fallback url valid",
			config: config.Config{
				Socket: config.SocketConfig{Path: "/tmp/socket"},
				Lookup: config.LookupConfig{
					Timeout:      5 * time.Second,
					FallbackURLs: []string{"https://ifconfig.co/ip"},
				},
			},
			expectedErr: "",
		},

		// Combined Validation
		{
			name: "multiple validation errors",
			config: config.Config{
				Socket: config.SocketConfig{Path: ""},
				Lookup: config.LookupConfig{Timeout: 0},
			},
			expectedErr: "socket path cannot be empty", // First error encountered
		},
		{
			name: "all fields valid typical values",
			config: config.Config{
				Socket: config.SocketConfig{Path: "/tmp/socket"},
				Lookup: config.LookupConfig{
					Timeout:      5 * time.Second,
					OnlyHTTPS:    true,
					FallbackURLs: []string{"https://ifconfig.co/ip"},
				},
			},
			expectedErr: "",
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			err := tc.config.Validate()
			if tc.expectedErr == "" {
				s.NoError(err)
			} else {
				s.Error(err)
				s.Contains(err.Error(), tc.expectedErr)
			}
		})
	}
}

func (s *ConfigTestSuite) TestLoadInvalidYAML() {
	// Given an invalid YAML file
	s.fs.files["test/config.yaml"] = `
socket:
  path: [invalid: yaml]
`
	// When loading configuration
	_, err := s.provider.Load()

	// Then an error should be returned
	s.Error(err)
	s.Contains(err.Error(), "decoding config file")
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}
