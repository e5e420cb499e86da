package main

import (
	"admissions-portal/internal/config"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunToken_Validation(t *testing.T) {
	cfg = &config.Config{Auth: config.Auth{JWTSecret: "secret"}}
	t.Cleanup(func() { cfg = nil })

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "system role", args: []string{"--role", "system"}, wantErr: "invalid role"},
		{name: "unknown role", args: []string{"--role", "dean"}, wantErr: "invalid role"},
		{name: "zero ttl", args: []string{"--ttl", "0s"}, wantErr: "ttl must be positive"},
		{name: "admin", args: []string{"--role", "admin"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := tokenCmd()
			require.NoError(t, cmd.Flags().Parse(tt.args))

			err := runToken(cmd, []string{"adm-1"})
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRunToken_RequiresSecret(t *testing.T) {
	cfg = &config.Config{}
	t.Cleanup(func() { cfg = nil })

	err := runToken(tokenCmd(), []string{"stu-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_JWT_SECRET")
}
