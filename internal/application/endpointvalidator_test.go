package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdelta/deltagate/internal/domain/model"
)

// mockProber records probed destinations and returns a configurable error.
type mockProber struct {
	err    error
	probed []model.Destination
}

func (m *mockProber) Probe(_ context.Context, dest model.Destination) error {
	m.probed = append(m.probed, dest)
	return m.err
}

func TestEndpointValidatorValidate(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		probeErr error
		wantErr  error
		probed   bool
	}{
		{
			name: "valid aws workspace",
			raw:  "https://acme.cloud.databricks.com",
		},
		{
			name: "valid azure workspace",
			raw:  "https://adb-1234.11.azuredatabricks.net",
		},
		{
			name: "valid gcp workspace",
			raw:  "https://acme.gcp.databricks.com",
		},
		{
			name:    "http scheme rejected",
			raw:     "http://acme.cloud.databricks.com",
			wantErr: ErrInvalidEndpoint,
		},
		{
			name:    "unrecognized host rejected",
			raw:     "https://evil.example.com",
			wantErr: ErrInvalidEndpoint,
		},
		{
			name:    "missing host rejected",
			raw:     "https://",
			wantErr: ErrInvalidEndpoint,
		},
		{
			name:    "suffix must not match as whole host",
			raw:     "https://cloud.databricks.com.evil.example.com",
			wantErr: ErrInvalidEndpoint,
		},
		{
			name:     "probe failure is unreachable, not invalid",
			raw:      "https://acme.cloud.databricks.com",
			probeErr: errors.New("dial tcp: i/o timeout"),
			wantErr:  ErrEndpointUnreachable,
			probed:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prober := &mockProber{err: tt.probeErr}
			validator := NewEndpointValidator(prober, nil, testLogger())

			dest, err := validator.Validate(context.Background(), tt.raw)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				if !tt.probed {
					assert.Empty(t, prober.probed, "syntactic rejection must not probe")
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.raw, dest.Raw)
			assert.Equal(t, "https", dest.Scheme)
			require.Len(t, prober.probed, 1)
			assert.Equal(t, dest, prober.probed[0])
		})
	}
}

func TestEndpointValidatorHostCaseInsensitive(t *testing.T) {
	prober := &mockProber{}
	validator := NewEndpointValidator(prober, nil, testLogger())

	dest, err := validator.Validate(context.Background(), "https://Acme.Cloud.Databricks.COM")
	require.NoError(t, err)
	assert.Equal(t, "Acme.Cloud.Databricks.COM", dest.Host)
}

func TestEndpointValidatorCustomSuffixes(t *testing.T) {
	prober := &mockProber{}
	validator := NewEndpointValidator(prober, []string{".internal.example.net"}, testLogger())

	_, err := validator.Validate(context.Background(), "https://ws1.internal.example.net")
	require.NoError(t, err)

	_, err = validator.Validate(context.Background(), "https://acme.cloud.databricks.com")
	assert.ErrorIs(t, err, ErrInvalidEndpoint, "custom suffixes replace the defaults")
}

func TestEndpointValidatorNoCrossRequestCache(t *testing.T) {
	prober := &mockProber{}
	validator := NewEndpointValidator(prober, nil, testLogger())

	for i := 0; i < 3; i++ {
		_, err := validator.Validate(context.Background(), "https://acme.cloud.databricks.com")
		require.NoError(t, err)
	}

	assert.Len(t, prober.probed, 3, "every request must be probed independently")
}
