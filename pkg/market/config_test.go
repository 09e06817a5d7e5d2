package market

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quotevault-api/pkg/timeline"
)

type fakeProvider struct {
	name string
	cfg  *ProviderConfig
}

func (p *fakeProvider) HistoricalData(context.Context, string, Period, timeline.Interval) ([]timeline.Point, error) {
	return nil, nil
}

func (p *fakeProvider) LatestPrice(context.Context, string) (float64, error) {
	return 0, nil
}

func init() {
	RegisterProvider("fake", func(name string, cfg *ProviderConfig) (Provider, error) {
		return &fakeProvider{name: name, cfg: cfg}, nil
	})
}

const sampleConfig = `
default: primary
providers:
  primary:
    type: fake
    base_url: https://example.com
    currency: USD
    timeout: 15s
    http_timeout: 5s
    symbol_map:
      SPX: ^GSPC
  backup:
    type: fake
    seed: 7
`

func TestLoadConfigFromReader(t *testing.T) {
	cfg, err := LoadConfigFromReader(strings.NewReader(sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "primary", cfg.Default)
	require.Len(t, cfg.Providers, 2)

	primary := cfg.Providers["primary"]
	require.NotNil(t, primary)
	assert.Equal(t, "https://example.com", primary.BaseURL)
	assert.Equal(t, 15*time.Second, primary.Timeout)
	assert.Equal(t, 5*time.Second, primary.HTTPTimeout)
	assert.Equal(t, "^GSPC", primary.SymbolMap["SPX"])
	assert.EqualValues(t, 7, cfg.Providers["backup"].Seed)
}

func TestLoadConfigExpandsEnv(t *testing.T) {
	t.Setenv("MARKET_TEST_BASE_URL", "https://env.example.com")
	cfg, err := LoadConfigFromReader(strings.NewReader(`
providers:
  primary:
    type: fake
    base_url: ${MARKET_TEST_BASE_URL}
`))
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com", cfg.Providers["primary"].BaseURL)
}

func TestLoadConfigRejectsUnknownType(t *testing.T) {
	_, err := LoadConfigFromReader(strings.NewReader(`
providers:
  primary:
    type: nope
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported type")
}

func TestLoadConfigRejectsMissingDefault(t *testing.T) {
	_, err := LoadConfigFromReader(strings.NewReader(`
default: ghost
providers:
  primary:
    type: fake
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default provider")
}

func TestLoadConfigRejectsEmptyProviders(t *testing.T) {
	_, err := LoadConfigFromReader(strings.NewReader(`providers: {}`))
	assert.Error(t, err)
}

func TestLoadConfigRejectsBadTimeout(t *testing.T) {
	_, err := LoadConfigFromReader(strings.NewReader(`
providers:
  primary:
    type: fake
    timeout: soon
`))
	assert.Error(t, err)
}

func TestBuildProviders(t *testing.T) {
	cfg, err := LoadConfigFromReader(strings.NewReader(sampleConfig))
	require.NoError(t, err)

	providers, err := cfg.BuildProviders()
	require.NoError(t, err)
	require.Len(t, providers, 2)

	primary, ok := providers["primary"].(*fakeProvider)
	require.True(t, ok)
	assert.Equal(t, "primary", primary.name)
	assert.Equal(t, "https://example.com", primary.cfg.BaseURL)
}

func TestParsePeriod(t *testing.T) {
	period, err := ParsePeriod("1mo")
	require.NoError(t, err)
	assert.Equal(t, Period1mo, period)

	_, err = ParsePeriod("fortnight")
	assert.Error(t, err)
}
