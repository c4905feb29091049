package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DaghanEmre/fintech-modular-platform/internal/platform/config"
)

func TestSetupWithoutEndpointIsNoop(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.OTelConfig{ServiceName: "customer-service"})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetupWithEndpoint(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.OTelConfig{
		Endpoint:    "http://127.0.0.1:4318",
		ServiceName: "customer-service",
		SampleRatio: 1,
		Insecure:    true,
	})
	require.NoError(t, err)
	// Nothing was exported, so flushing does not touch the collector.
	assert.NoError(t, shutdown(context.Background()))
}
