package notify

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) SendLowStockAlert(ctx context.Context, name string, stock, threshold int) bool {
	return m.Called(ctx, name, stock, threshold).Bool(0)
}

func TestLogNotifier_EscribeAviso(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(zerolog.New(&buf))

	assert.True(t, n.SendLowStockAlert(context.Background(), "Widget", 1, 3))
	assert.Contains(t, buf.String(), `"product":"Widget"`)
	assert.Contains(t, buf.String(), `"stock":1`)
	assert.Contains(t, buf.String(), `"level":"warn"`)
}

func TestRateLimited_DescartaExcesoSinLlamar(t *testing.T) {
	next := &mockNotifier{}
	next.On("SendLowStockAlert", mock.Anything, "Widget", 0, 1).Return(true).Times(2)
	r := NewRateLimited(next, 2)

	assert.True(t, r.SendLowStockAlert(context.Background(), "Widget", 0, 1))
	assert.True(t, r.SendLowStockAlert(context.Background(), "Widget", 0, 1))
	assert.False(t, r.SendLowStockAlert(context.Background(), "Widget", 0, 1))
	next.AssertExpectations(t)
}

func TestRateLimited_PropagaFallo(t *testing.T) {
	next := &mockNotifier{}
	next.On("SendLowStockAlert", mock.Anything, "Widget", 2, 5).Return(false).Once()
	r := NewRateLimited(next, 10)

	assert.False(t, r.SendLowStockAlert(context.Background(), "Widget", 2, 5))
	next.AssertExpectations(t)
}
