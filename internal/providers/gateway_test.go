package providers

import (
	"context"
	"errors"
	"testing"
	"time"

	"rfpgen/internal/models"
	"rfpgen/internal/prompt"

	"github.com/stretchr/testify/require"
)

type scriptedProvider struct {
	calls   int
	outputs []string
	errs    []error
	delay   time.Duration
}

func (s *scriptedProvider) Generate(ctx context.Context, messages []prompt.Message) (string, ProviderInfo, error) {
	i := s.calls
	s.calls++
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	info := ProviderInfo{Name: "scripted", Model: "scripted-v1"}
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	var out string
	if i < len(s.outputs) {
		out = s.outputs[i]
	}
	return out, info, err
}

func newTestGateway(p LLMProvider, maxAttempts int) *Gateway {
	m := NewManagerWithProviders(map[string]LLMProvider{"openai": p}, []string{"openai"}, nil)
	g := NewGateway(m, RetryPolicy{MaxAttempts: maxAttempts, Backoff: time.Millisecond}, time.Second)
	g.sleep = func(time.Duration) {}
	return g
}

func TestInvokeUnknownProvider(t *testing.T) {
	g := newTestGateway(&scriptedProvider{}, 1)
	res := g.Invoke(context.Background(), "mistral", nil)
	require.Equal(t, models.StatusError, res.Status)
	require.Equal(t, string(ErrorConfiguration), res.ErrorType)
	require.Contains(t, res.ErrorDetail, "not configured")
}

func TestInvokeMissingCredentialFailsFast(t *testing.T) {
	p := &scriptedProvider{errs: []error{ErrMissingCredential, ErrMissingCredential}}
	g := newTestGateway(p, 3)
	res := g.Invoke(context.Background(), "openai", nil)
	require.Equal(t, models.StatusError, res.Status)
	require.Equal(t, string(ErrorConfiguration), res.ErrorType)
	require.Equal(t, 1, p.calls, "configuration failures must not retry")
}

func TestInvokeSuccess(t *testing.T) {
	p := &scriptedProvider{outputs: []string{"  the answer  "}, delay: time.Millisecond}
	g := newTestGateway(p, 2)
	res := g.Invoke(context.Background(), "OpenAI", []prompt.Message{{Role: prompt.RoleUser, Content: "q"}})
	require.Equal(t, models.StatusSuccess, res.Status)
	require.Equal(t, "the answer", res.Text)
	require.Equal(t, "openai", res.Provider)
	require.Equal(t, "scripted-v1", res.Model)
	require.Greater(t, res.Elapsed, time.Duration(0))
	require.Empty(t, res.ErrorDetail)
}

func TestInvokeEmptySuccessGetsPlaceholder(t *testing.T) {
	p := &scriptedProvider{outputs: []string{"   \n\t  "}}
	g := newTestGateway(p, 1)
	res := g.Invoke(context.Background(), "openai", nil)
	require.Equal(t, models.StatusSuccess, res.Status)
	require.Equal(t, EmptyResponsePlaceholder, res.Text)
}

func TestInvokeRetriesTransientThenSucceeds(t *testing.T) {
	p := &scriptedProvider{
		errs:    []error{errors.New("503 service unavailable"), nil},
		outputs: []string{"", "recovered"},
	}
	g := newTestGateway(p, 3)
	res := g.Invoke(context.Background(), "openai", nil)
	require.Equal(t, models.StatusSuccess, res.Status)
	require.Equal(t, "recovered", res.Text)
	require.Equal(t, 2, p.calls)
}

func TestInvokeRateLimitExhaustsAttempts(t *testing.T) {
	rateErr := errors.New("429 too many requests")
	p := &scriptedProvider{errs: []error{rateErr, rateErr, rateErr}}
	g := newTestGateway(p, 3)
	res := g.Invoke(context.Background(), "openai", nil)
	require.Equal(t, models.StatusError, res.Status)
	require.Equal(t, string(ErrorRate), res.ErrorType)
	require.Equal(t, 3, p.calls)
	require.Greater(t, res.Elapsed, time.Duration(0))
}

func TestInvokePermanentErrorDoesNotRetry(t *testing.T) {
	p := &scriptedProvider{errs: []error{errors.New("400 bad request")}}
	g := newTestGateway(p, 3)
	res := g.Invoke(context.Background(), "openai", nil)
	require.Equal(t, models.StatusError, res.Status)
	require.Equal(t, string(ErrorPermanent), res.ErrorType)
	require.Equal(t, 1, p.calls)
}

func TestInvokeTimeoutStatus(t *testing.T) {
	p := &scriptedProvider{errs: []error{context.DeadlineExceeded}}
	g := newTestGateway(p, 1)
	res := g.Invoke(context.Background(), "openai", nil)
	require.Equal(t, models.StatusTimeout, res.Status)
	require.Equal(t, string(ErrorTimeout), res.ErrorType)
}

func TestProvidersReturnsConfigOrder(t *testing.T) {
	m := NewManagerWithProviders(map[string]LLMProvider{
		"openai":    &scriptedProvider{},
		"anthropic": &scriptedProvider{},
		"deepseek":  &scriptedProvider{},
	}, []string{"openai", "anthropic", "deepseek"}, nil)
	g := NewGateway(m, RetryPolicy{}, 0)
	require.Equal(t, []string{"openai", "anthropic", "deepseek"}, g.Providers())
}
