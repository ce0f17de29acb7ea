package metrics_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/pathway/internal/metrics"
	"github.com/aretw0/pathway/pkg/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHooks(t *testing.T) {
	m := metrics.New()
	var forwarded int
	hooks := m.Hooks(domain.LifecycleHooks{
		OnDecision: func(context.Context, *domain.DecisionEvent) { forwarded++ },
	})
	ctx := context.Background()

	hooks.OnDecision(ctx, &domain.DecisionEvent{Outcome: domain.OutcomeProceed})
	hooks.OnDecision(ctx, &domain.DecisionEvent{Outcome: domain.OutcomeReject, Gated: true})
	hooks.OnDecision(ctx, &domain.DecisionEvent{Outcome: domain.OutcomeReject, Gated: true})
	hooks.OnClassifierError(ctx, &domain.ClassifierEvent{Err: errors.New("timeout")})

	assert.Equal(t, 3, forwarded)

	expected := `
# HELP pathway_turns_total Total number of decided turns by outcome
# TYPE pathway_turns_total counter
pathway_turns_total{gated="false",outcome="proceed"} 1
pathway_turns_total{gated="true",outcome="reject"} 2
# HELP pathway_classifier_errors_total Classifier failures that forced the error branch
# TYPE pathway_classifier_errors_total counter
pathway_classifier_errors_total 1
`
	err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		"pathway_turns_total", "pathway_classifier_errors_total")
	assert.NoError(t, err)
}

func TestObserveUpstream(t *testing.T) {
	m := metrics.New()
	m.ObserveUpstream(false, 200*time.Millisecond, nil)
	m.ObserveUpstream(true, time.Second, errors.New("broken pipe"))

	errs, err := testutil.GatherAndCount(m.Registry(), "pathway_upstream_errors_total")
	require.NoError(t, err)
	assert.Equal(t, 1, errs)

	series, err := testutil.GatherAndCount(m.Registry(), "pathway_upstream_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, series)
}

func TestObserveStore(t *testing.T) {
	m := metrics.New()
	m.ObserveStore("load", time.Millisecond, domain.ErrCallNotFound)
	m.ObserveStore("save", time.Millisecond, errors.New("disk full"))

	errs, err := testutil.GatherAndCount(m.Registry(), "pathway_store_errors_total")
	require.NoError(t, err)
	assert.Equal(t, 1, errs, "Unseen calls are not counted as errors")
}

func TestHandler(t *testing.T) {
	m := metrics.New()
	m.ObserveUpstream(false, time.Millisecond, nil)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pathway_upstream_duration_seconds_count")
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
