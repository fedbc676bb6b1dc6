// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/solaris/internal/answer"
)

func TestObserveAnswer(t *testing.T) {
	m := New()
	m.ObserveAnswer(answer.OutcomeSubstantive, 3, 2*time.Second)
	m.ObserveAnswer(answer.OutcomeSubstantive, 5, time.Second)
	m.ObserveAnswer(answer.OutcomeRefusal, 2, time.Second)
	m.ObserveAnswer(answer.OutcomeDegraded, 0, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.answers.WithLabelValues(string(answer.OutcomeSubstantive))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.answers.WithLabelValues(string(answer.OutcomeRefusal))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.answers.WithLabelValues(string(answer.OutcomeDegraded))))
	assert.Equal(t, 3, testutil.CollectAndCount(m.answers))
}

func TestObserveDraft(t *testing.T) {
	m := New()
	m.ObserveDraft(true, 5*time.Second)
	m.ObserveDraft(false, time.Second)
	m.ObserveDraft(true, 4*time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.drafts.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.drafts.WithLabelValues("failed")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveAnswer(answer.OutcomeSubstantive, 1, time.Second)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `solaris_answers_total{outcome="substantive"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
