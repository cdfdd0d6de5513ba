// Fanscout - Supporter-Driven Music Discovery for Bandcamp
// Copyright 2026 M. Veldt (fanscout)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanscout/fanscout

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordFetch(t *testing.T) {
	before := testutil.ToFloat64(FetchesTotal.WithLabelValues("page", "success"))
	RecordFetch("page", 120*time.Millisecond, nil)
	after := testutil.ToFloat64(FetchesTotal.WithLabelValues("page", "success"))
	if after != before+1 {
		t.Errorf("success counter = %g, want %g", after, before+1)
	}

	beforeErr := testutil.ToFloat64(FetchesTotal.WithLabelValues("page", "error"))
	RecordFetch("page", time.Second, errors.New("boom"))
	afterErr := testutil.ToFloat64(FetchesTotal.WithLabelValues("page", "error"))
	if afterErr != beforeErr+1 {
		t.Errorf("error counter = %g, want %g", afterErr, beforeErr+1)
	}
}

func TestRecordEngineRequest(t *testing.T) {
	before := testutil.ToFloat64(EngineRequestsTotal.WithLabelValues("overlap", "success"))
	RecordEngineRequest("overlap", 2*time.Second, nil)
	after := testutil.ToFloat64(EngineRequestsTotal.WithLabelValues("overlap", "success"))
	if after != before+1 {
		t.Errorf("engine request counter = %g, want %g", after, before+1)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/recommendations", "200"))
	RecordAPIRequest("GET", "/api/v1/recommendations", 200, 50*time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/recommendations", "200"))
	if after != before+1 {
		t.Errorf("api request counter = %g, want %g", after, before+1)
	}
}
