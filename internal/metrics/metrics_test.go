package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersMove(t *testing.T) {
	before := testutil.ToFloat64(IndexOpsTotal.WithLabelValues("add"))
	IndexOpsTotal.WithLabelValues("add").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(IndexOpsTotal.WithLabelValues("add")))

	DocumentsIndexed.Set(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(DocumentsIndexed))
}

func TestHandlerExposesCollectors(t *testing.T) {
	SearchesTotal.WithLabelValues("prefix", "intersects").Inc()

	srv := httptest.NewServer(Handler())
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "spatialprefix_searches_total")
	assert.Contains(t, string(body), "spatialprefix_documents")
}
