package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordTransfer(t *testing.T) {
	before := testutil.ToFloat64(FundTransfersTotal.WithLabelValues("withdraw", "insufficient_balance"))
	RecordTransfer("withdraw", "insufficient_balance")
	after := testutil.ToFloat64(FundTransfersTotal.WithLabelValues("withdraw", "insufficient_balance"))
	assert.Equal(t, before+1, after)
}

func TestMiddlewareCountsByRoute(t *testing.T) {
	app := fiber.New()
	app.Use(Middleware())
	app.Get("/jobs/:jobID", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/metrics", FiberHandler())

	counter := HTTPRequestsTotal.WithLabelValues("GET", "/jobs/:jobID", "200")
	before := testutil.ToFloat64(counter)

	resp, err := app.Test(httptest.NewRequest("GET", "/jobs/7", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))

	resp, err = app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "freelancehub_http_requests_total")
}
