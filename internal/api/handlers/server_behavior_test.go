package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pedidotrack.io/tracker/internal/api/middleware"
	"pedidotrack.io/tracker/internal/blob"
	"pedidotrack.io/tracker/internal/domain"
	"pedidotrack.io/tracker/internal/engine"
	"pedidotrack.io/tracker/internal/notification"
	"pedidotrack.io/tracker/internal/pkg/logger"
	"pedidotrack.io/tracker/internal/scheduler"
	"pedidotrack.io/tracker/internal/service"
	"pedidotrack.io/tracker/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
	_ = logger.Init("error", "json")
}

var handlerNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func orderRow(t *testing.T, values map[string]string) []string {
	t.Helper()
	header := domain.ExpectedColumns()
	idx := domain.HeaderIndex(header)
	row := make([]string, len(header))
	for col, v := range values {
		i, ok := idx[col]
		require.True(t, ok, "unknown column %q", col)
		row[i] = v
	}
	return row
}

type fixture struct {
	router *gin.Engine
	mock   *store.MockStore
	inbox  *notification.InboxSender
}

func newAPIFixture(t *testing.T, rows [][]string) *fixture {
	t.Helper()

	mock := store.NewMockStore(domain.ExpectedColumns(), rows)
	dispatcher := domain.NewEventDispatcher()
	inbox := notification.NewInboxSender(50)
	notification.NewTriggers(inbox).RegisterOn(dispatcher)

	eng := engine.New(mock, dispatcher, time.UTC, time.Hour).
		WithClock(func() time.Time { return handlerNow })
	sched := scheduler.New(mock, eng, dispatcher, time.UTC, time.Minute)
	require.NoError(t, sched.RefreshOnce(context.Background()))

	orders := service.NewOrderService(sched, eng)
	objStore := blob.NewMockObjectStore()
	resolver := blob.NewResolver(objStore, "orders/", 100, 1000)
	attachments := service.NewAttachmentService(resolver, objStore, "orders/", orders, nil)

	srv := NewServer(ServerDeps{
		Orders:      orders,
		Attachments: attachments,
		Inbox:       inbox,
		Scheduler:   sched,
	})

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.ErrorHandler())
	srv.RegisterHealthRoutes(r)
	srv.RegisterRoutes(r.Group("/api/v1"))

	return &fixture{router: r, mock: mock, inbox: inbox}
}

func (f *fixture) do(t *testing.T, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestListOrders_PriorityOrder(t *testing.T) {
	f := newAPIFixture(t, [][]string{
		orderRow(t, map[string]string{
			domain.ColID:           "P-1",
			domain.ColStatus:       "IN_PROGRESS",
			domain.ColRegisteredAt: handlerNow.Add(-30 * time.Minute).Format(domain.TimestampLayout),
		}),
		orderRow(t, map[string]string{
			domain.ColID:           "P-2",
			domain.ColStatus:       "DELAYED",
			domain.ColRegisteredAt: handlerNow.Add(-10 * time.Minute).Format(domain.TimestampLayout),
		}),
	})

	w := f.do(t, http.MethodGet, "/api/v1/orders", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Orders []domain.Order `json:"orders"`
		Count  int            `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Count)
	assert.Equal(t, "P-2", resp.Orders[0].ID, "delayed first")
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	f := newAPIFixture(t, [][]string{
		orderRow(t, map[string]string{
			domain.ColID:           "P-1",
			domain.ColStatus:       "PENDING",
			domain.ColRegisteredAt: handlerNow.Add(-5 * time.Minute).Format(domain.TimestampLayout),
		}),
	})

	w := f.do(t, http.MethodPost, "/api/v1/orders/P-1/process", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/orders/P-1/complete", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "COMPLETED", f.mock.Cell(2, domain.ColStatus))

	// Completing again conflicts.
	w = f.do(t, http.MethodPost, "/api/v1/orders/P-1/complete", nil, "")
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_STATUS_TRANSITION")

	// Clear hides it from default history.
	w = f.do(t, http.MethodPost, "/api/v1/orders/P-1/clear", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/orders/history", nil, "")
	assert.Contains(t, w.Body.String(), `"count":0`)

	w = f.do(t, http.MethodGet, "/api/v1/orders/history?include_cleared=true", nil, "")
	assert.Contains(t, w.Body.String(), "P-1")
}

func TestGetOrder_NotFound(t *testing.T) {
	f := newAPIFixture(t, nil)
	w := f.do(t, http.MethodGet, "/api/v1/orders/missing", nil, "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "ORDER_NOT_FOUND")
}

func TestSetDeliveryDate_Validation(t *testing.T) {
	f := newAPIFixture(t, [][]string{
		orderRow(t, map[string]string{
			domain.ColID:     "P-1",
			domain.ColStatus: "PENDING",
		}),
	})

	body := bytes.NewBufferString(`{"delivery_date":"2026-03-07"}`)
	w := f.do(t, http.MethodPut, "/api/v1/orders/P-1/delivery-date", body, "application/json")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2026-03-07", f.mock.Cell(2, domain.ColDeliveryDate))

	body = bytes.NewBufferString(`{"delivery_date":"07/03/2026"}`)
	w = f.do(t, http.MethodPut, "/api/v1/orders/P-1/delivery-date", body, "application/json")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConfirmModification_NotificationFlow(t *testing.T) {
	f := newAPIFixture(t, [][]string{
		orderRow(t, map[string]string{
			domain.ColID:              "P-1",
			domain.ColCustomer:        "Acme",
			domain.ColStatus:          "PENDING",
			domain.ColFulfillmentNote: "add two boxes",
		}),
	})

	// Refresh announced the unconfirmed modification into the inbox.
	entries := f.inbox.List(0)
	require.Len(t, entries, 1)
	assert.Equal(t, notification.TypeModificationPending, entries[0].Type)

	w := f.do(t, http.MethodPost, "/api/v1/orders/P-1/confirm-modification", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"modification_confirmed":true`)
	assert.Equal(t, "add two boxes"+domain.ConfirmedMarker, f.mock.Cell(2, domain.ColFulfillmentNote))

	// Mark the inbox entry read over HTTP.
	w = f.do(t, http.MethodPost, "/api/v1/notifications/"+entries[0].ID+"/read", nil, "")
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestAttachmentUploadAndList(t *testing.T) {
	f := newAPIFixture(t, [][]string{
		orderRow(t, map[string]string{
			domain.ColID:     "P-1",
			domain.ColStatus: "PENDING",
		}),
	})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "label.pdf")
	require.NoError(t, err)
	_, err = fw.Write([]byte("pdf bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w := f.do(t, http.MethodPost, "/api/v1/orders/P-1/attachments", &buf, mw.FormDataContentType())
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "orders/P-1/label.pdf")

	w = f.do(t, http.MethodGet, "/api/v1/orders/P-1/attachments", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var view service.AttachmentView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	require.True(t, view.Resolved)
	require.Len(t, view.Files, 1)
	assert.Equal(t, "label.pdf", view.Files[0].Name)
	assert.True(t, strings.HasPrefix(view.Files[0].URL, "https://"))
}

func TestAttachments_UnresolvedIsEmpty200(t *testing.T) {
	f := newAPIFixture(t, [][]string{
		orderRow(t, map[string]string{
			domain.ColID:     "P-1",
			domain.ColStatus: "PENDING",
		}),
	})

	w := f.do(t, http.MethodGet, "/api/v1/orders/P-1/attachments", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"resolved":false`)
}

func TestHealthEndpoints(t *testing.T) {
	f := newAPIFixture(t, nil)

	w := f.do(t, http.MethodGet, "/health/live", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/health/ready", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"snapshot":"ok"`)
}
