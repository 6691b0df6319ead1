package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/KerenDoz/Event-Planner/internal/domain/category"
	"github.com/KerenDoz/Event-Planner/internal/domain/event"
	"github.com/KerenDoz/Event-Planner/internal/domain/location"
	"github.com/KerenDoz/Event-Planner/internal/domain/validation"
	"github.com/KerenDoz/Event-Planner/internal/http/handlers"
	"github.com/KerenDoz/Event-Planner/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

// Make sure Gin does not spam the console during the test

func init() {
	gin.SetMode(gin.TestMode)
}

// Fake implementations of the handler dependencies

type fakeEventService struct {
	listFn     func(ctx context.Context, f event.ListFilter) ([]event.Summary, error)
	detailsFn  func(ctx context.Context, id int64, viewerID string) (event.Details, error)
	createFn   func(ctx context.Context, organizerID string, req event.FormRequest) (event.Event, error)
	getOwnedFn func(ctx context.Context, id int64, callerID string) (event.Event, error)
	updateFn   func(ctx context.Context, id int64, callerID string, req event.FormRequest) (event.Event, error)
	deleteFn   func(ctx context.Context, id int64, callerID string) error
	myEventsFn func(ctx context.Context, callerID string) ([]event.Summary, error)
}

func (f *fakeEventService) List(ctx context.Context, filter event.ListFilter) ([]event.Summary, error) {
	if f.listFn != nil {
		return f.listFn(ctx, filter)
	}
	return []event.Summary{}, nil
}

func (f *fakeEventService) Details(ctx context.Context, id int64, viewerID string) (event.Details, error) {
	if f.detailsFn != nil {
		return f.detailsFn(ctx, id, viewerID)
	}
	return event.Details{}, nil
}

func (f *fakeEventService) Create(ctx context.Context, organizerID string, req event.FormRequest) (event.Event, error) {
	if f.createFn != nil {
		return f.createFn(ctx, organizerID, req)
	}
	return event.Event{}, nil
}

func (f *fakeEventService) GetOwned(ctx context.Context, id int64, callerID string) (event.Event, error) {
	if f.getOwnedFn != nil {
		return f.getOwnedFn(ctx, id, callerID)
	}
	return event.Event{}, nil
}

func (f *fakeEventService) Update(ctx context.Context, id int64, callerID string, req event.FormRequest) (event.Event, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, id, callerID, req)
	}
	return event.Event{}, nil
}

func (f *fakeEventService) Delete(ctx context.Context, id int64, callerID string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id, callerID)
	}
	return nil
}

func (f *fakeEventService) MyEvents(ctx context.Context, callerID string) ([]event.Summary, error) {
	if f.myEventsFn != nil {
		return f.myEventsFn(ctx, callerID)
	}
	return []event.Summary{}, nil
}

type fakeCategoryLister struct {
	items []category.Category
	err   error
}

func (f fakeCategoryLister) List(ctx context.Context) ([]category.Category, error) {
	return f.items, f.err
}

type fakeLocationLister struct {
	items []location.Location
	err   error
}

func (f fakeLocationLister) List(ctx context.Context) ([]location.Location, error) {
	return f.items, f.err
}

var (
	testCategories = fakeCategoryLister{items: []category.Category{{ID: 1, Name: "Meetup"}, {ID: 2, Name: "Workshop"}}}
	testLocations  = fakeLocationLister{items: []location.Location{{ID: 1, Name: "Tech Hub", City: "Sofia"}}}
)

func newEventsHandler(svc *fakeEventService) *handlers.EventsHandler {
	return handlers.NewEventsHandler(svc, testCategories, testLocations)
}

// small helper function which returns the gin engine to mount one handler per test.
// A non-empty userID plays the part of the auth middleware.

var testFlashKey = []byte("flash-test-key-0123456789abcdef!")

func setupRouter(method, path, userID string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(handlers.Flashes(testFlashKey, false))

	if userID != "" {
		r.Use(func(c *gin.Context) {
			c.Set(middlewares.CtxUserID, userID)
			c.Next()
		})
	}

	r.Handle(method, path, h)

	return r
}

func eventBody(start time.Time) string {
	return `{
		"title": "Tech Talks Night",
		"description": "An evening of short talks about Go services.",
		"startDate": "` + start.Format(time.RFC3339) + `",
		"endDate": "` + start.Add(2*time.Hour).Format(time.RFC3339) + `",
		"capacity": 50,
		"categoryId": 1,
		"locationId": 1
	}`
}

// Create Event tests

func TestCreateEventHandler(t *testing.T) {
	start := time.Now().UTC().Add(24 * time.Hour)

	tests := []struct {
		name           string
		body           string
		userID         string
		serviceSetUp   func(*fakeEventService)
		wantStatusCode int
	}{
		{
			name:   "success",
			body:   eventBody(start),
			userID: "u-1",
			serviceSetUp: func(f *fakeEventService) {
				f.createFn = func(ctx context.Context, organizerID string, req event.FormRequest) (event.Event, error) {
					if organizerID != "u-1" {
						return event.Event{}, errors.New("organizer not taken from the session")
					}
					e := event.Event{ID: 42, OrganizerID: organizerID}
					req.Apply(&e)
					return e, nil
				}
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name:           "unauthenticated",
			body:           eventBody(start),
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			// the service should not be called for an incomplete payload
			name:           "validation_error",
			body:           `{"title": ""}`,
			userID:         "u-1",
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:   "missing_category",
			body:   eventBody(start),
			userID: "u-1",
			serviceSetUp: func(f *fakeEventService) {
				f.createFn = func(ctx context.Context, organizerID string, req event.FormRequest) (event.Event, error) {
					return event.Event{}, validation.Field("categoryId", "exists", "Selected category does not exist.")
				}
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:   "service_error",
			body:   eventBody(start),
			userID: "u-1",
			serviceSetUp: func(f *fakeEventService) {
				f.createFn = func(ctx context.Context, organizerID string, req event.FormRequest) (event.Event, error) {
					return event.Event{}, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeEventService{}

			if tt.serviceSetUp != nil {
				tt.serviceSetUp(svc)
			}

			r := setupRouter(http.MethodPost, "/events/create", tt.userID, newEventsHandler(svc).Create)

			req := httptest.NewRequest(http.MethodPost, "/events/create", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestCreateEventHandler_ResponseCarriesRedirect(t *testing.T) {
	svc := &fakeEventService{
		createFn: func(ctx context.Context, organizerID string, req event.FormRequest) (event.Event, error) {
			return event.Event{ID: 42, OrganizerID: organizerID}, nil
		},
	}

	r := setupRouter(http.MethodPost, "/events/create", "u-1", newEventsHandler(svc).Create)

	req := httptest.NewRequest(http.MethodPost, "/events/create", bytes.NewBufferString(eventBody(time.Now().Add(time.Hour))))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body struct {
		ID         int64  `json:"id"`
		RedirectTo string `json:"redirectTo"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v body=%s", err, w.Body.String())
	}
	if body.ID != 42 || body.RedirectTo != "/events/details/42" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

// ---List event tests

func TestListEventsHandler(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name           string
		url            string
		serviceSetup   func(*fakeEventService)
		wantStatusCode int
		wantCount      int
	}{
		{
			name: "defaults_to_upcoming_only",
			url:  "/events",
			serviceSetup: func(f *fakeEventService) {
				f.listFn = func(ctx context.Context, filter event.ListFilter) ([]event.Summary, error) {
					if !filter.UpcomingOnly || filter.Search != nil || filter.CategoryID != nil {
						return nil, errors.New("unexpected default filter")
					}
					return []event.Summary{{ID: 1, Title: "Tech Talks", StartDate: now}}, nil
				}
			},
			wantStatusCode: http.StatusOK,
			wantCount:      1,
		},
		{
			name: "search_and_category",
			url:  "/events?search=Tech&categoryId=2&upcomingOnly=false",
			serviceSetup: func(f *fakeEventService) {
				f.listFn = func(ctx context.Context, filter event.ListFilter) ([]event.Summary, error) {
					if filter.Search == nil || *filter.Search != "Tech" {
						return nil, errors.New("search filter not passed")
					}
					if filter.CategoryID == nil || *filter.CategoryID != 2 {
						return nil, errors.New("category filter not passed")
					}
					if filter.UpcomingOnly {
						return nil, errors.New("upcomingOnly=false ignored")
					}
					return []event.Summary{{ID: 1}, {ID: 2}}, nil
				}
			},
			wantStatusCode: http.StatusOK,
			wantCount:      2,
		},
		{
			name: "blank_search_is_ignored",
			url:  "/events?search=%20%20",
			serviceSetup: func(f *fakeEventService) {
				f.listFn = func(ctx context.Context, filter event.ListFilter) ([]event.Summary, error) {
					if filter.Search != nil {
						return nil, errors.New("blank search passed through")
					}
					return []event.Summary{}, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "invalid_category",
			url:            "/events?categoryId=abc",
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "invalid_upcoming_flag",
			url:            "/events?upcomingOnly=maybe",
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "service_error",
			url:  "/events",
			serviceSetup: func(f *fakeEventService) {
				f.listFn = func(ctx context.Context, filter event.ListFilter) ([]event.Summary, error) {
					return nil, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeEventService{}
			if tt.serviceSetup != nil {
				tt.serviceSetup(svc)
			}

			r := setupRouter(http.MethodGet, "/events", "", newEventsHandler(svc).List)

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantStatusCode != http.StatusOK {
				return
			}

			var body struct {
				Count      int               `json:"count"`
				Categories []handlers.Option `json:"categories"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("failed to unmarshal: %v body=%s", err, w.Body.String())
			}
			if body.Count != tt.wantCount {
				t.Fatalf("got count %d, want %d", body.Count, tt.wantCount)
			}
			if len(body.Categories) != 2 {
				t.Fatalf("expected category options for the filter, got %+v", body.Categories)
			}
		})
	}
}

func TestListEventsHandler_ETagNotModified(t *testing.T) {
	now := time.Now().UTC()
	calls := 0

	svc := &fakeEventService{
		listFn: func(ctx context.Context, filter event.ListFilter) ([]event.Summary, error) {
			calls++
			return []event.Summary{{ID: 1, Title: "Tech Talks", StartDate: now, City: "Sofia"}}, nil
		},
	}

	r := setupRouter(http.MethodGet, "/events", "", newEventsHandler(svc).List)

	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, httptest.NewRequest(http.MethodGet, "/events", nil))

	if w1.Code != http.StatusOK {
		t.Fatalf("first call got %d body=%s", w1.Code, w1.Body.String())
	}

	etag := w1.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("expected ETag header in first response")
	}

	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/events", nil)
	req2.Header.Set("If-None-Match", etag)
	r.ServeHTTP(w2, req2)

	if w2.Code != http.StatusNotModified {
		t.Fatalf("second call got %d, want %d, body=%s", w2.Code, http.StatusNotModified, w2.Body.String())
	}

	if w2.Body.Len() != 0 {
		t.Fatalf("expected empty body for 304, got %q", w2.Body.String())
	}

	if calls != 2 {
		t.Fatalf("expected the listing to be recomputed on each call, got %d", calls)
	}
}

// Details tests

func TestEventDetailsHandler(t *testing.T) {
	tests := []struct {
		name           string
		url            string
		userID         string
		wantViewer     string
		err            error
		wantStatusCode int
	}{
		{name: "anonymous", url: "/events/details/7", wantStatusCode: http.StatusOK},
		{name: "signed_in", url: "/events/details/7", userID: "u-1", wantViewer: "u-1", wantStatusCode: http.StatusOK},
		{name: "not_found", url: "/events/details/7", err: event.ErrNotFound, wantStatusCode: http.StatusNotFound},
		{name: "non_numeric_id", url: "/events/details/abc", wantStatusCode: http.StatusNotFound},
		{name: "zero_id", url: "/events/details/0", wantStatusCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeEventService{
				detailsFn: func(ctx context.Context, id int64, viewerID string) (event.Details, error) {
					if tt.err != nil {
						return event.Details{}, tt.err
					}
					if viewerID != tt.wantViewer {
						return event.Details{}, errors.New("viewer not propagated")
					}
					return event.Details{ID: id, Title: "Tech Talks", IsOwner: viewerID != ""}, nil
				},
			}

			r := setupRouter(http.MethodGet, "/events/details/:id", tt.userID, newEventsHandler(svc).Details)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.url, nil))

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

// ---Update / delete tests

func TestUpdateEventHandler(t *testing.T) {
	start := time.Now().UTC().Add(24 * time.Hour)
	invalid := `{"title": "x", "capacity": 0}`

	tests := []struct {
		name           string
		url            string
		body           string
		ownedErr       error
		updateErr      error
		wantStatusCode int
		wantCode       string
		wantUpdate     bool
	}{
		{name: "success", url: "/events/edit/7", body: eventBody(start), wantStatusCode: http.StatusOK, wantUpdate: true},
		{name: "not_owner", url: "/events/edit/7", body: eventBody(start), ownedErr: event.ErrForbidden, wantStatusCode: http.StatusForbidden, wantCode: "forbidden"},
		{name: "not_owner_invalid_body", url: "/events/edit/7", body: invalid, ownedErr: event.ErrForbidden, wantStatusCode: http.StatusForbidden, wantCode: "forbidden"},
		{name: "not_found", url: "/events/edit/999", body: eventBody(start), ownedErr: event.ErrNotFound, wantStatusCode: http.StatusNotFound, wantCode: "not_found"},
		{name: "not_found_invalid_body", url: "/events/edit/999", body: invalid, ownedErr: event.ErrNotFound, wantStatusCode: http.StatusNotFound, wantCode: "not_found"},
		{name: "owner_invalid_body", url: "/events/edit/7", body: invalid, wantStatusCode: http.StatusBadRequest, wantCode: "invalid_request"},
		{name: "deleted_meanwhile", url: "/events/edit/7", body: eventBody(start), updateErr: event.ErrNotFound, wantStatusCode: http.StatusNotFound, wantUpdate: true},
		{name: "invalid_id", url: "/events/edit/x", body: eventBody(start), wantStatusCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updated := false
			svc := &fakeEventService{
				getOwnedFn: func(ctx context.Context, id int64, callerID string) (event.Event, error) {
					if tt.ownedErr != nil {
						return event.Event{}, tt.ownedErr
					}
					return event.Event{ID: id, OrganizerID: callerID}, nil
				},
				updateFn: func(ctx context.Context, id int64, callerID string, req event.FormRequest) (event.Event, error) {
					updated = true
					if id != 7 || callerID != "u-1" {
						t.Fatalf("update got id=%d caller=%q", id, callerID)
					}
					if tt.updateErr != nil {
						return event.Event{}, tt.updateErr
					}
					e := event.Event{ID: id, OrganizerID: callerID}
					req.Apply(&e)
					return e, nil
				},
			}

			r := setupRouter(http.MethodPost, "/events/edit/:id", "u-1", newEventsHandler(svc).Edit)

			req := httptest.NewRequest(http.MethodPost, tt.url, bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
			if tt.wantCode != "" {
				if resp := decodeBindError(t, w); resp.Error.Code != tt.wantCode {
					t.Fatalf("got code %q, want %q", resp.Error.Code, tt.wantCode)
				}
			}
			if updated != tt.wantUpdate {
				t.Fatalf("update called = %v, want %v", updated, tt.wantUpdate)
			}
		})
	}
}

func TestDeleteEventHandler(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		wantStatusCode int
	}{
		{name: "success", wantStatusCode: http.StatusOK},
		{name: "not_owner", err: event.ErrForbidden, wantStatusCode: http.StatusForbidden},
		{name: "not_found", err: event.ErrNotFound, wantStatusCode: http.StatusNotFound},
		{name: "service_error", err: errors.New("db error"), wantStatusCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeEventService{
				deleteFn: func(ctx context.Context, id int64, callerID string) error {
					return tt.err
				},
			}

			r := setupRouter(http.MethodPost, "/events/deleteconfirmed/:id", "u-1", newEventsHandler(svc).DeleteConfirmed)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/events/deleteconfirmed/7", nil))

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestCreateFormHandler_LocationLabels(t *testing.T) {
	r := setupRouter(http.MethodGet, "/events/create", "u-1", newEventsHandler(&fakeEventService{}).CreateForm)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events/create", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d body=%s", w.Code, w.Body.String())
	}

	var body struct {
		Locations []handlers.Option `json:"locations"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Locations) != 1 || body.Locations[0].Label != "Sofia - Tech Hub" {
		t.Fatalf("unexpected location options: %+v", body.Locations)
	}
}
