package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"zakfit/api/internal/apperr"
	"zakfit/api/internal/auth"
	"zakfit/api/internal/filter"
	"zakfit/api/internal/models"
	"zakfit/api/internal/store"
	"zakfit/api/internal/window"
)

var cet = time.FixedZone("CET", 3600)

// fakeStore implements the calls the tests exercise. Any other call hits the
// nil embedded interface and fails the request.
type fakeStore struct {
	Store

	users      map[string]models.User
	foods      map[string]models.Food
	meals      map[string]models.Meal
	activities []models.Activity
	typeIDs    map[string][]string
	err        error

	activityQuery filter.Query
	mealItems     []store.IngredientInput
	mealCalls     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:   map[string]models.User{},
		foods:   map[string]models.Food{},
		meals:   map[string]models.Meal{},
		typeIDs: map[string][]string{},
	}
}

func (f *fakeStore) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	for _, existing := range f.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return models.User{}, apperr.Conflict("This email is already in use")
		}
	}
	u.ID = uuid.NewString()
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeStore) UserByID(ctx context.Context, id string) (models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return models.User{}, apperr.NotFound("User not found")
	}
	return u, nil
}

func (f *fakeStore) UserByEmail(ctx context.Context, email string) (models.User, error) {
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return models.User{}, apperr.NotFound("User not found")
}

func (f *fakeStore) UpdateUser(ctx context.Context, u models.User) (models.User, error) {
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeStore) FoodByID(ctx context.Context, id string) (models.Food, error) {
	food, ok := f.foods[id]
	if !ok {
		return models.Food{}, apperr.NotFound("Food not found")
	}
	return food, nil
}

func (f *fakeStore) CreateFood(ctx context.Context, food models.Food) (models.Food, error) {
	food.ID = uuid.NewString()
	f.foods[food.ID] = food
	return food, nil
}

func (f *fakeStore) CreateMeal(ctx context.Context, m models.Meal, items []store.IngredientInput) (models.Meal, error) {
	m.ID = uuid.NewString()
	f.mealItems = items
	f.meals[m.ID] = m
	return m, nil
}

func (f *fakeStore) MealByID(ctx context.Context, id string) (models.Meal, error) {
	m, ok := f.meals[id]
	if !ok {
		return models.Meal{}, apperr.NotFound("Meal not found")
	}
	return m, nil
}

func (f *fakeStore) ListActivities(ctx context.Context, userID string) ([]models.Activity, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.activities, nil
}

func (f *fakeStore) ActivityTypeIDsByName(ctx context.Context, name string) ([]string, error) {
	if ids, ok := f.typeIDs[strings.ToLower(name)]; ok {
		return ids, nil
	}
	return []string{}, nil
}

func (f *fakeStore) FilterActivities(ctx context.Context, q filter.Query) ([]models.Activity, error) {
	f.activityQuery = q
	return []models.Activity{}, nil
}

func (f *fakeStore) ActivitiesBetween(ctx context.Context, userID string, from, to time.Time) ([]models.Activity, error) {
	out := []models.Activity{}
	for _, a := range f.activities {
		if !a.Date.Before(from) && a.Date.Before(to) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) MealsBetween(ctx context.Context, userID string, from, to time.Time) ([]models.Meal, error) {
	return []models.Meal{}, nil
}

func (f *fakeStore) ActivitiesInWindow(ctx context.Context, userID string, w window.Window) ([]models.Activity, error) {
	out := []models.Activity{}
	for _, a := range f.activities {
		if w.Contains(a.Date) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) MealsInWindow(ctx context.Context, userID string, w window.Window, withIngredients bool) ([]models.Meal, error) {
	f.mealCalls++
	return []models.Meal{}, nil
}

func (f *fakeStore) CreateObjectives(ctx context.Context, userID string, values store.ObjectiveValues) ([]models.Objective, error) {
	out := []models.Objective{}
	for _, typ := range models.ObjectiveTypes {
		if v, ok := values[typ]; ok {
			out = append(out, models.Objective{
				ID: uuid.NewString(), UserID: userID, Type: typ, Value: v,
				Date: time.Date(2025, 11, 26, 23, 30, 0, 0, time.UTC),
			})
		}
	}
	return out, nil
}

type testEnv struct {
	app     *App
	store   *fakeStore
	handler http.Handler
	userID  string
	token   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	fs := newFakeStore()
	tokens := auth.NewIssuer("test-secret", time.Hour)
	app := New(fs, cet, tokens, nil)
	app.clock = func() time.Time { return time.Date(2025, 11, 27, 15, 4, 5, 0, cet) }

	uid := uuid.NewString()
	fs.users[uid] = models.User{ID: uid, Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace"}
	token, _, err := tokens.Issue(uid)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return &testEnv{app: app, store: fs, handler: NewRouter(app, "*"), userID: uid, token: token}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return e.request(t, method, path, body, e.token)
}

func (e *testEnv) request(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func errorReason(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return body.Error
}

func TestHealthz(t *testing.T) {
	e := newTestEnv(t)
	rec := e.request(t, http.MethodGet, "/healthz", nil, "")
	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok":true`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	e := newTestEnv(t)
	for _, path := range []string{"/users/profile", "/activities", "/meals", "/history", "/data/export"} {
		rec := e.request(t, http.MethodGet, path, nil, "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("GET %s without token: status = %d, want 401", path, rec.Code)
		}
	}
	rec := e.request(t, http.MethodGet, "/users/profile", nil, "not-a-token")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d, want 401", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	e := newTestEnv(t)
	rec := e.request(t, http.MethodOptions, "/meals", nil, "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("allow origin = %q", got)
	}
}

func TestRegister(t *testing.T) {
	tests := []struct {
		name   string
		body   map[string]string
		status int
		reason string
	}{
		{"ok", map[string]string{"firstName": "Grace", "lastName": "Hopper", "email": "grace@example.com", "password": "longenough"}, 201, ""},
		{"short password", map[string]string{"firstName": "Grace", "lastName": "Hopper", "email": "grace@example.com", "password": "short"}, 400, "Password must be at least 8 characters"},
		{"longest password", map[string]string{"firstName": "Grace", "lastName": "Hopper", "email": "grace@example.com", "password": strings.Repeat("p", 72)}, 201, ""},
		{"password too long", map[string]string{"firstName": "Grace", "lastName": "Hopper", "email": "grace@example.com", "password": strings.Repeat("p", 80)}, 400, "Password must be at most 72 bytes"},
		{"missing field", map[string]string{"firstName": "Grace", "email": "grace@example.com", "password": "longenough"}, 400, "firstName, lastName, email and password are required"},
		{"bad email", map[string]string{"firstName": "Grace", "lastName": "Hopper", "email": "nope", "password": "longenough"}, 400, "Invalid email address"},
		{"taken email", map[string]string{"firstName": "Ada", "lastName": "L", "email": "ADA@example.com", "password": "longenough"}, 409, "This email is already in use"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t)
			rec := e.request(t, http.MethodPost, "/users", tt.body, "")
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
			if tt.reason != "" {
				if got := errorReason(t, rec); got != tt.reason {
					t.Errorf("reason = %q, want %q", got, tt.reason)
				}
				return
			}
			if strings.Contains(rec.Body.String(), "password") {
				t.Errorf("response leaks password data: %s", rec.Body.String())
			}
		})
	}
}

func TestLogin(t *testing.T) {
	e := newTestEnv(t)
	hash, err := auth.HashPassword("correct-horse")
	if err != nil {
		t.Fatal(err)
	}
	u := e.store.users[e.userID]
	u.PasswordHash = hash
	e.store.users[e.userID] = u

	tests := []struct {
		name     string
		email    string
		password string
		status   int
		reason   string
	}{
		{"unknown user", "nobody@example.com", "correct-horse", 401, "User does not exist"},
		{"wrong password", "ada@example.com", "battery-staple", 401, "Incorrect password"},
		{"ok", "ada@example.com", "correct-horse", 200, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.request(t, http.MethodPost, "/users/login", map[string]string{"email": tt.email, "password": tt.password}, "")
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
			if tt.reason != "" {
				if got := errorReason(t, rec); got != tt.reason {
					t.Errorf("reason = %q, want %q", got, tt.reason)
				}
				return
			}
			var resp LoginResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			claims, err := e.app.Tokens.Verify(resp.Token)
			if err != nil {
				t.Fatalf("issued token does not verify: %v", err)
			}
			if claims.UserID != e.userID {
				t.Errorf("token user = %q, want %q", claims.UserID, e.userID)
			}
		})
	}
}

func TestUpdatePersonalValidates(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, http.MethodPatch, "/users/profile/personal", `{"gender":"robot"}`)
	if rec.Code != 400 {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	rec = e.do(t, http.MethodPatch, "/users/profile/personal", `{"weight":72,"gender":"female"}`)
	if rec.Code != 200 {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
	u := e.store.users[e.userID]
	if u.Weight == nil || *u.Weight != 72 || u.Gender == nil || *u.Gender != "female" {
		t.Errorf("user not updated: %+v", u)
	}
	if u.FirstName != "Ada" {
		t.Errorf("untouched field changed: %q", u.FirstName)
	}
}

func TestInvalidPathID(t *testing.T) {
	e := newTestEnv(t)
	for _, path := range []string{"/meals/42", "/foods/abc", "/activities/x", "/types-activity/nope"} {
		rec := e.do(t, http.MethodGet, path, nil)
		if rec.Code != 400 {
			t.Errorf("GET %s: status = %d, want 400", path, rec.Code)
		}
	}
}

func TestInternalErrorsAreHidden(t *testing.T) {
	e := newTestEnv(t)
	e.store.err = errors.New("pq: connection reset at 10.0.0.3")
	rec := e.do(t, http.MethodGet, "/activities", nil)
	if rec.Code != 500 {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if got := errorReason(t, rec); got != "internal server error" {
		t.Errorf("reason = %q", got)
	}
}
