package tests

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/erise-club/website/core/achievement"
	"github.com/erise-club/website/core/event"
	"github.com/erise-club/website/core/member"
	"github.com/erise-club/website/testutil"
)

func eventValues(title, status string) map[string]interface{} {
	return map[string]interface{}{
		"title": title, "date": "March 15, 2026", "time": "10:00 AM", "location": "Batna",
		"image": "https://example.com/e.png", "description": "Renewable energy day", "status": status,
	}
}

func Test_resourceApi_events(t *testing.T) {
	app := setup(t)
	token := app.login(t)

	tests := []httpTest{
		{name: "empty list", path: "/api/events", wantCode: http.StatusOK, wantData: marchallList(t)},
		{
			name: "create: auth required", method: http.MethodPost, path: "/api/events",
			body: marchallObj(t, eventValues("Solar", event.StatusUpcoming)), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errUnauthorized),
		},
		{
			name: "create", method: http.MethodPost, path: "/api/events", token: token,
			body: marchallObj(t, eventValues("Solar", event.StatusUpcoming)), wantCode: http.StatusOK, wantData: []byte(`{"id": 1}`),
		},
		{
			name: "create: free text status", method: http.MethodPost, path: "/api/events", token: token,
			body: marchallObj(t, eventValues("Wind", "Postponed")), wantCode: http.StatusOK, wantData: []byte(`{"id": 2}`),
		},
		{
			name: "create: empty strings are kept", method: http.MethodPost, path: "/api/events", token: token,
			body: []byte(`{"title":"","date":"","time":"","location":"","image":"","description":"","status":""}`),
			wantCode: http.StatusOK, wantData: []byte(`{"id": 3}`),
		},
		{
			name: "create: missing fields", method: http.MethodPost, path: "/api/events", token: token,
			body:     []byte(`{"title":"Hydro","date":"May 1","time":"9:00","location":"Batna","image":"","description":""}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"status": "this field is required"}`),
		},
		{
			name: "create: null field", method: http.MethodPost, path: "/api/events", token: token,
			body:     []byte(`{"title":null,"date":"May 1","time":"9:00","location":"Batna","image":"","description":"","status":"Completed"}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"title": "this field is required"}`),
		},
		{
			name: "create: non-string field", method: http.MethodPost, path: "/api/events", token: token,
			body: []byte(`{"title":42,"date":"May 1","time":"9:00","location":"Batna","image":"","description":"","status":"Completed"}`), wantCode: http.StatusBadRequest,
		},
		{
			name: "create: malformed JSON", method: http.MethodPost, path: "/api/events", token: token,
			body: []byte(`{"title":`), wantCode: http.StatusBadRequest,
		},
		{
			name: "list: newest first", path: "/api/events", wantCode: http.StatusOK,
			wantData: marchallList(t,
				event.Event{ID: 3},
				event.Event{ID: 2, Title: "Wind", Date: "March 15, 2026", Time: "10:00 AM", Location: "Batna",
					Image: "https://example.com/e.png", Description: "Renewable energy day", Status: "Postponed"},
				event.Event{ID: 1, Title: "Solar", Date: "March 15, 2026", Time: "10:00 AM", Location: "Batna",
					Image: "https://example.com/e.png", Description: "Renewable energy day", Status: event.StatusUpcoming},
			),
		},
		{
			name: "delete: auth required", method: http.MethodDelete, path: "/api/events/1",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errUnauthorized),
		},
		{name: "delete", method: http.MethodDelete, path: "/api/events/1", token: token, wantCode: http.StatusOK, wantData: marchallObj(t, success)},
		{name: "delete: idempotent", method: http.MethodDelete, path: "/api/events/1", token: token, wantCode: http.StatusOK, wantData: marchallObj(t, success)},
		{name: "delete: unknown id", method: http.MethodDelete, path: "/api/events/404", token: token, wantCode: http.StatusOK, wantData: marchallObj(t, success)},
		{
			name: "delete: invalid id", method: http.MethodDelete, path: "/api/events/abc", token: token,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "invalid id"}),
		},
		{
			name: "list: ordering", path: "/api/events?ordering=title", wantCode: http.StatusOK,
			wantData: marchallList(t,
				event.Event{ID: 3},
				event.Event{ID: 2, Title: "Wind", Date: "March 15, 2026", Time: "10:00 AM", Location: "Batna",
					Image: "https://example.com/e.png", Description: "Renewable energy day", Status: "Postponed"},
			),
		},
		{
			name: "list: forbidden ordering", path: "/api/events?ordering=-description", wantCode: http.StatusBadRequest,
			wantData: []byte(`{"ordering": "cannot order by \"description\""}`),
		},
		{name: "trailing slash", path: "/api/events/", wantCode: http.StatusOK},
	}
	runHTTPTests(t, app, tests)
}

func Test_resourceApi_team(t *testing.T) {
	app := setup(t)
	token := app.login(t)

	leader := member.Member{
		ID: 1, Name: "Amina", Role: "President", Image: "a.png", Type: member.TypeLeader,
		Bio: null.StringFrom("Energy student"), LinkedIn: null.StringFrom("https://linkedin.com/in/amina"),
		Mail: null.StringFrom("amina@erise.dz"), GitHub: null.StringFrom(""),
	}
	mbr := member.Member{ID: 2, Name: "Yacine", Role: "Member", Image: "y.png", Type: member.TypeMember}

	tests := []httpTest{
		{name: "empty list", path: "/api/team", wantCode: http.StatusOK, wantData: marchallList(t)},
		{
			name: "create leader", method: http.MethodPost, path: "/api/team", token: token,
			body: []byte(`{"name":"Amina","role":"President","image":"a.png","type":"leader","bio":"Energy student",
				"linkedin":"https://linkedin.com/in/amina","mail":"amina@erise.dz","github":""}`),
			wantCode: http.StatusOK, wantData: []byte(`{"id": 1}`),
		},
		{
			name: "create member without optional fields", method: http.MethodPost, path: "/api/team", token: token,
			body:     []byte(`{"name":"Yacine","role":"Member","image":"y.png","type":"member","bio":null}`),
			wantCode: http.StatusOK, wantData: []byte(`{"id": 2}`),
		},
		{
			name: "create: missing type", method: http.MethodPost, path: "/api/team", token: token,
			body:     []byte(`{"name":"Nour","role":"Member","image":"n.png"}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"type": "this field is required"}`),
		},
		{name: "list: insertion order", path: "/api/team", wantCode: http.StatusOK, wantData: marchallList(t, leader, mbr)},
		{name: "delete", method: http.MethodDelete, path: "/api/team/1", token: token, wantCode: http.StatusOK, wantData: marchallObj(t, success)},
		{name: "list after delete", path: "/api/team", wantCode: http.StatusOK, wantData: marchallList(t, mbr)},
	}
	runHTTPTests(t, app, tests)

	t.Run("absent optional fields are null", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/api/team")
		app.ServeHTTP(rec, req)
		assert.JSONEq(t, `[{"id":2,"name":"Yacine","role":"Member","image":"y.png","bio":null,"linkedin":null,
			"mail":null,"github":null,"type":"member"}]`, rec.Body.String())
	})
}

func Test_resourceApi_achievements(t *testing.T) {
	app := setup(t)
	token := app.login(t)

	create := func(title, year string) achievement.Achievement {
		a := achievement.Achievement{Title: title, Year: year, Category: "Competition", Image: "", Description: "", Icon: achievement.IconTrophy}
		a.ID = testutil.CreateRow(t, app.awards, map[string]interface{}{
			"title": a.Title, "year": a.Year, "category": a.Category, "image": a.Image, "description": a.Description, "icon": a.Icon,
		})
		return a
	}
	a2023 := create("Hackathon", "2023")
	a2025 := create("Green Award", "2025")
	a2024 := create("Solar Cup", "2024")

	tests := []httpTest{
		{name: "list: most recent year first", path: "/api/achievements", wantCode: http.StatusOK, wantData: marchallList(t, a2025, a2024, a2023)},
		{
			name: "create", method: http.MethodPost, path: "/api/achievements", token: token,
			body: []byte(`{"title":"Eco Prize","year":"2026","category":"Award","image":"","description":"","icon":"Star"}`),
			wantCode: http.StatusOK, wantData: []byte(`{"id": 4}`),
		},
		{
			name: "create: missing icon", method: http.MethodPost, path: "/api/achievements", token: token,
			body:     []byte(`{"title":"Eco Prize","year":"2026","category":"Award","image":"","description":""}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"icon": "this field is required"}`),
		},
		{name: "delete", method: http.MethodDelete, path: "/api/achievements/1", token: token, wantCode: http.StatusOK, wantData: marchallObj(t, success)},
		{name: "unknown resource", path: "/api/sponsors", wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "Not Found"})},
	}
	runHTTPTests(t, app, tests)

	rows, err := app.awards.QueryAll(context.Background(), achievement.Schema.Ordering)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "2026", rows[0].Year)
}
