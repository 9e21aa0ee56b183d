package hds

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyentranbao-ct/hds-chat/internal/models"
)

func TestBuildAndParseAPIEndpoint(t *testing.T) {
	ep, err := BuildAPIEndpoint("https://{username}.example.com/", "alice", "tok123")
	require.NoError(t, err)
	assert.Equal(t, "https://tok123@alice.example.com/", ep)

	base, token, err := ParseAPIEndpoint(ep)
	require.NoError(t, err)
	assert.Equal(t, "https://alice.example.com/", base)
	assert.Equal(t, "tok123", token)

	ep, err = BuildAPIEndpoint("https://reg.example.com/{username}", "bob", "t")
	require.NoError(t, err)
	assert.Equal(t, "https://t@reg.example.com/bob/", ep)

	_, err = BuildAPIEndpoint("not a url", "bob", "t")
	assert.Error(t, err)
	_, _, err = ParseAPIEndpoint("/relative")
	assert.Error(t, err)
}

func TestFindAvailableCore(t *testing.T) {
	body := `{"regions":{"europe":{"zones":{"france":{"hostings":{
		"a":{"available":false,"availableCore":"https://down.example.com/"},
		"b":{"available":true,"availableCore":"https://co1.example.com/"}}}}}}}`
	core, ok := findAvailableCore([]byte(body))
	assert.True(t, ok)
	assert.Equal(t, "https://co1.example.com/", core)

	_, ok = findAvailableCore([]byte(`{"regions":{"europe":{"zones":{"france":{"hostings":{"a":{"available":false}}}}}}}`))
	assert.False(t, ok)

	_, ok = findAvailableCore([]byte(`[]`))
	assert.False(t, ok)
}

type fakePlatform struct {
	*httptest.Server
	lastCreateUser map[string]any
	batches        int
}

func newFakePlatform(t *testing.T, hostings string) *fakePlatform {
	p := &fakePlatform{}
	mux := http.NewServeMux()
	mux.HandleFunc("/service/info", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"register":"`+p.URL+`/reg/","api":"`+p.URL+`/{username}/","name":"test"}`)
	})
	mux.HandleFunc("/alice/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body loginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body.Password != "secret1" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error":{"id":"invalid-credentials","message":"bad"}}`)
			return
		}
		_, _ = io.WriteString(w, `{"token":"tok"}`)
	})
	mux.HandleFunc("/reg/hostings", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, strings.ReplaceAll(hostings, "CORE", p.URL+"/core"))
	})
	mux.HandleFunc("/core/users", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p.lastCreateUser))
		ep, _ := BuildAPIEndpoint(p.URL+"/{username}/", p.lastCreateUser["username"].(string), "newtok")
		_, _ = io.WriteString(w, `{"username":"bob","apiEndpoint":"`+ep+`"}`)
	})
	mux.HandleFunc("/alice/access-info", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "tok" {
			w.WriteHeader(http.StatusForbidden)
			_, _ = io.WriteString(w, `{"error":{"id":"invalid-access-token","message":"nope"}}`)
			return
		}
		_, _ = io.WriteString(w, `{"id":"a1","type":"personal","name":"web","user":{"username":"alice"}}`)
	})
	mux.HandleFunc("/alice/", func(w http.ResponseWriter, r *http.Request) {
		p.batches++
		var calls []Call
		require.NoError(t, json.NewDecoder(r.Body).Decode(&calls))
		results := make([]string, 0, len(calls))
		for _, c := range calls {
			switch c.Method {
			case "accesses.get":
				results = append(results, `{"accesses":[{"id":"c1","name":"Doctor","type":"shared","permissions":[{"streamId":"*","level":"read"}]}]}`)
			case "events.get":
				results = append(results, `{"events":[{"id":"e1","streamIds":["diary"],"type":"note/txt","content":"hi","time":1}],"eventDeletions":[{"id":"e0","deleted":2}]}`)
			case "events.create":
				results = append(results, `{"event":{"id":"e2","streamIds":["chat"],"type":"message/hds-chat-v1","time":3}}`)
			default:
				results = append(results, `{"error":{"id":"unknown-method","message":"`+c.Method+`"}}`)
			}
		}
		_, _ = io.WriteString(w, `{"results":[`+strings.Join(results, ",")+`]}`)
	})
	p.Server = httptest.NewServer(mux)
	t.Cleanup(p.Close)
	return p
}

func newTestClient(p *fakePlatform) *Client {
	return NewClient(Options{ServiceInfoURL: p.URL + "/service/info", AppID: "hds-chat-test"})
}

func TestLoginAndBatch(t *testing.T) {
	ctx := context.Background()
	p := newFakePlatform(t, `{}`)
	c := newTestClient(p)

	_, err := c.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, models.ErrAuthentication)

	conn, err := c.Login(ctx, "alice", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "tok", conn.Token())
	assert.Equal(t, p.URL+"/alice/", conn.Base())

	info, err := conn.AccessInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", info.Username)

	accesses, err := conn.GetAccesses(ctx)
	require.NoError(t, err)
	require.Len(t, accesses, 1)
	assert.Equal(t, "Doctor", accesses[0].Name)

	res, err := conn.GetEvents(ctx, EventsQuery{IncludeDeletions: true})
	require.NoError(t, err)
	assert.Len(t, res.Events, 1)
	assert.Equal(t, "e0", res.Deletions[0].ID)

	ev, err := conn.CreateEvent(ctx, models.EventInput{StreamIDs: []string{"chat"}, Type: models.ChatMessageEventType})
	require.NoError(t, err)
	assert.Equal(t, "e2", ev.ID)

	_, errs, err := conn.Batch(ctx, []Call{{Method: "streams.get"}})
	require.NoError(t, err)
	var apiErr *APIError
	require.ErrorAs(t, errs[0], &apiErr)
	assert.Equal(t, "unknown-method", apiErr.ID)
}

func TestAccessInfoRejectsBadToken(t *testing.T) {
	p := newFakePlatform(t, `{}`)
	c := newTestClient(p)
	ep, err := BuildAPIEndpoint(p.URL+"/{username}/", "alice", "expired")
	require.NoError(t, err)
	conn, err := c.Open(ep)
	require.NoError(t, err)

	_, err = conn.AccessInfo(context.Background())
	assert.ErrorIs(t, err, models.ErrAuthentication)

	_, err = c.Open(p.URL + "/alice/")
	assert.ErrorIs(t, err, models.ErrAuthentication)
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	p := newFakePlatform(t, `{"regions":{"eu":{"zones":{"ch":{"hostings":{"h1":{"available":true,"availableCore":"CORE"}}}}}}}`)
	c := newTestClient(p)

	conn, err := c.Register(ctx, "bob@example.com", "bob", "pw")
	require.NoError(t, err)
	assert.Equal(t, "newtok", conn.Token())
	assert.Equal(t, "enjoy", p.lastCreateUser["invitationtoken"])
	assert.Equal(t, "none", p.lastCreateUser["referer"])
	assert.Equal(t, "en", p.lastCreateUser["languageCode"])
	assert.Equal(t, "hds-chat-test", p.lastCreateUser["appId"])
}

func TestRegisterWithoutHosting(t *testing.T) {
	p := newFakePlatform(t, `{"regions":{}}`)
	c := newTestClient(p)
	_, err := c.Register(context.Background(), "bob@example.com", "bob", "pw")
	assert.ErrorIs(t, err, models.ErrConfiguration)
}
