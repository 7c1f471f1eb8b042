package brave

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDiscoverEncodesQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "rust & go" {
			t.Errorf("q = %q", got)
		}
		if r.URL.Query().Get("count") != "1" || r.Header.Get("X-Subscription-Token") != "key" {
			t.Errorf("unexpected request %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"web":{"results":[{"title":"A","url":"https://a","description":"d"},{"title":"B","url":"https://b"}]}}`))
	}))
	defer srv.Close()
	old := endpoint
	endpoint = srv.URL
	defer func() { endpoint = old }()

	res, err := Search{APIKey: "key", Client: srv.Client()}.Discover(context.Background(), "rust & go", 1)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(res) != 1 || res[0].Snippet != "d" {
		t.Fatalf("unexpected results %+v", res)
	}
}
