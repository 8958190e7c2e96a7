package cmd

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_ClientSend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req submitRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		if req.To == 9 {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(errResponse{Error: "node 9: unknown receiver"})
			return
		}

		json.NewEncoder(w).Encode(status{Status: "transaction queued"})
	}))
	defer srv.Close()

	c := newClient(srv.URL)

	st, err := c.send(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Equal(t, "transaction queued", st)

	_, err = c.send(context.Background(), 9, 10)
	if err == nil || err.Error() != "node 9: unknown receiver" {
		t.Logf("got: %v", err)
		t.Logf("exp: %s", "node 9: unknown receiver")
		t.Fatalf("Should surface the node error message.")
	}
}

func Test_ClientBalance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/balance", r.URL.Path)
		json.NewEncoder(w).Encode(balance{ID: 2, PublicKey: "0xabc", Balance: 75})
	}))
	defer srv.Close()

	bal, err := newClient(srv.URL).balance(context.Background())
	require.NoError(t, err)
	require.Equal(t, balance{ID: 2, PublicKey: "0xabc", Balance: 75}, bal)
}

func Test_ParseID(t *testing.T) {
	tt := []struct {
		in  string
		exp int
		ok  bool
	}{
		{in: "3", exp: 3, ok: true},
		{in: "id3", exp: 3, ok: true},
		{in: "id", ok: false},
		{in: "-1", ok: false},
	}

	for _, tst := range tt {
		got, err := parseID(tst.in)
		if (err == nil) != tst.ok || got != tst.exp {
			t.Logf("got: %d %v", got, err)
			t.Logf("exp: %d ok[%v]", tst.exp, tst.ok)
			t.Fatalf("Should parse %q correctly.", tst.in)
		}
	}
}
