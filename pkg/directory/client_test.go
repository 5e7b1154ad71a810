package directory

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbauto/orgchart/pkg/errors"
)

func newTestClient(t *testing.T, api *httptest.Server) *Client {
	t.Helper()
	token := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"test-token","token_type":"Bearer","expires_in":3600}`)
	}))
	t.Cleanup(token.Close)

	c, err := NewClient(context.Background(), Config{
		TenantID:     "tenant",
		ClientID:     "app",
		ClientSecret: "secret",
		BaseURL:      api.URL,
		TokenURL:     token.URL,
	})
	require.NoError(t, err)
	return c
}

func TestUsersPaginationAndMapping(t *testing.T) {
	var api *httptest.Server
	api = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")

		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, `{"value":[
				{"id":"u2","displayName":"Blake Reyes","accountEnabled":true,
				 "manager":{"id":"u1"},
				 "assignedLicenses":[{"skuId":"E3"},{"skuId":"Visio"}],
				 "signInActivity":{"lastSignInDateTime":"2026-08-01T09:00:00Z"}}
			]}`)
			return
		}
		fmt.Fprintf(w, `{"value":[
			{"id":"u1","displayName":"Avery Quinn","jobTitle":"CEO",
			 "department":"Exec","mail":"avery@example.com",
			 "businessPhones":["+1 555 0100"],"city":"Berlin",
			 "employeeHireDate":"2020-01-15T00:00:00Z","accountEnabled":true,
			 "userType":"Member"}
		],"@odata.nextLink":%q}`, api.URL+"/users?page=2")
	}))
	defer api.Close()

	c := newTestClient(t, api)
	users, err := c.Users(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)

	avery := users[0]
	assert.Equal(t, "u1", avery.ID)
	assert.Equal(t, "Avery Quinn", avery.Name)
	assert.Equal(t, "CEO", avery.Title)
	assert.Equal(t, "avery@example.com", avery.Email)
	assert.Equal(t, "+1 555 0100", avery.BusinessPhone)
	assert.Equal(t, "Berlin", avery.City)
	assert.Empty(t, avery.ManagerID)

	blake := users[1]
	assert.Equal(t, "u1", blake.ManagerID)
	assert.Equal(t, 2, blake.LicenseCount)
	assert.Equal(t, []string{"E3", "Visio"}, blake.LicenseSkus)
	assert.Equal(t, "2026-08-01T09:00:00Z", blake.LastSignIn)
}

func TestUsersRetriesServerErrors(t *testing.T) {
	calls := 0
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"value":[{"id":"u1","displayName":"Solo","accountEnabled":true}]}`)
	}))
	defer api.Close()

	c := newTestClient(t, api)
	users, err := c.Users(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 2, calls)
}

func TestUsersForbiddenFailsFast(t *testing.T) {
	calls := 0
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer api.Close()

	c := newTestClient(t, api)
	_, err := c.Users(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeForbidden, errors.GetCode(err))
	assert.Equal(t, 1, calls, "permission errors must not retry")
}

func TestPhotoNotFound(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer api.Close()

	c := newTestClient(t, api)
	_, err := c.Photo(context.Background(), "u1")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeNotFound, errors.GetCode(err))
}

func TestPhoto(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/users/u1/photo")
		_, _ = w.Write([]byte("jpeg-bytes"))
	}))
	defer api.Close()

	c := newTestClient(t, api)
	photo, err := c.Photo(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), photo)
}

func TestHasPhoto(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/users/u1/photo" {
			fmt.Fprint(w, `{"id":"default","width":256,"height":256}`)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer api.Close()

	c := newTestClient(t, api)

	has, err := c.HasPhoto(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = c.HasPhoto(context.Background(), "u2")
	require.NoError(t, err, "a missing photo is an answer, not an error")
	assert.False(t, has)
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(context.Background(), Config{TenantID: "t"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeUnauthorized, errors.GetCode(err))
}
