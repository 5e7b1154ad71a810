// Package directory fetches the employee directory from the identity
// provider's graph API. It mirrors, it does not manage: every call is
// read-only and the result feeds the hierarchy builder.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/dbauto/orgchart/pkg/cache"
	"github.com/dbauto/orgchart/pkg/errors"
	"github.com/dbauto/orgchart/pkg/org"
)

const (
	defaultBaseURL = "https://graph.microsoft.com/v1.0"
	defaultScope   = "https://graph.microsoft.com/.default"
	httpTimeout    = 30 * time.Second
	pageSize       = 999
)

// userSelectFields are the directory fields requested per user. Keeping
// the selection explicit keeps page payloads small and the mapping code
// honest about what it can rely on.
var userSelectFields = []string{
	"id", "displayName", "jobTitle", "department", "mail",
	"mobilePhone", "businessPhones", "officeLocation", "city", "state",
	"country", "employeeHireDate", "accountEnabled", "userType",
	"signInActivity", "assignedLicenses",
}

// Config holds the client-credentials grant parameters. TokenURL is
// derived from TenantID when empty.
type Config struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	BaseURL      string
	TokenURL     string
}

func (c Config) tokenURL() string {
	if c.TokenURL != "" {
		return c.TokenURL
	}
	return fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", c.TenantID)
}

// Client talks to the graph API with an app-only token. The underlying
// oauth2 transport refreshes tokens transparently; callers just make
// requests.
type Client struct {
	http    *http.Client
	baseURL string
}

// NewClient builds a client from the app registration. No network call
// happens here; the first request fetches the first token.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New(errors.ErrCodeUnauthorized, "client id and secret are required")
	}
	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.tokenURL(),
		Scopes:       []string{defaultScope},
	}
	httpClient := cc.Client(ctx)
	httpClient.Timeout = httpTimeout

	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	return &Client{http: httpClient, baseURL: strings.TrimRight(base, "/")}, nil
}

// graphUser is the wire shape of one /users entry.
type graphUser struct {
	ID               string   `json:"id"`
	DisplayName      string   `json:"displayName"`
	JobTitle         string   `json:"jobTitle"`
	Department       string   `json:"department"`
	Mail             string   `json:"mail"`
	MobilePhone      string   `json:"mobilePhone"`
	BusinessPhones   []string `json:"businessPhones"`
	OfficeLocation   string   `json:"officeLocation"`
	City             string   `json:"city"`
	State            string   `json:"state"`
	Country          string   `json:"country"`
	EmployeeHireDate string   `json:"employeeHireDate"`
	AccountEnabled   bool     `json:"accountEnabled"`
	UserType         string   `json:"userType"`
	SignInActivity   *struct {
		LastSignInDateTime string `json:"lastSignInDateTime"`
	} `json:"signInActivity"`
	AssignedLicenses []struct {
		SkuID string `json:"skuId"`
	} `json:"assignedLicenses"`
	Manager *struct {
		ID string `json:"id"`
	} `json:"manager"`
}

type userPage struct {
	Value    []graphUser `json:"value"`
	NextLink string      `json:"@odata.nextLink"`
}

// Users fetches the full directory, following pagination until exhausted.
// Manager links are expanded inline so no per-user follow-up call is
// needed.
func (c *Client) Users(ctx context.Context) ([]org.Employee, error) {
	q := url.Values{}
	q.Set("$select", strings.Join(userSelectFields, ","))
	q.Set("$expand", "manager($select=id)")
	q.Set("$top", fmt.Sprint(pageSize))
	next := c.baseURL + "/users?" + q.Encode()

	var employees []org.Employee
	for next != "" {
		var page userPage
		if err := c.get(ctx, next, &page); err != nil {
			return nil, err
		}
		for _, u := range page.Value {
			employees = append(employees, mapUser(u))
		}
		next = page.NextLink
	}
	return employees, nil
}

// Photo fetches a user's profile photo. Absent photos are reported with
// code NOT_FOUND so callers can fall back to initials without logging an
// error.
func (c *Client) Photo(ctx context.Context, userID string) ([]byte, error) {
	u := fmt.Sprintf("%s/users/%s/photo/$value", c.baseURL, url.PathEscape(userID))

	var photo []byte
	err := cache.RetryWithBackoff(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return cache.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "fetch photo"))
		}
		defer resp.Body.Close()
		if err := checkStatus(resp); err != nil {
			return err
		}
		photo, err = io.ReadAll(resp.Body)
		return err
	})
	return photo, err
}

// HasPhoto asks the photo metadata endpoint whether a photo exists.
// A missing photo is a normal answer, not an error.
func (c *Client) HasPhoto(ctx context.Context, userID string) (bool, error) {
	u := fmt.Sprintf("%s/users/%s/photo", c.baseURL, url.PathEscape(userID))

	var meta struct {
		ID string `json:"id"`
	}
	err := c.get(ctx, u, &meta)
	if err == nil {
		return true, nil
	}
	if errors.GetCode(err) == errors.ErrCodeNotFound {
		return false, nil
	}
	return false, err
}

func (c *Client) get(ctx context.Context, url string, v any) error {
	return cache.RetryWithBackoff(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("ConsistencyLevel", "eventual")

		resp, err := c.http.Do(req)
		if err != nil {
			return cache.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "fetch %s", url))
		}
		defer resp.Body.Close()

		if err := checkStatus(resp); err != nil {
			return err
		}
		return json.NewDecoder(resp.Body).Decode(v)
	})
}

func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "resource not found")
	case resp.StatusCode == http.StatusUnauthorized:
		return errors.New(errors.ErrCodeUnauthorized, "token rejected")
	case resp.StatusCode == http.StatusForbidden:
		return errors.New(errors.ErrCodeForbidden, "missing directory read permission")
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		return cache.Retryable(&errors.RateLimitedError{RetryAfter: retryAfter})
	case resp.StatusCode >= 500:
		return cache.Retryable(errors.New(errors.ErrCodeNetwork, "status %d", resp.StatusCode))
	default:
		return errors.New(errors.ErrCodeNetwork, "status %d", resp.StatusCode)
	}
}

func parseRetryAfter(s string) int {
	if s == "" {
		return 0
	}
	var secs int
	if _, err := fmt.Sscanf(s, "%d", &secs); err != nil {
		return 0
	}
	return secs
}

func mapUser(u graphUser) org.Employee {
	e := org.Employee{
		ID:             u.ID,
		Name:           u.DisplayName,
		Title:          u.JobTitle,
		Department:     u.Department,
		Email:          u.Mail,
		Phone:          u.MobilePhone,
		Location:       u.OfficeLocation,
		City:           u.City,
		State:          u.State,
		Country:        u.Country,
		HireDate:       u.EmployeeHireDate,
		AccountEnabled: u.AccountEnabled,
		UserType:       u.UserType,
		LicenseCount:   len(u.AssignedLicenses),
	}
	if len(u.BusinessPhones) > 0 {
		e.BusinessPhone = u.BusinessPhones[0]
	}
	if u.SignInActivity != nil {
		e.LastSignIn = u.SignInActivity.LastSignInDateTime
	}
	for _, l := range u.AssignedLicenses {
		e.LicenseSkus = append(e.LicenseSkus, l.SkuID)
	}
	if u.Manager != nil {
		e.ManagerID = u.Manager.ID
	}
	return e
}
