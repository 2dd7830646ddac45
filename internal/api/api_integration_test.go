// internal/api/api_integration_test.go
package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app "minivenmo/internal"
)

// testApp is the global application instance for testing.
var testApp *app.Application

// testServer is the httptest server.
var testServer *httptest.Server

// TestMain is the special entry point for Go tests, executed once before all tests.
func TestMain(m *testing.M) {
	// The registry lives in process memory, so tests share one application
	// instance and keep their usernames distinct instead of cleaning up.
	if os.Getenv("LOG_LEVEL") == "" {
		os.Setenv("LOG_LEVEL", "error")
	}

	testApp = app.NewApplication()
	if err := testApp.Initialize(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize test application: %v\n", err)
		os.Exit(1)
	}

	testServer = httptest.NewServer(testApp.HTTPHandler)
	defer testServer.Close()

	code := m.Run()

	if err := testApp.Shutdown(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to shutdown test application: %v\n", err)
		os.Exit(1)
	}

	os.Exit(code)
}

// userResponse mirrors the user snapshot returned by the API.
type userResponse struct {
	ID               uuid.UUID       `json:"id"`
	Username         string          `json:"username"`
	Balance          decimal.Decimal `json:"balance"`
	CreditCardNumber string          `json:"credit_card_number"`
	Friends          []uuid.UUID     `json:"friends"`
}

// feedResponse mirrors the paginated feed payload.
type feedResponse struct {
	Data       []string `json:"data"`
	Limit      int      `json:"limit"`
	Offset     int      `json:"offset"`
	TotalCount int64    `json:"total_count"`
}

// makeRequest helper function: sends an HTTP request to the test server.
func makeRequest(t *testing.T, method, path string, body io.Reader) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, testServer.URL+path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	return resp, string(respBody)
}

// createTestUser helper function: creates a user through the API factory path.
func createTestUser(t *testing.T, username string, balance float64, card string) userResponse {
	t.Helper()
	payload := fmt.Sprintf(`{"username": %q, "balance": %v, "credit_card_number": %q}`, username, balance, card)
	resp, body := makeRequest(t, http.MethodPost, "/users", strings.NewReader(payload))
	require.Equal(t, http.StatusCreated, resp.StatusCode, "create user failed: %s", body)

	var user userResponse
	require.NoError(t, json.Unmarshal([]byte(body), &user))
	return user
}

// getUser helper function: fetches a user snapshot.
func getUser(t *testing.T, id uuid.UUID) userResponse {
	t.Helper()
	resp, body := makeRequest(t, http.MethodGet, "/users/"+id.String(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, "get user failed: %s", body)

	var user userResponse
	require.NoError(t, json.Unmarshal([]byte(body), &user))
	return user
}

func TestHealthIntegration(t *testing.T) {
	resp, body := makeRequest(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", body)
}

func TestCreateUserIntegration(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// The factory path accepts a card number outside the allow-list.
		user := createTestUser(t, "CreateOk", 100.5, "4111111111111119")
		assert.Equal(t, "CreateOk", user.Username)
		assert.True(t, user.Balance.Equal(decimal.NewFromFloat(100.5)))
		assert.Equal(t, "4111111111111119", user.CreditCardNumber)
		assert.NotEqual(t, uuid.Nil, user.ID)
	})

	t.Run("InvalidUsername", func(t *testing.T) {
		resp, body := makeRequest(t, http.MethodPost, "/users",
			strings.NewReader(`{"username": "a!", "balance": 0, "credit_card_number": ""}`))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body, "username not valid")
	})

	t.Run("DuplicateUsername", func(t *testing.T) {
		createTestUser(t, "DupUser", 0, "")
		resp, body := makeRequest(t, http.MethodPost, "/users",
			strings.NewReader(`{"username": "DupUser", "balance": 0, "credit_card_number": ""}`))
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Contains(t, body, "Username already taken")
	})

	t.Run("MalformedBody", func(t *testing.T) {
		resp, _ := makeRequest(t, http.MethodPost, "/users", strings.NewReader(`{`))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestListUsersIntegration(t *testing.T) {
	alice := createTestUser(t, "ListAlice", 10, "")
	bob := createTestUser(t, "ListBob", 20, "")

	resp, body := makeRequest(t, http.MethodGet, "/users", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var listing struct {
		Data []userResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &listing))

	// The registry is shared across tests, so check for presence and
	// relative creation order rather than exact contents.
	indexOf := func(id uuid.UUID) int {
		for i, u := range listing.Data {
			if u.ID == id {
				return i
			}
		}
		return -1
	}
	aliceIdx, bobIdx := indexOf(alice.ID), indexOf(bob.ID)
	require.GreaterOrEqual(t, aliceIdx, 0)
	require.GreaterOrEqual(t, bobIdx, 0)
	assert.Less(t, aliceIdx, bobIdx, "listing must preserve creation order")
	assert.Equal(t, "ListAlice", listing.Data[aliceIdx].Username)
}

func TestPayIntegration(t *testing.T) {
	t.Run("BalanceRouted", func(t *testing.T) {
		alice := createTestUser(t, "PayAliceA", 100, "4111111111111119")
		bob := createTestUser(t, "PayBobA", 200, "")

		payload := fmt.Sprintf(`{"target_id": %q, "amount": 50.1, "note": "rent"}`, bob.ID)
		resp, body := makeRequest(t, http.MethodPost, "/users/"+alice.ID.String()+"/payments", strings.NewReader(payload))
		require.Equal(t, http.StatusOK, resp.StatusCode, body)

		assert.True(t, getUser(t, alice.ID).Balance.Equal(decimal.NewFromFloat(49.9)))
		assert.True(t, getUser(t, bob.ID).Balance.Equal(decimal.NewFromFloat(250.1)))
	})

	t.Run("CardRouted", func(t *testing.T) {
		alice := createTestUser(t, "PayAliceB", 100, "4111111111111119")
		bob := createTestUser(t, "PayBobB", 200, "")

		payload := fmt.Sprintf(`{"target_id": %q, "amount": 105, "note": "rent"}`, bob.ID)
		resp, body := makeRequest(t, http.MethodPost, "/users/"+alice.ID.String()+"/payments", strings.NewReader(payload))
		require.Equal(t, http.StatusOK, resp.StatusCode, body)

		assert.True(t, getUser(t, alice.ID).Balance.Equal(decimal.NewFromInt(100)), "card path leaves payer balance untouched")
		assert.True(t, getUser(t, bob.ID).Balance.Equal(decimal.NewFromInt(305)))
	})

	t.Run("CardPathWithoutCard", func(t *testing.T) {
		alice := createTestUser(t, "PayAliceC", 10, "")
		bob := createTestUser(t, "PayBobC", 0, "")

		payload := fmt.Sprintf(`{"target_id": %q, "amount": 50, "note": "lunch"}`, bob.ID)
		resp, body := makeRequest(t, http.MethodPost, "/users/"+alice.ID.String()+"/payments", strings.NewReader(payload))
		assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
		assert.Contains(t, body, "must have a credit card")

		assert.True(t, getUser(t, alice.ID).Balance.Equal(decimal.NewFromInt(10)), "failed payment must not move money")
	})

	t.Run("SelfPaymentViaCard", func(t *testing.T) {
		alice := createTestUser(t, "PayAliceD", 10, "4111111111111119")

		payload := fmt.Sprintf(`{"target_id": %q, "amount": 50, "note": "self"}`, alice.ID)
		resp, body := makeRequest(t, http.MethodPost, "/users/"+alice.ID.String()+"/payments", strings.NewReader(payload))
		assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
		assert.Contains(t, body, "cannot pay themselves")
	})

	t.Run("UnknownTarget", func(t *testing.T) {
		alice := createTestUser(t, "PayAliceE", 10, "")

		payload := fmt.Sprintf(`{"target_id": %q, "amount": 5, "note": ""}`, uuid.New())
		resp, _ := makeRequest(t, http.MethodPost, "/users/"+alice.ID.String()+"/payments", strings.NewReader(payload))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestFeedIntegration(t *testing.T) {
	alice := createTestUser(t, "FeedAlice", 100, "4111111111111119")
	bobby := createTestUser(t, "FeedBobby", 200, "4999999999999999")

	payload := fmt.Sprintf(`{"target_id": %q, "amount": 20, "note": "Coffee"}`, bobby.ID)
	resp, body := makeRequest(t, http.MethodPost, "/users/"+alice.ID.String()+"/payments", strings.NewReader(payload))
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	payload = fmt.Sprintf(`{"target_id": %q, "amount": 30, "note": "Sandwich"}`, alice.ID)
	resp, body = makeRequest(t, http.MethodPost, "/users/"+bobby.ID.String()+"/payments", strings.NewReader(payload))
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	t.Run("InsertionOrder", func(t *testing.T) {
		resp, body := makeRequest(t, http.MethodGet, "/users/"+alice.ID.String()+"/feed", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var feed feedResponse
		require.NoError(t, json.Unmarshal([]byte(body), &feed))
		assert.Equal(t, []string{
			"FeedAlice paid FeedBobby $20.00 for Coffee",
			"FeedBobby paid FeedAlice $30.00 for Sandwich",
		}, feed.Data)
		assert.Equal(t, int64(2), feed.TotalCount)
	})

	t.Run("Pagination", func(t *testing.T) {
		resp, body := makeRequest(t, http.MethodGet, "/users/"+alice.ID.String()+"/feed?limit=1&offset=1", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var feed feedResponse
		require.NoError(t, json.Unmarshal([]byte(body), &feed))
		assert.Equal(t, []string{"FeedBobby paid FeedAlice $30.00 for Sandwich"}, feed.Data)
		assert.Equal(t, int64(2), feed.TotalCount)
		assert.Equal(t, 1, feed.Limit)
		assert.Equal(t, 1, feed.Offset)
	})
}

func TestAddCreditCardIntegration(t *testing.T) {
	t.Run("AllowListedNumber", func(t *testing.T) {
		alice := createTestUser(t, "CardAliceA", 0, "")

		resp, body := makeRequest(t, http.MethodPost, "/users/"+alice.ID.String()+"/card",
			strings.NewReader(`{"credit_card_number": "4242424242424242"}`))
		require.Equal(t, http.StatusOK, resp.StatusCode, body)

		assert.Equal(t, "4242424242424242", getUser(t, alice.ID).CreditCardNumber)
	})

	t.Run("RejectedNumber", func(t *testing.T) {
		alice := createTestUser(t, "CardAliceB", 0, "")

		resp, body := makeRequest(t, http.MethodPost, "/users/"+alice.ID.String()+"/card",
			strings.NewReader(`{"credit_card_number": "1234"}`))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body, "invalid credit card number")
	})

	t.Run("SecondCardRejected", func(t *testing.T) {
		alice := createTestUser(t, "CardAliceC", 0, "4111111111111111")

		resp, body := makeRequest(t, http.MethodPost, "/users/"+alice.ID.String()+"/card",
			strings.NewReader(`{"credit_card_number": "4242424242424242"}`))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body, "only one credit card per user")
	})
}

func TestAddFriendIntegration(t *testing.T) {
	alice := createTestUser(t, "FriendAlice", 0, "")
	bob := createTestUser(t, "FriendBob", 0, "")

	payload := fmt.Sprintf(`{"friend_id": %q}`, bob.ID)
	resp, body := makeRequest(t, http.MethodPost, "/users/"+alice.ID.String()+"/friends", strings.NewReader(payload))
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	// One-directional: only alice's friend set gains an entry.
	assert.Equal(t, []uuid.UUID{bob.ID}, getUser(t, alice.ID).Friends)
	assert.Empty(t, getUser(t, bob.ID).Friends)

	// Both feeds record the addition.
	resp, body = makeRequest(t, http.MethodGet, "/users/"+bob.ID.String()+"/feed", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var feed feedResponse
	require.NoError(t, json.Unmarshal([]byte(body), &feed))
	assert.Equal(t, []string{"FriendAlice added FriendBob as friend"}, feed.Data)
}

func TestAddToBalanceIntegration(t *testing.T) {
	alice := createTestUser(t, "TopUpAlice", 10, "")

	resp, body := makeRequest(t, http.MethodPost, "/users/"+alice.ID.String()+"/balance",
		strings.NewReader(`{"amount": 15.5}`))
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	assert.True(t, getUser(t, alice.ID).Balance.Equal(decimal.NewFromFloat(25.5)))
}
