package api

import (
	"net/http"
	"testing"

	"dosh_badges/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferralRoutes_Register(t *testing.T) {
	tests := []struct {
		name           string
		badgeID        string
		body           any
		expectedStatus int
	}{
		{name: "New friend", badgeID: "10", body: service.Friend{UserID: "friend-new", Email: "new@example.com"}, expectedStatus: http.StatusCreated},
		{name: "Missing friend id", badgeID: "10", body: map[string]string{"email": "new@example.com"}, expectedStatus: http.StatusBadRequest},
		{name: "Malformed email", badgeID: "10", body: service.Friend{UserID: "friend-new", Email: "not-an-email"}, expectedStatus: http.StatusBadRequest},
		{name: "Blank friend id", badgeID: "10", body: service.Friend{UserID: "   "}, expectedStatus: http.StatusBadRequest},
		{name: "Not a referral badge", badgeID: "1", body: service.Friend{UserID: "friend-new"}, expectedStatus: http.StatusUnprocessableEntity},
		{name: "Unknown badge", badgeID: "missing", body: service.Friend{UserID: "friend-new"}, expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t)

			w := srv.do(t, http.MethodPost, "/users/current-user/referrals/"+tt.badgeID, tt.body)

			requireStatus(t, w, tt.expectedStatus)
		})
	}
}

func TestReferralRoutes_Flow(t *testing.T) {
	srv := newTestServer(t)
	base := "/users/current-user/referrals/10"

	w := srv.do(t, http.MethodGet, base, nil)
	requireStatus(t, w, http.StatusOK)
	view := decode[service.ReferralView](t, w)
	assert.Equal(t, 1, view.EffectiveReferrals)
	assert.Equal(t, 3, view.ReferralsRequired)

	w = srv.do(t, http.MethodPost, base, service.Friend{UserID: "friend-new"})
	requireStatus(t, w, http.StatusCreated)
	view = decode[service.ReferralView](t, w)
	assert.Equal(t, 1, view.EffectiveReferrals)

	w = srv.do(t, http.MethodPost, base, service.Friend{UserID: "friend-new"})
	requireStatus(t, w, http.StatusConflict)

	var referralID string
	for _, r := range view.Progress.Referrals {
		if r.ReferredUserID == "friend-new" {
			referralID = r.ID
		}
	}
	require.NotEmpty(t, referralID)

	w = srv.do(t, http.MethodPost, base+"/"+referralID+"/lessons", FriendLessonsRequest{CompletedLessons: intPtr(1)})
	requireStatus(t, w, http.StatusOK)
	view = decode[service.ReferralView](t, w)
	assert.Equal(t, 2, view.EffectiveReferrals)
	require.NotNil(t, view.Badge)
	require.NotNil(t, view.Badge.Badge.Progress)
	assert.Equal(t, 2, *view.Badge.Badge.Progress)

	w = srv.do(t, http.MethodPost, base+"/unknown/lessons", FriendLessonsRequest{CompletedLessons: intPtr(1)})
	requireStatus(t, w, http.StatusNotFound)

	w = srv.do(t, http.MethodPost, base+"/"+referralID+"/lessons", map[string]int{})
	requireStatus(t, w, http.StatusBadRequest)
}

func TestReferralRoutes_Share(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		expectedStatus int
		expectedName   string
	}{
		{name: "Without body", expectedStatus: http.StatusOK},
		{name: "With user name", body: ShareRequest{UserName: "Sam"}, expectedStatus: http.StatusOK, expectedName: "Sam"},
		{name: "Malformed body", body: "{", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t)

			w := srv.do(t, http.MethodPost, "/users/current-user/referrals/10/share", tt.body)
			requireStatus(t, w, tt.expectedStatus)
			if tt.expectedStatus != http.StatusOK {
				return
			}

			result := decode[service.ShareResult](t, w)
			assert.True(t, result.Shared)
			assert.Equal(t, "https://yourapp.com/signup?ref=ABC123DEF456", result.Link)
			assert.Contains(t, result.Text, result.Link)
			assert.Contains(t, result.Text, tt.expectedName)
		})
	}
}

func intPtr(v int) *int { return &v }
