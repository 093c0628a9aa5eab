package wager

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/BrandishRaffle_Go/internal/domain"
)

func TestParseEntries(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []domain.WagerEntry
	}{
		{
			name: "snake case array",
			body: `[{"username":"Alice","campaign_code":"BRANDISH","wager_amount":832.31}]`,
			want: []domain.WagerEntry{{Username: "Alice", CampaignCode: "BRANDISH", WagerAmount: decimal.RequireFromString("832.31")}},
		},
		{
			name: "camel case with numeric string",
			body: `[{"username":"bob","campaignCode":"b2","wagerAmount":"1500.50"}]`,
			want: []domain.WagerEntry{{Username: "bob", CampaignCode: "b2", WagerAmount: decimal.RequireFromString("1500.50")}},
		},
		{
			name: "wrapped in data",
			body: `{"data":[{"user_name":"carol","campaign_code":"x","wager_amount":10}]}`,
			want: []domain.WagerEntry{{Username: "carol", CampaignCode: "x", WagerAmount: decimal.NewFromInt(10)}},
		},
		{
			name: "missing amount reads as zero",
			body: `[{"username":"dave","campaign_code":"x"}]`,
			want: []domain.WagerEntry{{Username: "dave", CampaignCode: "x", WagerAmount: decimal.Zero}},
		},
		{
			name: "drops entries without username or with bad amounts",
			body: `[{"campaign_code":"x","wager_amount":5},{"username":"e","wager_amount":"abc"},{"username":"f","wager_amount":-3}]`,
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEntries([]byte(tt.body))
			require.NoError(t, err)
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.Equal(t, tt.want[i].Username, got[i].Username)
				assert.Equal(t, tt.want[i].CampaignCode, got[i].CampaignCode)
				assert.True(t, tt.want[i].WagerAmount.Equal(got[i].WagerAmount), "amount %s != %s", got[i].WagerAmount, tt.want[i].WagerAmount)
			}
		})
	}
}

func TestParseEntries_Invalid(t *testing.T) {
	_, err := ParseEntries([]byte(`not json`))
	assert.ErrorIs(t, err, domain.ErrAffiliateFetch)

	_, err = ParseEntries([]byte(`{"message":"ok"}`))
	assert.ErrorIs(t, err, domain.ErrAffiliateFetch)
}

func TestAffiliateClient_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"username":"alice","campaign_code":"c","wager_amount":"12.5"}]}`))
	}))
	defer srv.Close()

	client := NewAffiliateClient(time.Second, 100)
	entries, err := client.Fetch(context.Background(), srv.URL+"/leaderboard")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "alice", entries[0].Username)
	assert.Equal(t, "12.5", entries[0].WagerAmount.String())
}

func TestAffiliateClient_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewAffiliateClient(time.Second, 100).Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, domain.ErrAffiliateFetch)
}

func TestAffiliateClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewAffiliateClient(5*time.Second, 100).Fetch(ctx, srv.URL)
	assert.ErrorIs(t, err, domain.ErrAffiliateFetch)
}

func TestAffiliateClient_InvalidEndpoint(t *testing.T) {
	_, err := NewAffiliateClient(time.Second, 1).Fetch(context.Background(), "not a url")
	assert.ErrorIs(t, err, domain.ErrAffiliateFetch)
}
