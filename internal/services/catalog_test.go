package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JAGANADITHYA/walk1/internal/models"
	"github.com/JAGANADITHYA/walk1/internal/services"
)

func TestCatalogQuote(t *testing.T) {
	catalog := services.NewCatalog(0.7)

	tests := []struct {
		from, to   string
		ticketType models.TicketType
		stops      int
		total      string
		maxCoins   string
	}{
		{"Central Metro Station", "Medical Center", models.TicketTypeSingle, 7, "60.00", "42.00"},
		{"Medical Center", "Central Metro Station", models.TicketTypeSingle, 7, "60.00", "42.00"},
		{"Central Metro Station", "Medical Center", models.TicketTypeReturn, 7, "101.00", "70.70"},
		{"City Center", "Green Valley", models.TicketTypeDayPass, 10, "150.00", "105.00"},
		{"Old Town", "Marina Bay", models.TicketTypeSingle, 1, "30.00", "21.00"},
	}

	for _, tt := range tests {
		t.Run(tt.from+"/"+tt.to+"/"+string(tt.ticketType), func(t *testing.T) {
			quote, err := catalog.Quote(tt.from, tt.to, tt.ticketType)
			require.NoError(t, err)
			assert.Equal(t, tt.stops, quote.Stops)
			assert.Equal(t, tt.total, quote.TotalAmount.String())
			assert.Equal(t, tt.maxCoins, quote.MaxCoinsUsed.String())
		})
	}
}

func TestCatalogQuoteErrors(t *testing.T) {
	catalog := services.NewCatalog(1.0)

	_, err := catalog.Quote("Atlantis", "Old Town", models.TicketTypeSingle)
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = catalog.Quote("Old Town", "Old Town", models.TicketTypeSingle)
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = catalog.Quote("Old Town", "Tech Park", "monthly")
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestCatalogListings(t *testing.T) {
	catalog := services.NewCatalog(1.0)

	stations := catalog.Stations()
	require.Len(t, stations, 12)
	assert.Equal(t, "Central Metro Station", stations[0])
	assert.Equal(t, "Green Valley", stations[11])

	fares := catalog.Fares()
	require.Len(t, fares, 3)
	assert.Equal(t, models.TicketTypeSingle, fares[0].Type)

	offers := catalog.Offers()
	assert.Len(t, offers, 8)

	offer, ok := catalog.FindOffer("zee5-premium-1month")
	require.True(t, ok)
	assert.Equal(t, "39.60", offer.FinalPrice().String())

	matches := catalog.MatchOffers(models.RewardTypeSpotify, "spotify")
	require.Len(t, matches, 2)
	assert.Equal(t, "spotify-premium-1month", matches[0].ID)
	assert.Equal(t, "spotify-premium-3month", matches[1].ID)

	assert.Len(t, catalog.MatchOffers(models.RewardTypeOTTSubscription, "zee5"), 1)
	assert.Empty(t, catalog.MatchOffers(models.RewardTypeSpotify, "netflix"))
}
