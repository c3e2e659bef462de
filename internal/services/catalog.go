package services

import (
	"github.com/shopspring/decimal"

	"github.com/JAGANADITHYA/walk1/internal/models"
)

var defaultStations = []string{
	"Central Metro Station",
	"City Center",
	"Business District",
	"University Campus",
	"Shopping Mall",
	"Airport Terminal",
	"Sports Complex",
	"Medical Center",
	"Tech Park",
	"Old Town",
	"Marina Bay",
	"Green Valley",
}

var defaultFares = []models.TicketFare{
	{Type: models.TicketTypeSingle, Base: models.NumericFromInt(25), PerStation: models.NumericFromInt(5)},
	{Type: models.TicketTypeReturn, Base: models.NumericFromInt(45), PerStation: models.NumericFromInt(8)},
	{Type: models.TicketTypeDayPass, Base: models.NumericFromInt(150), PerStation: models.NumericFromInt(0)},
}

var defaultOffers = []models.RewardOffer{
	offer("spotify-premium-1month", models.RewardTypeSpotify, "spotify", "Spotify Premium", "1 Month", 119, 25, 30,
		"Ad-free music, offline downloads, unlimited skips"),
	offer("spotify-premium-3month", models.RewardTypeSpotify, "spotify", "Spotify Premium", "3 Months", 357, 35, 125,
		"3 months of premium music streaming"),
	offer("bookmyshow-movie", models.RewardTypeMovieTicket, "bookmyshow", "Movie Ticket", "Any Show", 250, 40, 100,
		"Valid for any movie at participating theaters"),
	offer("pvr-premium-movie", models.RewardTypeMovieTicket, "pvr", "PVR Premium Ticket", "Any Show", 400, 30, 120,
		"Premium movie experience with recliner seats"),
	offer("netflix-mobile", models.RewardTypeOTTSubscription, "netflix", "Netflix Mobile", "1 Month", 149, 50, 75,
		"Mobile-only Netflix subscription"),
	offer("prime-video-1month", models.RewardTypeOTTSubscription, "amazon-prime", "Prime Video", "1 Month", 179, 35, 65,
		"Amazon Prime Video subscription"),
	offer("hotstar-super-3month", models.RewardTypeOTTSubscription, "hotstar", "Disney+ Hotstar Super", "3 Months", 299, 45, 135,
		"Sports, movies, and TV shows"),
	offer("zee5-premium-1month", models.RewardTypeOTTSubscription, "zee5", "ZEE5 Premium", "1 Month", 99, 60, 60,
		"Regional and Bollywood content"),
}

func offer(id string, t models.RewardType, provider, title, duration string, price, pct, coins int64, desc string) models.RewardOffer {
	return models.RewardOffer{
		ID:              id,
		Type:            t,
		Provider:        provider,
		Title:           title,
		Duration:        duration,
		Description:     desc,
		OriginalPrice:   models.NumericFromInt(price),
		DiscountPercent: pct,
		CoinsRequired:   models.NumericFromInt(coins),
	}
}

// Catalog is the server-side price list for metro tickets and reward offers.
type Catalog struct {
	stations     []string
	stationIndex map[string]int
	fares        map[models.TicketType]models.TicketFare
	offers       []models.RewardOffer
	maxCoinShare decimal.Decimal
}

func NewCatalog(maxCoinShare float64) *Catalog {
	c := &Catalog{
		stations:     defaultStations,
		stationIndex: make(map[string]int, len(defaultStations)),
		fares:        make(map[models.TicketType]models.TicketFare, len(defaultFares)),
		offers:       defaultOffers,
		maxCoinShare: decimal.NewFromFloat(maxCoinShare),
	}
	for i, s := range c.stations {
		c.stationIndex[s] = i
	}
	for _, f := range defaultFares {
		c.fares[f.Type] = f
	}
	return c
}

func (c *Catalog) Stations() []string {
	return append([]string(nil), c.stations...)
}

func (c *Catalog) Fares() []models.TicketFare {
	out := make([]models.TicketFare, 0, len(defaultFares))
	for _, f := range defaultFares {
		out = append(out, c.fares[f.Type])
	}
	return out
}

func (c *Catalog) Offers() []models.RewardOffer {
	return append([]models.RewardOffer(nil), c.offers...)
}

// Quote prices a journey. Unknown or identical stations and unknown ticket
// types are validation errors.
func (c *Catalog) Quote(from, to string, ticketType models.TicketType) (*models.MetroQuote, error) {
	fi, ok := c.stationIndex[from]
	if !ok {
		return nil, validationErr("unknown station %q", from)
	}
	ti, ok := c.stationIndex[to]
	if !ok {
		return nil, validationErr("unknown station %q", to)
	}
	if fi == ti {
		return nil, validationErr("from and to stations must differ")
	}
	fare, ok := c.fares[ticketType]
	if !ok {
		return nil, validationErr("unknown ticket type %q", ticketType)
	}

	stops := fi - ti
	if stops < 0 {
		stops = -stops
	}
	total := fare.Base.Add(models.NewNumeric(fare.PerStation.Decimal.Mul(decimal.NewFromInt(int64(stops)))))

	return &models.MetroQuote{
		FromStation:  from,
		ToStation:    to,
		TicketType:   ticketType,
		Stops:        stops,
		TotalAmount:  total,
		MaxCoinsUsed: c.MaxCoins(total),
	}, nil
}

// MaxCoins caps the coin share of a fare, rounded down to the paisa.
func (c *Catalog) MaxCoins(total models.Numeric) models.Numeric {
	return models.Numeric{Decimal: total.Decimal.Mul(c.maxCoinShare).RoundFloor(2)}
}

func (c *Catalog) FindOffer(id string) (models.RewardOffer, bool) {
	for _, o := range c.offers {
		if o.ID == id {
			return o, true
		}
	}
	return models.RewardOffer{}, false
}

// MatchOffers returns every offer of the given type from provider, in
// catalog order.
func (c *Catalog) MatchOffers(rewardType models.RewardType, provider string) []models.RewardOffer {
	var out []models.RewardOffer
	for _, o := range c.offers {
		if o.Type == rewardType && o.Provider == provider {
			out = append(out, o)
		}
	}
	return out
}
