package phenology

// DerivativeRecord is one output row: the posterior derivative summary for a
// pixel, year and day-of-year. Sig is "*" when the credible interval
// excludes zero, empty otherwise. A successfully processed pixel-year emits
// exactly 365 of these, days 1..365.
type DerivativeRecord struct {
	PixelID   string  `csv:"pixel_id"`
	Year      int     `csv:"year"`
	Yday      int     `csv:"yday"`
	DerivMean float64 `csv:"deriv_mean"`
	DerivLwr  float64 `csv:"deriv_lwr"`
	DerivUpr  float64 `csv:"deriv_upr"`
	Sig       string  `csv:"sig"`
}
