package availability

import "turnolibre/pkg/model"

// ResolvePrice returns the price of a slot starting at the given local hour.
// The night price applies when the court defines both a cutover hour and a
// valid non-negative night price and the slot's hour is at or past the
// cutover; otherwise the base price applies. Minutes never influence the
// decision.
//
// Both the display path (grid generation) and the commit path (direct
// reserve, hold promotion) call this function, so a user can never be
// charged a price different from the one shown.
func ResolvePrice(court *model.Court, hour int) float64 {
	if court.NightFromHour != nil && court.NightPrice != nil && *court.NightPrice >= 0 {
		if hour >= *court.NightFromHour {
			return *court.NightPrice
		}
	}
	return court.BasePrice
}

// PriceAt resolves the price for an HH:MM start time string.
func PriceAt(court *model.Court, hhmm string) (float64, error) {
	minutes, err := parseHHMM(hhmm)
	if err != nil {
		return 0, err
	}
	return ResolvePrice(court, minutes/60), nil
}
