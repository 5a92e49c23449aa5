package cli

import (
	"strings"

	"smc-trader/pkg/utils"
)

// formatZone renders a price zone as "bottom - top".
func formatZone(bottom, top float64, places int32) string {
	return utils.FormatPrice(bottom, places) + " - " + utils.FormatPrice(top, places)
}

// formatDistance renders the percent distance from price to the nearest zone edge.
// Zero means price sits inside the zone.
func formatDistance(price, bottom, top float64) string {
	switch {
	case price <= 0:
		return "-"
	case price > top:
		return utils.FormatPercent(utils.PercentChange(price, top))
	case price < bottom:
		return utils.FormatPercent(utils.PercentChange(price, bottom))
	default:
		return "inside"
	}
}

// strengthBar renders a 0..5 strength as filled and empty blocks.
func strengthBar(strength int) string {
	if strength < 0 {
		strength = 0
	}
	if strength > 5 {
		strength = 5
	}
	return strings.Repeat("█", strength) + strings.Repeat("░", 5-strength)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
