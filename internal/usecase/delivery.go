package usecase

const (
	sameHubDeliveryDays = 2
	maxDeliveryDays     = 10
)

// EstimateDeliveryDays grows by one day per hub of distance between buyer and seller.
func EstimateDeliveryDays(buyerHub, sellerHub int) int {
	diff := buyerHub - sellerHub
	if diff < 0 {
		diff = -diff
	}
	days := sameHubDeliveryDays + diff
	if days > maxDeliveryDays {
		return maxDeliveryDays
	}
	return days
}
