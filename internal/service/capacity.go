package service

// AvailableSeats returns the free seats of an event. An event without a
// capacity has no seats: registration stays closed until one is set.
// enrolled counts every enrollment regardless of attendance.
func AvailableSeats(capacity *int, enrolled int) int {
	if capacity == nil {
		return 0
	}
	return max(0, *capacity-enrolled)
}

// HasAvailableSeats reports whether at least one seat is free.
func HasAvailableSeats(capacity *int, enrolled int) bool {
	return AvailableSeats(capacity, enrolled) > 0
}
