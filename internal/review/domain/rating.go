package domain

// Incremental-mean arithmetic for the denormalized listing aggregate. The
// repository applies these inside the review/listing transaction so that the
// read-modify-write of (averageRating, ratingsCount) is serialized against
// concurrent reviewers.

// AddRating folds one new rating into the running mean.
func AddRating(avg float64, count int64, rating int32) (float64, int64) {
	newCount := count + 1
	return (avg*float64(count) + float64(rating)) / float64(newCount), newCount
}

// ReplaceRating swaps an existing contribution for a new one; the count is
// unchanged. A zero count leaves the aggregate untouched.
func ReplaceRating(avg float64, count int64, oldRating, newRating int32) float64 {
	if count == 0 {
		return avg
	}
	return (avg*float64(count) - float64(oldRating) + float64(newRating)) / float64(count)
}

// RemoveRating drops one contribution from the running mean. Removing the
// last rating resets the average to zero rather than dividing by zero.
func RemoveRating(avg float64, count int64, rating int32) (float64, int64) {
	if count <= 1 {
		return 0, 0
	}
	newCount := count - 1
	return (avg*float64(count) - float64(rating)) / float64(newCount), newCount
}
