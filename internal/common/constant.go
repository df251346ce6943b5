package common

// Result statuses carried in every response body.
const (
	StatusSuccess = "success"
	StatusFail    = "fail"
)
