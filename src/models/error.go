package models

import "fmt"

var NoActiveSessionErr = fmt.Errorf("no active session for user")
var NoExpectedBrokersErr = fmt.Errorf("expected broker list must be non-empty")
var InvalidSplitDateErr = fmt.Errorf("split date must be formatted as YYYY-MM-DD")
var UnknownTickerErr = fmt.Errorf("ticker is not on the watchlist")

type ErrorDTO struct {
	Msg string `json:"msg"`
}
