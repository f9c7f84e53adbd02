package model

import "time"

// AccountSnapshot is one point-in-time view of the MAM account, built from
// the jsonLoad status endpoint. It is replaced wholesale on every successful
// fetch and never partially mutated.
type AccountSnapshot struct {
	Username        string
	Classname       string
	CountryName     string
	Ratio           float64
	Uploaded        string
	Downloaded      string
	UploadedBytes   int64
	DownloadedBytes int64
	Seedbonus       int64
	Wedges          int
	Notifications   int
	DonatedToday    bool
	FetchedAt       time.Time
}
