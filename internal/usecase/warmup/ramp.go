package warmup

// rampStep fixes the ceilings for one warm-up day. Endorsements are
// derived from post likes, search pulls are never ramped, so neither
// appears here.
type rampStep struct {
	ConnectionRequests int
	Messages           int
	ProfileViews       int
	PostLikes          int
	TotalActions       int
}

// rampTable is versioned behavioral data: day 1 starts around a quarter
// of steady state and climbs roughly linearly to full ceilings on day
// 15, holding flat through day 21. Do not regenerate from a formula;
// historical accounts depend on these exact values.
var rampTable = [rampDays]rampStep{
	{10, 20, 35, 25, 100},   // day 1
	{12, 24, 43, 30, 120},   // day 2
	{14, 28, 51, 35, 140},   // day 3
	{16, 32, 59, 40, 160},   // day 4
	{18, 36, 67, 45, 180},   // day 5
	{20, 40, 75, 50, 200},   // day 6
	{22, 44, 83, 55, 220},   // day 7
	{24, 48, 91, 60, 240},   // day 8
	{26, 52, 99, 65, 260},   // day 9
	{28, 56, 107, 70, 280},  // day 10
	{30, 60, 115, 75, 300},  // day 11
	{32, 64, 123, 80, 320},  // day 12
	{34, 68, 131, 85, 340},  // day 13
	{37, 74, 140, 92, 370},  // day 14
	{40, 80, 150, 100, 400}, // day 15
	{40, 80, 150, 100, 400}, // day 16
	{40, 80, 150, 100, 400}, // day 17
	{40, 80, 150, 100, 400}, // day 18
	{40, 80, 150, 100, 400}, // day 19
	{40, 80, 150, 100, 400}, // day 20
	{40, 80, 150, 100, 400}, // day 21
}
