package domain

// GrowthPoint is one day of signup counts for the dashboard chart.
type GrowthPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Stats is the dashboard snapshot served by the backend.
type Stats struct {
	TotalUsers     int           `json:"total_users"`
	UsersToday     int           `json:"users_today"`
	UsersThisWeek  int           `json:"users_this_week"`
	UsersThisMonth int           `json:"users_this_month"`
	RecentUsers    []User        `json:"recent_users"`
	GrowthData     []GrowthPoint `json:"growth_data"`
}
