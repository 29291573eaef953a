package model

import "time"

// Profile is the subset of directory profile fields the bot consumes
type Profile struct {
	DisplayName       string `json:"displayName"`
	UserPrincipalName string `json:"userPrincipalName"`
	JobTitle          string `json:"jobTitle"`
	Department        string `json:"department"`
	OfficeLocation    string `json:"officeLocation"`
}

// Event is a single calendar event
type Event struct {
	Subject   string
	Start     time.Time
	End       time.Time
	Location  string
	Organizer string
}

// EventFilter narrows a calendar query to a time window
type EventFilter struct {
	Start time.Time
	End   time.Time
}

// TodayRemaining returns a filter covering the rest of the given day
func TodayRemaining(now time.Time) EventFilter {
	year, month, day := now.Date()
	endOfDay := time.Date(year, month, day, 23, 59, 59, 0, now.Location())
	return EventFilter{Start: now, End: endOfDay}
}
