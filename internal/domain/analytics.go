package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

type DailyStats struct {
	Date                     time.Time `json:"date"`
	TotalChats               int64     `json:"totalChats"`
	UniqueUsers              int64     `json:"uniqueUsers"`
	AppointmentsBooked       int64     `json:"appointmentsBooked"`
	TotalMessagesExchanged   int64     `json:"totalMessagesExchanged"`
	BirthdayRemindersSent    int64     `json:"birthdayRemindersSent"`
	AppointmentRemindersSent int64     `json:"appointmentRemindersSent"`
}

func (d *DailyStats) UnmarshalJSON(raw []byte) error {
	type plain DailyStats
	var wire struct {
		plain
		Date any `json:"date"`
	}
	if err := decodeNumbers(raw, &wire); err != nil {
		return fmt.Errorf("decode daily stats: %w", err)
	}
	*d = DailyStats(wire.plain)
	if wire.Date != nil {
		ts, ok := parseRecency(wire.Date)
		if !ok {
			return fmt.Errorf("decode daily stats: invalid date %v", wire.Date)
		}
		d.Date = ts
	}
	return nil
}

func (d DailyStats) MarshalJSON() ([]byte, error) {
	type plain DailyStats
	return json.Marshal(struct {
		plain
		Date string `json:"date"`
	}{plain: plain(d), Date: d.Date.Format("2006-01-02")})
}

type StatsTotals struct {
	Chats                int64 `json:"chats"`
	Users                int64 `json:"users"`
	Appointments         int64 `json:"appointments"`
	Messages             int64 `json:"messages"`
	Birthdays            int64 `json:"birthdays"`
	AppointmentReminders int64 `json:"appointmentReminders"`
}

func SortDailyStats(stats []DailyStats) []DailyStats {
	out := append([]DailyStats(nil), stats...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

func SumDailyStats(stats []DailyStats) StatsTotals {
	var totals StatsTotals
	for _, day := range stats {
		totals.Chats += day.TotalChats
		totals.Users += day.UniqueUsers
		totals.Appointments += day.AppointmentsBooked
		totals.Messages += day.TotalMessagesExchanged
		totals.Birthdays += day.BirthdayRemindersSent
		totals.AppointmentReminders += day.AppointmentRemindersSent
	}
	return totals
}

type RealtimeStats struct {
	Leads struct {
		Total    int64 `json:"total"`
		NewToday int64 `json:"newToday"`
	} `json:"leads"`
	Orders struct {
		Count   int64   `json:"count"`
		Revenue float64 `json:"revenue"`
	} `json:"orders"`
	LinkClicks    int64 `json:"linkClicks"`
	AgentRequests int64 `json:"agentRequests"`
	AddToCarts    int64 `json:"addToCarts"`
}

// ApplyCounter bumps the aggregate matching a lead counter field.
func (s RealtimeStats) ApplyCounter(field string, delta int64) RealtimeStats {
	switch field {
	case "linkClicks":
		s.LinkClicks += delta
	case "agentRequests":
		s.AgentRequests += delta
	case "addToCartCount":
		s.AddToCarts += delta
	}
	return s
}
