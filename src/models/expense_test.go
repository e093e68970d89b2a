package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestExpenseJSON_DateOnly(t *testing.T) {
	food := "c1"
	e := Expense{
		ID:          "e1",
		Date:        time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC),
		Description: "Dinner",
		Amount:      decimal.RequireFromString("20.25"),
		CategoryID:  &food,
		CreatedAt:   time.Date(2024, 4, 20, 18, 30, 0, 0, time.UTC),
	}

	b, err := json.Marshal([]Expense{e})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	out := string(b)
	if !strings.Contains(out, `"date":"2024-04-20"`) {
		t.Errorf("date not written as a plain date: %s", out)
	}
	if strings.Count(out, `"date"`) != 1 {
		t.Errorf("date written more than once: %s", out)
	}
	if !strings.Contains(out, `"created_at":"2024-04-20T18:30:00Z"`) {
		t.Errorf("created_at should keep its timestamp: %s", out)
	}

	var back []Expense
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(back) != 1 || !back[0].Date.Equal(e.Date) || back[0].Description != "Dinner" || *back[0].CategoryID != "c1" {
		t.Errorf("Unmarshal() = %+v", back)
	}
}

func TestExpenseJSON_ReadsDates(t *testing.T) {
	tests := []struct {
		name    string
		date    string
		want    time.Time
		wantErr bool
	}{
		{"plain date", `"2024-04-20"`, time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC), false},
		{"timestamp", `"2024-04-20T00:00:00Z"`, time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC), false},
		{"empty", `""`, time.Time{}, false},
		{"garbage", `"20/04/2024"`, time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e Expense
			err := json.Unmarshal([]byte(`{"id":"e1","date":`+tt.date+`}`), &e)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !e.Date.Equal(tt.want) {
				t.Errorf("Date = %v, want %v", e.Date, tt.want)
			}
		})
	}
}
