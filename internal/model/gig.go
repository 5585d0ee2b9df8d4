// Package model はドメインモデルを定義する。
package model

import "time"

// Gig はライブ（イベント）レコードを表す。
// リモートAPIが所有するエンティティであり、クライアント側では
// 型の形状以外の不変条件は強制しない。
type Gig struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	VenueName    string    `json:"venue_name"`
	VenueAddress string    `json:"venue_address"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	Date         string    `json:"date"`
	StartTime    string    `json:"start_time"`
	EndTime      *string   `json:"end_time"`
	Price        *float64  `json:"price"`
	ImageURL     *string   `json:"image_url"`
	OrganizerID  string    `json:"organizer_id"`
	Genres       []string  `json:"genres"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Organizer    *User     `json:"organizer,omitempty"`
}

// CreateGigInput はライブ作成リクエストのボディ。
type CreateGigInput struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	VenueName    string   `json:"venue_name"`
	VenueAddress string   `json:"venue_address"`
	Latitude     float64  `json:"latitude"`
	Longitude    float64  `json:"longitude"`
	Date         string   `json:"date"`
	StartTime    string   `json:"start_time"`
	EndTime      *string  `json:"end_time,omitempty"`
	Price        *float64 `json:"price,omitempty"`
	Genres       []string `json:"genres,omitempty"`
}

// UpdateGigInput はライブ更新リクエストのボディ。
// nilのフィールドはリクエストから省略され、サーバー側で変更されない。
type UpdateGigInput struct {
	Title        *string  `json:"title,omitempty"`
	Description  *string  `json:"description,omitempty"`
	VenueName    *string  `json:"venue_name,omitempty"`
	VenueAddress *string  `json:"venue_address,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	Date         *string  `json:"date,omitempty"`
	StartTime    *string  `json:"start_time,omitempty"`
	EndTime      *string  `json:"end_time,omitempty"`
	Price        *float64 `json:"price,omitempty"`
	Genres       []string `json:"genres,omitempty"`
}
