package db

import (
	"database/sql"
	"time"
)

type User struct {
	ID        string
	Username  string
	Email     string
	CreatedAt time.Time
}

type Player struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

type Review struct {
	ID                int64
	PlayerID          int64
	UserID            sql.NullString
	Rank              string
	Rating            int64
	Comment           string
	CreatedAt         time.Time
	ScheduledPostTime sql.NullTime
}

type ClientState struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}
