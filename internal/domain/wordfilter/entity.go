// internal/domain/wordfilter/entity.go
package wordfilter

import "time"

type WordFilter struct {
	ID        int64     `json:"id"`
	Word      string    `json:"word"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateRequest struct {
	Word string `json:"word" binding:"required,notblank"`
}
