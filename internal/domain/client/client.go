package client

import (
	"errors"
	"time"
)

// PlaceholderAddress is stored for clients created implicitly from an
// interaction's client name.
const PlaceholderAddress = "Not specified"

var (
	ErrNotFound  = errors.New("client not found")
	ErrNameTaken = errors.New("client name already exists")
)

type Client struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"-"`
}

type CreateClientRequest struct {
	Name    string `json:"name" binding:"required,max=100"`
	Address string `json:"address" binding:"required,max=200"`
}
