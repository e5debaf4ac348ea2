// Package client holds the records of the customers who book soirees.
package client

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const prefix = "CL"

var ErrNotFound = errors.New("client not found")

type Client struct {
	ID        string    `json:"id" gorm:"primary_key"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Patch struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
}

func NewID() string {
	return fmt.Sprintf("%s-%s", prefix, uuid.New().String())
}

func (c *Client) prepare(now time.Time) {
	if c.ID == "" {
		c.ID = NewID()
	}
	c.CreatedAt = now
	c.UpdatedAt = now
}

func (c *Client) Apply(patch Patch, now time.Time) {
	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.Email != nil {
		c.Email = *patch.Email
	}
	if patch.Phone != nil {
		c.Phone = *patch.Phone
	}
	c.UpdatedAt = now
}
