package dto

import "time"

type CreateOrgDTO struct {
	Name   string `json:"name" binding:"required" validate:"min=1,max=128"`
	Handle string `json:"handle" validate:"omitempty,max=64"`
}

type UpdateOrgDTO struct {
	Name   string `json:"name" validate:"omitempty,min=1,max=128"`
	Handle string `json:"handle" validate:"omitempty,max=64"`
}

// OrgDTO 组织
type OrgDTO struct {
	ID         uint64    `json:"id"`
	Name       string    `json:"name"`
	Slug       string    `json:"slug"`
	Handle     *string   `json:"handle,omitempty"`
	ExternalID string    `json:"external_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
