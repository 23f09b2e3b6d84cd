package dto

import "time"

// CreateBoardRequest payload.
type CreateBoardRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// UpdateBoardRequest payload.
type UpdateBoardRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// AddMemberRequest payload.
type AddMemberRequest struct {
	UserID string `json:"user_id"`
}

// BoardSummary response.
type BoardSummary struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Archived    bool      `json:"archived"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BoardDetailResponse provides full board info.
type BoardDetailResponse struct {
	BoardSummary
	MemberIDs []string `json:"member_ids"`
}
