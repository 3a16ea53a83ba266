package domain

import "fmt"

// UserSummary is the subset of an upstream user needed to render assignees.
type UserSummary struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// PlaceholderUser stands in for a user the upstream could not return.
func PlaceholderUser(id int) UserSummary {
	return UserSummary{
		ID:        id,
		Username:  fmt.Sprintf("user_%d", id),
		FirstName: "Unknown",
		LastName:  "User",
		Email:     fmt.Sprintf("user_%d@example.com", id),
	}
}
