// README: User profile fields read outside the trip module.
package user

// Profile is the subset of users/{uid} exposed for contact lookups.
type Profile struct {
	UID    string
	UserID string
	Phone  string
}

// PhoneQuery selects a profile by auth uid or, when UID is empty, by user_id.
type PhoneQuery struct {
	UID    string
	UserID string
}
