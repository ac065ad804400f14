package models

// User is the serialized current-user record kept alongside the token pair.
type User struct {
	ID       int64  `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// Credential is the access/refresh token pair. Exactly one valid pair exists
// at a time; expiry is learned only from a 401, never decoded locally.
type Credential struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Empty reports whether no usable credential is held.
func (c Credential) Empty() bool {
	return c.AccessToken == "" && c.RefreshToken == ""
}
