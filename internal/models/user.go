package models

// Credentials are what the mutation relay needs to sign and broadcast on a user's behalf.
type Credentials struct {
	Username    string `json:"username"`
	AccessToken string `json:"-"`
}

func (c Credentials) IsZero() bool {
	return c.Username == "" || c.AccessToken == ""
}
