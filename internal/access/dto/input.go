package dto

type ProfileInput struct {
	FullName          string
	Email             string
	Phone             string
	Institution       string
	Address           string
	City              string
	PreferredLanguage string
}
